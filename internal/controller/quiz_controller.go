package controller

import (
	"math_missions_backend/internal/service"
	"math_missions_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

type quizRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description" binding:"required"`
	Solution    interface{} `json:"solution" swaggertype:"integer"`
}

// @Summary 生成选择题
// @Description 题干为描述，正确答案为 solution，另生成互不相同的干扰项并打乱顺序
// @Tags 图书馆
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body quizRequest true "题目"
// @Success 200 {object} util.Response{data=service.QuizQuestion}
// @Failure 400 {object} util.Response
// @Router /library/quiz [post]
func (c *QuizController) GenerateQuiz(ctx *gin.Context) {
	var req quizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuizService.BuildQuestion(req.Title, req.Description, req.Solution)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// @Summary 练习页数据
// @Tags 图书馆
// @Produce json
// @Security BearerAuth
// @Param title query string false "标题"
// @Param description query string false "描述"
// @Param solution query string true "答案（整数）"
// @Success 200 {object} util.Response{data=service.PracticeView}
// @Failure 400 {object} util.Response
// @Router /library/practice [get]
func (c *QuizController) Practice(ctx *gin.Context) {
	view, err := c.QuizService.Practice(ctx.Query("title"), ctx.Query("description"), ctx.Query("solution"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
