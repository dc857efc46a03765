package controller

import (
	"math_missions_backend/internal/model"
	"math_missions_backend/internal/service"
	"math_missions_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

type recordAttemptRequest struct {
	MissionID        uint                `json:"missionId" binding:"required"`
	ProposedSolution string              `json:"proposedSolution"`
	Status           model.AttemptStatus `json:"status" binding:"omitempty,attempt_status" enums:"pending,in_progress,completed,rejected"`
}

type recordAttemptResponse struct {
	AttemptID uint                `json:"attemptId"`
	Status    model.AttemptStatus `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
}

type setStatusRequest struct {
	Status model.AttemptStatus `json:"status" binding:"omitempty,attempt_status" enums:"pending,in_progress,completed,rejected"`
}

// @Summary 记录任务尝试
// @Description 同一用户同一任务只保留一条当前尝试，重复提交覆盖状态、答案和时间
// @Tags 任务尝试
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body recordAttemptRequest true "尝试"
// @Success 200 {object} util.Response{data=recordAttemptResponse}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /attempts [post]
func (c *AttemptController) RecordAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req recordAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.AttemptService.RecordAttempt(user.UserID, req.MissionID, req.Status, req.ProposedSolution)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, recordAttemptResponse{
		AttemptID: attempt.ID,
		Status:    attempt.Status,
		Timestamp: attempt.AttemptedAt,
	})
}

// @Summary 任务的全部尝试
// @Tags 任务尝试
// @Produce json
// @Security BearerAuth
// @Param id path int true "任务ID"
// @Success 200 {object} util.Response{data=[]repository.AttemptRow}
// @Failure 404 {object} util.Response
// @Router /teacher/missions/{id}/attempts [get]
func (c *AttemptController) ListAttempts(ctx *gin.Context) {
	missionID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	rows, err := c.AttemptService.ListAttempts(missionID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}

// @Summary 修改尝试状态
// @Description 任意状态之间都可以直接切换
// @Tags 任务尝试
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "尝试ID"
// @Param body body setStatusRequest true "状态"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /teacher/attempts/{id}/status [patch]
func (c *AttemptController) SetStatus(ctx *gin.Context) {
	attemptID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	var req setStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if _, err := c.AttemptService.SetStatus(attemptID, req.Status); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"ok": true})
}

// @Summary 当前用户在任务上的最近尝试
// @Description 没有尝试时 data 为 null
// @Tags 任务尝试
// @Produce json
// @Security BearerAuth
// @Param id path int true "任务ID"
// @Success 200 {object} util.Response{data=model.MissionAttempt}
// @Router /missions/{id}/attempts/latest [get]
func (c *AttemptController) LatestAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	missionID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	attempt, err := c.AttemptService.LatestAttempt(user.UserID, missionID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}
