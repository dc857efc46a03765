package controller

import (
	"math_missions_backend/internal/model"
	"math_missions_backend/internal/service"
	"math_missions_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ReasoningLogController 任务与图书馆条目共用的波利亚工作表接口
type ReasoningLogController struct {
	LogService *service.ReasoningLogService
}

func NewReasoningLogController(logService *service.ReasoningLogService) *ReasoningLogController {
	return &ReasoningLogController{LogService: logService}
}

func (c *ReasoningLogController) load(ctx *gin.Context, kind model.TargetKind) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	view, err := c.LogService.LoadForTarget(user.UserID, model.ReasoningTarget{Kind: kind, ID: id})
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

func (c *ReasoningLogController) save(ctx *gin.Context, kind model.TargetKind) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	var input service.ReasoningLogInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.LogService.SaveLog(user.UserID, model.ReasoningTarget{Kind: kind, ID: id}, input)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 读取任务工作表
// @Description 尚未填写时 data 为 null
// @Tags 波利亚工作表
// @Produce json
// @Security BearerAuth
// @Param id path int true "任务ID"
// @Success 200 {object} util.Response{data=service.ReasoningLogView}
// @Failure 404 {object} util.Response
// @Router /missions/{id}/reasoning-log [get]
func (c *ReasoningLogController) GetMissionLog(ctx *gin.Context) {
	c.load(ctx, model.TargetMission)
}

// @Summary 保存任务工作表
// @Description 整体覆盖文本字段与策略勾选，confidence 无法解析时保留原值，加数列表整体替换
// @Tags 波利亚工作表
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "任务ID"
// @Param body body service.ReasoningLogInput true "工作表"
// @Success 200 {object} util.Response{data=service.ReasoningLogView}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /missions/{id}/reasoning-log [put]
func (c *ReasoningLogController) SaveMissionLog(ctx *gin.Context) {
	c.save(ctx, model.TargetMission)
}

// @Summary 读取图书馆条目工作表
// @Tags 波利亚工作表
// @Produce json
// @Security BearerAuth
// @Param id path int true "条目ID"
// @Success 200 {object} util.Response{data=service.ReasoningLogView}
// @Failure 404 {object} util.Response
// @Router /library/{id}/reasoning-log [get]
func (c *ReasoningLogController) GetContentLog(ctx *gin.Context) {
	c.load(ctx, model.TargetContent)
}

// @Summary 保存图书馆条目工作表
// @Description 条目工作表不记录策略勾选
// @Tags 波利亚工作表
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "条目ID"
// @Param body body service.ReasoningLogInput true "工作表"
// @Success 200 {object} util.Response{data=service.ReasoningLogView}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /library/{id}/reasoning-log [put]
func (c *ReasoningLogController) SaveContentLog(ctx *gin.Context) {
	c.save(ctx, model.TargetContent)
}

// @Summary 教师查看学生的任务工作表
// @Description 返回学生的工作表（可能为 null）和最近一次尝试（可能为 null）
// @Tags 波利亚工作表
// @Produce json
// @Security BearerAuth
// @Param id path int true "任务ID"
// @Param userId path int true "学生ID"
// @Success 200 {object} util.Response{data=service.StudentWorksheet}
// @Failure 404 {object} util.Response
// @Router /teacher/missions/{id}/students/{userId}/reasoning-log [get]
func (c *ReasoningLogController) StudentWorksheet(ctx *gin.Context) {
	missionID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	studentID, err := util.ParseID(ctx.Param("userId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	sheet, err := c.LogService.StudentWorksheet(missionID, studentID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, sheet)
}
