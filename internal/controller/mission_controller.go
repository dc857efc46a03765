package controller

import (
	"math_missions_backend/internal/service"
	"math_missions_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MissionController struct {
	MissionService *service.MissionService
}

func NewMissionController(missionService *service.MissionService) *MissionController {
	return &MissionController{MissionService: missionService}
}

// @Summary 学生任务列表
// @Description 按运算类型编排的启用任务，附带当前用户的最新尝试状态和技能列表
// @Tags 任务
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.MissionListView}
// @Router /missions [get]
func (c *MissionController) ListMissions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.MissionService.ListForStudent(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 进度地图
// @Tags 任务
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.ProgressMapView}
// @Router /missions/progress-map [get]
func (c *MissionController) ProgressMap(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.MissionService.ProgressMap(user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 全部任务（含停用）
// @Tags 任务管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Mission}
// @Router /teacher/missions [get]
func (c *MissionController) ListAllMissions(ctx *gin.Context) {
	missions, err := c.MissionService.ListAll()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, missions)
}

// @Summary 创建任务
// @Tags 任务管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.MissionInput true "任务"
// @Success 201 {object} util.Response{data=model.Mission}
// @Failure 400 {object} util.Response
// @Router /teacher/missions [post]
func (c *MissionController) CreateMission(ctx *gin.Context) {
	var input service.MissionInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	mission, err := c.MissionService.CreateMission(ctx.Request.Context(), input)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, mission)
}

// @Summary 更新任务
// @Description 只更新请求中出现的字段
// @Tags 任务管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "任务ID"
// @Param body body service.MissionInput true "任务"
// @Success 200 {object} util.Response{data=model.Mission}
// @Failure 404 {object} util.Response
// @Router /teacher/missions/{id} [patch]
func (c *MissionController) UpdateMission(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	var input service.MissionInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	mission, err := c.MissionService.UpdateMission(ctx.Request.Context(), id, input)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, mission)
}
