package controller

import (
	"math_missions_backend/internal/service"
	"math_missions_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
	ReportService    *service.ReportService
}

func NewDashboardController(dashboardService *service.DashboardService, reportService *service.ReportService) *DashboardController {
	return &DashboardController{
		DashboardService: dashboardService,
		ReportService:    reportService,
	}
}

// @Summary 获取仪表盘数据
// @Description 按角色返回学生、教师或管理员仪表盘
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.DashboardView}
// @Router /dashboard [get]
func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.DashboardService.ForUser(user.UserID, user.Role)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 学生报告
// @Description 启用学生的任务完成情况与技能进度，以及最新的尝试动态
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Param q query string false "姓名或学生ID"
// @Param limit query int false "尝试动态条数，默认 100，0 表示全部"
// @Success 200 {object} util.Response{data=service.StudentReport}
// @Router /teacher/reports/students [get]
func (c *DashboardController) StudentReport(ctx *gin.Context) {
	limit := 100
	if raw := ctx.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			util.BadRequest(ctx, "limit must be a non-negative integer")
			return
		}
		limit = v
	}

	report, err := c.ReportService.StudentReport(ctx.Query("q"), limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, report)
}
