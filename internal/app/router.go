package app

import (
	"math_missions_backend/docs"
	"math_missions_backend/internal/config"
	"math_missions_backend/internal/middleware"
	"math_missions_backend/internal/model"
	"math_missions_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		// 学生/通用 授权接口
		a.registerStudentRoutes(authGroup, c)

		// 教师相关接口（管理员同样可访问）
		teacher := authGroup.Group("/teacher")
		teacher.Use(middleware.RoleMiddleware(model.Teacher))
		a.registerTeacherRoutes(teacher, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/me", c.auth.Me)
	rg.GET("/dashboard", c.dashboard.GetDashboard)

	// 任务
	rg.GET("/missions", c.mission.ListMissions)
	rg.GET("/missions/progress-map", c.mission.ProgressMap)
	rg.GET("/missions/:id/attempts/latest", c.attempt.LatestAttempt)
	rg.GET("/missions/:id/reasoning-log", c.reasoningLog.GetMissionLog)
	rg.PUT("/missions/:id/reasoning-log", c.reasoningLog.SaveMissionLog)
	rg.POST("/attempts", c.attempt.RecordAttempt)

	// 图书馆
	rg.GET("/library", c.content.Library)
	rg.GET("/library/practice", c.quiz.Practice)
	rg.POST("/library/quiz", c.quiz.GenerateQuiz)
	rg.POST("/library/viewed", c.content.MarkViewed)
	rg.GET("/library/:id", c.content.GetItem)
	rg.GET("/library/:id/reasoning-log", c.reasoningLog.GetContentLog)
	rg.PUT("/library/:id/reasoning-log", c.reasoningLog.SaveContentLog)
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	// 任务管理与批改
	rg.GET("/missions", c.mission.ListAllMissions)
	rg.POST("/missions", c.mission.CreateMission)
	rg.PATCH("/missions/:id", c.mission.UpdateMission)
	rg.GET("/missions/:id/attempts", c.attempt.ListAttempts)
	rg.GET("/missions/:id/students/:userId/reasoning-log", c.reasoningLog.StudentWorksheet)
	rg.PATCH("/attempts/:id/status", c.attempt.SetStatus)

	// 报告
	rg.GET("/reports/students", c.dashboard.StudentReport)

	// 图书馆管理
	rg.GET("/content-items", c.content.ListItems)
	rg.POST("/content-items", c.content.CreateItem)
	rg.PATCH("/content-items/:id", c.content.UpdateItem)
	rg.DELETE("/content-items/:id", c.content.DeleteItem)
	rg.POST("/content-items/:id/image", c.content.UploadImage)
}
