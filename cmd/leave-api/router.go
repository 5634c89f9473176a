package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/sma-leave-api/internal/handler"
	"github.com/noah-isme/sma-leave-api/internal/middleware"
	"github.com/noah-isme/sma-leave-api/internal/models"
	"github.com/noah-isme/sma-leave-api/pkg/config"
)

type routeDeps struct {
	tokens        middleware.TokenValidator
	leaves        *handler.LeaveHandler
	notifications *handler.NotificationHandler
	roster        *handler.RosterHandler
	metrics       *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, deps routeDeps) {
	r.GET("/health", deps.metrics.Health)
	r.GET("/ready", deps.metrics.Ready)
	r.GET("/metrics", deps.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := middleware.RequireRoles(models.RoleCoordinator, models.RoleAdmin)
	admin := middleware.RequireRoles(models.RoleAdmin)
	studentOrStaff := middleware.RBAC("id", models.RoleCoordinator, models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(deps.tokens))

	leaves := api.Group("/leaves")
	leaves.POST("", middleware.RequireRoles(models.RoleStudent), deps.leaves.Apply)
	leaves.GET("", admin, deps.leaves.List)
	leaves.GET("/mine", middleware.RequireRoles(models.RoleStudent), deps.leaves.Mine)
	leaves.GET("/stats", middleware.RequireRoles(models.RoleStudent), deps.leaves.MyStats)
	leaves.POST("/:id/decision", staff, deps.leaves.Decide)

	students := api.Group("/students")
	students.GET("/:id/leaves", studentOrStaff, deps.leaves.ForStudent)
	students.GET("/:id/leave-stats", studentOrStaff, deps.leaves.Stats)
	students.POST("/:id/approve", middleware.RequireRoles(models.RoleCoordinator), deps.roster.ApproveStudent)
	students.PUT("/:id/attendance", staff, deps.roster.UpdateAttendance)

	classes := api.Group("/classes/:class", staff)
	classes.GET("/leaves", deps.leaves.ForClass)
	classes.GET("/leave-summary", deps.leaves.ClassSummary)
	classes.GET("/leave-summary/export", deps.leaves.ExportClassSummary)
	classes.GET("/students", deps.roster.ClassStudents)

	notifications := api.Group("/notifications")
	notifications.GET("", deps.notifications.List)
	notifications.GET("/unread-count", deps.notifications.UnreadCount)
	notifications.POST("/:id/read", deps.notifications.MarkRead)
	notifications.DELETE("", deps.notifications.ClearAll)

	adminGroup := api.Group("/admin", admin)
	adminGroup.GET("/emergency-queue", deps.leaves.EmergencyQueue)
	adminGroup.GET("/coordinators", deps.roster.Coordinators)
	adminGroup.POST("/coordinators/:id/approve", deps.roster.ApproveCoordinator)
	adminGroup.GET("/coordinators/:id/students", deps.roster.CoordinatorStudents)
}
