package routes

import (
	"github.com/gin-gonic/gin"

	"taskdesk/internal/authz"
	"taskdesk/internal/handlers"
	"taskdesk/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	taskHandler *handlers.TaskHandler,
	reportHandler *handlers.ReportHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.POST("/register", userHandler.Register)

	// ---- protected
	r.Use(middleware.AuthMiddleware())
	r.Use(middleware.ReadOnlyGuard())

	// USERS
	users := r.Group("/users")
	{
		users.GET("/", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUserByID)
	}

	// TASKS
	tasks := r.Group("/tasks",
		middleware.RequireRoles(authz.RoleAssignee, authz.RoleReviewer, authz.RoleAudit, authz.RoleAdmin),
	)
	{
		tasks.POST("/", taskHandler.Create)
		tasks.GET("/", taskHandler.GetAll)
		tasks.POST("/attachments", taskHandler.UploadAttachment)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.DELETE("/:id", taskHandler.Delete)
		tasks.PUT("/:id/submit", taskHandler.SubmitCompletion)
		tasks.PUT("/:id/complete", taskHandler.MarkComplete)
		tasks.PUT("/:id/rework", taskHandler.RequestRework)
		tasks.GET("/:id/timeline", taskHandler.Timeline)
		tasks.GET("/:id/timeline/pdf", taskHandler.TimelinePDF)
	}

	// REPORTS (audit/reviewer/admin)
	reports := r.Group("/reports",
		middleware.RequireRoles(authz.RoleAudit, authz.RoleReviewer, authz.RoleAdmin),
	)
	{
		reports.GET("/summary", reportHandler.GetSummary)
	}

	return r
}
