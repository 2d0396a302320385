package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-scheduler-api/internal/middleware"
	"github.com/noah-isme/dept-scheduler-api/internal/models"
	"github.com/noah-isme/dept-scheduler-api/internal/service"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Auth       *AuthHandler
	Sections   *SectionHandler
	Faculty    *FacultyHandler
	AutoAssign *AutoAssignHandler
	Reports    *ReportHandler
	Metrics    *MetricsHandler
	// Audit receives a row per successful write. Nil disables the trail.
	Audit middleware.AuditRecorder
}

// RegisterRoutes mounts the API under prefix. Probe and metrics routes stay at the root.
func RegisterRoutes(r *gin.Engine, prefix string, auth *service.AuthService, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	api.POST("/auth/login", h.Auth.Login)
	api.GET("/export/:token", h.Reports.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(auth))

	everyone := middleware.RequireRoles(models.RoleAdmin, models.RoleScheduler, models.RoleFaculty)
	planners := middleware.RequireRoles(models.RoleAdmin, models.RoleScheduler)
	admins := middleware.RequireRoles(models.RoleAdmin)

	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(h.Audit, action, resource)
	}

	secured.GET("/auth/me", h.Auth.Me)

	sections := secured.Group("/sections")
	sections.GET("", everyone, h.Sections.List)
	sections.GET("/options", everyone, h.Sections.Options)
	sections.POST("", planners, audit(models.AuditActionSectionWrite, "section"), h.Sections.Create)
	sections.POST("/import", planners, audit(models.AuditActionSectionImport, "section"), h.Sections.Import)
	sections.POST("/replay", planners, audit(models.AuditActionSectionImport, "section"), h.Sections.Replay)
	sections.GET("/:id", everyone, h.Sections.Get)
	sections.PATCH("/:id", planners, audit(models.AuditActionSectionWrite, "section"), h.Sections.Update)
	sections.DELETE("/:id", planners, audit(models.AuditActionSectionDelete, "section"), h.Sections.Delete)
	sections.POST("/:id/delete-mark", planners, audit(models.AuditActionSectionDelete, "section"), h.Sections.MarkDeleted)
	sections.GET("/:id/conflicts", everyone, h.Sections.Conflicts)
	sections.GET("/:id/free-rooms", planners, h.Sections.FreeRooms)

	requests := secured.Group("/requests")
	requests.GET("", everyone, h.Faculty.ListRequests)
	requests.POST("", everyone, h.Faculty.SubmitRequest)
	requests.GET("/:id", everyone, h.Faculty.GetRequest)
	requests.DELETE("/:id", everyone, h.Faculty.DeleteRequest)

	instructors := secured.Group("/instructors")
	instructors.GET("", everyone, h.Faculty.ListInstructors)
	instructors.POST("", planners, audit(models.AuditActionInstructorWrite, "instructor"), h.Faculty.CreateInstructor)
	instructors.PUT("/:id", planners, audit(models.AuditActionInstructorWrite, "instructor"), h.Faculty.UpdateInstructor)
	instructors.DELETE("/:id", planners, audit(models.AuditActionInstructorWrite, "instructor"), h.Faculty.DeleteInstructor)
	instructors.POST("/:id/approval/:action", everyone, audit(models.AuditActionApproval, "instructor"), h.Faculty.Approval)

	autoAssign := secured.Group("/auto-assign", planners)
	autoAssign.GET("", h.AutoAssign.Status)
	autoAssign.PUT("", audit(models.AuditActionAutoAssign, "department"), h.AutoAssign.Toggle)
	autoAssign.POST("/run", audit(models.AuditActionAutoAssign, "department"), h.AutoAssign.Run)

	secured.POST("/assistant/ask", planners, h.AutoAssign.Ask)

	reports := secured.Group("/reports", everyone)
	reports.GET("/utilization", h.Reports.Utilization)
	reports.POST("", h.Reports.Create)
	reports.GET("/:id", h.Reports.Status)

	secured.GET("/system/metrics", admins, h.Metrics.Snapshot)
}
