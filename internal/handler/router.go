package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/models"
)

// Routes groups the handlers mounted under the API prefix.
type Routes struct {
	Auth          *AuthHandler
	Courses       *CourseHandler
	Registrations *RegistrationHandler
	Students      *StudentHandler
	Admissions    *AdmissionsHandler
	Metrics       *MetricsHandler

	// AuditLog receives one line per successful administrative change. Nil disables auditing.
	AuditLog *zap.Logger
}

func canRecordCompletions(role models.UserRole) bool {
	return models.CanEnterGrades(role) || models.CanManageCourses(role)
}

// Register mounts every API route on api. auth must populate the JWT claims.
func (r Routes) Register(api *gin.RouterGroup, auth gin.HandlerFunc) {
	api.POST("/auth/login", r.Auth.Login)
	api.POST("/admissions", r.Admissions.Submit)

	secured := api.Group("", auth)
	manage := middleware.RequirePermission(models.CanManageCourses)
	review := middleware.RequirePermission(models.CanReviewAdmissions)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(r.AuditLog, action, resource)
	}

	secured.GET("/auth/me", r.Auth.Me)

	secured.GET("/courses", r.Courses.List)
	secured.GET("/courses/:code", r.Courses.Get)
	secured.PUT("/courses/:code", manage, audit("upsert", "course"), r.Courses.Upsert)
	secured.DELETE("/courses/:code", manage, audit("delete", "course"), r.Courses.Delete)

	// Role checks for self-service registration happen in the engine so callers get its message.
	secured.POST("/registrations", r.Registrations.Register)
	secured.POST("/registrations/batch", manage, audit("batch_register", "registration"), r.Registrations.Batch)

	students := secured.Group("/students/:"+middleware.SelfParam, middleware.RBAC("SELF", string(models.RoleAdmin), string(models.RoleFaculty)))
	students.GET("/schedule", r.Students.Schedule)
	students.GET("/schedule/export", r.Students.ExportSchedule)
	students.GET("/completions", r.Students.Completions)
	students.POST("/completions", middleware.RequirePermission(canRecordCompletions), audit("record", "completion"), r.Students.RecordCompletion)

	secured.POST("/transcripts/import", manage, audit("import", "transcript"), r.Students.ImportTranscripts)

	secured.GET("/admissions", review, r.Admissions.List)
	secured.GET("/admissions/export", review, r.Admissions.Export)
	secured.GET("/admissions/:id", review, r.Admissions.Get)
	secured.PUT("/admissions/:id/decision", review, audit("decide", "application"), r.Admissions.Decide)

	secured.GET("/metrics/summary", manage, r.Metrics.Summary)
}
