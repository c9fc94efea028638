// Package router assembles the HTTP surface of the service.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/handler"
	"github.com/noah-isme/osms-api/internal/middleware"
	"github.com/noah-isme/osms-api/internal/models"
	"github.com/noah-isme/osms-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/osms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/osms-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Dashboard     *handler.DashboardHandler
	Students      *handler.StudentHandler
	Faculty       *handler.FacultyHandler
	Courses       *handler.CourseHandler
	Attendance    *handler.AttendanceHandler
	Grades        *handler.GradeHandler
	Announcements *handler.AnnouncementHandler
	Reports       *handler.ReportHandler
	Metrics       *handler.MetricsHandler
}

// Options configures the engine.
type Options struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	EnableDocs     bool
	// Gate is the access gate; it runs before every route.
	Gate              gin.HandlerFunc
	Metrics           gin.HandlerFunc
	BackendConfigured bool
}

// New builds the gin engine.
func New(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	if opts.Metrics != nil {
		r.Use(opts.Metrics)
	}
	if opts.Gate != nil {
		r.Use(opts.Gate)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": "osms-api", "login": "/auth/login"})
	})
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/auth/login", h.Auth.LoginPage)
	auth := r.Group("/auth", middleware.RequireBackend(opts.BackendConfigured))
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
		auth.POST("/logout", h.Auth.Logout)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/reset-password", h.Auth.ResetPassword)
		auth.GET("/oauth/:provider", h.Auth.OAuthStart)
		auth.GET("/callback", h.Auth.OAuthCallback)
	}

	admin := r.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/dashboard", h.Dashboard.Admin)

		admin.GET("/students", h.Students.List)
		admin.POST("/students", h.Students.Create)
		admin.GET("/students/:id", h.Students.Get)
		admin.PUT("/students/:id", h.Students.Update)
		admin.DELETE("/students/:id", h.Students.Delete)

		admin.GET("/faculty", h.Faculty.List)
		admin.POST("/faculty", h.Faculty.Create)
		admin.GET("/faculty/:id", h.Faculty.Get)

		admin.GET("/courses", h.Courses.List)
		admin.POST("/courses", h.Courses.Create)
		admin.GET("/courses/:id", h.Courses.Get)
		admin.GET("/courses/:id/attendance", h.Attendance.AdminList)
		admin.GET("/courses/:id/grades", h.Grades.AdminList)

		admin.POST("/enrollments", h.Courses.Enroll)
		admin.DELETE("/enrollments/:studentId/:courseId", h.Courses.Drop)

		admin.GET("/announcements", h.Announcements.List)
		admin.POST("/announcements", h.Announcements.Create)
		admin.GET("/activity", h.Announcements.Activity)

		admin.GET("/reports/:report", h.Reports.Students)
		admin.GET("/system/metrics", h.Metrics.System)
	}

	faculty := r.Group("/faculty", middleware.RequireRoles(models.RoleFaculty))
	{
		faculty.GET("/dashboard", h.Dashboard.Faculty)
		faculty.GET("/courses", h.Courses.FacultyCourses)
		faculty.GET("/courses/:id/students", h.Courses.Roster)
		faculty.GET("/courses/:id/attendance", h.Attendance.FacultyList)
		faculty.GET("/courses/:id/grades", h.Grades.FacultyList)
		faculty.POST("/attendance", h.Attendance.Mark)
		faculty.POST("/grades", h.Grades.Record)
		faculty.GET("/announcements", h.Announcements.FacultyFeed)
	}

	student := r.Group("/student", middleware.RequireRoles(models.RoleStudent))
	{
		student.GET("/dashboard", h.Dashboard.Student)
		student.GET("/profile", h.Students.Profile)
		student.GET("/courses", h.Courses.StudentCourses)
		student.GET("/attendance", h.Attendance.Summary)
		student.GET("/grades", h.Grades.Summary)
		student.GET("/announcements", h.Announcements.StudentFeed)
	}

	return r
}
