package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/osms-api/api/swagger"
	"github.com/noah-isme/osms-api/internal/access"
	"github.com/noah-isme/osms-api/internal/handler"
	"github.com/noah-isme/osms-api/internal/identity"
	"github.com/noah-isme/osms-api/internal/middleware"
	"github.com/noah-isme/osms-api/internal/repository"
	"github.com/noah-isme/osms-api/internal/router"
	"github.com/noah-isme/osms-api/internal/service"
	"github.com/noah-isme/osms-api/pkg/cache"
	"github.com/noah-isme/osms-api/pkg/config"
	"github.com/noah-isme/osms-api/pkg/database"
	"github.com/noah-isme/osms-api/pkg/jobs"
	"github.com/noah-isme/osms-api/pkg/logger"
)

// @title OSMS API
// @version 1.0.0
// @description Online student management for admins, faculty and students
// @BasePath /
// @schemes http https

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configured := cfg.Backend.Configured()
	var db *sqlx.DB
	if configured {
		db, err = database.NewPostgres(ctx, cfg.Backend, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(db.DB, logr); err != nil {
				logr.Fatal("failed to migrate database", zap.Error(err))
			}
		}
	} else {
		logr.Warn("backend url or key missing; protected pages are closed")
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable; view cache and oauth sign in are disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	provider := identity.NewLocalProvider(
		repository.NewIdentityRepository(db),
		oauthStates(redisClient),
		identity.NewConnectors(cfg.OAuth, cfg.SiteURL),
		logr,
		identity.LocalConfig{
			Secret:          cfg.Backend.AnonKey,
			Issuer:          "osms",
			AccessTokenTTL:  cfg.Session.AccessTokenTTL,
			RefreshTokenTTL: cfg.Session.RefreshTokenTTL,
			RecoveryTTL:     cfg.Session.RecoveryTokenTTL,
			StateTTL:        cfg.OAuth.StateTTL,
			SiteURL:         cfg.SiteURL,
		},
	)

	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient, logr),
		metricsSvc,
		cfg.ViewCache.TTL,
		logr,
		cfg.ViewCache.Enabled && redisClient != nil,
	)

	activitySvc := service.NewActivityService(activityRepo, metricsSvc, logr)
	activityQueue := jobs.NewQueue("activity", activitySvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Activity.Workers,
		MaxRetries: cfg.Activity.MaxRetries,
		Logger:     logr,
	})
	activityQueue.Start(context.Background())
	activitySvc.AttachQueue(activityQueue)

	studentSvc := service.NewStudentService(service.StudentServiceParams{
		Students:    studentRepo,
		Users:       userRepo,
		Identities:  provider,
		Enrollments: enrollmentRepo,
		Cache:       cacheSvc,
		Activity:    activitySvc,
		Metrics:     metricsSvc,
		Validator:   validate,
		Logger:      logr,
	})
	facultySvc := service.NewFacultyService(service.FacultyServiceParams{
		Faculty:    facultyRepo,
		Users:      userRepo,
		Identities: provider,
		Cache:      cacheSvc,
		Activity:   activitySvc,
		Metrics:    metricsSvc,
		Validator:  validate,
		Logger:     logr,
	})
	courseSvc := service.NewCourseService(courseRepo, enrollmentRepo, cacheSvc, activitySvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, cacheSvc, activitySvc, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, courseRepo, enrollmentRepo, cacheSvc, activitySvc, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, courseRepo, enrollmentRepo, cacheSvc, activitySvc, validate, logr)
	announcementSvc := service.NewAnnouncementService(announcementRepo, cacheSvc, activitySvc, validate, logr)
	exportSvc := service.NewExportService(studentRepo, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Students:      studentRepo,
		Faculty:       facultyRepo,
		Courses:       courseRepo,
		CourseLists:   courseRepo,
		StudentLookup: studentRepo,
		FacultyLookup: facultyRepo,
		Roster:        enrollmentRepo,
		Activity:      activitySvc,
		Announcements: announcementSvc,
		Attendance:    attendanceSvc,
		Grades:        gradeSvc,
		Cache:         cacheSvc,
		Logger:        logr,
		Config:        service.DashboardServiceConfig{CacheTTL: cfg.ViewCache.TTL},
	})
	authSvc := service.NewAuthService(service.AuthServiceParams{
		Provider:  provider,
		Profiles:  userRepo,
		Students:  studentSvc,
		Faculty:   facultySvc,
		Activity:  activitySvc,
		Validator: validate,
		Logger:    logr,
		Config: service.AuthConfig{
			SiteURL:   cfg.SiteURL,
			Overrides: access.NewOverrideSet(cfg.Access.AdminOverrideEmails),
		},
	})

	cookies := middleware.SessionCookies{
		AccessName:  cfg.Session.AccessCookieName,
		RefreshName: cfg.Session.RefreshCookieName,
		Secure:      cfg.Session.CookieSecure,
		AccessTTL:   cfg.Session.AccessTokenTTL,
		RefreshTTL:  cfg.Session.RefreshTokenTTL,
	}

	dependents := map[string]handler.Pinger{}
	if db != nil {
		dependents["postgres"] = db
	}
	if redisClient != nil {
		dependents["redis"] = cache.Pinger{Client: redisClient}
	}

	engine := router.New(router.Handlers{
		Auth:          handler.NewAuthHandler(authSvc, cookies, cfg.Env != config.EnvProduction),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
		Students:      handler.NewStudentHandler(studentSvc),
		Faculty:       handler.NewFacultyHandler(facultySvc),
		Courses:       handler.NewCourseHandler(courseSvc, enrollmentSvc, facultySvc, studentSvc),
		Attendance:    handler.NewAttendanceHandler(attendanceSvc, facultySvc, studentSvc),
		Grades:        handler.NewGradeHandler(gradeSvc, facultySvc, studentSvc),
		Announcements: handler.NewAnnouncementHandler(announcementSvc, activitySvc, facultySvc, studentSvc),
		Reports:       handler.NewReportHandler(exportSvc),
		Metrics:       handler.NewMetricsHandler(metricsSvc, dependents),
	}, router.Options{
		Logger:            logr,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		EnableDocs:        cfg.Env != config.EnvProduction,
		Metrics:           middleware.Metrics(metricsSvc),
		Gate:              middleware.AccessGate(provider, authSvc, metricsSvc, logr, middleware.GateConfig{Configured: configured, Cookies: cookies}),
		BackendConfigured: configured,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "backend_configured", configured)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	activityQueue.Stop(shutdownCtx)
}

func oauthStates(client *redis.Client) identity.StateStore {
	if client == nil {
		return nil
	}
	return identity.NewRedisStateStore(client)
}
