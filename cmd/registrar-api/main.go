package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/academix/registrar-api/internal/handler"
	"github.com/academix/registrar-api/internal/middleware"
	"github.com/academix/registrar-api/internal/models"
	"github.com/academix/registrar-api/internal/notify"
	"github.com/academix/registrar-api/internal/persist"
	"github.com/academix/registrar-api/internal/repository"
	"github.com/academix/registrar-api/internal/service"
	"github.com/academix/registrar-api/internal/store"
	"github.com/academix/registrar-api/pkg/config"
	"github.com/academix/registrar-api/pkg/database"
	"github.com/academix/registrar-api/pkg/logger"
	corsmiddleware "github.com/academix/registrar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/academix/registrar-api/pkg/middleware/requestid"
	"github.com/academix/registrar-api/pkg/storage"
)

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

	students := store.New[*models.Student]()
	courses := store.New[*models.Course]()
	enrollments := store.New[*models.Enrollment]()

	var auditRepo *repository.AuditRepository
	var auditSink notify.AuditSink
	if cfg.AuditDB.Enabled {
		db, dbErr := database.NewPostgres(cfg.AuditDB)
		if dbErr != nil {
			logr.Sugar().Fatalw("audit database connection failed", "error", dbErr)
		}
		defer db.Close() //nolint:errcheck
		auditRepo = repository.NewAuditRepository(db)
		auditSink = auditRepo
	}

	recorder := notify.NewAuditRecorder(logr, auditSink, 0)
	fanout := notify.NewFanout(notify.DefaultObservers(logr, recorder, cfg.Registrar.PassingGrade), logr)

	studentSvc := service.NewStudentService(students, nil, logr)
	courseSvc := service.NewCourseService(courses, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollments, students, courses, fanout, nil, logr,
		cfg.Registrar.MaxStudentsPerCourse, cfg.Registrar.PassingGrade)

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService(
			students.Len,
			courses.Len,
			func() int { return enrollmentSvc.ActiveTotal() },
		)
		enrollmentSvc.SetMetrics(metricsSvc)
		recorder.SetWriteObserver(metricsSvc.ObserveAuditDBWrite)
	}

	exportsDir, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("exports storage init failed", "error", err)
	}
	exportSvc := service.NewExportService(studentSvc, courseSvc, enrollmentSvc, exportsDir, logr)

	snapshot, err := persist.NewSnapshot(cfg.Registrar.DataDirectory, students, courses, enrollments, logr)
	if err != nil {
		logr.Sugar().Fatalw("snapshot storage init failed", "error", err)
	}
	if loadErr := snapshot.Load(); loadErr != nil {
		logr.Sugar().Warnw("snapshot load failed, starting empty", "error", loadErr)
	}
	studentSvc.SyncIDCounter()
	enrollmentSvc.SyncIDCounter()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	adminHandler := handler.NewAdminHandler(metricsSvc, snapshot, studentSvc, enrollmentSvc)
	r.GET("/health", adminHandler.Health)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", adminHandler.PrometheusHandler())
	}

	api := r.Group(cfg.APIPrefix)
	handler.RegisterRoutes(api, handler.Handlers{
		Students:    handler.NewStudentHandler(studentSvc, enrollmentSvc),
		Courses:     handler.NewCourseHandler(courseSvc, enrollmentSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		Reports:     handler.NewReportHandler(studentSvc, enrollmentSvc, exportSvc, recorder, auditRepo),
		Admin:       adminHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
