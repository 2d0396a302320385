package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/dept-scheduler-api/api/swagger"
	"github.com/noah-isme/dept-scheduler-api/internal/handler"
	internalmiddleware "github.com/noah-isme/dept-scheduler-api/internal/middleware"
	"github.com/noah-isme/dept-scheduler-api/internal/repository"
	"github.com/noah-isme/dept-scheduler-api/internal/service"
	"github.com/noah-isme/dept-scheduler-api/pkg/cache"
	"github.com/noah-isme/dept-scheduler-api/pkg/config"
	"github.com/noah-isme/dept-scheduler-api/pkg/database"
	"github.com/noah-isme/dept-scheduler-api/pkg/jobs"
	"github.com/noah-isme/dept-scheduler-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/dept-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/dept-scheduler-api/pkg/middleware/requestid"
	"github.com/noah-isme/dept-scheduler-api/pkg/storage"
)

// @title Department Scheduler API
// @version 1.0.0
// @description Term scheduling for an academic department
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, continuing in-process", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	validate := validator.New()
	metrics := service.NewMetricsService()
	feed := repository.NewChangeFeed(redisClient, logr)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	scheduleCache := service.NewCacheService(cacheRepo, metrics, cfg.Schedule.CacheTTL, logr, cfg.Schedule.CacheEnabled)

	userRepo := repository.NewUserRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	requestRepo := repository.NewFacultyRequestRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	reportRepo := repository.NewReportRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	sectionSvc := service.NewSectionService(sectionRepo, departmentRepo, feed, scheduleCache, metrics, validate, logr)
	requestSvc := service.NewFacultyRequestService(requestRepo, sectionRepo, feed, validate, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, feed, validate, logr)
	assistantSvc := service.NewAssistantService(sectionRepo, requestRepo, nil, validate, logr, service.AssistantConfig{
		Enabled: cfg.Assistant.Enabled,
		URL:     cfg.Assistant.URL,
		APIKey:  cfg.Assistant.APIKey,
		Model:   cfg.Assistant.Model,
		Timeout: cfg.Assistant.Timeout,
	})

	autoAssignSvc := service.NewAutoAssignService(departmentRepo, sectionRepo, requestRepo, instructorRepo, feed, scheduleCache, metrics, logr, service.AutoAssignConfig{
		Enabled:   cfg.AutoAssign.Enabled,
		QueueSize: cfg.AutoAssign.QueueSize,
	})
	autoAssignSvc.Start(ctx)
	defer autoAssignSvc.Stop()

	reportSvc, reportQueue := buildReports(ctx, cfg, reportRepo, sectionRepo, requestRepo, logr)
	if reportQueue != nil {
		defer reportQueue.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	checks := map[string]handler.ReadinessCheck{
		"database": func(ctx context.Context) error { return db.PingContext(ctx) },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Sections:   handler.NewSectionHandler(sectionSvc),
		Faculty:    handler.NewFacultyHandler(requestSvc, instructorSvc),
		AutoAssign: handler.NewAutoAssignHandler(autoAssignSvc, assistantSvc),
		Reports:    handler.NewReportHandler(reportSvc),
		Metrics:    handler.NewMetricsHandler(metrics, checks),
		Audit:      auditRepo,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// buildReports wires utilisation and, when enabled, the export queue.
func buildReports(ctx context.Context, cfg *config.Config, reportRepo *repository.ReportRepository, sectionRepo *repository.SectionRepository, requestRepo *repository.FacultyRequestRepository, logr *zap.Logger) (*service.ReportService, *jobs.Queue) {
	reportCfg := service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
		MaxRetries:      cfg.Reports.WorkerRetries,
		WeekMinutes:     cfg.Reports.WeekMinutes,
	}
	if !cfg.Reports.Enabled {
		return service.NewReportService(reportRepo, sectionRepo, nil, nil, logr, reportCfg), nil
	}

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("export storage unavailable", "dir", cfg.Reports.StorageDir, "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exporter := service.NewExportService(sectionRepo, requestRepo, files, signer, service.ExportConfig{
		APIPrefix:   cfg.APIPrefix,
		ResultTTL:   cfg.Reports.SignedURLTTL,
		WeekMinutes: cfg.Reports.WeekMinutes,
	}, logr)

	worker := service.NewReportWorker(reportRepo, exporter, cfg.Reports.WorkerRetries, logr)
	queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	queue.Start(ctx)

	reportSvc := service.NewReportService(reportRepo, sectionRepo, queue, exporter, logr, reportCfg)
	reportSvc.RecoverPendingJobs(ctx)
	reportSvc.StartCleanup(ctx)
	return reportSvc, queue
}
