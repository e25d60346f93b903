package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/fieldops-hq/fieldops-api/api/swagger"
	"github.com/fieldops-hq/fieldops-api/internal/handler"
	"github.com/fieldops-hq/fieldops-api/internal/middleware"
	"github.com/fieldops-hq/fieldops-api/internal/repository"
	"github.com/fieldops-hq/fieldops-api/internal/service"
	"github.com/fieldops-hq/fieldops-api/pkg/cache"
	"github.com/fieldops-hq/fieldops-api/pkg/config"
	"github.com/fieldops-hq/fieldops-api/pkg/database"
	"github.com/fieldops-hq/fieldops-api/pkg/jobs"
	"github.com/fieldops-hq/fieldops-api/pkg/logger"
	corsmiddleware "github.com/fieldops-hq/fieldops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fieldops-hq/fieldops-api/pkg/middleware/requestid"
	"github.com/fieldops-hq/fieldops-api/pkg/storage"
)

// @title FieldOps API
// @version 1.0.0
// @description Field operations management: role permissions, form approvals, project-scoped field data
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, permission cache disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	permissionRepo := repository.NewPermissionRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	timesheetRepo := repository.NewTimesheetRepository(db)
	materialLogRepo := repository.NewMaterialLogRepository(db)
	safetyFormRepo := repository.NewSafetyFormRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	lookupRepo := repository.NewLookupRepository(db)
	exportRepo := repository.NewExportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	if !cfg.Metrics.Enabled {
		metricsSvc = nil
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "fieldops-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)

	permissionOpts := []service.PermissionServiceOption{}
	if cfg.Permissions.CacheEnabled && redisClient != nil {
		permissionOpts = append(permissionOpts, service.WithPermissionCache(cacheRepo, cfg.Permissions.CacheTTL))
	}
	permissionSvc := service.NewPermissionService(permissionRepo, userRepo, logr, permissionOpts...)

	workflowSvc := service.NewWorkflowService(workflowRepo, userRepo, logr)
	approvalSvc := service.NewApprovalService(timesheetRepo, materialLogRepo, workflowSvc, userRepo, logr)
	timesheetSvc := service.NewTimesheetService(timesheetRepo, permissionSvc, logr)
	materialLogSvc := service.NewMaterialLogService(materialLogRepo, permissionSvc, logr)
	safetyFormSvc := service.NewSafetyFormService(safetyFormRepo, permissionSvc, userRepo, logr)
	projectSvc := service.NewProjectService(projectRepo, logr)
	globalDataSvc := service.NewGlobalDataService(companyRepo, employeeRepo, lookupRepo, logr)

	// Export pipeline: local file store, signed download URLs, in-memory
	// worker queue around the service's own Process method.
	var exportSvc *service.ExportService
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(exportRepo, timesheetRepo, materialLogRepo, store, signer, logr)
		exportQueue = jobs.NewQueue("exports", exportSvc.Process, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportSvc.SetQueue(exportQueue)
		exportQueue.Start(ctx)
		defer exportQueue.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Exports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					exportSvc.CleanupExpired(cfg.Exports.SignedURLTTL)
				}
			}
		}()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Users:      handler.NewUserHandler(userSvc),
		Permission: handler.NewPermissionHandler(permissionSvc),
		Workflow:   handler.NewWorkflowHandler(workflowSvc),
		Approval:   handler.NewApprovalHandler(approvalSvc, metricsSvc),
		Timesheet:  handler.NewTimesheetHandler(timesheetSvc),
		Material:   handler.NewMaterialLogHandler(materialLogSvc),
		Safety:     handler.NewSafetyFormHandler(safetyFormSvc),
		Project:    handler.NewProjectHandler(projectSvc, permissionSvc),
		GlobalData: handler.NewGlobalDataHandler(globalDataSvc),
		Export:     handler.NewExportHandler(exportSvc),
		Metrics:    metricsHandler,
	}
	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, handler.RouterDeps{
		Auth:        authSvc,
		Permissions: permissionSvc,
		Projects:    projectSvc,
		Metrics:     metricsSvc,
		Users:       userRepo,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
