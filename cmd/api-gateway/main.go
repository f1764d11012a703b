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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/enrollment-api/api/swagger"
	"github.com/noah-isme/enrollment-api/internal/handler"
	internalmiddleware "github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/repository"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/pkg/cache"
	"github.com/noah-isme/enrollment-api/pkg/config"
	"github.com/noah-isme/enrollment-api/pkg/database"
	"github.com/noah-isme/enrollment-api/pkg/jobs"
	"github.com/noah-isme/enrollment-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/enrollment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/enrollment-api/pkg/middleware/requestid"
	"github.com/noah-isme/enrollment-api/pkg/seed"
)

// @title Enrollment API
// @version 1.0.0
// @description Course catalog, registration and admissions service
// @BasePath /api/v1
// @schemes http
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	checks := map[string]handler.Pinger{}

	catalog := repository.NewCourseCatalog()
	ledger := repository.NewEnrollmentLedger()
	accounts := repository.NewAccountDirectory(0)

	seedFile := seed.Default()
	switch {
	case cfg.Seed.File != "":
		if seedFile, err = seed.Load(cfg.Seed.File); err != nil {
			logr.Fatal("failed to load seed file", zap.Error(err))
		}
	case cfg.Env != config.EnvProduction:
		seedFile = seed.Demo()
		logr.Warn("SEED_FILE not set, seeding demo accounts", zap.Strings("usernames", []string{"admin", "jpeck", "alice"}))
	}
	stats, err := seed.Apply(ctx, seedFile, catalog, accounts, ledger)
	if err != nil {
		logr.Fatal("failed to apply seed", zap.Error(err))
	}
	logr.Info("seed applied",
		zap.String("file", cfg.Seed.File),
		zap.Int("courses", stats.Courses),
		zap.Int("accounts", stats.Accounts),
		zap.Int("completions", stats.Completions),
	)
	if stats.Accounts == 0 {
		logr.Warn("no accounts seeded; set SEED_FILE to enable logins")
	}

	var cacheRepo service.CacheRepository
	switch cfg.Cache.Driver {
	case config.CacheDriverRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		redisRepo := repository.NewCacheRepository(client, logr)
		defer redisRepo.Close() //nolint:errcheck
		cacheRepo = redisRepo
		checks["redis"] = redisRepo
	case config.CacheDriverMemory:
		cacheRepo = repository.NewMemoryCacheRepository(cfg.Cache.CatalogTTL, cfg.Cache.CleanupInterval)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.CatalogTTL, logr)

	catalogSvc := service.NewCatalogService(catalog, cacheSvc, validate, logr)
	authSvc := service.NewAuthService(accounts, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	registrationSvc := service.NewRegistrationService(accounts, catalog, ledger, catalogSvc, metricsSvc, validate, logr, service.RegistrationConfig{
		BatchConcurrency: cfg.Registration.BatchConcurrency,
		BatchMaxItems:    cfg.Registration.BatchMaxItems,
	})
	admissionsSvc := service.NewAdmissionsService(metricsSvc, validate, logr)
	scheduleSvc := service.NewScheduleService(ledger, catalog)
	exportSvc := service.NewExportService(scheduleSvc, admissionsSvc, nil, logr)

	var transcriptSvc *service.TranscriptService
	if cfg.Transcripts.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect records database", zap.Error(err))
		}
		defer db.Close() //nolint:errcheck

		transcripts := repository.NewTranscriptRepository(db)
		checks["records_db"] = transcripts
		transcriptSvc = service.NewTranscriptService(transcripts, ledger, accounts, catalog, metricsSvc, validate, logr)

		queue := jobs.NewQueue(service.TranscriptImportJob, transcriptSvc.HandleJob, jobs.QueueConfig{
			Workers:    cfg.Transcripts.WorkerConcurrency,
			MaxRetries: cfg.Transcripts.WorkerRetries,
			RetryDelay: cfg.Transcripts.RetryDelay,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		transcriptSvc.AttachQueue(queue)

		if cfg.Transcripts.ImportOnStartup {
			if _, err := transcriptSvc.EnqueueImport(ctx); err != nil {
				logr.Warn("failed to queue startup transcript import", zap.Error(err))
			}
		}
	} else {
		transcriptSvc = service.NewTranscriptService(nil, ledger, accounts, catalog, metricsSvc, validate, logr)
	}

	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Routes{
		Auth:          handler.NewAuthHandler(authSvc),
		Courses:       handler.NewCourseHandler(catalogSvc),
		Registrations: handler.NewRegistrationHandler(registrationSvc),
		Students:      handler.NewStudentHandler(scheduleSvc, transcriptSvc, exportSvc),
		Admissions:    handler.NewAdmissionsHandler(admissionsSvc, exportSvc),
		Metrics:       metricsHandler,
		AuditLog:      logr.Named("audit"),
	}.Register(r.Group(cfg.APIPrefix), internalmiddleware.JWT(authSvc))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
