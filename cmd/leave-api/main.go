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
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-leave-api/api/swagger"
	"github.com/noah-isme/sma-leave-api/internal/handler"
	"github.com/noah-isme/sma-leave-api/internal/middleware"
	"github.com/noah-isme/sma-leave-api/internal/repository"
	"github.com/noah-isme/sma-leave-api/internal/service"
	"github.com/noah-isme/sma-leave-api/pkg/cache"
	"github.com/noah-isme/sma-leave-api/pkg/config"
	"github.com/noah-isme/sma-leave-api/pkg/database"
	"github.com/noah-isme/sma-leave-api/pkg/jobs"
	"github.com/noah-isme/sma-leave-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-leave-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-leave-api/pkg/middleware/requestid"
)

// @title Leave Request API
// @version 1.0.0
// @description Student leave requests with coordinator and admin approval
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

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logr.Fatal("failed to apply schema", zap.Error(err))
		}
		logr.Info("schema applied")
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	leaveRepo := repository.NewLeaveRequestRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	var delivery service.NotificationDelivery
	if cfg.Notifications.PushEnabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close()

		queued := service.NewQueuedDelivery(
			repository.NewNotificationPublisher(redisClient, cfg.Notifications.ChannelPrefix),
			jobs.QueueConfig{
				Workers:    cfg.Notifications.Workers,
				MaxRetries: cfg.Notifications.Retries,
				RetryDelay: cfg.Notifications.RetryDelay,
				Logger:     logr,
			},
			metrics,
			logr,
		)
		queued.Start(ctx)
		defer queued.Stop()
		delivery = queued
	}

	dispatcher := service.NewNotificationDispatcher(notificationRepo, userRepo, delivery, metrics, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, studentRepo, userRepo, validate, logr,
		service.LeaveServiceConfig{
			Policy: service.QuotaPolicy{
				MonthlyQuota:           cfg.Leave.MonthlyQuota,
				LowAttendanceThreshold: cfg.Leave.LowAttendanceThreshold,
				Location:               cfg.Leave.Location(),
			},
			EnforceQuota: cfg.Leave.EnforceQuota,
		},
		service.WithLeaveNotifier(dispatcher),
		service.WithLeaveMetrics(metrics),
	)
	reportSvc := service.NewLeaveReportService(leaveSvc, cfg.Exports.Enabled, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, logr)
	rosterSvc := service.NewRosterService(studentRepo, userRepo, validate, logr)
	tokens := service.NewTokenService(service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, actorFields))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health"))

	registerRoutes(r, cfg, routeDeps{
		tokens:        tokens,
		leaves:        handler.NewLeaveHandler(leaveSvc, reportSvc),
		notifications: handler.NewNotificationHandler(notificationSvc),
		roster:        handler.NewRosterHandler(rosterSvc),
		metrics:       handler.NewMetricsHandler(metrics, db),
	})

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func actorFields(c *gin.Context) (string, string) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return "", ""
	}
	return claims.UserID, string(claims.Role)
}
