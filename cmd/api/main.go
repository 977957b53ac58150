package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-marketplace/internal/audit"
	"github.com/BruksfildServices01/service-marketplace/internal/config"
	dbpkg "github.com/BruksfildServices01/service-marketplace/internal/db"
	"github.com/BruksfildServices01/service-marketplace/internal/infra/archive"
	"github.com/BruksfildServices01/service-marketplace/internal/infra/events"
	"github.com/BruksfildServices01/service-marketplace/internal/infra/lock"
	"github.com/BruksfildServices01/service-marketplace/internal/logging"
	"github.com/BruksfildServices01/service-marketplace/internal/payments"
	"github.com/BruksfildServices01/service-marketplace/internal/routes"
	"github.com/BruksfildServices01/service-marketplace/internal/timezone"
	ucAppointment "github.com/BruksfildServices01/service-marketplace/internal/usecase/appointment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Env)
	defer func() { _ = logger.Sync() }()

	if !timezone.IsValid(cfg.Timezone) {
		logger.Fatal("invalid APP_TIMEZONE", zap.String("timezone", cfg.Timezone))
	}

	ctx := context.Background()

	db, err := dbpkg.NewDB(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}

	gateway, err := payments.NewStripeProvider(payments.StripeProviderConfig{
		APIKey:        cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("stripe", zap.Error(err))
	}

	// ======================================================
	// SLOT LOCK
	// ======================================================
	var locker ucAppointment.SlotLocker = lock.NewLocalLocker()
	if cfg.RedisURL != "" {
		client, err := lock.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client)
		logger.Info("slot lock backed by redis")
	} else {
		logger.Warn("REDIS_URL not set, slot lock is process local")
	}

	// ======================================================
	// AUDIT
	// ======================================================
	auditLog := audit.New(db)
	recorders := []audit.Recorder{auditLog}

	if cfg.RabbitURL != "" {
		pub, err := events.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			logger.Fatal("rabbitmq", zap.Error(err))
		}
		defer pub.Close()
		recorders = append(recorders, pub)
	}

	dispatcher := audit.NewDispatcher(logger, recorders...)
	defer dispatcher.Close()

	deps := routes.Dependencies{
		DB:       db,
		Config:   cfg,
		Logger:   logger,
		Clock:    timezone.SystemClock(cfg.Timezone),
		Gateway:  gateway,
		Locker:   locker,
		Audit:    dispatcher,
		AuditLog: auditLog,
	}

	if cfg.Archive.Bucket != "" {
		deps.Archiver = archive.NewS3Archiver(archive.S3Config{
			Bucket:          cfg.Archive.Bucket,
			Region:          cfg.Archive.Region,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
		})
	}

	// ======================================================
	// HTTP
	// ======================================================
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server running", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
