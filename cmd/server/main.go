package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/samirwankhede/stayinsights/internal/api"
	"github.com/samirwankhede/stayinsights/internal/app"
	"github.com/samirwankhede/stayinsights/internal/config"
	kafkax "github.com/samirwankhede/stayinsights/internal/kafka"
	"github.com/samirwankhede/stayinsights/internal/logger"
	"github.com/samirwankhede/stayinsights/internal/middleware"
	redisx "github.com/samirwankhede/stayinsights/internal/redis"
	authService "github.com/samirwankhede/stayinsights/internal/service/auth"
	exportsService "github.com/samirwankhede/stayinsights/internal/service/exports"
	storeUsers "github.com/samirwankhede/stayinsights/internal/store/users"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	engine, err := app.NewEngine(ctx, cfg, log)
	if err != nil {
		log.Fatal("engine init failed", zap.Error(err))
	}
	defer engine.Close()
	go engine.SweepEvery(ctx, time.Minute)

	deps := api.Deps{Engine: engine, Limiter: engine.Redis}

	// Users live in Postgres; a SQLite deployment takes tokens minted elsewhere.
	if engine.DB != nil {
		usersRepo := storeUsers.NewUsersRepository(engine.DB, log)
		if err := config.CreateDefaultAdmin(ctx, &cfg, usersRepo, log); err != nil {
			log.Error("Failed to create default admin user", zap.Error(err))
		}
		deps.Auth = authService.NewAuthService(log, usersRepo, cfg.JWTSigningSecret)
	}

	// Exports need Redis for status even when reports are cached in memory.
	statusClient := engine.Redis
	if statusClient == nil {
		if statusClient, err = redisx.NewClient(ctx, cfg.RedisAddr); err != nil {
			log.Warn("redis unavailable, exports disabled", zap.Error(err))
		} else {
			defer statusClient.Close()
		}
	}
	if statusClient != nil {
		producer := kafkax.NewProducer([]string{cfg.KafkaBrokers}, cfg.ExportsTopic)
		defer producer.Close()
		deps.Exports = exportsService.NewExportService(log,
			redisx.NewExportStore(statusClient, cfg.ExportResultTTL), producer, engine.Service)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	api.RegisterRoutes(r, log, cfg, deps)

	// metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   cfg.ReservationsTimeout*4 + 10*time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("server starting", zap.Int("port", cfg.HTTPPort), zap.String("directory", cfg.DirectoryBackend), zap.String("cache", cfg.CacheBackend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}
	log.Info("server exited")
}
