package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/samirwankhede/stayinsights/internal/app"
	"github.com/samirwankhede/stayinsights/internal/config"
	kafkax "github.com/samirwankhede/stayinsights/internal/kafka"
	"github.com/samirwankhede/stayinsights/internal/logger"
	"github.com/samirwankhede/stayinsights/internal/mailer"
	redisx "github.com/samirwankhede/stayinsights/internal/redis"
	exportsService "github.com/samirwankhede/stayinsights/internal/service/exports"
	mailerService "github.com/samirwankhede/stayinsights/internal/service/mailer"
	"github.com/samirwankhede/stayinsights/internal/storage"
	"github.com/samirwankhede/stayinsights/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)
	log.Info("worker starting")

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engine, err := app.NewEngine(ctx, cfg, log)
	if err != nil {
		log.Fatal("engine init failed", zap.Error(err))
	}
	defer engine.Close()

	statusClient := engine.Redis
	if statusClient == nil {
		if statusClient, err = redisx.NewClient(ctx, cfg.RedisAddr); err != nil {
			log.Fatal("redis connect", zap.Error(err))
		}
		defer statusClient.Close()
	}

	// Create mailer service
	mailerSender := &mailer.SMTPSender{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	}
	opts := []exportsService.Option{
		exportsService.WithNotifier(mailerService.NewMailerService(log, mailerSender)),
	}
	if cfg.S3Enabled() {
		archive, err := storage.NewReportArchive(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKeyID,
			SecretKey: cfg.S3SecretAccessKey,
		}, log)
		if err != nil {
			log.Fatal("s3 init", zap.Error(err))
		}
		opts = append(opts, exportsService.WithArchive(archive))
	}

	// Create Kafka consumer and producers
	brokers := []string{cfg.KafkaBrokers}
	consumer := kafkax.NewConsumer(brokers, "stayinsights-exporter", cfg.ExportsTopic)
	defer consumer.Close()
	dlq := kafkax.NewProducer(brokers, cfg.ExportsTopic+"-dlq")
	defer dlq.Close()
	producer := kafkax.NewProducer(brokers, cfg.ExportsTopic)
	defer producer.Close()

	svc := exportsService.NewExportService(log,
		redisx.NewExportStore(statusClient, cfg.ExportResultTTL), producer, engine.Service, opts...)

	e := worker.NewExporter(log, svc, consumer, dlq, cfg.MaxWorkerRoutineCount)
	if err := e.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("exporter stopped", zap.Error(err))
	}
	log.Info("worker stopped")
}
