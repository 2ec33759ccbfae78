package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/vkmrishad/image-jinn/config"
	kafkactrl "github.com/vkmrishad/image-jinn/internal/controller/kafka"
	"github.com/vkmrishad/image-jinn/internal/controller/restapi"
	"github.com/vkmrishad/image-jinn/internal/controller/worker/outbox"
	infrakafka "github.com/vkmrishad/image-jinn/internal/infrastructure/kafka"
	"github.com/vkmrishad/image-jinn/internal/infrastructure/processor"
	"github.com/vkmrishad/image-jinn/internal/repo"
	"github.com/vkmrishad/image-jinn/internal/repo/persistent"
	"github.com/vkmrishad/image-jinn/internal/usecase/image"
	"github.com/vkmrishad/image-jinn/internal/usecase/task"
	"github.com/vkmrishad/image-jinn/internal/usecase/variant"
	"github.com/vkmrishad/image-jinn/migrations"
	"github.com/vkmrishad/image-jinn/pkg/httpserver"
	"github.com/vkmrishad/image-jinn/pkg/kafka/consumer"
	"github.com/vkmrishad/image-jinn/pkg/kafka/producer"
	"github.com/vkmrishad/image-jinn/pkg/logger"
	"github.com/vkmrishad/image-jinn/pkg/metrics"
	"github.com/vkmrishad/image-jinn/pkg/minioclient"
	"github.com/vkmrishad/image-jinn/pkg/postgres"
	"github.com/vkmrishad/image-jinn/pkg/s3client"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Metrics
	m := metrics.Default()

	// Repository

	// object storage
	imageRepo, err := newImageRepo(ctx, cfg)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - newImageRepo: %w", err))
	}

	// postgres
	err = postgres.Migrate(migrations.FS, ".", cfg.PG.URL)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.Migrate: %w", err))
	}

	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	metadataRepo := persistent.NewImageMetadataRepo(pg)

	// Use-Case

	// deferred tasks
	taskUseCase := task.New(persistent.NewTaskOutboxRepo(pg), pg, m, l)

	// image lifecycle
	imageUseCase := image.New(imageRepo, metadataRepo, taskUseCase, m, l, cfg.Lifecycle.VerifyDelay)

	// variants
	variantUseCase := variant.New(
		imageRepo,
		metadataRepo,
		processor.New(processor.JPEGQuality(cfg.Converter.JPEGQuality)),
		m,
		l,
	)

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}

	// Outbox Relay Worker
	outboxRelayWorker := outbox.New(
		taskUseCase,
		infrakafka.NewEventProducer(kafkaProducer, cfg.OutboxRelay.MaxRetries, cfg.Kafka.Topic),
		l,
		cfg.OutboxRelay.PollInterval,
		cfg.OutboxRelay.CleanupInterval,
		cfg.OutboxRelay.MarkFailedInterval,
		cfg.OutboxRelay.ProcessBatchTimeout,
		cfg.OutboxRelay.Retention,
		cfg.OutboxRelay.ClaimTimeout,
		cfg.OutboxRelay.BatchSize,
		cfg.OutboxRelay.MaxRetries,
	)

	// Kafka Consumer
	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - consumer.New: %w", err))
	}

	workers := cfg.KafkaController.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Kafka as Controller
	kafkaController := kafkactrl.New(
		imageUseCase,
		infrakafka.NewEventConsumer(kafkaConsumer),
		m,
		l,
		cfg.KafkaController.CommitTimeout,
		cfg.KafkaController.ProcessTimeout,
		workers,
	)

	// HTTP Server
	httpServer := httpserver.New(l, httpserver.Port(cfg.HTTP.Port), httpserver.Prefork(cfg.HTTP.UsePreforkMode))
	restapi.NewRouter(httpServer.App, cfg, imageUseCase, variantUseCase, l)

	// Start Components
	err = outboxRelayWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - outboxRelayWorker.Start: %w", err))
	}
	err = kafkaController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - kafkaController.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	orlShutdownCtx, orlShutdownCancel := context.WithTimeout(ctx, cfg.OutboxRelay.ShutdownTimeout)
	defer orlShutdownCancel()
	err = outboxRelayWorker.Shutdown(orlShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - outboxRelayWorker.Shutdown: %w", err))
	}

	kcShutdownCtx, kcShutdownCancel := context.WithTimeout(ctx, cfg.KafkaController.ShutdownTimeout)
	defer kcShutdownCancel()
	err = kafkaController.Shutdown(kcShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - kafkaController.Shutdown: %w", err))
	}
}

// newImageRepo connects the object store selected by S3_DRIVER.
func newImageRepo(ctx context.Context, cfg *config.Config) (repo.ImageRepo, error) {
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()

	switch cfg.S3.Driver {
	case config.S3DriverMinio:
		mc, err := minioclient.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey,
			minioclient.Region(cfg.S3.Region),
			minioclient.UseSSL(cfg.S3.UseSSL),
		)
		if err != nil {
			return nil, fmt.Errorf("minioclient.New: %w", err)
		}

		return persistent.NewMinioImageRepo(mc, cfg.S3.Bucket, cfg.S3.PresignTTL, cfg.S3.MaxUploadSize), nil
	default:
		s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey,
			s3client.Bucket(cfg.S3.Bucket),
			s3client.Region(cfg.S3.Region),
			s3client.UsePathStyle(cfg.S3.UsePathStyle),
		)
		if err != nil {
			return nil, fmt.Errorf("s3client.New: %w", err)
		}

		return persistent.NewImageRepo(s3c, cfg.S3.Bucket, cfg.S3.PresignTTL, cfg.S3.MaxUploadSize), nil
	}
}
