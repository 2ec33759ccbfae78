package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	S3DriverAWS   = "aws"
	S3DriverMinio = "minio"
)

type (
	Config struct {
		HTTP            HTTP
		Log             Log
		PG              PG
		S3              S3
		Lifecycle       Lifecycle
		Converter       Converter
		OutboxRelay     OutboxRelay
		Kafka           Kafka
		KafkaController KafkaController
		Metrics         Metrics
		Swagger         Swagger
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX,required"`
		URL     string `env:"PG_URL,required"`
	}

	S3 struct {
		Driver         string        `env:"S3_DRIVER" envDefault:"aws"`
		Endpoint       string        `env:"S3_ENDPOINT"`
		AccessKey      string        `env:"S3_ACCESS_KEY,required"`
		SecretKey      string        `env:"S3_SECRET_KEY,required"`
		Bucket         string        `env:"S3_BUCKET,required"`
		Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
		UsePathStyle   bool          `env:"S3_USE_PATH_STYLE" envDefault:"false"`
		UseSSL         bool          `env:"S3_USE_SSL" envDefault:"true"`
		PresignTTL     time.Duration `env:"S3_PRESIGN_TTL" envDefault:"604700s"`     // about a week, the SigV4 maximum
		MaxUploadSize  int64         `env:"S3_MAX_UPLOAD_SIZE" envDefault:"10485760"` // content-length-range of the presigned POST
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Lifecycle struct {
		VerifyDelay time.Duration `env:"LIFECYCLE_VERIFY_DELAY" envDefault:"300s"`
	}

	Converter struct {
		JPEGQuality int `env:"CONVERTER_JPEG_QUALITY" envDefault:"90"`
	}

	Kafka struct {
		Brokers []string `env:"KAFKA_BROKERS,required"`
		GroupID string   `env:"KAFKA_GROUP_ID,required"`
		Topic   string   `env:"KAFKA_TOPIC,required"`
	}

	OutboxRelay struct {
		PollInterval        time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"2s"`
		MarkFailedInterval  time.Duration `env:"OUTBOX_RELAY_MARK_FAILED_INTERVAL" envDefault:"2m"`
		CleanupInterval     time.Duration `env:"OUTBOX_RELAY_CLEANUP_INTERVAL" envDefault:"24h"`
		Retention           time.Duration `env:"OUTBOX_RELAY_RETENTION" envDefault:"168h"`
		ProcessBatchTimeout time.Duration `env:"OUTBOX_RELAY_PROCESS_BATCH_TIMEOUT" envDefault:"15s"`
		ClaimTimeout        time.Duration `env:"OUTBOX_RELAY_CLAIM_TIMEOUT" envDefault:"1m"`
		ShutdownTimeout     time.Duration `env:"OUTBOX_RELAY_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize           int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
		MaxRetries          int           `env:"OUTBOX_RELAY_MAX_RETRIES" envDefault:"3"`
	}

	KafkaController struct {
		CommitTimeout   time.Duration `env:"KAFKA_CONTROLLER_COMMIT_TIMEOUT" envDefault:"2s"`
		ProcessTimeout  time.Duration `env:"KAFKA_CONTROLLER_PROCESS_TIMEOUT" envDefault:"15s"` // one task: record store and storage round trips
		ShutdownTimeout time.Duration `env:"KAFKA_CONTROLLER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		Workers         int           `env:"KAFKA_CONTROLLER_WORKERS" envDefault:"0"` // 0 means runtime.NumCPU()
	}

	Metrics struct {
		Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	switch cfg.S3.Driver {
	case S3DriverAWS:
	case S3DriverMinio:
		if cfg.S3.Endpoint == "" {
			return nil, fmt.Errorf("config error: S3_ENDPOINT is required for the %s driver", S3DriverMinio)
		}
	default:
		return nil, fmt.Errorf("config error: unknown S3_DRIVER %q", cfg.S3.Driver)
	}

	return cfg, nil
}
