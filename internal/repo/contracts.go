package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vkmrishad/image-jinn/internal/entity"
)

type (
	// ImageRepo is the object store holding original and converted image bytes.
	ImageRepo interface {
		PresignPost(ctx context.Context, key string) (*entity.PresignedPost, error)
		PresignGet(ctx context.Context, key string) (string, error)
		Exists(ctx context.Context, key string) (bool, error)
		UploadBytes(ctx context.Context, key string, data []byte, contentType string) error
		DownloadBytes(ctx context.Context, key string) ([]byte, error)
	}

	ImageMetadataRepo interface {
		Create(ctx context.Context, image *entity.Image) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error)
		List(ctx context.Context, limit, offset int) ([]*entity.Image, error)
		Update(ctx context.Context, image *entity.Image) error
	}

	TaskOutboxRepo interface {
		Create(ctx context.Context, task *entity.Task) error
		GetDueTasks(ctx context.Context, now time.Time, maxRetries, limit int) ([]*entity.Task, error)
		MarkAsProcessingBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkAsProcessedBatch(ctx context.Context, IDs uuid.UUIDs) error
		IncrementRetryCountBatch(ctx context.Context, IDs uuid.UUIDs) error
		ReleaseStaleClaims(ctx context.Context, before time.Time) (int64, error)
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) (int64, error)
		DeleteOldProcessedAndFailed(ctx context.Context, before time.Time) (int64, error)
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}
)
