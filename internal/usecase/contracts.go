package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vkmrishad/image-jinn/internal/entity"
)

type (
	ImageUseCase interface {
		IssueUploadGrant(ctx context.Context, name, mimetype string) (*entity.Image, *entity.UploadGrant, error)
		VerifyUpload(ctx context.Context, id uuid.UUID) error
		NotifyUploadFinished(ctx context.Context, id uuid.UUID) (*entity.Image, error)
		GetImage(ctx context.Context, id uuid.UUID) (*entity.Image, error)
		ListImages(ctx context.Context, limit, offset int) ([]*entity.Image, error)
		PresignedURL(ctx context.Context, image *entity.Image) (string, error)
	}

	VariantUseCase interface {
		Resolve(ctx context.Context, image *entity.Image, extension string) (*entity.RenderedImage, error)
	}

	// TaskScheduler runs a named task with args no earlier than delay from now,
	// at least once, independently of the caller's lifetime.
	TaskScheduler interface {
		Schedule(ctx context.Context, name string, aggregateID uuid.UUID, args any, delay time.Duration) error
	}

	TaskUseCase interface {
		TaskScheduler
		ClaimDueTasks(ctx context.Context, maxRetries, limit int) ([]*entity.Task, error)
		MarkAsProcessedBatch(ctx context.Context, tasks []*entity.Task) error
		IncrementRetryCountBatch(ctx context.Context, tasks []*entity.Task) error
		ReleaseStaleTasks(ctx context.Context, claimTimeout time.Duration) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		CleanupOutbox(ctx context.Context, retention time.Duration) error
	}
)
