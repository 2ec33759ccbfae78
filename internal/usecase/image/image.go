package image

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vkmrishad/image-jinn/internal/dto"
	"github.com/vkmrishad/image-jinn/internal/entity"
	"github.com/vkmrishad/image-jinn/internal/repo"
	"github.com/vkmrishad/image-jinn/internal/usecase"
	"github.com/vkmrishad/image-jinn/pkg/logger"
	"github.com/vkmrishad/image-jinn/pkg/metrics"
	"github.com/vkmrishad/image-jinn/pkg/types/errs"
)

const (
	DefaultVerifyDelay = 300 * time.Second

	MessageNotUploaded = "Not Uploaded"
)

var (
	allowedNameSuffixes = []string{".jpg", ".jpeg", ".png"}

	allowedMimetypes = map[string]bool{
		"image/jpg":  true,
		"image/jpeg": true,
		"image/png":  true,
	}
)

// ImageUseCase owns the image status: it issues upload grants and moves
// records from Uploading to Uploaded or Error once storage has been checked.
type ImageUseCase struct {
	imageRepo    repo.ImageRepo
	metadataRepo repo.ImageMetadataRepo
	scheduler    usecase.TaskScheduler
	metrics      *metrics.Metrics

	verifyDelay time.Duration

	logger logger.Interface
}

func New(
	imageRepo repo.ImageRepo,
	metadataRepo repo.ImageMetadataRepo,
	scheduler usecase.TaskScheduler,
	m *metrics.Metrics,
	l logger.Interface,
	verifyDelay time.Duration,
) *ImageUseCase {
	if verifyDelay <= 0 {
		verifyDelay = DefaultVerifyDelay
	}

	return &ImageUseCase{
		imageRepo:    imageRepo,
		metadataRepo: metadataRepo,
		scheduler:    scheduler,
		metrics:      m,
		verifyDelay:  verifyDelay,
		logger:       l,
	}
}

func ValidateName(name string) error {
	lower := strings.ToLower(name)
	for _, suffix := range allowedNameSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return nil
		}
	}

	return errs.ErrInvalidName
}

func ValidateMimetype(mimetype string) error {
	if !allowedMimetypes[mimetype] {
		return errs.ErrInvalidMimetype
	}

	return nil
}

func (uc *ImageUseCase) IssueUploadGrant(ctx context.Context, name, mimetype string) (*entity.Image, *entity.UploadGrant, error) {
	if err := ValidateName(name); err != nil {
		return nil, nil, fmt.Errorf("ImageUseCase - IssueUploadGrant - ValidateName: %w", err)
	}
	if err := ValidateMimetype(mimetype); err != nil {
		return nil, nil, fmt.Errorf("ImageUseCase - IssueUploadGrant - ValidateMimetype: %w", err)
	}

	// 1. provisional record
	image := entity.NewImage(name, mimetype)

	err := uc.metadataRepo.Create(ctx, image)
	if err != nil {
		return nil, nil, fmt.Errorf("ImageUseCase - IssueUploadGrant - uc.metadataRepo.Create: %w", err)
	}

	// 2. grant scoped to the canonical key; a failure leaves the Uploading record behind
	key := image.Key()

	post, err := uc.imageRepo.PresignPost(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("ImageUseCase - IssueUploadGrant - uc.imageRepo.PresignPost: %w", err)
	}

	url, err := uc.imageRepo.PresignGet(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("ImageUseCase - IssueUploadGrant - uc.imageRepo.PresignGet: %w", err)
	}

	// 3. original extension is recorded only once the grant exists
	image, err = uc.metadataRepo.GetByID(ctx, image.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("ImageUseCase - IssueUploadGrant - uc.metadataRepo.GetByID: %w", err)
	}

	if image.AddExtension(image.Extension()) {
		err = uc.metadataRepo.Update(ctx, image)
		if err != nil {
			return nil, nil, fmt.Errorf("ImageUseCase - IssueUploadGrant - uc.metadataRepo.Update: %w", err)
		}
	}

	// 4. safety net in case the client never reports back
	err = uc.scheduleVerification(ctx, image.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("ImageUseCase - IssueUploadGrant - uc.scheduleVerification: %w", err)
	}

	uc.metrics.GrantIssued()

	return image, &entity.UploadGrant{
		PresignedPost: *post,
		PresignedURL:  url,
	}, nil
}

// VerifyUpload settles an image as Uploaded or Error from what storage reports.
// Storage failures become the Error status; only record store failures are returned.
func (uc *ImageUseCase) VerifyUpload(ctx context.Context, id uuid.UUID) error {
	image, err := uc.metadataRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ImageUseCase - VerifyUpload - uc.metadataRepo.GetByID: %w", err)
	}

	exists, err := uc.imageRepo.Exists(ctx, image.Key())
	switch {
	case err != nil:
		uc.logger.Error(err, "ImageUseCase - VerifyUpload - uc.imageRepo.Exists", "image_id", id)
		image.MarkError(err.Error())
	case exists:
		image.MarkUploaded()
	default:
		image.MarkError(MessageNotUploaded)
	}

	err = uc.metadataRepo.Update(ctx, image)
	if err != nil {
		return fmt.Errorf("ImageUseCase - VerifyUpload - uc.metadataRepo.Update: %w", err)
	}

	uc.metrics.Verified(image.Status.String())

	return nil
}

// NotifyUploadFinished is the client's fast path. An object that is not visible
// yet never leads to Error here: verification is re-scheduled instead.
func (uc *ImageUseCase) NotifyUploadFinished(ctx context.Context, id uuid.UUID) (*entity.Image, error) {
	image, err := uc.metadataRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - NotifyUploadFinished - uc.metadataRepo.GetByID: %w", err)
	}

	exists, err := uc.imageRepo.Exists(ctx, image.Key())
	if err != nil {
		uc.logger.Warn("ImageUseCase - NotifyUploadFinished - existence check failed, image_id=%s, error=%v", id, err)
	}

	if err == nil && exists {
		image.MarkUploaded()

		err = uc.metadataRepo.Update(ctx, image)
		if err != nil {
			return nil, fmt.Errorf("ImageUseCase - NotifyUploadFinished - uc.metadataRepo.Update: %w", err)
		}

		uc.metrics.Verified(image.Status.String())

		return image, nil
	}

	err = uc.scheduleVerification(ctx, image.ID)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - NotifyUploadFinished - uc.scheduleVerification: %w", err)
	}

	return image, nil
}

func (uc *ImageUseCase) GetImage(ctx context.Context, id uuid.UUID) (*entity.Image, error) {
	image, err := uc.metadataRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - GetImage - uc.metadataRepo.GetByID: %w", err)
	}

	return image, nil
}

func (uc *ImageUseCase) ListImages(ctx context.Context, limit, offset int) ([]*entity.Image, error) {
	images, err := uc.metadataRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - ListImages - uc.metadataRepo.List: %w", err)
	}

	return images, nil
}

// PresignedURL is a read URL for the original object.
func (uc *ImageUseCase) PresignedURL(ctx context.Context, image *entity.Image) (string, error) {
	url, err := uc.imageRepo.PresignGet(ctx, image.Key())
	if err != nil {
		return "", fmt.Errorf("ImageUseCase - PresignedURL - uc.imageRepo.PresignGet: %w", err)
	}

	return url, nil
}

func (uc *ImageUseCase) scheduleVerification(ctx context.Context, id uuid.UUID) error {
	err := uc.scheduler.Schedule(ctx, entity.TaskVerifyUpload, id, dto.VerifyUploadArgs{ImageID: id}, uc.verifyDelay)
	if err != nil {
		return fmt.Errorf("ImageUseCase - scheduleVerification - uc.scheduler.Schedule: %w", err)
	}

	return nil
}
