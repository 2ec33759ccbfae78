package variant

import (
	"context"
	"fmt"
	"strings"

	"github.com/vkmrishad/image-jinn/internal/entity"
	"github.com/vkmrishad/image-jinn/internal/infrastructure"
	"github.com/vkmrishad/image-jinn/internal/repo"
	"github.com/vkmrishad/image-jinn/pkg/logger"
	"github.com/vkmrishad/image-jinn/pkg/metrics"
	"github.com/vkmrishad/image-jinn/pkg/types/errs"
)

const (
	outcomeOriginal  = "original"
	outcomeHit       = "hit"
	outcomeConverted = "converted"
	outcomeFailed    = "failed"
)

// VariantUseCase serves an image in a requested extension, converting and
// caching the object under its variant key the first time it is asked for.
//
// Concurrent requests for the same missing variant are not serialized: each
// may convert and upload the same bytes under the same key. An uploaded
// variant is never removed, even when recording its extension fails.
type VariantUseCase struct {
	imageRepo    repo.ImageRepo
	metadataRepo repo.ImageMetadataRepo
	converter    infrastructure.ImageConverter
	metrics      *metrics.Metrics

	logger logger.Interface
}

func New(
	imageRepo repo.ImageRepo,
	metadataRepo repo.ImageMetadataRepo,
	converter infrastructure.ImageConverter,
	m *metrics.Metrics,
	l logger.Interface,
) *VariantUseCase {
	return &VariantUseCase{
		imageRepo:    imageRepo,
		metadataRepo: metadataRepo,
		converter:    converter,
		metrics:      m,
		logger:       l,
	}
}

func (uc *VariantUseCase) Resolve(ctx context.Context, image *entity.Image, extension string) (*entity.RenderedImage, error) {
	extension = strings.ToLower(extension)

	if extension != "" && !entity.SupportedExtension(extension) {
		return nil, fmt.Errorf("VariantUseCase - Resolve: %w", errs.ErrInvalidExtension)
	}

	// 1. original, nothing to convert
	if extension == "" || extension == image.Extension() {
		rendered, err := uc.original(ctx, image)
		if err != nil {
			return nil, fmt.Errorf("VariantUseCase - Resolve - uc.original: %w", err)
		}

		uc.metrics.Resolved(outcomeOriginal, image.Extension())

		return rendered, nil
	}

	key := image.VariantKey(extension)

	// 2. storage is authoritative for the cache, available_extensions is never pruned
	exists, err := uc.imageRepo.Exists(ctx, key)
	if err != nil {
		uc.metrics.Resolved(outcomeFailed, extension)
		return nil, fmt.Errorf("VariantUseCase - Resolve - uc.imageRepo.Exists: %w: %w", errs.ErrConversion, err)
	}

	if exists {
		rendered, err := uc.variant(ctx, image, extension)
		if err != nil {
			return nil, fmt.Errorf("VariantUseCase - Resolve - uc.variant: %w", err)
		}

		uc.metrics.Resolved(outcomeHit, extension)

		return rendered, nil
	}

	// 3. convert, store, then record
	image, err = uc.convert(ctx, image, extension)
	if err != nil {
		uc.metrics.Resolved(outcomeFailed, extension)
		return nil, fmt.Errorf("VariantUseCase - Resolve - uc.convert: %w", err)
	}

	rendered, err := uc.variant(ctx, image, extension)
	if err != nil {
		return nil, fmt.Errorf("VariantUseCase - Resolve - uc.variant: %w", err)
	}

	uc.metrics.Resolved(outcomeConverted, extension)

	return rendered, nil
}

// convert returns the re-fetched record with extension recorded. The record is
// written only after the converted object has been uploaded.
func (uc *VariantUseCase) convert(ctx context.Context, image *entity.Image, extension string) (*entity.Image, error) {
	key := image.VariantKey(extension)

	data, err := uc.imageRepo.DownloadBytes(ctx, image.Key())
	if err != nil {
		return nil, fmt.Errorf("VariantUseCase - convert - uc.imageRepo.DownloadBytes: %w: %w", errs.ErrConversion, err)
	}

	converted, err := uc.converter.Convert(ctx, data, extension)
	if err != nil {
		return nil, fmt.Errorf("VariantUseCase - convert - uc.converter.Convert: %w: %w", errs.ErrConversion, err)
	}

	err = uc.imageRepo.UploadBytes(ctx, key, converted, entity.MimetypeOf(extension))
	if err != nil {
		return nil, fmt.Errorf("VariantUseCase - convert - uc.imageRepo.UploadBytes: %w: %w", errs.ErrConversion, err)
	}

	latest, err := uc.metadataRepo.GetByID(ctx, image.ID)
	if err == nil {
		if latest.AddExtension(extension) {
			err = uc.metadataRepo.Update(ctx, latest)
		}
	}
	if err != nil {
		// the object stays: storage decides cache hits, so the next request serves it
		uc.logger.Warn("variant %s stored but not recorded: %v", key, err)
		return nil, fmt.Errorf("VariantUseCase - convert - uc.metadataRepo.Update: %w: %w", errs.ErrConversion, err)
	}

	return latest, nil
}

func (uc *VariantUseCase) original(ctx context.Context, image *entity.Image) (*entity.RenderedImage, error) {
	key := image.Key()

	url, err := uc.imageRepo.PresignGet(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("VariantUseCase - original - uc.imageRepo.PresignGet: %w", err)
	}

	return render(image, image.Name, image.Mimetype, key, url), nil
}

func (uc *VariantUseCase) variant(ctx context.Context, image *entity.Image, extension string) (*entity.RenderedImage, error) {
	key := image.VariantKey(extension)

	url, err := uc.imageRepo.PresignGet(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("VariantUseCase - variant - uc.imageRepo.PresignGet: %w", err)
	}

	return render(
		image,
		entity.ReplaceExtension(image.Name, extension),
		entity.MimetypeOf(extension),
		key,
		url,
	), nil
}

func render(image *entity.Image, name, mimetype, key, url string) *entity.RenderedImage {
	return &entity.RenderedImage{
		ID:                  image.ID,
		Name:                name,
		Mimetype:            mimetype,
		Status:              image.Status,
		AvailableExtensions: image.AvailableExtensions,
		PresignedURL:        url,
		Message:             image.Message,
		Key:                 key,
	}
}
