package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vkmrishad/image-jinn/internal/entity"
	"github.com/vkmrishad/image-jinn/pkg/postgres"
	"github.com/vkmrishad/image-jinn/pkg/types/errs"
)

const (
	// Table
	imagesTable = "images"

	// Columns
	idColumn                  = "id"
	nameColumn                = "name"
	mimetypeColumn            = "mimetype"
	statusColumn              = "status"
	availableExtensionsColumn = "available_extensions"
	messageColumn             = "message"
	createdAtColumn           = "created_at"
	updatedAtColumn           = "updated_at"
)

var imageColumns = []string{
	idColumn,
	nameColumn,
	mimetypeColumn,
	statusColumn,
	availableExtensionsColumn,
	messageColumn,
	createdAtColumn,
	updatedAtColumn,
}

type ImageMetadataRepo struct {
	*postgres.Postgres
}

func NewImageMetadataRepo(pg *postgres.Postgres) *ImageMetadataRepo {
	return &ImageMetadataRepo{pg}
}

func (r *ImageMetadataRepo) Create(ctx context.Context, image *entity.Image) error {
	sql, args, err := r.Builder.
		Insert(imagesTable).
		Columns(imageColumns...).
		Values(
			image.ID,
			image.Name,
			image.Mimetype,
			image.Status,
			extensionsOrEmpty(image.AvailableExtensions),
			image.Message,
			image.CreatedAt,
			image.UpdatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Create - r.Builder.ToSql(): %w", err)
	}

	// Pool / Tx
	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *ImageMetadataRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error) {
	sql, args, err := r.Builder.
		Select(imageColumns...).
		From(imagesTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	image, err := scanImage(executor.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ImageMetadataRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("ImageMetadataRepo - GetByID - executor.QueryRow: %w", err)
	}

	return image, nil
}

func (r *ImageMetadataRepo) List(ctx context.Context, limit, offset int) ([]*entity.Image, error) {
	sql, args, err := r.Builder.
		Select(imageColumns...).
		From(imagesTable).
		OrderBy(createdAtColumn + " DESC").
		Limit(uint64(limit)).   //nolint:gosec // bounded by the handler
		Offset(uint64(offset)). //nolint:gosec // bounded by the handler
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - List - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - List - executor.Query: %w", err)
	}
	defer rows.Close()

	images := make([]*entity.Image, 0, limit)
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("ImageMetadataRepo - List - rows.Scan: %w", err)
		}
		images = append(images, image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - List - rows.Err: %w", err)
	}

	return images, nil
}

// Update writes the mutable columns. There is no version check: last write wins.
func (r *ImageMetadataRepo) Update(ctx context.Context, image *entity.Image) error {
	image.UpdatedAt = time.Now().UTC()

	sql, args, err := r.Builder.
		Update(imagesTable).
		Set(statusColumn, image.Status).
		Set(availableExtensionsColumn, extensionsOrEmpty(image.AvailableExtensions)).
		Set(messageColumn, image.Message).
		Set(updatedAtColumn, image.UpdatedAt).
		Where(squirrel.Eq{idColumn: image.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Update - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Update - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ImageMetadataRepo - Update: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func scanImage(row pgx.Row) (*entity.Image, error) {
	var image entity.Image

	err := row.Scan(
		&image.ID,
		&image.Name,
		&image.Mimetype,
		&image.Status,
		&image.AvailableExtensions,
		&image.Message,
		&image.CreatedAt,
		&image.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &image, nil
}

// extensionsOrEmpty keeps the column NOT NULL: a nil slice would be written as NULL.
func extensionsOrEmpty(extensions []string) []string {
	if extensions == nil {
		return []string{}
	}
	return extensions
}
