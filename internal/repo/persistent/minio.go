package persistent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/vkmrishad/image-jinn/internal/entity"
	"github.com/vkmrishad/image-jinn/pkg/minioclient"
)

// MinioImageRepo is the ImageRepo used with S3_DRIVER=minio.
type MinioImageRepo struct {
	*minioclient.MinioClient
	bucket     string
	presignTTL time.Duration
	maxSize    int64
}

func NewMinioImageRepo(mc *minioclient.MinioClient, bucket string, presignTTL time.Duration, maxSize int64) *MinioImageRepo {
	return &MinioImageRepo{mc, bucket, presignTTL, maxSize}
}

func (r *MinioImageRepo) PresignPost(ctx context.Context, key string) (*entity.PresignedPost, error) {
	policy := minio.NewPostPolicy()

	if err := policy.SetBucket(r.bucket); err != nil {
		return nil, fmt.Errorf("MinioImageRepo - PresignPost - policy.SetBucket: %w", err)
	}
	if err := policy.SetKey(key); err != nil {
		return nil, fmt.Errorf("MinioImageRepo - PresignPost - policy.SetKey: %w", err)
	}
	if err := policy.SetExpires(time.Now().UTC().Add(r.presignTTL)); err != nil {
		return nil, fmt.Errorf("MinioImageRepo - PresignPost - policy.SetExpires: %w", err)
	}
	if r.maxSize > 0 {
		if err := policy.SetContentLengthRange(1, r.maxSize); err != nil {
			return nil, fmt.Errorf("MinioImageRepo - PresignPost - policy.SetContentLengthRange: %w", err)
		}
	}

	u, fields, err := r.Client.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return nil, fmt.Errorf("MinioImageRepo - PresignPost - r.Client.PresignedPostPolicy: %w", err)
	}

	return &entity.PresignedPost{
		URL:    u.String(),
		Fields: fields,
	}, nil
}

func (r *MinioImageRepo) PresignGet(ctx context.Context, key string) (string, error) {
	u, err := r.Client.PresignedGetObject(ctx, r.bucket, key, r.presignTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("MinioImageRepo - PresignGet - r.Client.PresignedGetObject: %w", err)
	}

	return u.String(), nil
}

func (r *MinioImageRepo) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.Client.StatObject(ctx, r.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		switch minio.ToErrorResponse(err).Code {
		case "NoSuchKey", "NotFound":
			return false, nil
		}
		return false, fmt.Errorf("MinioImageRepo - Exists - r.Client.StatObject: %w", err)
	}

	return true, nil
}

func (r *MinioImageRepo) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := r.Client.PutObject(ctx, r.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("MinioImageRepo - UploadBytes - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *MinioImageRepo) DownloadBytes(ctx context.Context, key string) ([]byte, error) {
	obj, err := r.Client.GetObject(ctx, r.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("MinioImageRepo - DownloadBytes - r.Client.GetObject: %w", err)
	}
	defer obj.Close()

	// GetObject is lazy, request errors surface on the first read.
	b, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("MinioImageRepo - DownloadBytes - io.ReadAll: %w", err)
	}

	return b, nil
}

