package persistent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/vkmrishad/image-jinn/internal/entity"
	"github.com/vkmrishad/image-jinn/pkg/s3client"
)

type ImageRepo struct {
	*s3client.S3Client
	bucket     string
	presignTTL time.Duration
	maxSize    int64
}

func NewImageRepo(s3c *s3client.S3Client, bucket string, presignTTL time.Duration, maxSize int64) *ImageRepo {
	return &ImageRepo{s3c, bucket, presignTTL, maxSize}
}

func (r *ImageRepo) PresignPost(ctx context.Context, key string) (*entity.PresignedPost, error) {
	req, err := r.Presign.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = r.presignTTL
		if r.maxSize > 0 {
			o.Conditions = append(o.Conditions, []interface{}{"content-length-range", 1, r.maxSize})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("ImageRepo - PresignPost - r.Presign.PresignPostObject: %w", err)
	}

	return &entity.PresignedPost{
		URL:    req.URL,
		Fields: req.Values,
	}, nil
}

func (r *ImageRepo) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := r.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.presignTTL))
	if err != nil {
		return "", fmt.Errorf("ImageRepo - PresignGet - r.Presign.PresignGetObject: %w", err)
	}

	return req.URL, nil
}

func (r *ImageRepo) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("ImageRepo - Exists - r.Client.HeadObject: %w", err)
	}

	return true, nil
}

func (r *ImageRepo) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("ImageRepo - UploadBytes - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *ImageRepo) DownloadBytes(ctx context.Context, key string) ([]byte, error) {
	result, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("ImageRepo - DownloadBytes - r.Client.GetObject: %w", err)
	}
	defer result.Body.Close()

	b, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("ImageRepo - DownloadBytes - io.ReadAll: %w", err)
	}

	return b, nil
}

// isNotFound covers both the modeled HeadObject error and the bare 404 code
// some S3 compatible stores answer with.
func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}

	return false
}
