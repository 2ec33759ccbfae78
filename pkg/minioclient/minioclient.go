package minioclient

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	_defaultConnAttempts = 10
	_defaultConnTimeout  = time.Second
	_defaultRegion       = "us-east-1"
)

// MinioClient is the minio-go flavour of the object store connection,
// used when S3_DRIVER=minio.
type MinioClient struct {
	connAttempts int
	connTimeout  time.Duration

	endpoint  string
	region    string
	accessKey string
	secretKey string
	useSSL    bool

	Client *minio.Client
}

func New(ctx context.Context, endpoint, accessKey, secretKey string, opts ...Option) (*MinioClient, error) {
	mc := &MinioClient{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
		region:       _defaultRegion,
		endpoint:     endpoint,
		accessKey:    accessKey,
		secretKey:    secretKey,
	}

	for _, opt := range opts {
		opt(mc)
	}

	var err error
	for mc.connAttempts > 0 {
		err = mc.connect(ctx)
		if err == nil {
			break
		}

		log.Printf("MinIO is trying to connect, attempts left: %d", mc.connAttempts)

		time.Sleep(mc.connTimeout)

		mc.connAttempts--
	}

	if err != nil {
		return nil, fmt.Errorf("MinioClient - New - connAttempts == 0: %w", err)
	}

	return mc, nil
}

func (c *MinioClient) connect(ctx context.Context) error {
	client, err := minio.New(c.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.accessKey, c.secretKey, ""),
		Secure: c.useSSL,
		Region: c.region,
	})
	if err != nil {
		return fmt.Errorf("MinioClient - minio.New: %w", err)
	}

	// check connection
	_, err = client.ListBuckets(ctx)
	if err != nil {
		return fmt.Errorf("MinioClient - client.ListBuckets: %w", err)
	}

	c.Client = client

	return nil
}
