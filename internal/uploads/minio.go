package uploads

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// objectStore is the subset of *minio.Client used by MinIOSink.
type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base URL clients use to fetch objects. Defaults to
	// the endpoint with the bucket appended.
	PublicURL string
	MaxBytes  int64
}

// MinIOSink stores photos in an S3-compatible bucket.
type MinIOSink struct {
	client    objectStore
	bucket    string
	publicURL string
	maxBytes  int64
	clock     func() time.Time
}

func NewMinIOSink(ctx context.Context, cfg MinIOConfig) (*MinIOSink, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	return newMinIOSink(client, cfg.Bucket, publicURL, cfg.MaxBytes), nil
}

func newMinIOSink(client objectStore, bucket, publicURL string, maxBytes int64) *MinIOSink {
	return &MinIOSink{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxBytes:  maxBytes,
		clock:     time.Now,
	}
}

func (s *MinIOSink) Store(ctx context.Context, p Photo) (string, error) {
	if p.Filename == "" || p.Body == nil {
		return "", ErrEmptyPhoto
	}
	if s.maxBytes > 0 && p.Size > s.maxBytes {
		return "", ErrTooLarge
	}
	name := ObjectName(s.clock().UTC(), p.Filename)

	size := p.Size
	if size <= 0 {
		size = -1
	}
	_, err := s.client.PutObject(ctx, s.bucket, name, newLimitBody(p.Body, s.maxBytes), size, minio.PutObjectOptions{
		ContentType: p.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.publicURL + "/" + name, nil
}

// Remove deletes an object previously returned by Store.
func (s *MinIOSink) Remove(ctx context.Context, url string) error {
	name := strings.TrimPrefix(url, s.publicURL+"/")
	if name == "" || name == url {
		return fmt.Errorf("remove object: %q is not in bucket %s", url, s.bucket)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
