package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore stores uploaded blobs in an S3-compatible bucket and hands out
// presigned GET URLs as the retrievable locator.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

// MinioConfig holds the settings needed to reach the bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

// NewMinioStore connects to the S3 endpoint and verifies the bucket exists.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	endpoint, secure, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	if cfg.UseSSL {
		secure = true
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	// Sanity check: bucket must exist.
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("s3 bucket does not exist: %s", cfg.Bucket)
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	return &MinioStore{client: client, bucket: cfg.Bucket, urlExpiry: expiry}, nil
}

// Save streams the blob into the bucket under the object key.
func (m *MinioStore) Save(ctx context.Context, key string, data io.Reader, size int64, contentType string) (int64, error) {
	info, err := m.client.PutObject(ctx, m.bucket, key, data, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return 0, fmt.Errorf("failed to store blob %s: %w", key, err)
	}
	return info.Size, nil
}

// URL returns a presigned GET URL for the blob.
func (m *MinioStore) URL(ctx context.Context, key string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, m.urlExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign blob %s: %w", key, err)
	}
	return u.String(), nil
}

// Delete removes the blob from the bucket.
func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// normalizeEndpoint accepts either "minio:9000" or a full
// "http(s)://minio:9000" URL and reports whether TLS is implied.
func normalizeEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty s3 endpoint")
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, fmt.Errorf("invalid s3 endpoint: %w", err)
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid s3 endpoint: missing host")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("s3 endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}

	return raw, false, nil
}
