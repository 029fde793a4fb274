package upload

import (
	"context"
	"fmt"
	"io"
	"time"

	"eco-proof/community-portal/community-portal-backend/pkg/storage"
)

// S3Store streams proof images to an object bucket through the shared S3
// client and resolves filenames to presigned GET URLs.
type S3Store struct {
	client storage.S3Client
	bucket string
	expiry time.Duration
}

// NewS3Store wraps an S3 client for one bucket.
func NewS3Store(client storage.S3Client, bucket string, presignExpiry time.Duration) *S3Store {
	if presignExpiry <= 0 {
		presignExpiry = 15 * time.Minute
	}
	return &S3Store{client: client, bucket: bucket, expiry: presignExpiry}
}

func (s *S3Store) Save(ctx context.Context, filename, contentType string, body io.Reader, size int64) error {
	if err := s.client.Upload(ctx, s.bucket, filename, contentType, body); err != nil {
		return fmt.Errorf("failed to upload to bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *S3Store) URL(ctx context.Context, filename string) (string, error) {
	url, err := s.client.GetPresignedURL(ctx, s.bucket, filename, s.expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", filename, err)
	}
	return url, nil
}
