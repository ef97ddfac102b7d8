// Package blob stores generated artifacts as JSON or text objects under
// session-scoped keys.
package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/platform/gcp"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// ErrNotFound is returned by the raw getters when a key holds no object.
var ErrNotFound = gcp.ErrObjectNotFound

type Store interface {
	PutJSON(ctx context.Context, key string, v any) error
	// GetJSON decodes the object at key into out. It reports false when the
	// key is absent.
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	PutText(ctx context.Context, key, text string) error
	GetText(ctx context.Context, key string) (string, bool, error)
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	// SignedUploadURL issues a short-lived PUT URL, or "" when signing is not
	// available.
	SignedUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}

type bucketStore struct {
	bucket gcp.BucketService
	log    *logger.Logger
}

// NewBucketStore adapts a GCS bucket.
func NewBucketStore(bucket gcp.BucketService, baseLog *logger.Logger) Store {
	return &bucketStore{bucket: bucket, log: baseLog.With("service", "BlobStore", "bucket", bucket.BucketName())}
}

func (s *bucketStore) PutJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return domain.Wrap(domain.CodeInternal, "blob_put_json", err)
	}
	return s.put(ctx, key, b)
}

func (s *bucketStore) PutText(ctx context.Context, key, text string) error {
	return s.put(ctx, key, []byte(text))
}

func (s *bucketStore) put(ctx context.Context, key string, b []byte) error {
	if err := s.bucket.Upload(ctx, key, b); err != nil {
		return domain.UpstreamError("blob_put", fmt.Errorf("%s: %w", key, err))
	}
	return nil
}

func (s *bucketStore) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.bucket.Download(ctx, key)
	if errors.Is(err, gcp.ErrObjectNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, domain.UpstreamError("blob_get", fmt.Errorf("%s: %w", key, err))
	}
	return b, true, nil
}

func (s *bucketStore) GetText(ctx context.Context, key string) (string, bool, error) {
	b, ok, err := s.GetBytes(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(b), true, nil
}

func (s *bucketStore) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	b, ok, err := s.GetBytes(ctx, key)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, domain.Wrap(domain.CodeInternal, "blob_get_json", fmt.Errorf("%s: %w", key, err))
	}
	return true, nil
}

func (s *bucketStore) SignedUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	u, err := s.bucket.SignedUploadURL(key, contentType, ttl)
	if err != nil {
		s.log.Warn("Signed upload URL unavailable", "key", key, "error", err)
		return "", nil
	}
	return u, nil
}
