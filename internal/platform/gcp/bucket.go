package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// ErrObjectNotFound is returned when a key has no object.
var ErrObjectNotFound = errors.New("object not found")

// BucketService reads and writes artifact objects in a single bucket.
type BucketService interface {
	Upload(ctx context.Context, key string, body []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
	SignedUploadURL(key, contentType string, ttl time.Duration) (string, error)
	BucketName() string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	mode          StorageMode
	emulatorHost  string
	bucket        string
	httpClient    *http.Client
}

// NewBucketService opens the bucket named by cfg. Memory mode has no bucket
// and is rejected here.
func NewBucketService(log *logger.Logger, cfg StorageConfig) (BucketService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode == StorageModeMemory {
		return nil, fmt.Errorf("object storage mode %q has no bucket", cfg.Mode)
	}

	st, err := newStorageClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	slog := log.With("service", "BucketService", "bucket", cfg.Bucket)
	slog.Info("Object storage initialized", "mode", cfg.Mode, "emulator_host", cfg.EmulatorHost)

	return &bucketService{
		log:           slog,
		storageClient: st,
		mode:          cfg.Mode,
		emulatorHost:  cfg.EmulatorHost,
		bucket:        cfg.Bucket,
		httpClient:    &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

func newStorageClient(ctx context.Context, cfg StorageConfig) (*storage.Client, error) {
	if cfg.Mode == StorageModeEmulator {
		return storage.NewClient(ctx,
			option.WithEndpoint(cfg.EmulatorHost+"/storage/v1/"),
			option.WithoutAuthentication(),
		)
	}
	opts, err := ClientOptionsFromEnv()
	if err != nil {
		return nil, err
	}
	return storage.NewClient(ctx, append(opts, option.WithScopes(storage.ScopeReadWrite))...)
}

func (bs *bucketService) BucketName() string { return bs.bucket }

func (bs *bucketService) Upload(ctx context.Context, key string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(bs.bucket).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, bytes.NewReader(body)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	case strings.HasSuffix(s, ".txt"):
		return "text/plain; charset=utf-8"
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	default:
		return ""
	}
}

func (bs *bucketService) Download(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if bs.isEmulatorMode() {
		return bs.downloadFromEmulator(ctx, key)
	}
	r, err := bs.storageClient.Bucket(bs.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object %q: %w", key, err)
	}
	return data, nil
}

// The emulator's XML endpoint does not serve reads; use the JSON media URL.
func (bs *bucketService) downloadFromEmulator(ctx context.Context, key string) ([]byte, error) {
	u := fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		bs.emulatorHost,
		url.PathEscape(bs.bucket),
		url.PathEscape(key),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed creating emulator download request: %w", err)
	}
	resp, err := bs.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed emulator download request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrObjectNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("emulator download failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return io.ReadAll(resp.Body)
}

func (bs *bucketService) isEmulatorMode() bool {
	return bs != nil && bs.mode == StorageModeEmulator && bs.emulatorHost != ""
}

// SignedUploadURL issues a V4 PUT URL for key. Signing needs service account
// credentials; callers treat failure as "no URL".
func (bs *bucketService) SignedUploadURL(key, contentType string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return bs.storageClient.Bucket(bs.bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     time.Now().Add(ttl),
	})
}
