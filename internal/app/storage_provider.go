package app

import (
	"fmt"

	"github.com/yungbote/interview-brief-backend/internal/data/blob"
	"github.com/yungbote/interview-brief-backend/internal/platform/gcp"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

var newBucketService = gcp.NewBucketService

// resolveBlobStore picks the artifact store for cfg.Storage.
func resolveBlobStore(log *logger.Logger, cfg Config) (blob.Store, error) {
	sc := cfg.Storage
	if err := sc.Validate(); err != nil {
		log.Error("Object storage config rejected", "mode", sc.Mode, "error", err)
		return nil, err
	}
	log.Info("Selecting object storage",
		"mode", sc.Mode,
		"inferred", sc.Inferred,
		"bucket", sc.Bucket,
		"emulator_host", sc.EmulatorHost,
	)

	if sc.Mode == gcp.StorageModeMemory {
		log.Warn("Artifacts are kept in memory and lost on restart")
		return blob.NewMemoryStore(), nil
	}
	bucket, err := newBucketService(log, sc)
	if err != nil {
		return nil, fmt.Errorf("connect object storage (%s): %w", sc.Mode, err)
	}
	return blob.NewBucketStore(bucket, log), nil
}
