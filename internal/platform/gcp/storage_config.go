package gcp

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/interview-brief-backend/internal/platform/envutil"
)

type StorageMode string

const (
	StorageModeGCS      StorageMode = "gcs"
	StorageModeEmulator StorageMode = "gcs_emulator"
	// StorageModeMemory keeps artifacts in process; for local runs only.
	StorageModeMemory StorageMode = "memory"
)

// StorageConfig selects where session artifacts live.
type StorageConfig struct {
	Mode         StorageMode
	Bucket       string
	EmulatorHost string
	// Inferred is set when Mode was derived from STORAGE_EMULATOR_HOST rather
	// than OBJECT_STORAGE_MODE.
	Inferred bool
}

var ErrInvalidStorageConfig = errors.New("invalid object storage config")

// StorageConfigError names the variable that made a StorageConfig unusable.
type StorageConfigError struct {
	Var    string
	Value  string
	Reason string
}

func (e *StorageConfigError) Error() string {
	return fmt.Sprintf("%s=%q: %s", e.Var, e.Value, e.Reason)
}

func (e *StorageConfigError) Is(target error) bool { return target == ErrInvalidStorageConfig }

// StorageConfigFromEnv reads OBJECT_STORAGE_MODE, ARTIFACTS_GCS_BUCKET_NAME and
// STORAGE_EMULATOR_HOST. An unset mode means the emulator when a host is
// given and real GCS otherwise.
func StorageConfigFromEnv() StorageConfig {
	cfg := StorageConfig{
		Mode:         StorageMode(strings.ToLower(envutil.String("OBJECT_STORAGE_MODE", ""))),
		Bucket:       envutil.String("ARTIFACTS_GCS_BUCKET_NAME", ""),
		EmulatorHost: strings.TrimRight(envutil.String("STORAGE_EMULATOR_HOST", ""), "/"),
	}
	if cfg.Mode == "" {
		cfg.Mode = StorageModeGCS
		if cfg.EmulatorHost != "" {
			cfg.Mode = StorageModeEmulator
			cfg.Inferred = true
		}
	}
	return cfg
}

func (c StorageConfig) Validate() error {
	switch c.Mode {
	case StorageModeMemory:
		return nil
	case StorageModeGCS, StorageModeEmulator:
	default:
		return &StorageConfigError{Var: "OBJECT_STORAGE_MODE", Value: string(c.Mode), Reason: "want gcs, gcs_emulator or memory"}
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return &StorageConfigError{Var: "ARTIFACTS_GCS_BUCKET_NAME", Reason: "required for bucket storage"}
	}
	if c.Mode != StorageModeEmulator {
		return nil
	}
	if c.EmulatorHost == "" {
		return &StorageConfigError{Var: "STORAGE_EMULATOR_HOST", Reason: "required for gcs_emulator"}
	}
	u, err := url.Parse(c.EmulatorHost)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &StorageConfigError{Var: "STORAGE_EMULATOR_HOST", Value: c.EmulatorHost, Reason: "expected an absolute URL like http://fake-gcs:4443"}
	}
	return nil
}
