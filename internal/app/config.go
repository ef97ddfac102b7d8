package app

import (
	"github.com/yungbote/interview-brief-backend/internal/platform/envutil"
	"github.com/yungbote/interview-brief-backend/internal/platform/gcp"
)

type Config struct {
	Port        string
	LogMode     string
	ServiceName string
	Environment string
	Version     string

	Storage gcp.StorageConfig

	// RunWorker starts the Temporal worker in the API process.
	RunWorker bool
}

func LoadConfig() Config {
	return Config{
		Port:        envutil.String("PORT", "8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "interview-brief-backend"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
		Storage:     gcp.StorageConfigFromEnv(),
		RunWorker:   envutil.Bool("RUN_TEMPORAL_WORKER", true),
	}
}
