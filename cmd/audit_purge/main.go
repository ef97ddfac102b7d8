package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/interview-brief-backend/internal/data/db"
	"github.com/yungbote/interview-brief-backend/internal/data/repos"
	"github.com/yungbote/interview-brief-backend/internal/jobs"
	"github.com/yungbote/interview-brief-backend/internal/platform/envutil"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// audit_purge deletes expired audit events once and exits. Useful as a
// Kubernetes CronJob when the in-process schedule is disabled.
func main() {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	svc, err := db.NewFromEnv(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	cfg := jobs.RetentionConfigFromEnv()
	job := jobs.NewRetentionJob(log, repos.NewRecordStore(svc.DB(), log), cfg)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if _, err := job.RunOnce(ctx); err != nil {
		log.Error("Audit purge failed", "error", err)
		os.Exit(1)
	}
}
