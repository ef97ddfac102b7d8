package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yungbote/interview-brief-backend/internal/platform/envutil"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// DefaultPurgeSchedule runs the audit purge at 03:15 UTC daily.
const DefaultPurgeSchedule = "15 3 * * *"

// AuditPurger deletes audit events whose expiry is before cutoff.
type AuditPurger interface {
	PurgeAuditBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type RetentionConfig struct {
	// Schedule is a standard 5-field cron spec; "" or "off" disables the job.
	Schedule string
	Timeout  time.Duration
}

func RetentionConfigFromEnv() RetentionConfig {
	return RetentionConfig{
		Schedule: envutil.String("AUDIT_PURGE_SCHEDULE", DefaultPurgeSchedule),
		Timeout:  envutil.Seconds("AUDIT_PURGE_TIMEOUT_SECONDS", 5*time.Minute),
	}
}

// RetentionJob purges expired audit events on a cron schedule.
type RetentionJob struct {
	log    *logger.Logger
	store  AuditPurger
	cfg    RetentionConfig
	now    func() time.Time
	cron   *cron.Cron
	mu     sync.Mutex
	active bool
}

func NewRetentionJob(log *logger.Logger, store AuditPurger, cfg RetentionConfig) *RetentionJob {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &RetentionJob{
		log:   log.With("service", "AuditRetention"),
		store: store,
		cfg:   cfg,
		now:   time.Now,
		cron:  cron.New(cron.WithLocation(time.UTC)),
	}
}

func (j *RetentionJob) Enabled() bool {
	return j.cfg.Schedule != "" && j.cfg.Schedule != "off"
}

// Start schedules the purge. It returns an error for an unparsable schedule.
func (j *RetentionJob) Start() error {
	if !j.Enabled() {
		j.log.Info("Audit purge disabled")
		return nil
	}
	_, err := j.cron.AddFunc(j.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.cfg.Timeout)
		defer cancel()
		if _, err := j.RunOnce(ctx); err != nil {
			j.log.Error("Audit purge failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule audit purge %q: %w", j.cfg.Schedule, err)
	}
	j.cron.Start()
	j.log.Info("Audit purge scheduled", "schedule", j.cfg.Schedule)
	return nil
}

// Stop waits for a running purge to finish.
func (j *RetentionJob) Stop() {
	<-j.cron.Stop().Done()
}

// RunOnce deletes every event that expired before now. Overlapping runs are
// skipped.
func (j *RetentionJob) RunOnce(ctx context.Context) (int64, error) {
	j.mu.Lock()
	if j.active {
		j.mu.Unlock()
		j.log.Warn("Audit purge already running; skipping")
		return 0, nil
	}
	j.active = true
	j.mu.Unlock()
	defer func() {
		j.mu.Lock()
		j.active = false
		j.mu.Unlock()
	}()

	start := j.now()
	n, err := j.store.PurgeAuditBefore(ctx, start.UTC())
	if err != nil {
		return 0, err
	}
	j.log.Info("Audit purge complete", "deleted", n, "took", time.Since(start).String())
	return n, nil
}
