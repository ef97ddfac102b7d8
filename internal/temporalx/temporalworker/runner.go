package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/interview-brief-backend/internal/data/repos"
	"github.com/yungbote/interview-brief-backend/internal/platform/envutil"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
	"github.com/yungbote/interview-brief-backend/internal/services"
	"github.com/yungbote/interview-brief-backend/internal/temporalx"
	"github.com/yungbote/interview-brief-backend/internal/temporalx/briefrun"
)

// Runner polls the brief task queue and executes brief_run workflows.
type Runner struct {
	log *logger.Logger
	cfg temporalx.Config

	tc       temporalsdkclient.Client
	store    repos.RecordStore
	pipeline services.BriefPipeline
}

func NewRunner(
	log *logger.Logger,
	tc temporalsdkclient.Client,
	store repos.RecordStore,
	pipeline services.BriefPipeline,
) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if store == nil || pipeline == nil {
		return nil, fmt.Errorf("temporal worker missing deps")
	}
	return &Runner{
		log:      log.With("service", "TemporalWorker"),
		cfg:      temporalx.LoadConfig(),
		tc:       tc,
		store:    store,
		pipeline: pipeline,
	}, nil
}

// Start launches the worker, retrying while the frontend or namespace is not
// ready. The worker stops when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	cfg := r.cfg
	r.log.Info("Starting Temporal worker", "address", cfg.Address, "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue)

	if cfg.AutoRegisterNamespace {
		if err := temporalx.EnsureNamespace(ctx, cfg, r.log); err != nil {
			r.log.Warn("Temporal namespace ensure failed; worker will retry on start", "namespace", cfg.Namespace, "error", err)
		}
	}

	maxWait := envutil.Seconds("TEMPORAL_WORKER_START_MAX_WAIT_SECONDS", 60*time.Second)
	deadline := time.Now().Add(maxWait)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue, "attempts", attempt)
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		missing := errors.As(startErr, &nfe)
		if missing && cfg.AutoRegisterNamespace {
			_ = temporalx.EnsureNamespace(ctx, cfg, r.log)
		}
		if maxWait <= 0 || time.Now().After(deadline) {
			if missing {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", cfg.Namespace, startErr)
			}
			return startErr
		}

		r.log.Warn("Temporal worker failed to start; retrying", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue, "attempt", attempt, "error", startErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(temporalx.Backoff(cfg.DialBackoff, cfg.DialBackoffMax, attempt)):
		}
	}
}

func (r *Runner) newWorker() worker.Worker {
	concurrency := envutil.Int("WORKER_CONCURRENCY", 4)
	if concurrency < 1 {
		concurrency = 1
	}
	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})
	Register(w, &briefrun.Activities{Log: r.log, Store: r.store, Pipeline: r.pipeline})
	return w
}

// Register binds the brief_run workflow and its activities under their
// stable names.
func Register(reg worker.Registry, acts *briefrun.Activities) {
	reg.RegisterWorkflowWithOptions(briefrun.Workflow, workflow.RegisterOptions{Name: briefrun.WorkflowName})
	reg.RegisterActivityWithOptions(acts.Status, activity.RegisterOptions{Name: briefrun.ActivityStatus})
	reg.RegisterActivityWithOptions(acts.Ingest, activity.RegisterOptions{Name: briefrun.ActivityIngest})
	reg.RegisterActivityWithOptions(acts.Generate, activity.RegisterOptions{Name: briefrun.ActivityGenerate})
	reg.RegisterActivityWithOptions(acts.QualityCheck, activity.RegisterOptions{Name: briefrun.ActivityQualityCheck})
}
