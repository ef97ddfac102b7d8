package services

import (
	"context"
	"sync"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// PipelineRunner starts a bounded pipeline run without waiting for it.
type PipelineRunner interface {
	Start(ctx context.Context, sessionID string, maxAttempts int) error
}

// LocalRunner runs pipelines on goroutines in this process. At most one run
// per session is in flight; a second Start is a state conflict.
type LocalRunner struct {
	pipeline BriefPipeline
	log      *logger.Logger

	mu      sync.Mutex
	running map[string]bool
	wg      sync.WaitGroup
}

func NewLocalRunner(pipeline BriefPipeline, baseLog *logger.Logger) *LocalRunner {
	return &LocalRunner{
		pipeline: pipeline,
		log:      baseLog.With("service", "LocalRunner"),
		running:  map[string]bool{},
	}
}

func (r *LocalRunner) Start(ctx context.Context, sessionID string, maxAttempts int) error {
	r.mu.Lock()
	if r.running[sessionID] {
		r.mu.Unlock()
		return domain.NewError(domain.CodeStateConflict, "start_pipeline", "a pipeline run is already in progress", nil)
	}
	r.running[sessionID] = true
	r.wg.Add(1)
	r.mu.Unlock()

	// The run outlives the request that started it.
	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			delete(r.running, sessionID)
			r.mu.Unlock()
		}()
		res, err := r.pipeline.Run(runCtx, sessionID, maxAttempts)
		if err != nil {
			r.log.Warn("Pipeline run failed", "session_id", sessionID, "error", err)
			return
		}
		r.log.Info("Pipeline run finished",
			"session_id", sessionID,
			"status", res.Status,
			"attempts", res.Attempts,
			"passed", res.Passed,
			"score", res.Score,
		)
	}()
	return nil
}

// Wait blocks until every started run has returned.
func (r *LocalRunner) Wait() {
	r.wg.Wait()
}
