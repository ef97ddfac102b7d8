package briefrun

import (
	"context"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// Starter hands pipeline runs to Temporal. It satisfies
// services.PipelineRunner.
type Starter struct {
	tc        temporalsdkclient.Client
	taskQueue string
	log       *logger.Logger
}

func NewStarter(tc temporalsdkclient.Client, taskQueue string, baseLog *logger.Logger) (*Starter, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	return &Starter{tc: tc, taskQueue: taskQueue, log: baseLog.With("service", "BriefRunStarter")}, nil
}

func (s *Starter) Start(ctx context.Context, sessionID string, maxAttempts int) error {
	opts := temporalsdkclient.StartWorkflowOptions{ID: WorkflowID(sessionID), TaskQueue: s.taskQueue}
	opts.WorkflowIDReusePolicy = enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE
	opts.WorkflowExecutionErrorWhenAlreadyStarted = true
	run, err := s.tc.ExecuteWorkflow(ctx, opts, WorkflowName, Input{SessionID: sessionID, MaxAttempts: maxAttempts})
	if err != nil {
		var already *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &already) {
			return domain.NewError(domain.CodeStateConflict, "start_pipeline", "a pipeline run is already in progress", err)
		}
		return domain.UpstreamError("start_pipeline", err)
	}
	s.log.Info("Brief run started", "session_id", sessionID, "workflow_id", run.GetID(), "run_id", run.GetRunID())
	return nil
}
