package briefrun

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/services"
)

// Workflow runs ingest (when the session is still created), then generate and
// quality-check until the gate passes or MaxAttempts is reached. Exhausting
// the attempts is a normal completion with Passed=false.
func Workflow(ctx workflow.Context, in Input) (Result, error) {
	res := Result{SessionID: strings.TrimSpace(in.SessionID)}
	if res.SessionID == "" {
		return res, temporal.NewNonRetryableApplicationError("missing session_id", string(domain.CodeValidation), nil)
	}
	maxAttempts := in.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = services.DefaultMaxAttempts
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 15 * time.Minute,
		HeartbeatTimeout:    time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})
	log := workflow.GetLogger(ctx)

	var state SessionState
	if err := workflow.ExecuteActivity(ctx, ActivityStatus, res.SessionID).Get(ctx, &state); err != nil {
		return res, err
	}
	// Resume where an earlier run stopped: a generated session goes straight
	// to the gate, a failed one regenerates with the gate's last issues.
	var feedback []string
	gateFirst := false
	switch domain.SessionStatus(state.Status) {
	case domain.StatusCreated:
		if err := workflow.ExecuteActivity(ctx, ActivityIngest, res.SessionID).Get(ctx, nil); err != nil {
			return res, err
		}
	case domain.StatusIngested:
	case domain.StatusGenerated:
		gateFirst = true
	case domain.StatusQualityFailed:
		feedback = state.Issues
	default:
		return res, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("cannot run the pipeline while session is %s", state.Status), string(domain.CodeStateConflict), nil)
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		version := state.Version
		if attempt > 1 || !gateFirst {
			gen := GenerateInput{SessionID: res.SessionID, Feedback: feedback}
			if err := workflow.ExecuteActivity(ctx, ActivityGenerate, gen).Get(ctx, &version); err != nil {
				return res, err
			}
		}
		var q QualityResult
		if err := workflow.ExecuteActivity(ctx, ActivityQualityCheck, res.SessionID).Get(ctx, &q); err != nil {
			return res, err
		}
		res.Version = version
		res.Attempts = attempt
		res.Passed = q.Passed
		res.Score = q.Score
		res.Issues = q.Issues
		if q.Passed {
			break
		}
		feedback = services.MergeFeedback(feedback, q.Issues)
		log.Info("Quality gate failed", "session_id", res.SessionID, "attempt", attempt, "score", q.Score)
	}
	return res, nil
}
