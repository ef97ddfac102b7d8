package briefrun

import (
	"context"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/yungbote/interview-brief-backend/internal/data/repos"
	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
	"github.com/yungbote/interview-brief-backend/internal/services"
)

// Activities adapt the brief pipeline stages to Temporal. Each activity is
// one stage call; the stage holds the session lock itself.
type Activities struct {
	Log      *logger.Logger
	Store    repos.RecordStore
	Pipeline services.BriefPipeline
}

func (a *Activities) Status(ctx context.Context, sessionID string) (SessionState, error) {
	sess, err := a.Store.GetSession(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return SessionState{}, activityError(err)
	}
	return SessionState{
		Status:  string(sess.Status),
		Version: sess.BriefVersion,
		Issues:  sess.LastQualityIssues(),
	}, nil
}

func (a *Activities) Ingest(ctx context.Context, sessionID string) error {
	stop := startHeartbeat(ctx)
	defer stop()
	_, err := a.Pipeline.Ingest(ctx, sessionID)
	return activityError(err)
}

func (a *Activities) Generate(ctx context.Context, in GenerateInput) (int, error) {
	stop := startHeartbeat(ctx)
	defer stop()
	out, err := a.Pipeline.Generate(ctx, in.SessionID, in.Feedback)
	if err != nil {
		if a.Log != nil {
			a.Log.Warn("Generate activity failed", "session_id", in.SessionID, "attempt", activity.GetInfo(ctx).Attempt, "error", err)
		}
		return 0, activityError(err)
	}
	return out.Version, nil
}

func (a *Activities) QualityCheck(ctx context.Context, sessionID string) (QualityResult, error) {
	res, err := a.Pipeline.QualityCheck(ctx, sessionID)
	if err != nil {
		return QualityResult{}, activityError(err)
	}
	return QualityResult{Passed: res.Passed, Score: res.Score, Issues: res.Issues}, nil
}

// activityError marks caller-side failures non-retryable so Temporal does not
// burn its retry budget on them. The error code becomes the application
// error type.
func activityError(err error) error {
	if err == nil || domain.IsRetryable(err) {
		return err
	}
	return temporal.NewNonRetryableApplicationError(domain.MessageOf(err), string(domain.CodeOf(err)), err)
}

func startHeartbeat(ctx context.Context) func() {
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(10 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-t.C:
				activity.RecordHeartbeat(ctx)
			}
		}
	}()
	return func() { close(done) }
}
