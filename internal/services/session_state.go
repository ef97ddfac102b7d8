package services

import (
	"context"
	"strings"

	"github.com/yungbote/interview-brief-backend/internal/data/repos"
	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/observability"
	"github.com/yungbote/interview-brief-backend/internal/platform/ctxutil"
)

// Actor is the verified caller of an interviewer operation.
type Actor struct {
	ID    string
	Email string
}

// ActorFromContext reads the identity attached by the auth middleware.
func ActorFromContext(ctx context.Context) (Actor, error) {
	rd := ctxutil.GetRequestData(ctx)
	if !rd.Authenticated() {
		return Actor{}, domain.NewError(domain.CodeAuthorization, "actor", "authenticated caller required", nil)
	}
	return Actor{ID: strings.TrimSpace(rd.InterviewerID), Email: strings.TrimSpace(rd.Email)}, nil
}

func authorize(op string, sess *domain.Session, actor Actor) error {
	if !sess.OwnedBy(actor.ID) {
		return domain.AuthorizationError(op)
	}
	return nil
}

// requireStatus rejects the action unless sess is in one of allowed.
func requireStatus(op, action string, sess *domain.Session, allowed ...domain.SessionStatus) error {
	if !domain.StatusIn(sess.Status, allowed...) {
		return domain.StateConflictError(op, sess.Status, action)
	}
	return nil
}

// ensureActive rejects work on a session that was opted out or aborted.
func ensureActive(op, action string, sess *domain.Session) error {
	if sess.Status == domain.StatusOptedOut || sess.Status == domain.StatusAborted {
		return domain.StateConflictError(op, sess.Status, action)
	}
	return nil
}

// transition moves sess to `to` through a conditional write. The move must be
// in the transition table and the row must still be at sess.Status.
func transition(ctx context.Context, store repos.RecordStore, op, action string, sess *domain.Session, to domain.SessionStatus, fields map[string]any) error {
	if !domain.CanTransition(sess.Status, to) {
		return domain.StateConflictError(op, sess.Status, action)
	}
	if err := store.UpdateStatus(ctx, sess.ID, sess.Status, to, fields); err != nil {
		return err
	}
	sess.Status = to
	observability.Current().IncTransition(string(to))
	return nil
}

// checkVersionSlot fails when another writer allocated number first.
func checkVersionSlot(ctx context.Context, store repos.RecordStore, op, sessionID string, kind domain.VersionKind, number int) (*domain.Version, error) {
	latest, _, err := store.GetLatestVersion(ctx, sessionID, kind)
	if err != nil {
		return nil, err
	}
	if domain.NextVersionNumber(latest) != number {
		return nil, domain.NewError(domain.CodeStateConflict, op, "version "+domain.VersionLabel(number)+" was allocated concurrently", nil)
	}
	return latest, nil
}
