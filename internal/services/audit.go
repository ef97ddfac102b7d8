package services

import (
	"context"
	"time"

	"github.com/yungbote/interview-brief-backend/internal/data/repos"
	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// AuditEntry is one state-changing action to record.
type AuditEntry struct {
	ActorID    string
	Action     string
	ResourceID string
	Sources    []string
	ConsentRef string
	Metadata   map[string]any
}

// AuditTrail appends audit events. Record takes the store to write through so
// the event commits in the same transaction as the change it describes.
type AuditTrail interface {
	Record(ctx context.Context, store repos.RecordStore, e AuditEntry) error
	List(ctx context.Context, resourceID string) ([]*domain.AuditEvent, error)
}

type auditTrail struct {
	store repos.RecordStore
	log   *logger.Logger
	now   func() time.Time
}

func NewAuditTrail(store repos.RecordStore, baseLog *logger.Logger) AuditTrail {
	return &auditTrail{
		store: store,
		log:   baseLog.With("service", "AuditTrail"),
		now:   time.Now,
	}
}

func (a *auditTrail) Record(ctx context.Context, store repos.RecordStore, e AuditEntry) error {
	if store == nil {
		store = a.store
	}
	ev := domain.NewAuditEvent(a.now(), e.ActorID, e.Action, e.ResourceID)
	ev.Sources = domain.JSONStrings(e.Sources)
	ev.ConsentRef = e.ConsentRef
	if len(e.Metadata) > 0 {
		ev.Metadata = domain.JSONValue(e.Metadata)
	}
	if err := store.AppendAudit(ctx, ev); err != nil {
		a.log.Error("Audit append failed", "action", e.Action, "session_id", e.ResourceID, "error", err)
		return err
	}
	a.log.Debug("Audit recorded", "action", e.Action, "session_id", e.ResourceID, "event_id", ev.EventID)
	return nil
}

func (a *auditTrail) List(ctx context.Context, resourceID string) ([]*domain.AuditEvent, error) {
	return a.store.ListAudit(ctx, resourceID)
}
