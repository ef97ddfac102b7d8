package repos

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/pkg/dbctx"
	"github.com/yungbote/interview-brief-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// RecordStore is the keyed record store behind the brief lifecycle. Every
// method maps persistence failures through MapError.
type RecordStore interface {
	PutSession(ctx context.Context, s *domain.Session) error
	// GetSession returns a not_found error when id is unknown.
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	// UpdateStatus moves the session from -> to, writing fields alongside.
	// A row no longer at from yields a state_conflict error.
	UpdateStatus(ctx context.Context, id string, from, to domain.SessionStatus, fields map[string]any) error
	ListByOwner(ctx context.Context, interviewerID string) ([]*domain.Session, error)
	CountCreatedSince(ctx context.Context, interviewerID string, since time.Time) (int64, error)

	PutVersion(ctx context.Context, v *domain.Version) error
	GetLatestVersion(ctx context.Context, sessionID string, kind domain.VersionKind) (*domain.Version, bool, error)

	PutCorrection(ctx context.Context, rows []*domain.Correction) error
	ListCorrections(ctx context.Context, sessionID string) ([]*domain.Correction, error)

	PutConsent(ctx context.Context, rec *domain.ConsentRecord) error
	GetConsent(ctx context.Context, email, sessionID string) (*domain.ConsentRecord, bool, error)

	AppendAudit(ctx context.Context, ev *domain.AuditEvent) error
	ListAudit(ctx context.Context, resourceID string) ([]*domain.AuditEvent, error)
	PurgeAuditBefore(ctx context.Context, cutoff time.Time) (int64, error)

	UpsertCompanyInsights(ctx context.Context, ci *domain.CompanyInsights) error
	GetCompanyInsights(ctx context.Context, companyName string) (*domain.CompanyInsights, bool, error)

	// InTx runs fn against a store bound to one transaction. fn must only use
	// the store it is handed.
	InTx(ctx context.Context, fn func(tx RecordStore) error) error
}

type gormStore struct {
	db  *gorm.DB
	tx  *gorm.DB
	log *logger.Logger

	sessions    SessionRepo
	versions    VersionRepo
	corrections CorrectionRepo
	consent     ConsentRepo
	audit       AuditRepo
	insights    InsightsRepo
}

func NewRecordStore(db *gorm.DB, baseLog *logger.Logger) RecordStore {
	return &gormStore{
		db:          db,
		log:         baseLog.With("repo", "RecordStore"),
		sessions:    NewSessionRepo(db, baseLog),
		versions:    NewVersionRepo(db, baseLog),
		corrections: NewCorrectionRepo(db, baseLog),
		consent:     NewConsentRepo(db, baseLog),
		audit:       NewAuditRepo(db, baseLog),
		insights:    NewInsightsRepo(db, baseLog),
	}
}

func (s *gormStore) dbc(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: s.tx}
}

func (s *gormStore) PutSession(ctx context.Context, sess *domain.Session) error {
	if sess == nil {
		return domain.ValidationError("put_session", "session required")
	}
	return MapError("put_session", s.sessions.Create(s.dbc(ctx), sess))
}

func (s *gormStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.sessions.GetByID(s.dbc(ctx), id)
	if err != nil {
		return nil, MapError("get_session", err)
	}
	if sess == nil {
		return nil, domain.NotFoundError("get_session", "session not found")
	}
	return sess, nil
}

func (s *gormStore) UpdateStatus(ctx context.Context, id string, from, to domain.SessionStatus, fields map[string]any) error {
	ok, err := s.sessions.UpdateStatus(s.dbc(ctx), id, from, to, fields)
	if err != nil {
		return MapError("update_status", err)
	}
	if !ok {
		return domain.NewError(domain.CodeStateConflict, "update_status",
			"session status changed concurrently (expected "+string(from)+")", nil)
	}
	return nil
}

func (s *gormStore) ListByOwner(ctx context.Context, interviewerID string) ([]*domain.Session, error) {
	out, err := s.sessions.ListByInterviewer(s.dbc(ctx), interviewerID)
	if err != nil {
		return nil, MapError("list_sessions", err)
	}
	if out == nil {
		out = []*domain.Session{}
	}
	return out, nil
}

func (s *gormStore) CountCreatedSince(ctx context.Context, interviewerID string, since time.Time) (int64, error) {
	n, err := s.sessions.CountCreatedSince(s.dbc(ctx), interviewerID, since)
	return n, MapError("count_sessions", err)
}

func (s *gormStore) PutVersion(ctx context.Context, v *domain.Version) error {
	if v == nil || v.Number < 1 {
		return domain.ValidationError("put_version", "version number must be >= 1")
	}
	return MapError("put_version", s.versions.Create(s.dbc(ctx), v))
}

func (s *gormStore) GetLatestVersion(ctx context.Context, sessionID string, kind domain.VersionKind) (*domain.Version, bool, error) {
	v, err := s.versions.GetLatest(s.dbc(ctx), sessionID, kind)
	if err != nil {
		return nil, false, MapError("get_latest_version", err)
	}
	return v, v != nil, nil
}

func (s *gormStore) PutCorrection(ctx context.Context, rows []*domain.Correction) error {
	return MapError("put_correction", s.corrections.Create(s.dbc(ctx), rows))
}

func (s *gormStore) ListCorrections(ctx context.Context, sessionID string) ([]*domain.Correction, error) {
	out, err := s.corrections.ListBySession(s.dbc(ctx), sessionID)
	if err != nil {
		return nil, MapError("list_corrections", err)
	}
	if out == nil {
		out = []*domain.Correction{}
	}
	return out, nil
}

func (s *gormStore) PutConsent(ctx context.Context, rec *domain.ConsentRecord) error {
	return MapError("put_consent", s.consent.Upsert(s.dbc(ctx), rec))
}

func (s *gormStore) GetConsent(ctx context.Context, email, sessionID string) (*domain.ConsentRecord, bool, error) {
	rec, err := s.consent.Get(s.dbc(ctx), email, sessionID)
	if err != nil {
		return nil, false, MapError("get_consent", err)
	}
	return rec, rec != nil, nil
}

func (s *gormStore) AppendAudit(ctx context.Context, ev *domain.AuditEvent) error {
	return MapError("append_audit", s.audit.Append(s.dbc(ctx), ev))
}

func (s *gormStore) ListAudit(ctx context.Context, resourceID string) ([]*domain.AuditEvent, error) {
	out, err := s.audit.ListByResource(s.dbc(ctx), resourceID)
	if err != nil {
		return nil, MapError("list_audit", err)
	}
	return out, nil
}

func (s *gormStore) PurgeAuditBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.audit.DeleteExpired(s.dbc(ctx), cutoff)
	return n, MapError("purge_audit", err)
}

func (s *gormStore) UpsertCompanyInsights(ctx context.Context, ci *domain.CompanyInsights) error {
	if ci == nil || ci.CompanyName == "" {
		return domain.ValidationError("upsert_company_insights", "company name required")
	}
	return MapError("upsert_company_insights", s.insights.Upsert(s.dbc(ctx), ci))
}

func (s *gormStore) GetCompanyInsights(ctx context.Context, companyName string) (*domain.CompanyInsights, bool, error) {
	ci, err := s.insights.Get(s.dbc(ctx), companyName)
	if err != nil {
		return nil, false, MapError("get_company_insights", err)
	}
	return ci, ci != nil, nil
}

func (s *gormStore) InTx(ctx context.Context, fn func(tx RecordStore) error) error {
	if s.tx != nil {
		return fn(s)
	}
	return s.db.WithContext(ctxutil.Default(ctx)).Transaction(func(tx *gorm.DB) error {
		bound := *s
		bound.tx = tx
		return fn(&bound)
	})
}
