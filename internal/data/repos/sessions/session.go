package sessions

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/pkg/dbctx"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

type SessionRepo interface {
	Create(dbc dbctx.Context, s *domain.Session) error
	GetByID(dbc dbctx.Context, id string) (*domain.Session, error)
	ListByInterviewer(dbc dbctx.Context, interviewerID string) ([]*domain.Session, error)
	// UpdateStatus writes to and fields only while the row is still at from.
	// It reports whether a row was updated.
	UpdateStatus(dbc dbctx.Context, id string, from, to domain.SessionStatus, fields map[string]any) (bool, error)
	CountCreatedSince(dbc dbctx.Context, interviewerID string, since time.Time) (int64, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) Create(dbc dbctx.Context, s *domain.Session) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	return dbc.On(r.db).Create(s).Error
}

// GetByID returns (nil, nil) when no session has id.
func (r *sessionRepo) GetByID(dbc dbctx.Context, id string) (*domain.Session, error) {
	var out domain.Session
	err := dbc.On(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *sessionRepo) ListByInterviewer(dbc dbctx.Context, interviewerID string) ([]*domain.Session, error) {
	var out []*domain.Session
	if err := dbc.On(r.db).
		Where("interviewer_id = ?", interviewerID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) UpdateStatus(dbc dbctx.Context, id string, from, to domain.SessionStatus, fields map[string]any) (bool, error) {
	updates := map[string]any{}
	for k, v := range fields {
		updates[k] = v
	}
	updates["status"] = to
	updates["updated_at"] = time.Now().UTC()

	res := dbc.On(r.db).
		Model(&domain.Session{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepo) CountCreatedSince(dbc dbctx.Context, interviewerID string, since time.Time) (int64, error) {
	var n int64
	err := dbc.On(r.db).
		Model(&domain.Session{}).
		Where("interviewer_id = ? AND created_at >= ?", interviewerID, since.UTC()).
		Count(&n).Error
	return n, err
}
