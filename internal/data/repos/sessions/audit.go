package sessions

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/pkg/dbctx"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

type AuditRepo interface {
	Append(dbc dbctx.Context, ev *domain.AuditEvent) error
	ListByResource(dbc dbctx.Context, resourceID string) ([]*domain.AuditEvent, error)
	DeleteExpired(dbc dbctx.Context, cutoff time.Time) (int64, error)
}

type auditRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditRepo(db *gorm.DB, baseLog *logger.Logger) AuditRepo {
	return &auditRepo{db: db, log: baseLog.With("repo", "AuditRepo")}
}

func (r *auditRepo) Append(dbc dbctx.Context, ev *domain.AuditEvent) error {
	if ev == nil {
		return nil
	}
	return dbc.On(r.db).Create(ev).Error
}

func (r *auditRepo) ListByResource(dbc dbctx.Context, resourceID string) ([]*domain.AuditEvent, error) {
	var out []*domain.AuditEvent
	if err := dbc.On(r.db).
		Where("resource_id = ?", resourceID).
		Order("timestamp ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteExpired removes events whose expiry is before cutoff.
func (r *auditRepo) DeleteExpired(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	res := dbc.On(r.db).Where("expires_at < ?", cutoff.UTC()).Delete(&domain.AuditEvent{})
	return res.RowsAffected, res.Error
}
