package sessions

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/pkg/dbctx"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

type ConsentRepo interface {
	// Upsert inserts rec or refreshes the existing (email, session) row.
	Upsert(dbc dbctx.Context, rec *domain.ConsentRecord) error
	Get(dbc dbctx.Context, email, sessionID string) (*domain.ConsentRecord, error)
}

type consentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConsentRepo(db *gorm.DB, baseLog *logger.Logger) ConsentRepo {
	return &consentRepo{db: db, log: baseLog.With("repo", "ConsentRepo")}
}

func (r *consentRepo) Upsert(dbc dbctx.Context, rec *domain.ConsentRecord) error {
	if rec == nil {
		return nil
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	return dbc.On(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}, {Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"consent_type", "scope", "delivery_method", "recorded_at"}),
	}).Create(rec).Error
}

func (r *consentRepo) Get(dbc dbctx.Context, email, sessionID string) (*domain.ConsentRecord, error) {
	var out []*domain.ConsentRecord
	if err := dbc.On(r.db).
		Where("email = ? AND session_id = ?", email, sessionID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
