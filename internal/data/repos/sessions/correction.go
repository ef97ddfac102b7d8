package sessions

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/pkg/dbctx"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

type CorrectionRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Correction) error
	ListBySession(dbc dbctx.Context, sessionID string) ([]*domain.Correction, error)
	CountBySession(dbc dbctx.Context, sessionID string) (int64, error)
}

type correctionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCorrectionRepo(db *gorm.DB, baseLog *logger.Logger) CorrectionRepo {
	return &correctionRepo{db: db, log: baseLog.With("repo", "CorrectionRepo")}
}

func (r *correctionRepo) Create(dbc dbctx.Context, rows []*domain.Correction) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, c := range rows {
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if c.CorrectionType == "" {
			c.CorrectionType = domain.DefaultCorrectionType
		}
	}
	return dbc.On(r.db).Create(&rows).Error
}

func (r *correctionRepo) ListBySession(dbc dbctx.Context, sessionID string) ([]*domain.Correction, error) {
	var out []*domain.Correction
	if err := dbc.On(r.db).
		Where("session_id = ?", sessionID).
		Order("idx ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *correctionRepo) CountBySession(dbc dbctx.Context, sessionID string) (int64, error) {
	var n int64
	err := dbc.On(r.db).Model(&domain.Correction{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n, err
}
