package sessions

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/pkg/dbctx"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

type InsightsRepo interface {
	// Upsert replaces the company's row wholesale; the latest synthesis wins.
	Upsert(dbc dbctx.Context, ci *domain.CompanyInsights) error
	Get(dbc dbctx.Context, companyName string) (*domain.CompanyInsights, error)
}

type insightsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInsightsRepo(db *gorm.DB, baseLog *logger.Logger) InsightsRepo {
	return &insightsRepo{db: db, log: baseLog.With("repo", "InsightsRepo")}
}

func (r *insightsRepo) Upsert(dbc dbctx.Context, ci *domain.CompanyInsights) error {
	if ci == nil {
		return nil
	}
	if ci.UpdatedAt.IsZero() {
		ci.UpdatedAt = time.Now().UTC()
	}
	return dbc.On(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "company_name"}},
		UpdateAll: true,
	}).Create(ci).Error
}

func (r *insightsRepo) Get(dbc dbctx.Context, companyName string) (*domain.CompanyInsights, error) {
	var out []*domain.CompanyInsights
	if err := dbc.On(r.db).Where("company_name = ?", companyName).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
