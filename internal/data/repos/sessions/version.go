package sessions

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/pkg/dbctx"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

type VersionRepo interface {
	Create(dbc dbctx.Context, v *domain.Version) error
	GetLatest(dbc dbctx.Context, sessionID string, kind domain.VersionKind) (*domain.Version, error)
	ListBySession(dbc dbctx.Context, sessionID string, kind domain.VersionKind) ([]*domain.Version, error)
}

type versionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVersionRepo(db *gorm.DB, baseLog *logger.Logger) VersionRepo {
	return &versionRepo{db: db, log: baseLog.With("repo", "VersionRepo")}
}

func (r *versionRepo) Create(dbc dbctx.Context, v *domain.Version) error {
	if v == nil {
		return nil
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	if len(v.Sources) == 0 {
		v.Sources = domain.JSONStrings(nil)
	}
	return dbc.On(r.db).Create(v).Error
}

// GetLatest returns (nil, nil) when the session has no version of kind.
func (r *versionRepo) GetLatest(dbc dbctx.Context, sessionID string, kind domain.VersionKind) (*domain.Version, error) {
	var out domain.Version
	err := dbc.On(r.db).
		Where("session_id = ? AND kind = ?", sessionID, kind).
		Order("number DESC").
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *versionRepo) ListBySession(dbc dbctx.Context, sessionID string, kind domain.VersionKind) ([]*domain.Version, error) {
	var out []*domain.Version
	if err := dbc.On(r.db).
		Where("session_id = ? AND kind = ?", sessionID, kind).
		Order("number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
