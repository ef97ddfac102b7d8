package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/interview-brief-backend/internal/data/repos/sessions"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

type SessionRepo = sessions.SessionRepo
type VersionRepo = sessions.VersionRepo
type CorrectionRepo = sessions.CorrectionRepo
type ConsentRepo = sessions.ConsentRepo
type AuditRepo = sessions.AuditRepo
type InsightsRepo = sessions.InsightsRepo

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return sessions.NewSessionRepo(db, baseLog)
}
func NewVersionRepo(db *gorm.DB, baseLog *logger.Logger) VersionRepo {
	return sessions.NewVersionRepo(db, baseLog)
}
func NewCorrectionRepo(db *gorm.DB, baseLog *logger.Logger) CorrectionRepo {
	return sessions.NewCorrectionRepo(db, baseLog)
}
func NewConsentRepo(db *gorm.DB, baseLog *logger.Logger) ConsentRepo {
	return sessions.NewConsentRepo(db, baseLog)
}
func NewAuditRepo(db *gorm.DB, baseLog *logger.Logger) AuditRepo {
	return sessions.NewAuditRepo(db, baseLog)
}
func NewInsightsRepo(db *gorm.DB, baseLog *logger.Logger) InsightsRepo {
	return sessions.NewInsightsRepo(db, baseLog)
}
