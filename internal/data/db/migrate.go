package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/interview-brief-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Session{},
		&domain.Version{},
		&domain.Correction{},
		&domain.ConsentRecord{},
		&domain.AuditEvent{},
		&domain.CompanyInsights{},
	)
}

// EnsureIndexes adds Postgres-only indexes that gorm tags cannot express.
func EnsureIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sessions_interviewer_created
		ON sessions(interviewer_id, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_sessions_interviewer_created: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_audit_events_resource_ts
		ON audit_events(resource_id, timestamp);
	`).Error; err != nil {
		return fmt.Errorf("create idx_audit_events_resource_ts: %w", err)
	}
	return nil
}

// Migrate runs AutoMigrateAll and, on Postgres, EnsureIndexes.
func (s *Service) Migrate() error {
	if err := AutoMigrateAll(s.db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if s.IsPostgres() {
		return EnsureIndexes(s.db)
	}
	return nil
}
