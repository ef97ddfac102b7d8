package repos

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/interview-brief-backend/internal/domain"
)

// MapError maps persistence failures onto domain error codes. Errors that
// already carry a code pass through.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.Wrap(domain.CodeNotFound, op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.Wrap(domain.CodeStateConflict, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.Wrap(domain.CodeUpstreamDependency, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return domain.Wrap(domain.CodeStateConflict, op, err) // unique_violation
		case "23503":
			return domain.Wrap(domain.CodeValidation, op, err) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return domain.Wrap(domain.CodeUpstreamDependency, op, err) // serialization/deadlock/lock_not_available
		}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.Wrap(domain.CodeStateConflict, op, err)
	}
	return domain.Wrap(domain.CodeInternal, op, err)
}
