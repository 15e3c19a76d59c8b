package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/allocation-engine/internal/domain"
)

// Códigos SQLSTATE relevantes.
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateCheckViolation       = "23514"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateQueryCanceled        = "57014"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation
}

// classifyError traduce errores de PostgreSQL a errores de dominio conservando el original.
// Los errores que ya son de dominio pasan sin cambios.
func classifyError(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable, sqlStateQueryCanceled:
			return fmt.Errorf("%w: %w", domain.ErrTransient, err)
		case sqlStateUniqueViolation:
			return fmt.Errorf("%w: %w", domain.ErrDuplicate, err)
		case sqlStateForeignKeyViolation:
			return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
		case sqlStateCheckViolation:
			return fmt.Errorf("%w: %w", domain.ErrConsistency, err)
		}
		return err
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", domain.ErrTransient, err)
	}
	return err
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrInvalidInput, domain.ErrInvalidTransition, domain.ErrDuplicate,
		domain.ErrConflict, domain.ErrConsistency, domain.ErrTransient,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
