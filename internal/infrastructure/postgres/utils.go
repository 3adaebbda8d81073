package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// SQLSTATE relevantes.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// classify traduce errores del driver a los tipos del dominio:
// serialización/deadlock -> ErrTransactionConflict (reintentable), resto -> ErrStorageFailure.
// Los errores de dominio y de contexto se devuelven tal cual.
func classify(err error) error {
	if err == nil || domain.IsDomainError(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %w", domain.ErrTransactionConflict, err)
		case codeCheckViolation:
			// chk_products_stock_non_negative: el motor valida antes, pero la BD es la última barrera
			if pgErr.ConstraintName == "chk_products_stock_non_negative" {
				return fmt.Errorf("%w: %w", domain.ErrNegativeStock, err)
			}
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
}
