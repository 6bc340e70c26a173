package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// classifyError traduce errores de PostgreSQL a errores de dominio reintentables.
// op describe la operación para el mensaje.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03": // lock_not_available
			return fmt.Errorf("%s: %w: %w", op, domain.ErrConcurrencyConflict, err)
		case "57014": // query_canceled (statement_timeout)
			return fmt.Errorf("%s: %w: %w", op, domain.ErrTransient, err)
		case "22003": // numeric_value_out_of_range
			return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidQuantity, err)
		}
		if strings.HasPrefix(pgErr.Code, "08") { // connection_exception
			return fmt.Errorf("%s: %w: %w", op, domain.ErrTransient, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func formatMillis(ms int64) string {
	return strconv.FormatInt(ms, 10) + "ms"
}
