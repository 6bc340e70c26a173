package inventory

import (
	"errors"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Códigos estables de rechazo, usados en respuestas HTTP y métricas.
const (
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeProductNotStockManaged = "PRODUCT_NOT_STOCK_MANAGED"
	CodeProductNotFound        = "PRODUCT_NOT_FOUND"
	CodeInvalidLocation        = "INVALID_LOCATION"
	CodeInvalidQuantity        = "INVALID_QUANTITY"
	CodeInvalidMovement        = "INVALID_MOVEMENT"
	CodeIdempotencyMismatch    = "IDEMPOTENCY_MISMATCH"
	CodeTransient              = "TRANSIENT"
	CodeInternal               = "INTERNAL"
)

// ErrorCode clasifica un error del procesador en su código estable.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return CodeInsufficientStock
	case errors.Is(err, domain.ErrProductNotStockManaged):
		return CodeProductNotStockManaged
	case errors.Is(err, domain.ErrProductNotFound):
		return CodeProductNotFound
	case errors.Is(err, domain.ErrInvalidLocation):
		return CodeInvalidLocation
	case errors.Is(err, domain.ErrInvalidQuantity):
		return CodeInvalidQuantity
	case errors.Is(err, domain.ErrInvalidMovement):
		return CodeInvalidMovement
	case errors.Is(err, domain.ErrIdempotencyMismatch):
		return CodeIdempotencyMismatch
	case domain.IsRetryable(err):
		return CodeTransient
	}
	return CodeInternal
}
