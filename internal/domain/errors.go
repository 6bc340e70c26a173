package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio.
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")

	// Errores de validación del motor de movimientos (terminales, sin reintento).
	ErrProductNotFound        = errors.New("producto no encontrado")
	ErrProductNotStockManaged = errors.New("el producto no maneja inventario")
	ErrInvalidLocation        = errors.New("ubicación inválida o inactiva")
	ErrInvalidQuantity        = errors.New("cantidad inválida")
	ErrInvalidMovement        = errors.New("movimiento inválido")
	ErrIdempotencyMismatch    = errors.New("la clave de idempotencia ya fue usada con otros datos")

	// Regla de negocio.
	ErrInsufficientStock = errors.New("stock insuficiente")

	// Errores transitorios: se reintentan localmente antes de llegar al caller.
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia sobre el registro de stock")
	ErrTransient           = errors.New("almacenamiento no disponible temporalmente")
)

// InsufficientStockError detalla un rechazo por stock insuficiente con la cantidad disponible,
// para que el caller pueda informar al usuario. errors.Is(err, ErrInsufficientStock) es true.
type InsufficientStockError struct {
	ProductID  string
	LocationID string
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: producto %s en ubicación %s (disponible %s, solicitado %s)",
		ErrInsufficientStock, e.ProductID, e.LocationID, e.Available.String(), e.Requested.String())
}

// Is permite comparar contra ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// IsRetryable indica si el error es de concurrencia o transitorio de persistencia.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict) || errors.Is(err, ErrTransient)
}
