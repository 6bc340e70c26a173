package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product es la vista de solo lectura del catálogo externo que necesita el ledger.
// Solo los productos con ManageStock admiten movimientos.
type Product struct {
	ID          string
	CompanyID   string
	SKU         string
	Name        string
	ManageStock bool
	MinStock    *decimal.Decimal // umbral de stock bajo (nil = sin umbral)
	MaxStock    *decimal.Decimal // informativo
	Cost        decimal.Decimal  // costo unitario
	Price       decimal.Decimal  // precio de venta
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
