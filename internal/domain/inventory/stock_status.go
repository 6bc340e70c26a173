package inventory

import (
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ClassifyStock clasifica la salud del stock. Solo el mínimo define LOW_STOCK;
// el máximo del catálogo es informativo y no participa.
func ClassifyStock(quantity decimal.Decimal, minStock, _ *decimal.Decimal) entity.StockStatus {
	if quantity.IsZero() {
		return entity.StockStatusOutOfStock
	}
	if minStock != nil && quantity.LessThanOrEqual(*minStock) {
		return entity.StockStatusLow
	}
	return entity.StockStatusNormal
}
