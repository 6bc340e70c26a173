package dto

import "github.com/shopspring/decimal"

// StockSummaryDTO respuesta de GET /api/inventory/summary.
type StockSummaryDTO struct {
	Products []StockSummaryItemDTO `json:"products"`
	Totals   StockTotalsDTO        `json:"totals"`
}

// StockSummaryItemDTO stock agregado de un producto (todas las ubicaciones o la filtrada).
type StockSummaryItemDTO struct {
	ProductID  string           `json:"product_id"`
	SKU        string           `json:"sku"`
	Name       string           `json:"name"`
	Quantity   decimal.Decimal  `json:"quantity"`
	MinStock   *decimal.Decimal `json:"min_stock,omitempty"`
	MaxStock   *decimal.Decimal `json:"max_stock,omitempty"`
	Status     string           `json:"status"`
	UnitCost   decimal.Decimal  `json:"unit_cost"`
	Price      decimal.Decimal  `json:"price"`
	StockValue decimal.Decimal  `json:"stock_value"` // Quantity * UnitCost
	SaleValue  decimal.Decimal  `json:"sale_value"`  // Quantity * Price
}

// StockTotalsDTO totales del resumen.
type StockTotalsDTO struct {
	TotalProducts   int             `json:"total_products"`
	TotalStockValue decimal.Decimal `json:"total_stock_value"`
	TotalSaleValue  decimal.Decimal `json:"total_sale_value"`
	LowStockCount   int             `json:"low_stock_count"`
	OutOfStockCount int             `json:"out_of_stock_count"`
}
