package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// location_id para ENTRY/EXIT/RETURN/LOSS/ADJUSTMENT; from/to_location_id para TRANSFER.
// En ADJUSTMENT quantity es la cantidad final deseada, no un delta.
type RegisterMovementRequest struct {
	ProductID      string           `json:"product_id" validate:"required,max=64"`
	LocationID     string           `json:"location_id,omitempty" validate:"max=64"`
	FromLocationID string           `json:"from_location_id,omitempty" validate:"max=64"`
	ToLocationID   string           `json:"to_location_id,omitempty" validate:"max=64"`
	Type           string           `json:"type" validate:"required,oneof=ENTRY EXIT ADJUSTMENT RETURN LOSS TRANSFER"`
	Quantity       *decimal.Decimal `json:"quantity" validate:"required"`
	Reason         string           `json:"reason,omitempty" validate:"max=500"`
	Reference      string           `json:"reference,omitempty" validate:"max=120"`
	DocumentID     string           `json:"document_id,omitempty" validate:"max=255"`
}

// MovementEntryResponse movimiento confirmado del ledger.
type MovementEntryResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	LocationID    string          `json:"location_id"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	PreviousStock decimal.Decimal `json:"previous_stock"`
	NewStock      decimal.Decimal `json:"new_stock"`
	Reason        string          `json:"reason,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	DocumentID    string          `json:"document_id,omitempty"`
	TransferID    string          `json:"transfer_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CreatedBy     string          `json:"created_by"`
}

// RegisterMovementResponse respuesta de POST /api/inventory/movements.
// Replayed = true cuando la clave de idempotencia ya había sido aplicada.
type RegisterMovementResponse struct {
	Entries  []MovementEntryResponse `json:"entries"`
	Replayed bool                    `json:"replayed"`
}

// MovementHistoryResponse página del historial; NextCursor vacío = no hay más.
type MovementHistoryResponse struct {
	Items      []MovementEntryResponse `json:"items"`
	NextCursor string                  `json:"next_cursor,omitempty"`
}

// StockResponse stock actual de un producto en una ubicación.
type StockResponse struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Status     string          `json:"status"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}
