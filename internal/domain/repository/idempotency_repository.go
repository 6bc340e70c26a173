package repository

import (
	"context"
	"time"
)

// IdempotencyRecord resultado de una solicitud ya aplicada con una clave de idempotencia.
type IdempotencyRecord struct {
	CompanyID   string
	Key         string
	Fingerprint string   // hash de la solicitud original
	EntryIDs    []string // movimientos creados, en orden
	CreatedAt   time.Time
}

// IdempotencyRepository guarda claves de idempotencia dentro de la transacción del movimiento.
type IdempotencyRepository interface {
	Get(ctx context.Context, companyID, key string) (*IdempotencyRecord, error)
	// Save falla con domain.ErrConcurrencyConflict si la clave ya existe.
	Save(ctx context.Context, record *IdempotencyRecord) error
}
