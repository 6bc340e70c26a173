package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// OutboxRepository encola eventos en la misma transacción del movimiento.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event *entity.OutboxEvent) error
}

// OutboxStore lado del relay: lee pendientes y marca el resultado de la publicación.
type OutboxStore interface {
	ListPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string) error
}
