package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.OutboxRepository = (*OutboxRepo)(nil)
	_ repository.OutboxStore      = (*OutboxRepo)(nil)
)

// OutboxRepo tabla stock_outbox. Enqueue se usa con la tx del movimiento; el resto con el pool.
type OutboxRepo struct {
	q Querier
}

// NewOutboxRepository construye el adaptador.
func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

// Enqueue guarda el evento como pendiente.
func (r *OutboxRepo) Enqueue(ctx context.Context, ev *entity.OutboxEvent) error {
	query := `
		INSERT INTO stock_outbox (id, company_id, aggregate_key, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, ev.ID, ev.CompanyID, ev.AggregateKey, ev.EventType, ev.Payload, ev.CreatedAt)
	if err != nil {
		return classifyError("enqueue outbox", err)
	}
	return nil
}

// ListPending devuelve eventos sin publicar en orden de creación.
func (r *OutboxRepo) ListPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	query := `
		SELECT id, company_id, aggregate_key, event_type, payload, created_at, published_at, attempts, COALESCE(last_error, '')
		FROM stock_outbox WHERE published_at IS NULL
		ORDER BY created_at, id LIMIT $1`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, classifyError("list outbox", err)
	}
	defer rows.Close()
	var list []*entity.OutboxEvent
	for rows.Next() {
		var ev entity.OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.CompanyID, &ev.AggregateKey, &ev.EventType, &ev.Payload,
			&ev.CreatedAt, &ev.PublishedAt, &ev.Attempts, &ev.LastError); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		list = append(list, &ev)
	}
	return list, rows.Err()
}

// MarkPublished marca el evento como publicado.
func (r *OutboxRepo) MarkPublished(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE stock_outbox SET published_at = $2, attempts = attempts + 1 WHERE id = $1`, id, at)
	if err != nil {
		return classifyError("mark published", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkFailed registra el intento fallido; el evento sigue pendiente.
func (r *OutboxRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE stock_outbox SET attempts = attempts + 1, last_error = $2 WHERE id = $1`, id, reason)
	if err != nil {
		return classifyError("mark failed", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
