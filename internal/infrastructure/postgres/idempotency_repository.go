package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.IdempotencyRepository = (*IdempotencyRepo)(nil)

// IdempotencyRepo claves de idempotencia sobre PostgreSQL (dentro de la tx del movimiento).
type IdempotencyRepo struct {
	q Querier
}

// NewIdempotencyRepository construye el adaptador.
func NewIdempotencyRepository(q Querier) *IdempotencyRepo {
	return &IdempotencyRepo{q: q}
}

// Get devuelve el registro o nil si la clave no se ha usado.
func (r *IdempotencyRepo) Get(ctx context.Context, companyID, key string) (*repository.IdempotencyRecord, error) {
	query := `
		SELECT company_id, idem_key, fingerprint, entry_ids, created_at
		FROM movement_idempotency WHERE company_id = $1 AND idem_key = $2`
	var rec repository.IdempotencyRecord
	err := r.q.QueryRow(ctx, query, companyID, key).Scan(
		&rec.CompanyID, &rec.Key, &rec.Fingerprint, &rec.EntryIDs, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classifyError("get idempotency", err)
	}
	return &rec, nil
}

// Save inserta la clave. Una clave ya usada por otra tx concurrente → ErrConcurrencyConflict,
// el reintento la encontrará y reproducirá el resultado.
func (r *IdempotencyRepo) Save(ctx context.Context, rec *repository.IdempotencyRecord) error {
	query := `
		INSERT INTO movement_idempotency (company_id, idem_key, fingerprint, entry_ids, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, rec.CompanyID, rec.Key, rec.Fingerprint, rec.EntryIDs, rec.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConcurrencyConflict
		}
		return classifyError("save idempotency", err)
	}
	return nil
}
