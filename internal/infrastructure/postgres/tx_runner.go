package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Ensure TxRunner implements inventory.TxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. lockTimeout > 0 fija SET LOCAL lock_timeout,
// así una espera larga por una fila bloqueada termina como error reintentable.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	idemRepo repository.IdempotencyRepository,
	outboxRepo repository.OutboxRepository,
) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return classifyError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeout > 0 {
		ms := r.lockTimeout.Milliseconds()
		if _, err := tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)", formatMillis(ms)); err != nil {
			return classifyError("set lock_timeout", err)
		}
	}

	movRepo := NewMovementRepository(tx)
	stockRepo := NewStockRepository(tx)
	idemRepo := NewIdempotencyRepository(tx)
	outboxRepo := NewOutboxRepository(tx)

	if err := fn(movRepo, stockRepo, idemRepo, outboxRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return classifyError("commit transaction", err)
	}
	return nil
}
