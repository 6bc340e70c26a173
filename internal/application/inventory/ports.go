package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y ningún cambio queda visible.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
		idemRepo repository.IdempotencyRepository,
		outboxRepo repository.OutboxRepository,
	) error) error
}

// Recorder recibe métricas del procesador. Lo implementa *metrics.Metrics.
type Recorder interface {
	MovementApplied(t entity.MovementType, elapsed time.Duration)
	MovementRejected(code string)
	ApplyRetried()
}

type nopRecorder struct{}

func (nopRecorder) MovementApplied(entity.MovementType, time.Duration) {}
func (nopRecorder) MovementRejected(string)                            {}
func (nopRecorder) ApplyRetried()                                      {}
