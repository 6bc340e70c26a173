package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*BreakerTxRunner)(nil)

// BreakerConfig umbrales del circuit breaker de almacenamiento.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // solicitudes permitidas en half-open
	Interval         time.Duration // ventana para limpiar conteos en closed (0 = nunca)
	Timeout          time.Duration // tiempo en open antes de pasar a half-open
	FailureThreshold uint32        // fallos transitorios consecutivos para abrir
}

// DefaultBreakerConfig valores por defecto.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "stock-storage",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerTxRunner decora un TxRunner con un circuit breaker. Solo los errores transitorios
// cuentan como fallo: stock insuficiente o validaciones no abren el circuito. Con el circuito
// abierto las transacciones fallan de inmediato con domain.ErrTransient.
type BreakerTxRunner struct {
	next inventory.TxRunner
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerTxRunner construye el decorador.
func NewBreakerTxRunner(next inventory.TxRunner, cfg BreakerConfig, log zerolog.Logger) *BreakerTxRunner {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, domain.ErrTransient)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("cambio de estado del circuit breaker")
		},
	}
	return &BreakerTxRunner{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// State estado actual del circuito.
func (b *BreakerTxRunner) State() gobreaker.State {
	return b.cb.State()
}

// Run ejecuta la transacción a través del circuit breaker.
func (b *BreakerTxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	idemRepo repository.IdempotencyRepository,
	outboxRepo repository.OutboxRepository,
) error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Run(ctx, fn)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", domain.ErrTransient, err)
	}
	return err
}
