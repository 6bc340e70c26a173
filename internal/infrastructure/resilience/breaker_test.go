package resilience_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/resilience"
)

type stubRunner struct {
	err   error
	calls int
}

func (s *stubRunner) Run(_ context.Context, _ func(repository.MovementRepository, repository.StockRepository, repository.IdempotencyRepository, repository.OutboxRepository) error) error {
	s.calls++
	return s.err
}

func noop(repository.MovementRepository, repository.StockRepository, repository.IdempotencyRepository, repository.OutboxRepository) error {
	return nil
}

func testConfig() resilience.BreakerConfig {
	cfg := resilience.DefaultBreakerConfig()
	cfg.FailureThreshold = 2
	cfg.Timeout = 50 * time.Millisecond
	return cfg
}

func TestBreaker_AbreTrasFallosTransitorios(t *testing.T) {
	stub := &stubRunner{err: domain.ErrTransient}
	b := resilience.NewBreakerTxRunner(stub, testConfig(), zerolog.Nop())
	ctx := context.Background()

	require.ErrorIs(t, b.Run(ctx, noop), domain.ErrTransient)
	require.ErrorIs(t, b.Run(ctx, noop), domain.ErrTransient)
	assert.Equal(t, gobreaker.StateOpen, b.State())

	err := b.Run(ctx, noop)
	require.ErrorIs(t, err, domain.ErrTransient)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, stub.calls, "con el circuito abierto no se llega al almacenamiento")

	stub.err = nil
	assert.Eventually(t, func() bool { return b.Run(ctx, noop) == nil }, time.Second, 10*time.Millisecond)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_ErroresDeNegocioNoAbren(t *testing.T) {
	stub := &stubRunner{err: domain.ErrInsufficientStock}
	b := resilience.NewBreakerTxRunner(stub, testConfig(), zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, b.Run(ctx, noop), domain.ErrInsufficientStock)
	}
	stub.err = domain.ErrConcurrencyConflict
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, b.Run(ctx, noop), domain.ErrConcurrencyConflict)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, 10, stub.calls)
}
