package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/events"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

type fakePublisher struct {
	published []string
	failOn    map[string]error
}

func (f *fakePublisher) Publish(_ context.Context, ev *entity.OutboxEvent) error {
	if err := f.failOn[ev.ID]; err != nil {
		return err
	}
	f.published = append(f.published, ev.ID)
	return nil
}

type fakeGauge struct {
	pending []int
	ok, ko  int
}

func (g *fakeGauge) SetOutboxPending(n int) { g.pending = append(g.pending, n) }
func (g *fakeGauge) OutboxPublished(ok bool) {
	if ok {
		g.ok++
		return
	}
	g.ko++
}

// seedOutbox aplica n entradas con eventos habilitados y devuelve el store.
func seedOutbox(t *testing.T, n int) *memory.Store {
	t.Helper()
	store := memory.NewStore(time.Second)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &entity.Location{ID: "L1", CompanyID: "c1", Code: "L1", Name: "L1", Active: true}))
	store.SaveProduct(&entity.Product{ID: "p1", CompanyID: "c1", SKU: "P1", Name: "P1", ManageStock: true})

	cfg := inventory.DefaultProcessorConfig()
	cfg.EmitEvents = true
	p := inventory.NewMovementProcessor(memory.NewTxRunner(store), store.Products(), store.Locations(), cfg, zerolog.Nop())
	for i := 0; i < n; i++ {
		_, err := p.Apply(ctx, inventory.EntryRequest{
			MovementMeta: inventory.MovementMeta{CompanyID: "c1", ActorID: "u1"},
			ProductID:    "p1",
			LocationID:   "L1",
			Quantity:     decimal.NewFromInt(1),
		})
		require.NoError(t, err)
	}
	return store
}

func TestRelay_PublicaEnOrdenYMarca(t *testing.T) {
	store := seedOutbox(t, 3)
	ctx := context.Background()
	pending, err := store.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	pub := &fakePublisher{}
	gauge := &fakeGauge{}
	relay := events.NewRelay(store, pub, events.RelayConfig{BatchSize: 10}, zerolog.Nop(), gauge)

	n, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{pending[0].ID, pending[1].ID, pending[2].ID}, pub.published)
	assert.Equal(t, []int{3}, gauge.pending)
	assert.Equal(t, 3, gauge.ok)

	rest, err := store.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, rest)

	n, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelay_FalloDetieneElLoteYReintenta(t *testing.T) {
	store := seedOutbox(t, 3)
	ctx := context.Background()
	pending, err := store.ListPending(ctx, 10)
	require.NoError(t, err)

	pub := &fakePublisher{failOn: map[string]error{pending[1].ID: errors.New("broker caído")}}
	gauge := &fakeGauge{}
	relay := events.NewRelay(store, pub, events.RelayConfig{BatchSize: 10}, zerolog.Nop(), gauge)

	n, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{pending[0].ID}, pub.published, "el tercero no se adelanta al segundo")
	assert.Equal(t, 1, gauge.ko)

	rest, err := store.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, pending[1].ID, rest[0].ID)
	assert.Equal(t, 1, rest[0].Attempts)
	assert.Equal(t, "broker caído", rest[0].LastError)

	delete(pub.failOn, pending[1].ID)
	n, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRelay_RunTerminaAlCancelar(t *testing.T) {
	store := seedOutbox(t, 1)
	pub := &fakePublisher{}
	relay := events.NewRelay(store, pub, events.RelayConfig{PollInterval: 5 * time.Millisecond}, zerolog.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		rest, _ := store.ListPending(context.Background(), 10)
		return len(rest) == 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run no terminó tras cancelar el contexto")
	}
}
