//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jhoicas/stock-ledger/internal/application/events"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
)

const (
	itCompany = "company-it"
	itProduct = "product-it"
)

type LedgerIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	processor *inventory.MovementProcessor
	history   *inventory.HistoryUseCase
	summary   *inventory.SummaryUseCase
	locA      string
	locB      string
}

func TestLedgerIntegration(t *testing.T) {
	suite.Run(t, new(LedgerIntegrationSuite))
}

func (s *LedgerIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcpostgres.Run(s.ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("ledger"),
		tcpostgres.WithPassword("ledger"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.pool, err = postgres.NewPool(s.ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	s.Require().NoError(err)
	s.Require().NoError(postgres.Migrate(s.ctx, s.pool))
}

func (s *LedgerIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		s.NoError(testcontainers.TerminateContainer(s.container))
	}
}

func (s *LedgerIntegrationSuite) SetupTest() {
	// TRUNCATE no dispara el trigger append-only (es por fila).
	_, err := s.pool.Exec(s.ctx, `TRUNCATE stock_outbox, movement_idempotency, stock_movements, stock_records, products, locations`)
	s.Require().NoError(err)

	locations := postgres.NewLocationRepository(s.pool)
	now := time.Now().UTC()
	s.locA, s.locB = "location-a", "location-b"
	for id, code := range map[string]string{s.locA: "A", s.locB: "B"} {
		s.Require().NoError(locations.Create(s.ctx, &entity.Location{ID: id, CompanyID: itCompany, Code: code, Name: code, Active: true, CreatedAt: now, UpdatedAt: now}))
	}
	minStock := decimal.NewFromInt(2)
	products := postgres.NewProductRepository(s.pool)
	s.Require().NoError(products.Upsert(s.ctx, &entity.Product{
		ID: itProduct, CompanyID: itCompany, SKU: "SKU-1", Name: "Producto", ManageStock: true,
		MinStock: &minStock, Cost: decimal.NewFromInt(3), Price: decimal.NewFromInt(5),
	}))

	cfg := inventory.ProcessorConfig{MaxAttempts: 5, RetryBackoff: 5 * time.Millisecond, EmitEvents: true}
	s.processor = inventory.NewMovementProcessor(postgres.NewTxRunner(s.pool, 2*time.Second), products, locations, cfg, zerolog.Nop())
	s.history = inventory.NewHistoryUseCase(postgres.NewMovementRepository(s.pool))
	s.summary = inventory.NewSummaryUseCase(products, postgres.NewStockRepository(s.pool))
}

func (s *LedgerIntegrationSuite) meta(key string) inventory.MovementMeta {
	return inventory.MovementMeta{CompanyID: itCompany, ActorID: "tester", IdempotencyKey: key}
}

func (s *LedgerIntegrationSuite) stock(location string) decimal.Decimal {
	rec, err := postgres.NewStockRepository(s.pool).Get(s.ctx, entity.StockKey{CompanyID: itCompany, ProductID: itProduct, LocationID: location})
	s.Require().NoError(err)
	return rec.Quantity
}

func (s *LedgerIntegrationSuite) TestEscenarioCompleto() {
	_, err := s.processor.Apply(s.ctx, inventory.EntryRequest{MovementMeta: s.meta(""), ProductID: itProduct, LocationID: s.locA, Quantity: decimal.NewFromInt(10)})
	s.Require().NoError(err)
	_, err = s.processor.Apply(s.ctx, inventory.ExitRequest{MovementMeta: s.meta(""), ProductID: itProduct, LocationID: s.locA, Quantity: decimal.NewFromInt(11)})
	s.Require().ErrorIs(err, domain.ErrInsufficientStock)

	res, err := s.processor.Apply(s.ctx, inventory.TransferRequest{MovementMeta: s.meta(""), ProductID: itProduct, FromLocationID: s.locA, ToLocationID: s.locB, Quantity: decimal.NewFromInt(3)})
	s.Require().NoError(err)
	s.Require().Len(res.Entries, 2)
	s.Equal(res.Entries[0].TransferID, res.Entries[1].TransferID)
	s.True(s.stock(s.locA).Equal(decimal.NewFromInt(7)))
	s.True(s.stock(s.locB).Equal(decimal.NewFromInt(3)))

	_, err = s.processor.Apply(s.ctx, inventory.AdjustmentRequest{MovementMeta: s.meta(""), ProductID: itProduct, LocationID: s.locB, TargetQuantity: decimal.NewFromInt(42)})
	s.Require().NoError(err)

	page, err := s.history.Page(s.ctx, inventory.HistoryQuery{CompanyID: itCompany, ProductID: itProduct, Limit: 2})
	s.Require().NoError(err)
	s.Len(page.Items, 2)
	s.NotEmpty(page.NextCursor)
	page, err = s.history.Page(s.ctx, inventory.HistoryQuery{CompanyID: itCompany, ProductID: itProduct, Limit: 2, Cursor: page.NextCursor})
	s.Require().NoError(err)
	s.Len(page.Items, 2)
	s.Empty(page.NextCursor)
	s.Equal(entity.MovementTypeAdjustment, page.Items[1].Type)

	legs, err := s.history.Page(s.ctx, inventory.HistoryQuery{CompanyID: itCompany, ProductID: itProduct, Types: []entity.MovementType{entity.MovementTypeTransfer}})
	s.Require().NoError(err)
	s.Require().Len(legs.Items, 2)
	s.Equal(res.Entries[0].TransferID, legs.Items[0].TransferID)
	s.True(res.Entries[0].CreatedAt.Equal(legs.Items[0].CreatedAt), "la fecha devuelta coincide con la persistida")

	_, err = s.processor.Apply(s.ctx, inventory.EntryRequest{MovementMeta: s.meta(""), ProductID: itProduct, LocationID: s.locA, Quantity: decimal.RequireFromString("0.00005")})
	s.ErrorIs(err, domain.ErrInvalidQuantity)

	summary, err := s.summary.Summarize(s.ctx, itCompany, inventory.SummaryFilter{})
	s.Require().NoError(err)
	s.Require().Len(summary.Products, 1)
	s.True(summary.Products[0].Quantity.Equal(decimal.NewFromInt(49)))
	s.True(summary.Totals.TotalStockValue.Equal(decimal.NewFromInt(147)))
}

func (s *LedgerIntegrationSuite) TestLedgerEsAppendOnly() {
	res, err := s.processor.Apply(s.ctx, inventory.EntryRequest{MovementMeta: s.meta(""), ProductID: itProduct, LocationID: s.locA, Quantity: decimal.NewFromInt(1)})
	s.Require().NoError(err)

	_, err = s.pool.Exec(s.ctx, `UPDATE stock_movements SET quantity = 100 WHERE id = $1`, res.Entries[0].ID)
	s.Error(err)
	_, err = s.pool.Exec(s.ctx, `DELETE FROM stock_movements WHERE id = $1`, res.Entries[0].ID)
	s.Error(err)
}

func (s *LedgerIntegrationSuite) TestIdempotenciaYConcurrencia() {
	_, err := s.processor.Apply(s.ctx, inventory.EntryRequest{MovementMeta: s.meta(""), ProductID: itProduct, LocationID: s.locA, Quantity: decimal.NewFromInt(10)})
	s.Require().NoError(err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, rejected := 0, 0
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.processor.Apply(s.ctx, inventory.ExitRequest{MovementMeta: s.meta(""), ProductID: itProduct, LocationID: s.locA, Quantity: decimal.NewFromInt(1)})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			s.ErrorIs(err, domain.ErrInsufficientStock)
			rejected++
		}()
	}
	wg.Wait()
	s.Equal(10, ok)
	s.Equal(5, rejected)
	s.True(s.stock(s.locA).IsZero())

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.processor.Apply(s.ctx, inventory.EntryRequest{MovementMeta: s.meta("compra-1"), ProductID: itProduct, LocationID: s.locB, Quantity: decimal.NewFromInt(4)})
			s.NoError(err)
		}()
	}
	wg.Wait()
	s.True(s.stock(s.locB).Equal(decimal.NewFromInt(4)), "una sola aplicación por clave")
}

func (s *LedgerIntegrationSuite) TestOutboxRelay() {
	_, err := s.processor.Apply(s.ctx, inventory.EntryRequest{MovementMeta: s.meta(""), ProductID: itProduct, LocationID: s.locA, Quantity: decimal.NewFromInt(1)})
	s.Require().NoError(err)

	store := postgres.NewOutboxRepository(s.pool)
	pub := &capturePublisher{}
	n, err := events.NewRelay(store, pub, events.RelayConfig{BatchSize: 10}, zerolog.Nop(), nil).RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Require().Len(pub.events, 1)
	s.Equal(entity.EventTypeMovementRecorded, pub.events[0].EventType)

	pending, err := store.ListPending(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}

type capturePublisher struct {
	events []*entity.OutboxEvent
}

func (c *capturePublisher) Publish(_ context.Context, ev *entity.OutboxEvent) error {
	c.events = append(c.events, ev)
	return nil
}
