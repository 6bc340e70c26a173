package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks con repositorios transaccionales sobre el Store. Las escrituras
// se acumulan y solo se publican en el commit; las llaves bloqueadas se liberan al final.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

type tx struct {
	ctx       context.Context
	store     *Store
	held      []entity.StockKey
	stock     map[entity.StockKey]*entity.StockRecord
	movements []*entity.MovementEntry
	idem      []*repository.IdempotencyRecord
	outbox    []*entity.OutboxEvent
}

// Run ejecuta fn y aplica sus escrituras de forma atómica si no devuelve error.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	idemRepo repository.IdempotencyRepository,
	outboxRepo repository.OutboxRepository,
) error) error {
	t := &tx{ctx: ctx, store: r.store, stock: make(map[entity.StockKey]*entity.StockRecord)}
	defer t.release()
	if err := fn(txMovements{t}, txStock{t}, txIdempotency{t}, txOutbox{t}); err != nil {
		return err
	}
	return t.commit()
}

func (t *tx) lock(key entity.StockKey) error {
	if slices.Contains(t.held, key) {
		return nil
	}
	s := t.store
	s.keyMu.Lock()
	ch, ok := s.keyLocks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.keyLocks[key] = ch
	}
	s.keyMu.Unlock()

	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		t.held = append(t.held, key)
		return nil
	case <-t.ctx.Done():
		return fmt.Errorf("%w: %w", domain.ErrTransient, t.ctx.Err())
	case <-timer.C:
		return fmt.Errorf("%w: espera por llave %s", domain.ErrTransient, key)
	}
}

func (t *tx) release() {
	s := t.store
	s.keyMu.Lock()
	chans := make([]chan struct{}, 0, len(t.held))
	for _, k := range t.held {
		chans = append(chans, s.keyLocks[k])
	}
	s.keyMu.Unlock()
	for _, ch := range chans {
		<-ch
	}
	t.held = nil
}

func (t *tx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range t.idem {
		if _, ok := s.idem[idemKey(rec.CompanyID, rec.Key)]; ok {
			return domain.ErrConcurrencyConflict
		}
	}
	for k, rec := range t.stock {
		if rec.Quantity.IsNegative() {
			return fmt.Errorf("%w: stock negativo en %s", domain.ErrInvalidQuantity, k)
		}
	}

	for k, rec := range t.stock {
		c := *rec
		s.stock[k] = &c
	}
	for _, rec := range t.idem {
		c := *rec
		c.EntryIDs = slices.Clone(rec.EntryIDs)
		s.idem[idemKey(rec.CompanyID, rec.Key)] = &c
	}
	s.outbox = append(s.outbox, t.outbox...)

	if len(t.movements) > 0 {
		prev := *s.movements.Load()
		next := make([]*entity.MovementEntry, len(prev), len(prev)+len(t.movements))
		copy(next, prev)
		for _, m := range t.movements {
			m.Seq = s.seq.Add(1)
			next = append(next, m.Clone())
		}
		s.movements.Store(&next)
	}
	return nil
}

func idemKey(companyID, key string) string {
	return companyID + "\x00" + key
}

type txStock struct{ t *tx }

func (r txStock) Get(_ context.Context, key entity.StockKey) (*entity.StockRecord, error) {
	if rec, ok := r.t.stock[key]; ok {
		c := *rec
		return &c, nil
	}
	return r.t.store.committedStock(key), nil
}

func (r txStock) ListByCompany(ctx context.Context, companyID, locationID string) ([]*entity.StockRecord, error) {
	return r.t.store.Stock().ListByCompany(ctx, companyID, locationID)
}

func (r txStock) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockRecord, error) {
	if err := r.t.lock(key); err != nil {
		return nil, err
	}
	return r.Get(ctx, key)
}

func (r txStock) Upsert(_ context.Context, stock *entity.StockRecord) error {
	if !slices.Contains(r.t.held, stock.Key()) {
		return fmt.Errorf("upsert sin bloqueo previo de %s", stock.Key())
	}
	c := *stock
	r.t.stock[stock.Key()] = &c
	return nil
}

type txMovements struct{ t *tx }

func (r txMovements) GetByID(ctx context.Context, id string) (*entity.MovementEntry, error) {
	return r.t.store.Movements().GetByID(ctx, id)
}

func (r txMovements) List(ctx context.Context, f repository.MovementFilter) ([]*entity.MovementEntry, error) {
	return r.t.store.Movements().List(ctx, f)
}

func (r txMovements) ListByIDs(ctx context.Context, companyID string, ids []string) ([]*entity.MovementEntry, error) {
	return r.t.store.Movements().ListByIDs(ctx, companyID, ids)
}

// Append deja la entrada pendiente; Seq se asigna en el commit.
func (r txMovements) Append(_ context.Context, m *entity.MovementEntry) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	r.t.movements = append(r.t.movements, m)
	return nil
}

type txIdempotency struct{ t *tx }

func (r txIdempotency) Get(_ context.Context, companyID, key string) (*repository.IdempotencyRecord, error) {
	s := r.t.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.idem[idemKey(companyID, key)]
	if !ok {
		return nil, nil
	}
	c := *rec
	c.EntryIDs = slices.Clone(rec.EntryIDs)
	return &c, nil
}

func (r txIdempotency) Save(_ context.Context, record *repository.IdempotencyRecord) error {
	for _, rec := range r.t.idem {
		if rec.CompanyID == record.CompanyID && rec.Key == record.Key {
			return domain.ErrConcurrencyConflict
		}
	}
	c := *record
	r.t.idem = append(r.t.idem, &c)
	return nil
}

type txOutbox struct{ t *tx }

func (r txOutbox) Enqueue(_ context.Context, event *entity.OutboxEvent) error {
	c := *event
	r.t.outbox = append(r.t.outbox, &c)
	return nil
}
