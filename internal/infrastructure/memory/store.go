package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.LocationRepository = (*Store)(nil)
	_ repository.OutboxStore        = (*Store)(nil)
	_ repository.ProductRepository  = productView{}
	_ repository.StockReader        = stockView{}
	_ repository.MovementReader     = movementView{}
)

// Store backend en memoria con la misma semántica que PostgreSQL: bloqueo por llave de stock,
// transacciones con escrituras diferidas y ledger append-only de lectura sin bloqueos.
type Store struct {
	mu        sync.RWMutex
	locations map[string]*entity.Location
	products  map[string]*entity.Product
	stock     map[entity.StockKey]*entity.StockRecord
	idem      map[string]*repository.IdempotencyRecord // company_id + "\x00" + key
	outbox    []*entity.OutboxEvent

	// movements es un slice inmutable reemplazado en cada commit.
	movements atomic.Pointer[[]*entity.MovementEntry]
	seq       atomic.Int64

	keyMu       sync.Mutex
	keyLocks    map[entity.StockKey]chan struct{}
	lockTimeout time.Duration
}

// NewStore crea un store vacío. lockTimeout acota la espera por una llave (0 = 5s).
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	s := &Store{
		locations:   make(map[string]*entity.Location),
		products:    make(map[string]*entity.Product),
		stock:       make(map[entity.StockKey]*entity.StockRecord),
		idem:        make(map[string]*repository.IdempotencyRecord),
		keyLocks:    make(map[entity.StockKey]chan struct{}),
		lockTimeout: lockTimeout,
	}
	empty := make([]*entity.MovementEntry, 0)
	s.movements.Store(&empty)
	return s
}

// --- ubicaciones ---

func (s *Store) Create(_ context.Context, location *entity.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[location.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, l := range s.locations {
		if l.CompanyID == location.CompanyID && l.Code == location.Code {
			return domain.ErrDuplicate
		}
	}
	c := *location
	s.locations[location.ID] = &c
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*entity.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.locations[id]
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

func (s *Store) Update(_ context.Context, location *entity.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[location.ID]; !ok {
		return domain.ErrNotFound
	}
	c := *location
	s.locations[location.ID] = &c
	return nil
}

func (s *Store) ListByCompany(_ context.Context, companyID string, activeOnly bool, limit, offset int) ([]*entity.Location, error) {
	s.mu.RLock()
	list := make([]*entity.Location, 0)
	for _, l := range s.locations {
		if l.CompanyID != companyID || (activeOnly && !l.Active) {
			continue
		}
		c := *l
		list = append(list, &c)
	}
	s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return paginate(list, limit, offset), nil
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return list[:0]
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// --- productos (catálogo externo) ---

// SaveProduct registra o reemplaza un producto del catálogo. Solo para seed y tests.
func (s *Store) SaveProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.products[p.ID] = &c
}

// Products vista del store como ProductRepository (GetByID colisiona con el de ubicaciones).
func (s *Store) Products() repository.ProductRepository { return productView{s} }

// Locations vista del store como LocationRepository.
func (s *Store) Locations() repository.LocationRepository { return s }

type productView struct{ s *Store }

func (v productView) GetByID(_ context.Context, id string) (*entity.Product, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	p, ok := v.s.products[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (v productView) ListStockManaged(_ context.Context, companyID string) ([]*entity.Product, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	list := make([]*entity.Product, 0)
	for _, p := range v.s.products {
		if p.CompanyID == companyID && p.ManageStock {
			c := *p
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SKU < list[j].SKU })
	return list, nil
}

// --- stock (lectura) ---

// Stock vista del store como StockReader.
func (s *Store) Stock() repository.StockReader { return stockView{s} }

type stockView struct{ s *Store }

func (v stockView) Get(_ context.Context, key entity.StockKey) (*entity.StockRecord, error) {
	return v.s.committedStock(key), nil
}

func (v stockView) ListByCompany(_ context.Context, companyID, locationID string) ([]*entity.StockRecord, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	list := make([]*entity.StockRecord, 0)
	for k, r := range v.s.stock {
		if k.CompanyID != companyID || (locationID != "" && k.LocationID != locationID) {
			continue
		}
		c := *r
		list = append(list, &c)
	}
	return list, nil
}

func (s *Store) committedStock(key entity.StockKey) *entity.StockRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.stock[key]; ok {
		c := *r
		return &c
	}
	return &entity.StockRecord{
		CompanyID:  key.CompanyID,
		ProductID:  key.ProductID,
		LocationID: key.LocationID,
		Quantity:   decimal.Zero,
	}
}

// --- ledger (lectura sin bloqueos) ---

// Movements vista del store como MovementReader.
func (s *Store) Movements() repository.MovementReader { return movementView{s} }

type movementView struct{ s *Store }

func (v movementView) GetByID(_ context.Context, id string) (*entity.MovementEntry, error) {
	for _, m := range *v.s.movements.Load() {
		if m.ID == id {
			return m.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (v movementView) ListByIDs(_ context.Context, companyID string, ids []string) ([]*entity.MovementEntry, error) {
	byID := make(map[string]*entity.MovementEntry, len(ids))
	for _, m := range *v.s.movements.Load() {
		if m.CompanyID == companyID && slices.Contains(ids, m.ID) {
			byID[m.ID] = m
		}
	}
	out := make([]*entity.MovementEntry, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

func (v movementView) List(_ context.Context, f repository.MovementFilter) ([]*entity.MovementEntry, error) {
	var active map[string]bool
	if f.LocationActive != nil {
		v.s.mu.RLock()
		active = make(map[string]bool, len(v.s.locations))
		for id, l := range v.s.locations {
			active[id] = l.Active
		}
		v.s.mu.RUnlock()
	}
	out := make([]*entity.MovementEntry, 0)
	for _, m := range *v.s.movements.Load() {
		if !matches(m, f, active) {
			continue
		}
		out = append(out, m.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return entryBefore(out[i], out[j]) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func entryBefore(a, b *entity.MovementEntry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Seq < b.Seq
}

func matches(m *entity.MovementEntry, f repository.MovementFilter, active map[string]bool) bool {
	if m.CompanyID != f.CompanyID || m.ProductID != f.ProductID {
		return false
	}
	if f.LocationID != "" && m.LocationID != f.LocationID {
		return false
	}
	if len(f.Types) > 0 && !matchesType(m, f.Types) {
		return false
	}
	if f.From != nil && m.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && m.CreatedAt.After(*f.To) {
		return false
	}
	if f.LocationActive != nil && active[m.LocationID] != *f.LocationActive {
		return false
	}
	if f.After != nil {
		cur := &entity.MovementEntry{CreatedAt: f.After.CreatedAt, Seq: f.After.Seq}
		if !entryBefore(cur, m) {
			return false
		}
	}
	return true
}

// matchesType los tramos de un traslado se guardan como EXIT/ENTRY; TRANSFER los selecciona por TransferID.
func matchesType(m *entity.MovementEntry, types []entity.MovementType) bool {
	if slices.Contains(types, m.Type) {
		return true
	}
	return m.TransferID != "" && slices.Contains(types, entity.MovementTypeTransfer)
}

// --- outbox (lado del relay) ---

func (s *Store) ListPending(_ context.Context, limit int) ([]*entity.OutboxEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.OutboxEvent, 0)
	for _, ev := range s.outbox {
		if ev.PublishedAt != nil {
			continue
		}
		c := *ev
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkPublished(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.outbox {
		if ev.ID == id {
			t := at
			ev.PublishedAt = &t
			ev.Attempts++
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) MarkFailed(_ context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.outbox {
		if ev.ID == id {
			ev.Attempts++
			ev.LastError = reason
			return nil
		}
	}
	return domain.ErrNotFound
}
