package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ProcessorConfig parámetros del procesador de movimientos.
type ProcessorConfig struct {
	MaxAttempts  int           // intentos ante conflicto de concurrencia o error transitorio
	RetryBackoff time.Duration // espera base entre intentos (lineal)
	EmitEvents   bool          // encola stock.movement.recorded en el outbox
}

// DefaultProcessorConfig valores por defecto.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{MaxAttempts: 3, RetryBackoff: 20 * time.Millisecond}
}

// MovementProcessor es el único punto de escritura sobre el stock. Valida la solicitud,
// bloquea las llaves afectadas en orden determinista, aplica la regla del tipo y agrega
// las entradas al ledger en una sola transacción: o se aplica todo o nada.
type MovementProcessor struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	cfg          ProcessorConfig
	log          zerolog.Logger
	metrics      Recorder
	now          func() time.Time
}

// Option configura el procesador.
type Option func(*MovementProcessor)

// WithRecorder registra métricas de aplicación y rechazo.
func WithRecorder(r Recorder) Option {
	return func(p *MovementProcessor) {
		if r != nil {
			p.metrics = r
		}
	}
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(p *MovementProcessor) { p.now = now }
}

// NewMovementProcessor construye el procesador.
func NewMovementProcessor(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	cfg ProcessorConfig,
	log zerolog.Logger,
	opts ...Option,
) *MovementProcessor {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	p := &MovementProcessor{
		txRunner:     txRunner,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		cfg:          cfg,
		log:          log.With().Str("component", "movement_processor").Logger(),
		metrics:      nopRecorder{},
		now:          func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ApplyResult entradas del ledger producidas (o reproducidas) por una solicitud.
type ApplyResult struct {
	Entries  []*entity.MovementEntry
	Replayed bool // la clave de idempotencia ya se había aplicado; no hubo cambios
}

// Apply valida y aplica una solicitud de movimiento. Los errores de validación y de stock
// insuficiente son terminales; los conflictos de concurrencia y fallos transitorios se
// reintentan hasta MaxAttempts y, agotados, se devuelven envueltos en domain.ErrTransient.
func (p *MovementProcessor) Apply(ctx context.Context, req MovementRequest) (*ApplyResult, error) {
	start := time.Now()
	res, err := p.apply(ctx, req)
	if err != nil {
		p.metrics.MovementRejected(ErrorCode(err))
		return nil, err
	}
	if !res.Replayed {
		p.metrics.MovementApplied(req.Type(), time.Since(start))
	}
	return res, nil
}

func (p *MovementProcessor) apply(ctx context.Context, req MovementRequest) (*ApplyResult, error) {
	if req == nil {
		return nil, domain.ErrInvalidMovement
	}
	meta := req.meta()
	if meta.CompanyID == "" {
		return nil, domain.ErrInvalidMovement
	}
	plan, err := req.plan()
	if err != nil {
		return nil, err
	}
	if err := p.validateReferences(ctx, meta.CompanyID, plan); err != nil {
		return nil, err
	}
	fp := ""
	if meta.IdempotencyKey != "" {
		fp = fingerprint(meta, plan)
	}

	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		res, err := p.applyOnce(ctx, meta, plan, fp)
		if err == nil {
			return res, nil
		}
		if !domain.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
		if attempt == p.cfg.MaxAttempts {
			break
		}
		p.metrics.ApplyRetried()
		p.log.Warn().Err(err).
			Int("attempt", attempt).
			Str("company_id", meta.CompanyID).
			Str("product_id", plan.ProductID).
			Str("type", string(plan.Type)).
			Msg("reintentando movimiento")
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", domain.ErrTransient, ctx.Err())
		case <-time.After(p.cfg.RetryBackoff * time.Duration(attempt)):
		}
	}
	if errors.Is(lastErr, domain.ErrTransient) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrTransient, lastErr)
}

// validateReferences verifica producto y ubicaciones antes de abrir la transacción.
func (p *MovementProcessor) validateReferences(ctx context.Context, companyID string, plan movementPlan) error {
	product, err := p.productRepo.GetByID(ctx, plan.ProductID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if product == nil || product.CompanyID != companyID {
		return domain.ErrProductNotFound
	}
	if !product.ManageStock {
		return domain.ErrProductNotStockManaged
	}
	for _, l := range plan.Legs {
		loc, err := p.locationRepo.GetByID(ctx, l.LocationID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if loc == nil || loc.CompanyID != companyID || !loc.Active {
			return domain.ErrInvalidLocation
		}
	}
	return nil
}

func (p *MovementProcessor) applyOnce(ctx context.Context, meta MovementMeta, plan movementPlan, fp string) (*ApplyResult, error) {
	var result *ApplyResult
	err := p.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
		idemRepo repository.IdempotencyRepository,
		outboxRepo repository.OutboxRepository,
	) error {
		// Bloqueo de todas las llaves en orden global antes de leer o escribir.
		keys := plan.keys(meta.CompanyID)
		inventory.SortKeys(keys)
		locked := make(map[entity.StockKey]*entity.StockRecord, len(keys))
		for _, k := range keys {
			rec, err := stockRepo.GetForUpdate(ctx, k)
			if err != nil {
				return err
			}
			locked[k] = rec
		}

		if meta.IdempotencyKey != "" {
			prev, err := idemRepo.Get(ctx, meta.CompanyID, meta.IdempotencyKey)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if prev != nil {
				if prev.Fingerprint != fp {
					return domain.ErrIdempotencyMismatch
				}
				entries, err := movRepo.ListByIDs(ctx, meta.CompanyID, prev.EntryIDs)
				if err != nil {
					return err
				}
				result = &ApplyResult{Entries: entries, Replayed: true}
				return nil
			}
		}

		now := p.now().Truncate(time.Microsecond)
		transferID := ""
		if plan.Type == entity.MovementTypeTransfer {
			transferID = uuid.New().String()
		}
		entries := make([]*entity.MovementEntry, 0, len(plan.Legs))
		for _, l := range plan.Legs {
			k := entity.StockKey{CompanyID: meta.CompanyID, ProductID: plan.ProductID, LocationID: l.LocationID}
			rec := locked[k]
			next, err := inventory.ResultingQuantity(l.Type, rec.Quantity, l.Quantity)
			if err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) {
					return &domain.InsufficientStockError{
						ProductID:  plan.ProductID,
						LocationID: l.LocationID,
						Available:  rec.Quantity,
						Requested:  l.Quantity,
					}
				}
				return err
			}
			mov := &entity.MovementEntry{
				ID:             uuid.New().String(),
				CompanyID:      meta.CompanyID,
				ProductID:      plan.ProductID,
				LocationID:     l.LocationID,
				Type:           l.Type,
				Quantity:       l.Quantity,
				PreviousStock:  rec.Quantity,
				NewStock:       next,
				Reason:         meta.Reason,
				Reference:      meta.Reference,
				DocumentID:     meta.DocumentID,
				TransferID:     transferID,
				IdempotencyKey: meta.IdempotencyKey,
				CreatedAt:      now,
				CreatedBy:      meta.ActorID,
			}
			rec.Quantity = next
			rec.UpdatedAt = now
			if err := stockRepo.Upsert(ctx, rec); err != nil {
				return err
			}
			if err := movRepo.Append(ctx, mov); err != nil {
				return err
			}
			entries = append(entries, mov)
		}

		if meta.IdempotencyKey != "" {
			ids := make([]string, 0, len(entries))
			for _, e := range entries {
				ids = append(ids, e.ID)
			}
			if err := idemRepo.Save(ctx, &repository.IdempotencyRecord{
				CompanyID:   meta.CompanyID,
				Key:         meta.IdempotencyKey,
				Fingerprint: fp,
				EntryIDs:    ids,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
		}

		if p.cfg.EmitEvents {
			ev, err := newRecordedEvent(meta.CompanyID, plan, transferID, entries, now)
			if err != nil {
				return err
			}
			if err := outboxRepo.Enqueue(ctx, ev); err != nil {
				return err
			}
		}
		result = &ApplyResult{Entries: entries}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.Replayed {
		p.log.Info().
			Str("company_id", meta.CompanyID).
			Str("product_id", plan.ProductID).
			Str("type", string(plan.Type)).
			Str("quantity", plan.Quantity.String()).
			Int("entries", len(result.Entries)).
			Msg("movimiento aplicado")
	}
	return result, nil
}

// MovementRecorded carga del evento stock.movement.recorded.
type MovementRecorded struct {
	CompanyID  string                `json:"company_id"`
	ProductID  string                `json:"product_id"`
	Type       entity.MovementType   `json:"type"`
	TransferID string                `json:"transfer_id,omitempty"`
	Entries    []MovementRecordedLeg `json:"entries"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// MovementRecordedLeg una entrada del ledger dentro del evento.
type MovementRecordedLeg struct {
	ID            string              `json:"id"`
	LocationID    string              `json:"location_id"`
	Type          entity.MovementType `json:"type"`
	Quantity      decimal.Decimal     `json:"quantity"`
	PreviousStock decimal.Decimal     `json:"previous_stock"`
	NewStock      decimal.Decimal     `json:"new_stock"`
}

func newRecordedEvent(companyID string, plan movementPlan, transferID string, entries []*entity.MovementEntry, now time.Time) (*entity.OutboxEvent, error) {
	payload := MovementRecorded{
		CompanyID:  companyID,
		ProductID:  plan.ProductID,
		Type:       plan.Type,
		TransferID: transferID,
		OccurredAt: now,
	}
	for _, e := range entries {
		payload.Entries = append(payload.Entries, MovementRecordedLeg{
			ID:            e.ID,
			LocationID:    e.LocationID,
			Type:          e.Type,
			Quantity:      e.Quantity,
			PreviousStock: e.PreviousStock,
			NewStock:      e.NewStock,
		})
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal evento: %w", err)
	}
	return &entity.OutboxEvent{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		AggregateKey: companyID + "/" + plan.ProductID,
		EventType:    entity.EventTypeMovementRecorded,
		Payload:      raw,
		CreatedAt:    now,
	}, nil
}
