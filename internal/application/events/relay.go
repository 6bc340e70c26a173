package events

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Publisher envía un evento del outbox al broker.
type Publisher interface {
	Publish(ctx context.Context, event *entity.OutboxEvent) error
}

// Gauge recibe la cantidad de eventos pendientes en cada ciclo. Lo implementa *metrics.Metrics.
type Gauge interface {
	SetOutboxPending(n int)
	OutboxPublished(ok bool)
}

// RelayConfig intervalo de sondeo y tamaño de lote.
type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// Relay lee eventos pendientes del outbox y los publica en orden de creación.
// Un fallo deja el evento pendiente para el siguiente ciclo (entrega al menos una vez).
type Relay struct {
	store     repository.OutboxStore
	publisher Publisher
	cfg       RelayConfig
	log       zerolog.Logger
	gauge     Gauge
	now       func() time.Time
}

// NewRelay construye el relay. gauge puede ser nil.
func NewRelay(store repository.OutboxStore, publisher Publisher, cfg RelayConfig, log zerolog.Logger, gauge Gauge) *Relay {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		log:       log.With().Str("component", "outbox_relay").Logger(),
		gauge:     gauge,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run sondea hasta que ctx se cancele.
func (r *Relay) Run(ctx context.Context) {
	r.log.Info().Dur("interval", r.cfg.PollInterval).Int("batch_size", r.cfg.BatchSize).Msg("relay iniciado")
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("relay detenido")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.log.Error().Err(err).Msg("error leyendo outbox")
			}
		}
	}
}

// RunOnce publica un lote y devuelve cuántos eventos se publicaron. Se detiene en el primer
// fallo para no adelantar eventos posteriores de la misma llave.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	pending, err := r.store.ListPending(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if r.gauge != nil {
		r.gauge.SetOutboxPending(len(pending))
	}
	published := 0
	for _, ev := range pending {
		if err := r.publisher.Publish(ctx, ev); err != nil {
			r.log.Warn().Err(err).Str("event_id", ev.ID).Str("event_type", ev.EventType).Msg("fallo publicando evento")
			if markErr := r.store.MarkFailed(ctx, ev.ID, err.Error()); markErr != nil {
				return published, markErr
			}
			if r.gauge != nil {
				r.gauge.OutboxPublished(false)
			}
			return published, nil
		}
		if err := r.store.MarkPublished(ctx, ev.ID, r.now()); err != nil {
			return published, err
		}
		if r.gauge != nil {
			r.gauge.OutboxPublished(true)
		}
		published++
	}
	return published, nil
}
