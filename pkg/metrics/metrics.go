package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Metrics métricas Prometheus del servicio, en un registry propio.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	MovementsApplied  *prometheus.CounterVec
	MovementsRejected *prometheus.CounterVec
	MovementDuration  *prometheus.HistogramVec
	ApplyRetries      prometheus.Counter

	OutboxPending      prometheus.Gauge
	OutboxPublishTotal *prometheus.CounterVec
}

// New crea y registra las métricas bajo el namespace indicado.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total de requests HTTP",
	}, []string{"method", "route", "status"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duración de requests HTTP en segundos",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "route"})

	m.MovementsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "movements_applied_total",
		Help:      "Movimientos de stock aplicados por tipo",
	}, []string{"type"})

	m.MovementsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "movements_rejected_total",
		Help:      "Movimientos rechazados por código de error",
	}, []string{"code"})

	m.MovementDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "movement_apply_duration_seconds",
		Help:      "Duración de la aplicación de un movimiento, reintentos incluidos",
		Buckets:   prometheus.DefBuckets,
	}, []string{"type"})

	m.ApplyRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "movement_apply_retries_total",
		Help:      "Reintentos por conflicto de concurrencia o error transitorio",
	})

	m.OutboxPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "outbox_pending",
		Help:      "Eventos pendientes vistos en el último ciclo del relay",
	})

	m.OutboxPublishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_publish_total",
		Help:      "Intentos de publicación del outbox por resultado",
	}, []string{"status"})

	registry.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
		m.MovementsApplied, m.MovementsRejected, m.MovementDuration, m.ApplyRetries,
		m.OutboxPending, m.OutboxPublishTotal,
	)
	return m
}

// Handler expone el registry en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry acceso al registry (tests).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MovementApplied registra un movimiento aplicado.
func (m *Metrics) MovementApplied(t entity.MovementType, elapsed time.Duration) {
	m.MovementsApplied.WithLabelValues(string(t)).Inc()
	m.MovementDuration.WithLabelValues(string(t)).Observe(elapsed.Seconds())
}

// MovementRejected registra un rechazo por código.
func (m *Metrics) MovementRejected(code string) {
	m.MovementsRejected.WithLabelValues(code).Inc()
}

// ApplyRetried registra un reintento.
func (m *Metrics) ApplyRetried() {
	m.ApplyRetries.Inc()
}

// SetOutboxPending fija el gauge de pendientes.
func (m *Metrics) SetOutboxPending(n int) {
	m.OutboxPending.Set(float64(n))
}

// OutboxPublished cuenta un intento de publicación.
func (m *Metrics) OutboxPublished(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.OutboxPublishTotal.WithLabelValues(status).Inc()
}

// ObserveHTTP registra un request HTTP.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
