package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/stock-ledger/internal/application/events"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var _ events.Publisher = (*Publisher)(nil)

// Config conexión al broker.
type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// Publisher publica eventos del outbox en un tópico Kafka. La llave del mensaje es la llave
// de agregado, así los eventos de un mismo producto caen en la misma partición.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher construye el publisher sobre un kafka.Writer síncrono.
func NewPublisher(cfg Config) *Publisher {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           cfg.BatchTimeout,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish escribe el evento y espera confirmación del broker.
func (p *Publisher) Publish(ctx context.Context, event *entity.OutboxEvent) error {
	msg := Message(event)
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publicar evento %s en %s: %w", event.ID, p.writer.Topic, err)
	}
	return nil
}

// Close libera el writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Message arma el mensaje Kafka de un evento del outbox.
func Message(event *entity.OutboxEvent) kafka.Message {
	return kafka.Message{
		Key:   []byte(event.AggregateKey),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "company_id", Value: []byte(event.CompanyID)},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: event.CreatedAt,
	}
}
