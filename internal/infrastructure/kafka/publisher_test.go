package kafka_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/kafka"
)

func TestMessage(t *testing.T) {
	created := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	ev := &entity.OutboxEvent{
		ID:           "ev-1",
		CompanyID:    "c1",
		AggregateKey: "c1/p1",
		EventType:    entity.EventTypeMovementRecorded,
		Payload:      []byte(`{"product_id":"p1"}`),
		CreatedAt:    created,
	}

	msg := kafka.Message(ev)
	assert.Equal(t, []byte("c1/p1"), msg.Key)
	assert.JSONEq(t, `{"product_id":"p1"}`, string(msg.Value))
	assert.Equal(t, created, msg.Time)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "ev-1", headers["event_id"])
	assert.Equal(t, entity.EventTypeMovementRecorded, headers["event_type"])
	assert.Equal(t, "c1", headers["company_id"])
	assert.Equal(t, "application/json", headers["content-type"])
}
