package entity

import "time"

// EventTypeMovementRecorded evento emitido al confirmar uno o más movimientos.
const EventTypeMovementRecorded = "stock.movement.recorded"

// OutboxEvent evento pendiente de publicación, guardado en la misma transacción que el movimiento.
type OutboxEvent struct {
	ID           string
	CompanyID    string
	AggregateKey string // llave de partición (producto)
	EventType    string
	Payload      []byte
	CreatedAt    time.Time
	PublishedAt  *time.Time
	Attempts     int
	LastError    string
}
