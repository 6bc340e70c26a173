package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementCursor posición de paginación (keyset sobre created_at, seq).
type MovementCursor struct {
	CreatedAt time.Time
	Seq       int64
}

// MovementFilter filtros del historial. CompanyID y ProductID son obligatorios.
type MovementFilter struct {
	CompanyID      string
	ProductID      string
	LocationID     string // vacío = todas
	Types          []entity.MovementType // TRANSFER selecciona ambos tramos de los traslados
	From           *time.Time
	To             *time.Time
	LocationActive *bool // filtra por el flag active de la ubicación dueña
	After          *MovementCursor
	Limit          int
}

// MovementReader lectura del ledger. Nunca bloquea llaves de stock.
type MovementReader interface {
	GetByID(ctx context.Context, id string) (*entity.MovementEntry, error)
	// List devuelve entradas ordenadas por created_at, seq ascendente.
	List(ctx context.Context, filter MovementFilter) ([]*entity.MovementEntry, error)
	ListByIDs(ctx context.Context, companyID string, ids []string) ([]*entity.MovementEntry, error)
}

// MovementRepository ledger append-only: no existe operación de actualización ni borrado.
type MovementRepository interface {
	MovementReader
	// Append asigna ID, Seq y CreatedAt si faltan y persiste la entrada.
	Append(ctx context.Context, movement *entity.MovementEntry) error
}
