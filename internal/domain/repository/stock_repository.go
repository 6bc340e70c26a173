package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockReader acceso de solo lectura a los registros de stock.
type StockReader interface {
	// Get devuelve el registro o uno con cantidad 0 si no existe (sin crearlo).
	Get(ctx context.Context, key entity.StockKey) (*entity.StockRecord, error)
	// ListByCompany lista registros de la empresa; locationID vacío = todas las ubicaciones.
	ListByCompany(ctx context.Context, companyID, locationID string) ([]*entity.StockRecord, error)
}

// StockRepository acceso de escritura; solo se entrega atado a una transacción del TxRunner.
type StockRepository interface {
	StockReader
	// GetForUpdate bloquea la llave hasta el fin de la transacción y devuelve el registro
	// (cantidad 0 si es el primer movimiento).
	GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockRecord, error)
	Upsert(ctx context.Context, stock *entity.StockRecord) error
}
