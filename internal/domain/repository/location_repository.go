package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LocationRepository define el puerto de persistencia para el registro de ubicaciones (DIP).
type LocationRepository interface {
	Create(ctx context.Context, location *entity.Location) error
	GetByID(ctx context.Context, id string) (*entity.Location, error)
	Update(ctx context.Context, location *entity.Location) error
	// ListByCompany lista ubicaciones; activeOnly filtra las desactivadas.
	ListByCompany(ctx context.Context, companyID string, activeOnly bool, limit, offset int) ([]*entity.Location, error)
}
