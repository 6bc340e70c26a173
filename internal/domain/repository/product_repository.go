package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ProductRepository puerto de lectura al catálogo externo de productos.
// El ledger nunca crea ni modifica productos.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// ListStockManaged devuelve los productos de la empresa con ManageStock = true.
	ListStockManaged(ctx context.Context, companyID string) ([]*entity.Product, error)
}
