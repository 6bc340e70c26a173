package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo lectura del catálogo de productos sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, company_id, sku, name, manage_stock, min_stock, max_stock, cost, price, created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	var minStock, maxStock decimal.NullDecimal
	if err := row.Scan(
		&p.ID, &p.CompanyID, &p.SKU, &p.Name, &p.ManageStock, &minStock, &maxStock,
		&p.Cost, &p.Price, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if minStock.Valid {
		v := minStock.Decimal
		p.MinStock = &v
	}
	if maxStock.Valid {
		v := maxStock.Decimal
		p.MaxStock = &v
	}
	return &p, nil
}

// GetByID obtiene un producto por ID (nil si no existe).
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classifyError("get product", err)
	}
	return p, nil
}

// ListStockManaged lista los productos de la empresa que manejan inventario, por SKU.
func (r *ProductRepo) ListStockManaged(ctx context.Context, companyID string) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE company_id = $1 AND manage_stock ORDER BY sku`, companyID)
	if err != nil {
		return nil, classifyError("list products", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Upsert registra o reemplaza un producto. El catálogo es externo; se usa para sincronizar y en tests.
func (r *ProductRepo) Upsert(ctx context.Context, p *entity.Product) error {
	var minStock, maxStock decimal.NullDecimal
	if p.MinStock != nil {
		minStock = decimal.NewNullDecimal(*p.MinStock)
	}
	if p.MaxStock != nil {
		maxStock = decimal.NewNullDecimal(*p.MaxStock)
	}
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			sku = EXCLUDED.sku, name = EXCLUDED.name, manage_stock = EXCLUDED.manage_stock,
			min_stock = EXCLUDED.min_stock, max_stock = EXCLUDED.max_stock,
			cost = EXCLUDED.cost, price = EXCLUDED.price, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.CompanyID, p.SKU, p.Name, p.ManageStock, minStock, maxStock,
		p.Cost, p.Price, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}
