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

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
// GetForUpdate y Upsert solo tienen sentido dentro de una tx.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual; si no existe devuelve cantidad 0 sin crear la fila.
func (r *StockRepo) Get(ctx context.Context, key entity.StockKey) (*entity.StockRecord, error) {
	query := `
		SELECT company_id, product_id, location_id, quantity, updated_at
		FROM stock_records WHERE company_id = $1 AND product_id = $2 AND location_id = $3`
	var s entity.StockRecord
	err := r.q.QueryRow(ctx, query, key.CompanyID, key.ProductID, key.LocationID).Scan(
		&s.CompanyID, &s.ProductID, &s.LocationID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockRecord{CompanyID: key.CompanyID, ProductID: key.ProductID, LocationID: key.LocationID, Quantity: decimal.Zero}, nil
		}
		return nil, classifyError("get stock", err)
	}
	return &s, nil
}

// ListByCompany lista registros de la empresa; locationID vacío = todas las ubicaciones.
func (r *StockRepo) ListByCompany(ctx context.Context, companyID, locationID string) ([]*entity.StockRecord, error) {
	query := `
		SELECT company_id, product_id, location_id, quantity, updated_at
		FROM stock_records
		WHERE company_id = $1 AND ($2 = '' OR location_id = $2)`
	rows, err := r.q.Query(ctx, query, companyID, locationID)
	if err != nil {
		return nil, classifyError("list stock", err)
	}
	defer rows.Close()
	var list []*entity.StockRecord
	for rows.Next() {
		var s entity.StockRecord
		if err := rows.Scan(&s.CompanyID, &s.ProductID, &s.LocationID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// GetForUpdate asegura que la fila exista (cantidad 0) y la bloquea con SELECT FOR UPDATE.
// Sin la inserción previa dos transacciones podrían leer "no existe" sobre la misma llave
// y perder una actualización.
func (r *StockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockRecord, error) {
	ensure := `
		INSERT INTO stock_records (company_id, product_id, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (company_id, product_id, location_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, ensure, key.CompanyID, key.ProductID, key.LocationID); err != nil {
		return nil, classifyError("ensure stock", err)
	}
	query := `
		SELECT company_id, product_id, location_id, quantity, updated_at
		FROM stock_records WHERE company_id = $1 AND product_id = $2 AND location_id = $3
		FOR UPDATE`
	var s entity.StockRecord
	err := r.q.QueryRow(ctx, query, key.CompanyID, key.ProductID, key.LocationID).Scan(
		&s.CompanyID, &s.ProductID, &s.LocationID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		return nil, classifyError("get stock for update", err)
	}
	return &s, nil
}

// Upsert guarda la cantidad de una llave ya bloqueada.
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (company_id, product_id, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id, product_id, location_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, stock.CompanyID, stock.ProductID, stock.LocationID, stock.Quantity, stock.UpdatedAt)
	if err != nil {
		return classifyError("upsert stock", err)
	}
	return nil
}
