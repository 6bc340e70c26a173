package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implementación del puerto LocationRepository sobre PostgreSQL.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador de persistencia para ubicaciones.
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// Create persiste una nueva ubicación. Código repetido en la empresa → domain.ErrDuplicate.
func (r *LocationRepo) Create(ctx context.Context, location *entity.Location) error {
	query := `
		INSERT INTO locations (id, company_id, code, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		location.ID, location.CompanyID, location.Code, location.Name, location.Active,
		location.CreatedAt, location.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

// GetByID obtiene una ubicación por ID (nil si no existe).
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	query := `
		SELECT id, company_id, code, name, active, created_at, updated_at
		FROM locations WHERE id = $1`
	var l entity.Location
	err := r.q.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.CompanyID, &l.Code, &l.Name, &l.Active, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classifyError("get location", err)
	}
	return &l, nil
}

// Update actualiza nombre y estado activo. El código no cambia.
func (r *LocationRepo) Update(ctx context.Context, location *entity.Location) error {
	query := `
		UPDATE locations SET name = $2, active = $3, updated_at = $4
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, location.ID, location.Name, location.Active, location.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByCompany lista ubicaciones por empresa con paginación, ordenadas por código.
func (r *LocationRepo) ListByCompany(ctx context.Context, companyID string, activeOnly bool, limit, offset int) ([]*entity.Location, error) {
	query := `
		SELECT id, company_id, code, name, active, created_at, updated_at
		FROM locations
		WHERE company_id = $1 AND ($2 = FALSE OR active)
		ORDER BY code LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, companyID, activeOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Location
	for rows.Next() {
		var l entity.Location
		if err := rows.Scan(&l.ID, &l.CompanyID, &l.Code, &l.Name, &l.Active, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
