package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger append-only sobre PostgreSQL (usable con pool o tx).
// La tabla tiene un trigger que rechaza UPDATE y DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `m.id, m.seq, m.company_id, m.product_id, m.location_id, m.type, m.quantity,
	m.previous_stock, m.new_stock, m.reason, m.reference, m.document_id, m.transfer_id,
	m.idempotency_key, m.created_at, m.created_by`

// Append inserta la entrada; asigna ID y CreatedAt si faltan y toma Seq de la base.
func (r *MovementRepo) Append(ctx context.Context, m *entity.MovementEntry) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO stock_movements (id, company_id, product_id, location_id, type, quantity,
			previous_stock, new_stock, reason, reference, document_id, transfer_id,
			idempotency_key, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.CompanyID, m.ProductID, m.LocationID, string(m.Type), m.Quantity,
		m.PreviousStock, m.NewStock, nullString(m.Reason), nullString(m.Reference),
		nullString(m.DocumentID), nullString(m.TransferID), nullString(m.IdempotencyKey),
		m.CreatedAt, nullString(m.CreatedBy),
	).Scan(&m.Seq)
	if err != nil {
		return classifyError("append movement", err)
	}
	return nil
}

// GetByID obtiene una entrada por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.MovementEntry, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements m WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, classifyError("get movement", err)
	}
	return m, nil
}

// ListByIDs devuelve las entradas en el orden de ids.
func (r *MovementRepo) ListByIDs(ctx context.Context, companyID string, ids []string) ([]*entity.MovementEntry, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+movementColumns+` FROM stock_movements m WHERE m.company_id = $1 AND m.id = ANY($2)`,
		companyID, ids)
	if err != nil {
		return nil, classifyError("list movements by id", err)
	}
	byID, err := collectMovements(rows)
	if err != nil {
		return nil, err
	}
	index := make(map[string]*entity.MovementEntry, len(byID))
	for _, m := range byID {
		index[m.ID] = m
	}
	out := make([]*entity.MovementEntry, 0, len(ids))
	for _, id := range ids {
		if m, ok := index[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// List historial filtrado, ordenado por created_at, seq con paginación keyset.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.MovementEntry, error) {
	var (
		where = []string{"m.company_id = $1", "m.product_id = $2"}
		args  = []any{f.CompanyID, f.ProductID}
		join  string
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.LocationID != "" {
		where = append(where, "m.location_id = "+arg(f.LocationID))
	}
	if len(f.Types) > 0 {
		var (
			types     []string
			transfers bool
		)
		for _, t := range f.Types {
			if t == entity.MovementTypeTransfer {
				transfers = true
				continue
			}
			types = append(types, string(t))
		}
		var or []string
		if len(types) > 0 {
			or = append(or, "m.type = ANY("+arg(types)+")")
		}
		if transfers {
			or = append(or, "m.transfer_id IS NOT NULL")
		}
		where = append(where, "("+strings.Join(or, " OR ")+")")
	}
	if f.From != nil {
		where = append(where, "m.created_at >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "m.created_at <= "+arg(*f.To))
	}
	if f.LocationActive != nil {
		join = " JOIN locations l ON l.id = m.location_id"
		where = append(where, "l.active = "+arg(*f.LocationActive))
	}
	if f.After != nil {
		where = append(where, "(m.created_at, m.seq) > ("+arg(f.After.CreatedAt)+", "+arg(f.After.Seq)+")")
	}
	query := `SELECT ` + movementColumns + ` FROM stock_movements m` + join +
		` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY m.created_at, m.seq`
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError("list movements", err)
	}
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]*entity.MovementEntry, error) {
	defer rows.Close()
	var list []*entity.MovementEntry
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.MovementEntry, error) {
	var m entity.MovementEntry
	var typ string
	var reason, reference, documentID, transferID, idemKey, createdBy *string
	if err := row.Scan(
		&m.ID, &m.Seq, &m.CompanyID, &m.ProductID, &m.LocationID, &typ, &m.Quantity,
		&m.PreviousStock, &m.NewStock, &reason, &reference, &documentID, &transferID,
		&idemKey, &m.CreatedAt, &createdBy,
	); err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	m.Reason = derefString(reason)
	m.Reference = derefString(reference)
	m.DocumentID = derefString(documentID)
	m.TransferID = derefString(transferID)
	m.IdempotencyKey = derefString(idemKey)
	m.CreatedBy = derefString(createdBy)
	return &m, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
