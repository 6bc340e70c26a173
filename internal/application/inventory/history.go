package inventory

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// HistoryQuery consulta del historial de un producto. Cursor vacío = desde el inicio.
type HistoryQuery struct {
	CompanyID      string
	ProductID      string
	LocationID     string
	Types          []entity.MovementType
	From           *time.Time
	To             *time.Time
	LocationActive *bool
	Cursor         string
	Limit          int
}

// HistoryPage una página del historial. NextCursor vacío = no hay más entradas.
type HistoryPage struct {
	Items      []*entity.MovementEntry
	NextCursor string
}

// HistoryUseCase lee el ledger sin tomar bloqueos sobre el stock.
type HistoryUseCase struct {
	movements repository.MovementReader
}

// NewHistoryUseCase construye el caso de uso.
func NewHistoryUseCase(movements repository.MovementReader) *HistoryUseCase {
	return &HistoryUseCase{movements: movements}
}

// Page devuelve una página ordenada por created_at ascendente (empates por secuencia).
func (uc *HistoryUseCase) Page(ctx context.Context, q HistoryQuery) (*HistoryPage, error) {
	filter, err := q.filter()
	if err != nil {
		return nil, err
	}
	limit := filter.Limit
	filter.Limit = limit + 1
	items, err := uc.movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := &HistoryPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[limit-1]
		page.NextCursor = EncodeCursor(repository.MovementCursor{CreatedAt: last.CreatedAt, Seq: last.Seq})
	}
	return page, nil
}

// Iterate recorre el historial completo pidiendo páginas bajo demanda. Se puede reiniciar
// desde cualquier cursor y puede terminarse antes rompiendo el range.
func (uc *HistoryUseCase) Iterate(ctx context.Context, q HistoryQuery) iter.Seq2[*entity.MovementEntry, error] {
	return func(yield func(*entity.MovementEntry, error) bool) {
		for {
			page, err := uc.Page(ctx, q)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, e := range page.Items {
				if !yield(e, nil) {
					return
				}
			}
			if page.NextCursor == "" {
				return
			}
			q.Cursor = page.NextCursor
		}
	}
}

func (q HistoryQuery) filter() (repository.MovementFilter, error) {
	if q.CompanyID == "" || strings.TrimSpace(q.ProductID) == "" {
		return repository.MovementFilter{}, domain.ErrInvalidInput
	}
	for _, t := range q.Types {
		if !t.IsValid() {
			return repository.MovementFilter{}, domain.ErrInvalidInput
		}
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return repository.MovementFilter{}, domain.ErrInvalidInput
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	f := repository.MovementFilter{
		CompanyID:      q.CompanyID,
		ProductID:      q.ProductID,
		LocationID:     q.LocationID,
		Types:          q.Types,
		From:           q.From,
		To:             q.To,
		LocationActive: q.LocationActive,
		Limit:          limit,
	}
	if q.Cursor != "" {
		c, err := DecodeCursor(q.Cursor)
		if err != nil {
			return repository.MovementFilter{}, err
		}
		f.After = &c
	}
	return f, nil
}

// EncodeCursor serializa la posición como "<unix_nano>.<seq>".
func EncodeCursor(c repository.MovementCursor) string {
	return strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + "." + strconv.FormatInt(c.Seq, 10)
}

// DecodeCursor interpreta un cursor producido por EncodeCursor.
func DecodeCursor(s string) (repository.MovementCursor, error) {
	ts, seq, ok := strings.Cut(s, ".")
	if !ok {
		return repository.MovementCursor{}, fmt.Errorf("%w: cursor", domain.ErrInvalidInput)
	}
	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return repository.MovementCursor{}, fmt.Errorf("%w: cursor", domain.ErrInvalidInput)
	}
	n, err := strconv.ParseInt(seq, 10, 64)
	if err != nil {
		return repository.MovementCursor{}, fmt.Errorf("%w: cursor", domain.ErrInvalidInput)
	}
	return repository.MovementCursor{CreatedAt: time.Unix(0, nanos).UTC(), Seq: n}, nil
}
