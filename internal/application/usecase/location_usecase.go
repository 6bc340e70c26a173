package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// LocationUseCase casos de uso del registro de ubicaciones. No existe borrado: una ubicación
// se desactiva y su historial se conserva.
type LocationUseCase struct {
	repo repository.LocationRepository
	now  func() time.Time
}

// NewLocationUseCase construye el caso de uso.
func NewLocationUseCase(repo repository.LocationRepository) *LocationUseCase {
	return &LocationUseCase{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// NormalizeCode deja el código sin espacios extremos y en mayúsculas (único por empresa).
func NormalizeCode(code string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}

// Create crea una ubicación activa. Código repetido en la empresa → domain.ErrDuplicate.
func (uc *LocationUseCase) Create(ctx context.Context, companyID string, in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	code := NormalizeCode(in.Code)
	name := strings.TrimSpace(in.Name)
	if companyID == "" || code == "" || name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := uc.now()
	location := &entity.Location{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Code:      code,
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, location); err != nil {
		return nil, err
	}
	return toLocationResponse(location), nil
}

// GetByID obtiene una ubicación de la empresa; de otra empresa se trata como inexistente.
func (uc *LocationUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.LocationResponse, error) {
	location, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toLocationResponse(location), nil
}

// Update cambia nombre y/o estado activo.
func (uc *LocationUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateLocationRequest) (*dto.LocationResponse, error) {
	location, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		location.Name = name
	}
	if in.Active != nil {
		location.Active = *in.Active
	}
	location.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, location); err != nil {
		return nil, err
	}
	return toLocationResponse(location), nil
}

// List lista ubicaciones por empresa con paginación.
func (uc *LocationUseCase) List(ctx context.Context, companyID string, activeOnly bool, limit, offset int) (*dto.LocationListResponse, error) {
	list, err := uc.repo.ListByCompany(ctx, companyID, activeOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LocationResponse, 0, len(list))
	for _, l := range list {
		items = append(items, *toLocationResponse(l))
	}
	return &dto.LocationListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func (uc *LocationUseCase) get(ctx context.Context, companyID, id string) (*entity.Location, error) {
	location, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if location == nil || location.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return location, nil
}

func toLocationResponse(l *entity.Location) *dto.LocationResponse {
	if l == nil {
		return nil
	}
	return &dto.LocationResponse{
		ID:        l.ID,
		CompanyID: l.CompanyID,
		Code:      l.Code,
		Name:      l.Name,
		Active:    l.Active,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}
