package inventory

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// SummaryFilter filtros del resumen; vacíos = sin filtro.
type SummaryFilter struct {
	LocationID string
	Status     entity.StockStatus
}

// SummaryUseCase agrega stock y valor por producto. Solo lectura.
type SummaryUseCase struct {
	productRepo repository.ProductRepository
	stockRepo   repository.StockReader
}

// NewSummaryUseCase construye el caso de uso.
func NewSummaryUseCase(productRepo repository.ProductRepository, stockRepo repository.StockReader) *SummaryUseCase {
	return &SummaryUseCase{productRepo: productRepo, stockRepo: stockRepo}
}

// Summarize recorre los productos con manejo de inventario, suma su stock (en todas las
// ubicaciones o en la filtrada), clasifica y acumula totales. Los totales cubren solo las
// filas que pasan el filtro de estado.
func (uc *SummaryUseCase) Summarize(ctx context.Context, companyID string, f SummaryFilter) (*dto.StockSummaryDTO, error) {
	if companyID == "" {
		return nil, domain.ErrInvalidInput
	}
	if f.Status != "" && !f.Status.IsValid() {
		return nil, domain.ErrInvalidInput
	}
	products, err := uc.productRepo.ListStockManaged(ctx, companyID)
	if err != nil {
		return nil, err
	}
	records, err := uc.stockRepo.ListByCompany(ctx, companyID, f.LocationID)
	if err != nil {
		return nil, err
	}
	qty := make(map[string]decimal.Decimal, len(records))
	for _, r := range records {
		qty[r.ProductID] = qty[r.ProductID].Add(r.Quantity)
	}

	out := &dto.StockSummaryDTO{
		Products: make([]dto.StockSummaryItemDTO, 0, len(products)),
		Totals: dto.StockTotalsDTO{
			TotalStockValue: decimal.Zero,
			TotalSaleValue:  decimal.Zero,
		},
	}
	for _, p := range products {
		q := qty[p.ID]
		status := inventory.ClassifyStock(q, p.MinStock, p.MaxStock)
		if f.Status != "" && status != f.Status {
			continue
		}
		item := dto.StockSummaryItemDTO{
			ProductID:  p.ID,
			SKU:        p.SKU,
			Name:       p.Name,
			Quantity:   q,
			MinStock:   p.MinStock,
			MaxStock:   p.MaxStock,
			Status:     string(status),
			UnitCost:   p.Cost,
			Price:      p.Price,
			StockValue: q.Mul(p.Cost),
			SaleValue:  q.Mul(p.Price),
		}
		out.Products = append(out.Products, item)
		out.Totals.TotalProducts++
		out.Totals.TotalStockValue = out.Totals.TotalStockValue.Add(item.StockValue)
		out.Totals.TotalSaleValue = out.Totals.TotalSaleValue.Add(item.SaleValue)
		switch status {
		case entity.StockStatusLow:
			out.Totals.LowStockCount++
		case entity.StockStatusOutOfStock:
			out.Totals.OutOfStockCount++
		}
	}
	sort.Slice(out.Products, func(i, j int) bool { return out.Products[i].SKU < out.Products[j].SKU })
	return out, nil
}

// GetStock devuelve el stock actual de un producto en una ubicación con su estado.
func (uc *SummaryUseCase) GetStock(ctx context.Context, companyID, productID, locationID string) (*dto.StockResponse, error) {
	if companyID == "" || productID == "" || locationID == "" {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if product == nil || product.CompanyID != companyID {
		return nil, domain.ErrProductNotFound
	}
	rec, err := uc.stockRepo.Get(ctx, entity.StockKey{CompanyID: companyID, ProductID: productID, LocationID: locationID})
	if err != nil {
		return nil, err
	}
	out := &dto.StockResponse{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   rec.Quantity,
		Status:     string(inventory.ClassifyStock(rec.Quantity, product.MinStock, product.MaxStock)),
	}
	if !rec.UpdatedAt.IsZero() {
		t := rec.UpdatedAt
		out.UpdatedAt = &t
	}
	return out, nil
}
