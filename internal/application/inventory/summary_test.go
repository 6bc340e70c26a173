package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

func ptr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func seedSummary(t *testing.T) (*memory.Store, *inventory.SummaryUseCase) {
	t.Helper()
	store := seedStore(t)
	store.SaveProduct(&entity.Product{ID: productID, CompanyID: companyID, SKU: "B-001", Name: "Tornillo", ManageStock: true,
		MinStock: ptr(10), Cost: dec(2), Price: dec(5)})
	store.SaveProduct(&entity.Product{ID: "prod-2", CompanyID: companyID, SKU: "A-001", Name: "Tuerca", ManageStock: true,
		MinStock: ptr(1), Cost: dec(1), Price: dec(3)})
	store.SaveProduct(&entity.Product{ID: "prod-3", CompanyID: companyID, SKU: "C-001", Name: "Arandela", ManageStock: true})

	p := newProcessor(store, nil, inventory.DefaultProcessorConfig())
	ctx := context.Background()
	for _, r := range []inventory.MovementRequest{
		inventory.EntryRequest{MovementMeta: meta(), ProductID: productID, LocationID: locL1, Quantity: dec(6)},
		inventory.EntryRequest{MovementMeta: meta(), ProductID: productID, LocationID: locL2, Quantity: dec(3)},
		inventory.EntryRequest{MovementMeta: meta(), ProductID: "prod-2", LocationID: locL2, Quantity: dec(20)},
	} {
		_, err := p.Apply(ctx, r)
		require.NoError(t, err)
	}
	return store, inventory.NewSummaryUseCase(store.Products(), store.Stock())
}

func TestSummarize_TodasLasUbicaciones(t *testing.T) {
	_, uc := seedSummary(t)

	out, err := uc.Summarize(context.Background(), companyID, inventory.SummaryFilter{})
	require.NoError(t, err)
	require.Len(t, out.Products, 3, "los productos sin inventario no aparecen")

	assert.Equal(t, "A-001", out.Products[0].SKU, "ordenado por SKU")
	assert.Equal(t, string(entity.StockStatusNormal), out.Products[0].Status)

	tornillo := out.Products[1]
	assert.True(t, tornillo.Quantity.Equal(dec(9)))
	assert.Equal(t, string(entity.StockStatusLow), tornillo.Status)
	assert.True(t, tornillo.StockValue.Equal(dec(18)))
	assert.True(t, tornillo.SaleValue.Equal(dec(45)))

	arandela := out.Products[2]
	assert.True(t, arandela.Quantity.IsZero())
	assert.Equal(t, string(entity.StockStatusOutOfStock), arandela.Status)

	assert.Equal(t, 3, out.Totals.TotalProducts)
	assert.True(t, out.Totals.TotalStockValue.Equal(dec(38)))
	assert.True(t, out.Totals.TotalSaleValue.Equal(dec(105)))
	assert.Equal(t, 1, out.Totals.LowStockCount)
	assert.Equal(t, 1, out.Totals.OutOfStockCount)
}

func TestSummarize_PorUbicacionYEstado(t *testing.T) {
	_, uc := seedSummary(t)
	ctx := context.Background()

	out, err := uc.Summarize(ctx, companyID, inventory.SummaryFilter{LocationID: locL1})
	require.NoError(t, err)
	byID := map[string]string{}
	for _, p := range out.Products {
		byID[p.ProductID] = p.Status
	}
	assert.Equal(t, string(entity.StockStatusOutOfStock), byID["prod-2"], "prod-2 no tiene stock en L1")
	assert.Equal(t, string(entity.StockStatusLow), byID[productID])

	out, err = uc.Summarize(ctx, companyID, inventory.SummaryFilter{Status: entity.StockStatusLow})
	require.NoError(t, err)
	require.Len(t, out.Products, 1)
	assert.Equal(t, productID, out.Products[0].ProductID)
	assert.Equal(t, 1, out.Totals.TotalProducts, "los totales siguen al filtro de estado")
	assert.True(t, out.Totals.TotalStockValue.Equal(dec(18)))

	_, err = uc.Summarize(ctx, companyID, inventory.SummaryFilter{Status: "MUCHO"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Summarize(ctx, "", inventory.SummaryFilter{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetStock(t *testing.T) {
	_, uc := seedSummary(t)
	ctx := context.Background()

	out, err := uc.GetStock(ctx, companyID, productID, locL1)
	require.NoError(t, err)
	assert.True(t, out.Quantity.Equal(dec(6)))
	assert.Equal(t, string(entity.StockStatusLow), out.Status)
	assert.NotNil(t, out.UpdatedAt)

	out, err = uc.GetStock(ctx, companyID, "prod-3", locL1)
	require.NoError(t, err)
	assert.True(t, out.Quantity.IsZero(), "sin registro = stock cero")
	assert.Nil(t, out.UpdatedAt)

	_, err = uc.GetStock(ctx, "company-2", productID, locL1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
