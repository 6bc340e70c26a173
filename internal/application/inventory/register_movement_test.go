package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestNewMovementRequest_VariantePorTipo(t *testing.T) {
	qty := decimal.NewFromInt(3)
	base := dto.RegisterMovementRequest{ProductID: productID, LocationID: locL1, Quantity: &qty, Reason: "conteo"}

	cases := map[string]entity.MovementType{
		"ENTRY":      entity.MovementTypeEntry,
		"EXIT":       entity.MovementTypeExit,
		"RETURN":     entity.MovementTypeReturn,
		"LOSS":       entity.MovementTypeLoss,
		"ADJUSTMENT": entity.MovementTypeAdjustment,
		"TRANSFER":   entity.MovementTypeTransfer,
	}
	for raw, want := range cases {
		in := base
		in.Type = raw
		req, err := inventory.NewMovementRequest(companyID, actorID, "k", in)
		require.NoError(t, err, raw)
		assert.Equal(t, want, req.Type())
	}

	adj := base
	adj.Type = "ADJUSTMENT"
	req, err := inventory.NewMovementRequest(companyID, actorID, "", adj)
	require.NoError(t, err)
	adjustment, ok := req.(inventory.AdjustmentRequest)
	require.True(t, ok)
	assert.True(t, adjustment.TargetQuantity.Equal(qty))
	assert.Equal(t, "conteo", adjustment.Reason)
}

func TestNewMovementRequest_Invalido(t *testing.T) {
	qty := decimal.NewFromInt(1)
	_, err := inventory.NewMovementRequest(companyID, actorID, "", dto.RegisterMovementRequest{ProductID: productID, LocationID: locL1, Type: "GIFT", Quantity: &qty})
	assert.ErrorIs(t, err, domain.ErrInvalidMovement)

	_, err = inventory.NewMovementRequest(companyID, actorID, "", dto.RegisterMovementRequest{ProductID: productID, LocationID: locL1, Type: "ENTRY"})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestRegisterMovementFromRequest(t *testing.T) {
	store := seedStore(t)
	p := newProcessor(store, nil, inventory.DefaultProcessorConfig())
	qty := decimal.NewFromInt(8)

	out, err := p.RegisterMovementFromRequest(context.Background(), companyID, actorID, "", dto.RegisterMovementRequest{
		ProductID: productID, LocationID: locL1, Type: "ENTRY", Quantity: &qty, DocumentID: "FAC-1",
	})
	require.NoError(t, err)
	require.Len(t, out.Entries, 1)
	assert.False(t, out.Replayed)
	assert.Equal(t, "ENTRY", out.Entries[0].Type)
	assert.Equal(t, "FAC-1", out.Entries[0].DocumentID)
	assert.Equal(t, actorID, out.Entries[0].CreatedBy)
	assert.True(t, out.Entries[0].NewStock.Equal(qty))
}
