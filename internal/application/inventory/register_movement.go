package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// NewMovementRequest convierte el body HTTP en la variante de solicitud según su tipo.
// companyID y userID vienen del token; idemKey de la cabecera Idempotency-Key.
func NewMovementRequest(companyID, userID, idemKey string, in dto.RegisterMovementRequest) (MovementRequest, error) {
	meta := MovementMeta{
		CompanyID:      companyID,
		ActorID:        userID,
		Reason:         in.Reason,
		Reference:      in.Reference,
		DocumentID:     in.DocumentID,
		IdempotencyKey: idemKey,
	}
	t, ok := entity.ParseMovementType(in.Type)
	if !ok {
		return nil, domain.ErrInvalidMovement
	}
	if in.Quantity == nil {
		return nil, domain.ErrInvalidQuantity
	}
	qty := *in.Quantity
	switch t {
	case entity.MovementTypeEntry:
		return EntryRequest{MovementMeta: meta, ProductID: in.ProductID, LocationID: in.LocationID, Quantity: qty}, nil
	case entity.MovementTypeExit:
		return ExitRequest{MovementMeta: meta, ProductID: in.ProductID, LocationID: in.LocationID, Quantity: qty}, nil
	case entity.MovementTypeReturn:
		return ReturnRequest{MovementMeta: meta, ProductID: in.ProductID, LocationID: in.LocationID, Quantity: qty}, nil
	case entity.MovementTypeLoss:
		return LossRequest{MovementMeta: meta, ProductID: in.ProductID, LocationID: in.LocationID, Quantity: qty}, nil
	case entity.MovementTypeAdjustment:
		return AdjustmentRequest{MovementMeta: meta, ProductID: in.ProductID, LocationID: in.LocationID, TargetQuantity: qty}, nil
	default:
		return TransferRequest{
			MovementMeta:   meta,
			ProductID:      in.ProductID,
			FromLocationID: in.FromLocationID,
			ToLocationID:   in.ToLocationID,
			Quantity:       qty,
		}, nil
	}
}

// RegisterMovementFromRequest adapta el request HTTP al procesador.
func (p *MovementProcessor) RegisterMovementFromRequest(ctx context.Context, companyID, userID, idemKey string, in dto.RegisterMovementRequest) (*dto.RegisterMovementResponse, error) {
	req, err := NewMovementRequest(companyID, userID, idemKey, in)
	if err != nil {
		return nil, err
	}
	res, err := p.Apply(ctx, req)
	if err != nil {
		return nil, err
	}
	out := &dto.RegisterMovementResponse{Replayed: res.Replayed, Entries: make([]dto.MovementEntryResponse, 0, len(res.Entries))}
	for _, e := range res.Entries {
		out.Entries = append(out.Entries, ToEntryResponse(e))
	}
	return out, nil
}

// ToEntryResponse mapea una entrada del ledger a su DTO.
func ToEntryResponse(e *entity.MovementEntry) dto.MovementEntryResponse {
	return dto.MovementEntryResponse{
		ID:            e.ID,
		ProductID:     e.ProductID,
		LocationID:    e.LocationID,
		Type:          string(e.Type),
		Quantity:      e.Quantity,
		PreviousStock: e.PreviousStock,
		NewStock:      e.NewStock,
		Reason:        e.Reason,
		Reference:     e.Reference,
		DocumentID:    e.DocumentID,
		TransferID:    e.TransferID,
		CreatedAt:     e.CreatedAt,
		CreatedBy:     e.CreatedBy,
	}
}
