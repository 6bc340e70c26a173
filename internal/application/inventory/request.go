package inventory

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// MovementMeta datos comunes a toda solicitud. CompanyID y ActorID vienen siempre explícitos
// del caller (token), nunca de estado global.
type MovementMeta struct {
	CompanyID      string
	ActorID        string
	Reason         string
	Reference      string
	DocumentID     string
	IdempotencyKey string
}

func (m MovementMeta) meta() MovementMeta { return m }

// MovementRequest conjunto cerrado de solicitudes de movimiento. Solo los tipos de este paquete
// la implementan: EntryRequest, ExitRequest, ReturnRequest, LossRequest, AdjustmentRequest y
// TransferRequest.
type MovementRequest interface {
	Type() entity.MovementType
	meta() MovementMeta
	plan() (movementPlan, error)
}

// EntryRequest entrada de mercancía (suma).
type EntryRequest struct {
	MovementMeta
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal
}

// ExitRequest salida de mercancía (resta, requiere stock suficiente).
type ExitRequest struct {
	MovementMeta
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal
}

// ReturnRequest devolución (suma).
type ReturnRequest struct {
	MovementMeta
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal
}

// LossRequest merma o pérdida (resta, requiere stock suficiente).
type LossRequest struct {
	MovementMeta
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal
}

// AdjustmentRequest fija el stock en TargetQuantity (valor absoluto, no delta).
type AdjustmentRequest struct {
	MovementMeta
	ProductID      string
	LocationID     string
	TargetQuantity decimal.Decimal
}

// TransferRequest traslado entre dos ubicaciones distintas: EXIT en origen y ENTRY en destino.
type TransferRequest struct {
	MovementMeta
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       decimal.Decimal
}

func (EntryRequest) Type() entity.MovementType      { return entity.MovementTypeEntry }
func (ExitRequest) Type() entity.MovementType       { return entity.MovementTypeExit }
func (ReturnRequest) Type() entity.MovementType     { return entity.MovementTypeReturn }
func (LossRequest) Type() entity.MovementType       { return entity.MovementTypeLoss }
func (AdjustmentRequest) Type() entity.MovementType { return entity.MovementTypeAdjustment }
func (TransferRequest) Type() entity.MovementType   { return entity.MovementTypeTransfer }

// leg un cambio sobre una sola llave de stock.
type leg struct {
	LocationID string
	Type       entity.MovementType
	Quantity   decimal.Decimal
}

// movementPlan solicitud validada y descompuesta en tramos, en orden semántico (origen primero).
type movementPlan struct {
	Type      entity.MovementType
	ProductID string
	Quantity  decimal.Decimal
	Legs      []leg
}

func (p movementPlan) keys(companyID string) []entity.StockKey {
	keys := make([]entity.StockKey, 0, len(p.Legs))
	for _, l := range p.Legs {
		keys = append(keys, entity.StockKey{CompanyID: companyID, ProductID: p.ProductID, LocationID: l.LocationID})
	}
	return keys
}

func deltaPlan(t entity.MovementType, productID, locationID string, qty decimal.Decimal) (movementPlan, error) {
	if strings.TrimSpace(productID) == "" || strings.TrimSpace(locationID) == "" {
		return movementPlan{}, domain.ErrInvalidMovement
	}
	if !qty.IsPositive() || !inventory.ValidQuantity(qty) {
		return movementPlan{}, domain.ErrInvalidQuantity
	}
	return movementPlan{
		Type:      t,
		ProductID: productID,
		Quantity:  qty,
		Legs:      []leg{{LocationID: locationID, Type: t, Quantity: qty}},
	}, nil
}

func (r EntryRequest) plan() (movementPlan, error) {
	return deltaPlan(r.Type(), r.ProductID, r.LocationID, r.Quantity)
}

func (r ExitRequest) plan() (movementPlan, error) {
	return deltaPlan(r.Type(), r.ProductID, r.LocationID, r.Quantity)
}

func (r ReturnRequest) plan() (movementPlan, error) {
	return deltaPlan(r.Type(), r.ProductID, r.LocationID, r.Quantity)
}

func (r LossRequest) plan() (movementPlan, error) {
	return deltaPlan(r.Type(), r.ProductID, r.LocationID, r.Quantity)
}

func (r AdjustmentRequest) plan() (movementPlan, error) {
	if strings.TrimSpace(r.ProductID) == "" || strings.TrimSpace(r.LocationID) == "" {
		return movementPlan{}, domain.ErrInvalidMovement
	}
	if r.TargetQuantity.IsNegative() || !inventory.ValidQuantity(r.TargetQuantity) {
		return movementPlan{}, domain.ErrInvalidQuantity
	}
	return movementPlan{
		Type:      r.Type(),
		ProductID: r.ProductID,
		Quantity:  r.TargetQuantity,
		Legs:      []leg{{LocationID: r.LocationID, Type: r.Type(), Quantity: r.TargetQuantity}},
	}, nil
}

func (r TransferRequest) plan() (movementPlan, error) {
	if strings.TrimSpace(r.ProductID) == "" || strings.TrimSpace(r.FromLocationID) == "" || strings.TrimSpace(r.ToLocationID) == "" {
		return movementPlan{}, domain.ErrInvalidMovement
	}
	if r.FromLocationID == r.ToLocationID {
		return movementPlan{}, domain.ErrInvalidMovement
	}
	if !r.Quantity.IsPositive() || !inventory.ValidQuantity(r.Quantity) {
		return movementPlan{}, domain.ErrInvalidQuantity
	}
	return movementPlan{
		Type:      r.Type(),
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		Legs: []leg{
			{LocationID: r.FromLocationID, Type: entity.MovementTypeExit, Quantity: r.Quantity},
			{LocationID: r.ToLocationID, Type: entity.MovementTypeEntry, Quantity: r.Quantity},
		},
	}, nil
}

// fingerprint identifica el contenido de la solicitud para detectar reutilización de una
// clave de idempotencia con datos distintos.
func fingerprint(m MovementMeta, p movementPlan) string {
	var b strings.Builder
	b.WriteString(string(p.Type))
	b.WriteByte('|')
	b.WriteString(p.ProductID)
	for _, l := range p.Legs {
		b.WriteByte('|')
		b.WriteString(l.LocationID)
		b.WriteByte(':')
		b.WriteString(string(l.Type))
	}
	b.WriteByte('|')
	b.WriteString(p.Quantity.String())
	b.WriteByte('|')
	b.WriteString(m.Reason)
	b.WriteByte('|')
	b.WriteString(m.Reference)
	b.WriteByte('|')
	b.WriteString(m.DocumentID)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
