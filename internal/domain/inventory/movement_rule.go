package inventory

import (
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// QuantityScale decimales que admiten las columnas NUMERIC(18,4) del ledger.
const QuantityScale = 4

// maxQuantity cota exclusiva de la parte entera de NUMERIC(18,4).
var maxQuantity = decimal.New(1, 14)

// ValidQuantity indica si la cantidad se puede persistir sin redondeo ni desborde.
func ValidQuantity(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(QuantityScale)) && q.Abs().LessThan(maxQuantity)
}

// ResultingQuantity aplica la regla del tipo de movimiento sobre el stock previo (servicio de dominio).
//
//	ENTRY, RETURN: previo + cantidad
//	EXIT, LOSS:    previo - cantidad, requiere previo >= cantidad
//	ADJUSTMENT:    cantidad (valor absoluto, >= 0)
//
// TRANSFER no tiene regla propia: se descompone en un EXIT y un ENTRY.
func ResultingQuantity(t entity.MovementType, previous, quantity decimal.Decimal) (decimal.Decimal, error) {
	if !ValidQuantity(quantity) {
		return decimal.Zero, domain.ErrInvalidQuantity
	}
	next, err := applyRule(t, previous, quantity)
	if err != nil {
		return decimal.Zero, err
	}
	if !ValidQuantity(next) {
		return decimal.Zero, domain.ErrInvalidQuantity
	}
	return next, nil
}

func applyRule(t entity.MovementType, previous, quantity decimal.Decimal) (decimal.Decimal, error) {
	switch t {
	case entity.MovementTypeEntry, entity.MovementTypeReturn:
		if !quantity.IsPositive() {
			return decimal.Zero, domain.ErrInvalidQuantity
		}
		return previous.Add(quantity), nil
	case entity.MovementTypeExit, entity.MovementTypeLoss:
		if !quantity.IsPositive() {
			return decimal.Zero, domain.ErrInvalidQuantity
		}
		if previous.LessThan(quantity) {
			return decimal.Zero, domain.ErrInsufficientStock
		}
		return previous.Sub(quantity), nil
	case entity.MovementTypeAdjustment:
		if quantity.IsNegative() {
			return decimal.Zero, domain.ErrInvalidQuantity
		}
		return quantity, nil
	}
	return decimal.Zero, domain.ErrInvalidMovement
}

// SortKeys ordena las llaves de stock de forma determinista. Todo bloqueo de varias llaves
// debe tomarse en este orden para evitar interbloqueos entre traslados en sentidos opuestos.
func SortKeys(keys []entity.StockKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
