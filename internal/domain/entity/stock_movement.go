package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento de inventario (enumeración cerrada).
type MovementType string

const (
	MovementTypeEntry      MovementType = "ENTRY"      // entrada
	MovementTypeExit       MovementType = "EXIT"       // salida
	MovementTypeAdjustment MovementType = "ADJUSTMENT" // ajuste a cantidad absoluta
	MovementTypeReturn     MovementType = "RETURN"     // devolución
	MovementTypeLoss       MovementType = "LOSS"       // merma / pérdida
	MovementTypeTransfer   MovementType = "TRANSFER"   // traslado entre ubicaciones
)

// MovementTypes lista todos los tipos válidos.
var MovementTypes = []MovementType{
	MovementTypeEntry, MovementTypeExit, MovementTypeAdjustment,
	MovementTypeReturn, MovementTypeLoss, MovementTypeTransfer,
}

// ParseMovementType convierte un string al tipo; ok=false si no pertenece a la enumeración.
func ParseMovementType(s string) (MovementType, bool) {
	t := MovementType(s)
	return t, t.IsValid()
}

// IsValid indica si el tipo pertenece a la enumeración.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeEntry, MovementTypeExit, MovementTypeAdjustment,
		MovementTypeReturn, MovementTypeLoss, MovementTypeTransfer:
		return true
	}
	return false
}

// MovementEntry registro inmutable del ledger. Una vez agregado nunca se actualiza ni se borra;
// las correcciones son movimientos nuevos.
// Un TRANSFER genera dos entradas (EXIT en origen, ENTRY en destino) con el mismo TransferID.
type MovementEntry struct {
	ID             string
	Seq            int64 // asignado por el ledger, desempata CreatedAt
	CompanyID      string
	ProductID      string
	LocationID     string
	Type           MovementType
	Quantity       decimal.Decimal // tal como se envió; en ADJUSTMENT es la cantidad objetivo
	PreviousStock  decimal.Decimal
	NewStock       decimal.Decimal
	Reason         string
	Reference      string
	DocumentID     string // referencia a un documento externo, nunca su contenido
	TransferID     string
	IdempotencyKey string
	CreatedAt      time.Time
	CreatedBy      string // actor
}

// Clone devuelve una copia para entregar fuera del almacenamiento.
func (m *MovementEntry) Clone() *MovementEntry {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}
