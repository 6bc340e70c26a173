package entity

import "time"

// Location representa una ubicación de stock (bodega, sucursal, estante) de una empresa.
// El ledger la referencia pero nunca la modifica; desactivarla no borra historial.
type Location struct {
	ID        string
	CompanyID string
	Code      string // único por empresa, normalizado en mayúsculas
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
