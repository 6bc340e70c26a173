package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord es la cantidad actual de un producto en una ubicación.
// Se crea en el primer movimiento con cantidad 0; solo el procesador de movimientos la modifica.
type StockRecord struct {
	CompanyID  string
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal
	UpdatedAt  time.Time
}

// Key devuelve la llave compuesta del registro.
func (s *StockRecord) Key() StockKey {
	return StockKey{CompanyID: s.CompanyID, ProductID: s.ProductID, LocationID: s.LocationID}
}

// StockKey identifica un registro de stock (empresa, producto, ubicación).
type StockKey struct {
	CompanyID  string
	ProductID  string
	LocationID string
}

// String devuelve la forma canónica "empresa/producto/ubicación".
func (k StockKey) String() string {
	return k.CompanyID + "/" + k.ProductID + "/" + k.LocationID
}

// Less ordena llaves lexicográficamente por sus componentes.
func (k StockKey) Less(o StockKey) bool {
	if k.CompanyID != o.CompanyID {
		return k.CompanyID < o.CompanyID
	}
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	return k.LocationID < o.LocationID
}

// StockStatus clasificación de salud del stock.
type StockStatus string

const (
	StockStatusNormal     StockStatus = "NORMAL"
	StockStatusLow        StockStatus = "LOW_STOCK"
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
)

// IsValid indica si el estado pertenece a la enumeración.
func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusNormal, StockStatusLow, StockStatusOutOfStock:
		return true
	}
	return false
}
