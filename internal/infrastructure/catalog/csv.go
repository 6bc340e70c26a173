// Package catalog importa el catálogo de productos exportado por el sistema de catálogo
// (CSV) para sincronizar la vista de solo lectura que usa el ledger.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Columnas esperadas en la cabecera. id es opcional: sin id se deriva uno estable de empresa+sku.
var requiredColumns = []string{"sku", "name", "manage_stock", "cost", "price"}

// productNamespace espacio para los UUID v5 de productos sin id.
var productNamespace = uuid.MustParse("6f1c7f3e-9a63-4b7e-9a9f-2f3c5b0d8e41")

// Options opciones de lectura.
type Options struct {
	CompanyID string
	Latin1    bool // el archivo viene en ISO-8859-1 (exportes de hojas de cálculo)
	Now       time.Time
}

// Load lee el CSV y devuelve los productos de la empresa. Filas con error abortan la carga
// indicando el número de línea.
func Load(r io.Reader, opts Options) ([]*entity.Product, error) {
	if opts.CompanyID == "" {
		return nil, errors.New("catalog: company_id requerido")
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	if opts.Latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: leer cabecera: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("catalog: falta la columna %q", c)
		}
	}

	var out []*entity.Product
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("catalog: línea %d: %w", line, err)
		}
		p, err := parseRow(rec, cols, opts)
		if err != nil {
			return nil, fmt.Errorf("catalog: línea %d: %w", line, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func parseRow(rec []string, cols map[string]int, opts Options) (*entity.Product, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	sku := get("sku")
	if sku == "" {
		return nil, errors.New("sku vacío")
	}
	manage, err := strconv.ParseBool(get("manage_stock"))
	if err != nil {
		return nil, fmt.Errorf("manage_stock: %w", err)
	}
	cost, err := decimal.NewFromString(get("cost"))
	if err != nil {
		return nil, fmt.Errorf("cost: %w", err)
	}
	price, err := decimal.NewFromString(get("price"))
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	minStock, err := optionalDecimal(get("min_stock"))
	if err != nil {
		return nil, fmt.Errorf("min_stock: %w", err)
	}
	maxStock, err := optionalDecimal(get("max_stock"))
	if err != nil {
		return nil, fmt.Errorf("max_stock: %w", err)
	}
	id := get("id")
	if id == "" {
		id = uuid.NewSHA1(productNamespace, []byte(opts.CompanyID+"/"+sku)).String()
	}
	return &entity.Product{
		ID:          id,
		CompanyID:   opts.CompanyID,
		SKU:         sku,
		Name:        get("name"),
		ManageStock: manage,
		MinStock:    minStock,
		MaxStock:    maxStock,
		Cost:        cost,
		Price:       price,
		CreatedAt:   opts.Now,
		UpdatedAt:   opts.Now,
	}, nil
}

func optionalDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
