// seed_catalog sincroniza la vista de productos del ledger desde un export CSV del catálogo.
//
// Uso: go run ./cmd/seed_catalog <company_id> [ruta/catalogo.csv]
// Por defecto busca catalogo.csv en el directorio actual. La conexión se toma de DATABASE_URL / DB_*.
// Con CATALOG_LATIN1=true el archivo se lee como ISO-8859-1.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jhoicas/stock-ledger/internal/infrastructure/catalog"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: seed_catalog <company_id> [catalogo.csv]")
		os.Exit(2)
	}
	companyID := os.Args[1]
	csvPath := "catalogo.csv"
	if len(os.Args) > 2 {
		csvPath = os.Args[2]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	products, err := catalog.Load(f, catalog.Options{CompanyID: companyID, Latin1: cfg.Storage.CatalogLatin1})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			fmt.Fprintf(os.Stderr, "Migrar esquema: %v\n", err)
			os.Exit(1)
		}
	}

	repo := postgres.NewProductRepository(pool)
	managed := 0
	for _, p := range products {
		if err := repo.Upsert(ctx, p); err != nil {
			fmt.Fprintf(os.Stderr, "Upsert %s: %v\n", p.SKU, err)
			os.Exit(1)
		}
		if p.ManageStock {
			managed++
		}
	}

	fmt.Printf("Sincronizados %d productos (%d con control de stock) para la empresa %s\n", len(products), managed, companyID)
}
