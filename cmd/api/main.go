package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-ledger/internal/application/events"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/catalog"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/kafka"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/resilience"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/jhoicas/stock-ledger/pkg/metrics"
)

// storage agrupa los puertos que entrega cada backend.
type storage struct {
	txRunner  inventory.TxRunner
	products  repository.ProductRepository
	locations repository.LocationRepository
	stock     repository.StockReader
	movements repository.MovementReader
	outbox    repository.OutboxStore
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	var store *storage
	switch cfg.Storage.Driver {
	case "memory":
		store, err = newMemoryStorage(cfg)
	default:
		store, err = newPostgresStorage(ctx, cfg)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	m := metrics.New("stock_ledger")

	txRunner := store.txRunner
	if cfg.Breaker.Enabled {
		bcfg := resilience.DefaultBreakerConfig()
		bcfg.FailureThreshold = cfg.Breaker.FailureThreshold
		bcfg.Timeout = cfg.Breaker.OpenTimeout
		txRunner = resilience.NewBreakerTxRunner(txRunner, bcfg, log.Component("breaker"))
	}

	processor := inventory.NewMovementProcessor(
		txRunner,
		store.products,
		store.locations,
		inventory.ProcessorConfig{
			MaxAttempts:  cfg.Ledger.MaxAttempts,
			RetryBackoff: cfg.Ledger.RetryBackoff,
			EmitEvents:   cfg.Kafka.Enabled(),
		},
		log.Zerolog(),
		inventory.WithRecorder(m),
	)
	historyUC := inventory.NewHistoryUseCase(store.movements)
	summaryUC := inventory.NewSummaryUseCase(store.products, store.stock)
	locationUC := usecase.NewLocationUseCase(store.locations)

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	relayDone := make(chan struct{})
	if cfg.Kafka.Enabled() {
		publisher := kafka.NewPublisher(kafka.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		relay := events.NewRelay(store.outbox, publisher, events.RelayConfig{
			PollInterval: cfg.Outbox.PollInterval,
			BatchSize:    cfg.Outbox.BatchSize,
		}, log.Zerolog(), m)
		go func() {
			defer close(relayDone)
			relay.Run(relayCtx)
			if err := publisher.Close(); err != nil {
				log.Warn().Err(err).Msg("cerrar publisher kafka")
			}
		}()
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("relay de outbox activo")
	} else {
		close(relayDone)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http"), m))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Processor:  processor,
		History:    historyUC,
		Summary:    summaryUC,
		LocationUC: locationUC,
		JWTSecret:  cfg.JWT.Secret,
		JWTIssuer:  cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	stopRelay()
	select {
	case <-relayDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("relay de outbox no terminó a tiempo")
	}

	log.Info().Msg("aplicación detenida")
}

func newPostgresStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &storage{
		txRunner:  postgres.NewTxRunner(pool, cfg.DB.LockTimeout),
		products:  postgres.NewProductRepository(pool),
		locations: postgres.NewLocationRepository(pool),
		stock:     postgres.NewStockRepository(pool),
		movements: postgres.NewMovementRepository(pool),
		outbox:    postgres.NewOutboxRepository(pool),
		close:     pool.Close,
	}, nil
}

func newMemoryStorage(cfg *config.Config) (*storage, error) {
	store := memory.NewStore(cfg.DB.LockTimeout)
	if cfg.Storage.CatalogFile != "" {
		f, err := os.Open(cfg.Storage.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("abrir catálogo: %w", err)
		}
		defer f.Close()
		products, err := catalog.Load(f, catalog.Options{
			CompanyID: cfg.Storage.CatalogCompanyID,
			Latin1:    cfg.Storage.CatalogLatin1,
		})
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			store.SaveProduct(p)
		}
	}
	return &storage{
		txRunner:  memory.NewTxRunner(store),
		products:  store.Products(),
		locations: store.Locations(),
		stock:     store.Stock(),
		movements: store.Movements(),
		outbox:    store,
		close:     func() {},
	}, nil
}
