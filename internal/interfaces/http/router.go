package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Processor  *inventory.MovementProcessor
	History    *inventory.HistoryUseCase
	Summary    *inventory.SummaryUseCase
	LocationUC *usecase.LocationUseCase
	JWTSecret  string
	JWTIssuer  string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	writers := RequireRole(jwt.RoleAdmin, jwt.RoleOperator)
	readers := RequireRole(jwt.RoleAdmin, jwt.RoleOperator, jwt.RoleViewer)

	// Inventario
	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Processor, deps.History, deps.Summary)
	invGroup.Post("/movements", writers, inventoryHandler.RegisterMovement)
	invGroup.Get("/movements", readers, inventoryHandler.History)
	invGroup.Get("/summary", readers, inventoryHandler.Summary)
	invGroup.Get("/stock", readers, inventoryHandler.GetStock)

	// Ubicaciones (escritura solo admin)
	locations := api.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC)
	locations.Post("/", RequireRole(jwt.RoleAdmin), locationHandler.Create)
	locations.Get("/", readers, locationHandler.List)
	locations.Get("/:id", readers, locationHandler.GetByID)
	locations.Put("/:id", RequireRole(jwt.RoleAdmin), locationHandler.Update)
}
