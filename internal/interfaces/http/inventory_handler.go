package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// HeaderIdempotencyKey cabecera opcional para reintentos seguros de POST /movements.
const HeaderIdempotencyKey = "Idempotency-Key"

// InventoryHandler maneja las peticiones HTTP de movimientos y stock (protegido).
type InventoryHandler struct {
	processor *inventory.MovementProcessor
	history   *inventory.HistoryUseCase
	summary   *inventory.SummaryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(processor *inventory.MovementProcessor, history *inventory.HistoryUseCase, summary *inventory.SummaryUseCase) *InventoryHandler {
	return &InventoryHandler{processor: processor, history: history, summary: summary}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  ENTRY/RETURN suman, EXIT/LOSS restan, ADJUSTMENT fija la cantidad absoluta,
//
//	TRANSFER mueve entre dos ubicaciones (dos entradas con el mismo transfer_id).
//
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                       false  "Clave de idempotencia"
// @Param        body             body    dto.RegisterMovementRequest  true   "Movimiento"
// @Success      201  {object}  dto.RegisterMovementResponse
// @Success      200  {object}  dto.RegisterMovementResponse  "Reproducción de una clave ya aplicada"
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	if fields := validateStruct(in); fields != nil {
		return validationError(c, fields)
	}
	idemKey := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
	if len(idemKey) > 128 {
		return validationError(c, map[string]string{HeaderIdempotencyKey: "max"})
	}

	out, err := h.processor.RegisterMovementFromRequest(c.UserContext(), companyID, userID, idemKey, in)
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusCreated
	if out.Replayed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(out)
}

// History godoc
// @Summary      Historial de movimientos de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id       query  string  true   "Producto"
// @Param        location_id      query  string  false  "Ubicación"
// @Param        type             query  string  false  "Tipos separados por coma"
// @Param        from             query  string  false  "Desde (RFC3339)"
// @Param        to               query  string  false  "Hasta (RFC3339)"
// @Param        location_active  query  bool    false  "Solo ubicaciones activas / inactivas"
// @Param        after            query  string  false  "Cursor de la página anterior"
// @Param        limit            query  int     false  "Tamaño de página"  default(50)
// @Success      200  {object}  dto.MovementHistoryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) History(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
	}
	q := inventory.HistoryQuery{
		CompanyID:  companyID,
		ProductID:  c.Query("product_id"),
		LocationID: c.Query("location_id"),
		Cursor:     c.Query("after"),
		Limit:      c.QueryInt("limit", 0),
	}
	if q.ProductID == "" {
		return validationError(c, map[string]string{"product_id": "required"})
	}
	if raw := c.Query("type"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			t, ok := entity.ParseMovementType(strings.ToUpper(strings.TrimSpace(s)))
			if !ok {
				return validationError(c, map[string]string{"type": "oneof"})
			}
			q.Types = append(q.Types, t)
		}
	}
	var err error
	if q.From, err = parseTimeQuery(c, "from"); err != nil {
		return validationError(c, map[string]string{"from": "datetime"})
	}
	if q.To, err = parseTimeQuery(c, "to"); err != nil {
		return validationError(c, map[string]string{"to": "datetime"})
	}
	switch c.Query("location_active") {
	case "":
	case "true":
		v := true
		q.LocationActive = &v
	case "false":
		v := false
		q.LocationActive = &v
	default:
		return validationError(c, map[string]string{"location_active": "boolean"})
	}

	page, err := h.history.Page(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.MovementHistoryResponse{Items: make([]dto.MovementEntryResponse, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, e := range page.Items {
		out.Items = append(out.Items, inventory.ToEntryResponse(e))
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Resumen de stock y valorización
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  false  "Ubicación (vacío = todas)"
// @Param        status       query  string  false  "NORMAL | LOW_STOCK | OUT_OF_STOCK"
// @Success      200  {object}  dto.StockSummaryDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/summary [get]
func (h *InventoryHandler) Summary(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
	}
	f := inventory.SummaryFilter{
		LocationID: c.Query("location_id"),
		Status:     entity.StockStatus(strings.ToUpper(c.Query("status"))),
	}
	out, err := h.summary.Summarize(c.UserContext(), companyID, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetStock godoc
// @Summary      Stock actual de un producto en una ubicación
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  true  "Producto"
// @Param        location_id  query  string  true  "Ubicación"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "company_id requerido"})
	}
	productID, locationID := c.Query("product_id"), c.Query("location_id")
	if productID == "" || locationID == "" {
		return validationError(c, map[string]string{"product_id": "required", "location_id": "required"})
	}
	out, err := h.summary.GetStock(c.UserContext(), companyID, productID, locationID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
