package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// statusByCode código HTTP de cada rechazo del procesador.
var statusByCode = map[string]int{
	inventory.CodeInsufficientStock:      fiber.StatusConflict,
	inventory.CodeProductNotStockManaged: fiber.StatusUnprocessableEntity,
	inventory.CodeProductNotFound:        fiber.StatusNotFound,
	inventory.CodeInvalidLocation:        fiber.StatusUnprocessableEntity,
	inventory.CodeInvalidQuantity:        fiber.StatusBadRequest,
	inventory.CodeInvalidMovement:        fiber.StatusBadRequest,
	inventory.CodeIdempotencyMismatch:    fiber.StatusUnprocessableEntity,
	inventory.CodeTransient:              fiber.StatusServiceUnavailable,
}

// respondError traduce errores de dominio a la respuesta HTTP. Los de validación y negocio se
// devuelven tal cual; los internos sin detalle.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	code := inventory.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: inventory.CodeInternal, Message: "error interno"})
	}
	resp := dto.ErrorResponse{Code: code, Message: err.Error()}
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		resp.Details = map[string]string{
			"product_id":  insufficient.ProductID,
			"location_id": insufficient.LocationID,
			"available":   insufficient.Available.String(),
			"requested":   insufficient.Requested.String(),
		}
	}
	if code == inventory.CodeTransient {
		resp.Message = "almacenamiento no disponible temporalmente, reintente"
		c.Set(fiber.HeaderRetryAfter, "1")
	}
	return c.Status(status).JSON(resp)
}

func validationError(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Details: fields})
}
