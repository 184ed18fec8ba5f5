package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/production"
)

// ProductionHandler órdenes de producción y fichas técnicas (protegido).
type ProductionHandler struct {
	svc *production.Service
}

// NewProductionHandler construye el handler.
func NewProductionHandler(svc *production.Service) *ProductionHandler {
	return &ProductionHandler{svc: svc}
}

// CreateOrder godoc
// @Summary      Crear orden de producción
// @Tags         production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "Ítems a fabricar"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/production-orders [post]
func (h *ProductionHandler) CreateOrder(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if ok, err := validate(c, in); !ok {
		return err
	}
	items := make([]production.OrderItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, production.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	order, err := h.svc.CreateOrder(c.UserContext(), items)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromOrder(order, nil))
}

// GetOrder godoc
// @Summary      Obtener orden de producción
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/production-orders/{id} [get]
func (h *ProductionHandler) GetOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	detail, err := h.svc.GetOrder(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromOrder(detail.Order, detail.Consumption))
}

// ProcessOrder godoc
// @Summary      Procesar orden (rollup de costos FIFO)
// @Description  Consume la materia prima de todos los ítems según su ficha técnica en una sola transacción y completa la orden.
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la orden"
// @Success      200  {object}  production.RollupResult
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/production-orders/{id}/process [post]
func (h *ProductionHandler) ProcessOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.ProcessOrder(c.UserContext(), id, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// EstimateOrder godoc
// @Summary      Costo estimado de la orden
// @Description  Aproximación con costo promedio ponderado; no consume ni bloquea. El costo real lo fija el procesamiento FIFO.
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la orden"
// @Success      200  {object}  production.OrderEstimate
// @Router       /api/production-orders/{id}/estimate [get]
func (h *ProductionHandler) EstimateOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.EstimateOrderCost(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetBOM godoc
// @Summary      Ficha técnica de un producto
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {object}  dto.BOMResponse
// @Router       /api/products/{id}/bom [get]
func (h *ProductionHandler) GetBOM(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	lines, err := h.svc.BillOfMaterials(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromBOM(id, lines))
}

// SetBOM godoc
// @Summary      Reemplazar ficha técnica
// @Tags         production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID del producto"
// @Param        body  body  dto.BOMRequest  true  "Líneas de la ficha"
// @Success      200   {object}  dto.BOMResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/bom [put]
func (h *ProductionHandler) SetBOM(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.BOMRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if ok, err := validate(c, in); !ok {
		return err
	}
	lines := make([]production.BOMLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, production.BOMLineInput{MaterialID: l.MaterialID, QuantityPerUnit: l.QuantityPerUnit})
	}
	saved, err := h.svc.SetBillOfMaterials(c.UserContext(), id, lines)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromBOM(id, saved))
}
