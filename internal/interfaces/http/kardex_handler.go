package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	appkardex "github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// KardexHandler movimientos, saldos y reportes del kardex (protegido).
type KardexHandler struct {
	engine       *appkardex.Engine
	reporter     *appkardex.Reporter
	pdf          appkardex.StockCardPDFGenerator
	lookbackDays int
}

// NewKardexHandler construye el handler. lookbackDays es la ventana por defecto de las proyecciones.
func NewKardexHandler(engine *appkardex.Engine, reporter *appkardex.Reporter, pdf appkardex.StockCardPDFGenerator, lookbackDays int) *KardexHandler {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &KardexHandler{engine: engine, reporter: reporter, pdf: pdf, lookbackDays: lookbackDays}
}

func parseReference(kind string, id int64) (entity.Reference, error) {
	k, err := entity.ParseReferenceKind(kind)
	if err != nil {
		return entity.Reference{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return entity.Reference{Kind: k, ID: id}, nil
}

// RegisterEntry godoc
// @Summary      Registrar entrada (lote nuevo)
// @Tags         kardex
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID de la materia prima"
// @Param        body  body  dto.EntryRequest  true  "Cantidad, costo unitario y referencia"
// @Success      201   {object}  appkardex.ReceiptResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/materials/{id}/entries [post]
func (h *KardexHandler) RegisterEntry(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.EntryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if ok, err := validate(c, in); !ok {
		return err
	}
	ref, err := parseReference(in.ReferenceKind, in.ReferenceID)
	if err != nil {
		return writeError(c, err)
	}
	receipt := appkardex.ReceiptInput{
		MaterialID: id,
		Quantity:   in.Quantity,
		UnitCost:   in.UnitCost,
		Reference:  ref,
		SourceRef:  in.SourceRef,
		UserID:     GetUserID(c),
	}
	if in.ReceivedAt != nil {
		receipt.ReceivedAt = *in.ReceivedAt
	}
	out, err := h.engine.ReceiveEntry(c.UserContext(), receipt)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RegisterExit godoc
// @Summary      Registrar salida FIFO
// @Description  Consume los lotes más antiguos primero. 409 INSUFFICIENT_STOCK si no alcanza; en ese caso no se modifica nada.
// @Tags         kardex
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID de la materia prima"
// @Param        body  body  dto.ExitRequest  true  "Cantidad y referencia"
// @Success      201   {object}  appkardex.ExitResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/materials/{id}/exits [post]
func (h *KardexHandler) RegisterExit(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ExitRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if ok, err := validate(c, in); !ok {
		return err
	}
	ref, err := parseReference(in.ReferenceKind, in.ReferenceID)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.engine.ConsumeExit(c.UserContext(), appkardex.ExitInput{
		MaterialID: id,
		Quantity:   in.Quantity,
		Reference:  ref,
		UserID:     GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RegisterWithdrawal godoc
// @Summary      Retiro manual de bodega
// @Tags         kardex
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID de la materia prima"
// @Param        body  body  dto.WithdrawalRequest  true  "Cantidad y número de vale"
// @Success      201   {object}  appkardex.ExitResult
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/materials/{id}/withdrawals [post]
func (h *KardexHandler) RegisterWithdrawal(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.WithdrawalRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if ok, err := validate(c, in); !ok {
		return err
	}
	out, err := h.engine.RegisterWithdrawal(c.UserContext(), id, in.Quantity, in.ReferenceID, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RegisterPurchase godoc
// @Summary      Registrar compra recibida
// @Description  Un lote por línea; si una línea falla no entra ninguna.
// @Tags         kardex
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PurchaseRequest  true  "Compra"
// @Success      201   {array}   appkardex.ReceiptResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/purchases [post]
func (h *KardexHandler) RegisterPurchase(c *fiber.Ctx) error {
	var in dto.PurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if ok, err := validate(c, in); !ok {
		return err
	}
	purchase := appkardex.PurchaseInput{PurchaseID: in.PurchaseID, UserID: GetUserID(c)}
	if in.ReceivedAt != nil {
		purchase.ReceivedAt = *in.ReceivedAt
	}
	for _, l := range in.Lines {
		purchase.Lines = append(purchase.Lines, appkardex.PurchaseLine{
			ItemID:     l.ItemID,
			MaterialID: l.MaterialID,
			Quantity:   l.Quantity,
			UnitCost:   l.UnitCost,
		})
	}
	out, err := h.engine.RegisterPurchase(c.UserContext(), purchase)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Balance godoc
// @Summary      Saldo valorizado
// @Tags         kardex
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la materia prima"
// @Success      200  {object}  kardex.Balance
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/materials/{id}/balance [get]
func (h *KardexHandler) Balance(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.reporter.CurrentBalance(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Forecast godoc
// @Summary      Proyección de agotamiento
// @Tags         kardex
// @Security     Bearer
// @Produce      json
// @Param        id             path   int  true   "ID de la materia prima"
// @Param        lookback_days  query  int  false  "Ventana de consumo en días"  default(30)
// @Success      200  {object}  kardex.Forecast
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/materials/{id}/forecast [get]
func (h *KardexHandler) Forecast(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.reporter.ForecastDepletion(c.UserContext(), id, c.QueryInt("lookback_days", h.lookbackDays))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Alerts godoc
// @Summary      Alertas de reposición
// @Description  Materias primas activas con alerta URGENT/PREVENTIVE o en/bajo el stock mínimo.
// @Tags         kardex
// @Security     Bearer
// @Produce      json
// @Param        lookback_days  query  int  false  "Ventana de consumo en días"  default(30)
// @Success      200  {array}   appkardex.StockAlert
// @Router       /api/kardex/alerts [get]
func (h *KardexHandler) Alerts(c *fiber.Ctx) error {
	out, err := h.reporter.StockAlerts(c.UserContext(), c.QueryInt("lookback_days", h.lookbackDays))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Movimientos del kardex
// @Tags         kardex
// @Security     Bearer
// @Produce      json
// @Param        id         path   int     true   "ID de la materia prima"
// @Param        direction  query  string  false  "ENTRY | EXIT"
// @Param        from       query  string  false  "Desde (RFC3339 o 2006-01-02)"
// @Param        to         query  string  false  "Hasta, inclusive"
// @Param        limit      query  int     false  "Límite"  default(100)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/materials/{id}/movements [get]
func (h *KardexHandler) Movements(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	from, to, err := dateRange(c)
	if err != nil {
		return writeError(c, err)
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 100), Offset: c.QueryInt("offset", 0)}
	if ok, err := validate(c, page); !ok {
		return err
	}
	page.DefaultPage()
	entries, err := h.reporter.ListKardex(c.UserContext(), repository.KardexFilter{
		MaterialID: id,
		From:       from,
		To:         to,
		Direction:  entity.Direction(c.Query("direction")),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.MovementListResponse{
		Items: make([]dto.KardexEntryResponse, 0, len(entries)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Count: len(entries)},
	}
	for _, e := range entries {
		out.Items = append(out.Items, dto.FromKardexEntry(e))
	}
	return c.JSON(out)
}

func dateRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	if from, err = queryTime(c, "from", false); err != nil {
		return nil, nil, err
	}
	if to, err = queryTime(c, "to", true); err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, domain.ErrInvalidInput
	}
	return from, to, nil
}

// StockCard godoc
// @Summary      Tarjeta de kardex
// @Description  Saldo inicial, movimientos del rango con saldo acumulado y saldo final.
// @Tags         kardex
// @Security     Bearer
// @Produce      json
// @Param        id    path   int     true   "ID de la materia prima"
// @Param        from  query  string  false  "Desde"
// @Param        to    query  string  false  "Hasta, inclusive"
// @Success      200  {object}  dto.StockCardResponse
// @Router       /api/materials/{id}/kardex [get]
func (h *KardexHandler) StockCard(c *fiber.Ctx) error {
	card, err := h.stockCard(c)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.StockCardResponse{
		Material: dto.FromMaterial(card.Material),
		From:     card.From,
		To:       card.To,
		Opening:  card.Opening,
		Closing:  card.Closing,
		Lines:    make([]dto.StockCardLineResponse, 0, len(card.Lines)),
	}
	for _, l := range card.Lines {
		out.Lines = append(out.Lines, dto.StockCardLineResponse{KardexEntryResponse: dto.FromKardexEntry(l.Entry), Balance: l.Balance})
	}
	return c.JSON(out)
}

// StockCardPDF godoc
// @Summary      Tarjeta de kardex en PDF
// @Tags         kardex
// @Security     Bearer
// @Produce      application/pdf
// @Param        id    path   int     true   "ID de la materia prima"
// @Param        from  query  string  false  "Desde"
// @Param        to    query  string  false  "Hasta, inclusive"
// @Success      200  {file}  binary
// @Router       /api/materials/{id}/kardex/pdf [get]
func (h *KardexHandler) StockCardPDF(c *fiber.Ctx) error {
	card, err := h.stockCard(c)
	if err != nil {
		return writeError(c, err)
	}
	pdf, err := h.pdf.GenerateStockCardPDF(c.UserContext(), card)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=kardex-%d.pdf", card.Material.ID))
	return c.Send(pdf)
}

func (h *KardexHandler) stockCard(c *fiber.Ctx) (*appkardex.StockCard, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	from, to, err := dateRange(c)
	if err != nil {
		return nil, err
	}
	return h.reporter.StockCard(c.UserContext(), id, from, to)
}

// Lots godoc
// @Summary      Lotes de una materia prima (FIFO)
// @Tags         kardex
// @Security     Bearer
// @Produce      json
// @Param        id   path   int   true   "ID de la materia prima"
// @Param        all  query  bool  false  "Incluir lotes agotados"
// @Success      200  {array}  dto.LotResponse
// @Router       /api/materials/{id}/lots [get]
func (h *KardexHandler) Lots(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	lots, err := h.reporter.ListLots(c.UserContext(), id, !c.QueryBool("all", false))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, dto.FromLot(l))
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Reconciliar acumulado de stock
// @Description  Recalcula el stock de la materia prima desde sus lotes y corrige el acumulado si divergía.
// @Tags         kardex
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la materia prima"
// @Success      200  {object}  appkardex.Reconciliation
// @Router       /api/materials/{id}/reconcile [post]
func (h *KardexHandler) Reconcile(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.engine.ReconcileStock(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
