package kardex

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/kardex"
	"github.com/jhoicas/Kardex-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// Engine es el motor de consumo FIFO: abre lotes en las entradas y los drena en orden
// de llegada en las salidas, dejando un movimiento de kardex por lote tocado.
//
// Los métodos *InTx operan sobre Repos de una transacción ajena (para componer varias
// salidas en una misma orden de producción); ReceiveEntry y ConsumeExit abren la suya.
type Engine struct {
	tx    TxRunner
	cache BalanceCache
	log   *logger.Logger
	now   func() time.Time
}

// Option configura el motor.
type Option func(*Engine)

// WithCache invalida la caché de saldos después de cada Commit.
func WithCache(c BalanceCache) Option { return func(e *Engine) { e.cache = c } }

// WithLogger asigna el logger del motor.
func WithLogger(l *logger.Logger) Option { return func(e *Engine) { e.log = l } }

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// NewEngine construye el motor.
func NewEngine(tx TxRunner, opts ...Option) *Engine {
	e := &Engine{tx: tx, log: logger.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReceiptInput entrada de materia prima (compra, ajuste positivo).
// ReceivedAt vacío = ahora. SourceRef suele ser el id del ítem de compra.
type ReceiptInput struct {
	MaterialID int64
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	Reference  entity.Reference
	ReceivedAt time.Time
	SourceRef  *int64
	UserID     string
}

// ReceiptResult lote creado por una entrada.
type ReceiptResult struct {
	LotID      int64           `json:"lot_id"`
	MovementID string          `json:"movement_id"`
	MaterialID int64           `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	ReceivedAt time.Time       `json:"received_at"`
}

// ExitInput salida de materia prima (producción, ajuste manual).
type ExitInput struct {
	MaterialID int64
	Quantity   decimal.Decimal
	Reference  entity.Reference
	UserID     string
}

// ExitResult costo de una salida y detalle por lote.
type ExitResult struct {
	MovementID      string          `json:"movement_id"`
	MaterialID      int64           `json:"material_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	BlendedUnitCost decimal.Decimal `json:"blended_unit_cost"`
	Breakdown       []kardex.Draw   `json:"breakdown"`
}

func validateReference(ref entity.Reference) error {
	if !ref.Kind.Valid() {
		return fmt.Errorf("%w: tipo de referencia %d", domain.ErrInvalidInput, uint8(ref.Kind))
	}
	return nil
}

func (in ReceiptInput) validate() error {
	if in.MaterialID <= 0 {
		return domain.ErrInvalidInput
	}
	if !in.Quantity.IsPositive() || !in.UnitCost.IsPositive() {
		return domain.ErrInvalidQuantity
	}
	if !kardex.FitsScale(in.Quantity, kardex.QuantityScale) || !kardex.FitsScale(in.UnitCost, kardex.QuantityScale) {
		return fmt.Errorf("%w: máximo %d decimales", domain.ErrInvalidQuantity, kardex.QuantityScale)
	}
	return validateReference(in.Reference)
}

func (in ExitInput) validate() error {
	if in.MaterialID <= 0 {
		return domain.ErrInvalidInput
	}
	if !in.Quantity.IsPositive() {
		return domain.ErrInvalidQuantity
	}
	if !kardex.FitsScale(in.Quantity, kardex.QuantityScale) {
		return fmt.Errorf("%w: máximo %d decimales", domain.ErrInvalidQuantity, kardex.QuantityScale)
	}
	return validateReference(in.Reference)
}

// ReceiveEntryInTx crea un lote nuevo, registra el movimiento de entrada y suma al acumulado
// de la materia prima, todo con los repos de la transacción del llamador.
func (e *Engine) ReceiveEntryInTx(ctx context.Context, repos Repos, in ReceiptInput) (*ReceiptResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	// Bloquea la materia prima: serializa entradas y salidas del mismo material
	material, err := repos.Materials.GetForUpdate(ctx, in.MaterialID)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, domain.ErrNotFound
	}
	if !material.Active {
		return nil, domain.ErrMaterialInactive
	}

	receivedAt := in.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = e.now()
	}
	lot := &entity.Lot{
		MaterialID:        in.MaterialID,
		OriginalQuantity:  in.Quantity,
		AvailableQuantity: in.Quantity,
		UnitCost:          in.UnitCost,
		ReceivedAt:        receivedAt,
		SourceRef:         in.SourceRef,
	}
	if err := repos.Lots.Create(ctx, lot); err != nil {
		return nil, err
	}

	movementID := uuid.New().String()
	entry := &entity.KardexEntry{
		MovementID: movementID,
		LotID:      lot.ID,
		MaterialID: in.MaterialID,
		Direction:  entity.DirectionEntry,
		Reference:  in.Reference,
		Quantity:   in.Quantity,
		UnitCost:   in.UnitCost,
		CreatedAt:  receivedAt,
		CreatedBy:  in.UserID,
	}
	if err := repos.Kardex.Append(ctx, entry); err != nil {
		return nil, err
	}
	if err := repos.Materials.AdjustStock(ctx, in.MaterialID, in.Quantity); err != nil {
		return nil, err
	}

	return &ReceiptResult{
		LotID:      lot.ID,
		MovementID: movementID,
		MaterialID: in.MaterialID,
		Quantity:   in.Quantity,
		UnitCost:   in.UnitCost,
		ReceivedAt: receivedAt,
	}, nil
}

// ConsumeExitInTx drena lotes en orden FIFO hasta cubrir la cantidad pedida.
//
//  1. Bloquea la materia prima y todos sus lotes con disponible (SELECT FOR UPDATE).
//  2. Si Σdisponible < cantidad retorna InsufficientStockError sin mutar nada.
//  3. Toma min(pendiente, disponible) de cada lote, reduce el lote y registra una salida por lote.
//  4. Si los lotes se agotan antes de cubrir la cantidad retorna LedgerInconsistencyError.
//  5. Descuenta la cantidad del acumulado de la materia prima.
//
// Cualquier error debe abortar la transacción del llamador.
func (e *Engine) ConsumeExitInTx(ctx context.Context, repos Repos, in ExitInput) (*ExitResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	material, err := repos.Materials.GetForUpdate(ctx, in.MaterialID)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, domain.ErrNotFound
	}

	lots, err := repos.Lots.ListAvailableFIFOForUpdate(ctx, in.MaterialID)
	if err != nil {
		return nil, err
	}
	kardex.SortFIFO(lots)

	available := kardex.TotalAvailable(lots)
	if available.LessThan(in.Quantity) {
		return nil, &domain.InsufficientStockError{
			MaterialID: in.MaterialID,
			Available:  available,
			Required:   in.Quantity,
		}
	}

	plan := kardex.PlanFIFO(lots, in.Quantity)
	if !plan.Covered() {
		return nil, &domain.LedgerInconsistencyError{MaterialID: in.MaterialID, Missing: plan.Remaining}
	}

	now := e.now()
	movementID := uuid.New().String()
	for _, draw := range plan.Draws {
		if err := repos.Lots.Reduce(ctx, draw.LotID, draw.Quantity); err != nil {
			return nil, err
		}
		entry := &entity.KardexEntry{
			MovementID: movementID,
			LotID:      draw.LotID,
			MaterialID: in.MaterialID,
			Direction:  entity.DirectionExit,
			Reference:  in.Reference,
			Quantity:   draw.Quantity,
			UnitCost:   draw.UnitCost,
			CreatedAt:  now,
			CreatedBy:  in.UserID,
		}
		if err := repos.Kardex.Append(ctx, entry); err != nil {
			return nil, err
		}
	}
	if err := repos.Materials.AdjustStock(ctx, in.MaterialID, in.Quantity.Neg()); err != nil {
		return nil, err
	}

	return &ExitResult{
		MovementID:      movementID,
		MaterialID:      in.MaterialID,
		Quantity:        in.Quantity,
		TotalCost:       plan.TotalCost,
		BlendedUnitCost: kardex.BlendedUnitCost(plan.TotalCost, in.Quantity),
		Breakdown:       plan.Draws,
	}, nil
}

// ReceiveEntry ejecuta ReceiveEntryInTx en su propia transacción.
func (e *Engine) ReceiveEntry(ctx context.Context, in ReceiptInput) (*ReceiptResult, error) {
	var res *ReceiptResult
	err := e.tx.Run(ctx, func(ctx context.Context, repos Repos) error {
		var err error
		res, err = e.ReceiveEntryInTx(ctx, repos, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.invalidate(ctx, in.MaterialID)
	e.log.Info().
		Int64("material_id", in.MaterialID).
		Int64("lot_id", res.LotID).
		Str("quantity", in.Quantity.String()).
		Str("unit_cost", in.UnitCost.String()).
		Str("reference", in.Reference.String()).
		Msg("entrada registrada")
	return res, nil
}

// ConsumeExit ejecuta ConsumeExitInTx en su propia transacción.
func (e *Engine) ConsumeExit(ctx context.Context, in ExitInput) (*ExitResult, error) {
	var res *ExitResult
	err := e.tx.Run(ctx, func(ctx context.Context, repos Repos) error {
		var err error
		res, err = e.ConsumeExitInTx(ctx, repos, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.invalidate(ctx, in.MaterialID)
	e.log.Info().
		Int64("material_id", in.MaterialID).
		Str("quantity", in.Quantity.String()).
		Str("total_cost", res.TotalCost.String()).
		Int("lots", len(res.Breakdown)).
		Str("reference", in.Reference.String()).
		Msg("salida registrada")
	return res, nil
}

// RegisterWithdrawal es la salida manual (ajuste negativo) de un operario.
func (e *Engine) RegisterWithdrawal(ctx context.Context, materialID int64, quantity decimal.Decimal, refID int64, userID string) (*ExitResult, error) {
	return e.ConsumeExit(ctx, ExitInput{
		MaterialID: materialID,
		Quantity:   quantity,
		Reference:  entity.Reference{Kind: entity.ReferenceManual, ID: refID},
		UserID:     userID,
	})
}

// PurchaseLine una línea de compra: un lote nuevo por línea.
type PurchaseLine struct {
	ItemID     *int64
	MaterialID int64
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
}

// PurchaseInput compra completa; todas sus líneas entran o ninguna.
type PurchaseInput struct {
	PurchaseID int64
	ReceivedAt time.Time
	UserID     string
	Lines      []PurchaseLine
}

// RegisterPurchase registra cada línea de la compra como un lote en una sola transacción.
func (e *Engine) RegisterPurchase(ctx context.Context, in PurchaseInput) ([]ReceiptResult, error) {
	if in.PurchaseID <= 0 || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	results := make([]ReceiptResult, 0, len(in.Lines))
	touched := make([]int64, 0, len(in.Lines))
	err := e.tx.Run(ctx, func(ctx context.Context, repos Repos) error {
		results = results[:0]
		touched = touched[:0]
		for _, line := range in.Lines {
			res, err := e.ReceiveEntryInTx(ctx, repos, ReceiptInput{
				MaterialID: line.MaterialID,
				Quantity:   line.Quantity,
				UnitCost:   line.UnitCost,
				Reference:  entity.Reference{Kind: entity.ReferencePurchase, ID: in.PurchaseID},
				ReceivedAt: in.ReceivedAt,
				SourceRef:  line.ItemID,
				UserID:     in.UserID,
			})
			if err != nil {
				return fmt.Errorf("compra %d, materia prima %d: %w", in.PurchaseID, line.MaterialID, err)
			}
			results = append(results, *res)
			touched = append(touched, line.MaterialID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.invalidate(ctx, touched...)
	e.log.Info().
		Int64("purchase_id", in.PurchaseID).
		Int("lines", len(results)).
		Msg("compra registrada en kardex")
	return results, nil
}

// Reconciliation resultado de comparar el acumulado en caché con la suma de lotes.
type Reconciliation struct {
	MaterialID int64           `json:"material_id"`
	Cached     decimal.Decimal `json:"cached"`
	Actual     decimal.Decimal `json:"actual"`
	Corrected  bool            `json:"corrected"`
}

// ReconcileStock recalcula el acumulado de la materia prima desde sus lotes (fuente de verdad)
// y lo corrige si había divergido.
func (e *Engine) ReconcileStock(ctx context.Context, materialID int64) (*Reconciliation, error) {
	if materialID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	var rec *Reconciliation
	err := e.tx.Run(ctx, func(ctx context.Context, repos Repos) error {
		material, err := repos.Materials.GetForUpdate(ctx, materialID)
		if err != nil {
			return err
		}
		if material == nil {
			return domain.ErrNotFound
		}
		lots, err := repos.Lots.ListAvailableFIFOForUpdate(ctx, materialID)
		if err != nil {
			return err
		}
		actual := kardex.TotalAvailable(lots)
		rec = &Reconciliation{MaterialID: materialID, Cached: material.Stock, Actual: actual}
		if material.Stock.Equal(actual) {
			return nil
		}
		rec.Corrected = true
		return repos.Materials.SetStock(ctx, materialID, actual)
	})
	if err != nil {
		return nil, err
	}
	if rec.Corrected {
		e.invalidate(ctx, materialID)
		e.log.Warn().
			Int64("material_id", materialID).
			Str("cached", rec.Cached.String()).
			Str("actual", rec.Actual.String()).
			Msg("acumulado de stock corregido")
	}
	return rec, nil
}

// InvalidateBalances limpia la caché de saldos tras un Commit externo (rollup de órdenes).
func (e *Engine) InvalidateBalances(ctx context.Context, materialIDs ...int64) {
	e.invalidate(ctx, materialIDs...)
}

func (e *Engine) invalidate(ctx context.Context, materialIDs ...int64) {
	if e.cache == nil || len(materialIDs) == 0 {
		return
	}
	if err := e.cache.Invalidate(ctx, materialIDs...); err != nil {
		// El saldo se recalcula al expirar el TTL; no se revierte una operación ya confirmada.
		e.log.Warn().Err(err).Msg("no se pudo invalidar la caché de saldos")
	}
}
