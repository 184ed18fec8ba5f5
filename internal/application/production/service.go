// Package production costea órdenes de producción consumiendo materia prima por FIFO.
package production

import (
	"context"
	"fmt"
	"time"

	appkardex "github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/kardex"
	"github.com/jhoicas/Kardex-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// Service órdenes de producción, fichas técnicas y rollup de costos.
type Service struct {
	tx       appkardex.TxRunner
	repos    appkardex.Repos
	engine   *appkardex.Engine
	reporter *appkardex.Reporter
	log      *logger.Logger
	now      func() time.Time
}

// NewService construye el servicio. repos son los del pool (lecturas fuera de transacción);
// reporter entrega los saldos de la estimación.
func NewService(tx appkardex.TxRunner, repos appkardex.Repos, engine *appkardex.Engine, reporter *appkardex.Reporter, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{tx: tx, repos: repos, engine: engine, reporter: reporter, log: log, now: time.Now}
}

// SetClock reemplaza time.Now (tests).
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// OrderItemInput un producto a fabricar.
type OrderItemInput struct {
	ProductID int64
	Quantity  decimal.Decimal
}

// CreateOrder registra una orden pendiente.
func (s *Service) CreateOrder(ctx context.Context, items []OrderItemInput) (*entity.ProductionOrder, error) {
	if len(items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	order := &entity.ProductionOrder{
		Status:    entity.OrderStatusPending,
		TotalCost: decimal.Zero,
		CreatedAt: s.now(),
		Items:     make([]entity.ProductionItem, 0, len(items)),
	}
	for _, it := range items {
		if it.ProductID <= 0 {
			return nil, domain.ErrInvalidInput
		}
		if !it.Quantity.IsPositive() || !kardex.FitsScale(it.Quantity, kardex.QuantityScale) {
			return nil, domain.ErrInvalidQuantity
		}
		order.Items = append(order.Items, entity.ProductionItem{
			ProductID:         it.ProductID,
			QuantityProduced:  it.Quantity,
			TotalMaterialCost: decimal.Zero,
			UnitCost:          decimal.Zero,
		})
	}
	err := s.tx.Run(ctx, func(ctx context.Context, repos appkardex.Repos) error {
		return repos.Orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// OrderDetail orden con su trazabilidad de consumo.
type OrderDetail struct {
	Order       *entity.ProductionOrder     `json:"order"`
	Consumption []*entity.ConsumptionRecord `json:"consumption"`
}

// GetOrder obtiene la orden y sus registros de consumo.
func (s *Service) GetOrder(ctx context.Context, id int64) (*OrderDetail, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidInput
	}
	order, err := s.repos.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	records, err := s.repos.Consumption.ListByOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: order, Consumption: records}, nil
}

// BOMLineInput renglón de ficha técnica.
type BOMLineInput struct {
	MaterialID      int64
	QuantityPerUnit decimal.Decimal
}

// SetBillOfMaterials reemplaza la ficha técnica del producto. Las materias primas deben existir
// y no repetirse.
func (s *Service) SetBillOfMaterials(ctx context.Context, productID int64, lines []BOMLineInput) ([]entity.BOMLine, error) {
	if productID <= 0 || len(lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	out := make([]entity.BOMLine, 0, len(lines))
	seen := make(map[int64]bool, len(lines))
	err := s.tx.Run(ctx, func(ctx context.Context, repos appkardex.Repos) error {
		out = out[:0]
		clear(seen)
		for i, l := range lines {
			if l.MaterialID <= 0 || seen[l.MaterialID] {
				return domain.ErrInvalidInput
			}
			if !l.QuantityPerUnit.IsPositive() || !kardex.FitsScale(l.QuantityPerUnit, kardex.QuantityScale) {
				return domain.ErrInvalidQuantity
			}
			seen[l.MaterialID] = true
			m, err := repos.Materials.GetByID(ctx, l.MaterialID)
			if err != nil {
				return err
			}
			if m == nil {
				return fmt.Errorf("materia prima %d: %w", l.MaterialID, domain.ErrNotFound)
			}
			out = append(out, entity.BOMLine{
				ProductID:       productID,
				MaterialID:      l.MaterialID,
				QuantityPerUnit: l.QuantityPerUnit,
				Position:        i + 1,
			})
		}
		return repos.BOM.Replace(ctx, productID, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BillOfMaterials ficha técnica vigente del producto.
func (s *Service) BillOfMaterials(ctx context.Context, productID int64) ([]entity.BOMLine, error) {
	if productID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	return s.repos.BOM.ListByProduct(ctx, productID)
}

// MaterialCost costo FIFO de una materia prima dentro de un ítem.
type MaterialCost struct {
	MaterialID      int64           `json:"material_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	BlendedUnitCost decimal.Decimal `json:"blended_unit_cost"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	MovementID      string          `json:"movement_id"`
	Lots            []kardex.Draw   `json:"lots"`
}

// ItemCost costo de materia prima de un ítem de la orden.
type ItemCost struct {
	ItemID            int64           `json:"item_id"`
	ProductID         int64           `json:"product_id"`
	QuantityProduced  decimal.Decimal `json:"quantity_produced"`
	TotalMaterialCost decimal.Decimal `json:"total_material_cost"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	Breakdown         []MaterialCost  `json:"breakdown"`
}

// RollupResult resultado de procesar una orden.
type RollupResult struct {
	OrderID     int64           `json:"order_id"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	CompletedAt time.Time       `json:"completed_at"`
	Items       []ItemCost      `json:"items"`
}

// ProcessOrder consume la materia prima de todos los ítems de la orden según su ficha técnica,
// registra el consumo, costea cada ítem y completa la orden. Todo ocurre en una sola
// transacción: el primer error la revierte completa y la orden sigue pendiente.
func (s *Service) ProcessOrder(ctx context.Context, orderID int64, userID string) (*RollupResult, error) {
	if orderID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	var result *RollupResult
	var touched []int64
	err := s.tx.Run(ctx, func(ctx context.Context, repos appkardex.Repos) error {
		touched = touched[:0]
		order, err := repos.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if !order.Pending() {
			return domain.ErrOrderNotPending
		}

		completedAt := s.now()
		result = &RollupResult{OrderID: orderID, TotalCost: decimal.Zero, CompletedAt: completedAt}
		for _, item := range order.Items {
			cost, err := s.costItem(ctx, repos, order.ID, item, userID)
			if err != nil {
				return err
			}
			if err := repos.Orders.UpdateItemCost(ctx, item.ID, cost.TotalMaterialCost, cost.UnitCost); err != nil {
				return err
			}
			for _, mc := range cost.Breakdown {
				touched = append(touched, mc.MaterialID)
			}
			result.Items = append(result.Items, *cost)
			result.TotalCost = result.TotalCost.Add(cost.TotalMaterialCost)
		}
		return repos.Orders.Complete(ctx, order.ID, result.TotalCost, completedAt)
	})
	if err != nil {
		return nil, err
	}

	s.engine.InvalidateBalances(ctx, touched...)
	s.log.Info().
		Int64("order_id", orderID).
		Int("items", len(result.Items)).
		Str("total_cost", result.TotalCost.String()).
		Msg("orden de producción procesada")
	return result, nil
}

func (s *Service) costItem(ctx context.Context, repos appkardex.Repos, orderID int64, item entity.ProductionItem, userID string) (*ItemCost, error) {
	bom, err := repos.BOM.ListByProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if len(bom) == 0 {
		return nil, fmt.Errorf("producto %d: %w", item.ProductID, domain.ErrMissingBillOfMaterials)
	}

	cost := &ItemCost{
		ItemID:            item.ID,
		ProductID:         item.ProductID,
		QuantityProduced:  item.QuantityProduced,
		TotalMaterialCost: decimal.Zero,
		UnitCost:          decimal.Zero,
	}
	for _, line := range bom {
		if !line.QuantityPerUnit.IsPositive() {
			continue
		}
		needed := kardex.RoundQuantity(line.QuantityPerUnit.Mul(item.QuantityProduced))
		if !needed.IsPositive() {
			continue
		}
		exit, err := s.engine.ConsumeExitInTx(ctx, repos, appkardex.ExitInput{
			MaterialID: line.MaterialID,
			Quantity:   needed,
			Reference:  entity.Reference{Kind: entity.ReferenceProductionOrder, ID: orderID},
			UserID:     userID,
		})
		if err != nil {
			return nil, fmt.Errorf("orden %d, ítem %d, materia prima %d: %w", orderID, item.ID, line.MaterialID, err)
		}
		record := &entity.ConsumptionRecord{
			OrderID:          orderID,
			ProductionItemID: item.ID,
			MaterialID:       line.MaterialID,
			Quantity:         needed,
			UnitCost:         exit.BlendedUnitCost,
			TotalCost:        exit.TotalCost,
			MovementID:       exit.MovementID,
			CreatedAt:        s.now(),
		}
		if err := repos.Consumption.Create(ctx, record); err != nil {
			return nil, err
		}
		cost.Breakdown = append(cost.Breakdown, MaterialCost{
			MaterialID:      line.MaterialID,
			Quantity:        needed,
			BlendedUnitCost: exit.BlendedUnitCost,
			TotalCost:       exit.TotalCost,
			MovementID:      exit.MovementID,
			Lots:            exit.Breakdown,
		})
		cost.TotalMaterialCost = cost.TotalMaterialCost.Add(exit.TotalCost)
	}
	cost.UnitCost = kardex.BlendedUnitCost(cost.TotalMaterialCost, item.QuantityProduced)
	return cost, nil
}
