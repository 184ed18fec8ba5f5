package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.ProductionOrderRepository = (*ProductionOrderRepo)(nil)
	_ repository.ConsumptionRepository     = (*ConsumptionRepo)(nil)
	_ repository.BOMRepository             = (*BOMRepo)(nil)
)

// ProductionOrderRepo órdenes de producción e ítems.
type ProductionOrderRepo struct {
	q Querier
}

// NewProductionOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductionOrderRepository(q Querier) *ProductionOrderRepo {
	return &ProductionOrderRepo{q: q}
}

// Create inserta la orden y sus ítems. Con pool (sin tx) un fallo a mitad deja la orden incompleta,
// por eso el llamador debe usar una transacción cuando hay varios ítems.
func (r *ProductionOrderRepo) Create(ctx context.Context, o *entity.ProductionOrder) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO production_orders (status, total_cost, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`, o.Status, o.TotalCost, o.CreatedAt).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert production order: %w", err)
	}
	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		err := r.q.QueryRow(ctx, `
			INSERT INTO production_items (order_id, product_id, quantity_produced, total_material_cost, unit_cost)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`, it.OrderID, it.ProductID, it.QuantityProduced, it.TotalMaterialCost, it.UnitCost).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("insert production item: %w", err)
		}
	}
	return nil
}

func (r *ProductionOrderRepo) get(ctx context.Context, id int64, forUpdate bool) (*entity.ProductionOrder, error) {
	query := `SELECT id, status, total_cost, created_at, completed_at FROM production_orders WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var o entity.ProductionOrder
	err := r.q.QueryRow(ctx, query, id).Scan(&o.ID, &o.Status, &o.TotalCost, &o.CreatedAt, &o.CompletedAt)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get production order: %w", err)
	}
	err = pgxscan.Select(ctx, r.q, &o.Items, `
		SELECT id, order_id, product_id, quantity_produced, total_material_cost, unit_cost
		FROM production_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list production items: %w", err)
	}
	return &o, nil
}

// GetByID orden con sus ítems; nil si no existe.
func (r *ProductionOrderRepo) GetByID(ctx context.Context, id int64) (*entity.ProductionOrder, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate bloquea la orden: dos procesamientos simultáneos se serializan y el segundo ve completed.
func (r *ProductionOrderRepo) GetForUpdate(ctx context.Context, id int64) (*entity.ProductionOrder, error) {
	return r.get(ctx, id, true)
}

// UpdateItemCost fija el costo de materia prima del ítem.
func (r *ProductionOrderRepo) UpdateItemCost(ctx context.Context, itemID int64, total, unit decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE production_items SET total_material_cost = $2, unit_cost = $3 WHERE id = $1`, itemID, total, unit)
	if err != nil {
		return fmt.Errorf("update item cost: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Complete pasa la orden a completed con su costo total.
func (r *ProductionOrderRepo) Complete(ctx context.Context, id int64, total decimal.Decimal, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE production_orders SET status = $2, total_cost = $3, completed_at = $4
		WHERE id = $1 AND status = $5`, id, entity.OrderStatusCompleted, total, at, entity.OrderStatusPending)
	if err != nil {
		return fmt.Errorf("complete production order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotPending
	}
	return nil
}

// ConsumptionRepo registros de consumo por ítem.
type ConsumptionRepo struct {
	q Querier
}

// NewConsumptionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewConsumptionRepository(q Querier) *ConsumptionRepo {
	return &ConsumptionRepo{q: q}
}

func (r *ConsumptionRepo) Create(ctx context.Context, c *entity.ConsumptionRecord) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO consumption_records (order_id, production_item_id, material_id, quantity, unit_cost, total_cost, movement_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		c.OrderID, c.ProductionItemID, c.MaterialID, c.Quantity, c.UnitCost, c.TotalCost, c.MovementID, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert consumption record: %w", err)
	}
	return nil
}

func (r *ConsumptionRepo) ListByOrder(ctx context.Context, orderID int64) ([]*entity.ConsumptionRecord, error) {
	var list []*entity.ConsumptionRecord
	err := pgxscan.Select(ctx, r.q, &list, `
		SELECT id, order_id, production_item_id, material_id, quantity, unit_cost, total_cost, movement_id, created_at
		FROM consumption_records WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list consumption records: %w", err)
	}
	return list, nil
}

// BOMRepo fichas técnicas.
type BOMRepo struct {
	q Querier
}

// NewBOMRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBOMRepository(q Querier) *BOMRepo {
	return &BOMRepo{q: q}
}

func (r *BOMRepo) ListByProduct(ctx context.Context, productID int64) ([]entity.BOMLine, error) {
	var lines []entity.BOMLine
	err := pgxscan.Select(ctx, r.q, &lines, `
		SELECT product_id, material_id, quantity_per_unit, position
		FROM bom_lines WHERE product_id = $1 ORDER BY position, material_id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list bom lines: %w", err)
	}
	return lines, nil
}

// Replace borra la ficha del producto y escribe la nueva; usar dentro de una transacción.
func (r *BOMRepo) Replace(ctx context.Context, productID int64, lines []entity.BOMLine) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM bom_lines WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("delete bom lines: %w", err)
	}
	for _, l := range lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO bom_lines (product_id, material_id, quantity_per_unit, position)
			VALUES ($1, $2, $3, $4)`, productID, l.MaterialID, l.QuantityPerUnit, l.Position)
		if err != nil {
			return fmt.Errorf("insert bom line: %w", err)
		}
	}
	return nil
}
