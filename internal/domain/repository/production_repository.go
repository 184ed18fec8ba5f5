package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductionOrderRepository persiste órdenes de producción y sus ítems.
type ProductionOrderRepository interface {
	// Create inserta la orden con sus ítems y asigna los IDs.
	Create(ctx context.Context, order *entity.ProductionOrder) error
	GetByID(ctx context.Context, id int64) (*entity.ProductionOrder, error)
	// GetForUpdate bloquea la orden para serializar su procesamiento.
	GetForUpdate(ctx context.Context, id int64) (*entity.ProductionOrder, error)
	UpdateItemCost(ctx context.Context, itemID int64, total, unit decimal.Decimal) error
	Complete(ctx context.Context, id int64, total decimal.Decimal, at time.Time) error
}

// ConsumptionRepository persiste los registros de consumo (trazabilidad de costos).
type ConsumptionRepository interface {
	Create(ctx context.Context, record *entity.ConsumptionRecord) error
	ListByOrder(ctx context.Context, orderID int64) ([]*entity.ConsumptionRecord, error)
}

// BOMRepository expone las fichas técnicas (lista de materiales por producto).
type BOMRepository interface {
	ListByProduct(ctx context.Context, productID int64) ([]entity.BOMLine, error)
	Replace(ctx context.Context, productID int64, lines []entity.BOMLine) error
}
