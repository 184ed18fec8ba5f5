package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la orden de producción. No existe estado fallido: un error deja la orden pendiente.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
)

// ProductionOrder agrupa los ítems producidos cuyo costo de materia prima se consolida.
type ProductionOrder struct {
	ID          int64
	Status      string
	TotalCost   decimal.Decimal
	Items       []ProductionItem
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Pending reporta si la orden aún puede procesarse.
func (o *ProductionOrder) Pending() bool {
	return o.Status == OrderStatusPending
}

// ProductionItem es una línea de la orden: un producto y la cantidad fabricada.
type ProductionItem struct {
	ID                int64
	OrderID           int64
	ProductID         int64
	QuantityProduced  decimal.Decimal
	TotalMaterialCost decimal.Decimal
	UnitCost          decimal.Decimal
}
