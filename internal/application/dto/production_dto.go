package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest producto y cantidad fabricada.
type OrderItemRequest struct {
	ProductID int64           `json:"product_id" validate:"gt=0"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0,decimal_scale=6"`
}

// CreateOrderRequest orden de producción pendiente.
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderItemResponse ítem con su costo de materia prima (cero mientras la orden está pendiente).
type OrderItemResponse struct {
	ID                int64           `json:"id"`
	ProductID         int64           `json:"product_id"`
	QuantityProduced  decimal.Decimal `json:"quantity_produced"`
	TotalMaterialCost decimal.Decimal `json:"total_material_cost"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
}

// ConsumptionResponse consumo registrado por el rollup.
type ConsumptionResponse struct {
	ProductionItemID int64           `json:"production_item_id"`
	MaterialID       int64           `json:"material_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	MovementID       string          `json:"movement_id"`
}

// OrderResponse orden con ítems y, si ya se procesó, su consumo.
type OrderResponse struct {
	ID          int64                 `json:"id"`
	Status      string                `json:"status"`
	TotalCost   decimal.Decimal       `json:"total_cost"`
	CreatedAt   time.Time             `json:"created_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	Items       []OrderItemResponse   `json:"items"`
	Consumption []ConsumptionResponse `json:"consumption,omitempty"`
}

// BOMLineRequest línea de ficha técnica.
type BOMLineRequest struct {
	MaterialID      int64           `json:"material_id" validate:"gt=0"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit" validate:"gt=0,decimal_scale=6"`
}

// BOMRequest reemplaza la ficha técnica completa del producto.
type BOMRequest struct {
	Lines []BOMLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// BOMLineResponse línea de ficha técnica.
type BOMLineResponse struct {
	MaterialID      int64           `json:"material_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	Position        int             `json:"position"`
}

// BOMResponse ficha técnica de un producto.
type BOMResponse struct {
	ProductID int64             `json:"product_id"`
	Lines     []BOMLineResponse `json:"lines"`
}
