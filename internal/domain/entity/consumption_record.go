package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConsumptionRecord deja la trazabilidad del consumo de una materia prima por un ítem de producción.
type ConsumptionRecord struct {
	ID               int64
	OrderID          int64
	ProductionItemID int64
	MaterialID       int64
	Quantity         decimal.Decimal
	UnitCost         decimal.Decimal // costo FIFO mezclado
	TotalCost        decimal.Decimal
	MovementID       string
	CreatedAt        time.Time
}
