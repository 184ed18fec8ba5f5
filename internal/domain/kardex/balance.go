package kardex

import (
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Balance es el saldo valorizado de una materia prima.
type Balance struct {
	MaterialID          int64           `json:"material_id"`
	Quantity            decimal.Decimal `json:"quantity"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	WeightedAverageCost decimal.Decimal `json:"weighted_average_cost"`
	Lots                int             `json:"lots"`
}

// ComputeBalance agrega los lotes disponibles: Σdisponible, Σdisponible·costo y su cociente.
func ComputeBalance(materialID int64, lots []*entity.Lot) Balance {
	qty := decimal.Zero
	value := decimal.Zero
	n := 0
	for _, l := range lots {
		if !l.AvailableQuantity.IsPositive() {
			continue
		}
		qty = qty.Add(l.AvailableQuantity)
		value = value.Add(l.AvailableValue())
		n++
	}
	return Balance{
		MaterialID:          materialID,
		Quantity:            qty,
		TotalCost:           value,
		WeightedAverageCost: WeightedAverage(qty, value),
		Lots:                n,
	}
}

// WeightedAverage = valor / cantidad, cero si no hay cantidad.
// Solo es informativo (reportes y estimaciones); las salidas se costean por FIFO.
func WeightedAverage(quantity, value decimal.Decimal) decimal.Decimal {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return value.Div(quantity)
}
