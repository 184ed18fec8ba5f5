// Package kardex contiene la lógica pura de valorización PEPS (FIFO) por lotes:
// orden de consumo, plan de drenado, saldos y proyección de agotamiento.
// No conoce transacciones ni persistencia; el motor de aplicación la orquesta.
package kardex

import (
	"sort"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Draw es lo que una salida toma de un lote.
type Draw struct {
	LotID    int64           `json:"lot_id"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// Cost es Quantity * UnitCost.
func (d Draw) Cost() decimal.Decimal {
	return d.Quantity.Mul(d.UnitCost)
}

// Plan es el resultado de recorrer los lotes en orden FIFO para cubrir una cantidad.
// Remaining > 0 significa que los lotes no alcanzaron.
type Plan struct {
	Draws     []Draw
	TotalCost decimal.Decimal
	Remaining decimal.Decimal
}

// Covered reporta si el plan cubre toda la cantidad pedida.
func (p Plan) Covered() bool {
	return !p.Remaining.IsPositive()
}

// SortFIFO ordena los lotes del más antiguo al más reciente; a igual fecha, menor id primero.
func SortFIFO(lots []*entity.Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		return a.ID < b.ID
	})
}

// TotalAvailable suma la cantidad disponible de los lotes.
func TotalAvailable(lots []*entity.Lot) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lots {
		if l.AvailableQuantity.IsPositive() {
			total = total.Add(l.AvailableQuantity)
		}
	}
	return total
}

// PlanFIFO recorre los lotes en el orden recibido tomando min(pendiente, disponible) de cada uno
// hasta cubrir quantity. El costo sale de los lotes realmente tocados, nunca de un promedio.
// Los lotes deben venir ya ordenados (ver SortFIFO); los agotados se saltan.
func PlanFIFO(lots []*entity.Lot, quantity decimal.Decimal) Plan {
	remaining := quantity
	total := decimal.Zero
	draws := make([]Draw, 0, len(lots))
	for _, l := range lots {
		if !remaining.IsPositive() {
			break
		}
		if !l.AvailableQuantity.IsPositive() {
			continue
		}
		taken := decimal.Min(remaining, l.AvailableQuantity)
		d := Draw{LotID: l.ID, Quantity: taken, UnitCost: l.UnitCost}
		draws = append(draws, d)
		total = total.Add(d.Cost())
		remaining = remaining.Sub(taken)
	}
	return Plan{Draws: draws, TotalCost: total, Remaining: remaining}
}

// BlendedUnitCost es el costo unitario ponderado de una salida que abarcó varios lotes,
// redondeado a CostScale.
func BlendedUnitCost(totalCost, quantity decimal.Decimal) decimal.Decimal {
	if !quantity.IsPositive() {
		return decimal.Zero
	}
	return totalCost.DivRound(quantity, CostScale)
}
