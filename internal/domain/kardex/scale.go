package kardex

import "github.com/shopspring/decimal"

// Escalas con las que se persisten los valores: cantidades y costos unitarios de lote en
// NUMERIC(18,6); costos totales y costos unitarios ponderados en NUMERIC(24,12).
// Quantity(6) * UnitCost(6) cabe exacto en CostScale.
const (
	QuantityScale int32 = 6
	CostScale     int32 = 12
)

// FitsScale reporta si v no tiene más de places decimales significativos.
func FitsScale(v decimal.Decimal, places int32) bool {
	return v.Equal(v.Truncate(places))
}

// RoundQuantity lleva una cantidad derivada (p. ej. cantidad por unidad x unidades) a QuantityScale.
func RoundQuantity(v decimal.Decimal) decimal.Decimal {
	return v.Round(QuantityScale)
}
