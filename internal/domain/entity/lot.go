package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot es una capa de costo: un ingreso de materia prima a un costo unitario fijo.
// OriginalQuantity y UnitCost no cambian; AvailableQuantity solo disminuye.
type Lot struct {
	ID                int64
	MaterialID        int64
	OriginalQuantity  decimal.Decimal
	AvailableQuantity decimal.Decimal
	UnitCost          decimal.Decimal
	ReceivedAt        time.Time
	SourceRef         *int64 // p. ej. id del ítem de compra
}

// Exhausted indica si el lote ya no tiene cantidad disponible (se conserva para auditoría).
func (l *Lot) Exhausted() bool {
	return !l.AvailableQuantity.IsPositive()
}

// AvailableValue es el valor de la cantidad disponible al costo del lote.
func (l *Lot) AvailableValue() decimal.Decimal {
	return l.AvailableQuantity.Mul(l.UnitCost)
}
