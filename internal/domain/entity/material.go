package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Material representa una materia prima (tela, hilo, botones...) valorizada por lotes FIFO.
// Stock es un acumulado en caché; la fuente de verdad es la suma de AvailableQuantity de sus lotes.
type Material struct {
	ID           int64
	Name         string
	BaseUnit     string // metros, unidades, kg
	MinimumStock decimal.Decimal
	Stock        decimal.Decimal
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
