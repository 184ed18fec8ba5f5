package entity

import "github.com/shopspring/decimal"

// BOMLine es una línea de la ficha técnica: cuánto de una materia prima lleva una unidad del producto.
type BOMLine struct {
	ProductID       int64
	MaterialID      int64
	QuantityPerUnit decimal.Decimal
	Position        int
}
