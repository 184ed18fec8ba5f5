package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateMaterialRequest alta de materia prima. El stock nace en cero; solo cambia con movimientos.
type CreateMaterialRequest struct {
	Name         string          `json:"name" validate:"required,max=120"`
	BaseUnit     string          `json:"base_unit" validate:"required,max=20"`
	MinimumStock decimal.Decimal `json:"minimum_stock" validate:"gte=0,decimal_scale=6"`
}

// UpdateMaterialRequest campos opcionales; Stock no es editable.
type UpdateMaterialRequest struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	BaseUnit     *string          `json:"base_unit,omitempty" validate:"omitempty,min=1,max=20"`
	MinimumStock *decimal.Decimal `json:"minimum_stock,omitempty" validate:"omitempty,gte=0,decimal_scale=6"`
}

// MaterialResponse materia prima con su acumulado de stock.
type MaterialResponse struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	BaseUnit     string          `json:"base_unit"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	Stock        decimal.Decimal `json:"stock"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// MaterialListResponse listado del catálogo.
type MaterialListResponse struct {
	Items []MaterialResponse `json:"items"`
}
