package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryRequest entrada de materia prima: crea un lote nuevo.
type EntryRequest struct {
	Quantity      decimal.Decimal `json:"quantity" validate:"gt=0,decimal_scale=6"`
	UnitCost      decimal.Decimal `json:"unit_cost" validate:"gt=0,decimal_scale=6"`
	ReferenceKind string          `json:"reference_kind" validate:"required,reference_kind"`
	ReferenceID   int64           `json:"reference_id" validate:"gt=0"`
	ReceivedAt    *time.Time      `json:"received_at,omitempty"`
	SourceRef     *int64          `json:"source_ref,omitempty" validate:"omitempty,gt=0"`
}

// ExitRequest salida genérica consumida por FIFO.
type ExitRequest struct {
	Quantity      decimal.Decimal `json:"quantity" validate:"gt=0,decimal_scale=6"`
	ReferenceKind string          `json:"reference_kind" validate:"required,reference_kind"`
	ReferenceID   int64           `json:"reference_id" validate:"gt=0"`
}

// WithdrawalRequest retiro manual de un operario (referencia MANUAL).
type WithdrawalRequest struct {
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0,decimal_scale=6"`
	ReferenceID int64           `json:"reference_id" validate:"gt=0"`
}

// PurchaseLineRequest una línea de la compra.
type PurchaseLineRequest struct {
	ItemID     *int64          `json:"item_id,omitempty" validate:"omitempty,gt=0"`
	MaterialID int64           `json:"material_id" validate:"gt=0"`
	Quantity   decimal.Decimal `json:"quantity" validate:"gt=0,decimal_scale=6"`
	UnitCost   decimal.Decimal `json:"unit_cost" validate:"gt=0,decimal_scale=6"`
}

// PurchaseRequest compra recibida; entra completa o no entra.
type PurchaseRequest struct {
	PurchaseID int64                 `json:"purchase_id" validate:"gt=0"`
	ReceivedAt *time.Time            `json:"received_at,omitempty"`
	Lines      []PurchaseLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// KardexEntryResponse movimiento del kardex sobre un lote.
type KardexEntryResponse struct {
	ID            int64           `json:"id"`
	MovementID    string          `json:"movement_id"`
	LotID         int64           `json:"lot_id"`
	MaterialID    int64           `json:"material_id"`
	Direction     string          `json:"direction"`
	ReferenceKind string          `json:"reference_kind"`
	ReferenceID   int64           `json:"reference_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	CreatedAt     time.Time       `json:"created_at"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

// MovementListResponse página de movimientos.
type MovementListResponse struct {
	Items []KardexEntryResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// LotResponse capa de costo.
type LotResponse struct {
	ID                int64           `json:"id"`
	MaterialID        int64           `json:"material_id"`
	OriginalQuantity  decimal.Decimal `json:"original_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	ReceivedAt        time.Time       `json:"received_at"`
	SourceRef         *int64          `json:"source_ref,omitempty"`
	Exhausted         bool            `json:"exhausted"`
}

// StockCardLineResponse movimiento con saldo acumulado.
type StockCardLineResponse struct {
	KardexEntryResponse
	Balance decimal.Decimal `json:"balance"`
}

// StockCardResponse tarjeta de kardex.
type StockCardResponse struct {
	Material MaterialResponse        `json:"material"`
	From     *time.Time              `json:"from,omitempty"`
	To       *time.Time              `json:"to,omitempty"`
	Opening  decimal.Decimal         `json:"opening"`
	Closing  decimal.Decimal         `json:"closing"`
	Lines    []StockCardLineResponse `json:"lines"`
}
