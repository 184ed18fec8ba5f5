package repository

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LotRepository es el almacén de lotes (capas de costo).
// Los listados FIFO van ordenados por received_at ASC, id ASC.
type LotRepository interface {
	Create(ctx context.Context, lot *entity.Lot) error
	// ListAvailableFIFO lista los lotes con disponible > 0 sin bloquearlos (solo lectura).
	ListAvailableFIFO(ctx context.Context, materialID int64) ([]*entity.Lot, error)
	// ListAvailableFIFOForUpdate igual que ListAvailableFIFO pero bloquea cada fila (SELECT FOR UPDATE).
	ListAvailableFIFOForUpdate(ctx context.Context, materialID int64) ([]*entity.Lot, error)
	// Reduce descuenta amount del lote; falla con domain.InvariantViolationError si amount > disponible.
	Reduce(ctx context.Context, lotID int64, amount decimal.Decimal) error
	ListByMaterial(ctx context.Context, materialID int64, onlyAvailable bool) ([]*entity.Lot, error)
}
