package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// KardexFilter filtros opcionales para listar movimientos de una materia prima.
type KardexFilter struct {
	MaterialID int64
	From       *time.Time
	To         *time.Time
	Direction  entity.Direction // vacío = ambas
	Limit      int
	Offset     int
}

// KardexRepository es el libro de movimientos: solo inserciones, nunca actualizaciones ni borrados.
type KardexRepository interface {
	Append(ctx context.Context, entry *entity.KardexEntry) error
	// List devuelve los movimientos en orden cronológico (created_at ASC, id ASC).
	List(ctx context.Context, filter KardexFilter) ([]*entity.KardexEntry, error)
	// SumExits suma las cantidades de salida con created_at en [from, to).
	SumExits(ctx context.Context, materialID int64, from, to time.Time) (decimal.Decimal, error)
	// NetQuantityBefore es entradas - salidas registradas antes de t.
	NetQuantityBefore(ctx context.Context, materialID int64, t time.Time) (decimal.Decimal, error)
}
