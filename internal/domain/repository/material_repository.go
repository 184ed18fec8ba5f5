package repository

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MaterialRepository define el puerto de persistencia para materias primas (DIP).
// GetByID y GetForUpdate retornan (nil, nil) si no existe.
type MaterialRepository interface {
	Create(ctx context.Context, material *entity.Material) error
	GetByID(ctx context.Context, id int64) (*entity.Material, error)
	// GetForUpdate bloquea la fila de la materia prima hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id int64) (*entity.Material, error)
	List(ctx context.Context, activeOnly bool) ([]*entity.Material, error)
	// Update modifica nombre, unidad y stock mínimo; nunca el acumulado.
	Update(ctx context.Context, material *entity.Material) error
	// AdjustStock suma delta (puede ser negativo) al acumulado en caché.
	AdjustStock(ctx context.Context, id int64, delta decimal.Decimal) error
	SetStock(ctx context.Context, id int64, stock decimal.Decimal) error
	Deactivate(ctx context.Context, id int64) error
}
