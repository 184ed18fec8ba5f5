package postgres

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

// MaterialRepo implementación del puerto MaterialRepository sobre PostgreSQL (usable con pool o tx).
type MaterialRepo struct {
	q Querier
}

// NewMaterialRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMaterialRepository(q Querier) *MaterialRepo {
	return &MaterialRepo{q: q}
}

const materialColumns = "id, name, base_unit, minimum_stock, stock, active, created_at, updated_at"

// Create persiste una materia prima nueva y asigna ID y fechas.
func (r *MaterialRepo) Create(ctx context.Context, m *entity.Material) error {
	query := `
		INSERT INTO materials (name, base_unit, minimum_stock, stock, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query, m.Name, m.BaseUnit, m.MinimumStock, m.Stock, m.Active).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

func (r *MaterialRepo) get(ctx context.Context, id int64, forUpdate bool) (*entity.Material, error) {
	query := "SELECT " + materialColumns + " FROM materials WHERE id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	var m entity.Material
	if err := pgxscan.Get(ctx, r.q, &m, query, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return &m, nil
}

// GetByID obtiene una materia prima; nil si no existe.
func (r *MaterialRepo) GetByID(ctx context.Context, id int64) (*entity.Material, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate bloquea la fila de la materia prima hasta el fin de la transacción.
func (r *MaterialRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Material, error) {
	return r.get(ctx, id, true)
}

// List lista materias primas por ID.
func (r *MaterialRepo) List(ctx context.Context, activeOnly bool) ([]*entity.Material, error) {
	sb := psql.Select(materialColumns).From("materials").OrderBy("id")
	if activeOnly {
		sb = sb.Where("active")
	}
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list materials: %w", err)
	}
	var list []*entity.Material
	if err := pgxscan.Select(ctx, r.q, &list, query, args...); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return list, nil
}

// Update modifica los datos descriptivos; stock y active no se tocan aquí.
func (r *MaterialRepo) Update(ctx context.Context, m *entity.Material) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE materials SET name = $2, base_unit = $3, minimum_stock = $4, updated_at = NOW()
		WHERE id = $1`, m.ID, m.Name, m.BaseUnit, m.MinimumStock)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AdjustStock suma delta (negativo en salidas) al acumulado.
func (r *MaterialRepo) AdjustStock(ctx context.Context, id int64, delta decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE materials SET stock = stock + $2, updated_at = NOW() WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetStock reescribe el acumulado (reconciliación).
func (r *MaterialRepo) SetStock(ctx context.Context, id int64, stock decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE materials SET stock = $2, updated_at = NOW() WHERE id = $1`, id, stock)
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate baja lógica: los lotes y el kardex se conservan.
func (r *MaterialRepo) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE materials SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
