package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.KardexRepository = (*KardexRepo)(nil)

// KardexRepo libro de movimientos sobre PostgreSQL. Solo INSERT y SELECT.
type KardexRepo struct {
	q Querier
}

// NewKardexRepository construye el adaptador. Pasar pool o tx (Querier).
func NewKardexRepository(q Querier) *KardexRepo {
	return &KardexRepo{q: q}
}

type kardexRow struct {
	ID            int64           `db:"id"`
	MovementID    string          `db:"movement_id"`
	LotID         int64           `db:"lot_id"`
	MaterialID    int64           `db:"material_id"`
	Direction     string          `db:"direction"`
	ReferenceKind string          `db:"reference_kind"`
	ReferenceID   int64           `db:"reference_id"`
	Quantity      decimal.Decimal `db:"quantity"`
	UnitCost      decimal.Decimal `db:"unit_cost"`
	CreatedAt     time.Time       `db:"created_at"`
	CreatedBy     string          `db:"created_by"`
}

func (row kardexRow) toEntity() (*entity.KardexEntry, error) {
	kind, err := entity.ParseReferenceKind(row.ReferenceKind)
	if err != nil {
		return nil, fmt.Errorf("kardex %d: %w", row.ID, err)
	}
	return &entity.KardexEntry{
		ID:         row.ID,
		MovementID: row.MovementID,
		LotID:      row.LotID,
		MaterialID: row.MaterialID,
		Direction:  entity.Direction(row.Direction),
		Reference:  entity.Reference{Kind: kind, ID: row.ReferenceID},
		Quantity:   row.Quantity,
		UnitCost:   row.UnitCost,
		CreatedAt:  row.CreatedAt,
		CreatedBy:  row.CreatedBy,
	}, nil
}

// Append inserta el movimiento y asigna su ID.
func (r *KardexRepo) Append(ctx context.Context, e *entity.KardexEntry) error {
	query := `
		INSERT INTO kardex_entries (movement_id, lot_id, material_id, direction, reference_kind, reference_id,
			quantity, unit_cost, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		e.MovementID, e.LotID, e.MaterialID, string(e.Direction), e.Reference.Kind.String(), e.Reference.ID,
		e.Quantity, e.UnitCost, e.CreatedAt, e.CreatedBy,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert kardex entry: %w", err)
	}
	return nil
}

// buildListQuery arma el SELECT con los filtros presentes; From y To son inclusivos.
func buildListQuery(f repository.KardexFilter) (string, []any, error) {
	sb := psql.Select("id, movement_id, lot_id, material_id, direction, reference_kind, reference_id, quantity, unit_cost, created_at, created_by").
		From("kardex_entries").
		Where(squirrel.Eq{"material_id": f.MaterialID}).
		OrderBy("created_at ASC", "id ASC")
	if f.From != nil {
		sb = sb.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		sb = sb.Where(squirrel.LtOrEq{"created_at": *f.To})
	}
	if f.Direction != "" {
		sb = sb.Where(squirrel.Eq{"direction": string(f.Direction)})
	}
	if f.Limit > 0 {
		sb = sb.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		sb = sb.Offset(uint64(f.Offset))
	}
	return sb.ToSql()
}

// List movimientos en orden cronológico.
func (r *KardexRepo) List(ctx context.Context, f repository.KardexFilter) ([]*entity.KardexEntry, error) {
	query, args, err := buildListQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build list kardex: %w", err)
	}
	var rows []kardexRow
	if err := pgxscan.Select(ctx, r.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list kardex: %w", err)
	}
	out := make([]*entity.KardexEntry, 0, len(rows))
	for _, row := range rows {
		e, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// SumExits suma las salidas con created_at en [from, to).
func (r *KardexRepo) SumExits(ctx context.Context, materialID int64, from, to time.Time) (decimal.Decimal, error) {
	query, args, err := psql.Select("COALESCE(SUM(quantity), 0)").
		From("kardex_entries").
		Where(squirrel.Eq{"material_id": materialID, "direction": string(entity.DirectionExit)}).
		Where(squirrel.GtOrEq{"created_at": from}).
		Where(squirrel.Lt{"created_at": to}).
		ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("build sum exits: %w", err)
	}
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum exits: %w", err)
	}
	return total, nil
}

// NetQuantityBefore entradas menos salidas anteriores a t (saldo inicial de la tarjeta).
func (r *KardexRepo) NetQuantityBefore(ctx context.Context, materialID int64, t time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN direction = 'EXIT' THEN -quantity ELSE quantity END), 0)
		FROM kardex_entries
		WHERE material_id = $1 AND created_at < $2`
	var net decimal.Decimal
	if err := r.q.QueryRow(ctx, query, materialID, t).Scan(&net); err != nil {
		return decimal.Zero, fmt.Errorf("net quantity: %w", err)
	}
	return net, nil
}
