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

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo lotes (capas de costo) sobre PostgreSQL.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotColumns = "id, material_id, original_quantity, available_quantity, unit_cost, received_at, source_ref"

// Create inserta el lote con disponible = original.
func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) error {
	query := `
		INSERT INTO lots (material_id, original_quantity, available_quantity, unit_cost, received_at, source_ref)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		lot.MaterialID, lot.OriginalQuantity, lot.AvailableQuantity, lot.UnitCost, lot.ReceivedAt, lot.SourceRef,
	).Scan(&lot.ID)
	if err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

func (r *LotRepo) list(ctx context.Context, materialID int64, onlyAvailable, forUpdate bool) ([]*entity.Lot, error) {
	sb := psql.Select(lotColumns).From("lots").
		Where("material_id = ?", materialID).
		OrderBy("received_at ASC", "id ASC")
	if onlyAvailable {
		sb = sb.Where("available_quantity > 0")
	}
	if forUpdate {
		sb = sb.Suffix("FOR UPDATE")
	}
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list lots: %w", err)
	}
	var lots []*entity.Lot
	if err := pgxscan.Select(ctx, r.q, &lots, query, args...); err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	return lots, nil
}

// ListAvailableFIFO lotes con disponible, del más antiguo al más nuevo.
func (r *LotRepo) ListAvailableFIFO(ctx context.Context, materialID int64) ([]*entity.Lot, error) {
	return r.list(ctx, materialID, true, false)
}

// ListAvailableFIFOForUpdate igual que ListAvailableFIFO pero bloquea las filas.
// Dos salidas concurrentes del mismo material se serializan aquí.
func (r *LotRepo) ListAvailableFIFOForUpdate(ctx context.Context, materialID int64) ([]*entity.Lot, error) {
	return r.list(ctx, materialID, true, true)
}

// ListByMaterial todos los lotes (o solo los que tienen disponible).
func (r *LotRepo) ListByMaterial(ctx context.Context, materialID int64, onlyAvailable bool) ([]*entity.Lot, error) {
	return r.list(ctx, materialID, onlyAvailable, false)
}

// Reduce descuenta amount del disponible sin dejarlo negativo.
func (r *LotRepo) Reduce(ctx context.Context, lotID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidQuantity
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE lots SET available_quantity = available_quantity - $2
		WHERE id = $1 AND available_quantity >= $2`, lotID, amount)
	if err != nil {
		return fmt.Errorf("reduce lot: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var available decimal.Decimal
	err = r.q.QueryRow(ctx, `SELECT available_quantity FROM lots WHERE id = $1`, lotID).Scan(&available)
	if err != nil {
		if pgxscan.NotFound(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get lot: %w", err)
	}
	return &domain.InvariantViolationError{LotID: lotID, Requested: amount, Available: available}
}
