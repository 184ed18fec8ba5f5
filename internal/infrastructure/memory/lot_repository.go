package memory

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/kardex"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo lotes en memoria.
type LotRepo struct{ a access }

func (r *LotRepo) Create(_ context.Context, lot *entity.Lot) error {
	if err := fault(r.a, "Lots.Create"); err != nil {
		return err
	}
	return r.a.write(func(st *state) error {
		st.seq.lot++
		lot.ID = st.seq.lot
		st.lots[lot.ID] = *lot
		return nil
	})
}

func (r *LotRepo) list(materialID int64, onlyAvailable bool) ([]*entity.Lot, error) {
	var lots []*entity.Lot
	err := r.a.read(func(st *state) error {
		for _, l := range st.lots {
			if l.MaterialID != materialID {
				continue
			}
			if onlyAvailable && !l.AvailableQuantity.IsPositive() {
				continue
			}
			l := l
			lots = append(lots, &l)
		}
		return nil
	})
	kardex.SortFIFO(lots)
	return lots, err
}

func (r *LotRepo) ListAvailableFIFO(_ context.Context, materialID int64) ([]*entity.Lot, error) {
	return r.list(materialID, true)
}

func (r *LotRepo) ListAvailableFIFOForUpdate(_ context.Context, materialID int64) ([]*entity.Lot, error) {
	if err := fault(r.a, "Lots.ListAvailableFIFOForUpdate"); err != nil {
		return nil, err
	}
	return r.list(materialID, true)
}

func (r *LotRepo) ListByMaterial(_ context.Context, materialID int64, onlyAvailable bool) ([]*entity.Lot, error) {
	return r.list(materialID, onlyAvailable)
}

func (r *LotRepo) Reduce(_ context.Context, lotID int64, amount decimal.Decimal) error {
	if err := fault(r.a, "Lots.Reduce"); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return domain.ErrInvalidQuantity
	}
	return r.a.write(func(st *state) error {
		l, ok := st.lots[lotID]
		if !ok {
			return domain.ErrNotFound
		}
		if amount.GreaterThan(l.AvailableQuantity) {
			return &domain.InvariantViolationError{LotID: lotID, Requested: amount, Available: l.AvailableQuantity}
		}
		l.AvailableQuantity = l.AvailableQuantity.Sub(amount)
		st.lots[lotID] = l
		return nil
	})
}
