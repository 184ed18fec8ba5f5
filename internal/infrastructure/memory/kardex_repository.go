package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.KardexRepository = (*KardexRepo)(nil)

// KardexRepo libro de movimientos en memoria (solo inserciones).
type KardexRepo struct{ a access }

func (r *KardexRepo) Append(_ context.Context, e *entity.KardexEntry) error {
	if err := fault(r.a, "Kardex.Append"); err != nil {
		return err
	}
	return r.a.write(func(st *state) error {
		st.seq.entry++
		e.ID = st.seq.entry
		st.entries = append(st.entries, *e)
		return nil
	})
}

func (r *KardexRepo) List(_ context.Context, f repository.KardexFilter) ([]*entity.KardexEntry, error) {
	var list []*entity.KardexEntry
	err := r.a.read(func(st *state) error {
		for _, e := range st.entries {
			if e.MaterialID != f.MaterialID {
				continue
			}
			if f.From != nil && e.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && e.CreatedAt.After(*f.To) {
				continue
			}
			if f.Direction != "" && e.Direction != f.Direction {
				continue
			}
			e := e
			list = append(list, &e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	if f.Offset > 0 {
		if f.Offset >= len(list) {
			return nil, nil
		}
		list = list[f.Offset:]
	}
	if f.Limit > 0 && len(list) > f.Limit {
		list = list[:f.Limit]
	}
	return list, nil
}

func (r *KardexRepo) SumExits(_ context.Context, materialID int64, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.a.read(func(st *state) error {
		for _, e := range st.entries {
			if e.MaterialID != materialID || e.Direction != entity.DirectionExit {
				continue
			}
			if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
				continue
			}
			total = total.Add(e.Quantity)
		}
		return nil
	})
	return total, err
}

func (r *KardexRepo) NetQuantityBefore(_ context.Context, materialID int64, t time.Time) (decimal.Decimal, error) {
	net := decimal.Zero
	err := r.a.read(func(st *state) error {
		for _, e := range st.entries {
			if e.MaterialID == materialID && e.CreatedAt.Before(t) {
				net = net.Add(e.SignedQuantity())
			}
		}
		return nil
	})
	return net, err
}

// Entries devuelve todos los movimientos confirmados (tests y diagnóstico).
func (s *Store) Entries() []entity.KardexEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.KardexEntry(nil), s.st.entries...)
}
