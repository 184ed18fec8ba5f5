package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

// MaterialRepo materias primas en memoria.
type MaterialRepo struct{ a access }

func (r *MaterialRepo) Create(_ context.Context, m *entity.Material) error {
	if err := fault(r.a, "Materials.Create"); err != nil {
		return err
	}
	return r.a.write(func(st *state) error {
		for _, other := range st.materials {
			if other.Name == m.Name {
				return domain.ErrDuplicate
			}
		}
		st.seq.material++
		m.ID = st.seq.material
		st.materials[m.ID] = *m
		return nil
	})
}

func (r *MaterialRepo) GetByID(_ context.Context, id int64) (*entity.Material, error) {
	var out *entity.Material
	err := r.a.read(func(st *state) error {
		if m, ok := st.materials[id]; ok {
			out = &m
		}
		return nil
	})
	return out, err
}

func (r *MaterialRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Material, error) {
	if err := fault(r.a, "Materials.GetForUpdate"); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *MaterialRepo) List(_ context.Context, activeOnly bool) ([]*entity.Material, error) {
	var list []*entity.Material
	err := r.a.read(func(st *state) error {
		for _, m := range st.materials {
			if activeOnly && !m.Active {
				continue
			}
			m := m
			list = append(list, &m)
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, err
}

func (r *MaterialRepo) Update(_ context.Context, m *entity.Material) error {
	return r.a.write(func(st *state) error {
		cur, ok := st.materials[m.ID]
		if !ok {
			return domain.ErrNotFound
		}
		for id, other := range st.materials {
			if id != m.ID && other.Name == m.Name {
				return domain.ErrDuplicate
			}
		}
		cur.Name = m.Name
		cur.BaseUnit = m.BaseUnit
		cur.MinimumStock = m.MinimumStock
		cur.UpdatedAt = m.UpdatedAt
		st.materials[m.ID] = cur
		return nil
	})
}

func (r *MaterialRepo) AdjustStock(_ context.Context, id int64, delta decimal.Decimal) error {
	if err := fault(r.a, "Materials.AdjustStock"); err != nil {
		return err
	}
	return r.a.write(func(st *state) error {
		m, ok := st.materials[id]
		if !ok {
			return nil
		}
		m.Stock = m.Stock.Add(delta)
		st.materials[id] = m
		return nil
	})
}

func (r *MaterialRepo) SetStock(_ context.Context, id int64, stock decimal.Decimal) error {
	return r.a.write(func(st *state) error {
		m, ok := st.materials[id]
		if !ok {
			return nil
		}
		m.Stock = stock
		st.materials[id] = m
		return nil
	})
}

func (r *MaterialRepo) Deactivate(_ context.Context, id int64) error {
	return r.a.write(func(st *state) error {
		m, ok := st.materials[id]
		if !ok {
			return nil
		}
		m.Active = false
		st.materials[id] = m
		return nil
	})
}
