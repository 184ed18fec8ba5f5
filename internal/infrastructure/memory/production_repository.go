package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.ProductionOrderRepository = (*ProductionOrderRepo)(nil)
	_ repository.ConsumptionRepository     = (*ConsumptionRepo)(nil)
	_ repository.BOMRepository             = (*BOMRepo)(nil)
)

// ProductionOrderRepo órdenes de producción en memoria.
type ProductionOrderRepo struct{ a access }

func (r *ProductionOrderRepo) Create(_ context.Context, o *entity.ProductionOrder) error {
	return r.a.write(func(st *state) error {
		st.seq.order++
		o.ID = st.seq.order
		if o.Status == "" {
			o.Status = entity.OrderStatusPending
		}
		for i := range o.Items {
			st.seq.item++
			o.Items[i].ID = st.seq.item
			o.Items[i].OrderID = o.ID
		}
		stored := *o
		stored.Items = append([]entity.ProductionItem(nil), o.Items...)
		st.orders[o.ID] = stored
		return nil
	})
}

func (r *ProductionOrderRepo) GetByID(_ context.Context, id int64) (*entity.ProductionOrder, error) {
	var out *entity.ProductionOrder
	err := r.a.read(func(st *state) error {
		if o, ok := st.orders[id]; ok {
			o.Items = append([]entity.ProductionItem(nil), o.Items...)
			out = &o
		}
		return nil
	})
	return out, err
}

func (r *ProductionOrderRepo) GetForUpdate(ctx context.Context, id int64) (*entity.ProductionOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductionOrderRepo) UpdateItemCost(_ context.Context, itemID int64, total, unit decimal.Decimal) error {
	return r.a.write(func(st *state) error {
		for id, o := range st.orders {
			for i := range o.Items {
				if o.Items[i].ID != itemID {
					continue
				}
				items := append([]entity.ProductionItem(nil), o.Items...)
				items[i].TotalMaterialCost = total
				items[i].UnitCost = unit
				o.Items = items
				st.orders[id] = o
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (r *ProductionOrderRepo) Complete(_ context.Context, id int64, total decimal.Decimal, at time.Time) error {
	return r.a.write(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return domain.ErrNotFound
		}
		o.Status = entity.OrderStatusCompleted
		o.TotalCost = total
		o.CompletedAt = &at
		st.orders[id] = o
		return nil
	})
}

// ConsumptionRepo registros de consumo en memoria.
type ConsumptionRepo struct{ a access }

func (r *ConsumptionRepo) Create(_ context.Context, c *entity.ConsumptionRecord) error {
	if err := fault(r.a, "Consumption.Create"); err != nil {
		return err
	}
	return r.a.write(func(st *state) error {
		st.seq.consumption++
		c.ID = st.seq.consumption
		st.consumption = append(st.consumption, *c)
		return nil
	})
}

func (r *ConsumptionRepo) ListByOrder(_ context.Context, orderID int64) ([]*entity.ConsumptionRecord, error) {
	var list []*entity.ConsumptionRecord
	err := r.a.read(func(st *state) error {
		for _, c := range st.consumption {
			if c.OrderID == orderID {
				c := c
				list = append(list, &c)
			}
		}
		return nil
	})
	return list, err
}

// BOMRepo fichas técnicas en memoria.
type BOMRepo struct{ a access }

func (r *BOMRepo) ListByProduct(_ context.Context, productID int64) ([]entity.BOMLine, error) {
	var lines []entity.BOMLine
	err := r.a.read(func(st *state) error {
		lines = append(lines, st.bom[productID]...)
		return nil
	})
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Position < lines[j].Position })
	return lines, err
}

func (r *BOMRepo) Replace(_ context.Context, productID int64, lines []entity.BOMLine) error {
	return r.a.write(func(st *state) error {
		copied := make([]entity.BOMLine, len(lines))
		for i, l := range lines {
			l.ProductID = productID
			if l.Position == 0 {
				l.Position = i + 1
			}
			copied[i] = l
		}
		st.bom[productID] = copied
		return nil
	})
}
