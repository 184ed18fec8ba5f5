package dto

import "github.com/jhoicas/Kardex-api/internal/domain/entity"

// FromMaterial arma la respuesta de una materia prima.
func FromMaterial(m *entity.Material) MaterialResponse {
	return MaterialResponse{
		ID:           m.ID,
		Name:         m.Name,
		BaseUnit:     m.BaseUnit,
		MinimumStock: m.MinimumStock,
		Stock:        m.Stock,
		Active:       m.Active,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func FromKardexEntry(e *entity.KardexEntry) KardexEntryResponse {
	return KardexEntryResponse{
		ID:            e.ID,
		MovementID:    e.MovementID,
		LotID:         e.LotID,
		MaterialID:    e.MaterialID,
		Direction:     string(e.Direction),
		ReferenceKind: e.Reference.Kind.String(),
		ReferenceID:   e.Reference.ID,
		Quantity:      e.Quantity,
		UnitCost:      e.UnitCost,
		TotalCost:     e.TotalCost(),
		CreatedAt:     e.CreatedAt,
		CreatedBy:     e.CreatedBy,
	}
}

func FromLot(l *entity.Lot) LotResponse {
	return LotResponse{
		ID:                l.ID,
		MaterialID:        l.MaterialID,
		OriginalQuantity:  l.OriginalQuantity,
		AvailableQuantity: l.AvailableQuantity,
		UnitCost:          l.UnitCost,
		ReceivedAt:        l.ReceivedAt,
		SourceRef:         l.SourceRef,
		Exhausted:         l.Exhausted(),
	}
}

// FromOrder arma la orden; consumption puede ser nil (orden pendiente).
func FromOrder(o *entity.ProductionOrder, consumption []*entity.ConsumptionRecord) OrderResponse {
	out := OrderResponse{
		ID:          o.ID,
		Status:      o.Status,
		TotalCost:   o.TotalCost,
		CreatedAt:   o.CreatedAt,
		CompletedAt: o.CompletedAt,
		Items:       make([]OrderItemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, OrderItemResponse{
			ID:                it.ID,
			ProductID:         it.ProductID,
			QuantityProduced:  it.QuantityProduced,
			TotalMaterialCost: it.TotalMaterialCost,
			UnitCost:          it.UnitCost,
		})
	}
	for _, c := range consumption {
		out.Consumption = append(out.Consumption, ConsumptionResponse{
			ProductionItemID: c.ProductionItemID,
			MaterialID:       c.MaterialID,
			Quantity:         c.Quantity,
			UnitCost:         c.UnitCost,
			TotalCost:        c.TotalCost,
			MovementID:       c.MovementID,
		})
	}
	return out
}

func FromBOM(productID int64, lines []entity.BOMLine) BOMResponse {
	out := BOMResponse{ProductID: productID, Lines: make([]BOMLineResponse, 0, len(lines))}
	for _, l := range lines {
		out.Lines = append(out.Lines, BOMLineResponse{MaterialID: l.MaterialID, QuantityPerUnit: l.QuantityPerUnit, Position: l.Position})
	}
	return out
}
