package production

import (
	"context"
	"fmt"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/kardex"
	"github.com/shopspring/decimal"
)

// EstimateLine costo estimado de una materia prima para un ítem.
type EstimateLine struct {
	MaterialID          int64           `json:"material_id"`
	Quantity            decimal.Decimal `json:"quantity"`
	WeightedAverageCost decimal.Decimal `json:"weighted_average_cost"`
	EstimatedCost       decimal.Decimal `json:"estimated_cost"`
	Available           decimal.Decimal `json:"available"`
	Shortage            bool            `json:"shortage"`
}

// ItemEstimate estimación de un ítem.
type ItemEstimate struct {
	ItemID        int64           `json:"item_id"`
	ProductID     int64           `json:"product_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Lines         []EstimateLine  `json:"lines"`
}

// OrderEstimate vista previa del costo de una orden.
type OrderEstimate struct {
	OrderID       int64           `json:"order_id"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	Approximate   bool            `json:"approximate"`
	Items         []ItemEstimate  `json:"items"`
}

// EstimateOrderCost costo aproximado con el costo promedio ponderado actual de cada materia
// prima. No bloquea ni escribe nada. Puede diferir del costo FIFO que fija ProcessOrder, que es
// el que vale; Shortage marca las líneas que hoy no alcanzarían.
func (s *Service) EstimateOrderCost(ctx context.Context, orderID int64) (*OrderEstimate, error) {
	detail, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	balances := make(map[int64]kardex.Balance)
	est := &OrderEstimate{OrderID: orderID, EstimatedCost: decimal.Zero, Approximate: true}

	for _, item := range detail.Order.Items {
		bom, err := s.repos.BOM.ListByProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if len(bom) == 0 {
			return nil, fmt.Errorf("producto %d: %w", item.ProductID, domain.ErrMissingBillOfMaterials)
		}
		ie := ItemEstimate{ItemID: item.ID, ProductID: item.ProductID, Quantity: item.QuantityProduced, EstimatedCost: decimal.Zero}
		for _, line := range bom {
			needed := kardex.RoundQuantity(line.QuantityPerUnit.Mul(item.QuantityProduced))
			if !needed.IsPositive() {
				continue
			}
			bal, ok := balances[line.MaterialID]
			if !ok {
				bal, err = s.reporter.CurrentBalance(ctx, line.MaterialID)
				if err != nil {
					return nil, err
				}
				balances[line.MaterialID] = bal
			}
			cost := needed.Mul(bal.WeightedAverageCost)
			ie.Lines = append(ie.Lines, EstimateLine{
				MaterialID:          line.MaterialID,
				Quantity:            needed,
				WeightedAverageCost: bal.WeightedAverageCost,
				EstimatedCost:       cost,
				Available:           bal.Quantity,
				Shortage:            bal.Quantity.LessThan(needed),
			})
			ie.EstimatedCost = ie.EstimatedCost.Add(cost)
		}
		ie.UnitCost = kardex.BlendedUnitCost(ie.EstimatedCost, item.QuantityProduced)
		est.Items = append(est.Items, ie)
		est.EstimatedCost = est.EstimatedCost.Add(ie.EstimatedCost)
	}
	return est, nil
}
