package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/kardex"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// MaterialUseCase casos de uso del catálogo de materias primas. Stock se maneja vía movimientos.
type MaterialUseCase struct {
	repo repository.MaterialRepository
	now  func() time.Time
}

// NewMaterialUseCase construye el caso de uso.
func NewMaterialUseCase(repo repository.MaterialRepository) *MaterialUseCase {
	return &MaterialUseCase{repo: repo, now: time.Now}
}

// Create da de alta una materia prima activa con stock cero.
func (uc *MaterialUseCase) Create(ctx context.Context, in dto.CreateMaterialRequest) (*dto.MaterialResponse, error) {
	name := strings.TrimSpace(in.Name)
	unit := strings.TrimSpace(in.BaseUnit)
	if name == "" || unit == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.MinimumStock.IsNegative() || !kardex.FitsScale(in.MinimumStock, kardex.QuantityScale) {
		return nil, domain.ErrInvalidQuantity
	}
	now := uc.now()
	m := &entity.Material{
		Name:         name,
		BaseUnit:     unit,
		MinimumStock: in.MinimumStock,
		Stock:        decimal.Zero,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	out := dto.FromMaterial(m)
	return &out, nil
}

// GetByID obtiene una materia prima; ErrNotFound si no existe.
func (uc *MaterialUseCase) GetByID(ctx context.Context, id int64) (*dto.MaterialResponse, error) {
	m, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := dto.FromMaterial(m)
	return &out, nil
}

func (uc *MaterialUseCase) get(ctx context.Context, id int64) (*entity.Material, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidInput
	}
	m, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

// List lista el catálogo; activeOnly omite las desactivadas.
func (uc *MaterialUseCase) List(ctx context.Context, activeOnly bool) (*dto.MaterialListResponse, error) {
	list, err := uc.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := &dto.MaterialListResponse{Items: make([]dto.MaterialResponse, 0, len(list))}
	for _, m := range list {
		out.Items = append(out.Items, dto.FromMaterial(m))
	}
	return out, nil
}

// Update modifica nombre, unidad base o stock mínimo.
func (uc *MaterialUseCase) Update(ctx context.Context, id int64, in dto.UpdateMaterialRequest) (*dto.MaterialResponse, error) {
	m, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if m.Name = strings.TrimSpace(*in.Name); m.Name == "" {
			return nil, domain.ErrInvalidInput
		}
	}
	if in.BaseUnit != nil {
		if m.BaseUnit = strings.TrimSpace(*in.BaseUnit); m.BaseUnit == "" {
			return nil, domain.ErrInvalidInput
		}
	}
	if in.MinimumStock != nil {
		if in.MinimumStock.IsNegative() || !kardex.FitsScale(*in.MinimumStock, kardex.QuantityScale) {
			return nil, domain.ErrInvalidQuantity
		}
		m.MinimumStock = *in.MinimumStock
	}
	m.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	out := dto.FromMaterial(m)
	return &out, nil
}

// Deactivate desactiva la materia prima: no admite más entradas pero conserva su historial.
func (uc *MaterialUseCase) Deactivate(ctx context.Context, id int64) error {
	if _, err := uc.get(ctx, id); err != nil {
		return err
	}
	return uc.repo.Deactivate(ctx, id)
}
