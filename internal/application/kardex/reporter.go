package kardex

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/kardex"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/jhoicas/Kardex-api/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ReporterConfig parámetros de saldos y proyecciones.
type ReporterConfig struct {
	Thresholds       kardex.Thresholds
	AlertConcurrency int
}

// Reporter solo lee: saldos, proyección de agotamiento, alertas y tarjeta de kardex.
// No toma bloqueos; tolera acumulados levemente desactualizados.
type Reporter struct {
	repos Repos
	cache BalanceCache
	cfg   ReporterConfig
	log   *logger.Logger
	now   func() time.Time
}

// NewReporter construye el reporteador. repos debe estar atado al pool (no a una transacción).
func NewReporter(repos Repos, cache BalanceCache, cfg ReporterConfig, log *logger.Logger) *Reporter {
	if cfg.Thresholds == (kardex.Thresholds{}) {
		cfg.Thresholds = kardex.DefaultThresholds()
	}
	if cfg.AlertConcurrency <= 0 {
		cfg.AlertConcurrency = 4
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Reporter{repos: repos, cache: cache, cfg: cfg, log: log, now: time.Now}
}

// SetClock reemplaza time.Now (tests).
func (r *Reporter) SetClock(now func() time.Time) { r.now = now }

func (r *Reporter) material(ctx context.Context, id int64) (*entity.Material, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidInput
	}
	m, err := r.repos.Materials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

// CurrentBalance saldo valorizado a partir de los lotes disponibles.
func (r *Reporter) CurrentBalance(ctx context.Context, materialID int64) (kardex.Balance, error) {
	if _, err := r.material(ctx, materialID); err != nil {
		return kardex.Balance{}, err
	}
	return r.balance(ctx, materialID)
}

func (r *Reporter) balance(ctx context.Context, materialID int64) (kardex.Balance, error) {
	var (
		version   int64
		cacheable bool
	)
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, materialID)
		if err != nil {
			r.log.Warn().Err(err).Int64("material_id", materialID).Msg("lectura de caché de saldos")
		} else if cached != nil {
			return *cached, nil
		}
		// La versión se toma antes de leer los lotes.
		if version, err = r.cache.Version(ctx, materialID); err != nil {
			r.log.Warn().Err(err).Int64("material_id", materialID).Msg("versión de caché de saldos")
		} else {
			cacheable = true
		}
	}
	lots, err := r.repos.Lots.ListAvailableFIFO(ctx, materialID)
	if err != nil {
		return kardex.Balance{}, err
	}
	bal := kardex.ComputeBalance(materialID, lots)
	if cacheable {
		if err := r.cache.Set(ctx, bal, version); err != nil {
			r.log.Warn().Err(err).Int64("material_id", materialID).Msg("escritura de caché de saldos")
		}
	}
	return bal, nil
}

// ForecastDepletion proyecta los días de stock restantes según las salidas de los últimos lookbackDays.
func (r *Reporter) ForecastDepletion(ctx context.Context, materialID int64, lookbackDays int) (kardex.Forecast, error) {
	if lookbackDays <= 0 {
		return kardex.Forecast{}, domain.ErrInvalidInput
	}
	if _, err := r.material(ctx, materialID); err != nil {
		return kardex.Forecast{}, err
	}
	f, _, err := r.forecast(ctx, materialID, lookbackDays)
	return f, err
}

func (r *Reporter) forecast(ctx context.Context, materialID int64, lookbackDays int) (kardex.Forecast, kardex.Balance, error) {
	bal, err := r.balance(ctx, materialID)
	if err != nil {
		return kardex.Forecast{}, kardex.Balance{}, err
	}
	asOf := r.now()
	exits, err := r.repos.Kardex.SumExits(ctx, materialID, asOf.AddDate(0, 0, -lookbackDays), asOf)
	if err != nil {
		return kardex.Forecast{}, kardex.Balance{}, err
	}
	return kardex.ComputeForecast(materialID, bal.Quantity, exits, lookbackDays, asOf, r.cfg.Thresholds), bal, nil
}

// StockAlert materia prima que requiere reposición.
type StockAlert struct {
	MaterialID   int64           `json:"material_id"`
	Name         string          `json:"name"`
	BaseUnit     string          `json:"base_unit"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	BelowMinimum bool            `json:"below_minimum"`
	Balance      kardex.Balance  `json:"balance"`
	Forecast     kardex.Forecast `json:"forecast"`
}

// StockAlerts calcula en paralelo saldo y proyección de cada materia prima activa y devuelve
// las que tienen alerta o están en o bajo el stock mínimo (urgentes primero, luego menos días).
func (r *Reporter) StockAlerts(ctx context.Context, lookbackDays int) ([]StockAlert, error) {
	if lookbackDays <= 0 {
		return nil, domain.ErrInvalidInput
	}
	materials, err := r.repos.Materials.List(ctx, true)
	if err != nil {
		return nil, err
	}

	results := make([]*StockAlert, len(materials))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.AlertConcurrency)
	for i, m := range materials {
		i, m := i, m
		g.Go(func() error {
			f, bal, err := r.forecast(gctx, m.ID, lookbackDays)
			if err != nil {
				return err
			}
			below := f.CurrentQuantity.LessThanOrEqual(m.MinimumStock)
			if f.AlertLevel == kardex.AlertNone && !below {
				return nil
			}
			results[i] = &StockAlert{
				MaterialID:   m.ID,
				Name:         m.Name,
				BaseUnit:     m.BaseUnit,
				MinimumStock: m.MinimumStock,
				BelowMinimum: below,
				Balance:      bal,
				Forecast:     f,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	alerts := make([]StockAlert, 0, len(results))
	for _, a := range results {
		if a != nil {
			alerts = append(alerts, *a)
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i].Forecast, alerts[j].Forecast
		if a.AlertLevel.Severity() != b.AlertLevel.Severity() {
			return a.AlertLevel.Severity() > b.AlertLevel.Severity()
		}
		switch {
		case a.DaysRemaining == nil:
			return false
		case b.DaysRemaining == nil:
			return true
		}
		return *a.DaysRemaining < *b.DaysRemaining
	})
	return alerts, nil
}

// ListKardex lista movimientos de una materia prima con filtros y paginación.
func (r *Reporter) ListKardex(ctx context.Context, filter repository.KardexFilter) ([]*entity.KardexEntry, error) {
	if _, err := r.material(ctx, filter.MaterialID); err != nil {
		return nil, err
	}
	if filter.Direction != "" && !filter.Direction.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return r.repos.Kardex.List(ctx, filter)
}

// StockCardLine movimiento con el saldo en cantidad acumulado hasta él.
type StockCardLine struct {
	Entry   *entity.KardexEntry `json:"entry"`
	Balance decimal.Decimal     `json:"balance"`
}

// StockCard tarjeta de kardex de una materia prima en un rango de fechas.
type StockCard struct {
	Material *entity.Material `json:"material"`
	From     *time.Time       `json:"from,omitempty"`
	To       *time.Time       `json:"to,omitempty"`
	Opening  decimal.Decimal  `json:"opening"`
	Closing  decimal.Decimal  `json:"closing"`
	Lines    []StockCardLine  `json:"lines"`
}

// maxStockCardLines tope de movimientos por tarjeta.
const maxStockCardLines = 5000

// StockCard arma la tarjeta de kardex: saldo inicial (movimientos antes de from) y saldo
// acumulado por movimiento en orden cronológico.
func (r *Reporter) StockCard(ctx context.Context, materialID int64, from, to *time.Time) (*StockCard, error) {
	m, err := r.material(ctx, materialID)
	if err != nil {
		return nil, err
	}
	opening := decimal.Zero
	if from != nil {
		opening, err = r.repos.Kardex.NetQuantityBefore(ctx, materialID, *from)
		if err != nil {
			return nil, err
		}
	}
	entries, err := r.repos.Kardex.List(ctx, repository.KardexFilter{
		MaterialID: materialID,
		From:       from,
		To:         to,
		Limit:      maxStockCardLines,
	})
	if err != nil {
		return nil, err
	}
	card := &StockCard{Material: m, From: from, To: to, Opening: opening, Lines: make([]StockCardLine, 0, len(entries))}
	running := opening
	for _, e := range entries {
		running = running.Add(e.SignedQuantity())
		card.Lines = append(card.Lines, StockCardLine{Entry: e, Balance: running})
	}
	card.Closing = running
	return card, nil
}

// ListLots lotes de una materia prima (FIFO); onlyAvailable omite los agotados.
func (r *Reporter) ListLots(ctx context.Context, materialID int64, onlyAvailable bool) ([]*entity.Lot, error) {
	if _, err := r.material(ctx, materialID); err != nil {
		return nil, err
	}
	lots, err := r.repos.Lots.ListByMaterial(ctx, materialID, onlyAvailable)
	if err != nil {
		return nil, err
	}
	kardex.SortFIFO(lots)
	return lots, nil
}
