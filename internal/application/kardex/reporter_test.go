package kardex_test

import (
	"context"
	"testing"
	"time"

	appkardex "github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/kardex"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mediodía del 9 de enero: las salidas del motor (8:00) quedan dentro de la ventana.
var corte = time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC)

func (f *fixture) reporter() *appkardex.Reporter {
	r := appkardex.NewReporter(f.store.Repos(), f.cache, appkardex.ReporterConfig{}, nil)
	r.SetClock(func() time.Time { return corte })
	return r
}

func TestCurrentBalance_SaldoValorizadoYCache(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	f.receive(t, tela, "100", "10", ene1)
	f.receive(t, tela, "50", "12", ene5)
	_, err := f.exit(tela, "120")
	require.NoError(t, err)
	rep := f.reporter()

	bal, err := rep.CurrentBalance(context.Background(), tela)
	require.NoError(t, err)

	assert.True(t, bal.Quantity.Equal(d("30")))
	assert.True(t, bal.TotalCost.Equal(d("360")))
	assert.True(t, bal.WeightedAverageCost.Equal(d("12")))
	assert.Equal(t, 1, bal.Lots)
	cached, _ := f.cache.Get(context.Background(), tela)
	require.NotNil(t, cached, "el saldo queda en caché")

	// Una entrada posterior invalida la caché
	f.receive(t, tela, "10", "15", ene9)
	bal, err = rep.CurrentBalance(context.Background(), tela)
	require.NoError(t, err)
	assert.True(t, bal.Quantity.Equal(d("40")))
	assert.True(t, bal.TotalCost.Equal(d("510")))
}

// lotsThenWrite ejecuta after (una sola vez) justo después de leer los lotes.
type lotsThenWrite struct {
	repository.LotRepository
	after func()
}

func (l *lotsThenWrite) ListAvailableFIFO(ctx context.Context, materialID int64) ([]*entity.Lot, error) {
	lots, err := l.LotRepository.ListAvailableFIFO(ctx, materialID)
	if l.after != nil {
		after := l.after
		l.after = nil
		after()
	}
	return lots, err
}

func TestCurrentBalance_NoRepondeSaldoInvalidadoEnMedio(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	f.receive(t, tela, "100", "10", ene1)

	repos := f.store.Repos()
	repos.Lots = &lotsThenWrite{LotRepository: repos.Lots, after: func() {
		f.receive(t, tela, "50", "12", ene5)
	}}
	rep := appkardex.NewReporter(repos, f.cache, appkardex.ReporterConfig{}, nil)

	// La lectura vio solo el primer lote; la entrada confirmó e invalidó antes del Set.
	bal, err := rep.CurrentBalance(context.Background(), tela)
	require.NoError(t, err)
	assert.True(t, bal.Quantity.Equal(d("100")))
	assert.Equal(t, 1, f.cache.rejected)
	cached, _ := f.cache.Get(context.Background(), tela)
	assert.Nil(t, cached, "el saldo viejo no queda en caché")

	bal, err = rep.CurrentBalance(context.Background(), tela)
	require.NoError(t, err)
	assert.True(t, bal.Quantity.Equal(d("150")))
	cached, _ = f.cache.Get(context.Background(), tela)
	require.NotNil(t, cached)
	assert.True(t, cached.Quantity.Equal(d("150")))
}

func TestCurrentBalance_SinLotes(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")

	bal, err := f.reporter().CurrentBalance(context.Background(), tela)
	require.NoError(t, err)
	assert.True(t, bal.Quantity.IsZero())
	assert.True(t, bal.WeightedAverageCost.IsZero())

	_, err = f.reporter().CurrentBalance(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestForecastDepletion(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	f.receive(t, tela, "100", "10", ene1)
	_, err := f.exit(tela, "60")
	require.NoError(t, err)

	fc, err := f.reporter().ForecastDepletion(context.Background(), tela, 30)
	require.NoError(t, err)

	assert.True(t, fc.TotalExits.Equal(d("60")))
	assert.True(t, fc.AvgDailyConsumption.Equal(d("2")))
	require.NotNil(t, fc.DaysRemaining)
	assert.Equal(t, int64(20), *fc.DaysRemaining)
	require.NotNil(t, fc.EstimatedDepletionDate)
	assert.Equal(t, time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC), *fc.EstimatedDepletionDate)
	assert.Equal(t, kardex.AlertPreventive, fc.AlertLevel)
}

func TestForecastDepletion_SinConsumo(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	f.receive(t, tela, "100", "10", ene1)

	fc, err := f.reporter().ForecastDepletion(context.Background(), tela, 30)
	require.NoError(t, err)
	assert.Nil(t, fc.DaysRemaining)
	assert.Nil(t, fc.EstimatedDepletionDate)
	assert.Equal(t, kardex.AlertNone, fc.AlertLevel)

	_, err = f.reporter().ForecastDepletion(context.Background(), tela, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStockAlerts_OrdenPorUrgencia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	preventiva := f.material(t, "Hilo")
	f.receive(t, preventiva, "100", "1", ene1)
	_, err := f.exit(preventiva, "60") // quedan 40, 2/día -> 20 días
	require.NoError(t, err)

	urgente := f.material(t, "Tela")
	f.receive(t, urgente, "100", "1", ene1)
	_, err = f.exit(urgente, "90") // quedan 10, 3/día -> 3 días
	require.NoError(t, err)

	holgada := f.material(t, "Cremallera")
	f.receive(t, holgada, "100", "1", ene1)

	bajoMinimo := f.material(t, "Botón") // sin lotes: 0 <= mínimo 10

	inactiva := f.material(t, "Etiqueta")
	require.NoError(t, f.store.Repos().Materials.Deactivate(ctx, inactiva))

	alerts, err := f.reporter().StockAlerts(ctx, 30)
	require.NoError(t, err)

	require.Len(t, alerts, 3)
	assert.Equal(t, urgente, alerts[0].MaterialID)
	assert.Equal(t, kardex.AlertUrgent, alerts[0].Forecast.AlertLevel)
	assert.Equal(t, preventiva, alerts[1].MaterialID)
	assert.Equal(t, kardex.AlertPreventive, alerts[1].Forecast.AlertLevel)
	assert.Equal(t, bajoMinimo, alerts[2].MaterialID)
	assert.Equal(t, kardex.AlertNone, alerts[2].Forecast.AlertLevel)
	assert.True(t, alerts[2].BelowMinimum)
	assert.Equal(t, "Botón", alerts[2].Name)
	assert.NotContains(t, []int64{alerts[0].MaterialID, alerts[1].MaterialID, alerts[2].MaterialID}, holgada)
}

func TestStockCard_SaldoInicialYAcumulado(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	f.receive(t, tela, "100", "10", ene1)
	f.receive(t, tela, "50", "12", ene5)
	_, err := f.exit(tela, "120")
	require.NoError(t, err)

	from := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	card, err := f.reporter().StockCard(context.Background(), tela, &from, nil)
	require.NoError(t, err)

	assert.True(t, card.Opening.Equal(d("100")))
	require.Len(t, card.Lines, 3)
	assert.Equal(t, entity.DirectionEntry, card.Lines[0].Entry.Direction)
	assert.True(t, card.Lines[0].Balance.Equal(d("150")))
	assert.True(t, card.Lines[1].Balance.Equal(d("50")))
	assert.True(t, card.Lines[2].Balance.Equal(d("30")))
	assert.True(t, card.Closing.Equal(d("30")))
	assert.Equal(t, "Tela", card.Material.Name)
}

func TestListKardex_Filtros(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	f.receive(t, tela, "100", "10", ene1)
	f.receive(t, tela, "50", "12", ene5)
	_, err := f.exit(tela, "120")
	require.NoError(t, err)
	rep := f.reporter()
	ctx := context.Background()

	exits, err := rep.ListKardex(ctx, repository.KardexFilter{MaterialID: tela, Direction: entity.DirectionExit})
	require.NoError(t, err)
	assert.Len(t, exits, 2)

	page, err := rep.ListKardex(ctx, repository.KardexFilter{MaterialID: tela, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ene5, page[0].CreatedAt)

	_, err = rep.ListKardex(ctx, repository.KardexFilter{MaterialID: tela, Direction: "SIDEWAYS"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListLots_SoloDisponibles(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	f.receive(t, tela, "100", "10", ene1)
	f.receive(t, tela, "50", "12", ene5)
	_, err := f.exit(tela, "100")
	require.NoError(t, err)
	rep := f.reporter()

	all, err := rep.ListLots(context.Background(), tela, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	available, err := rep.ListLots(context.Background(), tela, true)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.True(t, available[0].UnitCost.Equal(d("12")))
}
