package production_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	appkardex "github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/application/production"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/kardex"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/cache"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/memory"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	ene1 = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	ene5 = time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
	ene9 = time.Date(2024, 1, 9, 8, 0, 0, 0, time.UTC)
)

const (
	camisa   int64 = 1
	pantalon int64 = 2
	chaqueta int64 = 3
)

type fixture struct {
	store  *memory.Store
	engine *appkardex.Engine
	svc    *production.Service
	tela   int64
	hilo   int64
	boton  int64
}

// Tela: 100 @ 10 (1 ene) y 50 @ 12 (5 ene). Hilo: 2000 @ 0.1. Botón sin stock.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	clock := func() time.Time { return ene9 }
	engine := appkardex.NewEngine(store, appkardex.WithClock(clock))
	reporter := appkardex.NewReporter(store.Repos(), nil, appkardex.ReporterConfig{}, nil)
	svc := production.NewService(store, store.Repos(), engine, reporter, nil)
	svc.SetClock(clock)
	f := &fixture{store: store, engine: engine, svc: svc}

	for _, m := range []struct {
		id   *int64
		name string
	}{{&f.tela, "Tela"}, {&f.hilo, "Hilo"}, {&f.boton, "Botón"}} {
		mat := &entity.Material{Name: m.name, BaseUnit: "und", Active: true}
		require.NoError(t, store.Repos().Materials.Create(ctx, mat))
		*m.id = mat.ID
	}
	f.receive(t, f.tela, "100", "10", ene1)
	f.receive(t, f.tela, "50", "12", ene5)
	f.receive(t, f.hilo, "2000", "0.1", ene1)

	_, err := svc.SetBillOfMaterials(ctx, camisa, []production.BOMLineInput{
		{MaterialID: f.tela, QuantityPerUnit: d("1.5")},
		{MaterialID: f.hilo, QuantityPerUnit: d("20")},
	})
	require.NoError(t, err)
	_, err = svc.SetBillOfMaterials(ctx, pantalon, []production.BOMLineInput{
		{MaterialID: f.tela, QuantityPerUnit: d("2")},
		{MaterialID: f.hilo, QuantityPerUnit: d("30")},
	})
	require.NoError(t, err)
	_, err = svc.SetBillOfMaterials(ctx, chaqueta, []production.BOMLineInput{
		{MaterialID: f.boton, QuantityPerUnit: d("6")},
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) receive(t *testing.T, materialID int64, qty, cost string, at time.Time) {
	t.Helper()
	_, err := f.engine.ReceiveEntry(context.Background(), appkardex.ReceiptInput{
		MaterialID: materialID,
		Quantity:   d(qty),
		UnitCost:   d(cost),
		Reference:  entity.Reference{Kind: entity.ReferencePurchase, ID: 1},
		ReceivedAt: at,
	})
	require.NoError(t, err)
}

func (f *fixture) order(t *testing.T, items ...production.OrderItemInput) *entity.ProductionOrder {
	t.Helper()
	o, err := f.svc.CreateOrder(context.Background(), items)
	require.NoError(t, err)
	return o
}

func (f *fixture) stock(t *testing.T, materialID int64) decimal.Decimal {
	t.Helper()
	m, err := f.store.Repos().Materials.GetByID(context.Background(), materialID)
	require.NoError(t, err)
	return m.Stock
}

func TestProcessOrder_CosteaItemsPorFIFO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t,
		production.OrderItemInput{ProductID: camisa, Quantity: d("40")},
		production.OrderItemInput{ProductID: pantalon, Quantity: d("30")},
	)

	res, err := f.svc.ProcessOrder(ctx, o.ID, "planta")
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	// Camisa: 60 m de tela del lote A (600) + 800 de hilo (80)
	assert.True(t, res.Items[0].TotalMaterialCost.Equal(d("680")))
	assert.True(t, res.Items[0].UnitCost.Equal(d("17")))
	// Pantalón: 60 m de tela = 40 @ 10 del lote A + 20 @ 12 del lote B (640) + 900 de hilo (90)
	assert.True(t, res.Items[1].TotalMaterialCost.Equal(d("730")))
	require.Len(t, res.Items[1].Breakdown, 2)
	assert.Len(t, res.Items[1].Breakdown[0].Lots, 2, "la tela del pantalón cruza dos lotes")
	assert.Equal(t, "24.33", res.Items[1].UnitCost.StringFixed(2))
	assert.True(t, res.TotalCost.Equal(d("1410")))

	detail, err := f.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCompleted, detail.Order.Status)
	assert.True(t, detail.Order.TotalCost.Equal(d("1410")))
	require.NotNil(t, detail.Order.CompletedAt)
	assert.Equal(t, ene9, *detail.Order.CompletedAt)
	assert.True(t, detail.Order.Items[0].UnitCost.Equal(d("17")))
	assert.Len(t, detail.Consumption, 4)
	for _, c := range detail.Consumption {
		assert.True(t, c.TotalCost.IsPositive())
		assert.NotEmpty(t, c.MovementID)
	}

	assert.True(t, f.stock(t, f.tela).Equal(d("30")))
	assert.True(t, f.stock(t, f.hilo).Equal(d("300")))
	for _, e := range f.store.Entries() {
		if e.Direction == entity.DirectionExit {
			assert.Equal(t, entity.Reference{Kind: entity.ReferenceProductionOrder, ID: o.ID}, e.Reference)
		}
	}
}

func TestProcessOrder_FallaEnSegundoItemRevierteTodo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t,
		production.OrderItemInput{ProductID: camisa, Quantity: d("10")},
		production.OrderItemInput{ProductID: chaqueta, Quantity: d("5")},
		production.OrderItemInput{ProductID: camisa, Quantity: d("5")},
	)
	entriesBefore := len(f.store.Entries())

	_, err := f.svc.ProcessOrder(ctx, o.ID, "planta")

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	detail, err := f.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, detail.Order.Status)
	assert.Empty(t, detail.Consumption, "el primer ítem no conserva consumo")
	for _, it := range detail.Order.Items {
		assert.True(t, it.TotalMaterialCost.IsZero())
	}
	assert.Len(t, f.store.Entries(), entriesBefore)
	assert.True(t, f.stock(t, f.tela).Equal(d("150")))
	lots, err := f.store.Repos().Lots.ListByMaterial(ctx, f.tela, false)
	require.NoError(t, err)
	assert.True(t, lots[0].AvailableQuantity.Equal(d("100")))

	// Tras comprar botones la misma orden se procesa
	f.receive(t, f.boton, "30", "0.5", ene9)
	res, err := f.svc.ProcessOrder(ctx, o.ID, "planta")
	require.NoError(t, err)
	assert.True(t, res.Items[1].TotalMaterialCost.Equal(d("15")))
}

func TestProcessOrder_SoloPendientes(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, production.OrderItemInput{ProductID: camisa, Quantity: d("1")})

	_, err := f.svc.ProcessOrder(context.Background(), o.ID, "planta")
	require.NoError(t, err)
	_, err = f.svc.ProcessOrder(context.Background(), o.ID, "planta")
	assert.ErrorIs(t, err, domain.ErrOrderNotPending)

	_, err = f.svc.ProcessOrder(context.Background(), 999, "planta")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProcessOrder_SinFichaTecnica(t *testing.T) {
	f := newFixture(t)
	o := f.order(t,
		production.OrderItemInput{ProductID: camisa, Quantity: d("1")},
		production.OrderItemInput{ProductID: 77, Quantity: d("1")},
	)

	_, err := f.svc.ProcessOrder(context.Background(), o.ID, "planta")

	assert.ErrorIs(t, err, domain.ErrMissingBillOfMaterials)
	assert.True(t, f.stock(t, f.tela).Equal(d("150")))
}

func TestProcessOrder_OmiteRenglonesSinCantidad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Repos().BOM.Replace(ctx, 50, []entity.BOMLine{
		{MaterialID: f.tela, QuantityPerUnit: d("0"), Position: 1},
		{MaterialID: f.hilo, QuantityPerUnit: d("10"), Position: 2},
	}))
	o := f.order(t, production.OrderItemInput{ProductID: 50, Quantity: d("2")})

	res, err := f.svc.ProcessOrder(ctx, o.ID, "planta")
	require.NoError(t, err)

	require.Len(t, res.Items[0].Breakdown, 1)
	assert.Equal(t, f.hilo, res.Items[0].Breakdown[0].MaterialID)
	assert.True(t, f.stock(t, f.tela).Equal(d("150")))
}

func TestProcessOrder_RedondeaConsumoALaEscalaDeCantidad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const tercio int64 = 60
	_, err := f.svc.SetBillOfMaterials(ctx, tercio, []production.BOMLineInput{
		{MaterialID: f.tela, QuantityPerUnit: d("0.333333")},
	})
	require.NoError(t, err)
	o := f.order(t, production.OrderItemInput{ProductID: tercio, Quantity: d("0.333333")})

	res, err := f.svc.ProcessOrder(ctx, o.ID, "planta")
	require.NoError(t, err)

	// 0.333333 x 0.333333 = 0.111110888889 -> 0.111111 @ 10
	require.Len(t, res.Items[0].Breakdown, 1)
	assert.True(t, res.Items[0].Breakdown[0].Quantity.Equal(d("0.111111")))
	assert.True(t, res.TotalCost.Equal(d("1.11111")))

	detail, err := f.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, detail.Consumption, 1)
	rec := detail.Consumption[0]
	assert.True(t, rec.Quantity.Equal(d("0.111111")))
	assert.True(t, rec.TotalCost.Equal(res.TotalCost))

	// Lo que queda en el kardex suma exactamente el costo devuelto
	ledger := decimal.Zero
	for _, e := range f.store.Entries() {
		if e.MovementID != rec.MovementID {
			continue
		}
		assert.True(t, kardex.FitsScale(e.Quantity, kardex.QuantityScale), e.Quantity.String())
		ledger = ledger.Add(e.TotalCost())
	}
	assert.True(t, ledger.Equal(rec.TotalCost), ledger.String())
	assert.True(t, f.stock(t, f.tela).Equal(d("149.888889")))
}

func TestCreateOrder_RechazaMasDeSeisDecimales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, []production.OrderItemInput{{ProductID: camisa, Quantity: d("0.0000001")}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.svc.SetBillOfMaterials(ctx, camisa, []production.BOMLineInput{{MaterialID: f.tela, QuantityPerUnit: d("1.1234567")}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestEstimateOrderCost_UsaSaldosDelReporteYLosDejaEnCache(t *testing.T) {
	f := newFixture(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	balances := cache.NewBalanceCache(client, time.Minute)
	reporter := appkardex.NewReporter(f.store.Repos(), balances, appkardex.ReporterConfig{}, nil)
	svc := production.NewService(f.store, f.store.Repos(), f.engine, reporter, nil)
	o := f.order(t, production.OrderItemInput{ProductID: camisa, Quantity: d("40")})

	est, err := svc.EstimateOrderCost(context.Background(), o.ID)
	require.NoError(t, err)

	assert.Equal(t, "640.00", est.Items[0].Lines[0].EstimatedCost.StringFixed(2))
	assert.True(t, mr.Exists("kardex:balance:"+strconv.FormatInt(f.tela, 10)), "el saldo de la tela queda en caché")
	assert.True(t, mr.Exists("kardex:balance:"+strconv.FormatInt(f.hilo, 10)))
}

func TestEstimateOrderCost_AproximadoYSinEfectos(t *testing.T) {
	f := newFixture(t)
	o := f.order(t,
		production.OrderItemInput{ProductID: camisa, Quantity: d("40")},
		production.OrderItemInput{ProductID: chaqueta, Quantity: d("1")},
	)

	est, err := f.svc.EstimateOrderCost(context.Background(), o.ID)
	require.NoError(t, err)

	assert.True(t, est.Approximate)
	require.Len(t, est.Items, 2)
	// Promedio ponderado de la tela: 1600 / 150
	assert.Equal(t, "640.00", est.Items[0].Lines[0].EstimatedCost.StringFixed(2))
	assert.False(t, est.Items[0].Lines[0].Shortage)
	assert.True(t, est.Items[1].Lines[0].Shortage, "no hay botones")
	assert.Equal(t, "720.00", est.EstimatedCost.StringFixed(2))

	assert.True(t, f.stock(t, f.tela).Equal(d("150")))
	detail, err := f.svc.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, detail.Order.Pending())
	assert.Empty(t, detail.Consumption)
}

func TestCreateOrder_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.CreateOrder(ctx, []production.OrderItemInput{{ProductID: camisa, Quantity: d("0")}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.svc.CreateOrder(ctx, []production.OrderItemInput{{ProductID: 0, Quantity: d("1")}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	o := f.order(t, production.OrderItemInput{ProductID: camisa, Quantity: d("3")})
	assert.True(t, o.Pending())
	require.Len(t, o.Items, 1)
	assert.NotZero(t, o.Items[0].ID)
}

func TestSetBillOfMaterials_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SetBillOfMaterials(ctx, camisa, []production.BOMLineInput{
		{MaterialID: f.tela, QuantityPerUnit: d("1")},
		{MaterialID: f.tela, QuantityPerUnit: d("2")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "materia prima repetida")

	_, err = f.svc.SetBillOfMaterials(ctx, camisa, []production.BOMLineInput{{MaterialID: 404, QuantityPerUnit: d("1")}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.SetBillOfMaterials(ctx, camisa, []production.BOMLineInput{{MaterialID: f.tela, QuantityPerUnit: d("-1")}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// La ficha anterior sigue vigente
	bom, err := f.svc.BillOfMaterials(ctx, camisa)
	require.NoError(t, err)
	require.Len(t, bom, 2)
	assert.Equal(t, f.tela, bom[0].MaterialID)
	assert.True(t, bom[1].QuantityPerUnit.Equal(d("20")))
}
