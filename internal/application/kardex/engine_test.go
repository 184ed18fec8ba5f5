package kardex_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appkardex "github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/kardex"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/memory"
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

type fakeCache struct {
	mu          sync.Mutex
	data        map[int64]kardex.Balance
	versions    map[int64]int64
	invalidated []int64
	rejected    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[int64]kardex.Balance), versions: make(map[int64]int64)}
}

func (c *fakeCache) Get(_ context.Context, id int64) (*kardex.Balance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.data[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (c *fakeCache) Version(_ context.Context, id int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[id], nil
}

func (c *fakeCache) Set(_ context.Context, b kardex.Balance, version int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[b.MaterialID] != version {
		c.rejected++
		return nil
	}
	c.data[b.MaterialID] = b
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, ids ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.data, id)
		c.versions[id]++
	}
	c.invalidated = append(c.invalidated, ids...)
	return nil
}

type fixture struct {
	store  *memory.Store
	engine *appkardex.Engine
	cache  *fakeCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	cache := newFakeCache()
	engine := appkardex.NewEngine(store,
		appkardex.WithCache(cache),
		appkardex.WithClock(func() time.Time { return ene9 }),
	)
	return &fixture{store: store, engine: engine, cache: cache}
}

func (f *fixture) material(t *testing.T, name string) int64 {
	t.Helper()
	m := &entity.Material{Name: name, BaseUnit: "m", MinimumStock: d("10"), Active: true}
	require.NoError(t, f.store.Repos().Materials.Create(context.Background(), m))
	return m.ID
}

func (f *fixture) receive(t *testing.T, materialID int64, qty, cost string, at time.Time) int64 {
	t.Helper()
	res, err := f.engine.ReceiveEntry(context.Background(), appkardex.ReceiptInput{
		MaterialID: materialID,
		Quantity:   d(qty),
		UnitCost:   d(cost),
		Reference:  entity.Reference{Kind: entity.ReferencePurchase, ID: 1},
		ReceivedAt: at,
		UserID:     "u1",
	})
	require.NoError(t, err)
	return res.LotID
}

func (f *fixture) exit(materialID int64, qty string) (*appkardex.ExitResult, error) {
	return f.engine.ConsumeExit(context.Background(), appkardex.ExitInput{
		MaterialID: materialID,
		Quantity:   d(qty),
		Reference:  entity.Reference{Kind: entity.ReferenceProductionOrder, ID: 77},
		UserID:     "u1",
	})
}

func (f *fixture) lots(t *testing.T, materialID int64) []*entity.Lot {
	t.Helper()
	lots, err := f.store.Repos().Lots.ListByMaterial(context.Background(), materialID, false)
	require.NoError(t, err)
	return lots
}

func (f *fixture) stock(t *testing.T, materialID int64) decimal.Decimal {
	t.Helper()
	m, err := f.store.Repos().Materials.GetByID(context.Background(), materialID)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m.Stock
}

func TestConsumeExit_EscenarioDosLotes(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela denim")
	loteA := f.receive(t, tela, "100", "10", ene1)
	loteB := f.receive(t, tela, "50", "12", ene5)

	res, err := f.exit(tela, "120")
	require.NoError(t, err)

	assert.True(t, res.TotalCost.Equal(d("1240")))
	assert.Equal(t, "10.33", res.BlendedUnitCost.StringFixed(2))
	require.Len(t, res.Breakdown, 2)
	assert.Equal(t, loteA, res.Breakdown[0].LotID)
	assert.True(t, res.Breakdown[0].Quantity.Equal(d("100")))
	assert.Equal(t, loteB, res.Breakdown[1].LotID)
	assert.True(t, res.Breakdown[1].Quantity.Equal(d("20")))

	lots := f.lots(t, tela)
	require.Len(t, lots, 2)
	assert.True(t, lots[0].AvailableQuantity.IsZero(), "lote A agotado")
	assert.True(t, lots[1].AvailableQuantity.Equal(d("30")))
	assert.True(t, f.stock(t, tela).Equal(d("30")))

	// Una salida por lote tocado, todas con el mismo MovementID
	var exits []entity.KardexEntry
	for _, e := range f.store.Entries() {
		if e.Direction == entity.DirectionExit {
			exits = append(exits, e)
		}
	}
	require.Len(t, exits, 2)
	assert.Equal(t, res.MovementID, exits[0].MovementID)
	assert.Equal(t, res.MovementID, exits[1].MovementID)
	assert.True(t, exits[0].UnitCost.Equal(d("10")))
	assert.True(t, exits[1].UnitCost.Equal(d("12")))
	assert.Equal(t, entity.ReferenceProductionOrder, exits[0].Reference.Kind)
	assert.Equal(t, ene9, exits[0].CreatedAt)
}

func TestConsumeExit_StockInsuficienteNoMuta(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela denim")
	f.receive(t, tela, "100", "10", ene1)
	f.receive(t, tela, "50", "12", ene5)
	_, err := f.exit(tela, "120")
	require.NoError(t, err)
	entriesBefore := len(f.store.Entries())

	_, err = f.exit(tela, "200")

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var insuf *domain.InsufficientStockError
	require.True(t, errors.As(err, &insuf))
	assert.True(t, insuf.Available.Equal(d("30")))
	assert.True(t, insuf.Required.Equal(d("200")))
	assert.Equal(t, tela, insuf.MaterialID)

	assert.Len(t, f.store.Entries(), entriesBefore, "no debe registrar movimientos")
	assert.True(t, f.lots(t, tela)[1].AvailableQuantity.Equal(d("30")))
	assert.True(t, f.stock(t, tela).Equal(d("30")))
}

func TestConsumeExit_ExactamenteTodoElStock(t *testing.T) {
	f := newFixture(t)
	hilo := f.material(t, "Hilo")
	f.receive(t, hilo, "10", "2", ene1)
	f.receive(t, hilo, "5", "3", ene5)

	res, err := f.exit(hilo, "15")
	require.NoError(t, err)

	assert.True(t, res.TotalCost.Equal(d("35")))
	for _, l := range f.lots(t, hilo) {
		assert.True(t, l.Exhausted())
	}
	assert.True(t, f.stock(t, hilo).IsZero())
}

func TestConsumeExit_DesempateMismaFechaPorID(t *testing.T) {
	f := newFixture(t)
	boton := f.material(t, "Botón")
	primero := f.receive(t, boton, "5", "1", ene1)
	f.receive(t, boton, "5", "2", ene1)

	res, err := f.exit(boton, "3")
	require.NoError(t, err)

	require.Len(t, res.Breakdown, 1)
	assert.Equal(t, primero, res.Breakdown[0].LotID)
	assert.True(t, res.TotalCost.Equal(d("3")))
}

func TestConsumeExit_ConservaCostoYCantidad(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	f.receive(t, tela, "40", "7.5", ene1)
	f.receive(t, tela, "25", "8.25", ene5)
	f.receive(t, tela, "60", "9", ene9)

	var total decimal.Decimal
	for _, q := range []string{"30", "22.5", "41", "11"} {
		res, err := f.exit(tela, q)
		require.NoError(t, err)
		sum := decimal.Zero
		qty := decimal.Zero
		for _, dr := range res.Breakdown {
			sum = sum.Add(dr.Cost())
			qty = qty.Add(dr.Quantity)
		}
		assert.True(t, sum.Equal(res.TotalCost), "Σ cantidad·costo por lote = costo total")
		assert.True(t, qty.Equal(d(q)))
		total = total.Add(res.TotalCost)
	}

	// Valor que entró = valor consumido + valor remanente
	entrada := d("40").Mul(d("7.5")).Add(d("25").Mul(d("8.25"))).Add(d("60").Mul(d("9")))
	bal := kardex.ComputeBalance(tela, f.lots(t, tela))
	assert.True(t, entrada.Equal(total.Add(bal.TotalCost)))
	assert.True(t, bal.Quantity.Equal(f.stock(t, tela)), "el acumulado coincide con Σ lotes")
}

func TestConsumeExit_Validaciones(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	f.receive(t, tela, "10", "1", ene1)

	_, err := f.exit(tela, "0")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.exit(tela, "-3")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.exit(0, "1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.exit(999, "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.engine.ConsumeExit(context.Background(), appkardex.ExitInput{
		MaterialID: tela, Quantity: d("1"), Reference: entity.Reference{Kind: entity.ReferenceKind(42)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMovimientos_RechazanMasDeSeisDecimales(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	f.receive(t, tela, "10", "1.123456", ene1)

	_, err := f.engine.ReceiveEntry(context.Background(), appkardex.ReceiptInput{
		MaterialID: tela, Quantity: d("0.0000001"), UnitCost: d("1"),
		Reference: entity.Reference{Kind: entity.ReferencePurchase, ID: 1},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.engine.ReceiveEntry(context.Background(), appkardex.ReceiptInput{
		MaterialID: tela, Quantity: d("1"), UnitCost: d("0.1234567"),
		Reference: entity.Reference{Kind: entity.ReferencePurchase, ID: 1},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.exit(tela, "0.0000001")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// Ceros a la derecha no cuentan como decimales
	_, err = f.exit(tela, "1.500000000")
	require.NoError(t, err)
	assert.Len(t, f.lots(t, tela), 1)
	assert.True(t, f.stock(t, tela).Equal(d("8.5")))
}

func TestConsumeExit_FallaAlRegistrarRevierteTodo(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	f.receive(t, tela, "10", "1", ene1)
	f.receive(t, tela, "10", "2", ene5)
	boom := errors.New("disco lleno")
	f.store.InjectFault("Kardex.Append", boom)
	defer f.store.InjectFault("Kardex.Append", nil)

	_, err := f.exit(tela, "15")

	require.ErrorIs(t, err, boom)
	for _, l := range f.lots(t, tela) {
		assert.True(t, l.AvailableQuantity.Equal(d("10")), "el lote no debe quedar reducido")
	}
	assert.True(t, f.stock(t, tela).Equal(d("20")))
}

func TestConsumeExit_ConcurrenteNuncaSobrevende(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	f.receive(t, tela, "50", "1", ene1)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, insuficiente := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.exit(tela, "5")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, domain.ErrInsufficientStock) {
				insuficiente++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 10, insuficiente)
	assert.True(t, f.stock(t, tela).IsZero())
	for _, l := range f.lots(t, tela) {
		assert.False(t, l.AvailableQuantity.IsNegative())
	}
}

func TestReceiveEntry_CreaLoteYMovimiento(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")

	res, err := f.engine.ReceiveEntry(context.Background(), appkardex.ReceiptInput{
		MaterialID: tela,
		Quantity:   d("12.5"),
		UnitCost:   d("4"),
		Reference:  entity.Reference{Kind: entity.ReferenceManual, ID: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, ene9, res.ReceivedAt, "sin fecha usa el reloj del motor")
	lots := f.lots(t, tela)
	require.Len(t, lots, 1)
	assert.Equal(t, res.LotID, lots[0].ID)
	assert.True(t, lots[0].OriginalQuantity.Equal(lots[0].AvailableQuantity))

	entries := f.store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.DirectionEntry, entries[0].Direction)
	assert.Equal(t, res.LotID, entries[0].LotID)
	assert.Equal(t, "MANUAL#3", entries[0].Reference.String())
	assert.True(t, f.stock(t, tela).Equal(d("12.5")))
	assert.Contains(t, f.cache.invalidated, tela)
}

func TestReceiveEntry_Validaciones(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	ref := entity.Reference{Kind: entity.ReferencePurchase, ID: 1}

	cases := []struct {
		name string
		in   appkardex.ReceiptInput
		want error
	}{
		{"cantidad cero", appkardex.ReceiptInput{MaterialID: tela, Quantity: d("0"), UnitCost: d("1"), Reference: ref}, domain.ErrInvalidQuantity},
		{"costo cero", appkardex.ReceiptInput{MaterialID: tela, Quantity: d("1"), UnitCost: d("0"), Reference: ref}, domain.ErrInvalidQuantity},
		{"costo negativo", appkardex.ReceiptInput{MaterialID: tela, Quantity: d("1"), UnitCost: d("-1"), Reference: ref}, domain.ErrInvalidQuantity},
		{"sin materia prima", appkardex.ReceiptInput{Quantity: d("1"), UnitCost: d("1"), Reference: ref}, domain.ErrInvalidInput},
		{"materia prima inexistente", appkardex.ReceiptInput{MaterialID: 404, Quantity: d("1"), UnitCost: d("1"), Reference: ref}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.ReceiveEntry(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, f.store.Entries())
}

func TestReceiveEntry_MaterialInactivoRechazaEntradaPeroPermiteSalida(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	f.receive(t, tela, "10", "1", ene1)
	require.NoError(t, f.store.Repos().Materials.Deactivate(context.Background(), tela))

	_, err := f.engine.ReceiveEntry(context.Background(), appkardex.ReceiptInput{
		MaterialID: tela, Quantity: d("1"), UnitCost: d("1"),
		Reference: entity.Reference{Kind: entity.ReferencePurchase, ID: 2},
	})
	assert.ErrorIs(t, err, domain.ErrMaterialInactive)

	_, err = f.exit(tela, "4")
	assert.NoError(t, err)
}

func TestRegisterPurchase_Atomica(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	hilo := f.material(t, "Hilo")
	itemA, itemB := int64(11), int64(12)

	res, err := f.engine.RegisterPurchase(context.Background(), appkardex.PurchaseInput{
		PurchaseID: 500,
		ReceivedAt: ene5,
		UserID:     "compras",
		Lines: []appkardex.PurchaseLine{
			{ItemID: &itemA, MaterialID: tela, Quantity: d("100"), UnitCost: d("10")},
			{ItemID: &itemB, MaterialID: hilo, Quantity: d("30"), UnitCost: d("0.5")},
		},
	})
	require.NoError(t, err)
	require.Len(t, res, 2)
	lots := f.lots(t, tela)
	require.Len(t, lots, 1)
	require.NotNil(t, lots[0].SourceRef)
	assert.Equal(t, itemA, *lots[0].SourceRef)
	assert.ElementsMatch(t, []int64{tela, hilo}, f.cache.invalidated)

	// La segunda línea falla: la primera tampoco queda registrada
	_, err = f.engine.RegisterPurchase(context.Background(), appkardex.PurchaseInput{
		PurchaseID: 501,
		Lines: []appkardex.PurchaseLine{
			{MaterialID: tela, Quantity: d("5"), UnitCost: d("10")},
			{MaterialID: hilo, Quantity: d("5"), UnitCost: d("0")},
		},
	})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Len(t, f.lots(t, tela), 1)
	assert.True(t, f.stock(t, tela).Equal(d("100")))

	_, err = f.engine.RegisterPurchase(context.Background(), appkardex.PurchaseInput{PurchaseID: 502})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegisterWithdrawal_ReferenciaManual(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	f.receive(t, tela, "10", "3", ene1)

	res, err := f.engine.RegisterWithdrawal(context.Background(), tela, d("4"), 9, "bodega")
	require.NoError(t, err)

	assert.True(t, res.TotalCost.Equal(d("12")))
	last := f.store.Entries()[len(f.store.Entries())-1]
	assert.Equal(t, entity.ReferenceManual, last.Reference.Kind)
	assert.Equal(t, int64(9), last.Reference.ID)
	assert.Equal(t, "bodega", last.CreatedBy)
}

func TestReconcileStock_CorrigeAcumulado(t *testing.T) {
	f := newFixture(t)
	tela := f.material(t, "Tela")
	f.receive(t, tela, "10", "3", ene1)
	f.receive(t, tela, "5", "3", ene5)

	rec, err := f.engine.ReconcileStock(context.Background(), tela)
	require.NoError(t, err)
	assert.False(t, rec.Corrected)

	require.NoError(t, f.store.Repos().Materials.SetStock(context.Background(), tela, d("99")))
	rec, err = f.engine.ReconcileStock(context.Background(), tela)
	require.NoError(t, err)

	assert.True(t, rec.Corrected)
	assert.True(t, rec.Cached.Equal(d("99")))
	assert.True(t, rec.Actual.Equal(d("15")))
	assert.True(t, f.stock(t, tela).Equal(d("15")))

	_, err = f.engine.ReconcileStock(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
