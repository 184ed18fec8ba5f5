package kardex

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/kardex"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// Repos agrupa los repositorios atados a un mismo Querier (pool o transacción).
type Repos struct {
	Materials   repository.MaterialRepository
	Lots        repository.LotRepository
	Kardex      repository.KardexRepository
	Orders      repository.ProductionOrderRepository
	Consumption repository.ConsumptionRepository
	BOM         repository.BOMRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD con repositorios atados a ella.
// Si fn retorna error se hace Rollback completo; si no, Commit.
// Los primitivos *InTx del motor reciben esos Repos para componerse en una sola transacción.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}

// BalanceCache caché opcional de saldos. Puede devolver datos levemente desactualizados;
// los escritores la invalidan después del Commit.
// Invalidate sube la versión de cada materia prima y Set solo escribe si la versión leída antes
// de calcular el saldo sigue vigente: un lector lento no repone un saldo ya invalidado.
type BalanceCache interface {
	Get(ctx context.Context, materialID int64) (*kardex.Balance, error) // nil si no está
	Version(ctx context.Context, materialID int64) (int64, error)
	Set(ctx context.Context, balance kardex.Balance, version int64) error
	Invalidate(ctx context.Context, materialIDs ...int64) error
}

// StockCardPDFGenerator renderiza la tarjeta de kardex en PDF.
type StockCardPDFGenerator interface {
	GenerateStockCardPDF(ctx context.Context, card *StockCard) ([]byte, error)
}
