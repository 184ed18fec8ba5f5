package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	appkardex "github.com/jhoicas/Kardex-api/internal/application/kardex"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ appkardex.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL (READ COMMITTED).
// Los bloqueos de fila (FOR UPDATE) los toman los repos; lock_timeout acota la espera.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
	tracer      trace.Tracer
}

// NewTxRunner construye el runner con el pool. lockTimeout 0 = esperar indefinidamente.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{
		pool:        pool,
		lockTimeout: lockTimeout,
		tracer:      otel.Tracer("github.com/jhoicas/Kardex-api/postgres"),
	}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los errores de bloqueo y serialización de PostgreSQL se traducen a ErrLockTimeout y ErrConflict.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos appkardex.Repos) error) (err error) {
	ctx, span := r.tracer.Start(ctx, "postgres.TxRunner.Run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("db.system", "postgresql")),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeout > 0 {
		// set_config(..., true) equivale a SET LOCAL y admite parámetros.
		ms := strconv.FormatInt(r.lockTimeout.Milliseconds(), 10) + "ms"
		if _, err := tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)", ms); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	if err := fn(ctx, NewRepos(tx)); err != nil {
		return mapError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// NewRepos arma el juego de repositorios sobre un pool o una transacción.
func NewRepos(q Querier) appkardex.Repos {
	return appkardex.Repos{
		Materials:   NewMaterialRepository(q),
		Lots:        NewLotRepository(q),
		Kardex:      NewKardexRepository(q),
		Orders:      NewProductionOrderRepository(q),
		Consumption: NewConsumptionRepository(q),
		BOM:         NewBOMRepository(q),
	}
}
