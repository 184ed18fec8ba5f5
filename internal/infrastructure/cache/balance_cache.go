// Package cache guarda saldos valorizados en Redis para las lecturas frecuentes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	appkardex "github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/domain/kardex"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "kardex:balance:"
	versionPrefix = "kardex:balance-version:"
)

var _ appkardex.BalanceCache = (*BalanceCache)(nil)

// BalanceCache caché de saldos con TTL y una versión por materia prima. Los escritores invalidan
// después del Commit subiendo la versión; el TTL acota cuánto puede durar un saldo
// desactualizado si una invalidación falla.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBalanceCache construye la caché. ttl <= 0 usa 5 minutos.
func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &BalanceCache{client: client, ttl: ttl}
}

// NewClient abre el cliente Redis y verifica la conexión.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func key(materialID int64) string {
	return keyPrefix + strconv.FormatInt(materialID, 10)
}

func versionKey(materialID int64) string {
	return versionPrefix + strconv.FormatInt(materialID, 10)
}

// Get devuelve nil si el saldo no está en caché.
func (c *BalanceCache) Get(ctx context.Context, materialID int64) (*kardex.Balance, error) {
	raw, err := c.client.Get(ctx, key(materialID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var b kardex.Balance
	if err := json.Unmarshal(raw, &b); err != nil {
		// Valor corrupto: se trata como ausente y se recalcula.
		_ = c.client.Del(ctx, key(materialID)).Err()
		return nil, nil
	}
	return &b, nil
}

// Version versión vigente del saldo de la materia prima (0 si nunca se invalidó).
func (c *BalanceCache) Version(ctx context.Context, materialID int64) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(materialID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version: %w", err)
	}
	return v, nil
}

// Set guarda el saldo solo si la versión sigue siendo version. Si una invalidación se cruzó,
// no escribe y no es error.
func (c *BalanceCache) Set(ctx context.Context, b kardex.Balance, version int64) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	vk := versionKey(b.MaterialID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(b.MaterialID), raw, c.ttl)
			return nil
		})
		return err
	}, vk)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate borra los saldos y sube la versión de cada materia prima.
func (c *BalanceCache) Invalidate(ctx context.Context, materialIDs ...int64) error {
	if len(materialIDs) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range materialIDs {
			pipe.Incr(ctx, versionKey(id))
			pipe.Del(ctx, key(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate: %w", err)
	}
	return nil
}
