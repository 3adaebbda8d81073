// Package redis provee el candado distribuido de la verificación periódica de stock.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
)

var _ inventory.CycleLocker = (*Locker)(nil)

// NewClient crea el cliente y verifica la conexión con un PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 10,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// Locker implementa inventory.CycleLocker con redislock (un solo intento, sin espera).
type Locker struct {
	client *redislock.Client
}

// NewLocker construye el candado sobre un cliente ya conectado.
func NewLocker(rdb goredis.UniversalClient) *Locker {
	return &Locker{client: redislock.New(rdb)}
}

// TryLock intenta tomar key por ttl. Si otra réplica lo tiene devuelve acquired=false sin error.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return func() {}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("obtener candado %s: %w", key, err)
	}
	release := func() {
		// contexto propio: el del ciclo puede estar cancelado al liberar
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = lock.Release(rctx)
	}
	return release, true, nil
}
