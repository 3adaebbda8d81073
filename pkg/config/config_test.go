package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Stock.MaxRetries)
	assert.Equal(t, 10*time.Minute, cfg.Stock.ReconcileInterval)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "postgres://postgres:@localhost:5432/stock_ledger?sslmode=disable", cfg.DB.ConnectionString())
}

func TestFromViper_ValoresDesdeEntorno(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_DRIVER", "MEMORY")
	v.Set("STOCK_MAX_RETRIES", "5")
	v.Set("RECONCILE_INTERVAL", "90")
	v.Set("REDIS_ADDR", "localhost:6379")
	v.Set("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 5, cfg.Stock.MaxRetries)
	assert.Equal(t, 90*time.Second, cfg.Stock.ReconcileInterval)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DB.ConnectionString())
}

func TestFromViper_IntervaloComoDuracion(t *testing.T) {
	v := viper.New()
	v.Set("RECONCILE_INTERVAL", "0s")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.Stock.ReconcileInterval)
}

func TestFromViper_Errores(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"driver desconocido", "STORAGE_DRIVER", "mongo"},
		{"intervalo inválido", "RECONCILE_INTERVAL", "cada rato"},
		{"reintentos negativos", "STOCK_MAX_RETRIES", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := fromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestFromViper_ProductionExigeSecreto(t *testing.T) {
	v := viper.New()
	v.Set("APP_ENV", "production")
	_, err := fromViper(v)
	assert.Error(t, err)

	v.Set("JWT_SECRET", "s3cr3t")
	_, err = fromViper(v)
	assert.NoError(t, err)
}
