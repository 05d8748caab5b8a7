package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg := FromViper(newViper(map[string]any{"JWT_SECRET": "s"}))

	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, 10*time.Minute, cfg.Redis.ItemTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.True(t, cfg.Ledger.AllowNegativeAdjustment)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	require.NoError(t, cfg.Validate())
}

func TestFromViper_Overrides(t *testing.T) {
	cfg := FromViper(newViper(map[string]any{
		"JWT_SECRET":                       "s",
		"STORE_DRIVER":                     "MEMORY",
		"REDIS_ADDR":                       "localhost:6379",
		"REDIS_ITEM_TTL":                   "30s",
		"DB_MAX_CONNS":                     "20",
		"LEDGER_ALLOW_NEGATIVE_ADJUSTMENT": "false",
	}))

	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Redis.ItemTTL)
	assert.Equal(t, int32(20), cfg.DB.MaxConns)
	assert.False(t, cfg.Ledger.AllowNegativeAdjustment)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "stock", SSLMode: "require"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/stock?sslmode=require", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		values map[string]any
	}{
		{"sin secreto", map[string]any{}},
		{"driver desconocido", map[string]any{"JWT_SECRET": "s", "STORE_DRIVER": "mongo"}},
		{"min mayor que max", map[string]any{"JWT_SECRET": "s", "DB_MIN_CONNS": 10, "DB_MAX_CONNS": 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, FromViper(newViper(tc.values)).Validate())
		})
	}
}
