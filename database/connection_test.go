package database

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig_Apply(t *testing.T) {
	t.Run("zero value keeps URL settings", func(t *testing.T) {
		config, err := pgxpool.ParseConfig("postgres://localhost:5432/gamenight?pool_max_conns=7")
		require.NoError(t, err)

		PoolConfig{}.apply(config)
		assert.Equal(t, int32(7), config.MaxConns)
		assert.NotContains(t, config.ConnConfig.RuntimeParams, "application_name")
	})

	t.Run("overrides", func(t *testing.T) {
		config, err := pgxpool.ParseConfig("postgres://localhost:5432/gamenight")
		require.NoError(t, err)

		PoolConfig{
			ApplicationName: "gamenight-consolidate",
			MaxConns:        4,
			MinConns:        9,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			ConnectTimeout:  3 * time.Second,
		}.apply(config)

		assert.Equal(t, "gamenight-consolidate", config.ConnConfig.RuntimeParams["application_name"])
		assert.Equal(t, int32(4), config.MaxConns)
		assert.Equal(t, int32(4), config.MinConns, "min is capped at max")
		assert.Equal(t, time.Hour, config.MaxConnLifetime)
		assert.Equal(t, 10*time.Minute, config.MaxConnIdleTime)
		assert.Equal(t, 3*time.Second, config.ConnConfig.ConnectTimeout)
	})
}
