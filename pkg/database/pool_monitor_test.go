package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolMonitor(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t.Run("register twice", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		_, err := NewPoolMonitor("kv", db, reg)
		require.NoError(t, err)
		_, err = NewPoolMonitor("kv", db, reg)
		assert.NoError(t, err)

		families, err := reg.Gather()
		require.NoError(t, err)
		assert.NotEmpty(t, families)
	})

	t.Run("warns only on new wait time", func(t *testing.T) {
		pm, err := NewPoolMonitor("kv", db, nil)
		require.NoError(t, err)

		assert.False(t, pm.check(PoolSnapshot{WaitDuration: time.Second}))
		assert.True(t, pm.check(PoolSnapshot{WaitDuration: 10 * time.Second}))
		assert.False(t, pm.check(PoolSnapshot{WaitDuration: 11 * time.Second}))
	})

	t.Run("snapshot", func(t *testing.T) {
		pm, err := NewPoolMonitor("kv", db, nil)
		require.NoError(t, err)
		s := pm.Snapshot()
		assert.False(t, s.Timestamp.IsZero())
		assert.GreaterOrEqual(t, s.OpenConnections, 0)
	})
}
