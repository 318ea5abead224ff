package duckdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB(t *testing.T) {
	t.Run("in memory by default", func(t *testing.T) {
		db, err := NewDB(Settings{})
		require.NoError(t, err)
		defer func() {
			if err := db.Close(); err != nil {
				t.Errorf("failed to close database connection: %v", err)
			}
		}()

		var answer int
		err = db.QueryRow("SELECT 40 + 2").Scan(&answer)
		require.NoError(t, err)
		assert.Equal(t, 42, answer)
	})

	t.Run("read only file refuses writes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "market.duckdb")

		rw, err := NewDB(Settings{DbPath: path})
		require.NoError(t, err)
		_, err = rw.Exec(`CREATE TABLE market_totals (year INTEGER, total DOUBLE)`)
		require.NoError(t, err)
		require.NoError(t, rw.Close())

		ro, err := NewDB(Settings{DbPath: path, ReadOnly: true})
		require.NoError(t, err)
		t.Cleanup(func() { ro.Close() })

		_, err = ro.Exec(`INSERT INTO market_totals VALUES (2010, 800)`)
		assert.Error(t, err)

		var count int
		require.NoError(t, ro.QueryRow(`SELECT COUNT(*) FROM market_totals`).Scan(&count))
		assert.Equal(t, 0, count)
	})
}
