package duckdb

import (
	"database/sql"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const InMemory = ":memory:"

type Settings struct {
	DbPath   string
	ReadOnly bool
	Threads  int
}

// NewDB opens an in-process DuckDB database. Database files given by the user are opened
// read only so a run never changes them.
func NewDB(settings Settings) (*sql.DB, error) {
	path := settings.DbPath
	if path == "" {
		path = InMemory
	}
	threads := settings.Threads
	if threads <= 0 {
		threads = 1
	}

	// an empty dsn path is the in-memory database
	dsn := fmt.Sprintf("?threads=%d", threads)
	if path != InMemory {
		dsn = path + dsn
		if settings.ReadOnly {
			dsn += "&access_mode=READ_ONLY"
		}
	}

	c, err := duckdb.NewConnector(dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb %s: %w", path, err)
	}
	return sql.OpenDB(c), nil
}
