package market

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/de-tools/market-atlas/pkg/models/store"
	"github.com/de-tools/market-atlas/pkg/store/duckdb"
)

type SourceKind string

const (
	SourceCSV      SourceKind = "csv"
	SourceParquet  SourceKind = "parquet"
	SourceDatabase SourceKind = "duckdb"
)

// TotalsTable is the table read from DuckDB database sources
const TotalsTable = "market_totals"

// Source is a tabular file holding `year` and `total` columns
type Source struct {
	Kind SourceKind
	Path string
}

func SourceFromPath(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return Source{Kind: SourceCSV, Path: path}, nil
	case ".parquet":
		return Source{Kind: SourceParquet, Path: path}, nil
	case ".duckdb", ".db":
		return Source{Kind: SourceDatabase, Path: path}, nil
	}
	return Source{}, fmt.Errorf("unsupported market source %q: expected .csv, .tsv, .parquet or .duckdb", path)
}

type Store interface {
	LoadTotals(ctx context.Context, source Source) ([]store.MarketTotal, error)
}

type defaultStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &defaultStore{db: db}, nil
}

func (s *defaultStore) LoadTotals(ctx context.Context, source Source) ([]store.MarketTotal, error) {
	from, err := fromClause(source)
	if err != nil {
		return nil, err
	}
	// totals travel as text to keep their exact decimal digits
	query := fmt.Sprintf(`
		SELECT CAST(year AS INTEGER), CAST(total AS VARCHAR)
		FROM %s
		ORDER BY 1
	`, from)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query market totals: %w", err)
	}
	defer rows.Close()

	totals := make([]store.MarketTotal, 0)
	for rows.Next() {
		var (
			year  int
			total sql.NullString
		)
		if err := rows.Scan(&year, &total); err != nil {
			return nil, fmt.Errorf("scan market total: %w", err)
		}
		if !total.Valid {
			return nil, fmt.Errorf("market total for %d is empty", year)
		}
		totals = append(totals, store.MarketTotal{Year: year, Total: total.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read market totals: %w", err)
	}
	return totals, nil
}

func fromClause(source Source) (string, error) {
	switch source.Kind {
	case SourceCSV:
		return fmt.Sprintf("read_csv_auto(%s, header = true)", quoteLiteral(source.Path)), nil
	case SourceParquet:
		return fmt.Sprintf("read_parquet(%s)", quoteLiteral(source.Path)), nil
	case SourceDatabase:
		return TotalsTable, nil
	}
	return "", fmt.Errorf("unsupported market source kind %q", source.Kind)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// FileLoader opens a DuckDB connection suited to the source for the duration of one load
type FileLoader struct{}

func (FileLoader) LoadTotals(ctx context.Context, path string) ([]store.MarketTotal, error) {
	source, err := SourceFromPath(path)
	if err != nil {
		return nil, err
	}

	settings := duckdb.Settings{DbPath: duckdb.InMemory}
	if source.Kind == SourceDatabase {
		settings = duckdb.Settings{DbPath: path, ReadOnly: true}
	}
	db, err := duckdb.NewDB(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	defer db.Close()

	s, err := NewStore(db)
	if err != nil {
		return nil, err
	}
	return s.LoadTotals(ctx, source)
}
