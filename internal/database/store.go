package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

// Store is a database/sql handle paired with the adapter of its provider.
type Store struct {
	db      *sql.DB
	adapter DatabaseAdapter
	qb      squirrel.StatementBuilderType
}

// Open connects to url with the driver of provider and pings it.
func Open(ctx context.Context, provider, url string) (*Store, error) {
	adapter, err := NewAdapter(provider)
	if err != nil {
		return nil, err
	}
	dsn, err := adapter.DSN(url)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(adapter.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", adapter.Provider(), err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", adapter.Provider(), err)
	}
	return NewStore(db, adapter), nil
}

func NewStore(db *sql.DB, adapter DatabaseAdapter) *Store {
	return &Store{
		db:      db,
		adapter: adapter,
		qb:      squirrel.StatementBuilder.PlaceholderFormat(adapter.Placeholder()),
	}
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Adapter() DatabaseAdapter { return s.adapter }

func (s *Store) Builder() squirrel.StatementBuilderType { return s.qb }

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateSchema creates every table and index of catalog that does not exist yet.
func (s *Store) CreateSchema(ctx context.Context, catalog *schema.Catalog, enforceFKs bool) error {
	stmts, err := GenerateSchemaSQL(s.adapter, catalog, enforceFKs)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CountRows returns COUNT(*) of table through q.
func (s *Store) CountRows(ctx context.Context, q Querier, table string) (int64, error) {
	query, args, err := s.qb.Select("COUNT(*)").From(s.adapter.QuoteIdentifier(table)).ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// RowCounts returns the row count of every table in tables.
func (s *Store) RowCounts(ctx context.Context, tables []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(tables))
	for _, t := range tables {
		n, err := s.CountRows(ctx, s.db, t)
		if err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, nil
}
