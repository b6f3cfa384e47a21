package postgres

import (
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

const maxBindParams = 65535

// SQLSTATEs that clear up on retry.
var transientCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

type Adapter struct{}

var typeMap = map[schema.ColumnType]string{
	schema.TypeInt:   "BIGINT",
	schema.TypeText:  "TEXT",
	schema.TypeDate:  "DATE",
	schema.TypeMoney: "NUMERIC(12,2)",
}

func New() *Adapter {
	return &Adapter{}
}

func (p *Adapter) Provider() string { return "postgresql" }

func (p *Adapter) DriverName() string { return "pgx" }

func (p *Adapter) DSN(url string) (string, error) {
	if _, err := pgx.ParseConfig(url); err != nil {
		return "", fmt.Errorf("failed to parse connection URL: %w", err)
	}
	return url, nil
}

func (p *Adapter) Placeholder() squirrel.PlaceholderFormat { return squirrel.Dollar }

func (p *Adapter) QuoteIdentifier(name string) string { return pq.QuoteIdentifier(name) }

func (p *Adapter) ColumnType(col schema.Column) string {
	return typeMap[col.Type]
}

func (p *Adapter) MaxParams() int { return maxBindParams }

func (p *Adapter) InlineIndexes() bool { return false }

func (p *Adapter) IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientCodes[pgErr.Code]
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return transientCodes[string(pqErr.Code)]
	}
	return false
}
