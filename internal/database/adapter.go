package database

import (
	"github.com/Masterminds/squirrel"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

// DatabaseAdapter carries everything that differs between providers. The
// Store and the DDL builder are written against it and never switch on the
// provider name.
type DatabaseAdapter interface {
	Provider() string
	DriverName() string
	// DSN turns a configured URL into the driver's data source name.
	DSN(url string) (string, error)
	Placeholder() squirrel.PlaceholderFormat
	QuoteIdentifier(name string) string
	ColumnType(col schema.Column) string
	// MaxParams is the bind-parameter limit of one statement.
	MaxParams() int
	// InlineIndexes reports whether secondary indexes must be declared
	// inside CREATE TABLE because CREATE INDEX IF NOT EXISTS is unavailable.
	InlineIndexes() bool
	// IsTransient reports lock, busy, deadlock and serialization failures
	// that succeed when the chunk is retried from its savepoint in the same
	// transaction.
	IsTransient(err error) bool
}
