package sqlite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"
	moderncsqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

const (
	busyTimeoutMillis = 5000
	maxVariables      = 999
)

// Adapter targets SQLite through either the cgo driver (mattn/go-sqlite3,
// registered as "sqlite3") or the pure-Go one (modernc.org/sqlite, "sqlite").
type Adapter struct {
	driver string
}

var typeMap = map[schema.ColumnType]string{
	schema.TypeInt:   "INTEGER",
	schema.TypeText:  "TEXT",
	schema.TypeDate:  "TEXT",
	schema.TypeMoney: "REAL",
}

func New() *Adapter {
	return &Adapter{driver: "sqlite3"}
}

func NewPure() *Adapter {
	return &Adapter{driver: "sqlite"}
}

func (s *Adapter) Provider() string {
	if s.driver == "sqlite" {
		return "sqlite-purego"
	}
	return "sqlite"
}

func (s *Adapter) DriverName() string { return s.driver }

// DSN strips the sqlite:// scheme, creates the parent directory and turns
// on foreign keys, WAL and a busy timeout for the chosen driver.
func (s *Adapter) DSN(url string) (string, error) {
	dbPath := strings.TrimPrefix(url, "sqlite://")
	dbPath = strings.TrimPrefix(dbPath, "file:")
	params := ""
	if idx := strings.Index(dbPath, "?"); idx >= 0 {
		dbPath, params = dbPath[:idx], dbPath[idx+1:]
	}
	if dbPath == "" {
		return "", fmt.Errorf("sqlite url %q has no file path", url)
	}
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	var pragmas []string
	if s.driver == "sqlite" {
		pragmas = []string{
			"_pragma=foreign_keys(1)",
			fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeoutMillis),
			"_pragma=journal_mode(WAL)",
		}
	} else {
		pragmas = []string{
			"_foreign_keys=1",
			fmt.Sprintf("_busy_timeout=%d", busyTimeoutMillis),
			"_journal_mode=WAL",
		}
	}
	if params != "" {
		pragmas = append(pragmas, params)
	}
	return "file:" + dbPath + "?" + strings.Join(pragmas, "&"), nil
}

func (s *Adapter) Placeholder() squirrel.PlaceholderFormat { return squirrel.Question }

func (s *Adapter) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *Adapter) ColumnType(col schema.Column) string {
	return typeMap[col.Type]
}

func (s *Adapter) MaxParams() int { return maxVariables }

func (s *Adapter) InlineIndexes() bool { return false }

func (s *Adapter) IsTransient(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	var me *moderncsqlite.Error
	if errors.As(err, &me) {
		code := me.Code() & 0xff
		return code == sqlitelib.SQLITE_BUSY || code == sqlitelib.SQLITE_LOCKED
	}
	return false
}
