package database

import (
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/database/mysql"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/database/postgres"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/database/sqlite"
)

func NewAdapter(provider string) (DatabaseAdapter, error) {
	switch provider {
	case "postgresql", "postgres":
		return postgres.New(), nil
	case "mysql":
		return mysql.New(), nil
	case "sqlite", "sqlite3":
		return sqlite.New(), nil
	case "sqlite-purego":
		return sqlite.NewPure(), nil
	default:
		return nil, dataerr.NewConfigError("database.provider", "unsupported provider %q", provider)
	}
}
