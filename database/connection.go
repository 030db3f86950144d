package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/justbri/marquee/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens the favorites database selected by cfg.DBType.
func Connect(cfg *config.Config) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.DBType {
	case "postgres":
		db, err = sql.Open("pgx", cfg.DatabaseURL)
	case "sqlite":
		db, err = sql.Open("sqlite3", cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database type: %q", cfg.DBType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.DBType == "sqlite" {
		// sqlite serialises writers; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	return db, nil
}
