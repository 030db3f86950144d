package database

import (
	"database/sql"
	"fmt"
)

func RunMigrations(db *sql.DB) error {
	favoritesTableSQL := `
	CREATE TABLE IF NOT EXISTS favorites (
		owner VARCHAR(64) NOT NULL,
		imdb_id VARCHAR(32) NOT NULL,
		title TEXT NOT NULL,
		year VARCHAR(16),
		poster TEXT,
		position INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (owner, imdb_id)
	);
	`

	if _, err := db.Exec(favoritesTableSQL); err != nil {
		return fmt.Errorf("failed to run favorites migration: %w", err)
	}

	indexSQL := `CREATE INDEX IF NOT EXISTS idx_favorites_owner_position ON favorites (owner, position);`
	if _, err := db.Exec(indexSQL); err != nil {
		return fmt.Errorf("failed to create favorites index: %w", err)
	}

	return nil
}
