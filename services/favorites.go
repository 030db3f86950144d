package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/justbri/marquee/models"
)

// FavoritesRepository keeps favorites per owner (a visitor id). Add is
// idempotent by IMDb id.
type FavoritesRepository interface {
	List(ctx context.Context, owner string) ([]models.Movie, error)
	Add(ctx context.Context, owner string, movie models.Movie) error
}

// MemoryFavorites lives as long as the process.
type MemoryFavorites struct {
	mu     sync.Mutex
	byUser map[string][]models.Movie
}

func NewMemoryFavorites() *MemoryFavorites {
	return &MemoryFavorites{byUser: make(map[string][]models.Movie)}
}

func (m *MemoryFavorites) List(_ context.Context, owner string) ([]models.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneMovies(m.byUser[owner]), nil
}

func (m *MemoryFavorites) Add(_ context.Context, owner string, movie models.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if models.ContainsMovie(m.byUser[owner], movie.IMDbID) {
		return nil
	}
	m.byUser[owner] = append(m.byUser[owner], movie)
	return nil
}

// SQLFavorites stores favorites in the favorites table created by
// database.RunMigrations. The statements are valid for both postgres (pgx)
// and sqlite3.
type SQLFavorites struct {
	db *sql.DB
}

func NewSQLFavorites(db *sql.DB) *SQLFavorites {
	return &SQLFavorites{db: db}
}

func (r *SQLFavorites) List(ctx context.Context, owner string) ([]models.Movie, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT imdb_id, title, year, poster
		FROM favorites
		WHERE owner = $1
		ORDER BY position ASC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	movies := []models.Movie{}
	for rows.Next() {
		var m models.Movie
		if err := rows.Scan(&m.IMDbID, &m.Title, &m.Year, &m.Poster); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		movies = append(movies, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorites: %w", err)
	}

	return movies, nil
}

func (r *SQLFavorites) Add(ctx context.Context, owner string, movie models.Movie) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO favorites (owner, imdb_id, title, year, poster, position)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM favorites WHERE owner = $1))
		ON CONFLICT (owner, imdb_id) DO NOTHING
	`, owner, movie.IMDbID, movie.Title, movie.Year, movie.Poster)
	if err != nil {
		return fmt.Errorf("failed to add favorite %s: %w", movie.IMDbID, err)
	}
	return nil
}
