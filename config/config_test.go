package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "DEBUG", "OMDB_API_KEY", "OMDB_BASE_URL", "SEARCH_DEBOUNCE", "BROWSE_TERM", "BROWSE_YEAR", "DB_TYPE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "5005", cfg.ServerPort)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.Debug)
	assert.Equal(t, DefaultOMDbBaseURL, cfg.OMDbBaseURL)
	assert.Equal(t, 400*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, "movie", cfg.BrowseTerm)
	assert.Equal(t, "2025", cfg.BrowseYear)
	assert.False(t, cfg.PersistFavorites())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("PORT", "9000")
	t.Setenv("DEBUG", "true")
	t.Setenv("OMDB_API_KEY", "k3y")
	t.Setenv("SEARCH_DEBOUNCE", "250ms")
	t.Setenv("BROWSE_YEAR", "1999")
	t.Setenv("DB_TYPE", "sqlite")

	cfg := Load()

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "k3y", cfg.OMDbAPIKey)
	assert.Equal(t, 250*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, "1999", cfg.BrowseYear)
	assert.True(t, cfg.PersistFavorites())
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("SEARCH_DEBOUNCE", "soon")
	t.Setenv("SESSION_IDLE", "-5m")

	cfg := Load()

	assert.Equal(t, DefaultSearchDebounce, cfg.SearchDebounce)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdle)
}

func TestLoadProductionRequiresSessionSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_SECRET", "")
	assert.Panics(t, func() { Load() })

	t.Setenv("SESSION_SECRET", "s3cret")
	assert.Equal(t, "s3cret", Load().SessionSecret)
}
