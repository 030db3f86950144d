package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/justbri/marquee/config"
	"github.com/justbri/marquee/database"
	"github.com/justbri/marquee/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteFavorites(t *testing.T) *SQLFavorites {
	t.Helper()
	db, err := database.Connect(&config.Config{
		DBType:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "favorites.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db))
	return NewSQLFavorites(db)
}

func TestFavoritesRepositories(t *testing.T) {
	repos := map[string]func(t *testing.T) FavoritesRepository{
		"memory": func(t *testing.T) FavoritesRepository { return NewMemoryFavorites() },
		"sqlite": func(t *testing.T) FavoritesRepository { return newSQLiteFavorites(t) },
	}

	for name, newRepo := range repos {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			empty, err := repo.List(ctx, "alice")
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)

			require.NoError(t, repo.Add(ctx, "alice", batmanBegins))
			require.NoError(t, repo.Add(ctx, "alice", batman1989))
			require.NoError(t, repo.Add(ctx, "alice", batmanBegins))
			require.NoError(t, repo.Add(ctx, "bob", batman1989))

			alice, err := repo.List(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, alice, 2)
			assert.Equal(t, batmanBegins.IMDbID, alice[0].IMDbID)
			assert.Equal(t, batmanBegins.Title, alice[0].Title)
			assert.Equal(t, batman1989.IMDbID, alice[1].IMDbID)
			assert.Equal(t, models.NoPoster, alice[1].Poster)

			bob, err := repo.List(ctx, "bob")
			require.NoError(t, err)
			require.Len(t, bob, 1)
		})
	}
}

func TestBrowserFactoryRestoresFavorites(t *testing.T) {
	repo := newSQLiteFavorites(t)
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, "visitor-1", batmanBegins))

	factory := NewBrowserFactory(newFakeSource(), repo, BrowserConfig{Debounce: testDebounce})
	b, err := factory(ctx, "visitor-1")
	require.NoError(t, err)
	defer b.Close()

	favs := b.Store().Favorites()
	require.Len(t, favs, 1)
	assert.Equal(t, batmanBegins.IMDbID, favs[0].IMDbID)
}
