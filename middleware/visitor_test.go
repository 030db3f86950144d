package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/justbri/marquee/config"
	"github.com/justbri/marquee/models"
	"github.com/justbri/marquee/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptySource struct{}

func (emptySource) Search(context.Context, services.SearchParams) ([]models.Movie, error) {
	return nil, &services.APIError{Message: "Movie not found!"}
}

func (emptySource) Lookup(context.Context, string) (*models.MovieDetail, error) {
	return nil, &services.APIError{Message: "Incorrect IMDb ID."}
}

func TestRequireVisitorAttachesBrowser(t *testing.T) {
	registry := services.NewRegistry(services.NewBrowserFactory(emptySource{}, services.NewMemoryFavorites(), services.BrowserConfig{}))
	defer registry.Close()
	store := services.NewSessionStore(&config.Config{SessionSecret: "test-secret"})

	var seen *services.Browser
	h := RequireVisitor(store, registry)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := services.BrowserFromContext(r.Context())
		require.NoError(t, err)
		assert.Same(t, b.Store(), services.MustStore(r.Context()))
		seen = b
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, seen)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	first := seen
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Same(t, first, seen)
	assert.Equal(t, 1, registry.Len())
}

func TestRequireVisitorUnavailableRegistry(t *testing.T) {
	registry := services.NewRegistry(func(context.Context, string) (*services.Browser, error) {
		return nil, errors.New("db down")
	})
	store := services.NewSessionStore(&config.Config{SessionSecret: "test-secret"})

	called := false
	h := RequireVisitor(store, registry)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
