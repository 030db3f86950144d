package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/justbri/marquee/middleware"
	"github.com/justbri/marquee/services"
	sharedmw "github.com/justbri/marquee/shared/middleware"
	"github.com/justbri/marquee/shared/server"
	"github.com/justbri/marquee/web"
)

// NewRouter wires every route. Visitor routes get their browser from the
// session cookie.
func NewRouter(store sessions.Store, registry *services.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(sharedmw.Logging)
	r.Use(chimw.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireVisitor(store, registry))

		r.Get("/", IndexHandler)
		r.Get("/view", ViewHandler)
		r.Get("/header", HeaderHandler)
		r.Get("/nav", NavHandler)
		r.Get("/suggestions", SuggestionsHandler)
		r.Get("/events", EventsHandler)
		r.Get("/api/state", StateHandler)

		r.Post("/search", SearchHandler)
		r.Post("/genre", GenreHandler)
		r.Post("/suggestions/{id}", PickSuggestionHandler)
		r.Post("/movies/{id}/select", SelectMovieHandler)
		r.Post("/movies/{id}/favorite", AddFavoriteHandler)
		r.Post("/back", BackHandler)
		r.Post("/home", HomeHandler)
		r.Post("/page/next", NextPageHandler)
		r.Post("/page/prev", PrevPageHandler)
		r.Post("/favorites", FavoritesHandler)
	})

	return r
}

// NewServer wraps the router in an HTTP server. Shutting the server down
// closes every browser, which ends open event streams.
func NewServer(cfg *server.Config, store sessions.Store, registry *services.Registry) *http.Server {
	srv := server.CreateServer(cfg, NewRouter(store, registry))
	srv.RegisterOnShutdown(registry.Close)
	return srv
}
