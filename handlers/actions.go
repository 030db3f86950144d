package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/justbri/marquee/services"
	"github.com/justbri/marquee/shared/format"
)

// SearchHandler takes the raw search box text. The search itself runs after
// the debounce, so HTMX callers get no body and wait for /events.
func SearchHandler(w http.ResponseWriter, r *http.Request) {
	b, ok := browserOrError(w, r)
	if !ok {
		return
	}
	q := r.FormValue("q")
	slog.Debug("Search input", "query", format.Preview(q, 40))
	if err := b.SetQuery(q); err != nil {
		actionError(w, r, err)
		return
	}
	if isHTMX(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// GenreHandler sets the genre filter, debounced like the search box.
func GenreHandler(w http.ResponseWriter, r *http.Request) {
	b, ok := browserOrError(w, r)
	if !ok {
		return
	}
	if err := b.SetGenre(r.FormValue("genre")); err != nil {
		actionError(w, r, err)
		return
	}
	if isHTMX(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func PickSuggestionHandler(w http.ResponseWriter, r *http.Request) {
	run(w, r, func(b *services.Browser) error {
		return b.PickSuggestion(chi.URLParam(r, "id"))
	})
}

func SelectMovieHandler(w http.ResponseWriter, r *http.Request) {
	run(w, r, func(b *services.Browser) error {
		return b.Select(chi.URLParam(r, "id"))
	})
}

func AddFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	run(w, r, func(b *services.Browser) error {
		id := chi.URLParam(r, "id")
		added, err := b.AddFavorite(r.Context(), id)
		if errors.Is(err, services.ErrUnknownMovie) || errors.Is(err, services.ErrClosed) {
			return err
		}
		// A failed write is logged by the browser; the in-memory list
		// already has the movie.
		if added {
			slog.Info("Favorite added", "imdb_id", id)
		}
		return nil
	})
}

func BackHandler(w http.ResponseWriter, r *http.Request) {
	run(w, r, (*services.Browser).Back)
}

func HomeHandler(w http.ResponseWriter, r *http.Request) {
	run(w, r, (*services.Browser).Home)
}

func NextPageHandler(w http.ResponseWriter, r *http.Request) {
	run(w, r, (*services.Browser).NextPage)
}

func PrevPageHandler(w http.ResponseWriter, r *http.Request) {
	run(w, r, (*services.Browser).PrevPage)
}

func FavoritesHandler(w http.ResponseWriter, r *http.Request) {
	run(w, r, (*services.Browser).ShowFavorites)
}

// run applies a browser action, then answers HTMX with the main panel and
// everything else with a redirect to the page.
func run(w http.ResponseWriter, r *http.Request, fn func(b *services.Browser) error) {
	b, ok := browserOrError(w, r)
	if !ok {
		return
	}
	if err := fn(b); err != nil {
		actionError(w, r, err)
		return
	}

	if isHTMX(r) {
		render(w, partialTmpl, "view", newPageData(b.Snapshot()))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func actionError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, services.ErrUnknownMovie):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrClosed):
		status = http.StatusServiceUnavailable
	}
	slog.Warn("Action rejected", "path", r.URL.Path, "status", status, "error", err)
	http.Error(w, err.Error(), status)
}
