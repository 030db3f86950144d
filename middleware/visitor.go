package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/justbri/marquee/services"
)

// RequireVisitor resolves the visitor cookie to a live browser and puts it,
// with its store, on the request context.
func RequireVisitor(store sessions.Store, registry *services.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visitor, err := services.VisitorID(w, r, store)
			if err != nil {
				slog.Error("Failed to resolve visitor session", "error", err, "path", r.URL.Path)
				http.Error(w, "Failed to create session", http.StatusInternalServerError)
				return
			}

			browser, err := registry.Get(r.Context(), visitor)
			if err != nil {
				slog.Error("Failed to open browser", "error", err, "visitor", visitor)
				http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
				return
			}

			next.ServeHTTP(w, r.WithContext(services.WithBrowser(r.Context(), browser)))
		})
	}
}
