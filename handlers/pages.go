package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/justbri/marquee/services"
)

// IndexHandler renders the full page.
func IndexHandler(w http.ResponseWriter, r *http.Request) {
	b, ok := browserOrError(w, r)
	if !ok {
		return
	}
	render(w, pageTmpl, "base", newPageData(b.Snapshot()))
}

// ViewHandler renders the main panel.
func ViewHandler(w http.ResponseWriter, r *http.Request) {
	renderPartial(w, r, "view")
}

// HeaderHandler renders the search header.
func HeaderHandler(w http.ResponseWriter, r *http.Request) {
	renderPartial(w, r, "header")
}

// NavHandler renders the left part of the header.
func NavHandler(w http.ResponseWriter, r *http.Request) {
	renderPartial(w, r, "nav")
}

// SuggestionsHandler renders the autocomplete popup.
func SuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	renderPartial(w, r, "suggestions")
}

// StateHandler returns the browser snapshot as JSON.
func StateHandler(w http.ResponseWriter, r *http.Request) {
	b, ok := browserOrError(w, r)
	if !ok {
		return
	}
	snap := b.Snapshot()

	resp := struct {
		View   string              `json:"view"`
		Page   int                 `json:"page"`
		Term   string              `json:"term,omitempty"`
		State  services.StoreState `json:"state"`
		Detail any                 `json:"detail,omitempty"`
	}{
		View:  snap.View.Kind(),
		Page:  snap.Page,
		State: snap.State,
	}
	switch v := snap.View.(type) {
	case services.Searching:
		resp.Term = v.Term
	case services.DetailShown:
		resp.Detail = v.Detail
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode state", "error", err)
	}
}

func renderPartial(w http.ResponseWriter, r *http.Request, name string) {
	b, ok := browserOrError(w, r)
	if !ok {
		return
	}
	render(w, partialTmpl, name, newPageData(b.Snapshot()))
}

func browserOrError(w http.ResponseWriter, r *http.Request) (*services.Browser, bool) {
	b, err := services.BrowserFromContext(r.Context())
	if err != nil {
		slog.Error("Request reached handler without a browser", "path", r.URL.Path)
		http.Error(w, "Session unavailable", http.StatusInternalServerError)
		return nil, false
	}
	return b, true
}
