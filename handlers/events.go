package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const keepAliveInterval = 25 * time.Second

// EventsHandler streams a "changed" event whenever the visitor's state
// changes. Clients refetch the partials they show.
func EventsHandler(w http.ResponseWriter, r *http.Request) {
	b, ok := browserOrError(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	changes, unsubscribe := b.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	fmt.Fprint(w, "retry: 2000\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, open := <-changes:
			if !open {
				slog.Debug("Event stream closed with browser")
				return
			}
			version := b.Store().Snapshot().Version
			if _, err := fmt.Fprintf(w, "event: changed\ndata: %d\n\n", version); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
