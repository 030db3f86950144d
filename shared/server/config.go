package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Config holds HTTP server configuration
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a server config with sensible defaults.
// WriteTimeout stays zero because /events holds its response open.
func DefaultConfig(addr string) *Config {
	return &Config{
		Addr:            addr,
		ReadTimeout:     15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// CreateServer creates an HTTP server with the given configuration
func CreateServer(cfg *Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Run listens on cfg.Addr and serves until ctx is cancelled, then shuts the
// server down.
func Run(ctx context.Context, cfg *Config, srv *http.Server) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return Serve(ctx, cfg, srv, ln)
}

// Serve is Run on an existing listener. Streaming handlers must end on their
// own during shutdown; hook them with srv.RegisterOnShutdown.
func Serve(ctx context.Context, cfg *Config, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	slog.Info("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
