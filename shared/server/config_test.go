package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigLeavesWritesUnbounded(t *testing.T) {
	cfg := DefaultConfig(":5005")
	srv := CreateServer(cfg, http.NotFoundHandler())

	assert.Equal(t, ":5005", srv.Addr)
	assert.Zero(t, srv.WriteTimeout)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	cfg := DefaultConfig("127.0.0.1:0")
	cfg.ShutdownTimeout = time.Second
	srv := CreateServer(cfg, http.NotFoundHandler())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, srv) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunReportsListenError(t *testing.T) {
	cfg := DefaultConfig("256.0.0.1:bad")
	err := Run(context.Background(), cfg, CreateServer(cfg, http.NotFoundHandler()))
	require.Error(t, err)
}
