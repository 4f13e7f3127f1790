package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/chessduel/internal/api"
	"github.com/mcoot/chessduel/internal/factory"
)

func TestServerLifecycle(t *testing.T) {
	app, err := factory.New(context.Background(), factory.Config{Logger: testLogger()})
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	cfg := api.DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.ShutdownTimeout = 2 * time.Second

	server := api.NewServer(api.NewRouter(api.RouterConfig{
		Logger:      testLogger(),
		Rooms:       app.Manager,
		MoveLog:     app.Storage,
		WebSocket:   app.WebSocket,
		Connections: app.Hub,
	}), cfg, testLogger())
	server.OnShutdown(app.Hub.Close)

	require.NoError(t, server.Listen())
	assert.NotEqual(t, "127.0.0.1:0", server.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	resp, err := http.Get("http://" + server.Addr() + "/api/v1/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+server.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage() // connection:ready
	require.NoError(t, err)

	require.NoError(t, server.Shutdown(context.Background()))
	require.NoError(t, <-errCh)

	// Shutdown closes hijacked websockets through the hub
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.Eventually(t, func() bool { return app.Hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
