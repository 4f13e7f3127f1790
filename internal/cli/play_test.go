package cli

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/chessduel/internal/api"
	"github.com/mcoot/chessduel/internal/factory"
	"github.com/mcoot/chessduel/internal/testutil"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    string
		payload string
	}{
		{"draw", "draw", "room:draw-roles", `{}`},
		{"role", "  ROLE ", "role:get", `{}`},
		{"leave", "leave", "room:leave", `{}`},
		{"san move", "move Nf3", "chess:move", `{"move":"Nf3"}`},
		{"squares", "move e7 e8 q", "chess:move", `{"from":"e7","to":"e8","promotion":"q"}`},
		{"signal", `signal abc offer {"sdp": "v=0 o=- 1"}`, "signal:offer", `{"to":"abc","payload":{"sdp":"v=0 o=- 1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := parseCommand(tt.line)
			require.NoError(t, err)
			require.NotNil(t, c.frame)
			assert.Equal(t, tt.want, c.frame.Type)
			assert.JSONEq(t, tt.payload, string(c.frame.Payload))
		})
	}
}

func TestParseCommandControl(t *testing.T) {
	c, err := parseCommand("quit")
	require.NoError(t, err)
	assert.True(t, c.quit)

	c, err = parseCommand("help")
	require.NoError(t, err)
	assert.True(t, c.help)

	c, err = parseCommand("   ")
	require.NoError(t, err)
	assert.Equal(t, command{}, c)
}

func TestParseCommandErrors(t *testing.T) {
	for _, line := range []string{
		"castle",
		"move",
		"move a b c d",
		"signal abc offer",
		"signal abc hello {}",
		"signal abc offer {not json",
	} {
		_, err := parseCommand(line)
		assert.Error(t, err, line)
	}
}

func TestWebSocketURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8080":  "ws://localhost:8080/ws",
		"https://chess.example/": "wss://chess.example/ws",
		"http://127.0.0.1:9000/": "ws://127.0.0.1:9000/ws",
	}
	for server, want := range tests {
		c := &Config{ServerURL: server}
		assert.Equal(t, want, c.WebSocketURL(), server)
	}
}

func TestPrintEventJSONLines(t *testing.T) {
	var buf strings.Builder
	out := &Output{format: "json", w: &buf, errW: &buf}

	out.PrintEvent(Event{Type: "move:accepted", Payload: json.RawMessage(`{"sequence":1}`)})
	out.PrintEvent(Event{Type: "game:over", Payload: json.RawMessage(`{"result":"draw"}`)})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"type":"move:accepted","payload":{"sequence":1}}`, lines[0])
}

func TestRunPlayCreatesRoom(t *testing.T) {
	app, err := factory.New(context.Background(), factory.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	server := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:      testutil.NopLogger(),
		Rooms:       app.Manager,
		MoveLog:     app.Storage,
		WebSocket:   app.WebSocket,
		Connections: app.Hub,
	}))
	t.Cleanup(server.Close)

	buf := &testutil.LogBuffer{}
	out := &Output{format: "json", w: buf, errW: buf}
	conf := &Config{ServerURL: server.URL}

	err = runPlay(context.Background(), conf.WebSocketURL(), playOptions{
		create: true,
		name:   "Lunch",
		userID: "alice",
	}, strings.NewReader("help\nrole\nquit\n"), out)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, `"type":"connection:ready"`)
	assert.Contains(t, output, `"type":"room:created"`)
	assert.Contains(t, output, `"name":"Lunch"`)
}

func TestRunPlayJoinUnknownRoom(t *testing.T) {
	app, err := factory.New(context.Background(), factory.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	server := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:      testutil.NopLogger(),
		Rooms:       app.Manager,
		MoveLog:     app.Storage,
		WebSocket:   app.WebSocket,
		Connections: app.Hub,
	}))
	t.Cleanup(server.Close)

	buf := &testutil.LogBuffer{}
	conf := &Config{ServerURL: server.URL}

	err = runPlay(context.Background(), conf.WebSocketURL(), playOptions{
		join:   "nope00",
		userID: "bob",
	}, strings.NewReader(""), &Output{format: "json", w: buf, errW: buf})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "room:not-found")
}
