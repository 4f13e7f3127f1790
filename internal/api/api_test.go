package api_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/chessduel/internal/api"
	"github.com/mcoot/chessduel/internal/api/apierr"
	"github.com/mcoot/chessduel/internal/api/response"
	"github.com/mcoot/chessduel/internal/factory"
	"github.com/mcoot/chessduel/internal/model"
	"github.com/mcoot/chessduel/internal/services/phase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testServer wraps the router around a TestApp with mocked clock and random
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:      testLogger(),
		Rooms:       app.Manager,
		MoveLog:     app.Storage,
		WebSocket:   app.WebSocket,
		Connections: app.Hub,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) send(t *testing.T, conn model.ConnectionID, eventType model.EventType, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	ts.app.Manager.Handle(context.Background(), conn, eventType, raw)
}

// activeRoom creates ROOM01 and starts a game with alice (c1) moving first
func (ts *testServer) activeRoom(t *testing.T) {
	t.Helper()
	ts.app.MockRandom.QueueString("ROOM01")
	ts.app.MockRandom.QueueIntn(0)
	ts.send(t, "c1", model.EventCreateRoom, model.CreateRoomPayload{Name: "Lunch", UserID: "alice", DisplayName: "Alice"})
	ts.send(t, "c2", model.EventJoinRoom, model.JoinRoomPayload{Code: "ROOM01", UserID: "bob", DisplayName: "Bob"})
	ts.send(t, "c1", model.EventDrawRoles, model.RoomScopedPayload{})
	ts.app.MockClock.Advance(45 * time.Second)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	ts.activeRoom(t)

	rr := ts.request(http.MethodGet, "/api/v1/health")
	assert.Equal(t, http.StatusOK, rr.Code)

	resp := decode[response.Health](t, rr)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Rooms)
	assert.Equal(t, 0, resp.Connections)
}

func TestGetRoom(t *testing.T) {
	ts := newTestServer(t)
	ts.activeRoom(t)
	ts.send(t, "c1", model.EventSubmitMove, model.SubmitMovePayload{Move: "d4"})

	rr := ts.request(http.MethodGet, "/api/v1/rooms/room01")
	require.Equal(t, http.StatusOK, rr.Code)

	room := decode[response.Room](t, rr)
	assert.Equal(t, "ROOM01", room.Code)
	assert.Equal(t, "Lunch", room.Name)
	assert.Equal(t, string(model.PhaseActive), room.Phase)
	assert.Equal(t, 1, room.MoveCount)
	assert.NotEmpty(t, room.Position)
	assert.Nil(t, room.Outcome)
	require.Len(t, room.Participants, 2)
	assert.Equal(t, "alice", room.Participants[0].UserID)
	assert.True(t, room.Participants[0].IsCreator)
	assert.Equal(t, string(model.RoleFirst), room.Participants[0].Role)
	assert.NotContains(t, rr.Body.String(), "c1")
}

func TestGetUnknownRoom(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/rooms/NOPE00")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	resp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeRoomNotFound, resp.Error.Code)
}

func TestMovesOutliveRoom(t *testing.T) {
	ts := newTestServer(t)
	ts.activeRoom(t)
	ts.send(t, "c1", model.EventSubmitMove, model.SubmitMovePayload{Move: "e4"})
	ts.send(t, "c2", model.EventSubmitMove, model.SubmitMovePayload{From: "c7", To: "c5"})

	ts.app.Manager.Disconnect(context.Background(), "c1")
	ts.app.Manager.Disconnect(context.Background(), "c2")
	require.NoError(t, ts.app.MoveWriter.Flush(context.Background()))

	assert.Equal(t, http.StatusNotFound, ts.request(http.MethodGet, "/api/v1/rooms/ROOM01").Code)

	rr := ts.request(http.MethodGet, "/api/v1/rooms/ROOM01/moves")
	require.Equal(t, http.StatusOK, rr.Code)

	list := decode[response.MoveList](t, rr)
	assert.Equal(t, "ROOM01", list.Code)
	require.Len(t, list.Moves, 2)
	assert.Equal(t, "e4", list.Moves[0].Notation)
	assert.Equal(t, "c5", list.Moves[1].Notation)
	assert.Equal(t, string(model.RoleSecond), list.Moves[1].Role)
	assert.Equal(t, list.Moves[0].PositionAfter, list.Moves[1].PositionBefore)
}

func TestMovesForUnknownRoomIsEmpty(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/rooms/NOPE00/moves")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[response.MoveList](t, rr).Moves)
}

func TestMalformedRoomCode(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/rooms/ROOM_01")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, decode[apierr.ErrorResponse](t, rr).Error.Code)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/ABCDEFGHJKLMNPQRS/moves")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWrongMethod(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodDelete, "/api/v1/rooms/ROOM01")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestResponsesCarryRequestID(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/lobbies")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeNotFound, decode[apierr.ErrorResponse](t, rr).Error.Code)
}

// wsClient reads envelopes from a live websocket
type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
	id   model.ConnectionID
}

type frame struct {
	Type    model.EventType `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialClient(t *testing.T, url string) *wsClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	c := &wsClient{t: t, conn: conn}
	ready := c.await(model.EventConnectionReady)
	var payload model.ConnectionReadyPayload
	require.NoError(t, json.Unmarshal(ready.Payload, &payload))
	c.id = payload.ConnectionID
	return c
}

func (c *wsClient) send(eventType model.EventType, payload any) {
	c.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(frame{Type: eventType, Payload: raw}))
}

// await skips frames until one of the given type arrives
func (c *wsClient) await(eventType model.EventType) frame {
	c.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(deadline))
		var f frame
		require.NoError(c.t, c.conn.ReadJSON(&f), "waiting for %s", eventType)
		if f.Type == eventType {
			return f
		}
	}
}

func TestWebsocketGame(t *testing.T) {
	app, err := factory.New(context.Background(), factory.Config{
		Logger: testLogger(),
		PhaseConfig: phase.Config{
			PreGameDuration:  50 * time.Millisecond,
			PostGameDuration: 50 * time.Millisecond,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	server := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:      testLogger(),
		Rooms:       app.Manager,
		MoveLog:     app.Storage,
		WebSocket:   app.WebSocket,
		Connections: app.Hub,
	}))
	t.Cleanup(server.Close)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	alice := dialClient(t, url)
	bob := dialClient(t, url)

	alice.send(model.EventCreateRoom, model.CreateRoomPayload{Name: "Live", UserID: "alice"})
	var created model.RoomCreatedPayload
	require.NoError(t, json.Unmarshal(alice.await(model.EventRoomCreated).Payload, &created))

	bob.send(model.EventJoinRoom, model.JoinRoomPayload{Code: created.Code, UserID: "bob"})
	alice.await(model.EventRoomJoined)
	bob.await(model.EventRoomJoined)

	alice.send(model.EventDrawRoles, model.RoomScopedPayload{RoomID: created.Code})
	roles := map[model.Role]*wsClient{}
	for _, c := range []*wsClient{alice, bob} {
		var yours model.YourRolePayload
		require.NoError(t, json.Unmarshal(c.await(model.EventYourRole).Payload, &yours))
		roles[yours.Role] = c
	}
	require.Len(t, roles, 2)

	first, second := roles[model.RoleFirst], roles[model.RoleSecond]
	first.await(model.EventPhaseActive)
	second.await(model.EventPhaseActive)

	// Fool's mate
	first.send(model.EventSubmitMove, model.SubmitMovePayload{Move: "f3"})
	second.await(model.EventMoveAccepted)
	second.send(model.EventSubmitMove, model.SubmitMovePayload{Move: "e5"})
	first.await(model.EventMoveAccepted)
	first.await(model.EventMoveAccepted)
	first.send(model.EventSubmitMove, model.SubmitMovePayload{Move: "g4"})
	second.await(model.EventMoveAccepted)
	second.await(model.EventMoveAccepted)
	second.send(model.EventSubmitMove, model.SubmitMovePayload{Move: "Qh4"})

	var over model.GameOverPayload
	require.NoError(t, json.Unmarshal(first.await(model.EventGameOver).Payload, &over))
	assert.Equal(t, model.ResultSecondWin, over.Result)
	first.await(model.EventPhaseComplete)

	// Call signaling between the two connections
	first.send(model.EventSignalOffer, model.SignalPayload{To: second.id, Payload: json.RawMessage(`{"sdp":"v=0"}`)})
	var relayed model.SignalRelayedPayload
	require.NoError(t, json.Unmarshal(second.await(model.EventSignalRelayed).Payload, &relayed))
	assert.Equal(t, "offer", relayed.Kind)
	assert.Equal(t, first.id, relayed.From)
	assert.JSONEq(t, `{"sdp":"v=0"}`, string(relayed.Payload))

	// Closing both sockets tears the room down
	require.NoError(t, alice.conn.Close())
	require.NoError(t, bob.conn.Close())
	assert.Eventually(t, func() bool { return app.Manager.RoomCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
