package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	rand "math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Palmergill/poker-app/internal/auth"
	"github.com/Palmergill/poker-app/internal/broadcast"
	"github.com/Palmergill/poker-app/internal/randutil"
	"github.com/Palmergill/poker-app/internal/store"
	"github.com/Palmergill/poker-app/internal/table"
)

type gateway struct {
	t        *testing.T
	srv      *httptest.Server
	verifier *auth.JWTVerifier
}

func newGateway(t *testing.T) *gateway {
	t.Helper()
	logger := log.New(io.Discard)

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tables := table.NewManager(table.ManagerOptions{
		Store:       st,
		Broadcaster: broadcast.New(logger),
		Logger:      logger,
		NewRNG:      func() *rand.Rand { return randutil.New(1) },
	})
	_, err = tables.Create(t.Context(), store.Table{
		ID:         "t1",
		Name:       "main",
		MaxSeats:   6,
		SmallBlind: decimal.NewFromInt(1),
		BigBlind:   decimal.NewFromInt(2),
		MinBuyIn:   decimal.NewFromInt(40),
		MaxBuyIn:   decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	for _, id := range []string{"p0", "p1"} {
		require.NoError(t, st.CreatePlayer(t.Context(), store.Player{
			ID:          id,
			DisplayName: strings.ToUpper(id),
			Bankroll:    decimal.NewFromInt(1000),
		}))
	}

	verifier := auth.NewJWTVerifier("test-secret")
	s := New("localhost:0", verifier, tables, logger)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &gateway{t: t, srv: srv, verifier: verifier}
}

func (g *gateway) token(playerID string) string {
	g.t.Helper()
	token, err := g.verifier.Issue(playerID, strings.ToUpper(playerID), time.Hour)
	require.NoError(g.t, err)
	return token
}

func (g *gateway) do(method, path, token string, body any) (*http.Response, map[string]any) {
	g.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(g.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, g.srv.URL+path, &buf)
	require.NoError(g.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(g.t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(g.t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestHealthz(t *testing.T) {
	g := newGateway(t)
	resp, err := http.Get(g.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMissingTokenRejected(t *testing.T) {
	g := newGateway(t)
	resp, body := g.do("GET", "/api/games/t1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthenticated", body["error"])
}

func TestUnknownTable(t *testing.T) {
	g := newGateway(t)
	resp, body := g.do("GET", "/api/games/nope", g.token("p0"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["error"])
}

func TestJoinAndSnapshot(t *testing.T) {
	g := newGateway(t)

	resp, body := g.do("POST", "/api/tables/t1/join", g.token("p0"), map[string]any{"buyIn": "100"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "t1", body["tableId"])

	players, ok := body["players"].([]any)
	require.True(t, ok)
	require.Len(t, players, 1)
	seat := players[0].(map[string]any)
	assert.Equal(t, "p0", seat["playerId"])
	assert.Equal(t, "100", seat["stack"])
}

func TestJoinBuyInOutOfRange(t *testing.T) {
	g := newGateway(t)
	resp, body := g.do("POST", "/api/tables/t1/join", g.token("p0"), map[string]any{"buyIn": "5"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_amount", body["error"])
	assert.NotEmpty(t, body["detail"])
}

func TestActionUnknownKind(t *testing.T) {
	g := newGateway(t)
	g.do("POST", "/api/tables/t1/join", g.token("p0"), map[string]any{"buyIn": "100"})
	g.do("POST", "/api/tables/t1/join", g.token("p1"), map[string]any{"buyIn": "100"})
	g.do("POST", "/api/games/t1/start", g.token("p0"), nil)

	resp, body := g.do("POST", "/api/games/t1/action", g.token("p0"), map[string]any{"kind": "SHOVE"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_action", body["error"])
}

func TestStartToFoldOutOverHTTP(t *testing.T) {
	g := newGateway(t)
	g.do("POST", "/api/tables/t1/join", g.token("p0"), map[string]any{"buyIn": "100"})
	g.do("POST", "/api/tables/t1/join", g.token("p1"), map[string]any{"buyIn": "100"})

	resp, snap := g.do("POST", "/api/games/t1/start", g.token("p0"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PREFLOP", snap["phase"])

	actor := fmt.Sprintf("p%d", int(snap["currentToAct"].(float64)))
	resp, snap = g.do("POST", "/api/games/t1/action", g.token(actor), map[string]any{"kind": "FOLD"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, snap["winnerInfo"])
	assert.Equal(t, "WAITING_FOR_PLAYERS", snap["phase"])

	resp, body := g.do("GET", "/api/games/t1/hand-history", g.token("p0"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := body["handHistory"].([]any)
	assert.Len(t, history, 1)

	resp, body = g.do("GET", "/api/games/t1/summary", g.token("p0"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "IN_PROGRESS", body["gameStatus"])
}

func TestSubscribeRejectsBadToken(t *testing.T) {
	g := newGateway(t)
	url := "ws" + strings.TrimPrefix(g.srv.URL, "http") + "/ws/games/t1?token=garbage"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, 4001, closeErr.Code)
}

func TestSubscribeRejectsNonParticipant(t *testing.T) {
	g := newGateway(t)
	url := "ws" + strings.TrimPrefix(g.srv.URL, "http") + "/ws/games/t1?token=" + g.token("p0")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, 4003, closeErr.Code)
}

func TestSubscribeReceivesSnapshotOnAttach(t *testing.T) {
	g := newGateway(t)
	g.do("POST", "/api/tables/t1/join", g.token("p0"), map[string]any{"buyIn": "100"})

	url := "ws" + strings.TrimPrefix(g.srv.URL, "http") + "/ws/games/t1?token=" + g.token("p0")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg struct {
		Kind string          `json:"kind"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "snapshot", msg.Kind)

	var snap map[string]any
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Equal(t, "t1", snap["tableId"])
}
