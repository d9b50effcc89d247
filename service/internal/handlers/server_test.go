package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/john-pickett/card-heist-sub000/engine/sim"
	"github.com/john-pickett/card-heist-sub000/service/internal/auth"
	"github.com/john-pickett/card-heist-sub000/service/internal/game"
	"github.com/john-pickett/card-heist-sub000/service/internal/history"
	"github.com/john-pickett/card-heist-sub000/service/internal/models"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setupServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	signer, err := auth.NewSigner("handler-test-secret", time.Hour)
	require.NoError(t, err)
	log := quietLogger()
	s := NewServer(Options{
		Log:     log,
		Signer:  signer,
		History: history.NewMemoryRecorder(),
		Runner:  sim.NewRunner(2, log),
	})
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return ts, s
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func issueToken(t *testing.T, ts *httptest.Server, name string) tokenResponse {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/tokens", tokenRequest{Username: name})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tok tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	return tok
}

func TestHealthz(t *testing.T) {
	ts, _ := setupServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIssueToken(t *testing.T) {
	ts, s := setupServer(t)

	tok := issueToken(t, ts, "ghost")
	assert.NotEmpty(t, tok.Token)
	assert.Equal(t, "ghost", tok.User.Username)
	assert.NotEqual(t, uuid.Nil, tok.User.ID)

	user, err := s.Signer.ParseToken(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, tok.User, user)

	resp := postJSON(t, ts.URL+"/api/tokens", tokenRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	bad, err := http.Post(ts.URL+"/api/tokens", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestSimulate(t *testing.T) {
	ts, _ := setupServer(t)

	resp := postJSON(t, ts.URL+"/api/simulate", simulateRequest{Games: 200, Seed: 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out simulateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.Cached)
	assert.Equal(t, 200, out.Result.Games)
	assert.Equal(t, uint64(3), out.Result.Seed)
	assert.Equal(t, sim.ModelLegacyAI, out.Result.Config.Model)

	// Same seed, same numbers.
	direct, err := sim.NewRunner(1, nil).Run(context.Background(), 200, sim.Config{Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, direct.Escapes, out.Result.Escapes)
	assert.Equal(t, direct.Captures, out.Result.Captures)
}

func TestSimulateRejects(t *testing.T) {
	ts, _ := setupServer(t)

	resp := postJSON(t, ts.URL+"/api/simulate", simulateRequest{Games: maxSimGames + 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/simulate", simulateRequest{Games: 10, Config: sim.Config{PlayerStart: 9}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/simulate", map[string]interface{}{"config": map[string]string{"model": "psychic"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSweep(t *testing.T) {
	ts, _ := setupServer(t)

	resp, err := http.Get(ts.URL + "/api/sweep?games=40&seed=5")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []sim.SweepEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, len(sim.Variants()))
	assert.Equal(t, 40, entries[0].Result.Games)

	yresp, err := http.Get(ts.URL + "/api/sweep?games=20&seed=5&format=yaml")
	require.NoError(t, err)
	defer yresp.Body.Close()
	require.Equal(t, http.StatusOK, yresp.StatusCode)
	assert.Equal(t, "application/yaml", yresp.Header.Get("Content-Type"))
	var decoded []sim.SweepEntry
	require.NoError(t, yaml.NewDecoder(yresp.Body).Decode(&decoded))
	assert.Len(t, decoded, len(sim.Variants()))

	bad, err := http.Get(ts.URL + "/api/sweep?games=0")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestHistory(t *testing.T) {
	ts, s := setupServer(t)
	require.NoError(t, s.History.Record(context.Background(), history.Record{GameID: uuid.New(), Won: true, Turns: 5}))

	resp, err := http.Get(ts.URL + "/api/history?limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var recs []history.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Won)
	assert.Equal(t, 5, recs[0].Turns)

	bad, err := http.Get(ts.URL + "/api/history?limit=-1")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestGameSocketRejectsBadToken(t *testing.T) {
	ts, _ := setupServer(t)
	resp, err := http.Get(ts.URL + "/ws/game?token=nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, types ...game.GameEventType) game.GameEvent {
	t.Helper()
	for {
		var ev game.GameEvent
		require.NoError(t, wsjson.Read(ctx, conn, &ev))
		for _, want := range types {
			if ev.Type == want {
				return ev
			}
		}
	}
}

// TestGameSocketFlow plays a discard over the socket with the pursuer run
// inline, then disconnects and checks the history record.
func TestGameSocketFlow(t *testing.T) {
	ts, s := setupServer(t)
	tok := issueToken(t, ts, "runner")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/game?seed=42&token=" + tok.Token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	start := readUntil(t, ctx, conn, game.EventGameStart)
	require.NotNil(t, start.State)
	require.Len(t, start.State.Hand, 8)
	assert.Equal(t, "player_turn", start.State.Phase)

	require.NoError(t, wsjson.Write(ctx, conn, models.GameAction{ActionType: game.ActionDiscard}))
	invalid := readUntil(t, ctx, conn, game.EventInvalidAction)
	assert.Equal(t, "select at least one card to discard", invalid.Payload["message"])

	card := start.State.Hand[0].ID.String()
	require.NoError(t, wsjson.Write(ctx, conn, models.GameAction{
		ActionType: game.ActionToggleSelect,
		Payload:    map[string]interface{}{"cardId": card},
	}))
	sel := readUntil(t, ctx, conn, game.EventSelectionChanged)
	assert.Equal(t, []interface{}{card}, sel.Payload["selected"])

	require.NoError(t, wsjson.Write(ctx, conn, models.GameAction{ActionType: game.ActionDiscard}))
	discard := readUntil(t, ctx, conn, game.EventPlayerDiscard)
	require.Len(t, discard.Cards, 1)
	assert.Equal(t, card, discard.Cards[0].ID.String())

	next := readUntil(t, ctx, conn, game.EventPlayerTurn, game.EventGameEnd)
	require.NotNil(t, next.State)
	assert.Equal(t, 1, next.State.Counters.Discards)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	require.Eventually(t, func() bool {
		recs, _ := s.History.Recent(context.Background(), 10)
		return len(recs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	recs, _ := s.History.Recent(context.Background(), 10)
	assert.Equal(t, tok.User.ID, recs[0].UserID)
	assert.Equal(t, "runner", recs[0].Username)
	assert.Equal(t, uint64(42), recs[0].Seed)
	assert.Equal(t, next.Type == game.EventPlayerTurn, recs[0].Abandoned)
}
