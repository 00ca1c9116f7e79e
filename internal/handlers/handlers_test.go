// internal/handlers/handlers_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/auth"
	"github.com/jason-s-yu/modernart/internal/engine"
	"github.com/jason-s-yu/modernart/internal/game"
	"github.com/jason-s-yu/modernart/internal/models"
	"github.com/jason-s-yu/modernart/internal/monitor"
	"github.com/jason-s-yu/modernart/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := auth.Init("1h"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type testServer struct {
	srv *httptest.Server
	st  *store.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	reg := prometheus.NewRegistry()
	mon := monitor.NewMonitorWithRegistry("test", reg, reg)
	st := store.NewMemoryStore()
	e := engine.New(st, logger, engine.Options{Rules: game.DefaultRules(), Monitor: mon, Seed: 7})
	srv := httptest.NewServer(NewGameServer(e, logger, mon).Routes())
	t.Cleanup(func() {
		srv.Close()
		e.Close()
	})
	return &testServer{srv: srv, st: st}
}

// seedGame stores an in-progress game where each player holds cards of the
// given auction type with ids starting at 1 in seat order.
func (ts *testServer) seedGame(t *testing.T, n int, typ models.AuctionType) *models.Game {
	t.Helper()
	g := &models.Game{
		ID:           uuid.New(),
		Status:       models.StatusInProgress,
		Round:        1,
		ArtistCounts: map[string]int{},
		ArtistValues: map[string]int{},
	}
	id := 1
	for i := 0; i < n; i++ {
		p := &models.Player{ID: uuid.New(), Name: fmt.Sprintf("p%d", i), Money: 100, IsHost: i == 0}
		for _, artist := range game.DefaultArtists {
			p.Hand = append(p.Hand, models.Card{ID: id, Artist: artist, AuctionType: typ})
			id++
		}
		g.Players = append(g.Players, p)
	}
	g.TurnPlayerID = g.Players[0].ID
	require.NoError(t, ts.st.Create(context.Background(), g))
	return g
}

func tokenFor(t *testing.T, id uuid.UUID) string {
	t.Helper()
	tok, err := auth.CreateJWT(id)
	require.NoError(t, err)
	return tok
}

// do sends a JSON request. A zero actor sends no credentials.
func (ts *testServer) do(t *testing.T, client *http.Client, method, path string, actor uuid.UUID, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, actor))
	}
	if client == nil {
		client = ts.srv.Client()
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeState(t *testing.T, data []byte) game.ObfGameState {
	t.Helper()
	var st game.ObfGameState
	require.NoError(t, json.Unmarshal(data, &st), string(data))
	return st
}

func decodeError(t *testing.T, data []byte) errorResponse {
	t.Helper()
	var er errorResponse
	require.NoError(t, json.Unmarshal(data, &er), string(data))
	return er
}

func cookieClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func TestLobbyOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	host, guest := cookieClient(t), cookieClient(t)

	resp, data := ts.do(t, host, http.MethodPost, "/games", uuid.Nil, nameRequest{Name: "alice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	created := decodeState(t, data)
	require.Len(t, created.Players, 1)
	assert.True(t, created.Players[0].IsHost)
	assert.Equal(t, models.StatusWaiting, created.Status)

	path := "/games/" + created.GameID.String()
	resp, data = ts.do(t, guest, http.MethodPost, path+"/join", uuid.Nil, nameRequest{Name: "bob"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Len(t, decodeState(t, data).Players, 2)

	resp, data = ts.do(t, guest, http.MethodPost, path+"/start", uuid.Nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(data))

	resp, data = ts.do(t, host, http.MethodPost, path+"/start", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	started := decodeState(t, data)
	assert.Equal(t, models.StatusInProgress, started.Status)
	for _, p := range started.Players {
		if p.PlayerID == created.Players[0].PlayerID {
			assert.Len(t, p.Hand, p.HandSize)
		} else {
			assert.Empty(t, p.Hand)
		}
	}
}

func TestOpenAuctionOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	g := ts.seedGame(t, 3, models.AuctionOpen)
	seller, alice, bob := g.Players[0].ID, g.Players[1].ID, g.Players[2].ID
	path := "/games/" + g.ID.String()

	resp, data := ts.do(t, nil, http.MethodPost, path+"/offer", seller, offerRequest{CardID: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	require.NotNil(t, decodeState(t, data).Auction)

	resp, data = ts.do(t, nil, http.MethodPost, path+"/bid", alice, bidRequest{Amount: 10})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	resp, data = ts.do(t, nil, http.MethodPost, path+"/bid", bob, bidRequest{Amount: 5})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, game.ReasonBidTooLow, decodeError(t, data).Reason)

	resp, data = ts.do(t, nil, http.MethodPost, path+"/bid", seller, bidRequest{Amount: 20})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, game.ReasonSellerCannotBid, decodeError(t, data).Reason)

	resp, data = ts.do(t, nil, http.MethodPost, path+"/finish", seller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	st := decodeState(t, data)
	assert.Nil(t, st.Auction)
	money := map[uuid.UUID]int{}
	for _, p := range st.Players {
		money[p.PlayerID] = p.Money
	}
	assert.Equal(t, 110, money[seller])
	assert.Equal(t, 90, money[alice])
	assert.Equal(t, 100, money[bob])
	assert.Equal(t, alice, st.TurnPlayerID)
}

func TestSealedTieOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	g := ts.seedGame(t, 3, models.AuctionSealed)
	seller := g.Players[0].ID
	path := "/games/" + g.ID.String()

	resp, data := ts.do(t, nil, http.MethodPost, path+"/offer", seller, offerRequest{CardID: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	for _, p := range g.Players[1:] {
		resp, data = ts.do(t, nil, http.MethodPost, path+"/bid", p.ID, bidRequest{Amount: 15})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	}

	resp, data = ts.do(t, nil, http.MethodPost, path+"/finish", seller, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode, string(data))
	er := decodeError(t, data)
	require.NotNil(t, er.Tie)
	assert.Len(t, er.Tie.Tied, 2)
	assert.Equal(t, 15, er.Tie.Amount)
	require.NotNil(t, er.State)
	require.NotNil(t, er.State.Auction)
	assert.True(t, er.State.Auction.Resolved)

	forced := g.Players[2].ID
	resp, data = ts.do(t, nil, http.MethodPost, path+"/finish", seller, finishRequest{ForcedWinner: &forced})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	st := decodeState(t, data)
	for _, p := range st.Players {
		if p.PlayerID == forced {
			assert.Equal(t, 85, p.Money)
			assert.Len(t, p.Collection, 1)
		}
	}
}

func TestRequestErrors(t *testing.T) {
	ts := newTestServer(t)
	g := ts.seedGame(t, 2, models.AuctionOpen)
	path := "/games/" + g.ID.String()

	resp, _ := ts.do(t, nil, http.MethodPost, path+"/offer", uuid.Nil, offerRequest{CardID: 1})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(t, nil, http.MethodGet, "/games/"+uuid.NewString(), uuid.Nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, nil, http.MethodGet, "/games/not-a-uuid", uuid.Nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// not this player's turn
	resp, _ = ts.do(t, nil, http.MethodPost, path+"/offer", g.Players[1].ID, offerRequest{CardID: 7})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = ts.do(t, nil, http.MethodPost, path+"/bid", g.Players[1].ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, data := ts.do(t, nil, http.MethodGet, path, uuid.Nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, p := range decodeState(t, data).Players {
		assert.Empty(t, p.Hand)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	g := ts.seedGame(t, 2, models.AuctionOpen)
	resp, _ := ts.do(t, nil, http.MethodPost, "/games/"+g.ID.String()+"/offer", g.Players[0].ID, offerRequest{CardID: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := ts.do(t, nil, http.MethodGet, "/healthz", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(data))

	resp, data = ts.do(t, nil, http.MethodGet, "/metrics", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "test_")
}

func wsURL(ts *testServer, gameID string) string {
	return "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/games/" + gameID + "/ws"
}

func TestGameStream(t *testing.T) {
	ts := newTestServer(t)
	g := ts.seedGame(t, 3, models.AuctionOpen)
	seller, alice := g.Players[0].ID, g.Players[1].ID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, wsURL(ts, g.ID.String()), &websocket.DialOptions{
		Subprotocols: []string{"game"},
		HTTPHeader:   http.Header{"Authorization": {"Bearer " + tokenFor(t, alice)}},
	})
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	var first game.ObfGameState
	require.NoError(t, wsjson.Read(ctx, c, &first))
	assert.Nil(t, first.Auction)
	for _, p := range first.Players {
		if p.PlayerID == alice {
			assert.Len(t, p.Hand, len(game.DefaultArtists))
		} else {
			assert.Empty(t, p.Hand)
		}
	}

	resp, data := ts.do(t, nil, http.MethodPost, "/games/"+g.ID.String()+"/offer", seller, offerRequest{CardID: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var next game.ObfGameState
	require.NoError(t, wsjson.Read(ctx, c, &next))
	require.NotNil(t, next.Auction)
	assert.Equal(t, 1, next.Auction.Card.ID)
	assert.Greater(t, next.Version, first.Version)
}

func TestGameStreamRejectsBadToken(t *testing.T) {
	ts := newTestServer(t)
	g := ts.seedGame(t, 2, models.AuctionOpen)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, wsURL(ts, g.ID.String()), &websocket.DialOptions{
		Subprotocols: []string{"game"},
		HTTPHeader:   http.Header{"Authorization": {"Bearer garbage"}},
	})
	require.NoError(t, err)
	defer c.CloseNow()

	_, _, err = c.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusCode(InvalidAuthTokenError), websocket.CloseStatus(err))
}

func TestGameStreamUnknownGame(t *testing.T) {
	ts := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, wsURL(ts, uuid.NewString()), &websocket.DialOptions{
		Subprotocols: []string{"game"},
		HTTPHeader:   http.Header{"Authorization": {"Bearer " + tokenFor(t, uuid.New())}},
	})
	require.NoError(t, err)
	defer c.CloseNow()

	_, _, err = c.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusCode(InvalidGameIDError), websocket.CloseStatus(err))
}
