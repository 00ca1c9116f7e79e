// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/game"
	"github.com/jason-s-yu/modernart/internal/middleware"
	"github.com/jason-s-yu/modernart/internal/models"
	"github.com/jason-s-yu/modernart/internal/store"
)

const wsWriteTimeout = 5 * time.Second

// GameWSHandler streams the caller's view of a game. The first message is the
// current snapshot; every committed command produces another. Commands are
// sent over HTTP, so anything the client writes is discarded.
func (s *GameServer) GameWSHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"game"},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warnf("WebSocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "internal server error")

	if c.Subprotocol() != "game" {
		c.Close(BadSubprotocolError, "client must use the 'game' subprotocol")
		return
	}

	viewer, err := authenticate(r)
	if err != nil {
		c.Close(InvalidAuthTokenError, "invalid auth token")
		return
	}

	gameID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		c.Close(InvalidGameIDError, "invalid game id")
		return
	}

	// subscribe before the snapshot read so no commit slips between them
	sub := s.engine.Subscribe(gameID)
	defer sub.Close()

	g, err := s.engine.Get(r.Context(), gameID)
	if errors.Is(err, store.ErrGameNotFound) {
		c.Close(InvalidGameIDError, "game not found")
		return
	}
	if err != nil {
		s.logger.Errorf("failed to load game %s for stream: %v", gameID, err)
		return
	}

	middleware.LogWebSocketConnect(s.logger, r.RemoteAddr, r.URL.Path)
	s.monitor.IncWSConnections()
	defer s.monitor.DecWSConnections()

	ctx := c.CloseRead(r.Context())
	err = s.stream(ctx, c, sub.Updates(), g, viewer)
	middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, r.URL.Path, err)
	if err == nil {
		c.Close(GameFinishedClose, "game finished")
	}
}

// stream writes first, then every update, until the game finishes or ctx ends.
// A nil return means the game finished.
func (s *GameServer) stream(ctx context.Context, c *websocket.Conn, updates <-chan *models.Game, first *models.Game, viewer uuid.UUID) error {
	lastVersion := int64(-1)
	send := func(g *models.Game) error {
		// the subscription may deliver a state older than the snapshot
		if g.Version <= lastVersion {
			return nil
		}
		lastVersion = g.Version
		wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
		defer cancel()
		return wsjson.Write(wctx, c, game.ObfuscatedState(g, viewer))
	}

	if err := send(first); err != nil {
		return err
	}
	if first.Status == models.StatusFinished {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case g, ok := <-updates:
			if !ok {
				return errors.New("subscription closed")
			}
			if err := send(g); err != nil {
				return err
			}
			if g.Status == models.StatusFinished {
				return nil
			}
		}
	}
}
