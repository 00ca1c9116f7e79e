// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/modernart/internal/engine"
	"github.com/jason-s-yu/modernart/internal/middleware"
	"github.com/jason-s-yu/modernart/internal/monitor"
	"github.com/sirupsen/logrus"
)

// GameServer exposes the engine over HTTP and WebSocket.
type GameServer struct {
	engine  *engine.Engine
	logger  *logrus.Logger
	monitor *monitor.Monitor
}

func NewGameServer(e *engine.Engine, logger *logrus.Logger, mon *monitor.Monitor) *GameServer {
	return &GameServer{engine: e, logger: logger, monitor: mon}
}

// Routes returns the full HTTP surface wrapped in request logging.
func (s *GameServer) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /games", s.handleCreateGame)
	mux.HandleFunc("GET /games/{id}", s.handleGetGame)
	mux.HandleFunc("POST /games/{id}/join", s.handleJoin)
	mux.HandleFunc("POST /games/{id}/start", s.handleStart)
	mux.HandleFunc("POST /games/{id}/offer", s.handleOffer)
	mux.HandleFunc("POST /games/{id}/fixed-price", s.handleFixedPrice)
	mux.HandleFunc("POST /games/{id}/bid", s.handleBid)
	mux.HandleFunc("POST /games/{id}/buy", s.handleBuy)
	mux.HandleFunc("POST /games/{id}/finish", s.handleFinish)
	mux.HandleFunc("POST /games/{id}/cancel", s.handleCancel)
	mux.HandleFunc("GET /games/{id}/ws", s.GameWSHandler)

	mux.Handle("GET /metrics", s.monitor.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	return middleware.LogMiddleware(s.logger)(mux)
}
