// internal/handlers/game.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/game"
	"github.com/jason-s-yu/modernart/internal/models"
)

type nameRequest struct {
	Name string `json:"name"`
}

type offerRequest struct {
	CardID       int  `json:"cardId"`
	SecondCardID *int `json:"secondCardId,omitempty"`
}

type priceRequest struct {
	Price int `json:"price"`
}

type bidRequest struct {
	Amount int `json:"amount"`
}

type finishRequest struct {
	ForcedWinner *uuid.UUID `json:"forcedWinner,omitempty"`
}

var errBadGameID = errors.New("invalid game id")

// decode reads an optional JSON body into v. An empty body leaves v zero.
func decode(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func gameIDFrom(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, errBadGameID
	}
	return id, nil
}

// respond writes the caller's view of g.
func respond(w http.ResponseWriter, status int, g *models.Game, viewer uuid.UUID) {
	writeJSON(w, status, game.ObfuscatedState(g, viewer))
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func (s *GameServer) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	userID, err := EnsureGuest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	g, err := s.engine.CreateGame(r.Context(), models.Player{ID: userID, Name: req.Name})
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, g, userID)
}

func (s *GameServer) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDFrom(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	// spectators without a token see no hand
	viewer, _ := authenticate(r)
	g, err := s.engine.Get(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, g, viewer)
}

func (s *GameServer) handleJoin(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDFrom(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var req nameRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	userID, err := EnsureGuest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	g, err := s.engine.Join(r.Context(), gameID, models.Player{ID: userID, Name: req.Name})
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, g, userID)
}

// actorCommand runs fn for an authenticated caller and writes the result.
func (s *GameServer) actorCommand(w http.ResponseWriter, r *http.Request, req interface{}, fn func(ctx context.Context, gameID, actor uuid.UUID) (*models.Game, error)) {
	gameID, err := gameIDFrom(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	if req != nil {
		if err := decode(r, req); err != nil {
			badRequest(w, err)
			return
		}
	}
	actor, err := authenticate(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	g, err := fn(r.Context(), gameID, actor)
	if err != nil {
		body := errorBody(err)
		if g != nil {
			state := game.ObfuscatedState(g, actor)
			body.State = &state
		}
		if statusFor(err) >= http.StatusInternalServerError {
			s.logger.WithField("game_id", gameID).Errorf("command failed: %v", err)
		}
		writeJSON(w, statusFor(err), body)
		return
	}
	respond(w, http.StatusOK, g, actor)
}

func (s *GameServer) handleStart(w http.ResponseWriter, r *http.Request) {
	s.actorCommand(w, r, nil, func(ctx context.Context, gameID, actor uuid.UUID) (*models.Game, error) {
		return s.engine.Start(ctx, gameID, actor)
	})
}

func (s *GameServer) handleOffer(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	s.actorCommand(w, r, &req, func(ctx context.Context, gameID, actor uuid.UUID) (*models.Game, error) {
		return s.engine.Offer(ctx, gameID, actor, req.CardID, req.SecondCardID)
	})
}

func (s *GameServer) handleFixedPrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	s.actorCommand(w, r, &req, func(ctx context.Context, gameID, actor uuid.UUID) (*models.Game, error) {
		return s.engine.SetFixedPrice(ctx, gameID, actor, req.Price)
	})
}

func (s *GameServer) handleBid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	s.actorCommand(w, r, &req, func(ctx context.Context, gameID, actor uuid.UUID) (*models.Game, error) {
		return s.engine.PlaceBid(ctx, gameID, actor, req.Amount)
	})
}

func (s *GameServer) handleBuy(w http.ResponseWriter, r *http.Request) {
	s.actorCommand(w, r, nil, func(ctx context.Context, gameID, actor uuid.UUID) (*models.Game, error) {
		return s.engine.Buy(ctx, gameID, actor)
	})
}

func (s *GameServer) handleFinish(w http.ResponseWriter, r *http.Request) {
	var req finishRequest
	s.actorCommand(w, r, &req, func(ctx context.Context, gameID, actor uuid.UUID) (*models.Game, error) {
		return s.engine.Finish(ctx, gameID, actor, req.ForcedWinner)
	})
}

func (s *GameServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.actorCommand(w, r, nil, func(ctx context.Context, gameID, actor uuid.UUID) (*models.Game, error) {
		return s.engine.Cancel(ctx, gameID, actor)
	})
}
