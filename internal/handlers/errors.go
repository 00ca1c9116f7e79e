// internal/handlers/errors.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jason-s-yu/modernart/internal/game"
	"github.com/jason-s-yu/modernart/internal/store"
)

type errorResponse struct {
	Error  string             `json:"error"`
	Reason game.RejectReason  `json:"reason,omitempty"`
	Tie    *tieResponse       `json:"tie,omitempty"`
	State  *game.ObfGameState `json:"state,omitempty"`
}

type tieResponse struct {
	Tied   []string `json:"tied"`
	Amount int      `json:"amount"`
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errNoToken):
		return http.StatusUnauthorized
	case errors.Is(err, game.ErrValidationRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrPreconditionFailed), errors.Is(err, game.ErrInsufficientCards):
		return http.StatusConflict
	case errors.Is(err, store.ErrConcurrencyConflict):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) errorResponse {
	body := errorResponse{Error: err.Error()}
	var rej *game.RejectionError
	if errors.As(err, &rej) {
		body.Reason = rej.Reason
	}
	var tie *game.TieBreakError
	if errors.As(err, &tie) {
		tr := &tieResponse{Amount: tie.Amount}
		for _, id := range tie.Tied {
			tr.Tied = append(tr.Tied, id.String())
		}
		body.Tie = tr
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody(err))
}
