// internal/engine/timer.go
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/game"
)

// armTimer finishes the auction of cardID after the configured timeout. The
// timer goes through the same Finish path as a manual finish; if the auction
// already ended, or another card is on offer, it does nothing.
func (e *Engine) armTimer(gameID uuid.UUID, cardID int) {
	if e.timeout <= 0 {
		return
	}
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	if e.closed {
		return
	}
	if t, ok := e.timers[gameID]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(e.timeout, func() {
		e.timersMu.Lock()
		if e.timers[gameID] == t {
			delete(e.timers, gameID)
		}
		e.timersMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := e.finish(ctx, gameID, game.Finish{By: uuid.Nil, CardID: cardID})
		var tie *game.TieBreakError
		switch {
		case errors.As(err, &tie):
			e.logger.WithField("game_id", gameID).Infof("auction timer hit a tie between %v", tie.Tied)
		case err != nil:
			e.logger.WithField("game_id", gameID).Warnf("auction timer finish: %v", err)
		}
	})
	e.timers[gameID] = t
}

func (e *Engine) stopTimer(gameID uuid.UUID) {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	if t, ok := e.timers[gameID]; ok {
		t.Stop()
		delete(e.timers, gameID)
	}
}

// Close stops all auction timers and closes every subscription.
func (e *Engine) Close() {
	e.timersMu.Lock()
	e.closed = true
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
	e.timersMu.Unlock()

	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for id, set := range e.subs {
		for sub := range set {
			close(sub.c)
		}
		delete(e.subs, id)
	}
}
