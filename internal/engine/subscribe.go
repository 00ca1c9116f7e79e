// internal/engine/subscribe.go
package engine

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/models"
)

const subscriptionBuffer = 8

// Subscription delivers every committed state of one game. Slow readers
// lose intermediate states, never the latest one.
type Subscription struct {
	e      *Engine
	gameID uuid.UUID
	c      chan *models.Game
}

// Updates is closed when the subscription or the engine is closed. States
// received must be treated as read-only.
func (s *Subscription) Updates() <-chan *models.Game { return s.c }

// Close stops delivery. It is safe to call more than once.
func (s *Subscription) Close() {
	s.e.subsMu.Lock()
	defer s.e.subsMu.Unlock()
	set, ok := s.e.subs[s.gameID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	close(s.c)
	if len(set) == 0 {
		delete(s.e.subs, s.gameID)
	}
}

func (e *Engine) Subscribe(gameID uuid.UUID) *Subscription {
	sub := &Subscription{e: e, gameID: gameID, c: make(chan *models.Game, subscriptionBuffer)}
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	if e.subs[gameID] == nil {
		e.subs[gameID] = make(map[*Subscription]struct{})
	}
	e.subs[gameID][sub] = struct{}{}
	return sub
}

func (e *Engine) notify(g *models.Game) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for sub := range e.subs[g.ID] {
		for sent := false; !sent; {
			select {
			case sub.c <- g:
				sent = true
			default:
				// full: drop the oldest state
				select {
				case <-sub.c:
				default:
				}
			}
		}
	}
}
