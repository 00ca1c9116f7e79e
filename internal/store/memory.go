// internal/store/memory.go
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/models"
)

// MemoryStore keeps games in process. The mutex is held for the whole
// read-modify-write, so updates to one store are serialized and never
// conflict.
type MemoryStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*models.Game
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[uuid.UUID]*models.Game),
	}
}

func (s *MemoryStore) Create(_ context.Context, g *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[g.ID]; exists {
		return ErrGameExists
	}
	s.games[g.ID] = g.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.games[id]
	if !exists {
		return nil, ErrGameNotFound
	}
	return g.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, exists := s.games[id]
	if !exists {
		return nil, ErrGameNotFound
	}
	next, write, err := apply(cur, fn)
	if err != nil {
		return nil, err
	}
	if write {
		s.games[id] = next.Clone()
	}
	return next.Clone(), nil
}
