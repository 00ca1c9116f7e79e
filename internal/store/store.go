// internal/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/game"
	"github.com/jason-s-yu/modernart/internal/models"
)

// DefaultMaxRetries bounds how often Update re-reads after losing a race.
const DefaultMaxRetries = 10

var (
	ErrGameNotFound = fmt.Errorf("%w: game not found", game.ErrPreconditionFailed)
	ErrGameExists   = fmt.Errorf("%w: game already exists", game.ErrPreconditionFailed)

	// ErrConcurrencyConflict is returned when Update kept losing the version
	// race. It is transient; the caller may retry.
	ErrConcurrencyConflict = errors.New("concurrent update conflict")

	// ErrSkipWrite may be returned by an UpdateFunc to leave the stored game
	// untouched. Update then returns the current game and no error.
	ErrSkipWrite = errors.New("skip write")
)

// UpdateFunc receives a private copy of the stored game and returns the state
// to write.
type UpdateFunc func(cur *models.Game) (*models.Game, error)

// Store persists games. Update is an atomic read-modify-write: either the
// returned state is written with Version+1 or nothing is.
type Store interface {
	Create(ctx context.Context, g *models.Game) error
	Get(ctx context.Context, id uuid.UUID) (*models.Game, error)
	Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*models.Game, error)
}

// apply runs fn and stamps the version of the state to be written. write is
// false when fn asked to skip.
func apply(cur *models.Game, fn UpdateFunc) (next *models.Game, write bool, err error) {
	next, err = fn(cur.Clone())
	if errors.Is(err, ErrSkipWrite) {
		return cur, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if next == nil {
		return nil, false, fmt.Errorf("%w: update returned no game", game.ErrInvariantViolation)
	}
	next.ID = cur.ID
	next.Version = cur.Version + 1
	return next, true, nil
}
