// internal/store/redis.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each game as a JSON string under prefix+id. Update uses
// WATCH so a concurrent write aborts the transaction and the update is
// retried against the new value.
type RedisStore struct {
	rdb        *redis.Client
	prefix     string
	ttl        time.Duration
	MaxRetries int
}

// NewRedisStore returns a store using keys "<prefix><game id>". A zero ttl
// keeps games forever.
func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl, MaxRetries: DefaultMaxRetries}
}

func (s *RedisStore) key(id uuid.UUID) string {
	return s.prefix + id.String()
}

func (s *RedisStore) Create(ctx context.Context, g *models.Game) error {
	doc, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game %s: %w", g.ID, err)
	}
	ok, err := s.rdb.SetNX(ctx, s.key(g.ID), doc, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to SETNX game %s: %w", g.ID, err)
	}
	if !ok {
		return ErrGameExists
	}
	return nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	return s.read(ctx, s.rdb, id)
}

func (s *RedisStore) read(ctx context.Context, c getter, id uuid.UUID) (*models.Game, error) {
	data, err := c.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to GET game %s: %w", id, err)
	}
	var g models.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return &g, nil
}

func (s *RedisStore) Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*models.Game, error) {
	key := s.key(id)
	var out *models.Game
	txf := func(tx *redis.Tx) error {
		cur, err := s.read(ctx, tx, id)
		if err != nil {
			return err
		}
		next, write, err := apply(cur, fn)
		if err != nil {
			return err
		}
		if !write {
			out = cur
			return nil
		}
		doc, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal game %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, doc, s.ttl)
			return nil
		})
		if err == nil {
			out = next
		}
		return err
	}

	for attempt := 0; attempt < s.MaxRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, ErrConcurrencyConflict
}
