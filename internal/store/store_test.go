package store

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/modernart/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGame() *models.Game {
	host := &models.Player{ID: uuid.New(), Name: "host", Money: 100, IsHost: true}
	return &models.Game{
		ID:           uuid.New(),
		Status:       models.StatusWaiting,
		Players:      []*models.Player{host},
		ArtistCounts: map[string]int{},
		ArtistValues: map[string]int{},
	}
}

func addMoney(n int) UpdateFunc {
	return func(g *models.Game) (*models.Game, error) {
		g.Players[0].Money += n
		return g, nil
	}
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	g := newGame()
	require.NoError(t, s.Create(ctx, g))
	assert.ErrorIs(t, s.Create(ctx, g), ErrGameExists)

	_, err := s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, err = s.Update(ctx, uuid.New(), addMoney(1))
	assert.ErrorIs(t, err, ErrGameNotFound)

	got, err := s.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Version)
	assert.Equal(t, 100, got.Players[0].Money)

	next, err := s.Update(ctx, g.ID, addMoney(5))
	require.NoError(t, err)
	assert.Equal(t, int64(1), next.Version)
	assert.Equal(t, 105, next.Players[0].Money)

	same, err := s.Update(ctx, g.ID, func(*models.Game) (*models.Game, error) {
		return nil, ErrSkipWrite
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), same.Version)

	boom := errors.New("boom")
	_, err = s.Update(ctx, g.ID, func(cur *models.Game) (*models.Game, error) {
		cur.Players[0].Money = 0
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err = s.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, 105, got.Players[0].Money)

	// auction removal is field removal
	_, err = s.Update(ctx, g.ID, func(cur *models.Game) (*models.Game, error) {
		cur.Auction = &models.Auction{Type: models.AuctionOpen, HostPlayerID: cur.Players[0].ID}
		return cur, nil
	})
	require.NoError(t, err)
	_, err = s.Update(ctx, g.ID, func(cur *models.Game) (*models.Game, error) {
		require.NotNil(t, cur.Auction)
		cur.Auction = nil
		return cur, nil
	})
	require.NoError(t, err)
	got, err = s.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Auction)
	assert.Equal(t, int64(3), got.Version)
}

// exerciseConcurrentUpdates checks that no increment is lost.
func exerciseConcurrentUpdates(t *testing.T, s Store, workers int) {
	ctx := context.Background()
	g := newGame()
	require.NoError(t, s.Create(ctx, g))

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, err := s.Update(ctx, g.ID, addMoney(1))
				if errors.Is(err, ErrConcurrencyConflict) {
					continue
				}
				errs <- err
				return
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 100+workers, got.Players[0].Money)
	assert.Equal(t, int64(workers), got.Version)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreConcurrentUpdates(t *testing.T) {
	exerciseConcurrentUpdates(t, NewMemoryStore(), 50)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	g := newGame()
	require.NoError(t, s.Create(ctx, g))
	g.Players[0].Money = 1

	got, err := s.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Players[0].Money)
	got.Players[0].Money = 2

	again, err := s.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, again.Players[0].Money)
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	s := NewMemoryStore()
	g := newGame()
	require.NoError(t, s.Create(context.Background(), g))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Update(ctx, g.ID, addMoney(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisStore(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer rdb.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	s := NewRedisStore(rdb, "modernart_test:"+uuid.NewString()+":", time.Minute)
	exerciseStore(t, s)
	exerciseConcurrentUpdates(t, s, 8)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	s := NewPostgresStore(pool)
	require.NoError(t, s.Migrate(ctx))
	exerciseStore(t, s)
	exerciseConcurrentUpdates(t, s, 8)
}
