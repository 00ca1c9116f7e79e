// internal/store/postgres.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/modernart/internal/models"
)

var errVersionMoved = errors.New("version moved")

// PostgresStore keeps each game as a JSON document next to its version.
// Writes are conditional on the version read in the same transaction.
type PostgresStore struct {
	pool       *pgxpool.Pool
	MaxRetries int
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, MaxRetries: DefaultMaxRetries}
}

// Migrate creates the live game table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	q := `
		CREATE TABLE IF NOT EXISTS live_games (
			id         UUID PRIMARY KEY,
			version    BIGINT NOT NULL,
			status     TEXT NOT NULL,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	_, err := s.pool.Exec(ctx, q)
	return err
}

func (s *PostgresStore) Create(ctx context.Context, g *models.Game) error {
	doc, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game %s: %w", g.ID, err)
	}
	q := `
		INSERT INTO live_games (id, version, status, doc)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`
	tag, err := s.pool.Exec(ctx, q, g.ID, g.Version, string(g.Status), doc)
	if err != nil {
		return fmt.Errorf("insert game %s: %w", g.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGameExists
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	return load(ctx, s.pool, id)
}

func (s *PostgresStore) Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*models.Game, error) {
	for attempt := 0; attempt < s.MaxRetries; attempt++ {
		var out *models.Game
		err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
			cur, err := load(ctx, tx, id)
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
			q := `
				UPDATE live_games
				SET doc = $1, version = $2, status = $3, updated_at = NOW()
				WHERE id = $4 AND version = $5
			`
			tag, err := tx.Exec(ctx, q, doc, next.Version, string(next.Status), id, cur.Version)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return errVersionMoved
			}
			out = next
			return nil
		})
		if errors.Is(err, errVersionMoved) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, ErrConcurrencyConflict
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func load(ctx context.Context, q querier, id uuid.UUID) (*models.Game, error) {
	var (
		doc     []byte
		version int64
	)
	err := q.QueryRow(ctx, `SELECT doc, version FROM live_games WHERE id = $1`, id).Scan(&doc, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select game %s: %w", id, err)
	}
	var g models.Game
	if err := json.Unmarshal(doc, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	g.Version = version
	return &g, nil
}
