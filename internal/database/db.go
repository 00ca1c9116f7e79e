// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool on connStr and pings it.
func Connect(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

// Archive writes finished games and the action log to Postgres.
type Archive struct {
	pool *pgxpool.Pool
}

func NewArchive(pool *pgxpool.Pool) *Archive {
	return &Archive{pool: pool}
}

// Migrate creates the archive tables if they do not exist.
func (a *Archive) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id               UUID PRIMARY KEY,
			status           TEXT NOT NULL,
			start_time       TIMESTAMPTZ,
			end_time         TIMESTAMPTZ,
			final_game_state JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS game_results (
			game_id   UUID NOT NULL REFERENCES games (id),
			player_id UUID NOT NULL,
			money     INT NOT NULL,
			did_win   BOOLEAN NOT NULL,
			PRIMARY KEY (game_id, player_id)
		)`,
		`CREATE TABLE IF NOT EXISTS game_actions (
			game_id        UUID NOT NULL REFERENCES games (id),
			action_index   BIGINT NOT NULL,
			actor_user_id  UUID,
			action_type    TEXT NOT NULL,
			action_payload JSONB,
			created_at     TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (game_id, action_index)
		)`,
	}
	for _, q := range stmts {
		if _, err := a.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
