// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/modernart/internal/models"
)

// ActionGameFinished is the action type whose payload status "finished"
// closes a game in the archive.
const ActionGameFinished = "action_round_end"

// RecordGameResults persists the final outcome of a game: one row per
// player with their money and whether they won, plus the final state.
func (a *Archive) RecordGameResults(ctx context.Context, g *models.Game, winners []uuid.UUID) error {
	snapshot, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal final game state: %w", err)
	}
	err = pgx.BeginTxFunc(ctx, a.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, status, start_time, end_time, final_game_state)
			VALUES ($1, 'completed', $2, NOW(), $3)
			ON CONFLICT (id) DO UPDATE
			SET status = 'completed', end_time = NOW(), final_game_state = $3
		`
		if _, e := tx.Exec(ctx, upsertGame, g.ID, g.CreatedAt, snapshot); e != nil {
			return e
		}

		for _, pl := range g.Players {
			didWin := false
			for _, w := range winners {
				if w == pl.ID {
					didWin = true
					break
				}
			}
			q := `
				INSERT INTO game_results (game_id, player_id, money, did_win)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (game_id, player_id)
				DO UPDATE SET money = $3, did_win = $4
			`
			if _, e2 := tx.Exec(ctx, q, g.ID, pl.ID, pl.Money, didWin); e2 != nil {
				return e2
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert game or results: %w", err)
	}
	return nil
}

// InsertActions writes a batch of action records in one transaction. The
// game row is created on first sight; a finishing action completes it.
// Records already archived are skipped, so redelivery is harmless.
func (a *Archive) InsertActions(ctx context.Context, records []models.ActionRecord) error {
	return pgx.BeginTxFunc(ctx, a.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %s/%d: %w", rec.GameID, rec.ActionIndex, err)
			}
		}
		return nil
	})
}

func insertActionTx(ctx context.Context, tx pgx.Tx, rec models.ActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (id, status, start_time)
		VALUES ($1, 'in_progress', NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	actionInsertQ := `
		INSERT INTO game_actions (
			game_id, action_index, actor_user_id, action_type, action_payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	var actor *uuid.UUID
	if rec.ActorUserID != uuid.Nil {
		actor = &rec.ActorUserID
	}
	_, err = tx.Exec(ctx, actionInsertQ,
		rec.GameID, rec.ActionIndex, actor, rec.ActionType, payload, time.UnixMilli(rec.Timestamp),
	)
	if err != nil {
		return err
	}

	if IsFinishing(rec) {
		finalizeQ := `
			UPDATE games
			SET status = 'completed', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		if _, err := tx.Exec(ctx, finalizeQ, rec.GameID); err != nil {
			return err
		}
	}
	return nil
}

// IsFinishing reports whether rec is the action that ended its game.
func IsFinishing(rec models.ActionRecord) bool {
	if rec.ActionType != ActionGameFinished {
		return false
	}
	status, _ := rec.ActionPayload["status"].(string)
	return status == string(models.StatusFinished)
}

// MarkGameAbandoned marks a game as 'abandoned' if it is still in progress.
// It reports whether a row changed.
func (a *Archive) MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	var changed bool
	err := pgx.BeginTxFunc(ctx, a.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE games
			SET status = 'abandoned', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		tag, e := tx.Exec(ctx, q, gameID)
		changed = tag.RowsAffected() > 0
		return e
	})
	return changed, err
}
