package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/conquestlab/landgrab/internal/model"
	"github.com/conquestlab/landgrab/pkg/conquest"
)

// ActionRepo handles the append-only action journal.
type ActionRepo struct {
	db *sql.DB
}

// NewActionRepo creates an ActionRepo.
func NewActionRepo(db *sql.DB) *ActionRepo {
	return &ActionRepo{db: db}
}

// Append journals one resolved action. The state snapshot is optional;
// a nil StateAfter stores SQL NULL.
func (r *ActionRepo) Append(ctx context.Context, rec *model.ActionRecord) error {
	payload, err := json.Marshal(rec.Action)
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}
	var snapshot any
	if rec.StateAfter != nil {
		b, err := json.Marshal(rec.StateAfter)
		if err != nil {
			return fmt.Errorf("encode state snapshot: %w", err)
		}
		snapshot = b
	}
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO actions (game_id, player_name, turn_number, action, ok, reason, state_after)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		rec.GameID, rec.PlayerName, rec.TurnNumber, payload, rec.OK, rec.Reason, snapshot,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("append action: %w", err)
	}
	return nil
}

// ListByGame returns the most recent journaled actions for a game,
// oldest first.
func (r *ActionRepo) ListByGame(ctx context.Context, gameID string, limit int) ([]model.ActionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, player_name, turn_number, action, ok, reason, state_after, created_at
		 FROM (
		     SELECT id, game_id, player_name, turn_number, action, ok, reason, state_after, created_at
		     FROM actions WHERE game_id = $1 ORDER BY created_at DESC LIMIT $2
		 ) recent ORDER BY created_at`,
		gameID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var recs []model.ActionRecord
	for rows.Next() {
		var rec model.ActionRecord
		var payload, snapshot []byte
		if err := rows.Scan(&rec.ID, &rec.GameID, &rec.PlayerName, &rec.TurnNumber, &payload, &rec.OK, &rec.Reason, &snapshot, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		if err := json.Unmarshal(payload, &rec.Action); err != nil {
			return nil, fmt.Errorf("decode action: %w", err)
		}
		if len(snapshot) > 0 {
			rec.StateAfter = new(conquest.State)
			if err := json.Unmarshal(snapshot, rec.StateAfter); err != nil {
				return nil, fmt.Errorf("decode state snapshot: %w", err)
			}
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
