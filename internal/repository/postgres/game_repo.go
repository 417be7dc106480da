package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/conquestlab/landgrab/internal/model"
)

// GameRepo handles the room catalog: games and seat links. The live game
// document is in Redis; these rows exist for lobby listings and history.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Create inserts a new catalog row for a room. The room code is the
// primary key, so creating an already-cataloged room fails.
func (r *GameRepo) Create(ctx context.Context, gameID, creatorID string, hasPassword bool) (*model.Game, error) {
	var g model.Game
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO games (id, creator_id, has_password)
		 VALUES ($1, $2, $3)
		 RETURNING id, creator_id, status, has_password, created_at`,
		gameID, creatorID, hasPassword,
	).Scan(&g.ID, &g.CreatorID, &g.Status, &g.HasPassword, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return &g, nil
}

// FindByID returns a catalog row with its seats, or nil.
func (r *GameRepo) FindByID(ctx context.Context, gameID string) (*model.Game, error) {
	var g model.Game
	var winner sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, creator_id, status, has_password, winner, created_at, started_at, finished_at
		 FROM games WHERE id = $1`, gameID,
	).Scan(&g.ID, &g.CreatorID, &g.Status, &g.HasPassword, &winner, &g.CreatedAt, &g.StartedAt, &g.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	g.Winner = winner.String

	players, err := r.ListPlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}
	g.Players = players
	return &g, nil
}

// ListOpen returns rooms in "waiting" status, newest first.
func (r *GameRepo) ListOpen(ctx context.Context) ([]model.Game, error) {
	return r.list(ctx,
		`SELECT id, creator_id, status, has_password, winner, created_at, started_at, finished_at
		 FROM games WHERE status = 'waiting' ORDER BY created_at DESC LIMIT 50`)
}

// ListActive returns rooms with a running game, oldest first. The bot
// watcher walks this list on startup.
func (r *GameRepo) ListActive(ctx context.Context) ([]model.Game, error) {
	games, err := r.list(ctx,
		`SELECT id, creator_id, status, has_password, winner, created_at, started_at, finished_at
		 FROM games WHERE status = 'active' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	for i := range games {
		players, err := r.ListPlayers(ctx, games[i].ID)
		if err != nil {
			return nil, err
		}
		games[i].Players = players
	}
	return games, nil
}

// ListFinished returns finished rooms, most recent first.
func (r *GameRepo) ListFinished(ctx context.Context) ([]model.Game, error) {
	return r.list(ctx,
		`SELECT id, creator_id, status, has_password, winner, created_at, started_at, finished_at
		 FROM games WHERE status = 'finished' ORDER BY finished_at DESC LIMIT 100`)
}

// ListByUser returns rooms the user created or holds a seat in.
func (r *GameRepo) ListByUser(ctx context.Context, userID string) ([]model.Game, error) {
	return r.list(ctx,
		`SELECT DISTINCT g.id, g.creator_id, g.status, g.has_password, g.winner, g.created_at, g.started_at, g.finished_at
		 FROM games g LEFT JOIN game_players gp ON g.id = gp.game_id AND gp.user_id = $1
		 WHERE gp.user_id = $1 OR g.creator_id = $1
		 ORDER BY g.created_at DESC LIMIT 50`, userID)
}

func (r *GameRepo) list(ctx context.Context, query string, args ...any) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		var winner sql.NullString
		if err := rows.Scan(&g.ID, &g.CreatorID, &g.Status, &g.HasPassword, &winner, &g.CreatedAt, &g.StartedAt, &g.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.Winner = winner.String
		games = append(games, g)
	}
	return games, rows.Err()
}

// AddPlayer links a user account to a seat name in a room.
func (r *GameRepo) AddPlayer(ctx context.Context, gameID, userID, playerName string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_players (game_id, user_id, player_name) VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		gameID, userID, playerName,
	)
	if err != nil {
		return fmt.Errorf("add player: %w", err)
	}
	return nil
}

// AddBot adds a bot seat. Bot seats carry no user account.
func (r *GameRepo) AddBot(ctx context.Context, gameID, playerName, playstyle string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_players (game_id, user_id, player_name, is_bot, playstyle)
		 VALUES ($1, NULL, $2, true, $3)
		 ON CONFLICT DO NOTHING`,
		gameID, playerName, playstyle,
	)
	if err != nil {
		return fmt.Errorf("add bot: %w", err)
	}
	return nil
}

// ListPlayers returns all seats in a room in join order.
func (r *GameRepo) ListPlayers(ctx context.Context, gameID string) ([]model.GamePlayer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT game_id, user_id, player_name, is_bot, playstyle, joined_at
		 FROM game_players WHERE game_id = $1 ORDER BY joined_at`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []model.GamePlayer
	for rows.Next() {
		var p model.GamePlayer
		var userID sql.NullString
		if err := rows.Scan(&p.GameID, &userID, &p.PlayerName, &p.IsBot, &p.Playstyle, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.UserID = userID.String
		players = append(players, p)
	}
	return players, rows.Err()
}

// SetStatus updates a room's status, stamping started_at on activation.
func (r *GameRepo) SetStatus(ctx context.Context, gameID, status string) error {
	var err error
	if status == "active" {
		_, err = r.db.ExecContext(ctx,
			`UPDATE games SET status = $1, started_at = now() WHERE id = $2`, status, gameID)
	} else {
		_, err = r.db.ExecContext(ctx,
			`UPDATE games SET status = $1 WHERE id = $2`, status, gameID)
	}
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// SetFinished marks a room finished with its winner.
func (r *GameRepo) SetFinished(ctx context.Context, gameID, winner string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = 'finished', winner = $1, finished_at = now() WHERE id = $2`,
		winner, gameID,
	)
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	return nil
}

// Delete removes a room and cascades to its seats and journal.
func (r *GameRepo) Delete(ctx context.Context, gameID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}
