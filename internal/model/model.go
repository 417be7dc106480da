package model

import (
	"time"

	"github.com/conquestlab/landgrab/pkg/conquest"
)

// User represents a registered user (guest or OAuth).
type User struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Game is the catalog row for a room. The live game lives in the Redis
// document; the catalog only mirrors what lobby listings need. The room
// code chosen at creation doubles as the primary key.
type Game struct {
	ID          string       `json:"id"`
	CreatorID   string       `json:"creator_id"`
	Status      string       `json:"status"` // waiting, active, finished
	HasPassword bool         `json:"has_password"`
	Winner      string       `json:"winner,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
	Players     []GamePlayer `json:"players,omitempty"`
}

// GamePlayer links a user account to a seat name in one game.
type GamePlayer struct {
	GameID     string    `json:"game_id"`
	UserID     string    `json:"user_id"`
	PlayerName string    `json:"player_name"`
	IsBot      bool      `json:"is_bot"`
	Playstyle  string    `json:"playstyle,omitempty"`
	JoinedAt   time.Time `json:"joined_at"`
}

// ActionRecord is one journaled action: who did what on which turn and
// how it resolved. The journal is an audit trail, not game state.
// StateAfter is the full board snapshot the action produced; it feeds
// replay and training exports and is stripped from API responses.
type ActionRecord struct {
	ID         string          `json:"id"`
	GameID     string          `json:"game_id"`
	PlayerName string          `json:"player_name"`
	TurnNumber int             `json:"turn_number"`
	Action     conquest.Action `json:"action"`
	OK         bool            `json:"ok"`
	Reason     string          `json:"reason,omitempty"`
	StateAfter *conquest.State `json:"state_after,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// GameDoc is the full game document stored under one Redis key and
// replaced atomically on every mutation. The embedded engine state
// flattens into the document; room metadata rides alongside it.
// Password hashes are lowercase hex SHA-256, hashed even when blank so
// comparison never special-cases the empty string.
type GameDoc struct {
	conquest.State

	RoomPasswordHash string            `json:"room_password_hash,omitempty"`
	HasPassword      bool              `json:"has_password"`
	PlayerPasswords  map[string]string `json:"player_passwords,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// Sanitized returns a deep copy of the document with password hashes
// stripped, for broadcasting to clients.
func (d *GameDoc) Sanitized() *GameDoc {
	c := *d
	c.State = *d.State.Clone()
	c.RoomPasswordHash = ""
	c.PlayerPasswords = nil
	return &c
}

// Event types published on a game's channel and forwarded to WebSocket
// subscribers.
const (
	EventGameUpdate    = "game_update"
	EventPlayerJoined  = "player_joined"
	EventGameStarted   = "game_started"
	EventStartingClaim = "starting_claim"
	EventActionResult  = "action_result"
	EventGameFinished  = "game_finished"
)

// GameEvent is the envelope published after every document change. Doc
// carries the full post-change document; subscribers always see whole
// documents, never diffs.
type GameEvent struct {
	Type    string            `json:"type"`
	GameID  string            `json:"game_id"`
	Actor   string            `json:"actor,omitempty"`
	Outcome *conquest.Outcome `json:"outcome,omitempty"`
	Doc     *GameDoc          `json:"doc,omitempty"`
}
