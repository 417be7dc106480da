package repository

import (
	"context"

	"github.com/conquestlab/landgrab/internal/model"
)

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// GameCatalog defines the Postgres room catalog: lobby listings and the
// user-to-seat links. The live game document never lives here.
type GameCatalog interface {
	Create(ctx context.Context, gameID, creatorID string, hasPassword bool) (*model.Game, error)
	FindByID(ctx context.Context, gameID string) (*model.Game, error)
	ListOpen(ctx context.Context) ([]model.Game, error)
	ListByUser(ctx context.Context, userID string) ([]model.Game, error)
	ListActive(ctx context.Context) ([]model.Game, error)
	ListFinished(ctx context.Context) ([]model.Game, error)
	AddPlayer(ctx context.Context, gameID, userID, playerName string) error
	AddBot(ctx context.Context, gameID, playerName, playstyle string) error
	ListPlayers(ctx context.Context, gameID string) ([]model.GamePlayer, error)
	SetStatus(ctx context.Context, gameID, status string) error
	SetFinished(ctx context.Context, gameID, winner string) error
	Delete(ctx context.Context, gameID string) error
}

// ActionJournal defines the append-only action audit trail.
type ActionJournal interface {
	Append(ctx context.Context, rec *model.ActionRecord) error
	ListByGame(ctx context.Context, gameID string, limit int) ([]model.ActionRecord, error)
}

// DocStore defines the transactional game document store (Redis). Update
// runs the mutation function against the current document under
// optimistic concurrency: when the key changes mid-cycle the whole
// read-mutate-write cycle retries against the fresh document.
type DocStore interface {
	Get(ctx context.Context, gameID string) (*model.GameDoc, error)
	Update(ctx context.Context, gameID string, fn func(*model.GameDoc) (*model.GameDoc, error)) (*model.GameDoc, error)
	Delete(ctx context.Context, gameID string) error
	Publish(ctx context.Context, event *model.GameEvent) error
	Subscribe(ctx context.Context, gameID string) (<-chan *model.GameEvent, func(), error)
	SubscribeAll(ctx context.Context) (<-chan *model.GameEvent, func(), error)
}
