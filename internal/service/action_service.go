package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/conquestlab/landgrab/internal/logger"
	"github.com/conquestlab/landgrab/internal/model"
	"github.com/conquestlab/landgrab/internal/repository"
	"github.com/conquestlab/landgrab/pkg/conquest"
)

// ActionService owns the turn-submission path: one optimistic
// transaction per action, resolved against the fresh document inside the
// retry loop, then journaled and announced.
type ActionService struct {
	docs        repository.DocStore
	catalog     repository.GameCatalog
	journal     repository.ActionJournal
	resolver    *conquest.Resolver
	gameMap     *conquest.Map
	broadcaster Broadcaster
}

// NewActionService creates an ActionService. catalog and journal may be
// nil when Postgres is not configured.
func NewActionService(docs repository.DocStore, catalog repository.GameCatalog, journal repository.ActionJournal, resolver *conquest.Resolver, gameMap *conquest.Map, broadcaster Broadcaster) *ActionService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &ActionService{
		docs:        docs,
		catalog:     catalog,
		journal:     journal,
		resolver:    resolver,
		gameMap:     gameMap,
		broadcaster: broadcaster,
	}
}

// Submit resolves one action for the named player. The crossing cost of
// an EXPAND is looked up from the map here; clients never supply costs.
// Structural failures (wrong turn, missing game, malformed action)
// return an error and commit nothing. Everything else commits exactly
// once: rule failures come back as a failed Outcome with the turn
// consumed.
func (s *ActionService) Submit(ctx context.Context, gameID, playerName string, act conquest.Action) (*conquest.Outcome, *model.GameDoc, error) {
	if act.Kind == conquest.KindExpand {
		cost, ok := s.gameMap.CrossingCost(act.Src, act.Tgt)
		if ok {
			act.CrossingCost = cost
		} else if s.gameMap.Region(act.Src) != nil && s.gameMap.Region(act.Tgt) != nil {
			return nil, nil, fmt.Errorf("%w: no crossing between %d and %d", conquest.ErrInvalidAction, act.Src, act.Tgt)
		}
		// Unknown territory ids flow through and resolve as a rule
		// failure against the document.
	}

	var (
		outcome   conquest.Outcome
		actedTurn int
		activated bool
		winner    string
	)
	doc, err := s.docs.Update(ctx, gameID, func(doc *model.GameDoc) (*model.GameDoc, error) {
		if doc == nil {
			return nil, ErrGameNotFound
		}
		if doc.Status == conquest.StatusFinished {
			return nil, ErrGameFinished
		}

		// Reset per attempt: the transaction retries against a fresh
		// document when another writer lands first.
		activated = false
		winner = ""
		actedTurn = doc.TurnNumber

		next, out, err := s.resolver.Apply(&doc.State, playerName, act)
		if err != nil {
			return nil, err
		}
		outcome = out

		updated := *doc
		updated.State = *next
		if updated.Status == conquest.StatusWaiting && out.OK {
			updated.Status = conquest.StatusActive
			activated = true
		}
		if w := updated.SoleOwner(); w != "" {
			updated.Status = conquest.StatusFinished
			winner = w
			updated.AppendLog(stamp(fmt.Sprintf("%s conquered the entire map and wins the game!", w)))
		}
		return &updated, nil
	})
	if err != nil {
		return nil, nil, err
	}

	rlog := logger.ForRequest(ctx)
	s.journalAction(rlog, gameID, playerName, actedTurn, act, outcome, doc.State.Clone())
	s.mirrorStatus(rlog, gameID, activated, winner)

	sanitized := doc.Sanitized()
	ev := &model.GameEvent{
		Type:    model.EventActionResult,
		GameID:  gameID,
		Actor:   playerName,
		Outcome: &outcome,
		Doc:     sanitized,
	}
	if err := s.docs.Publish(ctx, ev); err != nil {
		rlog.Error().Err(err).Str("gameId", gameID).Msg("Failed to publish action result")
	}
	if winner != "" {
		if err := s.docs.Publish(ctx, &model.GameEvent{
			Type:   model.EventGameFinished,
			GameID: gameID,
			Actor:  winner,
			Doc:    sanitized,
		}); err != nil {
			rlog.Error().Err(err).Str("gameId", gameID).Msg("Failed to publish game finish")
		}
	}
	s.broadcaster.BroadcastGameEvent(gameID, model.EventActionResult, map[string]any{
		"player":  playerName,
		"outcome": outcome,
	})
	s.broadcaster.BroadcastGameEvent(gameID, model.EventGameUpdate, sanitized)

	return &outcome, sanitized, nil
}

// journalAction appends the resolved action to the audit trail together
// with the board snapshot it produced. Journaling is fire-and-forget:
// the commit already happened and a lost record only thins the history.
// The caller's logger rides along so the failure log still carries the
// request ID. after must be a private copy; the goroutine outlives the
// request.
func (s *ActionService) journalAction(rlog zerolog.Logger, gameID, playerName string, turnNumber int, act conquest.Action, out conquest.Outcome, after *conquest.State) {
	if s.journal == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rec := &model.ActionRecord{
			GameID:     gameID,
			PlayerName: playerName,
			TurnNumber: turnNumber,
			Action:     act,
			OK:         out.OK,
			Reason:     string(out.Reason),
			StateAfter: after,
		}
		if err := s.journal.Append(ctx, rec); err != nil {
			rlog.Error().Err(err).Str("gameId", gameID).Str("player", playerName).Msg("Failed to journal action")
		}
	}()
}

// mirrorStatus pushes lifecycle transitions into the lobby catalog.
func (s *ActionService) mirrorStatus(rlog zerolog.Logger, gameID string, activated bool, winner string) {
	if s.catalog == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if activated {
		if err := s.catalog.SetStatus(ctx, gameID, "active"); err != nil {
			rlog.Error().Err(err).Str("gameId", gameID).Msg("Failed to mark game active in catalog")
		}
	}
	if winner != "" {
		if err := s.catalog.SetFinished(ctx, gameID, winner); err != nil {
			rlog.Error().Err(err).Str("gameId", gameID).Msg("Failed to mark game finished in catalog")
		}
	}
}

// History returns the journaled actions for a game, oldest first.
func (s *ActionService) History(ctx context.Context, gameID string, limit int) ([]model.ActionRecord, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.ListByGame(ctx, gameID, limit)
}
