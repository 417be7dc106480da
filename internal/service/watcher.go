package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/conquestlab/landgrab/internal/bot"
	"github.com/conquestlab/landgrab/internal/model"
	"github.com/conquestlab/landgrab/internal/repository"
	"github.com/conquestlab/landgrab/pkg/conquest"
)

// BotWatcher watches for turns that land on a bot seat and plays them.
// It subscribes to game events and runs a polling fallback to catch
// turns whose notification was lost. Decisions are computed off the
// submission path and pushed through the same transactional Submit as
// human actions, so a stale decision is simply rejected.
type BotWatcher struct {
	docs    repository.DocStore
	catalog repository.GameCatalog
	actions *ActionService
	engine  *bot.Engine

	mu      sync.Mutex
	pending map[seatRef]bool
	primed  map[string]bool
}

type seatRef struct {
	gameID string
	player string
}

// NewBotWatcher creates a BotWatcher. catalog may be nil; the polling
// fallback then has no game listing and only pub/sub drives the bots.
func NewBotWatcher(docs repository.DocStore, catalog repository.GameCatalog, actions *ActionService, engine *bot.Engine) *BotWatcher {
	return &BotWatcher{
		docs:    docs,
		catalog: catalog,
		actions: actions,
		engine:  engine,
		pending: make(map[seatRef]bool),
		primed:  make(map[string]bool),
	}
}

// Start begins listening for game events and runs the polling fallback.
// Blocks until the context is cancelled.
func (w *BotWatcher) Start(ctx context.Context) {
	go w.listenEvents(ctx)
	w.pollActiveGames(ctx)
}

// listenEvents reacts to published game events: any document change may
// have handed the turn to a bot.
func (w *BotWatcher) listenEvents(ctx context.Context) {
	ch, stop, err := w.docs.SubscribeAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Bot watcher could not subscribe to game events")
		return
	}
	defer stop()

	log.Info().Msg("Bot watcher started, listening for game events")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		}
	}
}

func (w *BotWatcher) handleEvent(ctx context.Context, ev *model.GameEvent) {
	if ev == nil || ev.GameID == "" {
		return
	}
	if ev.Type == model.EventGameFinished {
		w.forgetGame(ev.GameID)
		return
	}
	doc := ev.Doc
	if doc == nil {
		var err error
		doc, err = w.docs.Get(ctx, ev.GameID)
		if err != nil || doc == nil {
			return
		}
	}
	w.maybeAct(ctx, ev.GameID, doc)
}

// pollActiveGames periodically re-checks every active game in case a
// turn notification was dropped.
func (w *BotWatcher) pollActiveGames(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	log.Info().Msg("Bot turn poller started (10s interval)")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Bot turn poller stopped")
			return
		case <-ticker.C:
			w.checkActiveGames(ctx)
		}
	}
}

// checkActiveGames walks the catalog's active games and plays any bot
// turn found waiting.
func (w *BotWatcher) checkActiveGames(ctx context.Context) {
	if w.catalog == nil {
		return
	}
	games, err := w.catalog.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list active games")
		return
	}
	for _, g := range games {
		doc, err := w.docs.Get(ctx, g.ID)
		if err != nil || doc == nil {
			continue
		}
		w.maybeAct(ctx, g.ID, doc)
	}
}

// maybeAct plays the current turn when it belongs to a bot and no
// decision for that seat is already in flight.
func (w *BotWatcher) maybeAct(ctx context.Context, gameID string, doc *model.GameDoc) {
	if doc.Status == conquest.StatusFinished {
		w.forgetGame(gameID)
		return
	}
	cur := doc.CurrentPlayer()
	if cur == nil || !cur.IsBot {
		return
	}

	seat := seatRef{gameID, cur.Name}
	w.mu.Lock()
	if w.pending[seat] {
		w.mu.Unlock()
		return
	}
	w.pending[seat] = true
	w.mu.Unlock()

	snapshot := doc.State.Clone()
	go w.playTurn(ctx, seat, snapshot)
}

// playTurn computes and submits one bot decision. A rejection because
// the board moved on is normal; the next event triggers a fresh one.
func (w *BotWatcher) playTurn(ctx context.Context, seat seatRef, st *conquest.State) {
	defer w.seatDone(seat)

	w.primePlaystyles(ctx, seat.gameID)

	act := w.engine.Decide(seat.gameID, st, seat.player)
	out, _, err := w.actions.Submit(ctx, seat.gameID, seat.player, act)
	if err != nil {
		if errors.Is(err, conquest.ErrNotYourTurn) || errors.Is(err, ErrGameFinished) || errors.Is(err, ErrGameNotFound) {
			log.Debug().Str("gameId", seat.gameID).Str("bot", seat.player).Msg("Bot decision went stale, dropping")
			return
		}
		log.Error().Err(err).Str("gameId", seat.gameID).Str("bot", seat.player).Str("kind", string(act.Kind)).Msg("Bot action failed")
		return
	}
	log.Info().Str("gameId", seat.gameID).Str("bot", seat.player).
		Str("kind", string(act.Kind)).Bool("ok", out.OK).Msg("Bot played its turn")
}

func (w *BotWatcher) seatDone(seat seatRef) {
	w.mu.Lock()
	delete(w.pending, seat)
	w.mu.Unlock()
}

// primePlaystyles pins catalog-recorded playstyles before the engine
// draws random ones. Runs once per game.
func (w *BotWatcher) primePlaystyles(ctx context.Context, gameID string) {
	w.mu.Lock()
	done := w.primed[gameID]
	w.primed[gameID] = true
	w.mu.Unlock()
	if done || w.catalog == nil {
		return
	}

	players, err := w.catalog.ListPlayers(ctx, gameID)
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Failed to list catalog players for playstyles")
		return
	}
	for _, p := range players {
		if p.IsBot && p.Playstyle != "" && w.engine.PlaystyleOf(gameID, p.PlayerName) == "" {
			w.engine.SetPlaystyle(gameID, p.PlayerName, p.Playstyle)
		}
	}
}

// forgetGame drops all watcher and engine state for a finished game.
func (w *BotWatcher) forgetGame(gameID string) {
	w.mu.Lock()
	for seat := range w.pending {
		if seat.gameID == gameID {
			delete(w.pending, seat)
		}
	}
	delete(w.primed, gameID)
	w.mu.Unlock()
	w.engine.Forget(gameID)
}
