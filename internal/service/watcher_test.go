package service

import (
	"context"
	"testing"
	"time"

	"github.com/conquestlab/landgrab/internal/bot"
	"github.com/conquestlab/landgrab/internal/model"
	"github.com/conquestlab/landgrab/pkg/conquest"
)

type watcherEnv struct {
	docs    *mockDocStore
	catalog *mockCatalog
	journal *mockJournal
	games   *GameService
	actions *ActionService
	engine  *bot.Engine
	watcher *BotWatcher
}

func newWatcherEnv() *watcherEnv {
	docs := newMockDocStore()
	catalog := newMockCatalog()
	journal := newMockJournal()
	resolver := conquest.NewSeededResolver(conquest.LocalRules(), 11)
	m := conquest.StandardMap()
	actions := NewActionService(docs, catalog, journal, resolver, m, nil)
	engine := bot.NewEngine(m)
	return &watcherEnv{
		docs:    docs,
		catalog: catalog,
		journal: journal,
		games:   NewGameService(docs, catalog, resolver, m, nil),
		actions: actions,
		engine:  engine,
		watcher: NewBotWatcher(docs, catalog, actions, engine),
	}
}

// seedBotGame builds a room with human alice and two seated bots, each
// holding a starting territory.
func (env *watcherEnv) seedBotGame(t *testing.T, gameID string) {
	t.Helper()
	ctx := context.Background()
	if _, _, err := env.games.CreateOrJoin(ctx, gameID, "u1", "alice", "a", "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.games.SetupCountries(ctx, gameID); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, _, err := env.games.AddBot(ctx, gameID, "", "defensive"); err != nil {
		t.Fatalf("add bot 1: %v", err)
	}
	if _, _, err := env.games.AddBot(ctx, gameID, "", "economic"); err != nil {
		t.Fatalf("add bot 2: %v", err)
	}
	if _, _, err := env.games.ClaimStartingTerritory(ctx, gameID, "alice", 1); err != nil {
		t.Fatalf("claim: %v", err)
	}
}

// waitFor polls until cond holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestWatcherPlaysBotTurn(t *testing.T) {
	env := newWatcherEnv()
	env.seedBotGame(t, "g1")
	ctx := context.Background()

	// Alice moves, handing the turn to Bot 1.
	if _, _, err := env.actions.Submit(ctx, "g1", "alice", conquest.Nothing()); err != nil {
		t.Fatalf("alice submit: %v", err)
	}

	doc, _ := env.docs.Get(ctx, "g1")
	env.watcher.maybeAct(ctx, "g1", doc)

	waitFor(t, 2*time.Second, "the bot to play", func() bool {
		d, _ := env.docs.Get(ctx, "g1")
		return d.TurnNumber >= 3
	})

	d, _ := env.docs.Get(ctx, "g1")
	if d.TurnIdx != 2 {
		t.Errorf("expected the cursor on Bot 2 after Bot 1 played, got %d", d.TurnIdx)
	}
	if got := env.engine.PlaystyleOf("g1", "Bot 1"); got != "defensive" {
		t.Errorf("expected the catalog playstyle pinned before deciding, got %q", got)
	}
}

func TestWatcherIgnoresHumanTurn(t *testing.T) {
	env := newWatcherEnv()
	env.seedBotGame(t, "g1")
	ctx := context.Background()

	doc, _ := env.docs.Get(ctx, "g1")
	env.watcher.maybeAct(ctx, "g1", doc)

	time.Sleep(100 * time.Millisecond)
	d, _ := env.docs.Get(ctx, "g1")
	if d.TurnNumber != 1 {
		t.Errorf("watcher must not play a human turn, got turn %d", d.TurnNumber)
	}
	env.watcher.mu.Lock()
	n := len(env.watcher.pending)
	env.watcher.mu.Unlock()
	if n != 0 {
		t.Errorf("expected no pending decisions, got %d", n)
	}
}

func TestWatcherOneDecisionPerSeat(t *testing.T) {
	env := newWatcherEnv()
	env.seedBotGame(t, "g1")
	ctx := context.Background()

	if _, _, err := env.actions.Submit(ctx, "g1", "alice", conquest.Nothing()); err != nil {
		t.Fatalf("alice submit: %v", err)
	}

	// A decision for Bot 1 is already in flight.
	env.watcher.mu.Lock()
	env.watcher.pending[seatRef{"g1", "Bot 1"}] = true
	env.watcher.mu.Unlock()

	doc, _ := env.docs.Get(ctx, "g1")
	env.watcher.maybeAct(ctx, "g1", doc)

	time.Sleep(100 * time.Millisecond)
	d, _ := env.docs.Get(ctx, "g1")
	if d.TurnNumber != 2 {
		t.Errorf("expected the duplicate decision suppressed, got turn %d", d.TurnNumber)
	}
}

func TestWatcherForgetsFinishedGames(t *testing.T) {
	env := newWatcherEnv()
	env.engine.SetPlaystyle("g1", "Bot 1", "aggressive")

	env.watcher.handleEvent(context.Background(), &model.GameEvent{
		Type:   model.EventGameFinished,
		GameID: "g1",
	})

	if got := env.engine.PlaystyleOf("g1", "Bot 1"); got != "" {
		t.Errorf("expected the seat forgotten after the game finished, got %q", got)
	}
}

func TestWatcherChainsBotTurns(t *testing.T) {
	env := newWatcherEnv()
	env.seedBotGame(t, "g1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.watcher.Start(ctx)

	// Give the event listener a beat to subscribe.
	time.Sleep(50 * time.Millisecond)

	// Alice keeps ending her turns; the watcher must play both bots in
	// between off the published events.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		d, _ := env.docs.Get(ctx, "g1")
		if d.TurnNumber >= 8 {
			break
		}
		if cur := d.CurrentPlayer(); cur != nil && cur.Name == "alice" {
			env.actions.Submit(ctx, "g1", "alice", conquest.Nothing())
		}
		time.Sleep(10 * time.Millisecond)
	}

	d, _ := env.docs.Get(context.Background(), "g1")
	if d.TurnNumber < 8 {
		t.Fatalf("game stalled at turn %d; the watcher is not chaining bot turns", d.TurnNumber)
	}

	waitFor(t, 2*time.Second, "bot turns in the journal", func() bool {
		botTurns := 0
		for _, rec := range env.journal.recorded() {
			if rec.PlayerName != "alice" {
				botTurns++
			}
		}
		return botTurns >= 4
	})
}
