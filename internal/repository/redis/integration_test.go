//go:build integration

package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/conquestlab/landgrab/internal/model"
	"github.com/conquestlab/landgrab/internal/testutil"
	"github.com/conquestlab/landgrab/pkg/conquest"
)

var testRDB *goredis.Client

func setup(t *testing.T) *Client {
	t.Helper()
	if testRDB == nil {
		testRDB = testutil.SetupRedis(t)
	}
	testutil.CleanupRedis(t, testRDB)
	return &Client{rdb: testRDB}
}

func makeDoc() *model.GameDoc {
	st := conquest.NewState()
	st.Players = []conquest.Player{
		{Name: "alice", Money: 500, TroopBuyLimit: 20},
		{Name: "bob", Money: 500, TroopBuyLimit: 20},
	}
	st.Countries[1] = conquest.Territory{Owner: "alice", Troops: 5, Continent: "Europe"}
	st.Countries[3] = conquest.Territory{Owner: "bob", Troops: 3, Continent: "Asia"}
	return &model.GameDoc{
		State:       *st,
		HasPassword: false,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestDocRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "round-trip"

	_, err := c.Update(ctx, gameID, func(doc *model.GameDoc) (*model.GameDoc, error) {
		if doc != nil {
			t.Fatal("expected nil doc for new game")
		}
		return makeDoc(), nil
	})
	if err != nil {
		t.Fatalf("create doc: %v", err)
	}

	got, err := c.Get(ctx, gameID)
	if err != nil {
		t.Fatalf("get doc: %v", err)
	}
	if got == nil {
		t.Fatal("expected doc after create")
	}
	if len(got.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(got.Players))
	}
	if got.Players[0].Name != "alice" || got.Players[0].Money != 500 {
		t.Fatalf("player round-trip failed: %+v", got.Players[0])
	}
	if got.Countries[1].Owner != "alice" || got.Countries[1].Continent != "Europe" {
		t.Fatalf("territory round-trip failed: %+v", got.Countries[1])
	}
	if got.Status != conquest.StatusWaiting {
		t.Fatalf("expected waiting status, got %s", got.Status)
	}
}

func TestDocNotFound(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	got, err := c.Get(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("get missing doc: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing game doc")
	}
}

func TestUpdateMutatesExisting(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "mutate"

	if _, err := c.Update(ctx, gameID, func(*model.GameDoc) (*model.GameDoc, error) {
		return makeDoc(), nil
	}); err != nil {
		t.Fatalf("create doc: %v", err)
	}

	updated, err := c.Update(ctx, gameID, func(doc *model.GameDoc) (*model.GameDoc, error) {
		if doc == nil {
			t.Fatal("expected existing doc")
		}
		doc.Players[0].Money += 100
		doc.Status = conquest.StatusActive
		return doc, nil
	})
	if err != nil {
		t.Fatalf("update doc: %v", err)
	}
	if updated.Players[0].Money != 600 {
		t.Fatalf("expected 600 money in returned doc, got %d", updated.Players[0].Money)
	}

	got, err := c.Get(ctx, gameID)
	if err != nil {
		t.Fatalf("get doc: %v", err)
	}
	if got.Players[0].Money != 600 {
		t.Fatalf("expected 600 money persisted, got %d", got.Players[0].Money)
	}
	if got.Status != conquest.StatusActive {
		t.Fatalf("expected active status, got %s", got.Status)
	}
}

func TestUpdateNilCommitsNothing(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "no-commit"

	if _, err := c.Update(ctx, gameID, func(*model.GameDoc) (*model.GameDoc, error) {
		return makeDoc(), nil
	}); err != nil {
		t.Fatalf("create doc: %v", err)
	}

	// Returning nil from fn leaves the stored document untouched but
	// still hands back the current one.
	got, err := c.Update(ctx, gameID, func(doc *model.GameDoc) (*model.GameDoc, error) {
		doc.Players[0].Money = 9999
		return nil, nil
	})
	if err != nil {
		t.Fatalf("no-op update: %v", err)
	}
	if got == nil {
		t.Fatal("expected current doc from no-op update")
	}

	stored, err := c.Get(ctx, gameID)
	if err != nil {
		t.Fatalf("get doc: %v", err)
	}
	if stored.Players[0].Money != 500 {
		t.Fatalf("expected stored doc unchanged, got money %d", stored.Players[0].Money)
	}
}

func TestUpdateErrorAborts(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "abort"

	if _, err := c.Update(ctx, gameID, func(*model.GameDoc) (*model.GameDoc, error) {
		return makeDoc(), nil
	}); err != nil {
		t.Fatalf("create doc: %v", err)
	}

	wantErr := errors.New("room is full")
	_, err := c.Update(ctx, gameID, func(doc *model.GameDoc) (*model.GameDoc, error) {
		doc.Players[0].Money = 9999
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fn error back, got %v", err)
	}

	stored, _ := c.Get(ctx, gameID)
	if stored.Players[0].Money != 500 {
		t.Fatalf("expected no write after fn error, got money %d", stored.Players[0].Money)
	}
}

func TestUpdateConcurrentContention(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "contention"

	if _, err := c.Update(ctx, gameID, func(*model.GameDoc) (*model.GameDoc, error) {
		return makeDoc(), nil
	}); err != nil {
		t.Fatalf("create doc: %v", err)
	}

	// Writers racing on the same key must each land exactly once; the
	// WATCH retry loop serializes them.
	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Update(ctx, gameID, func(doc *model.GameDoc) (*model.GameDoc, error) {
				doc.Players[0].Money += 10
				return doc, nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent update: %v", err)
		}
	}

	got, err := c.Get(ctx, gameID)
	if err != nil {
		t.Fatalf("get doc: %v", err)
	}
	want := 500 + writers*10
	if got.Players[0].Money != want {
		t.Fatalf("expected %d money after %d increments, got %d", want, writers, got.Players[0].Money)
	}
}

func TestDeleteDoc(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "delete-me"

	if _, err := c.Update(ctx, gameID, func(*model.GameDoc) (*model.GameDoc, error) {
		return makeDoc(), nil
	}); err != nil {
		t.Fatalf("create doc: %v", err)
	}

	if err := c.Delete(ctx, gameID); err != nil {
		t.Fatalf("delete doc: %v", err)
	}

	got, err := c.Get(ctx, gameID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil after delete")
	}
}

func TestPubSubDelivery(t *testing.T) {
	c := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	gameID := "pubsub"

	events, stop, err := c.Subscribe(ctx, gameID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stop()

	doc := makeDoc()
	ev := &model.GameEvent{
		Type:   model.EventActionResult,
		GameID: gameID,
		Actor:  "alice",
		Doc:    doc,
	}
	if err := c.Publish(ctx, ev); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-events:
		if got.Type != model.EventActionResult {
			t.Fatalf("expected %s event, got %s", model.EventActionResult, got.Type)
		}
		if got.GameID != gameID || got.Actor != "alice" {
			t.Fatalf("event envelope mangled: %+v", got)
		}
		if got.Doc == nil || len(got.Doc.Players) != 2 {
			t.Fatal("expected full doc in event")
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribeIsScopedToGame(t *testing.T) {
	c := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, stop, err := c.Subscribe(ctx, "game-a")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stop()

	// An event for another game must not arrive on this channel.
	if err := c.Publish(ctx, &model.GameEvent{Type: model.EventGameUpdate, GameID: "game-b"}); err != nil {
		t.Fatalf("publish other game: %v", err)
	}
	if err := c.Publish(ctx, &model.GameEvent{Type: model.EventGameUpdate, GameID: "game-a"}); err != nil {
		t.Fatalf("publish own game: %v", err)
	}

	select {
	case got := <-events:
		if got.GameID != "game-a" {
			t.Fatalf("expected only game-a events, got one for %s", got.GameID)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribeAllSeesEveryGame(t *testing.T) {
	c := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, stop, err := c.SubscribeAll(ctx)
	if err != nil {
		t.Fatalf("subscribe all: %v", err)
	}
	defer stop()

	c.Publish(ctx, &model.GameEvent{Type: model.EventGameUpdate, GameID: "game-one"})
	c.Publish(ctx, &model.GameEvent{Type: model.EventGameUpdate, GameID: "game-two"})

	seen := map[string]bool{}
	for len(seen) < 2 {
		select {
		case got := <-events:
			seen[got.GameID] = true
		case <-ctx.Done():
			t.Fatalf("timed out; saw %v", seen)
		}
	}
	if !seen["game-one"] || !seen["game-two"] {
		t.Fatalf("expected events from both games, saw %v", seen)
	}
}
