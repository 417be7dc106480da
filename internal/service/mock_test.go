package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/conquestlab/landgrab/internal/model"
)

// mockDocStore is an in-memory DocStore. Documents round-trip through
// JSON on every access, the same way the Redis adapter serializes them,
// so anything that does not survive the codec fails here too.
type mockDocStore struct {
	mu     sync.Mutex
	docs   map[string][]byte
	events []*model.GameEvent
	subs   []chan *model.GameEvent
}

func newMockDocStore() *mockDocStore {
	return &mockDocStore{docs: make(map[string][]byte)}
}

func (m *mockDocStore) decode(gameID string) (*model.GameDoc, error) {
	data, ok := m.docs[gameID]
	if !ok {
		return nil, nil
	}
	var doc model.GameDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (m *mockDocStore) Get(_ context.Context, gameID string) (*model.GameDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decode(gameID)
}

func (m *mockDocStore) Update(_ context.Context, gameID string, fn func(*model.GameDoc) (*model.GameDoc, error)) (*model.GameDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.decode(gameID)
	if err != nil {
		return nil, err
	}
	next, err := fn(doc)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return doc, nil
	}
	data, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	m.docs[gameID] = data
	return next, nil
}

func (m *mockDocStore) Delete(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, gameID)
	return nil
}

func (m *mockDocStore) Publish(_ context.Context, event *model.GameEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	for _, sub := range m.subs {
		select {
		case sub <- event:
		default:
		}
	}
	return nil
}

func (m *mockDocStore) Subscribe(ctx context.Context, gameID string) (<-chan *model.GameEvent, func(), error) {
	return m.SubscribeAll(ctx)
}

func (m *mockDocStore) SubscribeAll(_ context.Context) (<-chan *model.GameEvent, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *model.GameEvent, 64)
	m.subs = append(m.subs, ch)
	return ch, func() {}, nil
}

// eventsOfType returns the published events of one type, in order.
func (m *mockDocStore) eventsOfType(eventType string) []*model.GameEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.GameEvent
	for _, ev := range m.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// mockCatalog is an in-memory GameCatalog.
type mockCatalog struct {
	mu      sync.Mutex
	games   map[string]*model.Game
	players map[string][]model.GamePlayer
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		games:   make(map[string]*model.Game),
		players: make(map[string][]model.GamePlayer),
	}
}

func (m *mockCatalog) Create(_ context.Context, gameID, creatorID string, hasPassword bool) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := &model.Game{
		ID:          gameID,
		CreatorID:   creatorID,
		Status:      "waiting",
		HasPassword: hasPassword,
		CreatedAt:   time.Now(),
	}
	m.games[gameID] = g
	cp := *g
	return &cp, nil
}

func (m *mockCatalog) FindByID(_ context.Context, gameID string) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Players = append([]model.GamePlayer(nil), m.players[gameID]...)
	return &cp, nil
}

func (m *mockCatalog) listByStatus(status string) []model.Game {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Game
	for _, g := range m.games {
		if g.Status == status {
			out = append(out, *g)
		}
	}
	return out
}

func (m *mockCatalog) ListOpen(_ context.Context) ([]model.Game, error) {
	return m.listByStatus("waiting"), nil
}

func (m *mockCatalog) ListActive(_ context.Context) ([]model.Game, error) {
	return m.listByStatus("active"), nil
}

func (m *mockCatalog) ListFinished(_ context.Context) ([]model.Game, error) {
	return m.listByStatus("finished"), nil
}

func (m *mockCatalog) ListByUser(_ context.Context, userID string) ([]model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Game
	for gameID, players := range m.players {
		for _, p := range players {
			if p.UserID == userID {
				if g, ok := m.games[gameID]; ok {
					out = append(out, *g)
				}
				break
			}
		}
	}
	return out, nil
}

func (m *mockCatalog) AddPlayer(_ context.Context, gameID, userID, playerName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[gameID] = append(m.players[gameID], model.GamePlayer{
		GameID:     gameID,
		UserID:     userID,
		PlayerName: playerName,
		JoinedAt:   time.Now(),
	})
	return nil
}

func (m *mockCatalog) AddBot(_ context.Context, gameID, playerName, playstyle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[gameID] = append(m.players[gameID], model.GamePlayer{
		GameID:     gameID,
		PlayerName: playerName,
		IsBot:      true,
		Playstyle:  playstyle,
		JoinedAt:   time.Now(),
	})
	return nil
}

func (m *mockCatalog) ListPlayers(_ context.Context, gameID string) ([]model.GamePlayer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.GamePlayer(nil), m.players[gameID]...), nil
}

func (m *mockCatalog) SetStatus(_ context.Context, gameID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("no such game %s", gameID)
	}
	g.Status = status
	return nil
}

func (m *mockCatalog) SetFinished(_ context.Context, gameID, winner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("no such game %s", gameID)
	}
	g.Status = "finished"
	g.Winner = winner
	now := time.Now()
	g.FinishedAt = &now
	return nil
}

func (m *mockCatalog) Delete(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, gameID)
	delete(m.players, gameID)
	return nil
}

func (m *mockCatalog) statusOf(gameID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.games[gameID]; ok {
		return g.Status
	}
	return ""
}

func (m *mockCatalog) winnerOf(gameID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.games[gameID]; ok {
		return g.Winner
	}
	return ""
}

// mockJournal is an in-memory ActionJournal. Appends signal a channel so
// tests can wait out the fire-and-forget journaling goroutine.
type mockJournal struct {
	mu       sync.Mutex
	records  []model.ActionRecord
	appended chan struct{}
}

func newMockJournal() *mockJournal {
	return &mockJournal{appended: make(chan struct{}, 64)}
}

func (m *mockJournal) Append(_ context.Context, rec *model.ActionRecord) error {
	m.mu.Lock()
	m.records = append(m.records, *rec)
	m.mu.Unlock()
	m.appended <- struct{}{}
	return nil
}

func (m *mockJournal) ListByGame(_ context.Context, gameID string, limit int) ([]model.ActionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActionRecord
	for _, r := range m.records {
		if r.GameID == gameID {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// waitAppend blocks until one journal append lands.
func (m *mockJournal) waitAppend(t *testing.T) {
	t.Helper()
	select {
	case <-m.appended:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a journal append")
	}
}

func (m *mockJournal) recorded() []model.ActionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ActionRecord(nil), m.records...)
}
