package bot

import (
	"testing"

	"github.com/conquestlab/landgrab/pkg/conquest"
)

func TestEngineDrawsAndKeepsPlaystyle(t *testing.T) {
	SeedBotRng(3)
	defer ResetBotRng()

	e := NewEngine(conquest.StandardMap())
	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 5)

	e.Decide("g1", st, "alice")
	drawn := e.PlaystyleOf("g1", "alice")
	if drawn == "" {
		t.Fatal("expected a playstyle drawn on first decision")
	}
	known := false
	for _, name := range Playstyles() {
		if name == drawn {
			known = true
		}
	}
	if !known {
		t.Errorf("drew unknown playstyle %q", drawn)
	}

	for i := 0; i < 5; i++ {
		e.Decide("g1", st, "alice")
	}
	if got := e.PlaystyleOf("g1", "alice"); got != drawn {
		t.Errorf("playstyle changed mid-game: %q -> %q", drawn, got)
	}
}

func TestEngineSetPlaystylePins(t *testing.T) {
	e := NewEngine(conquest.StandardMap())
	e.SetPlaystyle("g1", "alice", "aggressive")
	if got := e.PlaystyleOf("g1", "alice"); got != "aggressive" {
		t.Fatalf("expected pinned aggressive, got %q", got)
	}

	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 10)
	act := e.Decide("g1", st, "alice")
	if act.Kind != conquest.KindExpand || act.Src != 4 || act.Tgt != 2 {
		t.Errorf("expected the aggressive opening 4->2, got %s %d->%d", act.Kind, act.Src, act.Tgt)
	}

	e.SetPlaystyle("g1", "alice", "")
	if got := e.PlaystyleOf("g1", "alice"); got != "" {
		t.Errorf("expected cleared pin, got %q", got)
	}
}

func TestEngineForgetDropsGameSeats(t *testing.T) {
	e := NewEngine(conquest.StandardMap())
	e.SetPlaystyle("g1", "alice", "defensive")
	e.SetPlaystyle("g1", "bob", "economic")
	e.SetPlaystyle("g2", "alice", "aggressive")

	e.Forget("g1")
	if got := e.PlaystyleOf("g1", "alice"); got != "" {
		t.Errorf("expected g1 alice forgotten, got %q", got)
	}
	if got := e.PlaystyleOf("g1", "bob"); got != "" {
		t.Errorf("expected g1 bob forgotten, got %q", got)
	}
	if got := e.PlaystyleOf("g2", "alice"); got != "aggressive" {
		t.Errorf("other games must keep their seats, got %q", got)
	}
}

func TestEngineUnknownPlayerKeepsPeace(t *testing.T) {
	e := NewEngine(conquest.StandardMap())
	st := boardState("alice", "bob")

	act := e.Decide("g1", st, "mallory")
	if act.Kind != conquest.KindPeace {
		t.Errorf("expected PEACE for a player not in the game, got %s", act.Kind)
	}
}

func TestEngineNoTerritoryBasics(t *testing.T) {
	e := NewEngine(conquest.StandardMap())
	st := boardState("alice", "bob")

	act := e.Decide("g1", st, "alice")
	if act.Kind != conquest.KindGather {
		t.Fatalf("expected a landless bot with money to GATHER, got %s", act.Kind)
	}
	if act.Buy < 1 {
		t.Errorf("expected a positive buy, got %d", act.Buy)
	}

	st.Players[0].Money = conquest.TroopCost - 1
	act = e.Decide("g1", st, "alice")
	if act.Kind != conquest.KindPeace {
		t.Errorf("expected a landless broke bot to PEACE, got %s", act.Kind)
	}
}

// explodingStrategy stands in for a strategy with a bug.
type explodingStrategy struct{}

func (explodingStrategy) Name() string { return "exploding" }

func (explodingStrategy) Decide(*conquest.State, string, *conquest.Map) conquest.Action {
	panic("boom")
}

func TestEngineRecoversFromStrategyPanic(t *testing.T) {
	e := NewEngine(conquest.StandardMap())
	e.seats[seatKey{"g1", "alice"}] = explodingStrategy{}

	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 5)

	act := e.Decide("g1", st, "alice")
	if act.Kind != conquest.KindPeace {
		t.Errorf("expected PEACE after a strategy panic, got %s", act.Kind)
	}
}
