package bot

import (
	"testing"

	"github.com/conquestlab/landgrab/pkg/conquest"
)

// boardState builds an active game on the standard map with the named
// players seated in order, all starting territories unowned.
func boardState(names ...string) *conquest.State {
	st := conquest.NewState()
	st.Status = conquest.StatusActive
	st.Countries = conquest.StandardMap().InitialCountries()
	for _, name := range names {
		st.Players = append(st.Players, conquest.Player{
			Name:          name,
			Money:         conquest.StartingMoney,
			TroopBuyLimit: conquest.GatherCapMax,
		})
	}
	return st
}

func setOwner(st *conquest.State, id int, owner string, troops int) {
	t := st.Countries[id]
	t.Owner = owner
	t.Troops = troops
	st.Countries[id] = t
}

func TestAggressivePrefersCheapestTarget(t *testing.T) {
	st := boardState("alice", "bob")
	// Germania (4) borders Gaul (2, land), Scandinavia (5, sea),
	// Balkans (6, land), and Steppe (9, land).
	setOwner(st, 4, "alice", 10)
	m := conquest.StandardMap()

	act := AggressiveStrategy{}.Decide(st, "alice", m)
	if act.Kind != conquest.KindExpand {
		t.Fatalf("expected EXPAND, got %s", act.Kind)
	}
	if act.Src != 4 || act.Tgt != 2 {
		t.Errorf("expected expand 4->2 (cheapest, lowest id), got %d->%d", act.Src, act.Tgt)
	}
	if act.Send != 8 {
		t.Errorf("expected 80%% of 10 troops = 8, got %d", act.Send)
	}
	if act.CrossingCost != 0 {
		t.Errorf("expected land border cost 0, got %d", act.CrossingCost)
	}
}

func TestAggressiveUsesStrongestSource(t *testing.T) {
	st := boardState("alice", "bob")
	setOwner(st, 1, "alice", 2)
	setOwner(st, 4, "alice", 10)
	m := conquest.StandardMap()

	act := AggressiveStrategy{}.Decide(st, "alice", m)
	if act.Kind != conquest.KindExpand {
		t.Fatalf("expected EXPAND, got %s", act.Kind)
	}
	if act.Src != 4 {
		t.Errorf("expected the 10-troop stack as source, got territory %d", act.Src)
	}
}

func TestAggressiveGathersWhenExpansionUnaffordable(t *testing.T) {
	SeedBotRng(1)
	defer ResetBotRng()

	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 10)
	st.Players[0].Money = 150

	act := AggressiveStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindGather {
		t.Fatalf("expected GATHER with $150, got %s", act.Kind)
	}
	if act.Buy < 1 || act.Buy > 3 {
		t.Errorf("buy should be capped at 3 affordable troops, got %d", act.Buy)
	}
}

func TestAggressivePeaceWhenBroke(t *testing.T) {
	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 10)
	st.Players[0].Money = 30

	act := AggressiveStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindPeace {
		t.Errorf("expected PEACE with $30, got %s", act.Kind)
	}
}

func TestDefensiveGathersUnderThreat(t *testing.T) {
	SeedBotRng(2)
	defer ResetBotRng()

	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 3)
	setOwner(st, 2, "bob", 5)

	act := DefensiveStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindGather {
		t.Errorf("expected GATHER while outgunned next door, got %s", act.Kind)
	}
}

func TestDefensiveExpandsFromStrength(t *testing.T) {
	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 6)
	st.Players[0].Money = 700

	act := DefensiveStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindExpand {
		t.Fatalf("expected EXPAND from a 6-troop stack with reserve, got %s", act.Kind)
	}
	if act.Src != 4 || act.Tgt != 2 {
		t.Errorf("expected expand 4->2, got %d->%d", act.Src, act.Tgt)
	}
	if act.Send != 2 {
		t.Errorf("defensive probes send 2 troops, got %d", act.Send)
	}
}

func TestDefensiveKeepsMoneyReserve(t *testing.T) {
	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 6)
	// $500 < the $200 claim plus the $400 reserve.
	act := DefensiveStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindPeace {
		t.Errorf("expected PEACE without the reserve, got %s", act.Kind)
	}
}

func TestDefensiveRequiresTripleAdvantage(t *testing.T) {
	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 6)
	for _, id := range []int{2, 5, 6, 9} {
		setOwner(st, id, "bob", 2)
	}
	st.Players[0].Money = 700

	// 6 troops is not strictly more than 3x2 defenders.
	act := DefensiveStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind == conquest.KindExpand {
		t.Fatalf("expected no attack without a 3x advantage, got expand %d->%d", act.Src, act.Tgt)
	}

	setOwner(st, 4, "alice", 7)
	act = DefensiveStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindExpand {
		t.Errorf("expected attack at 7 vs 2, got %s", act.Kind)
	}
}

func TestExpansionistPrefersContinentCompletion(t *testing.T) {
	st := boardState("alice", "bob")
	for _, id := range []int{1, 2, 3, 4, 5} {
		setOwner(st, id, "alice", 3)
	}
	// Balkans (6) completes Europe; Steppe (9) is just another unowned
	// territory.
	act := ExpansionistStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindExpand {
		t.Fatalf("expected EXPAND, got %s", act.Kind)
	}
	if act.Tgt != 6 {
		t.Errorf("expected the continent-completing target 6, got %d", act.Tgt)
	}
	if act.Send != 2 {
		t.Errorf("expected send capped at min(troops-1, 3) = 2, got %d", act.Send)
	}
}

func TestExpansionistStopsGatheringWhenRich(t *testing.T) {
	st := boardState("alice", "bob")
	// A single-troop island stack cannot source an expansion.
	setOwner(st, 12, "alice", 1)

	st.Players[0].Money = 500
	act := ExpansionistStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindGather {
		t.Errorf("expected GATHER at $500, got %s", act.Kind)
	}

	st.Players[0].Money = 900
	act = ExpansionistStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindPeace {
		t.Errorf("expected PEACE at $900 (past the gather ceiling), got %s", act.Kind)
	}
}

func TestEconomicHoardsThenExpandsCheap(t *testing.T) {
	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 5)

	st.Players[0].Money = 1400
	act := EconomicStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindPeace {
		t.Errorf("expected PEACE below the $1500 target, got %s", act.Kind)
	}

	st.Players[0].Money = 2000
	act = EconomicStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindExpand {
		t.Fatalf("expected EXPAND once rich, got %s", act.Kind)
	}
	if act.Tgt != 2 {
		t.Errorf("expected the cheap unowned neighbor 2, got %d", act.Tgt)
	}
	if act.Send != 2 {
		t.Errorf("expected conservative send 2, got %d", act.Send)
	}
}

func TestEconomicNeverAttacksOwnedLand(t *testing.T) {
	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 5)
	for _, id := range []int{2, 5, 6, 9} {
		setOwner(st, id, "bob", 1)
	}
	st.Players[0].Money = 2000

	act := EconomicStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind == conquest.KindExpand {
		t.Errorf("economic bots only claim unowned land, got expand %d->%d", act.Src, act.Tgt)
	}
}

func TestEconomicGathersWhenGarrisonsThin(t *testing.T) {
	SeedBotRng(3)
	defer ResetBotRng()

	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 1)
	st.Players[0].Money = 400

	act := EconomicStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindGather {
		t.Errorf("expected GATHER with thin garrisons, got %s", act.Kind)
	}
}

func TestOpportunistStrikesVulnerablePlayers(t *testing.T) {
	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 3)
	setOwner(st, 2, "bob", 4)
	st.Players[1].Vulnerable = true

	act := OpportunistStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindExpand {
		t.Fatalf("expected EXPAND against a vulnerable player, got %s", act.Kind)
	}
	if act.Tgt != 2 {
		t.Errorf("expected the vulnerable player's territory 2, got %d", act.Tgt)
	}
	if act.Send != 2 {
		t.Errorf("expected everything available (troops-1), got %d", act.Send)
	}
}

func TestOpportunistPicksOffWeakGarrisons(t *testing.T) {
	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 5)
	setOwner(st, 2, "bob", 1)

	act := OpportunistStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindExpand {
		t.Fatalf("expected EXPAND against a weak garrison, got %s", act.Kind)
	}
	if act.Src != 4 || act.Tgt != 2 {
		t.Errorf("expected expand 4->2, got %d->%d", act.Src, act.Tgt)
	}
	if act.Send != 3 {
		t.Errorf("expected min(troops-1, defenders+2) = 3, got %d", act.Send)
	}
}

func TestOpportunistGathersWithoutPrey(t *testing.T) {
	SeedBotRng(4)
	defer ResetBotRng()

	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 3)
	setOwner(st, 2, "bob", 5)

	act := OpportunistStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindGather {
		t.Errorf("expected GATHER with no weak targets, got %s", act.Kind)
	}
}

func TestBalancedTargetRanking(t *testing.T) {
	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 6)
	setOwner(st, 2, "bob", 2)
	// Unowned beats owned, then land borders beat sea crossings, then
	// the lower ID wins: 6 over 9 over 5 over bob's 2.
	act := BalancedStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindExpand {
		t.Fatalf("expected EXPAND, got %s", act.Kind)
	}
	if act.Tgt != 6 {
		t.Errorf("expected target 6, got %d", act.Tgt)
	}
	if act.Send != 2 {
		t.Errorf("expected the fixed 2-troop probe, got %d", act.Send)
	}
}

func TestBalancedFallbackSizesForDefense(t *testing.T) {
	st := boardState("alice", "bob")
	// 3 troops is below the prioritized threshold; the fallback scan
	// still finds bob's weak garrison.
	setOwner(st, 4, "alice", 3)
	setOwner(st, 2, "bob", 1)
	for _, id := range []int{5, 6, 9} {
		setOwner(st, id, "bob", 9)
	}

	act := BalancedStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindExpand {
		t.Fatalf("expected EXPAND, got %s", act.Kind)
	}
	if act.Tgt != 2 {
		t.Errorf("expected first affordable target 2, got %d", act.Tgt)
	}
	if act.Send != 2 {
		t.Errorf("expected defenders+1 = 2, got %d", act.Send)
	}
}

func TestBalancedGathersThenPeace(t *testing.T) {
	SeedBotRng(5)
	defer ResetBotRng()

	st := boardState("alice", "bob")
	setOwner(st, 4, "alice", 2)

	st.Players[0].Money = 100
	act := BalancedStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindGather {
		t.Fatalf("expected GATHER at $100, got %s", act.Kind)
	}
	if act.Buy < 1 || act.Buy > 2 {
		t.Errorf("buy should be capped at 2 affordable troops, got %d", act.Buy)
	}

	st.Players[0].Money = 20
	act = BalancedStrategy{}.Decide(st, "alice", conquest.StandardMap())
	if act.Kind != conquest.KindPeace {
		t.Errorf("expected PEACE at $20, got %s", act.Kind)
	}
}

func TestStrategyForPlaystyleNames(t *testing.T) {
	for _, name := range Playstyles() {
		s := StrategyForPlaystyle(name)
		if s.Name() != name {
			t.Errorf("expected strategy named %q, got %q", name, s.Name())
		}
	}
	if s := StrategyForPlaystyle("no-such-style"); s.Name() != "balanced" {
		t.Errorf("unknown playstyle should fall back to balanced, got %q", s.Name())
	}
	// No model on disk: the neural playstyle degrades to balanced.
	if s := StrategyForPlaystyle("neural"); s.Name() != "balanced" && s.Name() != "neural" {
		t.Errorf("neural playstyle should load or fall back to balanced, got %q", s.Name())
	}
}

// TestStrategiesProduceResolvableActions runs every personality over a
// scattering of seeded mid-game boards and feeds each decision to the
// resolver. Structural errors mean a strategy produced an action for
// the wrong board.
func TestStrategiesProduceResolvableActions(t *testing.T) {
	SeedBotRng(99)
	defer ResetBotRng()

	m := conquest.StandardMap()
	styles := append(Playstyles(), "balanced")

	for _, name := range styles {
		s := StrategyForPlaystyle(name)
		resolver := conquest.NewSeededResolver(conquest.LocalRules(), 99)

		st := boardState("alice", "bob")
		setOwner(st, 4, "alice", 5)
		setOwner(st, 1, "alice", 2)
		setOwner(st, 2, "bob", 3)
		setOwner(st, 7, "bob", 1)

		failures := 0
		for turn := 0; turn < 60; turn++ {
			cur := st.CurrentPlayer()
			var act conquest.Action
			if cur.Name == "alice" {
				act = s.Decide(st, "alice", m)
			} else {
				act = BalancedStrategy{}.Decide(st, "bob", m)
			}
			next, out, err := resolver.Apply(st, cur.Name, act)
			if err != nil {
				t.Fatalf("%s: turn %d: structural error for %s: %v", name, turn, act.Kind, err)
			}
			if !out.OK {
				failures++
			}
			st = next
			if st.SoleOwner() != "" {
				break
			}
		}
		// Combat losses are expected; systematic rule failures are not.
		if failures > 45 {
			t.Errorf("%s: %d of 60 actions failed rule checks", name, failures)
		}
		t.Logf("%s: %d rule failures across the run", name, failures)
	}
}
