package bot

import (
	"github.com/conquestlab/landgrab/pkg/conquest"
)

// Strategy picks one action for a bot's turn. Implementations never
// mutate the state they are given.
type Strategy interface {
	Name() string
	Decide(st *conquest.State, player string, m *conquest.Map) conquest.Action
}

// StrategyForPlaystyle returns the strategy for a playstyle name.
// Unknown names fall back to the balanced heuristics.
func StrategyForPlaystyle(playstyle string) Strategy {
	switch playstyle {
	case "aggressive":
		return &AggressiveStrategy{}
	case "defensive":
		return &DefensiveStrategy{}
	case "expansionist":
		return &ExpansionistStrategy{}
	case "economic":
		return &EconomicStrategy{}
	case "opportunist":
		return &OpportunistStrategy{}
	case "neural":
		return newNeuralOrFallback()
	default:
		return &BalancedStrategy{}
	}
}

// Playstyles lists the personality names a bot can draw at random.
// The balanced and neural styles are only handed out explicitly.
func Playstyles() []string {
	return []string{"aggressive", "defensive", "expansionist", "economic", "opportunist"}
}

// RandomPlaystyle picks a uniform random playstyle name.
func RandomPlaystyle() string {
	names := Playstyles()
	return names[botIntn(len(names))]
}

// gatherBuy sizes a GATHER purchase: a d20 roll capped by what the
// player can afford.
func gatherBuy(money int) int {
	roll := botIntn(20) + 1
	afford := money / conquest.TroopCost
	if roll < afford {
		return roll
	}
	return afford
}
