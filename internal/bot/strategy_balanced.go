package bot

import (
	"sort"

	"github.com/conquestlab/landgrab/pkg/conquest"
)

// BalancedStrategy is the general-purpose default: expand from strong
// stacks toward the best-ranked target, fall back to any affordable
// expansion with a sensibly sized force, gather when stuck, else peace.
// Unknown playstyle names resolve to this strategy.
type BalancedStrategy struct{}

func (BalancedStrategy) Name() string { return "balanced" }

func (BalancedStrategy) Decide(st *conquest.State, player string, m *conquest.Map) conquest.Action {
	me := st.PlayerByName(player)
	if me == nil {
		return conquest.Peace()
	}

	if act, ok := prioritizedExpansion(st, m, player, me.Money); ok {
		return act
	}
	if act, ok := anyExpansion(st, m, player, me.Money); ok {
		return act
	}
	if me.Money >= conquest.TroopCost {
		return conquest.Gather(gatherBuy(me.Money))
	}
	return conquest.Peace()
}

// prioritizedExpansion picks from sources with more than three troops,
// strongest first, ranking each source's targets unowned-first, then by
// crossing cost, defending troops, and ID. The probe force is a fixed
// two troops.
func prioritizedExpansion(st *conquest.State, m *conquest.Map, player string, money int) (conquest.Action, bool) {
	for _, src := range sourcesByTroopsDesc(st, player, 3) {
		cands := candidatesFrom(st, m, player, src)
		if len(cands) == 0 {
			continue
		}
		sort.SliceStable(cands, func(i, j int) bool {
			a, b := cands[i], cands[j]
			aUnowned, bUnowned := a.Owner == "", b.Owner == ""
			if aUnowned != bUnowned {
				return aUnowned
			}
			if a.Cost != b.Cost {
				return a.Cost < b.Cost
			}
			if a.TgtTroops != b.TgtTroops {
				return a.TgtTroops < b.TgtTroops
			}
			return a.Tgt < b.Tgt
		})
		best := cands[0]

		const send = 2
		if best.SrcTroops <= send {
			continue
		}
		if money >= best.Cost+conquest.ClaimCost {
			return conquest.Expand(src, best.Tgt, send, best.Cost), true
		}
	}
	return conquest.Action{}, false
}

// anyExpansion scans every source holding more than one troop for the
// first affordable target, sizing the force by whether the target is
// empty or defended.
func anyExpansion(st *conquest.State, m *conquest.Map, player string, money int) (conquest.Action, bool) {
	for _, src := range sourcesAscending(st, player, 1) {
		for _, c := range candidatesFrom(st, m, player, src) {
			if money < c.Cost+conquest.ClaimCost {
				continue
			}
			var send int
			if c.Owner == "" {
				send = sendForUnowned(c.SrcTroops)
			} else {
				send = sendForAttack(c.SrcTroops, c.TgtTroops)
			}
			if send > 0 && send < c.SrcTroops {
				return conquest.Expand(src, c.Tgt, send, c.Cost), true
			}
		}
	}
	return conquest.Action{}, false
}
