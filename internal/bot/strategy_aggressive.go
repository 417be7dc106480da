package bot

import "github.com/conquestlab/landgrab/pkg/conquest"

// AggressiveStrategy expands at every opportunity, committing 80% of the
// stack from its strongest position to the cheapest target it can pay
// for. It only gathers when no attack is affordable.
type AggressiveStrategy struct{}

func (AggressiveStrategy) Name() string { return "aggressive" }

func (AggressiveStrategy) Decide(st *conquest.State, player string, m *conquest.Map) conquest.Action {
	me := st.PlayerByName(player)
	if me == nil {
		return conquest.Peace()
	}

	for _, src := range sourcesByTroopsDesc(st, player, 1) {
		var best *candidate
		for _, c := range candidatesFrom(st, m, player, src) {
			if me.Money < c.Cost+conquest.ClaimCost {
				continue
			}
			if best == nil || c.Cost < best.Cost || (c.Cost == best.Cost && c.Tgt < best.Tgt) {
				cc := c
				best = &cc
			}
		}
		if best != nil {
			send := max(1, min(best.SrcTroops-1, best.SrcTroops*4/5))
			return conquest.Expand(src, best.Tgt, send, best.Cost)
		}
	}

	if me.Money >= conquest.TroopCost {
		return conquest.Gather(gatherBuy(me.Money))
	}
	return conquest.Peace()
}
