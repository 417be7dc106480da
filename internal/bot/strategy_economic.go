package bot

import "github.com/conquestlab/landgrab/pkg/conquest"

// economicTarget is the purse EconomicStrategy accumulates before it
// considers spending on expansion.
const economicTarget = 1500

// EconomicStrategy hoards money through PEACE income. Flush with cash it
// claims cheap unowned land while keeping a deep reserve; it only
// gathers when its garrisons run thin.
type EconomicStrategy struct{}

func (EconomicStrategy) Name() string { return "economic" }

func (EconomicStrategy) Decide(st *conquest.State, player string, m *conquest.Map) conquest.Action {
	me := st.PlayerByName(player)
	if me == nil {
		return conquest.Peace()
	}

	if me.Money >= economicTarget {
		for _, src := range sourcesAscending(st, player, 2) {
			for _, c := range candidatesFrom(st, m, player, src) {
				if c.Owner != "" || c.Cost > 100 {
					continue
				}
				if me.Money < c.Cost+conquest.ClaimCost+800 {
					continue
				}
				send := max(1, min(c.SrcTroops-2, 2))
				return conquest.Expand(src, c.Tgt, send, c.Cost)
			}
		}
	}

	total := st.TroopCount(player)
	if total < st.OwnedCount(player)*2 && me.Money >= conquest.TroopCost*3 && me.Money < economicTarget {
		return conquest.Gather(gatherBuy(me.Money))
	}
	return conquest.Peace()
}
