package bot

import "github.com/conquestlab/landgrab/pkg/conquest"

// ExpansionistStrategy chases territory count: unowned land first, then
// whatever completes or grows a continent, preferring weak defenders and
// cheap crossings. It stops gathering once its purse is large enough to
// fund several claims.
type ExpansionistStrategy struct{}

func (ExpansionistStrategy) Name() string { return "expansionist" }

func (ExpansionistStrategy) Decide(st *conquest.State, player string, m *conquest.Map) conquest.Action {
	me := st.PlayerByName(player)
	if me == nil {
		return conquest.Peace()
	}
	tally := tallyContinents(st, player)

	var best *candidate
	bestScore := 0
	for _, src := range sourcesAscending(st, player, 1) {
		for _, c := range candidatesFrom(st, m, player, src) {
			if me.Money < c.Cost+conquest.ClaimCost {
				continue
			}

			score := 0
			if c.Owner == "" {
				score += 1000
			}
			info := tally[c.Continent]
			if info.total > 0 && info.owned+1 >= info.total {
				score += 2000 + continentValue(c.Continent)
			} else if info.owned > 0 {
				score += 500
			}
			score -= c.TgtTroops * 10
			score -= c.Cost

			if best == nil || score > bestScore {
				cc := c
				best = &cc
				bestScore = score
			}
		}
	}

	if best != nil {
		send := max(1, min(best.SrcTroops-1, 3))
		return conquest.Expand(best.Src, best.Tgt, send, best.Cost)
	}

	if me.Money >= conquest.TroopCost && me.Money < 800 {
		return conquest.Gather(gatherBuy(me.Money))
	}
	return conquest.Peace()
}
