package bot

import "github.com/conquestlab/landgrab/pkg/conquest"

// DefensiveStrategy builds up garrisons and only attacks from strength.
// Threatened or thinly spread, it gathers; it expands only from a stack
// of five or more, into empty territories or with a 3x advantage, and
// always keeps a money reserve.
type DefensiveStrategy struct{}

func (DefensiveStrategy) Name() string { return "defensive" }

func (DefensiveStrategy) Decide(st *conquest.State, player string, m *conquest.Map) conquest.Action {
	me := st.PlayerByName(player)
	if me == nil {
		return conquest.Peace()
	}
	owned := st.OwnedIDs(player)
	total := st.TroopCount(player)

	threatened := false
	for _, src := range owned {
		srcTroops := st.Countries[src].Troops
		for _, e := range m.Neighbors(src) {
			nb, ok := st.Countries[e.To]
			if !ok || nb.Owner == "" || nb.Owner == player {
				continue
			}
			if nb.Troops >= srcTroops {
				threatened = true
				break
			}
		}
		if threatened {
			break
		}
	}

	if threatened || total < len(owned)*3 {
		if me.Money >= conquest.TroopCost*2 {
			return conquest.Gather(gatherBuy(me.Money))
		}
	}

	for _, src := range owned {
		srcTroops := st.Countries[src].Troops
		if srcTroops <= 4 {
			continue
		}
		for _, c := range candidatesFrom(st, m, player, src) {
			if c.Owner != "" && (c.TgtTroops == 0 || srcTroops <= c.TgtTroops*3) {
				continue
			}
			if me.Money < c.Cost+conquest.ClaimCost+400 {
				continue
			}
			send := min(2, srcTroops-2)
			if send > 0 {
				return conquest.Expand(src, c.Tgt, send, c.Cost)
			}
		}
	}

	return conquest.Peace()
}
