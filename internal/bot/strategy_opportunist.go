package bot

import "github.com/conquestlab/landgrab/pkg/conquest"

// OpportunistStrategy preys on weakness. Territories of vulnerable
// players get hit with everything the source can send; otherwise it
// picks off garrisons of two or fewer when it clearly outnumbers them.
type OpportunistStrategy struct{}

func (OpportunistStrategy) Name() string { return "opportunist" }

func (OpportunistStrategy) Decide(st *conquest.State, player string, m *conquest.Map) conquest.Action {
	me := st.PlayerByName(player)
	if me == nil {
		return conquest.Peace()
	}

	vulnerable := make(map[string]bool)
	for i := range st.Players {
		p := &st.Players[i]
		if p.Vulnerable && p.Name != player {
			vulnerable[p.Name] = true
		}
	}

	if len(vulnerable) > 0 {
		for _, src := range sourcesAscending(st, player, 1) {
			for _, c := range candidatesFrom(st, m, player, src) {
				if !vulnerable[c.Owner] {
					continue
				}
				if me.Money < c.Cost+conquest.ClaimCost {
					continue
				}
				send := max(1, c.SrcTroops-1)
				return conquest.Expand(src, c.Tgt, send, c.Cost)
			}
		}
	}

	for _, src := range sourcesAscending(st, player, 2) {
		for _, c := range candidatesFrom(st, m, player, src) {
			if c.Owner == "" || c.TgtTroops > 2 || c.SrcTroops <= c.TgtTroops+2 {
				continue
			}
			if me.Money < c.Cost+conquest.ClaimCost {
				continue
			}
			send := max(1, min(c.SrcTroops-1, c.TgtTroops+2))
			return conquest.Expand(src, c.Tgt, send, c.Cost)
		}
	}

	if me.Money >= conquest.TroopCost*2 {
		return conquest.Gather(gatherBuy(me.Money))
	}
	return conquest.Peace()
}
