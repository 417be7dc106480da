package bot

import (
	"math"
	"sort"

	"github.com/conquestlab/landgrab/pkg/conquest"
)

// continentValues is the bots' own valuation of each continent. It is
// not the payout table: South America and Africa rate well above their
// completion bonus, steering bots toward the cheap continents.
var continentValues = map[string]int{
	"Europe":          1000,
	"Asia":            1000,
	"North America":   800,
	"South America":   350,
	"Central America": 200,
	"Africa":          400,
}

// defaultContinentValue covers continents missing from the table.
const defaultContinentValue = 150

func continentValue(name string) int {
	if v, ok := continentValues[name]; ok {
		return v
	}
	return defaultContinentValue
}

// continentTally counts how much of one continent a player holds.
type continentTally struct {
	total int
	owned int
}

// tallyContinents counts territories per continent, and how many of
// each the named player owns.
func tallyContinents(st *conquest.State, player string) map[string]continentTally {
	tally := make(map[string]continentTally)
	for _, t := range st.Countries {
		c := tally[t.Continent]
		c.total++
		if t.Owner == player {
			c.owned++
		}
		tally[t.Continent] = c
	}
	return tally
}

// candidate is one adjacent expansion target reachable from an owned
// source territory. Own territories are never candidates.
type candidate struct {
	Src       int
	Tgt       int
	Cost      int
	SrcTroops int
	TgtTroops int
	Owner     string // "" = unowned
	Continent string
}

// candidatesFrom lists the non-own adjacent targets of src, in the
// map's adjacency order.
func candidatesFrom(st *conquest.State, m *conquest.Map, player string, src int) []candidate {
	srcTroops := st.Countries[src].Troops
	var out []candidate
	for _, e := range m.Neighbors(src) {
		tgt, ok := st.Countries[e.To]
		if !ok || tgt.Owner == player {
			continue
		}
		out = append(out, candidate{
			Src:       src,
			Tgt:       e.To,
			Cost:      e.Cost,
			SrcTroops: srcTroops,
			TgtTroops: tgt.Troops,
			Owner:     tgt.Owner,
			Continent: tgt.Continent,
		})
	}
	return out
}

// sourcesAscending returns the player's territory IDs holding more than
// minTroops troops, in ascending ID order.
func sourcesAscending(st *conquest.State, player string, minTroops int) []int {
	var out []int
	for _, id := range st.OwnedIDs(player) {
		if st.Countries[id].Troops > minTroops {
			out = append(out, id)
		}
	}
	return out
}

// sourcesByTroopsDesc is sourcesAscending reordered strongest-first.
// Ties keep ascending ID order.
func sourcesByTroopsDesc(st *conquest.State, player string, minTroops int) []int {
	out := sourcesAscending(st, player, minTroops)
	sort.SliceStable(out, func(i, j int) bool {
		return st.Countries[out[i]].Troops > st.Countries[out[j]].Troops
	})
	return out
}

// successProbability estimates the chance an EXPAND with att troops
// takes a territory defended by def troops. A logistic curve on the
// troop ratio, clamped to [0.03, 0.97]; empty targets are near-certain.
func successProbability(att, def int) float64 {
	if att <= 0 {
		return 0
	}
	if def <= 0 {
		return 0.92
	}
	ratio := float64(att) / (float64(def) + 0.01)
	v := 1.0 / (1.0 + math.Exp(-1.05*(ratio-1.0)))
	p := 0.25 + 0.75*v
	if p < 0.03 {
		return 0.03
	}
	if p > 0.97 {
		return 0.97
	}
	return p
}

// captureValue scores how much taking tgt would be worth to the player:
// a flat base, the continent's worth, a completion bonus scaled by how
// close the capture gets them, and a bonus for each adjacent friendly
// territory.
func captureValue(st *conquest.State, m *conquest.Map, player string, tgt int) float64 {
	cont := st.Countries[tgt].Continent

	value := 40.0
	value += float64(continentValue(cont)) / 40.0

	info := tallyContinents(st, player)[cont]
	if info.total > 0 {
		if info.owned+1 >= info.total {
			value += float64(continentValue(cont)) / 25.0
		} else {
			value += float64(info.owned) / float64(info.total) * float64(continentValue(cont)) / 80.0
		}
	}

	adjMine := 0
	for _, e := range m.Neighbors(tgt) {
		if t, ok := st.Countries[e.To]; ok && t.Owner == player {
			adjMine++
		}
	}
	value += math.Min(20, float64(adjMine*6))

	return value
}

// sendForUnowned sizes the force for claiming an empty territory from a
// source holding s troops. Small stacks send one; big stacks send up to
// half, capped at six.
func sendForUnowned(s int) int {
	if s <= 1 {
		return 0
	}
	if s <= 3 {
		return 1
	}
	if s <= 6 {
		return max(1, s/3)
	}
	return max(1, min(6, s/2))
}

// sendForAttack sizes the force for attacking d defenders from a source
// holding s troops: one more than the defense when possible, stepped up
// on a 3x advantage, never more than 70% of the stack.
func sendForAttack(s, d int) int {
	if s <= 1 {
		return 0
	}
	possible := s - 1
	send := max(1, min(possible, d+1))
	if possible >= d*3 && d > 0 {
		send = min(possible, d+max(2, d/2))
	}
	return min(send, max(1, s*7/10))
}
