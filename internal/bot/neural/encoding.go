package neural

import "github.com/conquestlab/landgrab/pkg/conquest"

// EncodeBoard encodes a game state into a flat [26*6] float32 board
// (row-major, territories in ascending ID order) from the evaluating
// player's point of view. Territories absent from the state encode as
// unowned with zero troops.
func EncodeBoard(st *conquest.State, m *conquest.Map, player string) []float32 {
	board := make([]float32, NumAreas*NumFeatures)
	for row, id := range m.IDs() {
		if row >= NumAreas {
			break
		}
		base := row * NumFeatures

		t, ok := st.Countries[id]
		if !ok {
			board[base+FeatUnowned] = 1
			board[base+FeatWorth] = worthOf(m.Region(id).Continent)
			continue
		}

		switch {
		case t.Owner == player:
			board[base+FeatOwnSelf] = 1
		case t.Owner != "":
			board[base+FeatOwnEnemy] = 1
		default:
			board[base+FeatUnowned] = 1
		}
		board[base+FeatTroops] = float32(t.Troops) / TroopScale
		board[base+FeatWorth] = worthOf(t.Continent)
		if t.Owner != "" {
			if p := st.PlayerByName(t.Owner); p != nil && p.Vulnerable {
				board[base+FeatVulnerable] = 1
			}
		}
	}
	return board
}

func worthOf(continent string) float32 {
	return float32(conquest.ContinentValue(continent)) / WorthScale
}

// BuildAdjacencyMatrix builds the NumAreas x NumAreas adjacency matrix
// with self-loops, territories in ascending ID order. Edges touching
// territories beyond NumAreas are dropped.
func BuildAdjacencyMatrix(m *conquest.Map) []float32 {
	adj := make([]float32, NumAreas*NumAreas)

	index := make(map[int]int, NumAreas)
	for row, id := range m.IDs() {
		if row >= NumAreas {
			break
		}
		index[id] = row
	}

	for id, row := range index {
		adj[row*NumAreas+row] = 1
		for _, e := range m.Neighbors(id) {
			if col, ok := index[e.To]; ok {
				adj[row*NumAreas+col] = 1
				adj[col*NumAreas+row] = 1
			}
		}
	}
	return adj
}
