package conquest

import (
	"fmt"
	"sort"
)

// Edge is one adjacency from a territory to a neighbor, with the extra
// money required to move troops across it.
type Edge struct {
	To   int `json:"to"`
	Cost int `json:"cost"`
}

// Region is the static description of a territory: its display name,
// continent tag, and outgoing adjacency edges.
type Region struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Continent string `json:"continent"`
	Adj       []Edge `json:"adj"`
}

// Map holds the full territory graph. It is supplied once at game setup
// and treated as immutable by the engine; nothing here is persisted in
// the game document.
type Map struct {
	Regions map[int]*Region `json:"regions"`
}

// Region returns the region for the given territory ID, or nil.
func (m *Map) Region(id int) *Region {
	return m.Regions[id]
}

// CrossingCost returns the crossing cost from src to tgt and whether the
// two territories are adjacent at all.
func (m *Map) CrossingCost(src, tgt int) (int, bool) {
	r := m.Regions[src]
	if r == nil {
		return 0, false
	}
	for _, e := range r.Adj {
		if e.To == tgt {
			return e.Cost, true
		}
	}
	return 0, false
}

// Neighbors returns the adjacency edges of the given territory.
func (m *Map) Neighbors(id int) []Edge {
	r := m.Regions[id]
	if r == nil {
		return nil
	}
	return r.Adj
}

// IDs returns all territory IDs in ascending order.
func (m *Map) IDs() []int {
	ids := make([]int, 0, len(m.Regions))
	for id := range m.Regions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Validate checks the graph for dangling edges, negative costs, and
// asymmetric adjacency: every edge must have a same-cost reverse edge.
func (m *Map) Validate() error {
	for id, r := range m.Regions {
		if r == nil {
			return fmt.Errorf("region %d: nil entry", id)
		}
		if r.ID != id {
			return fmt.Errorf("region %d: ID field is %d", id, r.ID)
		}
		for _, e := range r.Adj {
			if e.Cost < 0 {
				return fmt.Errorf("region %d: negative crossing cost to %d", id, e.To)
			}
			back, ok := m.CrossingCost(e.To, id)
			if !ok {
				return fmt.Errorf("region %d: edge to %d has no reverse edge", id, e.To)
			}
			if back != e.Cost {
				return fmt.Errorf("region %d: edge to %d costs %d forward, %d back", id, e.To, e.Cost, back)
			}
		}
	}
	return nil
}

// InitialCountries builds the unclaimed starting territories for this map:
// one entry per region with no owner, zero troops, and the region's
// continent tag.
func (m *Map) InitialCountries() map[int]Territory {
	countries := make(map[int]Territory, len(m.Regions))
	for id, r := range m.Regions {
		countries[id] = Territory{Continent: r.Continent}
	}
	return countries
}
