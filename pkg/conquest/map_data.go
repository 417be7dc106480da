package conquest

import "sync"

var (
	stdMapOnce sync.Once
	stdMapInst *Map
)

// StandardMap returns the built-in 26-territory world map spanning the six
// continents of the bonus table. The map is built once and cached;
// subsequent calls return the same pointer. Callers must not mutate the
// returned map.
func StandardMap() *Map {
	stdMapOnce.Do(func() {
		stdMapInst = buildStandardMap()
	})
	return stdMapInst
}

// Crossing-cost tiers: 0 for a land border, 100 for a short sea crossing,
// 300 for an ocean crossing.
const (
	landBorder  = 0
	seaCrossing = 100
	oceanSpan   = 300
)

func buildStandardMap() *Map {
	m := &Map{Regions: make(map[int]*Region, 26)}

	region := func(id int, name, continent string) {
		m.Regions[id] = &Region{ID: id, Name: name, Continent: continent}
	}

	// border adds a bidirectional edge with the same cost both ways.
	border := func(a, b, cost int) {
		m.Regions[a].Adj = append(m.Regions[a].Adj, Edge{To: b, Cost: cost})
		m.Regions[b].Adj = append(m.Regions[b].Adj, Edge{To: a, Cost: cost})
	}

	region(1, "Iberia", "Europe")
	region(2, "Gaul", "Europe")
	region(3, "Britannia", "Europe")
	region(4, "Germania", "Europe")
	region(5, "Scandinavia", "Europe")
	region(6, "Balkans", "Europe")

	region(7, "Anatolia", "Asia")
	region(8, "Persia", "Asia")
	region(9, "Steppe", "Asia")
	region(10, "Indus", "Asia")
	region(11, "Cathay", "Asia")
	region(12, "Nippon", "Asia")

	region(13, "Maghreb", "Africa")
	region(14, "Nile", "Africa")
	region(15, "Sahel", "Africa")
	region(16, "Congo", "Africa")
	region(17, "Cape", "Africa")

	region(18, "Tundra", "North America")
	region(19, "Laurentia", "North America")
	region(20, "Appalachia", "North America")
	region(21, "Great Plains", "North America")

	region(22, "Mesoamerica", "Central America")
	region(23, "Antilles", "Central America")

	region(24, "Amazonia", "South America")
	region(25, "Andes", "South America")
	region(26, "Pampas", "South America")

	// Europe
	border(1, 2, landBorder)
	border(1, 13, seaCrossing)
	border(2, 3, seaCrossing)
	border(2, 4, landBorder)
	border(3, 5, seaCrossing)
	border(4, 5, seaCrossing)
	border(4, 6, landBorder)
	border(4, 9, landBorder)
	border(5, 18, oceanSpan)
	border(6, 7, seaCrossing)

	// Asia
	border(7, 8, landBorder)
	border(7, 14, seaCrossing)
	border(8, 9, landBorder)
	border(8, 10, landBorder)
	border(9, 11, landBorder)
	border(10, 11, landBorder)
	border(11, 12, seaCrossing)
	border(12, 18, oceanSpan)

	// Africa
	border(13, 14, landBorder)
	border(13, 15, landBorder)
	border(14, 15, landBorder)
	border(14, 16, landBorder)
	border(15, 16, landBorder)
	border(15, 24, oceanSpan)
	border(16, 17, landBorder)

	// Americas
	border(18, 19, landBorder)
	border(18, 21, landBorder)
	border(19, 20, landBorder)
	border(20, 21, landBorder)
	border(20, 23, seaCrossing)
	border(21, 22, landBorder)
	border(22, 23, seaCrossing)
	border(22, 24, landBorder)
	border(23, 24, seaCrossing)
	border(24, 25, landBorder)
	border(24, 26, landBorder)
	border(25, 26, landBorder)

	return m
}
