package conquest

// continentValues is the one-time bonus paid for completing a continent.
var continentValues = map[string]int{
	"Europe":          1000,
	"Asia":            1000,
	"North America":   800,
	"South America":   200,
	"Central America": 200,
	"Africa":          200,
}

// DefaultContinentValue is paid for continents not in the table.
const DefaultContinentValue = 150

// ContinentValue returns the completion bonus for the named continent.
func ContinentValue(name string) int {
	if v, ok := continentValues[name]; ok {
		return v
	}
	return DefaultContinentValue
}
