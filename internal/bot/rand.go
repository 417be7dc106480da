package bot

import (
	"math/rand"
	"sync"
)

// Strategies draw their randomness through here so arena runs can be
// made reproducible. The lock matters when botmatch plays games on
// several workers at once.
var (
	botMu  sync.Mutex
	botRng *rand.Rand
)

// SeedBotRng pins bot decisions to a deterministic source.
func SeedBotRng(seed int64) {
	botMu.Lock()
	defer botMu.Unlock()
	botRng = rand.New(rand.NewSource(seed))
}

// ResetBotRng reverts to the shared math/rand source.
func ResetBotRng() {
	botMu.Lock()
	defer botMu.Unlock()
	botRng = nil
}

func botIntn(n int) int {
	botMu.Lock()
	defer botMu.Unlock()
	if botRng != nil {
		return botRng.Intn(n)
	}
	return rand.Intn(n)
}
