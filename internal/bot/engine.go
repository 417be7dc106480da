package bot

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/conquestlab/landgrab/pkg/conquest"
)

// Engine assigns each bot seat a strategy and produces its actions. A
// seat keeps the same personality for the life of its game, whether
// pinned up front or drawn at its first decision.
type Engine struct {
	m     *conquest.Map
	mu    sync.Mutex
	seats map[seatKey]Strategy
}

type seatKey struct {
	gameID string
	player string
}

// NewEngine creates an Engine deciding against the given map.
func NewEngine(m *conquest.Map) *Engine {
	return &Engine{m: m, seats: make(map[seatKey]Strategy)}
}

// SetPlaystyle pins a seat to a playstyle. An empty name clears the pin
// so the next decision draws a random one.
func (e *Engine) SetPlaystyle(gameID, player, playstyle string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if playstyle == "" {
		delete(e.seats, seatKey{gameID, player})
		return
	}
	e.seats[seatKey{gameID, player}] = StrategyForPlaystyle(playstyle)
}

// PlaystyleOf reports the playstyle currently pinned to a seat, or "".
func (e *Engine) PlaystyleOf(gameID, player string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.seats[seatKey{gameID, player}]; ok {
		return s.Name()
	}
	return ""
}

// Forget drops every seat of a finished game.
func (e *Engine) Forget(gameID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k := range e.seats {
		if k.gameID == gameID {
			delete(e.seats, k)
		}
	}
}

// Decide returns the seat's action for the current board. A seat with
// no board presence gathers what it can afford; a panicking strategy
// resolves to PEACE so the game never stalls on a bot bug.
func (e *Engine) Decide(gameID string, st *conquest.State, player string) (act conquest.Action) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("player", player).Interface("panic", r).Msg("Bot decision panicked, defaulting to PEACE")
			act = conquest.Peace()
		}
	}()

	me := st.PlayerByName(player)
	if me == nil {
		return conquest.Peace()
	}
	if st.OwnedCount(player) == 0 {
		if me.Money >= conquest.TroopCost {
			return conquest.Gather(gatherBuy(me.Money))
		}
		return conquest.Peace()
	}

	return e.strategyFor(gameID, player).Decide(st, player, e.m)
}

// strategyFor returns the seat's pinned strategy, drawing a random
// playstyle on first use.
func (e *Engine) strategyFor(gameID, player string) Strategy {
	e.mu.Lock()
	defer e.mu.Unlock()
	k := seatKey{gameID, player}
	if s, ok := e.seats[k]; ok {
		return s
	}
	s := StrategyForPlaystyle(RandomPlaystyle())
	e.seats[k] = s
	log.Info().Str("gameId", gameID).Str("player", player).Str("playstyle", s.Name()).Msg("Bot drew random playstyle")
	return s
}
