package conquest

import "sort"

// Status represents the overall game status.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// MaxLogEntries bounds the in-document game log; older entries are
// dropped oldest-first.
const MaxLogEntries = 50

// Player is one seat in the turn rotation. Name is the unique key within
// a game. Owned territories are derived from Territory.Owner, not stored.
type Player struct {
	Name           string `json:"name"`
	Money          int    `json:"money"`
	IsBot          bool   `json:"is_bot"`
	Vulnerable     bool   `json:"vulnerable"`
	WasAttacked    bool   `json:"was_attacked"`
	Color          string `json:"color"`
	TroopBuyLimit  int    `json:"troop_buy_limit"`
	LastGatherTurn int    `json:"last_gather_turn"`
}

// Territory is a claimable map region. The territory ID is the key of
// State.Countries; adjacency and crossing costs live in the immutable Map,
// not in the persisted state. An empty Owner means unowned.
type Territory struct {
	Owner     string `json:"owner"`
	Troops    int    `json:"troops"`
	Continent string `json:"continent"`
}

// State is a complete snapshot of one game. Player order defines the turn
// rotation and is fixed at game creation. TurnIdx always indexes Players;
// TurnNumber is monotonic and starts at 1.
type State struct {
	Players    []Player          `json:"players"`
	Countries  map[int]Territory `json:"countries"`
	TurnIdx    int               `json:"turn_idx"`
	TurnNumber int               `json:"turn_number"`
	Logs       []string          `json:"logs"`
	Status     Status            `json:"status"`
}

// NewState returns an empty waiting-room state with the turn cursor at the
// first seat.
func NewState() *State {
	return &State{
		Countries:  make(map[int]Territory),
		TurnNumber: 1,
		Status:     StatusWaiting,
	}
}

// PlayerIndex returns the index of the named player, or -1.
func (st *State) PlayerIndex(name string) int {
	for i := range st.Players {
		if st.Players[i].Name == name {
			return i
		}
	}
	return -1
}

// PlayerByName returns a pointer into Players for the named player, or nil.
func (st *State) PlayerByName(name string) *Player {
	if i := st.PlayerIndex(name); i >= 0 {
		return &st.Players[i]
	}
	return nil
}

// CurrentPlayer returns a pointer to the player whose turn it is, or nil
// when the roster is empty or the cursor is out of range.
func (st *State) CurrentPlayer() *Player {
	if len(st.Players) == 0 || st.TurnIdx < 0 || st.TurnIdx >= len(st.Players) {
		return nil
	}
	return &st.Players[st.TurnIdx]
}

// OwnedIDs returns the territory IDs owned by the named player in
// ascending order. The sort keeps round-robin placement deterministic.
func (st *State) OwnedIDs(name string) []int {
	var ids []int
	for id, t := range st.Countries {
		if t.Owner == name {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// OwnedCount returns how many territories the named player owns.
func (st *State) OwnedCount(name string) int {
	n := 0
	for _, t := range st.Countries {
		if t.Owner == name {
			n++
		}
	}
	return n
}

// TroopCount returns the total troops garrisoned across the named
// player's territories.
func (st *State) TroopCount(name string) int {
	n := 0
	for _, t := range st.Countries {
		if t.Owner == name {
			n += t.Troops
		}
	}
	return n
}

// SoleOwner returns the player owning every territory on the board, or
// "" when the board is empty, any territory is unowned, or ownership
// is split.
func (st *State) SoleOwner() string {
	owner := ""
	for _, t := range st.Countries {
		if t.Owner == "" {
			return ""
		}
		if owner == "" {
			owner = t.Owner
		} else if t.Owner != owner {
			return ""
		}
	}
	return owner
}

// UnclaimedIDs returns the IDs of unowned territories in ascending order.
func (st *State) UnclaimedIDs() []int {
	var ids []int
	for id, t := range st.Countries {
		if t.Owner == "" {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Clone returns a deep copy of the state. Apply never mutates its input,
// so every resolution works on a clone.
func (st *State) Clone() *State {
	c := &State{
		TurnIdx:    st.TurnIdx,
		TurnNumber: st.TurnNumber,
		Status:     st.Status,
	}
	if st.Players != nil {
		c.Players = make([]Player, len(st.Players))
		copy(c.Players, st.Players)
	}
	if st.Countries != nil {
		c.Countries = make(map[int]Territory, len(st.Countries))
		for id, t := range st.Countries {
			c.Countries[id] = t
		}
	}
	if st.Logs != nil {
		c.Logs = make([]string, len(st.Logs))
		copy(c.Logs, st.Logs)
	}
	return c
}

// AppendLog adds a line and trims the log to MaxLogEntries, dropping the
// oldest entries.
func (st *State) AppendLog(line string) {
	st.Logs = append(st.Logs, line)
	if n := len(st.Logs); n > MaxLogEntries {
		st.Logs = st.Logs[n-MaxLogEntries:]
	}
}
