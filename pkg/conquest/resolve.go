package conquest

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Reason classifies why a resolved action did not go the actor's way.
// Rule violations consume the turn; ReasonCombatLoss is a fully resolved
// EXPAND whose dice went against the attacker.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonInsufficientFunds Reason = "insufficient_funds"
	ReasonGatherCapExceeded Reason = "gather_cap_exceeded"
	ReasonInvalidTarget     Reason = "invalid_target"
	ReasonNotOwner          Reason = "not_owner"
	ReasonInvalidSend       Reason = "invalid_send"
	ReasonCombatLoss        Reason = "combat_loss"
)

// Outcome is the result of a resolved action. OK means the action took
// full effect. When OK is false, Reason says why; the turn was consumed
// either way.
type Outcome struct {
	OK     bool   `json:"ok"`
	Reason Reason `json:"reason,omitempty"`
}

// Resolver validates and applies single actions to a game state. It never
// mutates its input; callers get back a fresh state. One resolver serves
// every game in the process; a mutex guards the shared dice source.
type Resolver struct {
	rules Rules
	mu    sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

// NewResolver returns a resolver with time-seeded dice.
func NewResolver(rules Rules) *Resolver {
	return NewSeededResolver(rules, time.Now().UnixNano())
}

// NewSeededResolver returns a resolver with deterministic dice. Tests and
// replayed bot matches use this to pin combat outcomes.
func NewSeededResolver(rules Rules, seed int64) *Resolver {
	return &Resolver{
		rules: rules,
		rng:   rand.New(rand.NewSource(seed)),
		now:   time.Now,
	}
}

// Rules returns the rule set this resolver applies.
func (r *Resolver) Rules() Rules { return r.rules }

func (r *Resolver) d20() int { return r.rng.Intn(20) + 1 }

func (r *Resolver) logf(st *State, format string, args ...any) {
	st.AppendLog("[" + r.now().Format("15:04:05") + "] " + fmt.Sprintf(format, args...))
}

// Apply resolves one action by the named player against st and returns
// the successor state. Structural problems (missing roster, corrupt turn
// cursor, wrong player, malformed action) return an error and no new
// state. Everything else resolves: rule violations and combat losses
// produce a failed Outcome, append a log line, and still advance the
// turn.
func (r *Resolver) Apply(st *State, actor string, act Action) (*State, Outcome, error) {
	if st == nil {
		return nil, Outcome{}, ErrNotFound
	}
	if err := act.Validate(); err != nil {
		return nil, Outcome{}, err
	}
	if len(st.Players) == 0 {
		return nil, Outcome{}, ErrNoPlayers
	}
	if st.TurnIdx < 0 || st.TurnIdx >= len(st.Players) {
		return nil, Outcome{}, ErrInvalidTurn
	}
	if st.Players[st.TurnIdx].Name != actor {
		return nil, Outcome{}, fmt.Errorf("%w: %s acted on %s's turn", ErrNotYourTurn, actor, st.Players[st.TurnIdx].Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := st.Clone()
	var out Outcome
	switch act.Kind {
	case KindPeace:
		out = r.applyPeace(next)
	case KindNothing:
		out = r.applyNothing(next)
	case KindGather:
		out = r.applyGather(next, act)
	case KindExpand:
		out = r.applyExpand(next, act)
	}
	endTurnHousekeeping(next, act.Kind)
	advanceTurn(next)
	return next, out, nil
}

// applyPeace pays the peace dividend and opens the vulnerable window.
// Eligibility is judged on the attack flag as it stood when the action
// arrived, i.e. attacks since the player's previous turn block the payout.
func (r *Resolver) applyPeace(st *State) Outcome {
	p := st.CurrentPlayer()
	eligible := !p.WasAttacked
	p.Vulnerable = true
	p.WasAttacked = false
	owned := st.OwnedCount(p.Name)
	if eligible {
		payout := PeacePayoutPerCountry * owned
		p.Money += payout
		r.logf(st, "%s chose PEACE and earned $%d ($%d × %d territories).", p.Name, payout, PeacePayoutPerCountry, owned)
	} else {
		r.logf(st, "%s chose PEACE but had been attacked; no payout.", p.Name)
	}
	return Outcome{OK: true}
}

func (r *Resolver) applyNothing(st *State) Outcome {
	p := st.CurrentPlayer()
	r.logf(st, "%s did NOTHING", p.Name)
	return Outcome{OK: true}
}

// applyGather buys troops and spreads them round-robin over the actor's
// territories in ascending ID order. Owning nothing still spends the
// money. Under the capped rule set a fresh buy limit is rolled per turn
// number; the roll is only persisted when the purchase goes through.
func (r *Resolver) applyGather(st *State, act Action) Outcome {
	p := st.CurrentPlayer()
	buy := act.Buy

	limit := p.TroopBuyLimit
	rolled := false
	if r.rules.GatherCap.Enabled {
		if p.LastGatherTurn != st.TurnNumber {
			limit = r.rules.GatherCap.Min + r.rng.Intn(r.rules.GatherCap.Max-r.rules.GatherCap.Min+1)
			rolled = true
		}
		if buy > limit {
			r.logf(st, "%s attempted to buy %d troops but limit is %d this turn", p.Name, buy, limit)
			return Outcome{Reason: ReasonGatherCapExceeded}
		}
	}

	cost := buy * TroopCost
	if p.Money < cost {
		r.logf(st, "%s attempted to buy %d troops but couldn't afford $%d", p.Name, buy, cost)
		return Outcome{Reason: ReasonInsufficientFunds}
	}

	if rolled {
		p.TroopBuyLimit = limit
		p.LastGatherTurn = st.TurnNumber
	}
	p.Money -= cost
	owned := st.OwnedIDs(p.Name)
	if len(owned) > 0 {
		for i := 0; i < buy; i++ {
			id := owned[i%len(owned)]
			t := st.Countries[id]
			t.Troops++
			st.Countries[id] = t
		}
	}
	if r.rules.GatherCap.Enabled {
		r.logf(st, "%s bought %d troops for $%d (limit was %d)", p.Name, buy, cost, limit)
	} else {
		r.logf(st, "%s bought %d troops for $%d", p.Name, buy, cost)
	}
	return Outcome{OK: true}
}

// applyExpand moves troops into an adjacent territory: an uncontested
// claim when it is unowned, otherwise combat. The crossing cost plus the
// claim cost is charged up front and is not refunded on a lost fight.
func (r *Resolver) applyExpand(st *State, act Action) Outcome {
	p := st.CurrentPlayer()
	src, okSrc := st.Countries[act.Src]
	tgt, okTgt := st.Countries[act.Tgt]
	if !okSrc || !okTgt {
		r.logf(st, "%s attempted invalid expand (invalid source/target).", p.Name)
		return Outcome{Reason: ReasonInvalidTarget}
	}
	if src.Owner != p.Name {
		r.logf(st, "%s does not own the chosen source territory.", p.Name)
		return Outcome{Reason: ReasonNotOwner}
	}
	if tgt.Owner == p.Name {
		r.logf(st, "%s attempted to expand into their own territory.", p.Name)
		return Outcome{Reason: ReasonInvalidTarget}
	}
	if act.Send <= 0 || act.Send >= src.Troops {
		r.logf(st, "%s attempted to send %d troops but only %d were available.", p.Name, act.Send, src.Troops)
		return Outcome{Reason: ReasonInvalidSend}
	}
	needed := act.CrossingCost + ClaimCost
	if p.Money < needed {
		r.logf(st, "%s cannot afford expansion ($%d required).", p.Name, needed)
		return Outcome{Reason: ReasonInsufficientFunds}
	}

	p.Money -= needed
	src.Troops -= act.Send
	if src.Troops == 0 {
		src.Owner = ""
	}
	st.Countries[act.Src] = src

	if tgt.Owner == "" {
		tgt.Owner = p.Name
		tgt.Troops = act.Send
		st.Countries[act.Tgt] = tgt
		// Logs name the continent only, never the territory.
		r.logf(st, "%s claimed a territory (continent:%s) with %d troops.", p.Name, tgt.Continent, act.Send)
		r.awardContinentBonus(st, p, act.Tgt)
		return Outcome{OK: true}
	}

	defender := st.PlayerByName(tgt.Owner)

	if r.rules.VulnerableSweep && defender != nil && defender.Vulnerable {
		owner := tgt.Owner
		tgt.Owner = p.Name
		tgt.Troops = act.Send
		st.Countries[act.Tgt] = tgt
		defender.WasAttacked = true
		r.logf(st, "%s swept a vulnerable territory of %s (continent:%s) and took it with %d troops.", p.Name, owner, tgt.Continent, act.Send)
		r.awardContinentBonus(st, p, act.Tgt)
		return Outcome{OK: true}
	}

	atk := r.d20()
	d1, d2 := r.d20(), r.d20()
	best := max(d1, d2)
	r.logf(st, "%s (atk %d) attacked a territory owned by %s (def [%d,%d] -> %d)", p.Name, atk, tgt.Owner, d1, d2, best)
	if atk > best {
		tgt.Owner = p.Name
		tgt.Troops = act.Send
		st.Countries[act.Tgt] = tgt
		if defender != nil {
			defender.WasAttacked = true
		}
		r.logf(st, "%s won the fight and captured the territory (troops moved: %d).", p.Name, act.Send)
		r.awardContinentBonus(st, p, act.Tgt)
		return Outcome{OK: true}
	}

	if defender != nil {
		defender.WasAttacked = true
	}
	r.logf(st, "%s attacked but lost; %d attacking troops were destroyed.", p.Name, act.Send)
	return Outcome{Reason: ReasonCombatLoss}
}

// awardContinentBonus pays the completion bonus when the capture gives
// its new owner every territory sharing the captured territory's
// continent tag. Losing and re-completing a continent pays again; holding
// it does not.
func (r *Resolver) awardContinentBonus(st *State, p *Player, captured int) {
	cont := st.Countries[captured].Continent
	if cont == "" {
		return
	}
	total, owned := 0, 0
	for _, t := range st.Countries {
		if t.Continent == cont {
			total++
			if t.Owner == p.Name {
				owned++
			}
		}
	}
	if total == 0 || owned != total {
		return
	}
	bonus := ContinentValue(cont)
	p.Money += bonus
	r.logf(st, "%s captured all of %s and got $%d", p.Name, cont, bonus)
}

// ApplyStartingClaim claims an unowned territory for the named player
// during the pre-game phase. It is not gated by turn order and does not
// advance the turn. Unknown or already-owned territories append a
// redacted log line, claim nothing, and report false.
func (r *Resolver) ApplyStartingClaim(st *State, player string, territoryID int) (*State, bool, error) {
	if st == nil {
		return nil, false, ErrNotFound
	}
	next := st.Clone()
	t, ok := next.Countries[territoryID]
	if !ok {
		r.logf(next, "%s attempted to claim a starting territory but it was invalid.", player)
		return next, false, nil
	}
	if t.Owner != "" {
		r.logf(next, "%s attempted to claim a starting territory but it was already owned.", player)
		return next, false, nil
	}
	t.Owner = player
	t.Troops = 1
	next.Countries[territoryID] = t
	r.logf(next, "%s claimed a territory (continent:%s) with 1 troop.", player, t.Continent)
	return next, true, nil
}
