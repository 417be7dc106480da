package conquest

import "fmt"

// Kind identifies a player action.
type Kind string

const (
	KindPeace   Kind = "PEACE"
	KindNothing Kind = "NOTHING"
	KindGather  Kind = "GATHER"
	KindExpand  Kind = "EXPAND"
)

// Action is the tagged variant submitted by a player (or bot) for one turn.
// Only the fields for the given Kind are meaningful: Buy for GATHER;
// Src, Tgt, Send and CrossingCost for EXPAND. CrossingCost is resolved
// from the map by the caller and trusted by the resolver.
type Action struct {
	Kind         Kind `json:"kind"`
	Buy          int  `json:"buy,omitempty"`
	Src          int  `json:"src,omitempty"`
	Tgt          int  `json:"tgt,omitempty"`
	Send         int  `json:"send,omitempty"`
	CrossingCost int  `json:"crossing_cost,omitempty"`
}

// Peace returns a PEACE action.
func Peace() Action { return Action{Kind: KindPeace} }

// Nothing returns a NOTHING action.
func Nothing() Action { return Action{Kind: KindNothing} }

// Gather returns a GATHER action buying the given troop count.
func Gather(buy int) Action { return Action{Kind: KindGather, Buy: buy} }

// Expand returns an EXPAND action moving send troops from src to tgt
// across an edge with the given crossing cost.
func Expand(src, tgt, send, crossingCost int) Action {
	return Action{Kind: KindExpand, Src: src, Tgt: tgt, Send: send, CrossingCost: crossingCost}
}

// Validate rejects malformed actions before they reach the resolver:
// unknown kinds, negative GATHER buys, and non-positive EXPAND parameters
// that could never be legal regardless of state.
func (a Action) Validate() error {
	switch a.Kind {
	case KindPeace, KindNothing:
		return nil
	case KindGather:
		if a.Buy < 0 {
			return fmt.Errorf("%w: negative buy %d", ErrInvalidAction, a.Buy)
		}
		return nil
	case KindExpand:
		if a.CrossingCost < 0 {
			return fmt.Errorf("%w: negative crossing cost %d", ErrInvalidAction, a.CrossingCost)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidAction, a.Kind)
	}
}

func (a Action) String() string {
	switch a.Kind {
	case KindGather:
		return fmt.Sprintf("GATHER(buy=%d)", a.Buy)
	case KindExpand:
		return fmt.Sprintf("EXPAND(%d->%d send=%d cost=%d)", a.Src, a.Tgt, a.Send, a.CrossingCost)
	default:
		return string(a.Kind)
	}
}
