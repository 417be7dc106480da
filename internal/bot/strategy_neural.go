package bot

import (
	"fmt"
	"log"
	"sync"

	gonnx "github.com/advancedclimatesystems/gonnx"
	"gorgonia.org/tensor"

	"github.com/conquestlab/landgrab/internal/bot/neural"
	"github.com/conquestlab/landgrab/pkg/conquest"
)

// ModelPath is the ONNX value model used by the "neural" playstyle.
// Set at startup from the MODEL_PATH env var or default to
// "models/value.onnx".
var ModelPath string

// newNeuralOrFallback attempts to create a NeuralStrategy. If loading
// fails, it falls back to BalancedStrategy.
func newNeuralOrFallback() Strategy {
	s, err := NewNeuralStrategy()
	if err != nil {
		log.Printf("bot: neural playstyle requested but model load failed: %v; falling back to balanced", err)
		return &BalancedStrategy{}
	}
	return s
}

// NeuralStrategy ranks candidate expansions with a value network run
// through gonnx (pure Go ONNX runtime). Each candidate scores as the
// success-weighted value of its successor boards; when no candidate
// beats the current board, the balanced heuristics decide instead.
type NeuralStrategy struct {
	value    *gonnx.Model
	adj      []float32
	mu       sync.Mutex
	fallback BalancedStrategy
}

// NewNeuralStrategy loads the value model and builds the adjacency
// matrix for the standard map the model was trained on.
func NewNeuralStrategy() (*NeuralStrategy, error) {
	path := ModelPath
	if path == "" {
		path = "models/value.onnx"
	}
	value, err := gonnx.NewModelFromFile(path)
	if err != nil {
		return nil, err
	}
	adj := neural.BuildAdjacencyMatrix(conquest.StandardMap())
	return &NeuralStrategy{value: value, adj: adj}, nil
}

func (s *NeuralStrategy) Name() string { return "neural" }

func (s *NeuralStrategy) Decide(st *conquest.State, player string, m *conquest.Map) conquest.Action {
	me := st.PlayerByName(player)
	if me == nil {
		return conquest.Peace()
	}

	baseline, err := s.valueOf(st, m, player)
	if err != nil {
		log.Printf("bot/neural: value inference failed for %s: %v; falling back to balanced", player, err)
		return s.fallback.Decide(st, player, m)
	}

	var best *candidate
	bestSend := 0
	bestScore := baseline
	for _, src := range sourcesAscending(st, player, 1) {
		for _, c := range candidatesFrom(st, m, player, src) {
			if me.Money < c.Cost+conquest.ClaimCost {
				continue
			}
			var send int
			if c.Owner == "" {
				send = sendForUnowned(c.SrcTroops)
			} else {
				send = sendForAttack(c.SrcTroops, c.TgtTroops)
			}
			if send <= 0 || send >= c.SrcTroops {
				continue
			}

			won, err := s.valueOf(successor(st, player, c, send, true), m, player)
			if err != nil {
				log.Printf("bot/neural: successor inference failed for %s: %v; falling back to balanced", player, err)
				return s.fallback.Decide(st, player, m)
			}
			lost, err := s.valueOf(successor(st, player, c, send, false), m, player)
			if err != nil {
				log.Printf("bot/neural: successor inference failed for %s: %v; falling back to balanced", player, err)
				return s.fallback.Decide(st, player, m)
			}

			p := successProbability(send, c.TgtTroops)
			score := p*won + (1-p)*lost
			if score > bestScore {
				bestScore = score
				cc := c
				best = &cc
				bestSend = send
			}
		}
	}

	if best != nil {
		return conquest.Expand(best.Src, best.Tgt, bestSend, best.Cost)
	}
	return s.fallback.Decide(st, player, m)
}

// successor returns the board after the expansion resolves, keeping only
// the ownership and troop changes the value encoding can see.
func successor(st *conquest.State, player string, c candidate, send int, captured bool) *conquest.State {
	next := st.Clone()
	src := next.Countries[c.Src]
	src.Troops -= send
	next.Countries[c.Src] = src
	if captured {
		tgt := next.Countries[c.Tgt]
		tgt.Owner = player
		tgt.Troops = send
		next.Countries[c.Tgt] = tgt
	}
	return next
}

// valueOf encodes one board and runs the value model, returning the
// predicted win probability for the player.
func (s *NeuralStrategy) valueOf(st *conquest.State, m *conquest.Map, player string) (float64, error) {
	boardData := neural.EncodeBoard(st, m, player)

	boardTensor := tensor.New(
		tensor.WithShape(1, neural.NumAreas, neural.NumFeatures),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(boardData),
	)
	adjTensor := tensor.New(
		tensor.WithShape(neural.NumAreas, neural.NumAreas),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(s.adj),
	)

	inputs := gonnx.Tensors{
		"board": boardTensor,
		"adj":   adjTensor,
	}

	s.mu.Lock()
	outputs, err := s.value.Run(inputs)
	s.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("value run error: %w", err)
	}

	out, ok := outputs["value_preds"]
	if !ok {
		// Try first output key if name doesn't match.
		for _, v := range outputs {
			out = v
			break
		}
	}
	if out == nil {
		return 0, fmt.Errorf("no output tensor from value model")
	}

	switch d := out.Data().(type) {
	case []float32:
		if len(d) == 0 {
			return 0, fmt.Errorf("empty value output")
		}
		return float64(d[0]), nil
	case []float64:
		if len(d) == 0 {
			return 0, fmt.Errorf("empty value output")
		}
		return d[0], nil
	default:
		return 0, fmt.Errorf("unexpected value output type %T", out.Data())
	}
}
