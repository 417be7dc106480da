package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/conquestlab/landgrab/internal/model"
	"github.com/conquestlab/landgrab/pkg/conquest"
)

// Orchestrator drives a group of client-side seats through a full game
// over the HTTP API, deciding their turns with local strategies. It can
// fill a private room entirely or drop its seats into a room that also
// holds humans and server-hosted bots.
type Orchestrator struct {
	baseURL    string
	gameID     string
	playstyles []string // one per seat; "" draws a random one
	poll       time.Duration
	engine     *Engine
	seats      []*Client
	byName     map[string]*Client
}

// NewOrchestrator creates an Orchestrator with one seat per playstyle.
// An empty gameID lets the server pick a room id.
func NewOrchestrator(baseURL, gameID string, playstyles []string) *Orchestrator {
	return &Orchestrator{
		baseURL:    baseURL,
		gameID:     gameID,
		playstyles: playstyles,
		poll:       3 * time.Second,
		engine:     NewEngine(conquest.StandardMap()),
		byName:     make(map[string]*Client),
	}
}

// GameID returns the room id, which is known once Run has joined.
func (o *Orchestrator) GameID() string { return o.gameID }

// Run executes the full lifecycle: log the seats in, create or join the
// room, deal and claim the map, then play until the game finishes or
// the context ends.
func (o *Orchestrator) Run(ctx context.Context) error {
	log.Info().Int("seats", len(o.playstyles)).Str("gameId", o.gameID).Msg("Starting bot seats")

	for i := range o.playstyles {
		name := fmt.Sprintf("Bot%d", i+1)
		c := NewClient(name, o.baseURL)
		if err := c.Login(); err != nil {
			return fmt.Errorf("login %s: %w", name, err)
		}
		o.seats = append(o.seats, c)
		o.byName[name] = c
	}

	// The first seat creates or joins; the server assigns an id when we
	// did not bring one.
	id, err := o.seats[0].JoinGame(o.gameID)
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	o.gameID = id
	log.Info().Str("gameId", o.gameID).Msg("Room ready")

	for i, style := range o.playstyles {
		o.engine.SetPlaystyle(o.gameID, o.seats[i].Name(), style)
	}

	for _, c := range o.seats[1:] {
		if _, err := c.JoinGame(o.gameID); err != nil {
			return fmt.Errorf("join %s: %w", c.Name(), err)
		}
	}

	doc, err := o.seats[0].Setup(o.gameID)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	doc, err = o.claimAll(doc)
	if err != nil {
		return err
	}

	for _, c := range o.seats {
		if err := c.ConnectWS(o.gameID); err != nil {
			return fmt.Errorf("ws connect %s: %w", c.Name(), err)
		}
	}
	defer func() {
		for _, c := range o.seats {
			c.CloseWS()
		}
	}()

	return o.playLoop(ctx, doc)
}

// claimAll rotates through the seats grabbing starting territories until
// the map is gone. Claims are first-come-first-served, so a lost race
// just moves on to the next territory.
func (o *Orchestrator) claimAll(doc *model.GameDoc) (*model.GameDoc, error) {
	for i := 0; ; i++ {
		unclaimed := doc.UnclaimedIDs()
		if len(unclaimed) == 0 {
			return doc, nil
		}
		seat := o.seats[i%len(o.seats)]
		pick := unclaimed[botIntn(len(unclaimed))]
		ok, next, err := seat.Claim(o.gameID, pick)
		if err != nil {
			return nil, fmt.Errorf("claim %s: %w", seat.Name(), err)
		}
		if !ok {
			log.Debug().Str("seat", seat.Name()).Int("territory", pick).Msg("Lost a claim race")
		}
		doc = next
	}
}

// playLoop acts whenever one of our seats holds the turn and otherwise
// waits for the board to move.
func (o *Orchestrator) playLoop(ctx context.Context, doc *model.GameDoc) error {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping bot seats")
			return ctx.Err()
		default:
		}

		if doc.Status == conquest.StatusFinished {
			log.Info().Str("winner", doc.SoleOwner()).Int("turns", doc.TurnNumber).Msg("Game finished")
			return nil
		}

		cur := doc.CurrentPlayer()
		if cur == nil {
			return fmt.Errorf("game %s has no current player", o.gameID)
		}

		seat, ours := o.byName[cur.Name]
		if !ours {
			next, err := o.waitForUpdate(ctx)
			if err != nil {
				return err
			}
			doc = next
			continue
		}

		act := o.engine.Decide(o.gameID, &doc.State, cur.Name)
		out, next, err := seat.SubmitAction(o.gameID, act)
		if err != nil {
			// Likely lost a turn race against another client driving
			// the same seat. Refresh and take it from the top.
			log.Warn().Err(err).Str("seat", cur.Name).Msg("Action rejected, refreshing")
			next, err := seat.GetGame(o.gameID)
			if err != nil {
				return fmt.Errorf("refresh %s: %w", o.gameID, err)
			}
			doc = next
			continue
		}
		log.Debug().Str("seat", cur.Name).Str("kind", string(act.Kind)).Bool("ok", out.OK).Msg("Turn played")
		doc = next
	}
}

// waitForUpdate blocks until the next game_update arrives, polling as a
// fallback when the socket stays quiet.
func (o *Orchestrator) waitForUpdate(ctx context.Context) (*model.GameDoc, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case event, ok := <-o.seats[0].Events():
			if !ok {
				return nil, fmt.Errorf("ws connection closed")
			}
			if event.Type != model.EventGameUpdate {
				continue
			}
			var doc model.GameDoc
			if err := json.Unmarshal(event.Data, &doc); err != nil {
				log.Debug().Err(err).Msg("Undecodable game update, polling instead")
				return o.seats[0].GetGame(o.gameID)
			}
			return &doc, nil
		case <-time.After(o.poll):
			return o.seats[0].GetGame(o.gameID)
		}
	}
}
