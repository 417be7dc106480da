package bot

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/conquestlab/landgrab/internal/model"
	"github.com/conquestlab/landgrab/internal/repository"
	"github.com/conquestlab/landgrab/pkg/conquest"
)

// ArenaConfig configures a single bot-vs-bot game.
type ArenaConfig struct {
	GameName   string
	Playstyles []string // one per seat, in turn order
	MaxTurns   int      // cap before the tiebreak (e.g. 400)
	Seed       int64    // 0 = random
	Rules      conquest.Rules
	DryRun     bool // skip DB writes
}

// ArenaResult describes the outcome of a completed arena game.
type ArenaResult struct {
	GameID      string         `json:"game_id"`
	Winner      string         `json:"winner"` // seat name or "" for draw
	ByConquest  bool           `json:"by_conquest"`
	TotalTurns  int            `json:"total_turns"`
	Territories map[string]int `json:"territories"` // seat -> final count
	Money       map[string]int `json:"money"`       // seat -> final money
}

// RunGame plays a full bot-vs-bot game locally, saving the room, seats,
// and every action to Postgres. Pass nil repos for dry-run mode.
func RunGame(
	ctx context.Context,
	cfg ArenaConfig,
	catalog repository.GameCatalog,
	journal repository.ActionJournal,
	users repository.UserRepository,
) (*ArenaResult, error) {
	if len(cfg.Playstyles) < 2 {
		return nil, fmt.Errorf("arena needs at least 2 seats, got %d", len(cfg.Playstyles))
	}
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = 400
	}
	gameID := cfg.GameName
	if gameID == "" {
		gameID = "botmatch"
	}

	seats := make([]string, len(cfg.Playstyles))
	for i := range cfg.Playstyles {
		seats[i] = fmt.Sprintf("Bot %d", i+1)
	}

	if !cfg.DryRun {
		if err := createArenaGame(ctx, cfg, gameID, seats, catalog, users); err != nil {
			return nil, fmt.Errorf("create arena game: %w", err)
		}
	}

	// Per-game sources: placement rolls and combat dice stay reproducible
	// under a fixed seed even when games run in parallel.
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))
	resolver := conquest.NewSeededResolver(cfg.Rules, seed)

	e := NewEngine(conquest.StandardMap())
	st := conquest.NewState()
	st.Status = conquest.StatusActive
	st.Countries = conquest.StandardMap().InitialCountries()
	for i, name := range seats {
		st.Players = append(st.Players, conquest.Player{
			Name:          name,
			Money:         conquest.StartingMoney,
			IsBot:         true,
			TroopBuyLimit: conquest.GatherCapMax,
		})
		e.SetPlaystyle(gameID, name, cfg.Playstyles[i])
	}

	// Every seat opens with one random starting territory.
	for _, name := range seats {
		unclaimed := st.UnclaimedIDs()
		if len(unclaimed) == 0 {
			break
		}
		pick := unclaimed[rng.Intn(len(unclaimed))]
		next, _, err := resolver.ApplyStartingClaim(st, name, pick)
		if err != nil {
			return nil, fmt.Errorf("starting claim for %s: %w", name, err)
		}
		st = next
	}

	result := &ArenaResult{GameID: gameID}

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		cur := st.CurrentPlayer()
		if cur == nil {
			return nil, fmt.Errorf("no current player at turn %d", st.TurnNumber)
		}
		actor := cur.Name
		turn := st.TurnNumber

		act := e.Decide(gameID, st, actor)
		next, out, err := resolver.Apply(st, actor, act)
		if err != nil {
			return nil, fmt.Errorf("apply %s for %s (turn %d): %w", act.Kind, actor, turn, err)
		}
		st = next
		result.TotalTurns++

		if !cfg.DryRun && journal != nil {
			rec := &model.ActionRecord{
				GameID:     gameID,
				PlayerName: actor,
				TurnNumber: turn,
				Action:     act,
				OK:         out.OK,
				Reason:     string(out.Reason),
				StateAfter: st,
			}
			if err := journal.Append(ctx, rec); err != nil {
				return nil, fmt.Errorf("journal turn %d: %w", turn, err)
			}
		}

		if w := st.SoleOwner(); w != "" {
			result.Winner = w
			result.ByConquest = true
			fillStandings(result, st, seats)
			if err := finishArenaGame(ctx, cfg, catalog, gameID, w); err != nil {
				return nil, err
			}
			log.Info().Str("gameId", gameID).Str("winner", w).Int("turns", result.TotalTurns).Msg("Arena game won by conquest")
			return result, nil
		}

		if st.TurnNumber > cfg.MaxTurns {
			result.Winner = standingsWinner(st, seats)
			fillStandings(result, st, seats)
			if err := finishArenaGame(ctx, cfg, catalog, gameID, result.Winner); err != nil {
				return nil, err
			}
			log.Info().Str("gameId", gameID).Str("winner", result.Winner).Int("turns", result.TotalTurns).Msg("Arena game ended at turn cap")
			return result, nil
		}
	}
}

// createArenaGame registers the room, a bot owner account, and every
// seat in the catalog.
func createArenaGame(
	ctx context.Context,
	cfg ArenaConfig,
	gameID string,
	seats []string,
	catalog repository.GameCatalog,
	users repository.UserRepository,
) error {
	owner, err := users.Upsert(ctx, "bot", "botmatch-"+gameID, "Botmatch", "")
	if err != nil {
		return fmt.Errorf("upsert botmatch user: %w", err)
	}
	if _, err := catalog.Create(ctx, gameID, owner.ID, false); err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	if err := catalog.SetStatus(ctx, gameID, string(conquest.StatusActive)); err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	for i, name := range seats {
		if err := catalog.AddBot(ctx, gameID, name, cfg.Playstyles[i]); err != nil {
			return fmt.Errorf("add bot %s: %w", name, err)
		}
	}
	return nil
}

func finishArenaGame(ctx context.Context, cfg ArenaConfig, catalog repository.GameCatalog, gameID, winner string) error {
	if cfg.DryRun {
		return nil
	}
	if err := catalog.SetFinished(ctx, gameID, winner); err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	return nil
}

// standingsWinner breaks a turn-cap tie: most territories, then most
// money. A full tie is a draw.
func standingsWinner(st *conquest.State, seats []string) string {
	winner := ""
	bestOwned, bestMoney := -1, -1
	tied := false
	for _, name := range seats {
		owned := st.OwnedCount(name)
		money := 0
		if p := st.PlayerByName(name); p != nil {
			money = p.Money
		}
		switch {
		case owned > bestOwned || (owned == bestOwned && money > bestMoney):
			winner = name
			bestOwned, bestMoney = owned, money
			tied = false
		case owned == bestOwned && money == bestMoney:
			tied = true
		}
	}
	if tied {
		return ""
	}
	return winner
}

func fillStandings(result *ArenaResult, st *conquest.State, seats []string) {
	result.Territories = make(map[string]int, len(seats))
	result.Money = make(map[string]int, len(seats))
	for _, name := range seats {
		result.Territories[name] = st.OwnedCount(name)
		if p := st.PlayerByName(name); p != nil {
			result.Money[name] = p.Money
		}
	}
}
