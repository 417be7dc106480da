package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/conquestlab/landgrab/internal/logger"
	"github.com/conquestlab/landgrab/internal/model"
	"github.com/conquestlab/landgrab/internal/repository"
	"github.com/conquestlab/landgrab/pkg/conquest"
)

var (
	ErrGameNotFound        = errors.New("game not found")
	ErrGameFinished        = errors.New("game is finished")
	ErrGameNotWaiting      = errors.New("game is not in waiting status")
	ErrNameRequired        = errors.New("player name required")
	ErrNameTaken           = errors.New("player name already taken")
	ErrWrongRoomPassword   = errors.New("incorrect room password")
	ErrWrongPlayerPassword = errors.New("incorrect player password")
	ErrNotCreator          = errors.New("only the creator can do this")
	ErrCatalogDisabled     = errors.New("game catalog is not configured")
	ErrJournalDisabled     = errors.New("action journal is not configured")
)

// hexPalette is the server-side color pool for players who express no
// preference.
var hexPalette = []string{
	"#C85050", // red
	"#64C864", // green
	"#3C78C8", // blue
	"#F5F5F5", // white-ish
	"#D0C248", // yellow
	"#A050C8", // violet
	"#50A0A0",
	"#C87A50",
}

// GameService handles room lifecycle: create-or-join, seeding the map,
// starting claims, and bot seats. The Redis document is the source of
// truth; the Postgres catalog mirrors lobby metadata and is optional.
type GameService struct {
	docs        repository.DocStore
	catalog     repository.GameCatalog
	resolver    *conquest.Resolver
	gameMap     *conquest.Map
	broadcaster Broadcaster
}

// NewGameService creates a GameService. catalog may be nil when Postgres
// is not configured; broadcaster may be nil when WS is disabled.
func NewGameService(docs repository.DocStore, catalog repository.GameCatalog, resolver *conquest.Resolver, gameMap *conquest.Map, broadcaster Broadcaster) *GameService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &GameService{
		docs:        docs,
		catalog:     catalog,
		resolver:    resolver,
		gameMap:     gameMap,
		broadcaster: broadcaster,
	}
}

// hashPassword returns the lowercase hex SHA-256 of the password. Blank
// passwords hash too, so comparisons never special-case the empty string.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// chooseColor normalizes a #RGB/#RRGGBB preference to uppercase #RRGGBB,
// or picks a random palette color when the preference is unusable.
func chooseColor(preferred string) string {
	if strings.HasPrefix(preferred, "#") {
		s := strings.ToUpper(strings.TrimPrefix(preferred, "#"))
		if len(s) == 3 {
			s = strings.Repeat(string(s[0]), 2) + strings.Repeat(string(s[1]), 2) + strings.Repeat(string(s[2]), 2)
		}
		if len(s) >= 6 && isHex(s[:6]) {
			return "#" + s[:6]
		}
	}
	return hexPalette[rand.Intn(len(hexPalette))]
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

func newPlayer(name, color string) conquest.Player {
	return conquest.Player{
		Name:          name,
		Money:         conquest.StartingMoney,
		Color:         color,
		TroopBuyLimit: conquest.GatherCapMax,
	}
}

// CreateOrJoin creates the room when the id is unused, otherwise joins
// it. Rejoining under a known name just verifies the player password and
// changes nothing. The returned flag reports whether the room was
// created by this call.
func (s *GameService) CreateOrJoin(ctx context.Context, gameID, userID, playerName, playerPassword, roomPassword, color string) (*model.GameDoc, bool, error) {
	if playerName == "" {
		return nil, false, ErrNameRequired
	}

	created := false
	joined := false
	doc, err := s.docs.Update(ctx, gameID, func(doc *model.GameDoc) (*model.GameDoc, error) {
		if doc == nil {
			created = true
			st := conquest.NewState()
			st.Players = []conquest.Player{newPlayer(playerName, chooseColor(color))}
			st.Logs = []string{stamp(fmt.Sprintf("%s created the game.", playerName))}
			return &model.GameDoc{
				State:            *st,
				RoomPasswordHash: hashPassword(roomPassword),
				HasPassword:      roomPassword != "",
				PlayerPasswords:  map[string]string{playerName: hashPassword(playerPassword)},
				CreatedAt:        time.Now().UTC(),
			}, nil
		}

		if doc.HasPassword && hashPassword(roomPassword) != doc.RoomPasswordHash {
			return nil, ErrWrongRoomPassword
		}
		if doc.PlayerByName(playerName) != nil {
			if hashPassword(playerPassword) != doc.PlayerPasswords[playerName] {
				return nil, ErrWrongPlayerPassword
			}
			// Rejoin: nothing to write.
			return nil, nil
		}

		joined = true
		next := *doc
		next.State = *doc.State.Clone()
		next.Players = append(next.Players, newPlayer(playerName, chooseColor(color)))
		if next.PlayerPasswords == nil {
			next.PlayerPasswords = make(map[string]string)
		} else {
			pw := make(map[string]string, len(next.PlayerPasswords)+1)
			for k, v := range next.PlayerPasswords {
				pw[k] = v
			}
			next.PlayerPasswords = pw
		}
		next.PlayerPasswords[playerName] = hashPassword(playerPassword)
		return &next, nil
	})
	if err != nil {
		return nil, false, err
	}

	s.mirrorJoin(ctx, gameID, userID, playerName, created, doc.HasPassword)

	if created || joined {
		s.announce(ctx, &model.GameEvent{
			Type:   model.EventPlayerJoined,
			GameID: gameID,
			Actor:  playerName,
			Doc:    doc.Sanitized(),
		})
	}
	return doc.Sanitized(), created, nil
}

// mirrorJoin records the room and seat in the lobby catalog. Catalog
// writes are best-effort: the document store already committed.
func (s *GameService) mirrorJoin(ctx context.Context, gameID, userID, playerName string, created, hasPassword bool) {
	if s.catalog == nil {
		return
	}
	if created {
		if _, err := s.catalog.Create(ctx, gameID, userID, hasPassword); err != nil {
			rlog := logger.ForRequest(ctx)
			rlog.Error().Err(err).Str("gameId", gameID).Msg("Failed to mirror game to catalog")
			return
		}
	}
	if userID == "" {
		return
	}
	if err := s.catalog.AddPlayer(ctx, gameID, userID, playerName); err != nil {
		rlog := logger.ForRequest(ctx)
		rlog.Error().Err(err).Str("gameId", gameID).Str("player", playerName).Msg("Failed to mirror seat to catalog")
	}
}

// SetupCountries seeds the document's territories from the map, once.
// Calls against an already-seeded game change nothing.
func (s *GameService) SetupCountries(ctx context.Context, gameID string) (*model.GameDoc, error) {
	doc, err := s.docs.Update(ctx, gameID, func(doc *model.GameDoc) (*model.GameDoc, error) {
		if doc == nil {
			return nil, ErrGameNotFound
		}
		if len(doc.Countries) > 0 {
			return nil, nil
		}
		next := *doc
		next.State = *doc.State.Clone()
		next.Countries = s.gameMap.InitialCountries()
		return &next, nil
	})
	if err != nil {
		return nil, err
	}
	return doc.Sanitized(), nil
}

// ClaimStartingTerritory claims an unowned territory for the named
// player before regular turns begin. Invalid claims only log.
func (s *GameService) ClaimStartingTerritory(ctx context.Context, gameID, playerName string, territoryID int) (*model.GameDoc, bool, error) {
	claimed := false
	doc, err := s.docs.Update(ctx, gameID, func(doc *model.GameDoc) (*model.GameDoc, error) {
		if doc == nil {
			return nil, ErrGameNotFound
		}
		next, ok, err := s.resolver.ApplyStartingClaim(&doc.State, playerName, territoryID)
		if err != nil {
			return nil, err
		}
		claimed = ok
		updated := *doc
		updated.State = *next
		return &updated, nil
	})
	if err != nil {
		return nil, false, err
	}

	s.announce(ctx, &model.GameEvent{
		Type:   model.EventStartingClaim,
		GameID: gameID,
		Actor:  playerName,
		Doc:    doc.Sanitized(),
	})
	return doc.Sanitized(), claimed, nil
}

// AddBot appends a bot seat and claims one random unclaimed territory
// for it. An empty name gets the next free "Bot N"; an empty playstyle
// lets the bot runtime pick one at its first decision.
func (s *GameService) AddBot(ctx context.Context, gameID, name, playstyle string) (*model.GameDoc, string, error) {
	botName := ""
	doc, err := s.docs.Update(ctx, gameID, func(doc *model.GameDoc) (*model.GameDoc, error) {
		if doc == nil {
			return nil, ErrGameNotFound
		}
		botName = name
		if botName == "" {
			botName = nextBotName(&doc.State)
		} else if doc.PlayerByName(botName) != nil {
			return nil, ErrNameTaken
		}

		next := *doc
		next.State = *doc.State.Clone()
		p := newPlayer(botName, chooseColor(""))
		p.IsBot = true
		next.Players = append(next.Players, p)

		if unclaimed := next.UnclaimedIDs(); len(unclaimed) > 0 {
			pick := unclaimed[rand.Intn(len(unclaimed))]
			claimed, _, err := s.resolver.ApplyStartingClaim(&next.State, botName, pick)
			if err != nil {
				return nil, err
			}
			next.State = *claimed
		}
		return &next, nil
	})
	if err != nil {
		return nil, "", err
	}

	if s.catalog != nil {
		if err := s.catalog.AddBot(ctx, gameID, botName, playstyle); err != nil {
			rlog := logger.ForRequest(ctx)
			rlog.Error().Err(err).Str("gameId", gameID).Str("bot", botName).Msg("Failed to mirror bot seat to catalog")
		}
	}

	s.announce(ctx, &model.GameEvent{
		Type:   model.EventPlayerJoined,
		GameID: gameID,
		Actor:  botName,
		Doc:    doc.Sanitized(),
	})
	return doc.Sanitized(), botName, nil
}

func nextBotName(st *conquest.State) string {
	n := 1
	for _, p := range st.Players {
		if p.IsBot {
			n++
		}
	}
	for st.PlayerByName(fmt.Sprintf("Bot %d", n)) != nil {
		n++
	}
	return fmt.Sprintf("Bot %d", n)
}

// GetGame returns the sanitized game document.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.GameDoc, error) {
	doc, err := s.docs.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrGameNotFound
	}
	return doc.Sanitized(), nil
}

// ListGames returns lobby listings from the catalog.
func (s *GameService) ListGames(ctx context.Context, userID string, filter string) ([]model.Game, error) {
	if s.catalog == nil {
		return nil, ErrCatalogDisabled
	}
	switch filter {
	case "my":
		return s.catalog.ListByUser(ctx, userID)
	case "finished":
		return s.catalog.ListFinished(ctx)
	default:
		return s.catalog.ListOpen(ctx)
	}
}

// FinishGame ends a game, recording the winner (empty = draw). Only the
// catalog creator may finish a game; without a catalog anyone in the
// room can.
func (s *GameService) FinishGame(ctx context.Context, gameID, userID, winner string) (*model.GameDoc, error) {
	if err := s.requireCreator(ctx, gameID, userID); err != nil {
		return nil, err
	}

	doc, err := s.docs.Update(ctx, gameID, func(doc *model.GameDoc) (*model.GameDoc, error) {
		if doc == nil {
			return nil, ErrGameNotFound
		}
		if doc.Status == conquest.StatusFinished {
			return nil, ErrGameFinished
		}
		next := *doc
		next.State = *doc.State.Clone()
		next.Status = conquest.StatusFinished
		if winner != "" {
			next.AppendLog(stamp(fmt.Sprintf("Game over: %s wins.", winner)))
		} else {
			next.AppendLog(stamp("Game ended in a draw."))
		}
		return &next, nil
	})
	if err != nil {
		return nil, err
	}

	if s.catalog != nil {
		if err := s.catalog.SetFinished(ctx, gameID, winner); err != nil {
			rlog := logger.ForRequest(ctx)
			rlog.Error().Err(err).Str("gameId", gameID).Msg("Failed to mark game finished in catalog")
		}
	}

	s.announce(ctx, &model.GameEvent{
		Type:   model.EventGameFinished,
		GameID: gameID,
		Actor:  winner,
		Doc:    doc.Sanitized(),
	})
	return doc.Sanitized(), nil
}

// DeleteGame removes a waiting room. Only the catalog creator may delete.
func (s *GameService) DeleteGame(ctx context.Context, gameID, userID string) error {
	if err := s.requireCreator(ctx, gameID, userID); err != nil {
		return err
	}

	doc, err := s.docs.Get(ctx, gameID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrGameNotFound
	}
	if doc.Status != conquest.StatusWaiting {
		return ErrGameNotWaiting
	}

	if err := s.docs.Delete(ctx, gameID); err != nil {
		return err
	}
	if s.catalog != nil {
		if err := s.catalog.Delete(ctx, gameID); err != nil {
			rlog := logger.ForRequest(ctx)
			rlog.Error().Err(err).Str("gameId", gameID).Msg("Failed to delete game from catalog")
		}
	}
	return nil
}

func (s *GameService) requireCreator(ctx context.Context, gameID, userID string) error {
	if s.catalog == nil {
		return nil
	}
	game, err := s.catalog.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		// The room exists only in Redis; nobody owns it.
		return nil
	}
	if game.CreatorID != userID {
		return ErrNotCreator
	}
	return nil
}

// announce pushes the event to Redis for cross-process subscribers and
// to the local WebSocket hub. Delivery is best-effort.
func (s *GameService) announce(ctx context.Context, ev *model.GameEvent) {
	if err := s.docs.Publish(ctx, ev); err != nil {
		rlog := logger.ForRequest(ctx)
		rlog.Error().Err(err).Str("gameId", ev.GameID).Str("type", ev.Type).Msg("Failed to publish game event")
	}
	s.broadcaster.BroadcastGameEvent(ev.GameID, model.EventGameUpdate, ev.Doc)
}

// stamp prefixes a log line with the wall-clock time, matching the
// resolver's log format.
func stamp(msg string) string {
	return "[" + time.Now().Format("15:04:05") + "] " + msg
}
