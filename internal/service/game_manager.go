// service/game_manager.go
package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/benbeisheim/clickchess-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type GameManager struct {
	games            map[string]*model.Game
	queue            *model.Queue
	matchingChannels map[string]chan string
	mu               sync.RWMutex
}

// NewGameManager starts the matchmaking loop, which runs until ctx is done.
func NewGameManager(ctx context.Context, matchInterval time.Duration) *GameManager {
	gm := &GameManager{
		games:            make(map[string]*model.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
	}

	go gm.processMatchmaking(ctx, matchInterval)

	return gm
}

func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	log.Debug().Str("playerId", playerID).Msg("registering matchmaking channel")

	if existingCh, exists := gm.matchingChannels[playerID]; exists {
		// Remove from map first to prevent any new writes
		delete(gm.matchingChannels, playerID)
		close(existingCh)
	}

	gm.matchingChannels[playerID] = ch
	return nil
}

// UnregisterMatchmakingChannel drops the channel without closing it; the
// creator of the channel owns closing it.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	log.Debug().Str("playerId", playerID).Msg("unregistering matchmaking channel")

	delete(gm.matchingChannels, playerID)
}

func (gm *GameManager) processMatchmaking(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gm.matchQueuedPlayers()
		}
	}
}

// matchQueuedPlayers pairs everyone currently waiting into new games.
func (gm *GameManager) matchQueuedPlayers() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for {
		player1, player2, ok := gm.queue.GetNextPair()
		if !ok {
			return
		}

		gameID := uuid.New().String()
		game := model.NewGame(gameID, model.ModeStandard)
		p1Color, err := game.AddPlayer(player1.ID)
		if err != nil {
			log.Error().Err(err).Str("playerId", player1.ID).Msg("adding matched player")
			continue
		}
		p2Color, err := game.AddPlayer(player2.ID)
		if err != nil {
			log.Error().Err(err).Str("playerId", player2.ID).Msg("adding matched player")
			continue
		}
		gm.games[gameID] = game
		log.Info().Str("gameId", gameID).Str("white", player1.ID).Str("black", player2.ID).Msg("match found")

		sent1 := gm.notifyMatch(player1.ID, model.MatchFoundEvent{GameID: gameID, Color: p1Color})
		sent2 := gm.notifyMatch(player2.ID, model.MatchFoundEvent{GameID: gameID, Color: p2Color})
		if !sent1 || !sent2 {
			log.Warn().Str("gameId", gameID).Msg("failed to notify all players of match")
		}
	}
}

// notifyMatch sends the event and closes the player's channel. Called with gm.mu held.
func (gm *GameManager) notifyMatch(playerID string, event model.MatchFoundEvent) bool {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		return false
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("marshal match event")
		return false
	}

	select {
	case ch <- string(payload):
		delete(gm.matchingChannels, playerID)
		close(ch)
		return true
	default:
		return false
	}
}

func (gm *GameManager) CreateGame(gameID string, mode model.GameMode) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return model.ErrGameExists
	}

	gm.games[gameID] = model.NewGame(gameID, mode)
	return nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, model.ErrGameNotFound
	}

	return game, nil
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (model.Color, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return "", err
	}
	return game.AddPlayer(playerID)
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	return gm.queue.AddPlayer(model.Player{ID: playerID})
}

func (gm *GameManager) LeaveMatchmaking(playerID string) bool {
	return gm.queue.RemovePlayer(playerID)
}

func (gm *GameManager) GetGameState(gameID string) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return game.State(), nil
}

func (gm *GameManager) Click(gameID string, playerID string, sq model.Square) (model.ClickResult, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.ClickResult{}, err
	}
	return game.Click(playerID, sq)
}

func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn model.Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string, conn model.Conn) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}
	game.UnregisterConnection(playerID, conn)
}
