package model

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/benbeisheim/clickchess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Conn is the part of a websocket connection a game writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// The connections for a specific game
type GameConnections struct {
	connections map[string]Conn // playerID -> connection
	mu          sync.RWMutex
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]Conn),
	}
}

type GameMode string

const (
	ModeStandard GameMode = "standard"
	ModeHotseat  GameMode = "hotseat"
)

// Game wraps an Engine for a networked session. Every engine call happens
// under mu, so moves are applied strictly one at a time.
type Game struct {
	ID           string
	Mode         GameMode
	mu           sync.Mutex
	engine       *Engine
	players      Players
	lastEvents   []Event
	kingCaptured *Color
	connections  *GameConnections
	logger       zerolog.Logger
}

type GameState struct {
	ID             string          `json:"id"`
	Mode           GameMode        `json:"mode"`
	Board          [][]SquareState `json:"board"`
	FEN            string          `json:"fen"`
	ToMove         Color           `json:"toMove"`
	SelectedSquare *Square         `json:"selectedSquare"`
	LegalMoves     []Square        `json:"legalMoves"`
	LastEvents     []Event         `json:"lastEvents"`
	KingCaptured   *Color          `json:"kingCaptured"` // informational, play continues
	Players        Players         `json:"players"`
}

// SquareState is one cell of a state snapshot, indexed [y][x].
type SquareState struct {
	Square Square `json:"square"`
	Light  bool   `json:"light"`
	Piece  *Piece `json:"piece"`
}

func NewGame(id string, mode GameMode) *Game {
	if mode == "" {
		mode = ModeStandard
	}
	return &Game{
		ID:          id,
		Mode:        mode,
		engine:      NewEngine(),
		lastEvents:  []Event{},
		connections: NewGameConnections(),
		logger:      log.With().Str("gameId", id).Logger(),
	}
}

// AddPlayer seats playerID, White first. A player who is already seated
// gets their existing color back. In hotseat mode the first player takes
// both seats.
func (g *Game) AddPlayer(playerID string) (Color, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seats := g.players.seatsOf(playerID); len(seats) > 0 {
		return seats[0], nil
	}

	if g.Mode == ModeHotseat {
		if g.players.White.ID != "" {
			return "", ErrGameFull
		}
		g.players.White = ClientPlayer{ID: playerID, Color: White}
		g.players.Black = ClientPlayer{ID: playerID, Color: Black}
		g.logger.Info().Str("playerId", playerID).Msg("player seated on both colors")
		return White, nil
	}

	if g.players.White.ID == "" {
		g.players.White = ClientPlayer{ID: playerID, Color: White}
		g.logger.Info().Str("playerId", playerID).Msg("player seated as white")
		return White, nil
	}
	if g.players.Black.ID == "" {
		g.players.Black = ClientPlayer{ID: playerID, Color: Black}
		g.logger.Info().Str("playerId", playerID).Msg("player seated as black")
		return Black, nil
	}
	return "", ErrGameFull
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.players.seatsOf(playerID)) > 0
}

// Click forwards a square click from playerID to the engine. Only a player
// seated on the color to move may click.
func (g *Game) Click(playerID string, sq Square) (ClickResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !sq.Valid() {
		return ClickResult{}, ErrOutOfBounds
	}
	seats := g.players.seatsOf(playerID)
	if len(seats) == 0 {
		return ClickResult{}, ErrNotInGame
	}
	if !hasColor(seats, g.engine.Turn()) {
		return ClickResult{}, ErrNotYourTurn
	}

	events := g.engine.HandleClick(sq)
	for _, ev := range events {
		if ev.Type == EventKingCaptured {
			c := ev.Color
			g.kingCaptured = &c
			g.logger.Info().Str("color", string(c)).Msg("king captured, play continues")
		}
	}
	g.lastEvents = append([]Event{}, events...)

	state := g.state()
	g.broadcastState(state)
	return ClickResult{Events: g.lastEvents, State: state}, nil
}

func hasColor(colors []Color, c Color) bool {
	for _, have := range colors {
		if have == c {
			return true
		}
	}
	return false
}

func (g *Game) State() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state()
}

func (g *Game) state() GameState {
	board := g.engine.Board()
	cells := make([][]SquareState, 8)
	for y := 0; y < 8; y++ {
		cells[y] = make([]SquareState, 8)
		for x := 0; x < 8; x++ {
			sq := Square{X: x, Y: y}
			cell := SquareState{Square: sq, Light: sq.IsLight()}
			if p, ok := board.Get(sq); ok {
				cell.Piece = &p
			}
			cells[y][x] = cell
		}
	}

	state := GameState{
		ID:         g.ID,
		Mode:       g.Mode,
		Board:      cells,
		FEN:        board.FEN(),
		ToMove:     board.Turn(),
		LegalMoves: []Square{},
		LastEvents: append([]Event{}, g.lastEvents...),
		Players:    g.players,
	}
	if sel, ok := g.engine.Selected(); ok {
		state.SelectedSquare = &sel
		state.LegalMoves = g.engine.LegalTargets(sel)
	}
	if g.kingCaptured != nil {
		c := *g.kingCaptured
		state.KingCaptured = &c
	}
	return state
}

func (g *Game) RegisterConnection(playerID string, conn Conn) error {
	connID := fmt.Sprintf("%p", conn)

	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.players.seatsOf(playerID)) == 0 && !g.players.hasOpenSeat() {
		return ErrNotAuthorized
	}

	g.connections.mu.Lock()
	if _, exists := g.connections.connections[playerID]; exists {
		// Keep the existing connection and reject the new one
		g.connections.mu.Unlock()
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(
				websocket.CloseNormalClosure,
				"Connection already exists",
			),
		)
		conn.Close()
		g.logger.Debug().Str("playerId", playerID).Str("conn", connID).Msg("rejected duplicate connection")
		return nil
	}
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()
	g.logger.Debug().Str("playerId", playerID).Str("conn", connID).Msg("registered connection")

	g.broadcastState(g.state())
	return nil
}

// UnregisterConnection removes conn only if it is still the player's current connection.
func (g *Game) UnregisterConnection(playerID string, conn Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	if current, exists := g.connections.connections[playerID]; exists && current == conn {
		delete(g.connections.connections, playerID)
		g.logger.Debug().Str("playerId", playerID).Msg("unregistered connection")
	}
}

// broadcastState sends state to every connection, dropping the ones that fail.
// Called with g.mu held so snapshots go out in the order they were taken.
func (g *Game) broadcastState(state GameState) {
	payload, err := json.Marshal(state)
	if err != nil {
		g.logger.Error().Err(err).Msg("failed to marshal state")
		return
	}

	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	for playerID, conn := range g.connections.connections {
		if err := conn.WriteJSON(ws.Message{
			Type:    ws.MessageTypeGameState,
			Payload: json.RawMessage(payload),
		}); err != nil {
			g.logger.Warn().Err(err).Str("playerId", playerID).Msg("failed to send state, dropping connection")
			delete(g.connections.connections, playerID)
			continue
		}
	}
}
