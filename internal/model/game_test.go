package model

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/benbeisheim/clickchess-backend/internal/ws"
)

type fakeConn struct {
	mu       sync.Mutex
	messages []ws.Message
	closed   bool
	failing  bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("broken pipe")
	}
	msg, ok := v.(ws.Message)
	if !ok {
		return errors.New("unexpected message type")
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) lastState(t *testing.T) GameState {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		t.Fatalf("no messages received")
	}
	msg := f.messages[len(f.messages)-1]
	if msg.Type != ws.MessageTypeGameState {
		t.Fatalf("expected gameState message, got %s", msg.Type)
	}
	var state GameState
	if err := json.Unmarshal(msg.Payload, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return state
}

func newSeatedGame(t *testing.T) *Game {
	t.Helper()
	g := NewGame("g1", ModeStandard)
	if c, err := g.AddPlayer("alice"); err != nil || c != White {
		t.Fatalf("seat alice: color=%s err=%v", c, err)
	}
	if c, err := g.AddPlayer("bob"); err != nil || c != Black {
		t.Fatalf("seat bob: color=%s err=%v", c, err)
	}
	return g
}

func TestAddPlayerSeats(t *testing.T) {
	g := newSeatedGame(t)

	if _, err := g.AddPlayer("carol"); !errors.Is(err, ErrGameFull) {
		t.Fatalf("expected ErrGameFull, got %v", err)
	}
	if c, err := g.AddPlayer("bob"); err != nil || c != Black {
		t.Fatalf("rejoining should return the existing seat, got %s %v", c, err)
	}
	if !g.IsPlayerInGame("alice") || g.IsPlayerInGame("carol") {
		t.Fatalf("IsPlayerInGame reports wrong seats")
	}
}

func TestClickRejections(t *testing.T) {
	g := newSeatedGame(t)

	tests := []struct {
		name     string
		playerID string
		square   Square
		want     error
	}{
		{"out of bounds", "alice", Square{X: 8, Y: 0}, ErrOutOfBounds},
		{"negative", "alice", Square{X: 0, Y: -1}, ErrOutOfBounds},
		{"spectator", "carol", Square{X: 4, Y: 1}, ErrNotInGame},
		{"anonymous", "", Square{X: 4, Y: 1}, ErrNotInGame},
		{"wrong turn", "bob", Square{X: 4, Y: 6}, ErrNotYourTurn},
	}
	for _, tt := range tests {
		if _, err := g.Click(tt.playerID, tt.square); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
	if state := g.State(); state.SelectedSquare != nil || state.ToMove != White {
		t.Fatalf("rejected clicks must not touch the engine: %+v", state)
	}
}

func TestClickPlaysMoveAndBroadcasts(t *testing.T) {
	g := newSeatedGame(t)
	conn := &fakeConn{}
	if err := g.RegisterConnection("bob", conn); err != nil {
		t.Fatalf("register: %v", err)
	}
	if initial := conn.lastState(t); initial.ToMove != White {
		t.Fatalf("expected an initial state broadcast")
	}

	result, err := g.Click("alice", Square{X: 4, Y: 1})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(result.Events) != 1 || result.Events[0].Type != EventPieceSelected {
		t.Fatalf("unexpected events %+v", result.Events)
	}
	state := conn.lastState(t)
	if state.SelectedSquare == nil || *state.SelectedSquare != (Square{X: 4, Y: 1}) {
		t.Fatalf("expected e2 selected in broadcast, got %+v", state.SelectedSquare)
	}
	if len(state.LegalMoves) != 2 {
		t.Fatalf("expected two highlighted targets, got %v", state.LegalMoves)
	}

	result, err = g.Click("alice", Square{X: 4, Y: 3})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if result.State.ToMove != Black {
		t.Fatalf("expected black to move, got %s", result.State.ToMove)
	}
	state = conn.lastState(t)
	if state.FEN != "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b" {
		t.Fatalf("unexpected fen %q", state.FEN)
	}
	if state.Board[3][4].Piece == nil || state.Board[3][4].Piece.Type != Pawn {
		t.Fatalf("expected pawn on e4 in snapshot")
	}
	if !state.Board[0][0].Light || state.Board[0][1].Light {
		t.Fatalf("unexpected square shading in snapshot")
	}
	if len(state.LastEvents) != len(result.Events) {
		t.Fatalf("snapshot should carry the last click's events")
	}

	if _, err := g.Click("alice", Square{X: 3, Y: 1}); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("white must wait for black, got %v", err)
	}
}

func TestHotseatGame(t *testing.T) {
	g := NewGame("hs", ModeHotseat)
	if c, err := g.AddPlayer("solo"); err != nil || c != White {
		t.Fatalf("seat solo: %s %v", c, err)
	}
	if _, err := g.AddPlayer("other"); !errors.Is(err, ErrGameFull) {
		t.Fatalf("hotseat game should be full, got %v", err)
	}

	clicks := []Square{{X: 4, Y: 1}, {X: 4, Y: 3}, {X: 4, Y: 6}, {X: 4, Y: 4}}
	for _, s := range clicks {
		if _, err := g.Click("solo", s); err != nil {
			t.Fatalf("click %s: %v", s, err)
		}
	}
	if state := g.State(); state.ToMove != White {
		t.Fatalf("expected white to move after two plies, got %s", state.ToMove)
	}
}

func TestKingCaptureRecordedAndPlayContinues(t *testing.T) {
	g := newSeatedGame(t)
	b := newEmptyBoard()
	place(b, Square{X: 3, Y: 3}, Queen, White)
	place(b, Square{X: 3, Y: 6}, King, Black)
	place(b, Square{X: 0, Y: 7}, Rook, Black)
	g.engine = newEngine(b)

	g.Click("alice", Square{X: 3, Y: 3})
	result, err := g.Click("alice", Square{X: 3, Y: 6})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if result.State.KingCaptured == nil || *result.State.KingCaptured != Black {
		t.Fatalf("expected black king capture recorded, got %v", result.State.KingCaptured)
	}

	if _, err := g.Click("bob", Square{X: 0, Y: 7}); err != nil {
		t.Fatalf("black should still be able to play: %v", err)
	}
}

func TestRegisterConnection(t *testing.T) {
	g := newSeatedGame(t)

	if err := g.RegisterConnection("carol", &fakeConn{}); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for a stranger in a full game, got %v", err)
	}

	first := &fakeConn{}
	if err := g.RegisterConnection("alice", first); err != nil {
		t.Fatalf("register: %v", err)
	}
	dup := &fakeConn{}
	if err := g.RegisterConnection("alice", dup); err != nil {
		t.Fatalf("duplicate register: %v", err)
	}
	if !dup.closed {
		t.Fatalf("duplicate connection should be closed")
	}

	// An old connection unregistering must not remove the current one.
	g.UnregisterConnection("alice", dup)
	before := len(first.messages)
	g.Click("alice", Square{X: 4, Y: 1})
	if len(first.messages) != before+1 {
		t.Fatalf("current connection should still receive broadcasts")
	}

	g.UnregisterConnection("alice", first)
	g.Click("alice", Square{X: 3, Y: 1})
	if len(first.messages) != before+1 {
		t.Fatalf("unregistered connection should receive nothing")
	}
}

func TestBroadcastDropsFailingConnections(t *testing.T) {
	g := newSeatedGame(t)
	conn := &fakeConn{}
	if err := g.RegisterConnection("bob", conn); err != nil {
		t.Fatalf("register: %v", err)
	}

	conn.failing = true
	g.Click("alice", Square{X: 4, Y: 1})

	g.connections.mu.RLock()
	_, still := g.connections.connections["bob"]
	g.connections.mu.RUnlock()
	if still {
		t.Fatalf("failing connection should have been dropped")
	}
}
