package model

import (
	"strings"
	"testing"
)

func TestNewInitialBoard(t *testing.T) {
	b := NewInitialBoard()

	if got := b.Count(White); got != 16 {
		t.Fatalf("expected 16 white pieces, got %d", got)
	}
	if got := b.Count(Black); got != 16 {
		t.Fatalf("expected 16 black pieces, got %d", got)
	}
	if b.Turn() != White {
		t.Fatalf("expected white to move, got %s", b.Turn())
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			p, ok := b.Get(Square{X: x, Y: y})
			switch y {
			case 0, 1:
				if !ok || p.Color != White {
					t.Errorf("expected white piece at (%d,%d), got %+v (ok=%v)", x, y, p, ok)
				}
			case 6, 7:
				if !ok || p.Color != Black {
					t.Errorf("expected black piece at (%d,%d), got %+v (ok=%v)", x, y, p, ok)
				}
			default:
				if ok {
					t.Errorf("expected (%d,%d) empty, got %+v", x, y, p)
				}
			}
			if ok && p.HasMoved {
				t.Errorf("piece at (%d,%d) should start unmoved", x, y)
			}
		}
	}

	for x, want := range backRank {
		if p, _ := b.Get(Square{X: x, Y: 0}); p.Type != want {
			t.Errorf("white back rank file %d: expected %s, got %s", x, want, p.Type)
		}
		if p, _ := b.Get(Square{X: x, Y: 7}); p.Type != want {
			t.Errorf("black back rank file %d: expected %s, got %s", x, want, p.Type)
		}
		if p, _ := b.Get(Square{X: x, Y: 1}); p.Type != Pawn {
			t.Errorf("expected white pawn on file %d", x)
		}
		if p, _ := b.Get(Square{X: x, Y: 6}); p.Type != Pawn {
			t.Errorf("expected black pawn on file %d", x)
		}
	}
}

func TestGetReturnsCopy(t *testing.T) {
	b := NewInitialBoard()
	p, _ := b.Get(Square{X: 0, Y: 0})
	p.Type = Queen
	p.HasMoved = true

	again, _ := b.Get(Square{X: 0, Y: 0})
	if again.Type != Rook || again.HasMoved {
		t.Fatalf("mutating a returned piece changed the board: %+v", again)
	}
}

func TestBoardFEN(t *testing.T) {
	b := NewInitialBoard()
	if got, want := b.FEN(), "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	e := newEngine(b)
	e.MovePiece(Square{X: 4, Y: 1}, Square{X: 4, Y: 3})
	if got, want := b.FEN(), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestBoardDraw(t *testing.T) {
	out := NewInitialBoard().Draw()
	if strings.Count(out, "\n") < 7 {
		t.Fatalf("expected a multi-line diagram, got %q", out)
	}
}

func TestSquareHelpers(t *testing.T) {
	tests := []struct {
		sq    Square
		name  string
		valid bool
		light bool
	}{
		{Square{X: 0, Y: 0}, "a1", true, true},
		{Square{X: 4, Y: 1}, "e2", true, false},
		{Square{X: 7, Y: 7}, "h8", true, true},
		{Square{X: 8, Y: 0}, "", false, false},
		{Square{X: 0, Y: -1}, "", false, false},
	}

	for _, tt := range tests {
		if got := tt.sq.Valid(); got != tt.valid {
			t.Errorf("%+v: expected Valid()=%v, got %v", tt.sq, tt.valid, got)
		}
		if !tt.valid {
			continue
		}
		if got := tt.sq.String(); got != tt.name {
			t.Errorf("%+v: expected %q, got %q", tt.sq, tt.name, got)
		}
		if got := tt.sq.IsLight(); got != tt.light {
			t.Errorf("%s: expected IsLight()=%v, got %v", tt.name, tt.light, got)
		}
	}
}

func TestColorOpposite(t *testing.T) {
	if White.Opposite() != Black || Black.Opposite() != White {
		t.Fatalf("Opposite is not an involution between white and black")
	}
}
