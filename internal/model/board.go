package model

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

type PieceType string

func (p PieceType) notation() chess.PieceType {
	switch p {
	case King:
		return chess.King
	case Queen:
		return chess.Queen
	case Rook:
		return chess.Rook
	case Bishop:
		return chess.Bishop
	case Knight:
		return chess.Knight
	case Pawn:
		return chess.Pawn
	}
	return chess.NoPieceType
}

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opposite returns the other side.
func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) notation() chess.Color {
	if c == White {
		return chess.White
	}
	return chess.Black
}

type Piece struct {
	Type     PieceType `json:"type"`
	Color    Color     `json:"color"`
	HasMoved bool      `json:"hasMoved"`
}

// Square is a board coordinate. X is the file and Y the rank, both 0..7.
// Rank 0 is White's back rank.
type Square struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (s Square) Valid() bool {
	return s.X >= 0 && s.X < 8 && s.Y >= 0 && s.Y < 8
}

// IsLight reports the shading of the square; (0,0) is light.
func (s Square) IsLight() bool {
	return (s.X+s.Y)%2 == 0
}

func (s Square) String() string {
	return fmt.Sprintf("%c%d", s.X+'a', s.Y+1)
}

// Board is the 8x8 grid plus the side to move. Cells are indexed [y][x].
// All mutation goes through the Engine.
type Board struct {
	cells [8][8]*Piece
	turn  Color
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

func newEmptyBoard() *Board {
	return &Board{turn: White}
}

// NewInitialBoard returns the standard starting arrangement with White to move.
func NewInitialBoard() *Board {
	board := newEmptyBoard()
	for x := 0; x < 8; x++ {
		board.cells[0][x] = &Piece{Type: backRank[x], Color: White}
		board.cells[1][x] = &Piece{Type: Pawn, Color: White}
		board.cells[6][x] = &Piece{Type: Pawn, Color: Black}
		board.cells[7][x] = &Piece{Type: backRank[x], Color: Black}
	}
	return board
}

// Get returns a copy of the piece on sq. The square must be on the board.
func (b *Board) Get(sq Square) (Piece, bool) {
	p := b.cells[sq.Y][sq.X]
	if p == nil {
		return Piece{}, false
	}
	return *p, true
}

func (b *Board) Turn() Color {
	return b.turn
}

// Count returns how many pieces of the given color are on the board.
func (b *Board) Count(color Color) int {
	n := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if b.cells[y][x] != nil && b.cells[y][x].Color == color {
				n++
			}
		}
	}
	return n
}

func (b *Board) at(sq Square) *Piece {
	return b.cells[sq.Y][sq.X]
}

func (b *Board) set(sq Square, p *Piece) {
	b.cells[sq.Y][sq.X] = p
}

func (b *Board) clone() *Board {
	c := &Board{turn: b.turn}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if p := b.cells[y][x]; p != nil {
				cp := *p
				c.cells[y][x] = &cp
			}
		}
	}
	return c
}

func (b *Board) notation() *chess.Board {
	m := make(map[chess.Square]chess.Piece)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			p := b.cells[y][x]
			if p == nil {
				continue
			}
			m[chess.NewSquare(chess.File(x), chess.Rank(y))] = chess.NewPiece(p.Type.notation(), p.Color.notation())
		}
	}
	return chess.NewBoard(m)
}

// FEN returns the piece placement field followed by the side to move,
// e.g. "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w".
func (b *Board) FEN() string {
	side := "w"
	if b.turn == Black {
		side = "b"
	}
	return b.notation().String() + " " + side
}

// Draw renders the board as a text diagram with rank 8 on top.
func (b *Board) Draw() string {
	return strings.TrimRight(b.notation().Draw(), "\n")
}
