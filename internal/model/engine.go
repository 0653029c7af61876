package model

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Engine owns a Board and runs the select/move state machine on it.
// It is not safe for concurrent use; Game serializes access.
type Engine struct {
	board    *Board
	selected *Square
	logger   zerolog.Logger
}

func NewEngine() *Engine {
	return newEngine(NewInitialBoard())
}

func newEngine(board *Board) *Engine {
	return &Engine{
		board:  board,
		logger: log.With().Str("component", "engine").Logger(),
	}
}

// Board exposes the current position. Board has no exported mutators.
func (e *Engine) Board() *Board {
	return e.board
}

func (e *Engine) Turn() Color {
	return e.board.turn
}

// Selected returns the square of the piece awaiting a destination click.
func (e *Engine) Selected() (Square, bool) {
	if e.selected == nil {
		return Square{}, false
	}
	return *e.selected, true
}

// HandleClick advances the state machine for a click on sq, which the caller
// must have bounds-checked. Rejected clicks produce no error: they either do
// nothing or clear the selection.
func (e *Engine) HandleClick(sq Square) []Event {
	clicked := e.board.at(sq)
	ownPiece := clicked != nil && clicked.Color == e.board.turn

	if e.selected == nil {
		if !ownPiece {
			return nil
		}
		e.selected = &sq
		e.logger.Debug().Str("square", sq.String()).Msg("piece selected")
		return []Event{pieceSelected(sq)}
	}

	if ownPiece {
		e.selected = &sq
		e.logger.Debug().Str("square", sq.String()).Msg("piece reselected")
		return []Event{pieceSelected(sq)}
	}

	from := *e.selected
	e.selected = nil
	if !e.IsValidMove(from, sq) {
		e.logger.Debug().Str("from", from.String()).Str("to", sq.String()).Msg("illegal move, selection cleared")
		return []Event{selectionCleared()}
	}
	events := e.MovePiece(from, sq)
	return append(events, selectionCleared())
}

// IsValidMove reports whether the piece on from may move to to. It checks
// piece geometry and obstruction only; check and pins are not considered.
func (e *Engine) IsValidMove(from, to Square) bool {
	piece := e.board.at(from)
	if piece == nil {
		return false
	}
	if target := e.board.at(to); target != nil && target.Color == piece.Color {
		return false
	}

	dx := abs(to.X - from.X)
	dy := abs(to.Y - from.Y)
	switch piece.Type {
	case Pawn:
		return e.isValidPawnMove(piece, from, to, dx)
	case Rook:
		return (dx == 0 || dy == 0) && e.pathClear(from, to)
	case Bishop:
		return dx == dy && e.pathClear(from, to)
	case Queen:
		return (dx == 0 || dy == 0 || dx == dy) && e.pathClear(from, to)
	case King:
		// dx == dy == 0 is not excluded; the same-color check above already
		// rejects it since the king occupies its own square.
		return dx <= 1 && dy <= 1
	case Knight:
		return (dx == 2 && dy == 1) || (dx == 1 && dy == 2)
	}
	return false
}

func (e *Engine) isValidPawnMove(piece *Piece, from, to Square, dx int) bool {
	dir := 1
	if piece.Color == Black {
		dir = -1
	}
	target := e.board.at(to)

	switch {
	case dx == 0 && to.Y == from.Y+dir:
		return target == nil
	case dx == 0 && to.Y == from.Y+2*dir:
		return !piece.HasMoved && target == nil && e.board.at(Square{X: from.X, Y: from.Y + dir}) == nil
	case dx == 1 && to.Y == from.Y+dir:
		return target != nil && target.Color != piece.Color
	}
	return false
}

// pathClear walks the squares strictly between from and to. It is only
// meaningful for straight or diagonal lines.
func (e *Engine) pathClear(from, to Square) bool {
	stepX := sign(to.X - from.X)
	stepY := sign(to.Y - from.Y)
	for sq := (Square{X: from.X + stepX, Y: from.Y + stepY}); sq != to; sq = (Square{X: sq.X + stepX, Y: sq.Y + stepY}) {
		if !sq.Valid() {
			return false
		}
		if e.board.at(sq) != nil {
			return false
		}
	}
	return true
}

// LegalTargets lists every square the piece on from could move to.
func (e *Engine) LegalTargets(from Square) []Square {
	targets := []Square{}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			to := Square{X: x, Y: y}
			if e.IsValidMove(from, to) {
				targets = append(targets, to)
			}
		}
	}
	return targets
}

// MovePiece applies a move that has already been validated: captures the
// occupant of to, relocates the piece, marks it moved and flips the turn.
// Capturing a king is reported but does not end the game.
func (e *Engine) MovePiece(from, to Square) []Event {
	piece := e.board.at(from)
	if piece == nil {
		return nil
	}

	events := []Event{}
	if target := e.board.at(to); target != nil && target != piece {
		events = append(events, pieceCaptured(to, *target))
		e.logger.Debug().Str("square", to.String()).Str("piece", string(target.Type)).Msg("piece captured")
		if target.Type == King {
			e.logger.Info().Str("color", string(target.Color)).Str("square", to.String()).Msg("king captured")
			events = append(events, kingCaptured(target.Color))
		}
	}

	e.board.set(from, nil)
	piece.HasMoved = true
	e.board.set(to, piece)
	e.board.turn = e.board.turn.Opposite()
	e.selected = nil

	e.logger.Debug().Str("from", from.String()).Str("to", to.String()).Str("turn", string(e.board.turn)).Msg("piece moved")
	return append(events, pieceMoved(from, to), turnChanged(e.board.turn))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
