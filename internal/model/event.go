package model

type EventType string

const (
	EventPieceSelected    EventType = "pieceSelected"
	EventSelectionCleared EventType = "selectionCleared"
	EventPieceMoved       EventType = "pieceMoved"
	EventPieceCaptured    EventType = "pieceCaptured"
	EventTurnChanged      EventType = "turnChanged"
	EventKingCaptured     EventType = "kingCaptured"
)

// Event describes one visible effect of a click so a renderer can update.
type Event struct {
	Type   EventType `json:"type"`
	Square *Square   `json:"square,omitempty"`
	From   *Square   `json:"from,omitempty"`
	To     *Square   `json:"to,omitempty"`
	Piece  *Piece    `json:"piece,omitempty"`
	Color  Color     `json:"color,omitempty"`
}

func pieceSelected(sq Square) Event {
	return Event{Type: EventPieceSelected, Square: &sq}
}

func selectionCleared() Event {
	return Event{Type: EventSelectionCleared}
}

func pieceMoved(from, to Square) Event {
	return Event{Type: EventPieceMoved, From: &from, To: &to}
}

func pieceCaptured(sq Square, p Piece) Event {
	return Event{Type: EventPieceCaptured, Square: &sq, Piece: &p}
}

func turnChanged(c Color) Event {
	return Event{Type: EventTurnChanged, Color: c}
}

// kingCaptured carries the color of the king that was taken.
func kingCaptured(c Color) Event {
	return Event{Type: EventKingCaptured, Color: c}
}
