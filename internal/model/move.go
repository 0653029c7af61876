package model

// ClickRequest is the payload a client sends when a board square is clicked.
type ClickRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c ClickRequest) Square() Square {
	return Square{X: c.X, Y: c.Y}
}

// ClickResult is what a click produced, returned to the clicking client.
type ClickResult struct {
	Events []Event   `json:"events"`
	State  GameState `json:"state"`
}
