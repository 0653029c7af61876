package model

type Player struct {
	ID    string
	Color Color
}

type ClientPlayer struct {
	ID    string `json:"name"`
	Color Color  `json:"color"`
}

// Players holds the two seats of a game. In a hotseat game both seats
// carry the same player ID.
type Players struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

func (p Players) seatsOf(playerID string) []Color {
	if playerID == "" {
		return nil
	}
	var seats []Color
	if p.White.ID == playerID {
		seats = append(seats, White)
	}
	if p.Black.ID == playerID {
		seats = append(seats, Black)
	}
	return seats
}

func (p Players) hasOpenSeat() bool {
	return p.White.ID == "" || p.Black.ID == ""
}
