package domain

// Point is a canvas coordinate normalized to the [0,1] range on both axes.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one finalized drawing action. It is never modified after the
// room has assigned its id.
type Stroke struct {
	Id        int64   `json:"id"`
	Points    []Point `json:"points"`
	Color     string  `json:"color"`
	Thickness float64 `json:"thickness"`
	OwnerId   string  `json:"ownerId"`
}

// ChatMessage is one entry of a room's chat backlog. From is empty for
// system notices.
type ChatMessage struct {
	From string `json:"from"`
	Text string `json:"text"`
}
