package models

var (
	Suits = []string{"♠", "♥", "♦", "♣"}
	Ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

func (c Card) String() string {
	return c.Rank + c.Suit
}

// CardView is a card as the client sees it. A face-down card carries no
// rank or suit.
type CardView struct {
	Rank     string `json:"rank,omitempty"`
	Suit     string `json:"suit,omitempty"`
	FaceDown bool   `json:"face_down,omitempty"`
}
