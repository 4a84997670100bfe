package services

import (
	"math/rand/v2"

	"github.com/mikiasyonas/casino-rounds/internal/models"
)

const ShoeDecks = 4

// RNG is the randomness a round draws from. IntN returns a value in [0, n).
type RNG interface {
	IntN(n int) int
}

type systemRNG struct{}

func (systemRNG) IntN(n int) int { return rand.IntN(n) }

// SystemRNG is safe for concurrent use.
var SystemRNG RNG = systemRNG{}

// Deck is a shoe of ShoeDecks standard decks. Cards are drawn from the end;
// an empty shoe is rebuilt and reshuffled on the next draw.
type Deck struct {
	cards []models.Card
	rng   RNG
}

func NewDeck(rng RNG) *Deck {
	d := &Deck{rng: rng}
	d.reshuffle()
	return d
}

// NewStackedDeck returns a deck whose first draws are the given cards in
// order. Once they run out it behaves like NewDeck.
func NewStackedDeck(rng RNG, draws ...models.Card) *Deck {
	cards := make([]models.Card, len(draws))
	for i, c := range draws {
		cards[len(draws)-1-i] = c
	}
	return &Deck{cards: cards, rng: rng}
}

func (d *Deck) reshuffle() {
	d.cards = d.cards[:0]
	for i := 0; i < ShoeDecks; i++ {
		for _, s := range models.Suits {
			for _, r := range models.Ranks {
				d.cards = append(d.cards, models.Card{Rank: r, Suit: s})
			}
		}
	}
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

func (d *Deck) Draw() models.Card {
	if len(d.cards) == 0 {
		d.reshuffle()
	}
	c := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c
}

func (d *Deck) Remaining() int {
	return len(d.cards)
}

func (d *Deck) clone() *Deck {
	return &Deck{cards: append([]models.Card(nil), d.cards...), rng: d.rng}
}
