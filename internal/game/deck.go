// internal/game/deck.go
package game

import (
	"math/rand"
	"strconv"

	"github.com/unomesh/unomesh/internal/models"
)

// NewDeck builds the full 108-card deck in a deterministic order:
// per color one "0", two each of "1" through "9", two each of
// skip/reverse/draw2, plus four wilds and four wild-draw-fours.
func NewDeck() []models.Card {
	deck := make([]models.Card, 0, 108)
	for _, color := range models.PlayColors {
		deck = append(deck, models.Card{Color: color, Type: models.TypeNumber, Value: "0"})
		for v := 1; v <= 9; v++ {
			card := models.Card{Color: color, Type: models.TypeNumber, Value: strconv.Itoa(v)}
			deck = append(deck, card, card)
		}
		for _, t := range []models.CardType{models.TypeSkip, models.TypeReverse, models.TypeDraw2} {
			card := models.Card{Color: color, Type: t}
			deck = append(deck, card, card)
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, models.Card{Color: models.ColorWild, Type: models.TypeWild})
		deck = append(deck, models.Card{Color: models.ColorWild, Type: models.TypeWild4})
	}
	return deck
}

// Shuffle permutes cards in place with a Fisher-Yates walk from the
// last index down, drawing each swap index uniformly from [0, i].
func Shuffle(r *rand.Rand, cards []models.Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
