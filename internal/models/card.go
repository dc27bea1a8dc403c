// internal/models/card.go
package models

// Color is a card color. Wild cards carry ColorWild until played,
// at which point the player declares one of the four play colors.
type Color string

const (
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorWild   Color = "wild"
)

// PlayColors lists the colors a wild card may declare.
var PlayColors = []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue}

// CardType distinguishes number cards from action and wild cards.
type CardType string

const (
	TypeNumber  CardType = "number"
	TypeSkip    CardType = "skip"
	TypeReverse CardType = "reverse"
	TypeDraw2   CardType = "draw2"
	TypeWild    CardType = "wild"
	TypeWild4   CardType = "wild4"
)

// Card is a single game card. Value is the printed digit for number
// cards and empty otherwise.
type Card struct {
	Color Color    `json:"color"`
	Type  CardType `json:"type"`
	Value string   `json:"value,omitempty"`
}

// IsWild reports whether the card is a wild or wild-draw-four.
func (c Card) IsWild() bool {
	return c.Type == TypeWild || c.Type == TypeWild4
}

// IsNumber reports whether the card is a plain number card.
func (c Card) IsNumber() bool {
	return c.Type == TypeNumber
}
