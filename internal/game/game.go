// internal/game/game.go
package game

import (
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/unomesh/unomesh/internal/models"
)

// ErrDeckExhausted is returned when setup cannot deal a full game,
// which only happens with a corrupted deck.
var ErrDeckExhausted = errors.New("game: deck exhausted during setup")

// ErrPlayerCount is returned when a game is started with fewer than 2
// or more than 4 players.
var ErrPlayerCount = errors.New("game: need 2 to 4 players")

// UnoGame holds the authoritative state for a single game in memory.
// It carries no lock of its own: the owning room serializes every
// entry point, including the broadcast callbacks, under its dispatch
// lock.
type UnoGame struct {
	ID     uuid.UUID
	RoomID uuid.UUID

	Players []*models.Player
	Hands   map[uuid.UUID][]models.Card

	Deck        []models.Card
	DiscardPile []models.Card

	CurrentColor models.Color
	TurnIndex    int
	Direction    int
	PendingDraw  int

	GameOver bool
	WinnerID *uuid.UUID

	rng *rand.Rand

	// Injected by the owning room before the first state push.
	BroadcastStateFn func(Snapshot)
	SendHandFn       func(uuid.UUID, []models.Card)
	EffectFn         func(string)
	OnGameEnd        func(winner uuid.UUID)
}

// NewUnoGame shuffles, deals 7 cards to each player and flips the
// starting discard. Wild cards flipped at the start are tucked back
// under the deck and a replacement is drawn.
func NewUnoGame(players []*models.Player) (*UnoGame, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return newGameWithRand(players, rng)
}

func newGameWithRand(players []*models.Player, rng *rand.Rand) (*UnoGame, error) {
	if len(players) < 2 || len(players) > 4 {
		return nil, ErrPlayerCount
	}
	g := &UnoGame{
		ID:        uuid.New(),
		Players:   players,
		Hands:     make(map[uuid.UUID][]models.Card, len(players)),
		Deck:      NewDeck(),
		Direction: 1,
		rng:       rng,
	}
	Shuffle(rng, g.Deck)

	for round := 0; round < 7; round++ {
		for _, p := range players {
			card, ok := g.popDeck()
			if !ok {
				return nil, ErrDeckExhausted
			}
			g.Hands[p.ID] = append(g.Hands[p.ID], card)
		}
	}

	for {
		card, ok := g.popDeck()
		if !ok {
			return nil, ErrDeckExhausted
		}
		if card.IsWild() {
			// Tuck the wild under the deck and flip again.
			g.Deck = append([]models.Card{card}, g.Deck...)
			continue
		}
		g.DiscardPile = append(g.DiscardPile, card)
		g.CurrentColor = card.Color
		break
	}
	return g, nil
}

// CanPlay reports whether card is legal on top with the given active
// color: wilds always play, otherwise the card must match the active
// color or the top card's symbol.
func CanPlay(card, top models.Card, current models.Color) bool {
	if card.IsWild() {
		return true
	}
	if card.Color == current {
		return true
	}
	if card.IsNumber() && top.IsNumber() {
		return card.Value == top.Value
	}
	return card.Type == top.Type
}

// HandleDraw draws one card for the current player. Drawing does not
// end the turn; the player may follow up with a play or a pass.
// Out-of-turn draws are dropped silently.
func (g *UnoGame) HandleDraw(playerID uuid.UUID) {
	if g.GameOver || !g.isCurrent(playerID) {
		return
	}
	if !g.drawInto(playerID) {
		return
	}
	g.pushState(playerID)
}

// HandlePass ends the current player's turn without playing.
func (g *UnoGame) HandlePass(playerID uuid.UUID) {
	if g.GameOver || !g.isCurrent(playerID) {
		return
	}
	g.advanceTurn(1)
	g.pushState()
}

// HandlePlay plays the card at cardIndex from the current player's
// hand, resolving any effect it carries. Illegal plays (wrong turn,
// bad index, unplayable card) are dropped silently.
func (g *UnoGame) HandlePlay(playerID uuid.UUID, cardIndex int, chosen models.Color) {
	if g.GameOver || !g.isCurrent(playerID) {
		return
	}
	hand := g.Hands[playerID]
	if cardIndex < 0 || cardIndex >= len(hand) {
		return
	}
	card := hand[cardIndex]
	top := g.DiscardPile[len(g.DiscardPile)-1]
	if !CanPlay(card, top, g.CurrentColor) {
		return
	}

	g.Hands[playerID] = append(hand[:cardIndex], hand[cardIndex+1:]...)
	g.DiscardPile = append(g.DiscardPile, card)

	if card.IsWild() {
		g.CurrentColor = g.pickColor(chosen)
	} else {
		g.CurrentColor = card.Color
	}

	steps := 1
	changed := []uuid.UUID{playerID}
	var effect string

	switch card.Type {
	case models.TypeReverse:
		g.Direction = -g.Direction
		if len(g.Players) == 2 {
			steps = 2
		}
		effect = "Reverse!"
	case models.TypeSkip:
		steps = 2
		effect = "Skip!"
	case models.TypeDraw2:
		target := g.playerAt(g.TurnIndex + g.Direction)
		g.forceDraw(target.ID, 2)
		changed = append(changed, target.ID)
		effect = "+2 to next player!"
	case models.TypeWild4:
		target := g.playerAt(g.TurnIndex + g.Direction)
		g.forceDraw(target.ID, 4)
		changed = append(changed, target.ID)
		effect = "+4 to next player!"
	}

	if len(g.Hands[playerID]) == 0 {
		g.GameOver = true
		winner := playerID
		g.WinnerID = &winner
		g.pushState(changed...)
		g.fireEffect(g.playerName(playerID) + " wins!")
		if g.OnGameEnd != nil {
			g.OnGameEnd(winner)
		}
		return
	}

	g.advanceTurn(steps)
	g.pushState(changed...)
	if effect != "" {
		g.fireEffect(effect)
	}
}

// PushState broadcasts the sanitized snapshot and every player's
// private hand. Used for the initial sync after dealing.
func (g *UnoGame) PushState() {
	ids := make([]uuid.UUID, len(g.Players))
	for i, p := range g.Players {
		ids[i] = p.ID
	}
	g.pushState(ids...)
}

// RemovePlayer drops a player mid-game, recycling their hand to the
// bottom of the deck. Returns false if the player was not seated.
// With fewer than 2 players left the game freezes without a winner.
func (g *UnoGame) RemovePlayer(playerID uuid.UUID) bool {
	idx := -1
	for i, p := range g.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	var actingID uuid.UUID
	if !g.GameOver && len(g.Players) > 0 {
		actingID = g.Players[g.TurnIndex].ID
	}

	g.Deck = append(g.Hands[playerID], g.Deck...)
	delete(g.Hands, playerID)
	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)

	if len(g.Players) < 2 {
		g.GameOver = true
		g.fireEffect("Not enough players, game over.")
		g.pushState()
		return true
	}

	if !g.GameOver {
		g.TurnIndex = 0
		for i, p := range g.Players {
			if p.ID == actingID {
				g.TurnIndex = i
				break
			}
		}
		if actingID == playerID && idx < len(g.Players) {
			// The acting player left; the turn falls to whoever now
			// occupies their seat.
			g.TurnIndex = idx
		}
	}
	g.pushState()
	return true
}

func (g *UnoGame) isCurrent(playerID uuid.UUID) bool {
	return g.Players[g.TurnIndex].ID == playerID
}

func (g *UnoGame) playerAt(index int) *models.Player {
	n := len(g.Players)
	return g.Players[((index%n)+n)%n]
}

func (g *UnoGame) playerName(playerID uuid.UUID) string {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p.Name
		}
	}
	return playerID.String()
}

func (g *UnoGame) advanceTurn(steps int) {
	n := len(g.Players)
	i := g.TurnIndex + steps*g.Direction
	g.TurnIndex = ((i % n) + n) % n
}

func (g *UnoGame) pickColor(chosen models.Color) models.Color {
	for _, c := range models.PlayColors {
		if chosen == c {
			return chosen
		}
	}
	return models.PlayColors[g.rng.Intn(len(models.PlayColors))]
}

// popDeck removes and returns the top card of the deck.
func (g *UnoGame) popDeck() (models.Card, bool) {
	if len(g.Deck) == 0 {
		return models.Card{}, false
	}
	card := g.Deck[len(g.Deck)-1]
	g.Deck = g.Deck[:len(g.Deck)-1]
	return card, true
}

// drawInto moves one card from the deck to the player's hand,
// reshuffling the discard pile if the deck runs dry.
func (g *UnoGame) drawInto(playerID uuid.UUID) bool {
	if len(g.Deck) == 0 {
		g.reshuffleFromDiscard()
	}
	card, ok := g.popDeck()
	if !ok {
		log.Printf("game %s: deck and discard both empty, draw dropped", g.ID)
		return false
	}
	g.Hands[playerID] = append(g.Hands[playerID], card)
	return true
}

func (g *UnoGame) forceDraw(playerID uuid.UUID, n int) {
	for i := 0; i < n; i++ {
		if !g.drawInto(playerID) {
			return
		}
	}
}

// reshuffleFromDiscard rebuilds the deck from the discard pile,
// leaving the top discard in place.
func (g *UnoGame) reshuffleFromDiscard() {
	if len(g.DiscardPile) < 2 {
		return
	}
	top := g.DiscardPile[len(g.DiscardPile)-1]
	rest := g.DiscardPile[:len(g.DiscardPile)-1]
	Shuffle(g.rng, rest)
	g.Deck = append(g.Deck, rest...)
	g.DiscardPile = []models.Card{top}
}

// pushState broadcasts the sanitized snapshot, then sends a private
// hand refresh to each player whose hand changed.
func (g *UnoGame) pushState(changed ...uuid.UUID) {
	if g.BroadcastStateFn != nil {
		g.BroadcastStateFn(g.Sanitize())
	}
	if g.SendHandFn == nil {
		return
	}
	for _, id := range changed {
		hand, ok := g.Hands[id]
		if !ok {
			continue
		}
		cp := make([]models.Card, len(hand))
		copy(cp, hand)
		g.SendHandFn(id, cp)
	}
}

func (g *UnoGame) fireEffect(text string) {
	if g.EffectFn != nil {
		g.EffectFn(text)
	}
}
