// internal/game/snapshot.go
package game

import (
	"github.com/unomesh/unomesh/internal/models"
)

// HandView is the public view of an opponent's hand: only its size.
type HandView struct {
	Count int `json:"count"`
}

// Snapshot is the obfuscated game state broadcast to every peer in a
// room. Hand contents and deck order stay on the host; only counts
// cross the wire. Private hands are delivered separately per player.
type Snapshot struct {
	Players      []models.Player     `json:"players"`
	Hands        map[string]HandView `json:"hands"`
	DeckSize     int                 `json:"deckSize"`
	DiscardPile  []models.Card       `json:"discardPile"`
	CurrentColor models.Color        `json:"currentColor"`
	TurnIndex    int                 `json:"turnIndex"`
	Direction    int                 `json:"direction"`
	PendingDraw  int                 `json:"pendingDraw"`
	GameOver     bool                `json:"gameOver"`
	WinnerID     string              `json:"winnerId,omitempty"`
}

// Sanitize produces the shareable snapshot of the current state.
// All slices are copied so the snapshot stays stable even while the
// game keeps mutating.
func (g *UnoGame) Sanitize() Snapshot {
	players := make([]models.Player, len(g.Players))
	for i, p := range g.Players {
		players[i] = *p
	}
	hands := make(map[string]HandView, len(g.Hands))
	for id, hand := range g.Hands {
		hands[id.String()] = HandView{Count: len(hand)}
	}
	discard := make([]models.Card, len(g.DiscardPile))
	copy(discard, g.DiscardPile)

	snap := Snapshot{
		Players:      players,
		Hands:        hands,
		DeckSize:     len(g.Deck),
		DiscardPile:  discard,
		CurrentColor: g.CurrentColor,
		TurnIndex:    g.TurnIndex,
		Direction:    g.Direction,
		PendingDraw:  g.PendingDraw,
		GameOver:     g.GameOver,
	}
	if g.WinnerID != nil {
		snap.WinnerID = g.WinnerID.String()
	}
	return snap
}
