// internal/game/game_test.go
package game

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unomesh/unomesh/internal/models"
)

// mockSink collects pushed snapshots, hands and effects instead of
// sending them to peers.
type mockSink struct {
	snapshots []Snapshot
	hands     map[uuid.UUID][][]models.Card
	effects   []string
	winners   []uuid.UUID
}

func newMockSink() *mockSink {
	return &mockSink{hands: make(map[uuid.UUID][][]models.Card)}
}

func (ms *mockSink) attach(g *UnoGame) {
	g.BroadcastStateFn = func(s Snapshot) { ms.snapshots = append(ms.snapshots, s) }
	g.SendHandFn = func(id uuid.UUID, hand []models.Card) { ms.hands[id] = append(ms.hands[id], hand) }
	g.EffectFn = func(text string) { ms.effects = append(ms.effects, text) }
	g.OnGameEnd = func(winner uuid.UUID) { ms.winners = append(ms.winners, winner) }
}

func (ms *mockSink) clear() {
	ms.snapshots = nil
	ms.hands = make(map[uuid.UUID][][]models.Card)
	ms.effects = nil
	ms.winners = nil
}

func (ms *mockSink) lastSnapshot() *Snapshot {
	if len(ms.snapshots) == 0 {
		return nil
	}
	return &ms.snapshots[len(ms.snapshots)-1]
}

func (ms *mockSink) lastHand(id uuid.UUID) []models.Card {
	hands := ms.hands[id]
	if len(hands) == 0 {
		return nil
	}
	return hands[len(hands)-1]
}

func setupTestGame(t *testing.T, numPlayers int) (*UnoGame, []*models.Player, *mockSink) {
	players := make([]*models.Player, numPlayers)
	for i := range players {
		players[i] = &models.Player{ID: uuid.New(), Name: fmt.Sprintf("p%d", i)}
	}
	g, err := newGameWithRand(players, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	ms := newMockSink()
	ms.attach(g)
	return g, players, ms
}

// card builds a test card without the deck constructor.
func card(color models.Color, ctype models.CardType, value string) models.Card {
	return models.Card{Color: color, Type: ctype, Value: value}
}

func totalCards(g *UnoGame) int {
	n := len(g.Deck) + len(g.DiscardPile)
	for _, hand := range g.Hands {
		n += len(hand)
	}
	return n
}

func TestNewGamePlayerCount(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		players := make([]*models.Player, n)
		for i := range players {
			players[i] = &models.Player{ID: uuid.New()}
		}
		_, err := NewUnoGame(players)
		assert.ErrorIs(t, err, ErrPlayerCount, "player count %d", n)
	}
}

func TestNewGameDeal(t *testing.T) {
	g, players, _ := setupTestGame(t, 3)

	for _, p := range players {
		assert.Len(t, g.Hands[p.ID], 7)
	}
	require.Len(t, g.DiscardPile, 1)
	top := g.DiscardPile[0]
	assert.False(t, top.IsWild(), "start discard must not be wild")
	assert.Equal(t, top.Color, g.CurrentColor)
	assert.Equal(t, 0, g.TurnIndex)
	assert.Equal(t, 1, g.Direction)
	assert.Equal(t, 108, totalCards(g))
}

func TestNewGameWildStartIsRedrawn(t *testing.T) {
	// Try many seeds; whenever the flip position held a wild it has to
	// end up back in the deck, never on the discard pile.
	for seed := int64(0); seed < 50; seed++ {
		players := []*models.Player{
			{ID: uuid.New(), Name: "a"},
			{ID: uuid.New(), Name: "b"},
		}
		g, err := newGameWithRand(players, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		assert.False(t, g.DiscardPile[0].IsWild(), "seed %d", seed)
		assert.Equal(t, 108, totalCards(g), "seed %d", seed)
	}
}

func TestCanPlay(t *testing.T) {
	topRed5 := card(models.ColorRed, models.TypeNumber, "5")
	topSkip := card(models.ColorGreen, models.TypeSkip, "")

	tests := []struct {
		name    string
		card    models.Card
		top     models.Card
		current models.Color
		want    bool
	}{
		{"wild always", card(models.ColorWild, models.TypeWild, ""), topRed5, models.ColorRed, true},
		{"wild4 always", card(models.ColorWild, models.TypeWild4, ""), topSkip, models.ColorGreen, true},
		{"color match", card(models.ColorRed, models.TypeNumber, "9"), topRed5, models.ColorRed, true},
		{"value match across colors", card(models.ColorBlue, models.TypeNumber, "5"), topRed5, models.ColorRed, true},
		{"type match across colors", card(models.ColorYellow, models.TypeSkip, ""), topSkip, models.ColorGreen, true},
		{"no match", card(models.ColorBlue, models.TypeNumber, "2"), topRed5, models.ColorRed, false},
		{"number vs action", card(models.ColorBlue, models.TypeNumber, "5"), topSkip, models.ColorGreen, false},
		{"declared color beats printed top", card(models.ColorBlue, models.TypeNumber, "2"), topRed5, models.ColorBlue, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPlay(tt.card, tt.top, tt.current))
		})
	}
}

func TestPlayNumberCard(t *testing.T) {
	g, players, ms := setupTestGame(t, 3)
	p0 := players[0].ID

	g.Hands[p0] = []models.Card{
		card(models.ColorRed, models.TypeNumber, "3"),
		card(models.ColorBlue, models.TypeNumber, "7"),
	}
	g.DiscardPile = []models.Card{card(models.ColorRed, models.TypeNumber, "5")}
	g.CurrentColor = models.ColorRed
	ms.clear()

	g.HandlePlay(p0, 0, "")

	assert.Len(t, g.Hands[p0], 1)
	assert.Equal(t, "3", g.DiscardPile[len(g.DiscardPile)-1].Value)
	assert.Equal(t, models.ColorRed, g.CurrentColor)
	assert.Equal(t, 1, g.TurnIndex)

	snap := ms.lastSnapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Hands[p0.String()].Count)
	assert.Len(t, ms.lastHand(p0), 1)
	assert.Empty(t, ms.effects)
}

func TestPlayIllegalDroppedSilently(t *testing.T) {
	g, players, ms := setupTestGame(t, 3)
	p0, p1 := players[0].ID, players[1].ID

	g.Hands[p0] = []models.Card{card(models.ColorBlue, models.TypeNumber, "2")}
	g.DiscardPile = []models.Card{card(models.ColorRed, models.TypeNumber, "5")}
	g.CurrentColor = models.ColorRed
	ms.clear()

	// Out of turn.
	g.HandlePlay(p1, 0, "")
	// Stale index.
	g.HandlePlay(p0, 5, "")
	// Unplayable card.
	g.HandlePlay(p0, 0, "")

	assert.Empty(t, ms.snapshots, "illegal actions must not broadcast")
	assert.Equal(t, 0, g.TurnIndex)
	assert.Len(t, g.Hands[p0], 1)
}

func TestDrawKeepsTurn(t *testing.T) {
	g, players, ms := setupTestGame(t, 2)
	p0 := players[0].ID
	ms.clear()

	deckBefore := len(g.Deck)
	g.HandleDraw(p0)

	assert.Len(t, g.Hands[p0], 8)
	assert.Equal(t, deckBefore-1, len(g.Deck))
	assert.Equal(t, 0, g.TurnIndex, "drawing does not end the turn")
	require.NotNil(t, ms.lastSnapshot())
	assert.Len(t, ms.lastHand(p0), 8)

	ms.clear()
	g.HandleDraw(players[1].ID)
	assert.Empty(t, ms.snapshots, "out-of-turn draw is dropped")
}

func TestPassAdvancesTurn(t *testing.T) {
	g, players, ms := setupTestGame(t, 3)
	ms.clear()

	g.HandlePass(players[0].ID)
	assert.Equal(t, 1, g.TurnIndex)

	g.HandlePass(players[1].ID)
	g.HandlePass(players[2].ID)
	assert.Equal(t, 0, g.TurnIndex, "turn wraps around")

	g.Direction = -1
	g.HandlePass(players[0].ID)
	assert.Equal(t, 2, g.TurnIndex, "turn wraps backwards")
}

func TestReverseFlipsDirection(t *testing.T) {
	g, players, ms := setupTestGame(t, 3)
	p0 := players[0].ID

	g.Hands[p0] = []models.Card{
		card(models.ColorRed, models.TypeReverse, ""),
		card(models.ColorRed, models.TypeNumber, "1"),
	}
	g.DiscardPile = []models.Card{card(models.ColorRed, models.TypeNumber, "5")}
	g.CurrentColor = models.ColorRed
	ms.clear()

	g.HandlePlay(p0, 0, "")

	assert.Equal(t, -1, g.Direction)
	assert.Equal(t, 2, g.TurnIndex, "play passes to the previous seat")
	assert.Equal(t, []string{"Reverse!"}, ms.effects)
}

func TestReverseWithTwoPlayersActsLikeSkip(t *testing.T) {
	g, players, ms := setupTestGame(t, 2)
	p0 := players[0].ID

	g.Hands[p0] = []models.Card{
		card(models.ColorRed, models.TypeReverse, ""),
		card(models.ColorRed, models.TypeNumber, "1"),
	}
	g.DiscardPile = []models.Card{card(models.ColorRed, models.TypeNumber, "5")}
	g.CurrentColor = models.ColorRed
	ms.clear()

	g.HandlePlay(p0, 0, "")

	assert.Equal(t, -1, g.Direction)
	assert.Equal(t, 0, g.TurnIndex, "reverse in a 2-player game keeps the turn")
}

func TestSkipJumpsNextPlayer(t *testing.T) {
	g, players, ms := setupTestGame(t, 3)
	p0 := players[0].ID

	g.Hands[p0] = []models.Card{
		card(models.ColorRed, models.TypeSkip, ""),
		card(models.ColorRed, models.TypeNumber, "1"),
	}
	g.DiscardPile = []models.Card{card(models.ColorRed, models.TypeNumber, "5")}
	g.CurrentColor = models.ColorRed
	ms.clear()

	g.HandlePlay(p0, 0, "")

	assert.Equal(t, 2, g.TurnIndex)
	assert.Equal(t, []string{"Skip!"}, ms.effects)
}

func TestDraw2ForcesNextPlayer(t *testing.T) {
	g, players, ms := setupTestGame(t, 3)
	p0, p1 := players[0].ID, players[1].ID

	g.Hands[p0] = []models.Card{
		card(models.ColorRed, models.TypeDraw2, ""),
		card(models.ColorRed, models.TypeNumber, "1"),
	}
	g.DiscardPile = []models.Card{card(models.ColorRed, models.TypeNumber, "5")}
	g.CurrentColor = models.ColorRed
	ms.clear()

	g.HandlePlay(p0, 0, "")

	assert.Len(t, g.Hands[p1], 9)
	assert.Equal(t, 1, g.TurnIndex, "victim still takes their turn")
	assert.Equal(t, []string{"+2 to next player!"}, ms.effects)
	assert.Len(t, ms.lastHand(p1), 9, "victim gets a private hand refresh")
}

func TestWild4DeclaresColorAndForcesDraw(t *testing.T) {
	g, players, ms := setupTestGame(t, 3)
	p0, p1 := players[0].ID, players[1].ID

	g.Hands[p0] = []models.Card{
		card(models.ColorWild, models.TypeWild4, ""),
		card(models.ColorRed, models.TypeNumber, "1"),
	}
	g.DiscardPile = []models.Card{card(models.ColorRed, models.TypeNumber, "5")}
	g.CurrentColor = models.ColorRed
	ms.clear()

	g.HandlePlay(p0, 0, models.ColorBlue)

	assert.Equal(t, models.ColorBlue, g.CurrentColor)
	assert.Len(t, g.Hands[p1], 11)
	assert.Equal(t, []string{"+4 to next player!"}, ms.effects)
}

func TestWildWithoutColorPicksRandomly(t *testing.T) {
	g, players, ms := setupTestGame(t, 2)
	p0 := players[0].ID

	g.Hands[p0] = []models.Card{
		card(models.ColorWild, models.TypeWild, ""),
		card(models.ColorRed, models.TypeNumber, "1"),
	}
	g.DiscardPile = []models.Card{card(models.ColorRed, models.TypeNumber, "5")}
	g.CurrentColor = models.ColorRed
	ms.clear()

	g.HandlePlay(p0, 0, "")

	assert.Contains(t, models.PlayColors, g.CurrentColor, "fallback color is one of the four play colors")
}

func TestWinFreezesGame(t *testing.T) {
	g, players, ms := setupTestGame(t, 2)
	p0, p1 := players[0].ID, players[1].ID

	g.Hands[p0] = []models.Card{card(models.ColorRed, models.TypeNumber, "5")}
	g.DiscardPile = []models.Card{card(models.ColorRed, models.TypeNumber, "3")}
	g.CurrentColor = models.ColorRed
	turnBefore := g.TurnIndex
	ms.clear()

	g.HandlePlay(p0, 0, "")

	assert.True(t, g.GameOver)
	require.NotNil(t, g.WinnerID)
	assert.Equal(t, p0, *g.WinnerID)
	assert.Equal(t, turnBefore, g.TurnIndex, "no turn advance after a win")
	assert.Equal(t, []string{"p0 wins!"}, ms.effects)
	assert.Equal(t, []uuid.UUID{p0}, ms.winners)

	snap := ms.lastSnapshot()
	require.NotNil(t, snap)
	assert.True(t, snap.GameOver)
	assert.Equal(t, p0.String(), snap.WinnerID)

	// Every further action on the finished game is a no-op.
	ms.clear()
	g.HandleDraw(p0)
	g.HandlePass(p0)
	g.HandlePlay(p1, 0, "")
	assert.Empty(t, ms.snapshots)
}

func TestDrawReshufflesDiscard(t *testing.T) {
	g, players, ms := setupTestGame(t, 2)
	p0 := players[0].ID

	top := card(models.ColorGreen, models.TypeNumber, "8")
	g.DiscardPile = append(g.DiscardPile, g.Deck...)
	g.DiscardPile = append(g.DiscardPile, top)
	g.Deck = nil
	g.CurrentColor = models.ColorGreen
	before := totalCards(g)
	ms.clear()

	g.HandleDraw(p0)

	assert.Len(t, g.Hands[p0], 8)
	require.Len(t, g.DiscardPile, 1, "only the top card survives the reshuffle")
	assert.Equal(t, top, g.DiscardPile[0])
	assert.Equal(t, before, totalCards(g), "reshuffle conserves cards")
}

func TestDrawWithNothingLeftIsDropped(t *testing.T) {
	g, players, ms := setupTestGame(t, 2)
	p0 := players[0].ID

	g.Deck = nil
	g.DiscardPile = []models.Card{card(models.ColorRed, models.TypeNumber, "5")}
	ms.clear()

	g.HandleDraw(p0)

	assert.Len(t, g.Hands[p0], 7)
	assert.Empty(t, ms.snapshots)
}

func TestRemovePlayerKeepsTurnOwner(t *testing.T) {
	g, players, ms := setupTestGame(t, 4)
	g.TurnIndex = 2 // players[2] is acting
	ms.clear()

	require.True(t, g.RemovePlayer(players[0].ID))

	assert.Len(t, g.Players, 3)
	assert.Equal(t, players[2].ID, g.Players[g.TurnIndex].ID, "turn stays with the same player")
	assert.Equal(t, 108, totalCards(g), "departed hand recycles into the deck")
	_, ok := g.Hands[players[0].ID]
	assert.False(t, ok)
	require.NotNil(t, ms.lastSnapshot())
}

func TestRemoveActingPlayerPassesTurn(t *testing.T) {
	g, players, ms := setupTestGame(t, 3)
	g.TurnIndex = 1
	ms.clear()

	require.True(t, g.RemovePlayer(players[1].ID))

	assert.Len(t, g.Players, 2)
	assert.Equal(t, players[2].ID, g.Players[g.TurnIndex].ID, "turn falls to the next seat")
}

func TestRemovePlayerBelowMinimumEndsGame(t *testing.T) {
	g, players, ms := setupTestGame(t, 2)
	ms.clear()

	require.True(t, g.RemovePlayer(players[1].ID))

	assert.True(t, g.GameOver)
	assert.Nil(t, g.WinnerID, "nobody is declared winner on abandonment")
	assert.False(t, g.RemovePlayer(players[1].ID), "unknown player returns false")
}
