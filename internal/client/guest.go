// internal/client/guest.go
package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/unomesh/unomesh/internal/game"
	"github.com/unomesh/unomesh/internal/models"
	"github.com/unomesh/unomesh/internal/protocol"
	"github.com/unomesh/unomesh/internal/session"
)

// Guest is a replicated mirror of a hosted room. It holds no
// authority: every field below reflects the last frame received from
// the host, and every move goes out as an intent for the host to
// validate.
type Guest struct {
	Session session.Context
	Name    string

	conn   *websocket.Conn
	logger *logrus.Logger

	mu        sync.Mutex
	Roster    []models.Player
	View      *game.Snapshot
	Hand      []models.Card
	LobbyChat []models.ChatEntry
	GameChat  []models.ChatEntry
	InGame    bool

	// OnEffect, when set, receives transient effect annotations.
	OnEffect func(text string)
}

// Dial connects to a hosted room and returns a guest ready to Run.
// The peer id arrives in the server's hello frame once the read loop
// starts.
func Dial(ctx context.Context, baseURL string, roomID uuid.UUID, name string, logger *logrus.Logger) (*Guest, error) {
	url := fmt.Sprintf("%s/room/ws/%s", baseURL, roomID)
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{"room"},
	})
	if err != nil {
		return nil, fmt.Errorf("dial room %s: %w", roomID, err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Guest{
		Session: session.Context{Role: session.RoleGuest, Room: roomID},
		Name:    name,
		conn:    conn,
		logger:  logger,
	}, nil
}

// Run reads frames until the connection or context ends. The first
// hello triggers the who/join handshake automatically.
func (g *Guest) Run(ctx context.Context) error {
	defer g.conn.Close(websocket.StatusNormalClosure, "done")
	for {
		var msg protocol.Message
		if err := wsjson.Read(ctx, g.conn, &msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("room channel closed: %w", err)
		}
		g.apply(ctx, msg)
	}
}

// apply folds one host frame into the mirrored state.
func (g *Guest) apply(ctx context.Context, msg protocol.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch msg.Type {
	case protocol.TypeHello:
		g.Session.PeerID = msg.PeerID
		g.Session.Room = msg.Room
		if g.conn != nil {
			go func() {
				if err := g.send(ctx, protocol.Who()); err != nil {
					return
				}
				if err := g.send(ctx, protocol.Join(g.Name)); err != nil {
					g.logger.Warnf("join send failed: %v", err)
				}
			}()
		}
	case protocol.TypePlayers:
		g.Roster = msg.Players
	case protocol.TypeChat:
		entry := models.ChatEntry{From: msg.From, Text: msg.Text}
		if msg.Scope == protocol.ScopeGame {
			g.GameChat = append(g.GameChat, entry)
		} else {
			g.LobbyChat = append(g.LobbyChat, entry)
		}
	case protocol.TypeStart:
		g.InGame = true
	case protocol.TypeState:
		g.View = msg.State
		if msg.State != nil && msg.State.GameOver {
			g.InGame = false
		}
	case protocol.TypeMyHand:
		g.Hand = msg.Hand
	case protocol.TypeEffect:
		if g.OnEffect != nil {
			g.OnEffect(msg.Text)
		}
	default:
		// Host-bound frames (join/action/...) never reach a guest.
		g.logger.Debugf("ignoring frame type '%s'", msg.Type)
	}
}

func (g *Guest) send(ctx context.Context, msg protocol.Message) error {
	return wsjson.Write(ctx, g.conn, msg)
}

// SubmitDraw asks the host to draw a card for us.
func (g *Guest) SubmitDraw(ctx context.Context) error {
	return g.send(ctx, protocol.DrawAction())
}

// SubmitPass asks the host to end our turn.
func (g *Guest) SubmitPass(ctx context.Context) error {
	return g.send(ctx, protocol.PassAction())
}

// SubmitPlay asks the host to play the card at index from our hand.
// color is required when the card is wild and ignored otherwise.
func (g *Guest) SubmitPlay(ctx context.Context, index int, color *models.Color) error {
	return g.send(ctx, protocol.PlayAction(index, color))
}

// SendChat publishes a chat line to the room. The host relays it to
// everyone else, so we append our own copy locally.
func (g *Guest) SendChat(ctx context.Context, scope protocol.Scope, text string) error {
	g.mu.Lock()
	entry := models.ChatEntry{From: g.Name, Text: text}
	if scope == protocol.ScopeGame {
		g.GameChat = append(g.GameChat, entry)
	} else {
		g.LobbyChat = append(g.LobbyChat, entry)
	}
	g.mu.Unlock()
	return g.send(ctx, protocol.Chat(g.Name, text, scope))
}

// IsMyTurn reports whether the mirrored state says we act next.
func (g *Guest) IsMyTurn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.View == nil || g.View.GameOver {
		return false
	}
	if g.View.TurnIndex < 0 || g.View.TurnIndex >= len(g.View.Players) {
		return false
	}
	return g.View.Players[g.View.TurnIndex].ID == g.Session.PeerID
}

// Snapshot returns the last mirrored game state, or nil before the
// first state frame.
func (g *Guest) Snapshot() *game.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.View
}

// MyHand returns the last private hand the host sent us.
func (g *Guest) MyHand() []models.Card {
	g.mu.Lock()
	defer g.mu.Unlock()
	hand := make([]models.Card, len(g.Hand))
	copy(hand, g.Hand)
	return hand
}

// Players returns the current roster.
func (g *Guest) Players() []models.Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	roster := make([]models.Player, len(g.Roster))
	copy(roster, g.Roster)
	return roster
}
