// internal/room/room.go
package room

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unomesh/unomesh/internal/cache"
	"github.com/unomesh/unomesh/internal/game"
	"github.com/unomesh/unomesh/internal/models"
	"github.com/unomesh/unomesh/internal/protocol"
	"github.com/unomesh/unomesh/internal/session"
)

// PeerConn is one attached peer's presence in a room.
type PeerConn struct {
	Session session.Context
	Name    string
	Cancel  func()
	OutChan chan protocol.Message
}

// Send pushes a message onto the peer's OutChan without blocking.
// Messages to a stalled or closed peer are dropped so one bad channel
// never halts delivery to the rest of the room.
func (conn *PeerConn) Send(msg protocol.Message) {
	select {
	case conn.OutChan <- msg:
	default:
		log.Printf("PeerConn Send WARNING: OutChan for peer %s closed or full. Dropped message type '%s'.", conn.Session.PeerID, msg.Type)
	}
}

// Room is one hosted game session: a roster, the live channels, two
// chat transcripts and, once started, the authoritative game.
//
// Mu is the dispatch lock. Every inbound message, attach and detach is
// handled under it, which serializes all state mutation and every
// broadcast the mutation triggers.
type Room struct {
	ID     uuid.UUID
	HostID uuid.UUID

	Players     []*models.Player
	Connections map[uuid.UUID]*PeerConn

	LobbyChat []models.ChatEntry
	GameChat  []models.ChatEntry

	Game   *game.UnoGame
	InGame bool

	// OnEmpty is called after the last peer detaches, typically to
	// remove the room from its store.
	OnEmpty func(roomID uuid.UUID)

	eventIndex int

	Mu sync.Mutex
}

// NewRoom creates a room owned by the given host peer. The room id is
// the host's peer id, which doubles as the join code.
func NewRoom(hostID uuid.UUID, hostName string) *Room {
	return &Room{
		ID:          hostID,
		HostID:      hostID,
		Players:     []*models.Player{{ID: hostID, Name: hostName}},
		Connections: make(map[uuid.UUID]*PeerConn),
	}
}

// AddConnection registers a peer's channel. Guests are greeted with a
// hello frame carrying their assigned peer id and the room code.
// Assumes the caller holds room.Mu.
func (r *Room) AddConnection(conn *PeerConn) {
	r.Connections[conn.Session.PeerID] = conn
	if !conn.Session.IsHost() {
		conn.Send(protocol.Hello(conn.Session.PeerID, r.ID))
	}
}

// HandleMessage routes one inbound frame from a peer. Assumes the
// caller holds room.Mu.
func (r *Room) HandleMessage(conn *PeerConn, msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeWho:
		// Liveness probe from a fresh peer; the roster follows its join.
	case protocol.TypeJoin:
		r.handleJoin(conn, msg)
	case protocol.TypeChat:
		r.handleChat(conn, msg)
	case protocol.TypeStart:
		r.handleStart(conn)
	case protocol.TypeAction:
		r.handleAction(conn, msg)
	default:
		log.Printf("room %s: unknown message type '%s' from peer %s", r.ID, msg.Type, conn.Session.PeerID)
	}
}

func (r *Room) handleJoin(conn *PeerConn, msg protocol.Message) {
	if r.InGame {
		// Roster is fixed once a game starts.
		return
	}
	name := msg.Name
	if name == "" {
		name = "player"
	}
	conn.Name = name

	found := false
	for _, p := range r.Players {
		if p.ID == conn.Session.PeerID {
			p.Name = name
			found = true
			break
		}
	}
	if !found {
		r.Players = append(r.Players, &models.Player{ID: conn.Session.PeerID, Name: name})
	}

	r.systemChat(protocol.ScopeLobby, name+" joined.")
	r.broadcastPlayers()
	r.logEvent(conn.Session.PeerID, "join", map[string]interface{}{"name": name})
}

func (r *Room) handleChat(conn *PeerConn, msg protocol.Message) {
	scope := msg.Scope
	if scope != protocol.ScopeGame {
		scope = protocol.ScopeLobby
	}
	// The sender's identity comes from the channel, never the frame.
	entry := models.ChatEntry{From: conn.Name, Text: msg.Text, At: time.Now()}
	r.appendChat(scope, entry)

	out := protocol.Chat(entry.From, entry.Text, scope)
	for id, peer := range r.Connections {
		if id == conn.Session.PeerID {
			continue
		}
		peer.Send(out)
	}
	r.logEvent(conn.Session.PeerID, "chat", map[string]interface{}{"scope": string(scope)})
}

func (r *Room) handleStart(conn *PeerConn) {
	if !conn.Session.IsHost() || r.InGame {
		return
	}
	// The game gets its own roster slice so the room and the game can
	// splice independently when a player leaves.
	seats := make([]*models.Player, len(r.Players))
	copy(seats, r.Players)
	g, err := game.NewUnoGame(seats)
	if err != nil {
		log.Printf("room %s: cannot start game: %v", r.ID, err)
		return
	}
	g.RoomID = r.ID

	// The callbacks run inside mutators, which only execute under
	// room.Mu, so touching connections here is safe.
	g.BroadcastStateFn = func(s game.Snapshot) {
		r.broadcast(protocol.State(s))
	}
	g.SendHandFn = func(peerID uuid.UUID, hand []models.Card) {
		if peer, ok := r.Connections[peerID]; ok {
			peer.Send(protocol.MyHand(hand))
		}
	}
	g.EffectFn = func(text string) {
		r.broadcast(protocol.Effect(text))
	}
	g.OnGameEnd = func(winner uuid.UUID) {
		r.InGame = false
		r.logEvent(r.HostID, "game_end", map[string]interface{}{"winner": winner.String()})
	}

	r.Game = g
	r.InGame = true
	r.broadcast(protocol.Start(r.ID))
	g.PushState()
	r.logEvent(conn.Session.PeerID, "start", map[string]interface{}{"players": len(r.Players)})
}

func (r *Room) handleAction(conn *PeerConn, msg protocol.Message) {
	if !r.InGame || r.Game == nil {
		return
	}
	pid := conn.Session.PeerID
	switch msg.Action {
	case protocol.ActionDraw:
		r.Game.HandleDraw(pid)
	case protocol.ActionPass:
		r.Game.HandlePass(pid)
	case protocol.ActionPlay:
		if msg.CardIndex == nil {
			return
		}
		var chosen models.Color
		if msg.Color != nil {
			chosen = *msg.Color
		}
		r.Game.HandlePlay(pid, *msg.CardIndex, chosen)
	default:
		return
	}
	r.logEvent(pid, "action", map[string]interface{}{"action": string(msg.Action)})
}

// RemovePeer detaches a peer, updates the roster and notifies the
// rest of the room. Safe to call from any goroutine.
func (r *Room) RemovePeer(peerID uuid.UUID) {
	r.Mu.Lock()

	conn, ok := r.Connections[peerID]
	if ok {
		if conn.Cancel != nil {
			conn.Cancel()
		}
		delete(r.Connections, peerID)
	}

	name := peerID.String()
	for i, p := range r.Players {
		if p.ID == peerID {
			name = p.Name
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			break
		}
	}

	if r.InGame && r.Game != nil {
		r.Game.RemovePlayer(peerID)
		if r.Game.GameOver {
			r.InGame = false
		}
	}

	r.systemChat(protocol.ScopeLobby, name+" left.")
	r.broadcastPlayers()
	r.logEvent(peerID, "leave", nil)

	empty := len(r.Connections) == 0
	r.Mu.Unlock()

	if empty && r.OnEmpty != nil {
		r.OnEmpty(r.ID)
	}
}

// broadcast sends a message to every attached peer. Assumes room.Mu
// is held.
func (r *Room) broadcast(msg protocol.Message) {
	for _, peer := range r.Connections {
		peer.Send(msg)
	}
}

func (r *Room) broadcastPlayers() {
	roster := make([]models.Player, len(r.Players))
	for i, p := range r.Players {
		roster[i] = *p
	}
	r.broadcast(protocol.PlayersMsg(roster))
}

func (r *Room) systemChat(scope protocol.Scope, text string) {
	entry := models.ChatEntry{From: "system", Text: text, At: time.Now()}
	r.appendChat(scope, entry)
	r.broadcast(protocol.Chat(entry.From, entry.Text, scope))
}

func (r *Room) appendChat(scope protocol.Scope, entry models.ChatEntry) {
	if scope == protocol.ScopeGame {
		r.GameChat = append(r.GameChat, entry)
	} else {
		r.LobbyChat = append(r.LobbyChat, entry)
	}
}

// logEvent appends one record to the room's event log. Publishing is
// fire-and-forget so a slow queue never stalls dispatch.
func (r *Room) logEvent(actor uuid.UUID, eventType string, payload map[string]interface{}) {
	r.eventIndex++
	record := cache.RoomEventRecord{
		RoomID:      r.ID,
		EventIndex:  r.eventIndex,
		ActorPeerID: actor,
		EventType:   eventType,
		Payload:     payload,
		Timestamp:   time.Now().Unix(),
	}
	go func() {
		if err := cache.PublishRoomEvent(context.Background(), record); err != nil {
			log.Printf("room %s: failed to publish event %d: %v", record.RoomID, record.EventIndex, err)
		}
	}()
}
