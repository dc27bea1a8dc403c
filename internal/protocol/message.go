// internal/protocol/message.go
package protocol

import (
	"github.com/google/uuid"

	"github.com/unomesh/unomesh/internal/game"
	"github.com/unomesh/unomesh/internal/models"
)

// Message types carried over a room channel. Every frame is a single
// JSON object tagged by "type"; fields not relevant to a type are
// omitted from the wire.
const (
	TypeHello   = "hello"
	TypeWho     = "who"
	TypeJoin    = "join"
	TypePlayers = "players"
	TypeChat    = "chat"
	TypeStart   = "start"
	TypeState   = "state"
	TypeMyHand  = "myhand"
	TypeAction  = "action"
	TypeEffect  = "effect"
)

// Scope selects which transcript a chat line belongs to.
type Scope string

const (
	ScopeLobby Scope = "lobby"
	ScopeGame  Scope = "game"
)

// Action names the moves a player may submit during a game.
type Action string

const (
	ActionDraw Action = "draw"
	ActionPass Action = "pass"
	ActionPlay Action = "play"
)

// Message is the tagged union for every frame on a room channel.
type Message struct {
	Type string `json:"type"`

	// hello: the server tells a freshly attached peer its assigned id
	// and the room it landed in.
	PeerID uuid.UUID `json:"peerId,omitempty"`
	Room   uuid.UUID `json:"room,omitempty"`

	// join
	Name string `json:"name,omitempty"`

	// players
	Players []models.Player `json:"players,omitempty"`

	// chat and effect
	From  string `json:"from,omitempty"`
	Text  string `json:"text,omitempty"`
	Scope Scope  `json:"scope,omitempty"`

	// state
	State *game.Snapshot `json:"state,omitempty"`

	// myhand
	Hand []models.Card `json:"hand,omitempty"`

	// action
	Action    Action        `json:"action,omitempty"`
	CardIndex *int          `json:"cardIndex,omitempty"`
	Color     *models.Color `json:"color,omitempty"`
}

func Hello(peerID, room uuid.UUID) Message {
	return Message{Type: TypeHello, PeerID: peerID, Room: room}
}

func Who() Message {
	return Message{Type: TypeWho}
}

func Join(name string) Message {
	return Message{Type: TypeJoin, Name: name}
}

func PlayersMsg(players []models.Player) Message {
	return Message{Type: TypePlayers, Players: players}
}

func Chat(from, text string, scope Scope) Message {
	return Message{Type: TypeChat, From: from, Text: text, Scope: scope}
}

func Start(room uuid.UUID) Message {
	return Message{Type: TypeStart, Room: room}
}

func State(s game.Snapshot) Message {
	return Message{Type: TypeState, State: &s}
}

func MyHand(hand []models.Card) Message {
	return Message{Type: TypeMyHand, Hand: hand}
}

func Effect(text string) Message {
	return Message{Type: TypeEffect, Text: text}
}

func DrawAction() Message {
	return Message{Type: TypeAction, Action: ActionDraw}
}

func PassAction() Message {
	return Message{Type: TypeAction, Action: ActionPass}
}

func PlayAction(cardIndex int, color *models.Color) Message {
	return Message{Type: TypeAction, Action: ActionPlay, CardIndex: &cardIndex, Color: color}
}
