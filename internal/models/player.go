// internal/models/player.go
package models

import "github.com/google/uuid"

// Player is a roster entry in a room. The ID is the peer id assigned
// by the server when the player's channel was attached.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
