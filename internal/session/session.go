// internal/session/session.go
package session

import "github.com/google/uuid"

// Role marks which side of a room a peer sits on. The host owns the
// authoritative game state; guests hold replicated snapshots.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Context identifies one attached peer: its role, the peer id the
// server assigned to its channel, and the room it belongs to.
type Context struct {
	Role   Role
	PeerID uuid.UUID
	Room   uuid.UUID
}

func (c Context) IsHost() bool {
	return c.Role == RoleHost
}
