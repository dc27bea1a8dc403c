// internal/room/room_store.go
package room

import (
	"sync"

	"github.com/google/uuid"
)

// Store manages ephemeral rooms in memory only.
type Store struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
}

// NewStore returns an in-memory store for Rooms.
func NewStore() *Store {
	return &Store{
		rooms: make(map[uuid.UUID]*Room),
	}
}

// AddRoom stores the room in memory. Typically you also define OnEmpty
// so that the room can remove itself.
func (s *Store) AddRoom(r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
}

// DeleteRoom removes the ephemeral room from memory.
func (s *Store) DeleteRoom(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

// GetRoom retrieves a room if it exists.
func (s *Store) GetRoom(id uuid.UUID) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}
