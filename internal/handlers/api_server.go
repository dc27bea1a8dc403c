// internal/handlers/api_server.go
package handlers

import (
	"github.com/unomesh/unomesh/internal/room"
)

// Server holds the shared room store the HTTP and WebSocket handlers
// operate on.
type Server struct {
	Rooms *room.Store
}

func NewServer() *Server {
	return &Server{
		Rooms: room.NewStore(),
	}
}
