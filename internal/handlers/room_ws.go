// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/unomesh/unomesh/internal/database"
	"github.com/unomesh/unomesh/internal/middleware"
	"github.com/unomesh/unomesh/internal/protocol"
	"github.com/unomesh/unomesh/internal/room"
	"github.com/unomesh/unomesh/internal/session"
)

// CreateRoomHandler mints a new room owned by the caller. The caller's
// peer id doubles as the room's join code, which the response returns.
func CreateRoomHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		hostID, err := EnsureEphemeralUser(w, r)
		if err != nil {
			http.Error(w, "authentication failed", http.StatusForbidden)
			return
		}

		name := "host"
		if u, err := database.GetUserByID(r.Context(), hostID); err == nil && u.Username != "" {
			name = u.Username
		}

		rm := room.NewRoom(hostID, name)
		rm.OnEmpty = func(roomID uuid.UUID) {
			s.Rooms.DeleteRoom(roomID)
		}
		s.Rooms.AddRoom(rm)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"room_id": rm.ID.String()})
	}
}

// RoomWSHandler attaches a peer's channel to a room at
// /room/ws/{room_id}. The room's host authenticates onto its own
// room id; everyone else attaches as a guest mirror.
func RoomWSHandler(logger *logrus.Logger, s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		roomIDStr := strings.TrimPrefix(r.URL.Path, "/room/ws/")
		roomID, err := uuid.Parse(roomIDStr)
		if err != nil {
			http.Error(w, "invalid room_id", http.StatusBadRequest)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"room"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "room" {
			c.Close(BadSubprotocolError, "client must speak the room subprotocol")
			return
		}

		peerID, err := EnsureEphemeralUser(w, r)
		if err != nil {
			logger.Warnf("peer authentication failed for room %s: %v", roomID, err)
			c.Close(websocket.StatusPolicyViolation, "Authentication failed.")
			return
		}

		rm, exists := s.Rooms.GetRoom(roomID)
		if !exists {
			c.Close(InvalidRoomIDError, "room does not exist")
			return
		}

		role := session.RoleGuest
		if peerID == rm.HostID {
			role = session.RoleHost
		}

		ctx, cancel := context.WithCancel(r.Context())
		conn := &room.PeerConn{
			Session: session.Context{Role: role, PeerID: peerID, Room: roomID},
			Cancel:  cancel,
			OutChan: make(chan protocol.Message, 16),
		}

		rm.Mu.Lock()
		rm.AddConnection(conn)
		rm.Mu.Unlock()

		middleware.LogWebSocketConnect(logger, peerID.String(), roomID.String(), remoteAddr)

		go writePump(ctx, c, conn, logger)
		readPump(ctx, c, rm, conn, logger)

		rm.RemovePeer(peerID)
		middleware.LogWebSocketDisconnect(logger, peerID.String(), roomID.String(), "read pump exited")
	}
}

// readPump decodes inbound frames and dispatches them under the
// room's lock. Blocks until the connection closes.
func readPump(ctx context.Context, c *websocket.Conn, rm *room.Room, conn *room.PeerConn, logger *logrus.Logger) {
	peerID := conn.Session.PeerID
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		typ, data, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("Room %s: WebSocket closed normally for peer %v.", rm.ID, peerID)
			} else if !strings.Contains(err.Error(), "context canceled") {
				logger.Warnf("Room %s: Read error for peer %v: %v (CloseStatus: %d)", rm.ID, peerID, err, closeStatus)
			}
			return
		}
		if typ != websocket.MessageText {
			logger.Warnf("Room %s: Received non-text message type %d from peer %v. Ignoring.", rm.ID, typ, peerID)
			continue
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Room %s: Invalid json from peer %v: %v", rm.ID, peerID, err)
			continue
		}

		rm.Mu.Lock()
		// A stale connection instance must not act for a reconnected peer.
		current, stillAttached := rm.Connections[peerID]
		if !stillAttached || current != conn {
			rm.Mu.Unlock()
			continue
		}
		rm.HandleMessage(conn, msg)
		rm.Mu.Unlock()
	}
}

// writePump drains the peer's OutChan onto the wire and keeps the
// connection alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *room.PeerConn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer func() {
		_ = c.Close(websocket.StatusGoingAway, "Write pump stopping")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("Room: Failed to marshal outgoing msg for peer %v: %v", conn.Session.PeerID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Room: Failed to write to websocket for peer %v: %v", conn.Session.PeerID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Room: Failed to send ping to peer %v: %v. Assuming disconnect.", conn.Session.PeerID, err)
				return
			}
		}
	}
}
