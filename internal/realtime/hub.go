package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Hub tracks connected clients and their room memberships, and fans a
// serialized envelope out to every client in a room. Slow consumers are
// dropped rather than allowed to block the broadcast path.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes join/leave until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		}
	}
}

// RoomsFor returns the rooms a connection joins based on its identity.
// Admins join admin_room; employees join their own employee room. Everyone
// joins their user room for user-specific system messages.
func RoomsFor(userID uuid.UUID, role string) []string {
	rooms := []string{UserRoom(userID)}
	if role == "admin" {
		rooms = append(rooms, AdminRoom)
	} else {
		rooms = append(rooms, EmployeeRoom(userID))
	}
	return rooms
}

func (h *Hub) Register(c *Client)   { h.register <- c }
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range c.rooms {
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[*Client]struct{})
		}
		h.rooms[room][c] = struct{}{}
	}
	log.Debug().Str("user_id", c.userID.String()).Str("role", c.role).
		Strs("rooms", c.rooms).Msg("realtime: client joined")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range c.rooms {
		if clients, ok := h.rooms[room]; ok {
			if _, member := clients[c]; member {
				delete(clients, c)
				if len(clients) == 0 {
					delete(h.rooms, room)
				}
			}
		}
	}
	c.closeSend()
}

// Broadcast delivers a raw message to every client currently in the room.
// A client whose send buffer is full misses the message; reconciliation is
// the client's job via a full re-fetch on reconnect.
func (h *Hub) Broadcast(room string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- message:
		default:
			log.Warn().Str("room", room).Str("user_id", c.userID.String()).
				Msg("realtime: send buffer full, message dropped")
		}
	}
}

// RoomSize reports current membership, used by tests and the health surface.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
