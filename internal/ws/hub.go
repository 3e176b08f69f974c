package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/vntam/chat-realtime-sub000/internal/models"
	"github.com/vntam/chat-realtime-sub000/internal/observability"
)

// Hub maintains personal rooms keyed by user id and conversation rooms keyed
// by conversation id. Every connection sits in exactly one personal room and
// any number of conversation rooms.
type Hub struct {
	personal map[int64]map[*Client]bool
	rooms    map[uuid.UUID]map[*Client]bool
	joined   map[*Client]map[uuid.UUID]bool
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		personal: make(map[int64]map[*Client]bool),
		rooms:    make(map[uuid.UUID]map[*Client]bool),
		joined:   make(map[*Client]map[uuid.UUID]bool),
	}
}

// Register adds a connection to its user's personal room. The caller starts
// the client's write pump.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	userID := client.session.UserID
	if _, ok := h.personal[userID]; !ok {
		h.personal[userID] = make(map[*Client]bool)
	}
	h.personal[userID][client] = true
	h.joined[client] = make(map[uuid.UUID]bool)
}

// Unregister removes a connection from its personal room and every
// conversation room it joined.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	userID := client.session.UserID
	if conns, ok := h.personal[userID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.personal, userID)
		}
	}
	for roomID := range h.joined[client] {
		h.removeFromRoom(roomID, client)
	}
	delete(h.joined, client)
	client.Close()
}

// Join subscribes a connection to a conversation room. Authorization is the
// caller's job.
func (h *Hub) Join(conversationID uuid.UUID, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[conversationID]; !ok {
		h.rooms[conversationID] = make(map[*Client]bool)
	}
	h.rooms[conversationID][client] = true
	if h.joined[client] != nil {
		h.joined[client][conversationID] = true
	}
}

// Leave unsubscribes a connection from a conversation room. Idempotent.
func (h *Hub) Leave(conversationID uuid.UUID, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(conversationID, client)
	if h.joined[client] != nil {
		delete(h.joined[client], conversationID)
	}
}

// Joined reports whether the connection is subscribed to the room.
func (h *Hub) Joined(conversationID uuid.UUID, client *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.joined[client][conversationID]
}

func (h *Hub) removeFromRoom(conversationID uuid.UUID, client *Client) {
	if conns, ok := h.rooms[conversationID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.rooms, conversationID)
		}
	}
}

// ToUser sends an event to every connection in a user's personal room.
func (h *Hub) ToUser(userID int64, event string, payload any) {
	frame, err := marshalEvent(event, payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	clients := snapshot(h.personal[userID])
	h.mu.RUnlock()
	for _, c := range clients {
		c.Enqueue(frame)
	}
	observability.IncBroadcast(event)
}

// ToUsers fans an event out to several personal rooms.
func (h *Hub) ToUsers(userIDs []int64, event string, payload any) {
	frame, err := marshalEvent(event, payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	var clients []*Client
	for _, id := range userIDs {
		clients = append(clients, snapshot(h.personal[id])...)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.Enqueue(frame)
	}
	observability.IncBroadcast(event)
}

// ToConversation sends an event to every connection in a conversation room.
func (h *Hub) ToConversation(conversationID uuid.UUID, event string, payload any) {
	h.toConversation(conversationID, event, payload, nil)
}

// ToConversationExcept sends to a room, skipping one connection. Used for
// typing indicators so the issuer never echoes back.
func (h *Hub) ToConversationExcept(conversationID uuid.UUID, except *Client, event string, payload any) {
	h.toConversation(conversationID, event, payload, except)
}

func (h *Hub) toConversation(conversationID uuid.UUID, event string, payload any, except *Client) {
	frame, err := marshalEvent(event, payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	clients := snapshot(h.rooms[conversationID])
	h.mu.RUnlock()
	for _, c := range clients {
		if c == except {
			continue
		}
		c.Enqueue(frame)
	}
	observability.IncBroadcast(event)
}

// EvictUser removes all of a user's connections from one conversation room.
// The connections stay alive; they just stop receiving room traffic.
func (h *Hub) EvictUser(conversationID uuid.UUID, userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.rooms[conversationID] {
		if client.session.UserID != userID {
			continue
		}
		h.removeFromRoom(conversationID, client)
		if h.joined[client] != nil {
			delete(h.joined[client], conversationID)
		}
	}
}

func marshalEvent(event string, payload any) ([]byte, error) {
	frame, err := json.Marshal(models.ServerEvent{Event: event, Payload: payload})
	if err != nil {
		log.Printf("ws event marshal error event=%s: %v", event, err)
		return nil, err
	}
	return frame, nil
}

func snapshot(set map[*Client]bool) []*Client {
	if len(set) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}
