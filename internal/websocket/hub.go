package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a change notification delivered to the members of one group.
type Message struct {
	Type    string         `json:"type"`
	GroupID int64          `json:"group_id"`
	Entity  string         `json:"entity"`
	Action  string         `json:"action"`
	ID      int64          `json:"id,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(groupID int64, entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:    fmt.Sprintf("%s_%s", entity, action),
		GroupID: groupID,
		Entity:  entity,
		Action:  action,
		ID:      id,
		Extra:   extra,
	}
}

// Hub tracks connected clients per group and fans messages out to them.
type Hub struct {
	mu     sync.RWMutex
	groups map[int64]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		groups: make(map[int64]map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a client to its group's set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.groups[c.groupID]
	if !ok {
		set = make(map[*Client]struct{})
		h.groups[c.groupID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.groups[c.groupID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.groups, c.groupID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends msg to every client subscribed to msg.GroupID.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.groups[msg.GroupID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("client buffer full, dropping message", "group_id", msg.GroupID, "type", msg.Type)
		}
	}
}

// Disconnect closes every connection userID holds on groupID and returns how
// many were closed.
func (h *Hub) Disconnect(groupID, userID int64) int {
	h.mu.RLock()
	var victims []*Client
	for c := range h.groups[groupID] {
		if c.userID == userID {
			victims = append(victims, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range victims {
		if c.conn != nil {
			c.conn.CloseNow()
		}
		h.Unregister(c)
	}
	return len(victims)
}

// ClientCount returns the number of connected clients across all groups.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.groups {
		n += len(set)
	}
	return n
}

// GroupClientCount returns the number of clients subscribed to groupID.
func (h *Hub) GroupClientCount(groupID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[groupID])
}
