package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

const (
	EntityEvent    = "event"
	EntitySettings = "settings"
	EntityBaby     = "baby"
	EntityMember   = "member"
)

// Message is a live update pushed to the dashboards of one family.
type Message struct {
	Type     string         `json:"type"`
	Entity   string         `json:"entity"`
	Action   string         `json:"action"`
	FamilyID int64          `json:"family_id"`
	ID       int64          `json:"id,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message whose Type is "<entity>_<action>".
func NewMessage(familyID int64, entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:     fmt.Sprintf("%s_%s", entity, action),
		Entity:   entity,
		Action:   action,
		FamilyID: familyID,
		ID:       id,
		Extra:    extra,
	}
}

// Hub tracks connected dashboards per family. A client only ever receives
// messages for the family its token was issued for.
type Hub struct {
	mu       sync.RWMutex
	families map[int64]map[*Client]struct{}
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		families: make(map[int64]map[*Client]struct{}),
		logger:   logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.families[c.familyID]
	if !ok {
		set = make(map[*Client]struct{})
		h.families[c.familyID] = set
	}
	set[c] = struct{}{}
}

// Unregister removes a client and closes its send channel. Calling it twice
// is harmless.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.families[c.familyID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.families, c.familyID)
	}
}

// Broadcast sends msg to every dashboard of msg.FamilyID. Clients whose
// buffer is full miss the message.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.families[msg.FamilyID] {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("dropped update for slow client", "family_id", msg.FamilyID, "type", msg.Type)
		}
	}
}

// ClientCount returns the number of connected dashboards for a family.
func (h *Hub) ClientCount(familyID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.families[familyID])
}

// Total returns the number of connected dashboards across all families.
func (h *Hub) Total() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.families {
		n += len(set)
	}
	return n
}
