package notify

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/sortdesk/mailsift-backend/internal/models"
)

// EventType represents the type of notification event
type EventType string

const (
	EventTypeApplication EventType = "rule_application"
	EventTypeError       EventType = "error"
)

// Event represents a notification pushed to connected clients
type Event struct {
	Type    EventType           `json:"type"`
	Payload *ApplicationPayload `json:"payload,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// ApplicationPayload describes a rule application delivered to clients
type ApplicationPayload struct {
	ID        string   `json:"id"`
	MessageID uint     `json:"message_id"`
	RuleID    string   `json:"rule_id"`
	RuleName  string   `json:"rule_name"`
	Actions   []string `json:"actions"`
	AppliedAt string   `json:"applied_at"`
}

// Hub maintains the set of active clients and broadcasts rule
// application events to all of them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Broadcast to all connected clients
	broadcast chan []byte

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger
	logger *slog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client registered")
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unregistered")
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ApplicationRecorded broadcasts a recorded rule application to all
// connected clients
func (h *Hub) ApplicationRecorded(record *models.RuleApplication) {
	event := Event{
		Type: EventTypeApplication,
		Payload: &ApplicationPayload{
			ID:        record.ID,
			MessageID: record.MessageID,
			RuleID:    record.RuleID,
			RuleName:  record.RuleName,
			Actions:   record.ActionTokens(),
			AppliedAt: record.AppliedAt.UTC().Format(time.RFC3339),
		},
	}

	data, err := json.Marshal(event)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal broadcast event", slog.Any("error", err))
		}
		return
	}

	select {
	case h.broadcast <- data:
	default:
		if h.logger != nil {
			h.logger.Warn("broadcast buffer full, dropping event")
		}
	}
}
