package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const EventHired = "hired"

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type HiredData struct {
	GigID    uuid.UUID `json:"gig_id"`
	GigTitle string    `json:"gig_title"`
	BidID    uuid.UUID `json:"bid_id"`
	Message  string    `json:"message"`
}

func NewHiredEvent(gigID, bidID uuid.UUID, gigTitle, message string) Event {
	return Event{
		Type: EventHired,
		Data: HiredData{
			GigID:    gigID,
			GigTitle: gigTitle,
			BidID:    bidID,
			Message:  message,
		},
	}
}

// Publisher delivers an event to whatever sessions a user has open.
// Delivery is best effort: no persistence, no replay, no ordering.
type Publisher interface {
	Publish(userID uuid.UUID, event Event)
}

// Client is one attached session. The hub only looks clients up; the
// transport that created a client owns it and must Unregister it.
type Client struct {
	ID     string
	UserID uuid.UUID
	Send   chan []byte
}

type UserMessage struct {
	UserID uuid.UUID
	Event  Event
}

type Hub struct {
	sessions map[uuid.UUID]map[string]*Client
	outbound chan *UserMessage
	mu       sync.RWMutex
	log      logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		sessions: make(map[uuid.UUID]map[string]*Client),
		outbound: make(chan *UserMessage, 256),
		log:      log,
	}
}

// Run delivers published events until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.outbound:
			h.deliver(msg)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.sessions[client.UserID]
	if !ok {
		clients = make(map[string]*Client)
		h.sessions[client.UserID] = clients
	}
	clients[client.ID] = client
}

// Unregister detaches a session and closes its Send channel. Safe to call
// more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.sessions[client.UserID]
	if !ok {
		return
	}
	if _, ok := clients[client.ID]; !ok {
		return
	}
	delete(clients, client.ID)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.sessions, client.UserID)
	}
}

// Publish queues an event for a user and never blocks. When the queue is
// full the event is dropped.
func (h *Hub) Publish(userID uuid.UUID, event Event) {
	select {
	case h.outbound <- &UserMessage{UserID: userID, Event: event}:
	default:
		h.log.WithFields(logrus.Fields{"user_id": userID, "type": event.Type}).
			Warn("notification queue full, dropping event")
	}
}

func (h *Hub) SessionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

func (h *Hub) deliver(msg *UserMessage) {
	data, err := json.Marshal(msg.Event)
	if err != nil {
		h.log.WithError(err).WithField("type", msg.Event.Type).Error("failed to encode event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.sessions[msg.UserID]
	if len(clients) == 0 {
		h.log.WithField("user_id", msg.UserID).Debug("no live sessions, event not delivered")
		return
	}
	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			// Client buffer full, skip
		}
	}
}
