package handlers

import (
	"encoding/json"
	"time"

	"github.com/dimitrije/gigflow-api/internal/middleware"
	"github.com/dimitrije/gigflow-api/internal/notify"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/websocket"
	"github.com/sirupsen/logrus"
)

const (
	socketPingInterval = 30 * time.Second
	socketWriteTimeout = 10 * time.Second
	socketReadTimeout  = 60 * time.Second
	sessionBufferSize  = 64
)

type socketMessage struct {
	Type string `json:"type"`
}

// NotificationHandler attaches live sessions to the hub. A session is bound
// to the user in its access token; there is no way to join another user's
// stream.
type NotificationHandler struct {
	hub       SessionHubInterface
	validator TokenValidatorInterface
	log       logrus.FieldLogger
}

func NewNotificationHandler(hub SessionHubInterface, validator TokenValidatorInterface, log logrus.FieldLogger) *NotificationHandler {
	return &NotificationHandler{
		hub:       hub,
		validator: validator,
		log:       log,
	}
}

// Socket upgrades to a websocket. The token is checked before the upgrade
// because browsers cannot send headers on the handshake.
func (h *NotificationHandler) Socket(c *drift.Context) {
	token := c.QueryParam("token")
	if token == "" {
		c.Unauthorized("token is required")
		return
	}

	claims, err := h.validator.ValidateAccessToken(token)
	if err != nil {
		c.Unauthorized("invalid token")
		return
	}

	conn, err := websocket.Upgrade(c)
	if err != nil {
		h.log.WithError(err).Warn("notification socket upgrade failed")
		return
	}

	client := &notify.Client{
		ID:     uuid.New().String(),
		UserID: claims.UserID,
		Send:   make(chan []byte, sessionBufferSize),
	}
	logger := h.log.WithFields(logrus.Fields{"user_id": client.UserID, "client_id": client.ID})

	h.hub.Register(client)
	logger.Debug("notification socket attached")

	_ = conn.WriteJSON(map[string]string{
		"type":      "connected",
		"client_id": client.ID,
	})

	done := make(chan struct{})

	// Write pump
	go func() {
		ticker := time.NewTicker(socketPingInterval)
		defer ticker.Stop()
		defer func() {
			if err := conn.Close(websocket.CloseNormalClosure, ""); err != nil {
				logger.WithError(err).Debug("notification socket close")
			}
		}()

		for {
			select {
			case msg, ok := <-client.Send:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
				if err := conn.WriteText(string(msg)); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.Ping(nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Read pump, returns on disconnect
	defer func() {
		close(done)
		h.hub.Unregister(client)
		logger.Debug("notification socket detached")
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(socketReadTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var msg socketMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			select {
			case client.Send <- []byte(`{"type":"pong"}`):
			default:
			}
		}
	}
}

// Stream is the server-sent events transport for the same notifications.
func (h *NotificationHandler) Stream(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	sseCtx := c.SSE()

	client := &notify.Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Send:   make(chan []byte, sessionBufferSize),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": client.ID,
	}, "system", ""); err != nil {
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
