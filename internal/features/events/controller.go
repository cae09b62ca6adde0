package events

import (
	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

type EventsController struct {
	Hub    *Hub
	Logger *zap.Logger
}

func NewEventsController(hub *Hub, logger *zap.Logger) *EventsController {
	return &EventsController{Hub: hub, Logger: logger}
}

// HandleWebSocket streams storage events to one connected client until
// it disconnects.
func (h *EventsController) HandleWebSocket(c *websocket.Conn) {
	id, ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(id)

	h.Logger.Debug("events subscriber connected", zap.String("client_id", id))

	// Drain inbound frames so pings/closes are processed
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				h.Hub.Unsubscribe(id)
				return
			}
		}
	}()

	for event := range ch {
		if err := c.WriteJSON(event); err != nil {
			h.Logger.Debug("events subscriber write failed", zap.String("client_id", id), zap.Error(err))
			return
		}
	}
}
