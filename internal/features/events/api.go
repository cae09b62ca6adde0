package events

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type EventsApi struct {
	Controller *EventsController
}

func NewEventsApi(controller *EventsController) *EventsApi {
	return &EventsApi{
		Controller: controller,
	}
}

func (h *EventsApi) Setup(app *fiber.App) {
	app.Get("/api/ws/events", websocket.New(h.Controller.HandleWebSocket))
}
