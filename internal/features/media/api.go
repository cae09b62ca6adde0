package media

import (
	"media-store/internal/config"
	"media-store/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MediaApi struct {
	controller *MediaController
	config     *config.Config
}

func NewMediaApi(controller *MediaController, config *config.Config) *MediaApi {
	return &MediaApi{
		controller: controller,
		config:     config,
	}
}

func (h *MediaApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	app.Post("/upload", auth, h.controller.UploadFile)
	app.Get("/files", auth, h.controller.ListFiles)
	app.Get("/files/export", auth, h.controller.ExportFiles)
	app.Get("/files/:id", auth, h.controller.DownloadFile)
	app.Get("/files/:id/info", auth, h.controller.GetFileInfo)
	app.Put("/files/:id", auth, h.controller.UpdateFile)
	app.Delete("/files/:id", auth, h.controller.DeleteFile)
}
