package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"media-store/internal/cache"
	common_api "media-store/internal/common/api"
	"media-store/internal/config"
	"media-store/internal/database"
	"media-store/internal/features/events"
	"media-store/internal/features/media"
	"media-store/internal/features/system"
	"media-store/internal/logger"
	"media-store/internal/middleware"
	"media-store/pkg/utils"

	_ "media-store/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		// Uploads are streamed through the chunker, so allow large bodies
		BodyLimit:         1 << 30,
		StreamRequestBody: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())
	app.Use(middleware.MetricsMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d routes\n", len(routes))
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, mediaRepo media.MediaRepository, chunkRepo media.ChunkRepository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := mediaRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure media indexes: %v", err)
				}
				if err := chunkRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure chunk indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

// @title           Media Store API
// @version         1.0
// @description     Chunked media object storage with metadata, filtering and streaming retrieval.

// @host            localhost:8080
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database & Cache
			database.NewDatabase,
			cache.NewCache,

			// Initialize Repositories
			media.NewMediaRepository,
			media.NewChunkRepository,

			// Initialize Event Hub
			events.NewHub,
			func(h *events.Hub) media.EventPublisher { return h },

			// Initialize Services
			media.NewMediaService,
			media.NewOrphanSweeper,

			// Initialize Controllers
			media.NewMediaController,
			events.NewEventsController,

			// Initialize API Routes
			AsRoute(media.NewMediaApi),
			AsRoute(events.NewEventsApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewMetricsApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			InitializeIndexes,
			media.RegisterOrphanSweeper,
		),
	)

	app.Run()
}
