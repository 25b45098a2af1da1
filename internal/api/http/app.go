package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/observability"
)

// AppOptions configures the Fiber application.
type AppOptions struct {
	Name           string
	RequestTimeout time.Duration
	AllowOrigins   string
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// NewApp builds a Fiber app with the global middleware chain installed.
func NewApp(opts AppOptions) *fiber.App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               opts.Name,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(logger, opts.Metrics),
	})

	origins := opts.AllowOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	RegisterMiddlewares(app, logger, opts.Metrics, opts.RequestTimeout)
	return app
}
