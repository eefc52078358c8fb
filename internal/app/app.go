package app

import (
	"context"
	"io"
	"log/slog"
	"os"

	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/services"
	"catalog/pkg/clock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Deps are the collaborators the HTTP application is built from.
type Deps struct {
	ProductService *services.ProductService
	// AuthService enables the /auth routes and guards mutating product
	// routes. Leave nil to run without authentication.
	AuthService *services.AuthService
	// Ping checks the storage connection for /check-db.
	Ping     func(ctx context.Context) error
	Clock    clock.Clock
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Meter    metric.Meter
	Registry *prometheus.Registry
	// AccessLog receives request logs. Defaults to stdout.
	AccessLog io.Writer
}

// New builds the Fiber application.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "catalog",
		ErrorHandler: handlers.ErrorHandler,
	})

	accessLog := deps.AccessLog
	if accessLog == nil {
		accessLog = os.Stdout
	}

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		Output: accessLog,
	}))
	app.Use(middleware.Tracing(deps.Tracer, deps.Meter, otel.GetTextMapPropagator()))

	// --- Health and metrics ---
	handlers.NewHealthHandler(deps.Ping, deps.Clock, deps.Logger).RegisterRoutes(app)
	if deps.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	var guard fiber.Handler
	if deps.AuthService != nil {
		handlers.NewAuthHandler(deps.AuthService, deps.Logger).RegisterRoutes(apiV1)
		guard = middleware.AuthRequired(deps.AuthService, deps.Logger)
	}
	handlers.NewProductHandler(deps.ProductService, deps.Logger).RegisterRoutes(apiV1, guard)

	return app
}
