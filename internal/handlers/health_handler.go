package handlers

import (
	"context"
	"log/slog"
	"time"

	"catalog/pkg/clock"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler serves liveness and storage checks.
type HealthHandler struct {
	ping   func(ctx context.Context) error
	clock  clock.Clock
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler. ping checks the storage
// connection.
func NewHealthHandler(ping func(ctx context.Context) error, clk clock.Clock, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		ping:   ping,
		clock:  clk,
		logger: logger,
	}
}

// RegisterRoutes registers the health routes.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
	router.Get("/check-db", h.HandleCheckDB)
}

// HandleHealth reports that the process is serving requests.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   h.clock.Now().Format(time.RFC3339),
	})
}

// HandleCheckDB pings the database.
func (h *HealthHandler) HandleCheckDB(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "Database check failed", slog.String("error", err.Error()))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unhealthy",
			"database": "unreachable",
			"error":    err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"status":   "healthy",
		"database": "connected",
	})
}
