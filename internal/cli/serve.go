package cli

import (
	"context"
	"fmt"
	"log/slog"

	"catalog/internal/app"
	"catalog/internal/database"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/pkg/clock"

	"github.com/go-extras/cobraflags"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	flags := configFlags()
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd.Context(), flags[configFlag].GetString(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() {
				if err := rt.close(); err != nil {
					rt.logger.Error("Error during shutdown", slog.String("error", err.Error()))
				}
			}()
			return rt.serve(cmd.Context())
		},
	}
	cobraflags.RegisterMap(serveCmd, flags)
	return serveCmd
}

// newApp wires repositories, services and handlers into the Fiber app.
func (rt *runtime) newApp() *fiber.App {
	clk := clock.NewRealClock()

	productRepo := repositories.NewGORMProductRepository(rt.db, clk)
	productService := services.NewProductService(
		productRepo,
		clk,
		rt.telemetry.Tracer(),
		rt.telemetry.Meter(),
		rt.logger,
	)

	var authService *services.AuthService
	if rt.cfg.Auth.Enabled {
		userRepo := repositories.NewGORMUserRepository(rt.db)
		authService = services.NewAuthService(userRepo, rt.cfg.Auth.JWTSecret, rt.cfg.Auth.TokenTTL, clk, rt.logger)
	}

	return app.New(app.Deps{
		ProductService: productService,
		AuthService:    authService,
		Ping: func(ctx context.Context) error {
			return database.Ping(ctx, rt.db)
		},
		Clock:    clk,
		Logger:   rt.logger,
		Tracer:   rt.telemetry.Tracer(),
		Meter:    rt.telemetry.Meter(),
		Registry: rt.telemetry.Registry,
	})
}

// serve listens until ctx is cancelled, then shuts the server down.
func (rt *runtime) serve(ctx context.Context) error {
	fiberApp := rt.newApp()

	listenErr := make(chan error, 1)
	go func() {
		rt.logger.Info("Starting server", slog.String("port", rt.cfg.Server.Port))
		listenErr <- fiberApp.Listen(rt.cfg.Server.Port)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	rt.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}
	rt.logger.Info("Server gracefully stopped")
	return nil
}
