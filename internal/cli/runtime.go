package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/repositories"
	"catalog/internal/telemetry"

	"github.com/spf13/viper"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// runtime holds the resources shared by every command.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *telemetry.Telemetry
	db        *gorm.DB
}

// loadConfig reads the optional config file and the environment.
func loadConfig(path string) (*config.Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// bootstrap loads the configuration and opens the logger, telemetry and
// database. The database schema is migrated when AUTO_MIGRATE is set.
func bootstrap(ctx context.Context, configPath string, logOutput io.Writer) (*runtime, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := telemetry.NewLogger(logOutput, cfg.Log, cfg.OTLP)
	if err != nil {
		return nil, err
	}

	tel, err := telemetry.New(ctx, cfg.OTLP, logger)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}
	logger.Info("Database connected", slog.String("driver", cfg.Database.Driver))

	rt := &runtime{cfg: cfg, logger: logger, telemetry: tel, db: db}
	if cfg.Database.AutoMigrate {
		if err := rt.migrate(); err != nil {
			_ = rt.close()
			return nil, err
		}
	}
	return rt, nil
}

func (rt *runtime) migrate() error {
	if err := repositories.AutoMigrate(rt.db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	rt.logger.Info("Database schema is up to date")
	return nil
}

// close flushes telemetry and releases the connection pool.
func (rt *runtime) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Join(
		rt.telemetry.Shutdown(ctx),
		database.Close(rt.db),
	)
}
