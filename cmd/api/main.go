package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ashmitsharp/trackmoney-api/internal/config"
	"github.com/ashmitsharp/trackmoney-api/internal/handlers"
	"github.com/ashmitsharp/trackmoney-api/internal/logger"
	"github.com/ashmitsharp/trackmoney-api/internal/middleware"
	"github.com/ashmitsharp/trackmoney-api/internal/services"
	"github.com/ashmitsharp/trackmoney-api/internal/store"
	"github.com/ashmitsharp/trackmoney-api/internal/telemetry"
	"github.com/ashmitsharp/trackmoney-api/internal/utils"
)

func main() {
	if err := run(); err != nil {
		slog.Error("trackmoney API exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
	appLog := logger.WithComponent(log, logger.ComponentApp)
	if envErr != nil {
		appLog.Warn(".env file not found, using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	st, err := store.New(ctx, cfg, logger.WithComponent(log, logger.ComponentStorage))
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			appLog.Warn("Failed to close storage", logger.FieldError, err)
		}
	}()
	appLog.Info("✓ Storage initialized successfully", "backend", cfg.StorageBackend)

	// Telemetry
	publisher, err := newPublisher(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	dispatcher := telemetry.NewDispatcher(publisher, cfg.TelemetryBuffer, logger.WithComponent(log, logger.ComponentTelemetry))
	appLog.Info("✓ Telemetry initialized successfully", "amqp", cfg.AMQPURL != "")

	// Services
	ledgerService := services.NewLedgerService(st, dispatcher, log, cfg.PersistTimeout)
	exporter := services.NewExporter()
	categorizer, err := services.NewCategorizer(services.DefaultRules())
	if err != nil {
		return fmt.Errorf("initialize categorizer: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "trackmoney API v1.0",
		ErrorHandler: utils.NewErrorHandler(cfg.IsProduction(), log),
	})

	// Apply global middleware
	if cfg.LogRequests {
		app.Use(logger.RequestLogger(log))
	}
	app.Use(middleware.CORS(cfg.CORSOrigins))

	handlers.Register(app, ledgerService, exporter, categorizer, middleware.ClerkAuth(cfg.ClerkSecretKey))
	appLog.Info("✓ All routes configured successfully")

	// Telemetry outlives the server so events from in-flight requests still go out
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(dispatchCtx)
	})

	g.Go(func() error {
		appLog.Info("🚀 trackmoney API is running", "addr", cfg.Addr(), "environment", cfg.Environment)
		if err := app.Listen(cfg.Addr(), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		defer stopDispatch()

		appLog.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			appLog.Error("Server shutdown failed", logger.FieldError, err)
		}

		waitCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := ledgerService.Wait(waitCtx); err != nil {
			appLog.Error("Pending ledger saves did not finish", logger.FieldError, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	appLog.Info("trackmoney API stopped",
		"events_published", dispatcher.Published(),
		"events_dropped", dispatcher.Dropped(),
	)
	return nil
}

func newPublisher(cfg *config.Config, log *slog.Logger) (telemetry.Publisher, error) {
	if cfg.AMQPURL == "" {
		return telemetry.NewLogPublisher(logger.WithComponent(log, logger.ComponentTelemetry)), nil
	}
	return telemetry.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
}
