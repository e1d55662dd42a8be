package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamehub/automation-agent/internal/config"
	"gamehub/automation-agent/internal/database"
	"gamehub/automation-agent/internal/handler"
	"gamehub/automation-agent/internal/logger"
	"gamehub/automation-agent/internal/platform"
	"gamehub/automation-agent/internal/repository"
	"gamehub/automation-agent/internal/router"
	"gamehub/automation-agent/internal/server"
	"gamehub/automation-agent/internal/service"
	"gamehub/automation-agent/internal/tray"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/local.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting automation agent",
		zap.String("env", cfg.Env),
		zap.String("config_path", *configPath),
	)

	// Initialize database
	db, err := database.New(cfg.StoragePath, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	// Initialize platform; one per process since it owns the input hook
	platformInstance, err := platform.NewPlatform(log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize platform", zap.Error(err))
	}
	defer platformInstance.Close()

	if info, err := platformInstance.GetSystemInfo(); err == nil {
		log.Info("Platform ready", info.Fields()...)
	}

	// Initialize automation service
	automationService := service.NewAutomationService(
		platformInstance,
		service.EngineConfig(cfg.Automation),
		repository.NewMacroRepository(db.DB),
		repository.NewSessionRepository(db.DB),
		cfg.History,
		log.Logger,
	)
	if err := automationService.Start(); err != nil {
		log.Fatal("Failed to start automation service", zap.Error(err))
	}

	// Status push for the desktop UI
	statusStream := server.NewStatusStream(cfg.Server.AllowedOrigins, log.Logger)
	statusStream.Start()
	automationService.AddStatusPublisher(statusStream)

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.New(router.Handlers{
		Automation: handler.NewAutomationHandler(automationService, log.Logger),
		Macros:     handler.NewMacroHandler(automationService, log.Logger),
		Stream:     statusStream,
	}, cfg.Server.AllowedOrigins, log.Logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting control server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	log.Info("Automation agent started successfully",
		zap.String("address", httpServer.Addr),
		zap.Bool("tray", cfg.Tray.Enabled),
	)

	// Wait for interrupt signal, server failure or tray quit
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if cfg.Tray.Enabled {
		trayMenu := tray.New(automationService, func() {
			select {
			case quit <- syscall.SIGTERM:
			default:
			}
		}, log.Logger)
		automationService.AddStatusPublisher(trayMenu)

		go func() {
			waitForShutdown(log.Logger, quit, serverErr)
			trayMenu.Stop()
		}()
		// systray needs the main goroutine
		trayMenu.Run()
	} else {
		waitForShutdown(log.Logger, quit, serverErr)
	}

	log.Info("Shutting down automation agent...")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn("Control server shutdown error", zap.Error(err))
	} else {
		log.Info("Control server stopped")
	}

	statusStream.Stop()

	// Stop automation (synchronous, with timeout)
	done := make(chan struct{})
	go func() {
		automationService.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Automation service stopped successfully")
	case <-time.After(3 * time.Second):
		log.Warn("Shutdown timeout reached, forcing immediate exit")
		// Input hooks can keep the process alive
		os.Exit(1)
	}

	log.Info("Automation agent stopped")
}

func waitForShutdown(log *zap.Logger, quit <-chan os.Signal, serverErr <-chan error) {
	select {
	case sig := <-quit:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("Control server error", zap.Error(err))
	}
}
