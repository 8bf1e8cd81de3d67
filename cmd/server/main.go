package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/ledgeraudit/internal/config"
	"github.com/JonMunkholm/ledgeraudit/internal/core"
	"github.com/JonMunkholm/ledgeraudit/internal/logging"
	"github.com/JonMunkholm/ledgeraudit/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration", "config", cfg.String())

	profile, err := config.LoadProfile(cfg.Report.ProfilePath)
	if err != nil {
		slog.Error("failed to load report profile", "error", err)
		os.Exit(1)
	}

	service, err := core.NewServiceFromConfig(cfg, profile, slog.Default())
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"max_concurrent_runs", cfg.Audit.MaxConcurrent,
		"default_tolerance", service.DefaultTolerance().String(),
		"locale", cfg.Report.Locale,
		"profile", cfg.Report.ProfilePath,
		"inbox_enabled", cfg.Inbox.Enabled,
	)

	server := web.NewServer(service, cfg)

	// Background jobs run until shutdown
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	var inbox *core.Inbox
	if cfg.Inbox.Enabled {
		inbox = core.NewInbox(service, core.InboxOptions{
			Dir:        cfg.Inbox.Dir,
			OutputDir:  cfg.Inbox.OutputDir,
			Schedule:   cfg.Inbox.Schedule,
			Tolerance:  cfg.Inbox.Tolerance,
			OutputName: cfg.Report.OutputName,
			SettleTime: core.DefaultSettleTime,
		})
		if err := inbox.Start(jobCtx); err != nil {
			slog.Error("failed to start inbox scheduler", "error", err)
			os.Exit(1)
		}
	}

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if inbox != nil {
			select {
			case <-inbox.Stop().Done():
			case <-shutdownCtx.Done():
				slog.Warn("inbox scan did not finish in time")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Wait for runs still writing workbooks
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for audits to complete", "active", status.Active)
			if err := service.WaitForRuns(shutdownCtx); err != nil {
				slog.Warn("audits did not complete in time", "error", err)
			}
		}
		cancelJobs()
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
