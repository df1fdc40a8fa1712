package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/adapters/mail"
	"github.com/mikey/outreach-agent/internal/api"
	"github.com/mikey/outreach-agent/internal/config"
	"github.com/mikey/outreach-agent/internal/core"
	"github.com/mikey/outreach-agent/internal/di"
	"github.com/mikey/outreach-agent/internal/metrics"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

type runParams struct {
	dig.In

	Config   *config.Config
	Logger   *zap.Logger
	Handlers *api.Handlers
	Inbound  *mail.InboundServer `optional:"true"`
	Provider core.CompletionProvider
	Threads  core.ThreadRepository
	Resolver *metrics.Resolver
}

// run is the main application function that gets all dependencies injected
func run(p runParams) error {
	logger := p.Logger
	defer logger.Sync()

	serverCfg, err := p.Config.GetServer()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         serverCfg.ListenAddress,
		Handler:      api.NewRouter(p.Handlers, serverCfg.CORSOrigins),
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("Starting HTTP API", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	// Start the inbound listener
	if p.Inbound != nil {
		if err := p.Inbound.Start(); err != nil {
			logger.Error("Failed to start inbound SMTP listener", zap.Error(err))
			return err
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("Shutting down...", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		logger.Error("Server failed", zap.Error(runErr))
	}

	ctx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Failed to stop HTTP API", zap.Error(err))
	}

	// Stop the inbound listener
	if p.Inbound != nil {
		if err := p.Inbound.Stop(); err != nil {
			logger.Error("Failed to stop inbound SMTP listener", zap.Error(err))
		}
	}

	// Close any resources that need closing
	if closer, ok := p.Provider.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close completion provider", zap.Error(err))
		}
	}
	if closer, ok := p.Threads.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close thread store", zap.Error(err))
		}
	}

	// Stop the cache if needed
	p.Resolver.Stop()

	logger.Info("Shutdown complete")
	return runErr
}
