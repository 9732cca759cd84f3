package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hasirciogluhq/xbroadcast-relay/cmd/relay/internal/api"
	"github.com/hasirciogluhq/xbroadcast-relay/cmd/relay/internal/config"
	"github.com/hasirciogluhq/xbroadcast-relay/cmd/relay/internal/core"
	"github.com/hasirciogluhq/xbroadcast-relay/cmd/relay/internal/factory"
	"github.com/hasirciogluhq/xbroadcast-relay/cmd/relay/internal/logger"
)

func main() {
	// Cancelled on SIGINT/SIGTERM; the relay loop observes it between events.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration from environment
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init()
	logger.Info("Starting xbroadcast-relay...",
		"listen_addr", cfg.ListenAddr(),
		"discovery", cfg.DiscoveryMode,
		"runtime", cfg.Runtime)

	// Start health server
	healthServer := api.NewHealthServer(":" + cfg.HealthServerPort)
	healthServer.Start()
	logger.Info("Health server started", "port", cfg.HealthServerPort)

	// Resolve the upstream source address
	resolverFactory := factory.NewResolverFactory(cfg)
	resolver, err := resolverFactory.Create(ctx)
	if err != nil {
		logger.Fatal("Failed to create source resolver", "error", err)
	}

	sourceAddr, err := resolver.Resolve(ctx)
	if err != nil {
		logger.Fatal("Failed to resolve source address", "error", err)
	}

	// Connect the source and bind the client listener; both are fatal
	source, err := net.Dial("tcp", sourceAddr)
	if err != nil {
		logger.Fatal("Failed to connect to source", "source_addr", sourceAddr, "error", err)
	}
	logger.Info("Connected to source", "source_addr", sourceAddr)

	listener, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		logger.Fatal("Failed to bind listener", "listen_addr", cfg.ListenAddr(), "error", err)
	}
	logger.Info("Relay listening", "listen_addr", listener.Addr())

	relay := core.New(source, listener)

	// Mark as ready
	healthServer.SetReady(true)
	logger.Info("Relay is ready to accept clients")

	// Relay until cancellation or source end-of-stream (blocking)
	if err := relay.Run(ctx); err != nil {
		logger.Fatal("Relay error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthServer.Stop(shutdownCtx); err != nil {
		logger.Error("Health server shutdown error", "error", err)
	}

	logger.Info("Relay stopped")
}
