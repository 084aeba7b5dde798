package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/integrable/stardust/internal/logger"
	"github.com/integrable/stardust/pkg/config"
	"github.com/integrable/stardust/pkg/gc"
	"github.com/integrable/stardust/pkg/identity"
	"github.com/integrable/stardust/pkg/metrics"
	"github.com/integrable/stardust/pkg/server"
	"github.com/integrable/stardust/pkg/storage"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// CLI flag overrides the configured level
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure log output: %v", err)
	}

	fmt.Println("Stardust - File Object Store")
	logger.Info("Version: %s", version)
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blobStore, err := config.CreateBlobStore(ctx, &cfg.Blob)
	if err != nil {
		log.Fatalf("Failed to create blob store: %v", err)
	}
	defer func() {
		if err := blobStore.Close(); err != nil {
			logger.Warn("Blob store close error: %v", err)
		}
	}()
	logger.Info("Blob store initialized: type=%s", cfg.Blob.Type)

	metaStore, err := config.CreateMetaStore(ctx, &cfg.Metadata)
	if err != nil {
		log.Fatalf("Failed to create metadata store: %v", err)
	}
	defer func() {
		if err := metaStore.Close(); err != nil {
			logger.Warn("Metadata store close error: %v", err)
		}
	}()
	logger.Info("Metadata store initialized: type=%s", cfg.Metadata.Type)

	var options []storage.Option
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		options = append(options, storage.WithMetrics(metrics.NewStorageMetrics()))
		logger.Info("Metrics collection enabled")
	}
	if cfg.Storage.SniffMediaType {
		options = append(options, storage.WithMediaTypeSniffing())
		logger.Info("Media type sniffing enabled")
	}

	orchestrator := storage.New(metaStore, blobStore, options...)
	verifier := identity.NewTokenVerifier(cfg.Auth.JWTSecret)

	collector := gc.NewCollector(metaStore, blobStore, gc.Config{
		Enabled:  cfg.GC.Enabled,
		Interval: cfg.GC.Interval,
		DryRun:   cfg.GC.DryRun,
	})
	collector.Start()
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		if err := collector.Stop(stopCtx); err != nil {
			logger.Warn("Garbage collector stop error: %v", err)
		}
	}()

	srv := server.New(cfg.Server, orchestrator, verifier, version)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running on %s. Press Ctrl+C to stop.", cfg.Server.ListenAddress)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped")
	}
}
