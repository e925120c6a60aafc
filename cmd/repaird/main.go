// Repaird is a guided appliance troubleshooting service.
//
// It walks a user through device identification, a structured symptom
// interview, and iterative repair guidance backed by similarity search
// over indexed repair manuals.
//
// Usage:
//
//	# Start server with defaults
//	repaird
//
//	# Use a config file, override via environment
//	repaird -config /etc/repaird/config.yaml
//	SERVER_PORT=9090 repaird
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repaird/internal/config"
	"github.com/fyrsmithlabs/repaird/internal/devices"
	"github.com/fyrsmithlabs/repaird/internal/embeddings"
	"github.com/fyrsmithlabs/repaird/internal/logging"
	"github.com/fyrsmithlabs/repaird/internal/manuals"
	"github.com/fyrsmithlabs/repaird/internal/server"
	"github.com/fyrsmithlabs/repaird/internal/session"
	"github.com/fyrsmithlabs/repaird/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  repaird            Start the repaird server\n")
			fmt.Fprintf(os.Stderr, "  repaird version    Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("repaird by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires all components and blocks until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info(ctx, "starting repaird",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("vectorstore", cfg.VectorStore.Provider),
		zap.String("embeddings", cfg.Embeddings.Provider))

	// Device catalog. An unreadable catalog degrades to an empty registry so
	// the service stays up, every lookup just reports "not known".
	registry, err := devices.LoadCatalog(cfg.Devices.CatalogPath)
	if err != nil {
		logger.Warn(ctx, "device catalog unavailable, continuing with empty catalog",
			zap.String("path", cfg.Devices.CatalogPath),
			zap.Error(err))
	} else {
		logger.Info(ctx, "device catalog loaded",
			zap.Int("devices", registry.Len()))
	}

	embedder, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.Model,
		BaseURL:  cfg.Embeddings.BaseURL,
		CacheDir: cfg.Embeddings.CacheDir,
	})
	if err != nil {
		logger.Warn(ctx, "embedding provider unavailable, retrieval disabled", zap.Error(err))
		embedder = embeddings.NewNullProvider()
	}
	defer func() {
		_ = embedder.Close()
	}()

	store, err := vectorstore.NewStore(vectorstore.FactoryConfig{
		Provider:             cfg.VectorStore.Provider,
		Path:                 cfg.VectorStore.Path,
		Collection:           cfg.VectorStore.Collection,
		VectorSize:           cfg.VectorStore.VectorSize,
		ScoreThreshold:       float32(cfg.Retrieval.ScoreThreshold),
		QdrantHost:           cfg.VectorStore.Qdrant.Host,
		QdrantPort:           cfg.VectorStore.Qdrant.Port,
		QdrantAPIKey:         cfg.VectorStore.Qdrant.APIKey.Value(),
		QdrantUseTLS:         cfg.VectorStore.Qdrant.UseTLS,
		QdrantRequestTimeout: cfg.VectorStore.Qdrant.RequestTimeout.Duration(),
	}, embedder, logger)
	if err != nil {
		logger.Warn(ctx, "vector store unavailable, retrieval disabled", zap.Error(err))
		store = vectorstore.NewNoopStore()
	}
	defer func() {
		_ = store.Close()
	}()

	manualSvc := manuals.NewService(store, cfg.Retrieval.TopK, logger)
	if err := manualSvc.Seed(ctx); err != nil {
		logger.Warn(ctx, "seeding sample manuals failed", zap.Error(err))
	}

	manager := session.NewManager(registry, manualSvc, cfg.Session.MaxSessions, logger)

	srv, err := server.NewServer(manager, manualSvc, registry, logger, server.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
