// Package config provides configuration loading for repaird.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/repaird/internal/logging"
)

// Config is the root configuration for repaird.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     logging.Config    `koanf:"logging"`
	Devices     DevicesConfig     `koanf:"devices"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	Retrieval   RetrievalConfig   `koanf:"retrieval"`
	Session     SessionConfig     `koanf:"session"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ReadTimeout     Duration `koanf:"read_timeout"`
	WriteTimeout    Duration `koanf:"write_timeout"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// DevicesConfig holds the device catalog settings.
type DevicesConfig struct {
	// CatalogPath points at the CSV device catalog.
	CatalogPath string `koanf:"catalog_path"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	// Provider is "chromem", "qdrant", or "none".
	Provider   string       `koanf:"provider"`
	Path       string       `koanf:"path"`
	Collection string       `koanf:"collection"`
	VectorSize int          `koanf:"vector_size"`
	Qdrant     QdrantConfig `koanf:"qdrant"`
}

// QdrantConfig holds Qdrant gRPC connection settings.
type QdrantConfig struct {
	Host           string   `koanf:"host"`
	Port           int      `koanf:"port"`
	APIKey         Secret   `koanf:"api_key"`
	UseTLS         bool     `koanf:"use_tls"`
	RequestTimeout Duration `koanf:"request_timeout"`
}

// EmbeddingsConfig selects and configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "fastembed", "tei", or "none".
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	CacheDir string `koanf:"cache_dir"`
}

// RetrievalConfig tunes manual retrieval.
type RetrievalConfig struct {
	TopK           int     `koanf:"top_k"`
	ScoreThreshold float64 `koanf:"score_threshold"`
}

// SessionConfig bounds the in-memory session manager.
type SessionConfig struct {
	MaxSessions int `koanf:"max_sessions"`
}

// applyDefaults fills in defaults for unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8420
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = Duration(15 * time.Second)
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = Duration(30 * time.Second)
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Fields == nil {
		cfg.Logging.Fields = map[string]string{"service": "repaird"}
	}

	if cfg.Devices.CatalogPath == "" {
		cfg.Devices.CatalogPath = "devices.csv"
	}

	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = "chromem"
	}
	if cfg.VectorStore.Path == "" {
		cfg.VectorStore.Path = "~/.config/repaird/vectorstore"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "repair_manuals"
	}
	if cfg.VectorStore.VectorSize == 0 {
		cfg.VectorStore.VectorSize = 384
	}
	if cfg.VectorStore.Qdrant.Host == "" {
		cfg.VectorStore.Qdrant.Host = "localhost"
	}
	if cfg.VectorStore.Qdrant.Port == 0 {
		cfg.VectorStore.Qdrant.Port = 6334
	}
	if cfg.VectorStore.Qdrant.RequestTimeout == 0 {
		cfg.VectorStore.Qdrant.RequestTimeout = Duration(30 * time.Second)
	}

	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = "fastembed"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}
	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "http://localhost:8080"
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.ScoreThreshold == 0 {
		cfg.Retrieval.ScoreThreshold = 0.3
	}

	if cfg.Session.MaxSessions == 0 {
		cfg.Session.MaxSessions = 1000
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	switch c.VectorStore.Provider {
	case "chromem", "qdrant", "none":
	default:
		return fmt.Errorf("vectorstore provider must be 'chromem', 'qdrant', or 'none', got %q", c.VectorStore.Provider)
	}
	switch c.Embeddings.Provider {
	case "fastembed", "tei", "none":
	default:
		return fmt.Errorf("embeddings provider must be 'fastembed', 'tei', or 'none', got %q", c.Embeddings.Provider)
	}
	if c.Retrieval.TopK < 0 {
		return fmt.Errorf("retrieval top_k must be >= 0, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.ScoreThreshold < 0 || c.Retrieval.ScoreThreshold > 1 {
		return fmt.Errorf("retrieval score_threshold must be in [0,1], got %f", c.Retrieval.ScoreThreshold)
	}
	if c.Session.MaxSessions <= 0 {
		return fmt.Errorf("session max_sessions must be > 0, got %d", c.Session.MaxSessions)
	}
	return nil
}
