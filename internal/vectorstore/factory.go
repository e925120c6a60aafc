package vectorstore

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/repaird/internal/logging"
)

// FactoryConfig selects and configures a Store backend.
type FactoryConfig struct {
	// Provider is "chromem", "qdrant", or "none".
	Provider string

	// Path is the storage directory (chromem only).
	Path string

	// Collection is the collection name.
	Collection string

	// VectorSize is the embedding dimension (qdrant only).
	VectorSize int

	// ScoreThreshold excludes results scoring below it.
	ScoreThreshold float32

	// Qdrant connection settings (qdrant only).
	QdrantHost           string
	QdrantPort           int
	QdrantAPIKey         string
	QdrantUseTLS         bool
	QdrantRequestTimeout time.Duration
}

// NewStore creates a Store for the configured provider.
//
// "none" returns the null-object store; the caller carries no knowledge of
// whether a real backend is present.
func NewStore(cfg FactoryConfig, embedder Embedder, logger *logging.Logger) (Store, error) {
	switch cfg.Provider {
	case "chromem", "":
		return NewChromemStore(ChromemConfig{
			Path:           cfg.Path,
			Collection:     cfg.Collection,
			ScoreThreshold: cfg.ScoreThreshold,
		}, embedder, logger)
	case "qdrant":
		return NewQdrantStore(QdrantConfig{
			Host:           cfg.QdrantHost,
			Port:           cfg.QdrantPort,
			APIKey:         cfg.QdrantAPIKey,
			UseTLS:         cfg.QdrantUseTLS,
			Collection:     cfg.Collection,
			VectorSize:     uint64(cfg.VectorSize),
			ScoreThreshold: cfg.ScoreThreshold,
			RequestTimeout: cfg.QdrantRequestTimeout,
		}, embedder, logger)
	case "none":
		return NewNoopStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
