// Package embeddings provides embedding generation via multiple providers.
//
// Two real providers are supported: "fastembed" runs local ONNX models and
// needs no network, "tei" speaks the text-embeddings-inference HTTP API.
// "none" returns a null-object provider whose operations fail with
// ErrEmbeddingsDisabled, letting retrieval degrade to empty results.
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/repaird/internal/vectorstore"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingsDisabled is returned by the null provider.
	ErrEmbeddingsDisabled = errors.New("embeddings disabled")
)

// Provider is the interface for embedding providers.
type Provider interface {
	vectorstore.Embedder

	// Dimension returns the embedding dimension for the current model.
	Dimension() int

	// Close releases resources held by the provider.
	Close() error
}

// ProviderConfig holds configuration for creating an embedding provider.
type ProviderConfig struct {
	// Provider is "fastembed", "tei", or "none".
	Provider string

	// Model is the embedding model name.
	Model string

	// BaseURL is the TEI endpoint (tei only).
	BaseURL string

	// CacheDir is the model cache directory (fastembed only).
	CacheDir string
}

// NewProvider creates an embedding provider based on the configuration.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "fastembed", "":
		return NewFastEmbedProvider(FastEmbedConfig{
			Model:    cfg.Model,
			CacheDir: cfg.CacheDir,
		})
	case "tei":
		svc, err := NewService(Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	case "none":
		return NewNullProvider(), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

// NullProvider is the null-object provider used when embeddings are absent.
type NullProvider struct{}

// NewNullProvider returns the null-object provider.
func NewNullProvider() *NullProvider {
	return &NullProvider{}
}

func (NullProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, ErrEmbeddingsDisabled
}

func (NullProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return nil, ErrEmbeddingsDisabled
}

func (NullProvider) Dimension() int { return 0 }

func (NullProvider) Close() error { return nil }
