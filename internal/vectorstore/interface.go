// Package vectorstore defines the interface for similarity-search storage and
// provides embedded (chromem-go) and external (Qdrant) implementations.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrStoreUnavailable indicates the backing store cannot be reached or
	// was configured as absent.
	ErrStoreUnavailable = errors.New("vector store unavailable")
)

// Document is a unit of content to index.
type Document struct {
	// ID is the unique document identifier. Auto-generated when empty.
	ID string

	// Content is the text that gets embedded.
	Content string

	// Metadata is stored alongside the vector and returned with search
	// results. Values must be strings; structured values are expected to be
	// JSON-encoded by the caller.
	Metadata map[string]string
}

// SearchResult is a similarity search hit.
type SearchResult struct {
	ID       string
	Content  string
	Score    float32
	Metadata map[string]string
}

// Embedder generates vector embeddings from text.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts, one per input.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query. Some models
	// optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the interface for similarity-search storage.
//
// Implementations embed document content via their configured Embedder and
// exclude results scoring below their configured threshold. Results are
// ordered by descending similarity score.
type Store interface {
	// AddDocuments embeds and stores documents, returning their IDs.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// Search returns up to k results similar to query, best first.
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
