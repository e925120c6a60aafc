package vectorstore

import "context"

// NoopStore is the null-object Store used when no backend is configured.
// Searches return no results and writes report ErrStoreUnavailable, so
// callers degrade to generic behavior without branching on backend presence.
type NoopStore struct{}

// NewNoopStore returns the null-object store.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

// AddDocuments reports the store as unavailable.
func (s *NoopStore) AddDocuments(ctx context.Context, docs []Document) ([]string, error) {
	return nil, ErrStoreUnavailable
}

// Search returns no results.
func (s *NoopStore) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	return []SearchResult{}, nil
}

// Count returns zero.
func (s *NoopStore) Count(ctx context.Context) (int, error) {
	return 0, nil
}

// Close is a no-op.
func (s *NoopStore) Close() error {
	return nil
}

var _ Store = (*NoopStore)(nil)
