package manuals

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/repaird/internal/logging"
	"github.com/fyrsmithlabs/repaird/internal/vectorstore"
)

// fakeStore records calls and returns canned results.
type fakeStore struct {
	docs       []vectorstore.Document
	results    []vectorstore.SearchResult
	count      int
	searchErr  error
	addErr     error
	countErr   error
	lastQuery string
	lastK     int
	addCalled bool
}

func (f *fakeStore) AddDocuments(ctx context.Context, docs []vectorstore.Document) ([]string, error) {
	f.addCalled = true
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.docs = append(f.docs, docs...)
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = fmt.Sprintf("id-%d", i)
	}
	return ids, nil
}

func (f *fakeStore) Search(ctx context.Context, query string, k int) ([]vectorstore.SearchResult, error) {
	f.lastQuery = query
	f.lastK = k
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeStore) Count(ctx context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.count, nil
}

func (f *fakeStore) Close() error { return nil }

func TestSearchSolutions(t *testing.T) {
	steps, err := json.Marshal([]string{"Step 1: Check valve", "Step 2: Replace valve"})
	require.NoError(t, err)

	store := &fakeStore{results: []vectorstore.SearchResult{
		{
			ID:    "m1",
			Score: 0.91,
			Metadata: map[string]string{
				"device_model": "SMS6EDI06E",
				"device_name":  "Bosch Dishwasher Serie 6 SMS6EDI06E",
				"symptoms":     "no water entry, error code E:15",
				"steps":        string(steps),
				"resolution":   "Replace water inlet valve - common failure",
			},
		},
	}}
	svc := NewService(store, 3, logging.NewNop())

	candidates := svc.SearchSolutions(context.Background(), "SMS6EDI06E", "no water, E:15 shown")
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, float32(0.91), c.Score)
	assert.Equal(t, "SMS6EDI06E", c.DeviceModel)
	assert.Equal(t, "Bosch Dishwasher Serie 6 SMS6EDI06E", c.DeviceName)
	assert.Equal(t, []string{"Step 1: Check valve", "Step 2: Replace valve"}, c.Steps)
	assert.Equal(t, "Replace water inlet valve - common failure", c.Resolution)

	assert.Equal(t, "Device: SMS6EDI06E Symptoms: no water, E:15 shown", store.lastQuery)
	assert.Equal(t, 3, store.lastK)
}

func TestSearchSolutions_DegradesOnError(t *testing.T) {
	store := &fakeStore{searchErr: fmt.Errorf("backend down")}
	svc := NewService(store, 3, logging.NewNop())

	candidates := svc.SearchSolutions(context.Background(), "X", "anything")
	assert.Empty(t, candidates)
}

func TestSearchSolutions_MalformedSteps(t *testing.T) {
	store := &fakeStore{results: []vectorstore.SearchResult{
		{ID: "m1", Score: 0.5, Metadata: map[string]string{
			"device_model": "X",
			"steps":        "not json",
		}},
	}}
	svc := NewService(store, 3, logging.NewNop())

	candidates := svc.SearchSolutions(context.Background(), "X", "y")
	require.Len(t, candidates, 1)
	assert.Empty(t, candidates[0].Steps)
}

func TestAddManual(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, 3, logging.NewNop())

	ok := svc.AddManual(context.Background(), Manual{
		DeviceModel: "WAX28E91",
		DeviceName:  "Bosch Washing Machine WAX28E91",
		Symptoms:    "door stuck closed",
		Steps:       []string{"Step 1: Pull emergency release"},
		Resolution:  "Replace door lock",
	})
	require.True(t, ok)
	require.Len(t, store.docs, 1)

	doc := store.docs[0]
	assert.Equal(t, "Bosch Washing Machine WAX28E91 door stuck closed", doc.Content)
	assert.Equal(t, "WAX28E91", doc.Metadata["device_model"])
	assert.JSONEq(t, `["Step 1: Pull emergency release"]`, doc.Metadata["steps"])
}

func TestAddManual_Invalid(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, 3, logging.NewNop())

	assert.False(t, svc.AddManual(context.Background(), Manual{DeviceName: "X"}))
	assert.False(t, svc.AddManual(context.Background(), Manual{Symptoms: "y"}))
	assert.False(t, store.addCalled)
}

func TestAddManual_StoreFailure(t *testing.T) {
	store := &fakeStore{addErr: vectorstore.ErrStoreUnavailable}
	svc := NewService(store, 3, logging.NewNop())

	ok := svc.AddManual(context.Background(), Manual{DeviceName: "X", Symptoms: "y"})
	assert.False(t, ok)
}

func TestSeed_EmptyStore(t *testing.T) {
	store := &fakeStore{count: 0}
	svc := NewService(store, 3, logging.NewNop())

	require.NoError(t, svc.Seed(context.Background()))
	require.Len(t, store.docs, 5)

	// Seed documents embed name, symptoms and steps for richer matching.
	assert.Contains(t, store.docs[0].Content, "Bosch Dishwasher Serie 6 SMS6EDI06E")
	assert.Contains(t, store.docs[0].Content, "Step 1: Check water inlet valve")
}

func TestSeed_PopulatedStoreUntouched(t *testing.T) {
	store := &fakeStore{count: 7}
	svc := NewService(store, 3, logging.NewNop())

	require.NoError(t, svc.Seed(context.Background()))
	assert.False(t, store.addCalled)
}

func TestSeed_CountFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{countErr: fmt.Errorf("unreachable")}
	svc := NewService(store, 3, logging.NewNop())

	require.NoError(t, svc.Seed(context.Background()))
	assert.False(t, store.addCalled)
}
