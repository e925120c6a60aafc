package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/repaird/internal/logging"
)

func newTestManager(t *testing.T, maxSessions int) *Manager {
	t.Helper()
	return NewManager(testRegistry(t), &stubRetriever{}, maxSessions, logging.NewNop())
}

func TestManager_CreateGetRemove(t *testing.T) {
	m := newTestManager(t, 10)
	ctx := context.Background()

	s, err := m.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)
	assert.Equal(t, 1, m.Count())

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = m.Get("missing")
	assert.False(t, ok)

	m.Remove(s.ID)
	assert.Equal(t, 0, m.Count())
	_, ok = m.Get(s.ID)
	assert.False(t, ok)
}

func TestManager_SessionLimit(t *testing.T) {
	m := newTestManager(t, 2)
	ctx := context.Background()

	_, err := m.Create(ctx)
	require.NoError(t, err)
	_, err = m.Create(ctx)
	require.NoError(t, err)

	_, err = m.Create(ctx)
	assert.ErrorIs(t, err, ErrTooManySessions)
}

func TestManager_IndependentSessionsAdvanceInParallel(t *testing.T) {
	m := newTestManager(t, 0)
	ctx := context.Background()

	const n = 8
	sessions := make([]*Session, n)
	for i := range sessions {
		s, err := m.Create(ctx)
		require.NoError(t, err)
		sessions[i] = s
	}

	var wg sync.WaitGroup
	for i, s := range sessions {
		wg.Add(1)
		go func(i int, s *Session) {
			defer wg.Done()

			_, err := s.Advance(ctx, "SMS6EDI06E")
			assert.NoError(t, err)
			for q := 1; q <= 7; q++ {
				_, err := s.Advance(ctx, fmt.Sprintf("session %d answer %d", i, q))
				assert.NoError(t, err)
			}
		}(i, s)
	}
	wg.Wait()

	for _, s := range sessions {
		assert.Equal(t, StageProblemSolver, s.Stage())
	}
}
