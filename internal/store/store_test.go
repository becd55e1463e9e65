package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate"
)

func newState(t *testing.T) *debate.State {
	t.Helper()
	state, err := debate.NewState("Dogs are the best companion", debate.StancePro, debate.Policy{
		RequiredPositiveJudgements: 1,
		MaxAssistantTurns:          5,
	})
	require.NoError(t, err)
	return state
}

func TestMemoryCreateAndGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Create(ctx, newState(t))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dogs are the best companion", got.Topic)
	assert.Equal(t, debate.StancePro, got.Stance)
}

func TestMemoryGetUnknownID(t *testing.T) {
	_, err := NewMemory().Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGetReturnsACopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.Create(ctx, newState(t))
	require.NoError(t, err)

	first, err := m.Get(ctx, id)
	require.NoError(t, err)
	first.PositiveJudgements = 42

	second, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, second.PositiveJudgements)
}

func TestMemoryUpdate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.Create(ctx, newState(t))
	require.NoError(t, err)

	updated, err := m.Update(ctx, id, func(s *debate.State) error {
		return s.CreditPositive()
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.PositiveJudgements)

	got, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PositiveJudgements)
}

func TestMemoryUpdateErrorDoesNotPersist(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.Create(ctx, newState(t))
	require.NoError(t, err)

	_, err = m.Update(ctx, id, func(s *debate.State) error {
		s.PositiveJudgements = 99
		return errors.New("turn failed")
	})
	require.Error(t, err)

	got, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, got.PositiveJudgements, "a failed update must not leak partial state")
}

func TestMemoryUpdateUnknownID(t *testing.T) {
	_, err := NewMemory().Update(context.Background(), "nope", func(*debate.State) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryConcurrentUpdatesSerialize(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.Create(ctx, newState(t))
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Update(ctx, id, func(s *debate.State) error {
				return s.CreditPositive()
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, n, got.PositiveJudgements)
}
