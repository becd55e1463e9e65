// Package store persists per-conversation DebateState. One turn is one
// read-modify-write; implementations serialize access per conversation so
// racing requests for the same debate cannot interleave.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate"
)

// ErrNotFound is returned for unknown conversation IDs.
var ErrNotFound = errors.New("store: debate not found")

// Store is the DebateState repository.
type Store interface {
	// Create persists a fresh state and mints its conversation ID.
	Create(ctx context.Context, state *debate.State) (string, error)
	// Get returns a copy of the state for the conversation.
	Get(ctx context.Context, id string) (*debate.State, error)
	// Update runs fn against the current state under the conversation's
	// write lock and persists the result when fn succeeds.
	Update(ctx context.Context, id string, fn func(*debate.State) error) (*debate.State, error)
}

// Memory is the in-process Store used by tests and the CLI.
type Memory struct {
	mu     sync.Mutex
	states map[string]*debate.State
	locks  map[string]*sync.Mutex
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		states: make(map[string]*debate.State),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Create implements Store.
func (m *Memory) Create(_ context.Context, state *debate.State) (string, error) {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = state.Clone()
	m.locks[id] = &sync.Mutex{}
	return id, nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, id string) (*debate.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// Update implements Store with a per-conversation mutex, so turns for one
// debate apply strictly one at a time.
func (m *Memory) Update(_ context.Context, id string, fn func(*debate.State) error) (*debate.State, error) {
	m.mu.Lock()
	lock, ok := m.locks[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	current, ok := m.states[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.states[id] = working
	m.mu.Unlock()
	return working.Clone(), nil
}
