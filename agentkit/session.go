// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Session manages locally stored conversation state across turns. History
// is loaded from the session's [MessageStore] before each run and the new
// messages are appended afterwards.
//
// Durable, service-side conversation persistence is owned by the hosting
// application; a Session only spans the life of its store.
type Session struct {
	mu    sync.Mutex
	id    string
	store MessageStore
}

// SessionOption configures a [Session].
type SessionOption func(*Session)

// WithSessionStore sets the message store for the session.
func WithSessionStore(store MessageStore) SessionOption {
	return func(s *Session) { s.store = store }
}

// NewSession creates a new Session with a generated ID.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{id: uuid.NewString()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Store returns the session's message store, or nil if unset.
func (s *Session) Store() MessageStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

// SetStore attaches a message store to the session.
func (s *Session) SetStore(store MessageStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
}

// Serialize returns the session state as a serializable map.
func (s *Session) Serialize() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := map[string]any{"id": s.id}
	if s.store != nil {
		storeState, err := s.store.Serialize()
		if err != nil {
			return nil, fmt.Errorf("%w: serialize store: %w", ErrSession, err)
		}
		state["store"] = storeState
	}
	return state, nil
}
