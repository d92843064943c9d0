// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit

import (
	"context"
	"encoding/json"
	"sync"
)

// MessageStore persists conversation messages for a [Session].
type MessageStore interface {
	// ListMessages returns all stored messages in order.
	ListMessages(ctx context.Context) ([]Message, error)

	// AddMessages appends messages to the store.
	AddMessages(ctx context.Context, msgs []Message) error

	// Serialize returns the store's state as a JSON-marshalable map, with
	// message contents in their $type envelope encoding.
	Serialize() (map[string]any, error)
}

// InMemoryStore is a simple in-memory [MessageStore].
type InMemoryStore struct {
	mu       sync.Mutex
	messages []Message
}

// NewInMemoryStore creates an empty [InMemoryStore].
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) ListMessages(_ context.Context) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]Message, len(s.messages))
	copy(cp, s.messages)
	return cp, nil
}

func (s *InMemoryStore) AddMessages(_ context.Context, msgs []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
	return nil
}

func (s *InMemoryStore) Serialize() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]map[string]any, 0, len(s.messages))
	for _, m := range s.messages {
		contents := make([]json.RawMessage, 0, len(m.Contents))
		for _, c := range m.Contents {
			b, err := MarshalContentJSON(c)
			if err != nil {
				return nil, err
			}
			contents = append(contents, b)
		}
		msgs = append(msgs, map[string]any{
			"role":     m.Role,
			"contents": contents,
		})
	}
	return map[string]any{"messages": msgs}, nil
}
