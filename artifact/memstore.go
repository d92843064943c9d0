// Copyright (c) StudyFlow Authors. All rights reserved.

package artifact

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory [Store] with the same append-only semantics as
// the SQLite implementation. It serves tests and transient deployments.
type MemStore struct {
	mu       sync.Mutex
	versions map[uuid.UUID][]Artifact
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{versions: make(map[uuid.UUID][]Artifact)}
}

func (s *MemStore) Save(_ context.Context, id uuid.UUID, title string, kind Kind, content, owner string) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.versions[id]
	if len(existing) > 0 && existing[0].Kind != kind {
		return nil, fmt.Errorf("%w: id %s is %q, save requested %q", ErrKindMismatch, id, existing[0].Kind, kind)
	}

	versionID, err := newVersionID()
	if err != nil {
		return nil, err
	}
	rec := Artifact{
		VersionID: versionID,
		ID:        id,
		Title:     title,
		Kind:      kind,
		Content:   content,
		Owner:     owner,
		CreatedAt: time.Now(),
	}
	s.versions[id] = append(existing, rec)
	return &rec, nil
}

func (s *MemStore) Latest(_ context.Context, id uuid.UUID) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions := s.versions[id]
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	latest := versions[0]
	for _, v := range versions[1:] {
		if v.CreatedAt.After(latest.CreatedAt) ||
			(v.CreatedAt.Equal(latest.CreatedAt) && v.VersionID > latest.VersionID) {
			latest = v
		}
	}
	return &latest, nil
}

func (s *MemStore) Versions(_ context.Context, id uuid.UUID) ([]Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions := s.versions[id]
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	cp := make([]Artifact, len(versions))
	copy(cp, versions)
	return cp, nil
}
