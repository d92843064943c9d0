// Copyright (c) StudyFlow Authors. All rights reserved.

package artifact

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an artifact id has no stored versions.
	ErrNotFound = errors.New("artifact not found")

	// ErrKindMismatch is returned when a save would change the kind of an
	// existing artifact id. Kind is constant across all versions.
	ErrKindMismatch = errors.New("artifact kind differs from existing versions")
)

// Store is the durable, versioned record of artifact content. Writes are
// append-only: Save never mutates an existing record, and the current
// version of an id is the record with the greatest CreatedAt.
//
// Implementations must serialize concurrent writes to the same id; writes
// to different ids are independent.
type Store interface {
	// Save appends a new version record and returns it.
	Save(ctx context.Context, id uuid.UUID, title string, kind Kind, content, owner string) (*Artifact, error)

	// Latest returns the current version for id, or ErrNotFound.
	Latest(ctx context.Context, id uuid.UUID) (*Artifact, error)

	// Versions returns all version records for id, oldest first.
	Versions(ctx context.Context, id uuid.UUID) ([]Artifact, error)
}
