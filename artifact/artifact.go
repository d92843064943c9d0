// Copyright (c) StudyFlow Authors. All rights reserved.

// Package artifact implements the side-channel document model: versioned
// artifact records, the ordered event stream capabilities use to report
// artifact creation and completion, the consumer-side reducer, and the
// durable versioned store.
package artifact

import (
	"time"

	"github.com/google/uuid"
)

// Kind enumerates the artifact payload types the reference capabilities
// produce. Consumers fall back to a generic inert view for kinds they do
// not recognize.
type Kind string

const (
	KindText       Kind = "text"
	KindCode       Kind = "code"
	KindSheet      Kind = "sheet"
	KindQuiz       Kind = "quiz"
	KindFlashcards Kind = "flashcards"
	KindStudyPlan  Kind = "study-plan"
)

// Artifact is one version record of a side document. Artifacts are never
// mutated in place: an edit inserts a new record sharing the ID with a
// later CreatedAt, and the current version is the record with the greatest
// CreatedAt for a given ID. Kind is constant across all versions of an ID.
type Artifact struct {
	// VersionID uniquely identifies this record. Version IDs sort by
	// creation time (ULID).
	VersionID string `json:"versionId"`

	// ID identifies the logical artifact shared across versions.
	ID uuid.UUID `json:"id"`

	Title     string    `json:"title"`
	Kind      Kind      `json:"kind"`
	Content   string    `json:"content"` // opaque serialized payload, typically JSON
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
}
