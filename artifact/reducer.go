// Copyright (c) StudyFlow Authors. All rights reserved.

package artifact

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase is the reducer's per-artifact state: Empty until the first event,
// Streaming while the producer is writing, Idle once Finish arrives.
type Phase string

const (
	PhaseEmpty     Phase = "empty"
	PhaseStreaming Phase = "streaming"
	PhaseIdle      Phase = "idle"

	// PhaseStuck marks an artifact whose producer never emitted Finish
	// within the consumer's patience window. There is no automatic
	// recovery; the consumer surfaces it as an error state.
	PhaseStuck Phase = "stuck"
)

// View is the materialized client-side picture of one artifact.
type View struct {
	ID         uuid.UUID
	Title      string
	Kind       Kind
	Content    string
	Phase      Phase
	Renderable bool // false when Kind has no matching renderer
	UpdatedAt  time.Time
}

// Reducer consumes channel events in arrival order and materializes
// artifacts. It never reorders or coalesces events, and it never fails on
// an unknown artifact kind: such views are marked non-renderable and shown
// inert instead.
type Reducer struct {
	mu      sync.Mutex
	views   map[uuid.UUID]*View
	current *View
	known   map[Kind]struct{}
	now     func() time.Time
}

// NewReducer creates a reducer that recognizes the given renderable kinds.
// With no arguments every reference kind is considered renderable.
func NewReducer(renderable ...Kind) *Reducer {
	if len(renderable) == 0 {
		renderable = []Kind{KindText, KindCode, KindSheet, KindQuiz, KindFlashcards, KindStudyPlan}
	}
	known := make(map[Kind]struct{}, len(renderable))
	for _, k := range renderable {
		known[k] = struct{}{}
	}
	return &Reducer{
		views: make(map[uuid.UUID]*View),
		known: known,
		now:   time.Now,
	}
}

// Apply folds one event into the reducer state.
func (r *Reducer) Apply(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Type {
	case EventSetID:
		var raw string
		if err := json.Unmarshal(e.Data, &raw); err != nil {
			return fmt.Errorf("set_id payload: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("set_id payload: %w", err)
		}
		v, ok := r.views[id]
		if !ok {
			v = &View{ID: id, Phase: PhaseStreaming, Renderable: true}
			r.views[id] = v
		}
		v.Phase = PhaseStreaming
		v.UpdatedAt = r.now()
		r.current = v

	case EventSetTitle:
		v, err := r.mustCurrent(e.Type)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(e.Data, &v.Title); err != nil {
			return fmt.Errorf("set_title payload: %w", err)
		}
		v.UpdatedAt = r.now()

	case EventSetKind:
		v, err := r.mustCurrent(e.Type)
		if err != nil {
			return err
		}
		var kind string
		if err := json.Unmarshal(e.Data, &kind); err != nil {
			return fmt.Errorf("set_kind payload: %w", err)
		}
		v.Kind = Kind(kind)
		if _, ok := r.known[v.Kind]; !ok {
			// Channel desync: no renderer for this kind. Fall back to a
			// generic inert view rather than crashing.
			slog.Warn("no renderer for artifact kind, using inert view",
				"artifact_id", v.ID,
				"kind", kind,
			)
			v.Renderable = false
		}
		v.UpdatedAt = r.now()

	case EventClear:
		v, err := r.mustCurrent(e.Type)
		if err != nil {
			return err
		}
		v.Content = ""
		v.Phase = PhaseStreaming
		v.UpdatedAt = r.now()

	case EventContentDelta:
		v, err := r.mustCurrent(e.Type)
		if err != nil {
			return err
		}
		// Reference capabilities replace: each delta is a full snapshot.
		v.Content = string(e.Data)
		v.Phase = PhaseStreaming
		v.UpdatedAt = r.now()

	case EventFinish:
		v, err := r.mustCurrent(e.Type)
		if err != nil {
			return err
		}
		v.Phase = PhaseIdle
		v.UpdatedAt = r.now()

	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

func (r *Reducer) mustCurrent(t EventType) (*View, error) {
	if r.current == nil {
		return nil, fmt.Errorf("%s event before set_id", t)
	}
	return r.current, nil
}

// View returns a copy of the materialized artifact for id.
func (r *Reducer) View(id uuid.UUID) (View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[id]
	if !ok {
		return View{}, false
	}
	return *v, true
}

// Current returns a copy of the artifact most recently addressed by SetID.
func (r *Reducer) Current() (View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return View{}, false
	}
	return *r.current, true
}

// MarkStuck transitions every artifact still streaming after the patience
// window to [PhaseStuck] and returns their ids. Consumers call this on a
// timer so an unfinished artifact never blocks the panel indefinitely.
func (r *Reducer) MarkStuck(patience time.Duration) []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-patience)
	var stuck []uuid.UUID
	for id, v := range r.views {
		if v.Phase == PhaseStreaming && v.UpdatedAt.Before(cutoff) {
			v.Phase = PhaseStuck
			stuck = append(stuck, id)
			slog.Warn("artifact never finished, marking stuck", "artifact_id", id)
		}
	}
	return stuck
}
