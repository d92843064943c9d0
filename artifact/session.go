// Copyright (c) StudyFlow Authors. All rights reserved.

package artifact

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Session scopes one artifact's creation sequence on a [Channel]. Open
// emits the metadata prologue (SetID, SetTitle, SetKind, Clear — always in
// that order, always before any content), and Close emits Finish exactly
// once, no matter how often it is called or on which exit path.
//
// Producers must defer Close immediately after Open so the Finish event
// fires even when generation fails or panics. A consumer blocked waiting
// for completion is only ever released by Finish; omitting it wedges the
// consumer's artifact panel in a loading state permanently.
//
//	sess, err := artifact.Open(turn.Channel, "Biology quiz", artifact.KindQuiz)
//	if err != nil { ... }
//	defer sess.Close()
type Session struct {
	id        uuid.UUID
	title     string
	kind      Kind
	ch        Channel
	closeOnce sync.Once
	closeErr  error
}

// Open starts a new artifact on ch with a fresh id.
func Open(ch Channel, title string, kind Kind) (*Session, error) {
	return OpenWith(ch, uuid.New(), title, kind)
}

// OpenWith starts an artifact sequence for an existing id. Update
// capabilities use it so the new version streams into the same panel.
func OpenWith(ch Channel, id uuid.UUID, title string, kind Kind) (*Session, error) {
	s := &Session{id: id, title: title, kind: kind, ch: ch}

	prologue := []Event{
		{Type: EventSetID, Data: mustJSON(id.String())},
		{Type: EventSetTitle, Data: mustJSON(title)},
		{Type: EventSetKind, Data: mustJSON(string(kind))},
		{Type: EventClear},
	}
	for _, e := range prologue {
		if err := ch.Emit(e); err != nil {
			// The sequence is already underway: release the consumer
			// before reporting the transport failure.
			s.Close()
			return nil, fmt.Errorf("emit %s: %w", e.Type, err)
		}
	}
	return s, nil
}

// ID returns the artifact id for this sequence.
func (s *Session) ID() uuid.UUID { return s.id }

// Title returns the artifact title announced in the prologue.
func (s *Session) Title() string { return s.title }

// Kind returns the artifact kind announced in the prologue.
func (s *Session) Kind() Kind { return s.kind }

// WriteContent emits one ContentDelta carrying the full serialized payload.
// The reference capabilities replace rather than append: each delta is a
// complete snapshot, emitted only once the payload is fully generated, so
// partial or invalid JSON never reaches the channel.
func (s *Session) WriteContent(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal artifact content: %w", err)
	}
	return s.ch.Emit(Event{Type: EventContentDelta, Data: data, Transient: true})
}

// Close emits the Finish event. Safe to call multiple times; only the
// first call emits.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.ch.Emit(Event{Type: EventFinish})
	})
	return s.closeErr
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
