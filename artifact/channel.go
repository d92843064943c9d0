// Copyright (c) StudyFlow Authors. All rights reserved.

package artifact

import (
	"encoding/json"
	"sync"
)

// EventType tags one artifact channel event.
type EventType string

const (
	EventSetID        EventType = "set_id"
	EventSetTitle     EventType = "set_title"
	EventSetKind      EventType = "set_kind"
	EventClear        EventType = "clear"
	EventContentDelta EventType = "content_delta"
	EventFinish       EventType = "finish"
)

// Event is one element of the ordered artifact stream. For a single
// artifact's creation sequence SetID, SetTitle, SetKind and Clear are each
// emitted at most once, before the first ContentDelta, and Finish is
// emitted exactly once, last — including on the failure path.
//
// Transient hints that the consumer need not persist this particular delta
// client-side; it does not change server-side persistence.
type Event struct {
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Transient bool            `json:"transient,omitempty"`
}

// Channel is an ordered, typed event sink. Emit must preserve the order of
// calls from a single producer; events from concurrently running producers
// may interleave, and consumers distinguish them by artifact id.
type Channel interface {
	Emit(Event) error
}

// Buffer is an in-memory [Channel] that records every emitted event in
// order. It serves tests and consumers that reduce events after the fact.
type Buffer struct {
	mu     sync.Mutex
	events []Event
}

// NewBuffer creates an empty event buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Emit(e Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return nil
}

// Events returns a snapshot of everything emitted so far, in order.
func (b *Buffer) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]Event, len(b.events))
	copy(cp, b.events)
	return cp
}

// ChannelFunc adapts a function to the [Channel] interface.
type ChannelFunc func(Event) error

func (f ChannelFunc) Emit(e Event) error { return f(e) }

// Discard returns a [Channel] that drops every event. It backs turns that
// have no consumer attached, keeping artifact-producing capabilities safe
// to run anywhere.
func Discard() Channel {
	return ChannelFunc(func(Event) error { return nil })
}
