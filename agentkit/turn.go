// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit

import "studyflow/artifact"

// Turn is the per-turn context handed by reference into each capability
// invocation. It replaces any notion of process-wide "current artifact"
// state: artifact-producing capabilities write to the turn's channel and
// persist through the turn's store, nothing else.
//
// Turn deliberately carries no orchestrator handle. A capability may call
// the model downstream but cannot re-enter the dispatch loop.
type Turn struct {
	// Channel receives artifact events for this turn. Never nil after
	// orchestrator setup; defaults to a discard channel.
	Channel artifact.Channel

	// Artifacts is the versioned artifact store, nil when persistence is
	// unavailable for this turn.
	Artifacts artifact.Store

	// Owner identifies the authenticated artifact owner, empty for
	// anonymous turns. Capabilities skip persistence without an owner.
	Owner string
}

// CanPersist reports whether artifact records should be written for this turn.
func (t *Turn) CanPersist() bool {
	return t != nil && t.Artifacts != nil && t.Owner != ""
}

// ChannelOrDiscard returns the turn's channel, or a discard channel when the
// turn carries none.
func (t *Turn) ChannelOrDiscard() artifact.Channel {
	if t == nil || t.Channel == nil {
		return artifact.Discard()
	}
	return t.Channel
}
