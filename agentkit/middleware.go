// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit

import (
	"context"
	"encoding/json"
)

// RunHandler is the function signature for processing one conversation turn.
type RunHandler func(ctx context.Context, req *RunRequest) (*TurnResponse, error)

// RunRequest carries the inputs for a turn through the middleware pipeline.
type RunRequest struct {
	Messages []Message
	Session  *Session
	Options  *ChatOptions
}

// RunMiddleware wraps a [RunHandler] to add cross-cutting behavior.
// Middleware should call next to continue the chain, or return early to
// short-circuit.
type RunMiddleware func(next RunHandler) RunHandler

// ChatHandler is the function signature for processing a chat request.
// Provider packages expose middleware hooks at this level.
type ChatHandler func(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)

// ChatMiddleware wraps a [ChatHandler] to add cross-cutting behavior.
type ChatMiddleware func(next ChatHandler) ChatHandler

// CapabilityHandler is the function signature for one capability invocation.
type CapabilityHandler func(ctx context.Context, unit Capability, args json.RawMessage, turn *Turn) Result

// CapabilityMiddleware wraps a [CapabilityHandler] to add cross-cutting behavior.
type CapabilityMiddleware func(next CapabilityHandler) CapabilityHandler

// chainRunMiddleware applies middleware in order (first in list = outermost wrapper).
func chainRunMiddleware(handler RunHandler, mws ...RunMiddleware) RunHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

// ChainChatMiddleware applies middleware in order (first in list = outermost wrapper).
func ChainChatMiddleware(handler ChatHandler, mws ...ChatMiddleware) ChatHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

// chainCapabilityMiddleware applies middleware in order.
func chainCapabilityMiddleware(handler CapabilityHandler, mws ...CapabilityMiddleware) CapabilityHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}
