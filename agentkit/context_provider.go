// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit

import "context"

// ContextProvider injects dynamic context into each conversation turn.
// Implementations can supply additional instructions or messages based on
// runtime state owned by the hosting application, such as a geolocation
// hint or the student's saved preferences.
type ContextProvider interface {
	// Invoking is called before each turn. The returned InvocationContext
	// is merged into the request (instructions concatenated, messages
	// prepended).
	Invoking(ctx context.Context, messages []Message) (*InvocationContext, error)

	// Invoked is called after each turn with the request and produced messages.
	Invoked(ctx context.Context, request, produced []Message) error
}

// InvocationContext holds the dynamic context returned by a [ContextProvider].
type InvocationContext struct {
	// Instructions to append to the system prompt.
	Instructions string

	// Messages to prepend to the conversation.
	Messages []Message
}

// NoOpContextProvider is a [ContextProvider] that does nothing.
// Embed it to provide default implementations for unused hooks.
type NoOpContextProvider struct{}

func (NoOpContextProvider) Invoking(_ context.Context, _ []Message) (*InvocationContext, error) {
	return &InvocationContext{}, nil
}

func (NoOpContextProvider) Invoked(_ context.Context, _, _ []Message) error {
	return nil
}
