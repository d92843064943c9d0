// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit

// ContentType identifies the kind of content within a message.
type ContentType string

const (
	ContentTypeText             ContentType = "text"
	ContentTypeTextReasoning    ContentType = "reasoning"
	ContentTypeError            ContentType = "error"
	ContentTypeCapabilityCall   ContentType = "capabilityCall"
	ContentTypeCapabilityResult ContentType = "capabilityResult"
	ContentTypeUsage            ContentType = "usage"
)

// Content is a sealed interface representing a piece of content within a
// [Message]. Each concrete type carries data specific to its [ContentType].
// Use a type switch to inspect the underlying type.
type Content interface {
	// Type returns the discriminator for this content item.
	Type() ContentType

	// sealed prevents external implementations.
	sealed()
}

// Contents is an ordered list of content items.
type Contents []Content

// base is embedded by every concrete Content type to satisfy the sealed marker.
type base struct{}

func (base) sealed() {}

// TextContent holds plain text.
type TextContent struct {
	base
	Text string
}

func (c *TextContent) Type() ContentType { return ContentTypeText }

// TextReasoningContent holds chain-of-thought / reasoning text.
type TextReasoningContent struct {
	base
	Text string
}

func (c *TextReasoningContent) Type() ContentType { return ContentTypeTextReasoning }

// ErrorContent represents an error returned as message content.
type ErrorContent struct {
	base
	Message   string
	ErrorCode string
	Details   any
}

func (c *ErrorContent) Type() ContentType { return ContentTypeError }

// CapabilityCallContent represents a capability invocation requested by the model.
type CapabilityCallContent struct {
	base
	CallID    string
	Name      string
	Arguments string // JSON-encoded arguments
}

func (c *CapabilityCallContent) Type() ContentType { return ContentTypeCapabilityCall }

// CapabilityResultContent represents the folded-back result of a capability
// invocation. Result carries the user-facing summary; only the summary is
// shown verbatim to the model.
type CapabilityResultContent struct {
	base
	CallID string
	Result any
}

func (c *CapabilityResultContent) Type() ContentType { return ContentTypeCapabilityResult }

// UsageContent carries token usage information.
type UsageContent struct {
	base
	Usage UsageDetails
}

func (c *UsageContent) Type() ContentType { return ContentTypeUsage }
