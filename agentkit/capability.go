// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// CapabilityKind distinguishes direct-result units from artifact-producing ones.
type CapabilityKind string

const (
	// KindDirect units return text only, with no artifact side effect.
	KindDirect CapabilityKind = "direct"

	// KindArtifact units stream a side document over the turn's artifact
	// channel and return a short acknowledgment to the model.
	KindArtifact CapabilityKind = "artifact-producing"
)

// Capability is a named, independently invocable function exposed to the
// orchestrating model.
type Capability interface {
	// Name returns the unique function name as exposed to the model.
	Name() string

	// Description returns the routing hint consumed by the model. It must
	// be non-empty: it is the sole signal used for capability selection.
	Description() string

	// Parameters returns the JSON Schema describing the input contract.
	Parameters() json.RawMessage

	// Kind reports whether this unit produces an artifact.
	Kind() CapabilityKind

	// Execute runs the unit with validated arguments and the per-turn
	// context. It returns exactly one Result, success or failure, and
	// must not propagate a fault past this boundary.
	Execute(ctx context.Context, args json.RawMessage, turn *Turn) Result
}

// FuncCapability is a concrete [Capability] backed by a Go function.
type FuncCapability struct {
	name           string
	description    string
	parameters     json.RawMessage
	kind           CapabilityKind
	fn             func(ctx context.Context, args json.RawMessage, turn *Turn) Result
	maxInvocations int
}

// CapabilityOption configures a [FuncCapability].
type CapabilityOption func(*FuncCapability)

// WithMaxInvocations limits how many times this unit can be invoked within
// a single turn. Zero means unlimited.
func WithMaxInvocations(n int) CapabilityOption {
	return func(c *FuncCapability) { c.maxInvocations = n }
}

// NewRawCapability creates a [FuncCapability] from a raw JSON schema and handler.
func NewRawCapability(name, description string, kind CapabilityKind, parameters json.RawMessage, fn func(ctx context.Context, args json.RawMessage, turn *Turn) Result, opts ...CapabilityOption) *FuncCapability {
	c := &FuncCapability{
		name:        name,
		description: description,
		parameters:  parameters,
		kind:        kind,
		fn:          fn,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewCapability creates a [FuncCapability] that automatically generates a
// JSON Schema from the Args type parameter and handles deserialization.
//
// The Args type should be a struct with json tags. Use the `jsonschema`
// struct tag for additional schema metadata:
//
//	type QuizArgs struct {
//	    Topic string `json:"topic" jsonschema:"description=Quiz topic,required"`
//	    Count int    `json:"count" jsonschema:"description=Number of questions"`
//	}
func NewCapability[Args any](name, description string, kind CapabilityKind, fn func(ctx context.Context, args Args, turn *Turn) Result, opts ...CapabilityOption) *FuncCapability {
	schema := GenerateSchema[Args]()

	wrapped := func(ctx context.Context, raw json.RawMessage, turn *Turn) Result {
		var args Args
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return Failuref(name, "I couldn't read the arguments for %s.", name).
					WithDiagnostic(map[string]any{"error": err.Error()})
			}
		}
		return fn(ctx, args, turn)
	}

	return NewRawCapability(name, description, kind, schema, wrapped, opts...)
}

func (c *FuncCapability) Name() string                { return c.name }
func (c *FuncCapability) Description() string         { return c.description }
func (c *FuncCapability) Parameters() json.RawMessage { return c.parameters }
func (c *FuncCapability) Kind() CapabilityKind        { return c.kind }

// MaxInvocations returns the per-turn invocation cap, zero for unlimited.
func (c *FuncCapability) MaxInvocations() int { return c.maxInvocations }

// Execute calls the unit's backing function.
func (c *FuncCapability) Execute(ctx context.Context, args json.RawMessage, turn *Turn) Result {
	if c.fn == nil {
		return Failuref(c.name, "%s is not available right now.", c.name)
	}
	return c.fn(ctx, args, turn)
}

// safeExecute invokes a capability and converts a panic into a failure
// Result, honoring the contract that no fault escapes the unit boundary.
func safeExecute(ctx context.Context, unit Capability, args json.RawMessage, turn *Turn) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "capability panicked",
				"capability", unit.Name(),
				"panic", r,
			)
			res = Failuref(unit.Name(), "Something went wrong while running %s.", unit.Name()).
				WithDiagnostic(map[string]any{"panic": fmt.Sprint(r)})
		}
	}()
	return unit.Execute(ctx, args, turn)
}

// DescriptorOf builds the routing [Descriptor] for a capability.
func DescriptorOf(c Capability) Descriptor {
	return Descriptor{
		Name:        c.Name(),
		Description: c.Description(),
		Parameters:  c.Parameters(),
		Kind:        c.Kind(),
	}
}
