// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrOrchestrator is the base error for orchestrator failures.
	ErrOrchestrator = errors.New("orchestrator error")

	// ErrExecution indicates a runtime failure during a conversation turn.
	ErrExecution = fmt.Errorf("%w: execution", ErrOrchestrator)

	// ErrSession indicates a session lifecycle failure.
	ErrSession = fmt.Errorf("%w: session", ErrOrchestrator)

	// ErrChatClient is the base error for chat client failures.
	ErrChatClient = errors.New("chat client error")

	// ErrService is the base error for backend service failures.
	ErrService = errors.New("service error")

	// ErrContentFilter indicates the request was rejected by a content filter.
	ErrContentFilter = fmt.Errorf("%w: content filter", ErrService)

	// ErrInvalidRequest indicates the request was malformed or invalid.
	ErrInvalidRequest = fmt.Errorf("%w: invalid request", ErrService)

	// ErrInvalidResponse indicates the service returned an unexpected response.
	ErrInvalidResponse = fmt.Errorf("%w: invalid response", ErrService)

	// ErrAuth indicates an authentication or authorization failure.
	ErrAuth = fmt.Errorf("%w: authentication", ErrService)

	// ErrCapability is the base error for capability-related failures.
	ErrCapability = errors.New("capability error")

	// ErrUnknownCapability indicates the model named a capability absent
	// from the active registry snapshot. Recovered inside the loop, never
	// fatal to a turn.
	ErrUnknownCapability = fmt.Errorf("%w: unknown capability", ErrCapability)

	// ErrDuplicateCapability indicates a name collision at registration.
	ErrDuplicateCapability = fmt.Errorf("%w: duplicate name", ErrCapability)

	// ErrValidation indicates capability arguments failed schema validation.
	ErrValidation = fmt.Errorf("%w: invalid arguments", ErrCapability)
)

// ServiceError provides rich context for backend service failures.
// Use errors.As to extract it from a wrapped error chain.
type ServiceError struct {
	StatusCode int
	Message    string
	Code       string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("service error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("service error %d: %s", e.StatusCode, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// CapabilityError provides context for capability invocation failures.
type CapabilityError struct {
	Capability string
	Message    string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %q: %s", e.Capability, e.Message)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// ValidationError reports a single offending argument field. It is returned
// by [ValidateArguments] and folded back to the model as a failure result;
// invalid arguments never reach a capability's execution body.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid arguments: %s", e.Message)
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
