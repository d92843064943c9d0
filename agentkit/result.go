// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit

import "fmt"

// Result is the tagged outcome of one capability invocation. Every
// capability returns exactly one Result, even on internal failure; an
// unhandled fault never crosses the unit boundary.
//
// Summary is folded back into the conversation as the capability's
// contribution. StructuredData and Diagnostic are metadata for callers
// and logs, not shown verbatim to the model.
type Result struct {
	Capability     string         `json:"capability"`
	OK             bool           `json:"ok"`
	Summary        string         `json:"summary"`
	StructuredData map[string]any `json:"structuredData,omitempty"`
	Diagnostic     map[string]any `json:"diagnostic,omitempty"`
}

// Successf builds a success Result with a formatted summary.
func Successf(capability, format string, args ...any) Result {
	return Result{
		Capability: capability,
		OK:         true,
		Summary:    fmt.Sprintf(format, args...),
	}
}

// Failuref builds a failure Result with a formatted user-facing summary.
func Failuref(capability, format string, args ...any) Result {
	return Result{
		Capability: capability,
		Summary:    fmt.Sprintf(format, args...),
	}
}

// WithData attaches structured metadata to a success Result.
func (r Result) WithData(data map[string]any) Result {
	r.StructuredData = data
	return r
}

// WithDiagnostic attaches diagnostic metadata to a failure Result.
func (r Result) WithDiagnostic(diag map[string]any) Result {
	r.Diagnostic = diag
	return r
}
