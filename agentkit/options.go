// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit

import "encoding/json"

// Descriptor advertises a capability to the model. The Description field is
// the sole routing signal: the model selects capabilities by reading it, and
// no other metadata influences selection.
type Descriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Kind        CapabilityKind  `json:"kind"`
}

// CapabilityChoice controls whether the model may, must, or must not invoke
// a capability on the next response.
type CapabilityChoice string

const (
	CapabilityChoiceAuto     CapabilityChoice = "auto"
	CapabilityChoiceRequired CapabilityChoice = "required"
	CapabilityChoiceNone     CapabilityChoice = "none"
)

// ChatOptions configures a single chat completion request.
// Pointer fields use nil to represent "unset" (use provider default).
type ChatOptions struct {
	ModelID          string
	Temperature      *float64
	TopP             *float64
	MaxTokens        *int
	Stop             []string
	Seed             *int
	Capabilities     []Descriptor
	CapabilityChoice CapabilityChoice
	ResponseFormat   any // JSON Schema object constraining the output
	Metadata         map[string]string
	User             string
	Instructions     string

	// Extra holds provider-specific options not covered by standard fields.
	Extra map[string]any
}

// MergeChatOptions produces a new ChatOptions by overlaying override values
// onto base. Nil or zero-value fields in override do not overwrite base.
// Capabilities are merged by name (override replaces same-named entries).
// Metadata is merged (override keys win). Instructions are concatenated.
func MergeChatOptions(base, override *ChatOptions) *ChatOptions {
	if base == nil {
		if override == nil {
			return &ChatOptions{}
		}
		cp := *override
		return &cp
	}
	if override == nil {
		cp := *base
		return &cp
	}

	merged := *base

	if override.ModelID != "" {
		merged.ModelID = override.ModelID
	}
	if override.Temperature != nil {
		merged.Temperature = override.Temperature
	}
	if override.TopP != nil {
		merged.TopP = override.TopP
	}
	if override.MaxTokens != nil {
		merged.MaxTokens = override.MaxTokens
	}
	if len(override.Stop) > 0 {
		merged.Stop = override.Stop
	}
	if override.Seed != nil {
		merged.Seed = override.Seed
	}
	if override.CapabilityChoice != "" {
		merged.CapabilityChoice = override.CapabilityChoice
	}
	if override.ResponseFormat != nil {
		merged.ResponseFormat = override.ResponseFormat
	}
	if override.User != "" {
		merged.User = override.User
	}

	// Instructions: concatenate
	if override.Instructions != "" {
		if merged.Instructions != "" {
			merged.Instructions += "\n" + override.Instructions
		} else {
			merged.Instructions = override.Instructions
		}
	}

	// Capabilities: merge by name, base order preserved
	if len(override.Capabilities) > 0 {
		byName := make(map[string]Descriptor, len(merged.Capabilities)+len(override.Capabilities))
		for _, d := range merged.Capabilities {
			byName[d.Name] = d
		}
		for _, d := range override.Capabilities {
			byName[d.Name] = d
		}
		caps := make([]Descriptor, 0, len(byName))
		seen := make(map[string]bool, len(byName))
		for _, d := range merged.Capabilities {
			caps = append(caps, byName[d.Name])
			seen[d.Name] = true
		}
		for _, d := range override.Capabilities {
			if !seen[d.Name] {
				caps = append(caps, d)
			}
		}
		merged.Capabilities = caps
	}

	// Metadata: merge maps
	if len(override.Metadata) > 0 {
		if merged.Metadata == nil {
			merged.Metadata = make(map[string]string, len(override.Metadata))
		}
		for k, v := range override.Metadata {
			merged.Metadata[k] = v
		}
	}

	// Extra: merge maps
	if len(override.Extra) > 0 {
		if merged.Extra == nil {
			merged.Extra = make(map[string]any, len(override.Extra))
		}
		for k, v := range override.Extra {
			merged.Extra[k] = v
		}
	}

	return &merged
}
