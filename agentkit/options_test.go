// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit_test

import (
	"testing"

	"studyflow/agentkit"
)

func TestMergeChatOptions(t *testing.T) {
	temp := 0.2
	base := &agentkit.ChatOptions{
		ModelID:      "gpt-4o",
		Temperature:  &temp,
		Instructions: "Be helpful.",
		Capabilities: []agentkit.Descriptor{
			{Name: "a", Description: "first"},
			{Name: "b", Description: "second"},
		},
		Metadata: map[string]string{"env": "test"},
	}

	override := &agentkit.ChatOptions{
		ModelID:      "gpt-4o-mini",
		Instructions: "Answer in one sentence.",
		Capabilities: []agentkit.Descriptor{
			{Name: "b", Description: "replaced"},
			{Name: "c", Description: "third"},
		},
		Metadata: map[string]string{"run": "42"},
	}

	merged := agentkit.MergeChatOptions(base, override)

	if merged.ModelID != "gpt-4o-mini" {
		t.Errorf("ModelID = %q", merged.ModelID)
	}
	if merged.Temperature == nil || *merged.Temperature != 0.2 {
		t.Errorf("Temperature = %v", merged.Temperature)
	}
	if merged.Instructions != "Be helpful.\nAnswer in one sentence." {
		t.Errorf("Instructions = %q", merged.Instructions)
	}

	// Capabilities merge by name, base order first.
	if len(merged.Capabilities) != 3 {
		t.Fatalf("capabilities = %d", len(merged.Capabilities))
	}
	if merged.Capabilities[0].Name != "a" || merged.Capabilities[1].Name != "b" || merged.Capabilities[2].Name != "c" {
		t.Errorf("capability order = %v", merged.Capabilities)
	}
	if merged.Capabilities[1].Description != "replaced" {
		t.Errorf("b description = %q", merged.Capabilities[1].Description)
	}

	if merged.Metadata["env"] != "test" || merged.Metadata["run"] != "42" {
		t.Errorf("metadata = %v", merged.Metadata)
	}
}

func TestMergeChatOptions_NilSides(t *testing.T) {
	base := &agentkit.ChatOptions{ModelID: "gpt-4o"}

	if m := agentkit.MergeChatOptions(base, nil); m.ModelID != "gpt-4o" {
		t.Errorf("nil override: ModelID = %q", m.ModelID)
	}
	if m := agentkit.MergeChatOptions(nil, base); m.ModelID != "gpt-4o" {
		t.Errorf("nil base: ModelID = %q", m.ModelID)
	}
	if m := agentkit.MergeChatOptions(nil, nil); m == nil {
		t.Error("both nil should still produce options")
	}
}
