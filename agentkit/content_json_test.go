// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit_test

import (
	"testing"

	"studyflow/agentkit"
)

func TestContentJSON_CapabilityCallRoundTrip(t *testing.T) {
	call := &agentkit.CapabilityCallContent{
		CallID:    "call-1",
		Name:      "create_quiz",
		Arguments: `{"topic":"cells"}`,
	}

	data, err := agentkit.MarshalContentJSON(call)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, err := agentkit.UnmarshalContentJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got, ok := decoded.(*agentkit.CapabilityCallContent)
	if !ok {
		t.Fatalf("decoded type = %T", decoded)
	}
	if got.CallID != call.CallID || got.Name != call.Name || got.Arguments != call.Arguments {
		t.Errorf("decoded = %+v", got)
	}
}

func TestContentJSON_UnknownTypeRejected(t *testing.T) {
	if _, err := agentkit.UnmarshalContentJSON([]byte(`{"$type":"hologram"}`)); err == nil {
		t.Error("expected error for unknown content type")
	}
}
