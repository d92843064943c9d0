// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit_test

import (
	"context"
	"encoding/json"
	"testing"

	"studyflow/agentkit"
)

func TestSession_StoreRoundTrip(t *testing.T) {
	store := agentkit.NewInMemoryStore()
	sess := agentkit.NewSession(agentkit.WithSessionStore(store))

	if sess.ID() == "" {
		t.Error("session has no id")
	}
	if sess.Store() != store {
		t.Error("Store did not return the configured store")
	}

	err := store.AddMessages(context.Background(), []agentkit.Message{
		agentkit.NewUserMessage("hello"),
		agentkit.NewAssistantMessage("hi there"),
	})
	if err != nil {
		t.Fatalf("AddMessages: %v", err)
	}

	msgs, err := store.ListMessages(context.Background())
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d", len(msgs))
	}
}

func TestSession_SerializeUsesContentEnvelopes(t *testing.T) {
	store := agentkit.NewInMemoryStore()
	sess := agentkit.NewSession(agentkit.WithSessionStore(store))

	err := store.AddMessages(context.Background(), []agentkit.Message{
		agentkit.NewUserMessage("hello"),
		{
			Role: agentkit.RoleAssistant,
			Contents: agentkit.Contents{&agentkit.CapabilityCallContent{
				CallID:    "call-1",
				Name:      "create_quiz",
				Arguments: `{"topic":"math"}`,
			}},
		},
	})
	if err != nil {
		t.Fatalf("AddMessages: %v", err)
	}

	state, err := sess.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if state["id"] != sess.ID() {
		t.Errorf("id = %v", state["id"])
	}

	// The whole snapshot must survive ordinary JSON marshaling, with each
	// content item in its $type envelope.
	b, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	var decoded struct {
		Store struct {
			Messages []struct {
				Role     string            `json:"role"`
				Contents []json.RawMessage `json:"contents"`
			} `json:"messages"`
		} `json:"store"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(decoded.Store.Messages) != 2 {
		t.Fatalf("messages = %d", len(decoded.Store.Messages))
	}

	first, err := agentkit.UnmarshalContentJSON(decoded.Store.Messages[0].Contents[0])
	if err != nil {
		t.Fatalf("first content: %v", err)
	}
	if tc, ok := first.(*agentkit.TextContent); !ok || tc.Text != "hello" {
		t.Errorf("first content = %#v", first)
	}

	second, err := agentkit.UnmarshalContentJSON(decoded.Store.Messages[1].Contents[0])
	if err != nil {
		t.Fatalf("second content: %v", err)
	}
	if cc, ok := second.(*agentkit.CapabilityCallContent); !ok || cc.Name != "create_quiz" {
		t.Errorf("second content = %#v", second)
	}
}

func TestSession_SerializeWithoutStore(t *testing.T) {
	sess := agentkit.NewSession()
	state, err := sess.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if _, ok := state["store"]; ok {
		t.Error("storeless session serialized a store")
	}
}
