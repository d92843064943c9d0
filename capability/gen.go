// Copyright (c) StudyFlow Authors. All rights reserved.

// Package capability provides the reference Capability Units of the study
// assistant: a weather lookup, a tutor, and the artifact-producing quiz,
// study plan, flashcard, and artifact-update generators.
//
// Every unit returns exactly one [agentkit.Result]; nothing propagates past
// the unit boundary. Artifact-producing units acquire an artifact session
// up front and defer its Close, so the Finish event fires on every exit
// path. Their ContentDelta semantics are replace: each delta carries the
// complete payload snapshot.
package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"studyflow/agentkit"
	"studyflow/artifact"
)

// generateJSON runs one downstream model call constrained to a JSON Schema
// and decodes the reply into out. The reply is rejected, never partially
// used, when it is not valid JSON for the expected shape.
func generateJSON(ctx context.Context, client agentkit.ChatClient, instructions, prompt string, schema map[string]any, out any) error {
	opts := &agentkit.ChatOptions{
		Instructions: instructions,
		ResponseFormat: map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "payload",
				"strict": true,
				"schema": schema,
			},
		},
	}
	resp, err := client.Response(ctx, []agentkit.Message{agentkit.NewUserMessage(prompt)}, opts)
	if err != nil {
		return err
	}

	text := stripFences(resp.Text())
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("model returned malformed payload: %w", err)
	}
	return nil
}

// generateText runs one downstream model call and returns the reply text.
func generateText(ctx context.Context, client agentkit.ChatClient, instructions, prompt string) (string, error) {
	opts := &agentkit.ChatOptions{Instructions: instructions}
	resp, err := client.Response(ctx, []agentkit.Message{agentkit.NewUserMessage(prompt)}, opts)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// stripFences removes a wrapping markdown code fence, which some models add
// around JSON replies despite schema constraints.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// persist writes a finished artifact to the turn's store when an owner is
// present. Persistence failures are logged, never surfaced: the artifact
// already streamed to the user takes precedence over the store write.
func persist(ctx context.Context, turn *agentkit.Turn, sess *artifact.Session, content any) {
	if !turn.CanPersist() {
		return
	}
	data, err := json.Marshal(content)
	if err != nil {
		slog.ErrorContext(ctx, "artifact content not serializable, skipping persist",
			"artifact_id", sess.ID(),
			"error", err,
		)
		return
	}
	if _, err := turn.Artifacts.Save(ctx, sess.ID(), sess.Title(), sess.Kind(), string(data), turn.Owner); err != nil {
		slog.ErrorContext(ctx, "artifact persist failed",
			"artifact_id", sess.ID(),
			"kind", sess.Kind(),
			"error", err,
		)
	}
}
