// Copyright (c) StudyFlow Authors. All rights reserved.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"studyflow/agentkit"
	"studyflow/artifact"
	"studyflow/capability"
)

// scriptedClient yields one canned response per model call.
type scriptedClient struct {
	fn func(call int, msgs []agentkit.Message) *agentkit.ChatResponse
	n  int
}

func (c *scriptedClient) Response(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error) {
	c.n++
	return c.fn(c.n, msgs), nil
}

func (c *scriptedClient) StreamResponse(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ResponseStream[agentkit.ChatResponseUpdate], error) {
	resp, _ := c.Response(ctx, msgs, opts)
	return agentkit.NewResponseStream(ctx, func(ctx context.Context, ch chan<- agentkit.ChatResponseUpdate) error {
		for _, m := range resp.Messages {
			ch <- agentkit.ChatResponseUpdate{Contents: m.Contents, Role: m.Role}
		}
		return nil
	}), nil
}

func newTestServer(t *testing.T, client agentkit.ChatClient, store artifact.Store) (*echo.Echo, *server) {
	t.Helper()

	registry := agentkit.NewRegistry()
	quizClient := &scriptedClient{fn: func(int, []agentkit.Message) *agentkit.ChatResponse {
		return &agentkit.ChatResponse{Messages: []agentkit.Message{agentkit.NewAssistantMessage(`{
			"title": "Tiny quiz",
			"questions": [{
				"question": "2+2?",
				"options": ["3", "4", "5", "6"],
				"correctAnswer": 1
			}]
		}`)}}
	}}
	registry.MustRegister(capability.NewQuiz(quizClient))

	orch := agentkit.NewOrchestrator(client, registry)
	srv := newServer(orch, store)

	e := echo.New()
	e.POST("/api/chat", srv.handleChat)
	e.GET("/api/sessions/:id", srv.handleSessionState)
	e.GET("/api/artifacts/:id", srv.handleArtifactLatest)
	e.GET("/api/artifacts/:id/versions", srv.handleArtifactVersions)
	return e, srv
}

func postChat(t *testing.T, e *echo.Echo, body string) []map[string]any {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/x-ndjson" {
		t.Fatalf("content type = %q", ct)
	}

	var lines []map[string]any
	scanner := bufio.NewScanner(rec.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		var line map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("bad NDJSON line %q: %v", scanner.Text(), err)
		}
		lines = append(lines, line)
	}
	return lines
}

func TestHandleChat_PlainAnswer(t *testing.T) {
	client := &scriptedClient{fn: func(int, []agentkit.Message) *agentkit.ChatResponse {
		return &agentkit.ChatResponse{Messages: []agentkit.Message{agentkit.NewAssistantMessage("Hi there!")}}
	}}
	e, _ := newTestServer(t, client, artifact.NewMemStore())

	lines := postChat(t, e, `{"message":"hello"}`)
	if len(lines) < 2 {
		t.Fatalf("lines = %v", lines)
	}
	if lines[0]["type"] != "text" || lines[0]["text"] != "Hi there!" {
		t.Errorf("first line = %v", lines[0])
	}

	last := lines[len(lines)-1]
	if last["type"] != "done" {
		t.Errorf("last line = %v", last)
	}
	if sid, _ := last["session_id"].(string); sid == "" {
		t.Error("done line carries no session id")
	}
	if last["stop_reason"] != string(agentkit.StopFinal) {
		t.Errorf("stop_reason = %v", last["stop_reason"])
	}
}

func TestHandleChat_ArtifactEventsInterleaved(t *testing.T) {
	client := &scriptedClient{fn: func(call int, msgs []agentkit.Message) *agentkit.ChatResponse {
		if call == 1 {
			return &agentkit.ChatResponse{Messages: []agentkit.Message{{
				Role: agentkit.RoleAssistant,
				Contents: agentkit.Contents{&agentkit.CapabilityCallContent{
					CallID:    "call-1",
					Name:      "create_quiz",
					Arguments: `{"topic":"math","count":1}`,
				}},
			}}}
		}
		return &agentkit.ChatResponse{Messages: []agentkit.Message{agentkit.NewAssistantMessage("Quiz ready.")}}
	}}
	store := artifact.NewMemStore()
	e, _ := newTestServer(t, client, store)

	lines := postChat(t, e, `{"message":"quiz me","owner":"alice"}`)

	var kinds []string
	artifactEvents := 0
	for _, l := range lines {
		kinds = append(kinds, l["type"].(string))
		if l["type"] == "artifact" {
			artifactEvents++
		}
	}

	// Prologue (4) + content delta + finish.
	if artifactEvents != 6 {
		t.Errorf("artifact events = %d in %v", artifactEvents, kinds)
	}

	// The capability_call marker precedes its artifact events, the
	// capability_result follows them, text and done come last.
	first, last := -1, -1
	for i, l := range lines {
		if l["type"] == "artifact" {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	callIdx, resultIdx := -1, -1
	for i, l := range lines {
		switch l["type"] {
		case "capability_call":
			callIdx = i
		case "capability_result":
			resultIdx = i
		}
	}
	if callIdx == -1 || resultIdx == -1 {
		t.Fatalf("markers missing in %v", kinds)
	}
	if !(callIdx < first && last < resultIdx) {
		t.Errorf("ordering broken: call=%d, artifacts=[%d,%d], result=%d", callIdx, first, last, resultIdx)
	}

	if lines[len(lines)-1]["type"] != "done" {
		t.Errorf("last line = %v", lines[len(lines)-1])
	}
}

func TestHandleChat_SessionContinuity(t *testing.T) {
	var msgCounts []int
	client := &scriptedClient{fn: func(call int, msgs []agentkit.Message) *agentkit.ChatResponse {
		msgCounts = append(msgCounts, len(msgs))
		return &agentkit.ChatResponse{Messages: []agentkit.Message{agentkit.NewAssistantMessage("ok")}}
	}}
	e, _ := newTestServer(t, client, artifact.NewMemStore())

	lines := postChat(t, e, `{"message":"first"}`)
	sessionID := lines[len(lines)-1]["session_id"].(string)
	if sessionID == "" {
		t.Fatal("no session id returned")
	}

	postChat(t, e, `{"message":"second","session_id":"`+sessionID+`"}`)

	if len(msgCounts) != 2 || msgCounts[1] <= msgCounts[0] {
		t.Errorf("second turn did not carry history: %v", msgCounts)
	}
}

func TestHandleSessionState(t *testing.T) {
	client := &scriptedClient{fn: func(int, []agentkit.Message) *agentkit.ChatResponse {
		return &agentkit.ChatResponse{Messages: []agentkit.Message{agentkit.NewAssistantMessage("noted")}}
	}}
	e, _ := newTestServer(t, client, artifact.NewMemStore())

	lines := postChat(t, e, `{"message":"remember this"}`)
	sessionID := lines[len(lines)-1]["session_id"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sessionID, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var snap struct {
		SessionID string `json:"session_id"`
		State     struct {
			Store struct {
				Messages []struct {
					Role     string            `json:"role"`
					Contents []json.RawMessage `json:"contents"`
				} `json:"messages"`
			} `json:"store"`
		} `json:"state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("body: %v", err)
	}
	if snap.SessionID != sessionID {
		t.Errorf("session_id = %q", snap.SessionID)
	}

	// The turn left the user message and the assistant reply behind.
	msgs := snap.State.Store.Messages
	if len(msgs) != 2 {
		t.Fatalf("messages = %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("roles = %q, %q", msgs[0].Role, msgs[1].Role)
	}
	var envelope struct {
		Type string `json:"$type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(msgs[0].Contents[0], &envelope); err != nil {
		t.Fatalf("content envelope: %v", err)
	}
	if envelope.Type != "text" || envelope.Text != "remember this" {
		t.Errorf("envelope = %+v", envelope)
	}

	// Unknown session.
	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+uuid.NewString(), nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d", rec.Code)
	}
}

func TestHandleChat_ExcludedCapabilityFails(t *testing.T) {
	client := &scriptedClient{fn: func(call int, msgs []agentkit.Message) *agentkit.ChatResponse {
		if call == 1 {
			return &agentkit.ChatResponse{Messages: []agentkit.Message{{
				Role: agentkit.RoleAssistant,
				Contents: agentkit.Contents{&agentkit.CapabilityCallContent{
					CallID:    "call-1",
					Name:      "create_quiz",
					Arguments: `{"topic":"math","count":1}`,
				}},
			}}}
		}
		return &agentkit.ChatResponse{Messages: []agentkit.Message{agentkit.NewAssistantMessage("Sorry.")}}
	}}
	e, _ := newTestServer(t, client, artifact.NewMemStore())

	lines := postChat(t, e, `{"message":"quiz me","excludedCapabilities":["create_quiz"]}`)

	var sawFailure bool
	for _, l := range lines {
		if l["type"] == "artifact" {
			t.Error("excluded capability still produced artifact events")
		}
		if l["type"] == "capability_result" {
			res := l["result"].(map[string]any)
			if ok, _ := res["ok"].(bool); !ok {
				sawFailure = true
			}
		}
	}
	if !sawFailure {
		t.Error("no failure result folded back for the excluded capability")
	}
}

func TestHandleChat_BadRequest(t *testing.T) {
	client := &scriptedClient{fn: func(int, []agentkit.Message) *agentkit.ChatResponse {
		return &agentkit.ChatResponse{}
	}}
	e, _ := newTestServer(t, client, artifact.NewMemStore())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandleArtifactEndpoints(t *testing.T) {
	store := artifact.NewMemStore()
	client := &scriptedClient{fn: func(int, []agentkit.Message) *agentkit.ChatResponse {
		return &agentkit.ChatResponse{}
	}}
	e, _ := newTestServer(t, client, store)

	rec1, err := store.Save(context.Background(), uuid.New(), "Quiz", artifact.KindQuiz, `{"v":1}`, "alice")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.Save(context.Background(), rec1.ID, "Quiz", artifact.KindQuiz, `{"v":2}`, "alice"); err != nil {
		t.Fatalf("seed v2: %v", err)
	}

	// Latest.
	req := httptest.NewRequest(http.MethodGet, "/api/artifacts/"+rec1.ID.String(), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("latest status = %d", rec.Code)
	}
	var latest map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &latest); err != nil {
		t.Fatalf("latest body: %v", err)
	}
	if latest["content"].(map[string]any)["v"] != float64(2) {
		t.Errorf("latest content = %v", latest["content"])
	}

	// Versions.
	req = httptest.NewRequest(http.MethodGet, "/api/artifacts/"+rec1.ID.String()+"/versions", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("versions status = %d", rec.Code)
	}
	var history map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("versions body: %v", err)
	}
	if len(history["versions"].([]any)) != 2 {
		t.Errorf("versions = %v", history["versions"])
	}

	// Unknown id.
	req = httptest.NewRequest(http.MethodGet, "/api/artifacts/"+uuid.NewString(), nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d", rec.Code)
	}

	// Malformed id.
	req = httptest.NewRequest(http.MethodGet, "/api/artifacts/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", rec.Code)
	}
}
