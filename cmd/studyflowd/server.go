// Copyright (c) StudyFlow Authors. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"studyflow/agentkit"
	"studyflow/artifact"
)

// server holds the request handlers and the per-process session table.
type server struct {
	orch  *agentkit.Orchestrator
	store artifact.Store

	mu       sync.Mutex
	sessions map[string]*agentkit.Session
}

func newServer(orch *agentkit.Orchestrator, store artifact.Store) *server {
	return &server{
		orch:     orch,
		store:    store,
		sessions: make(map[string]*agentkit.Session),
	}
}

type chatRequest struct {
	Message              string   `json:"message"`
	SessionID            string   `json:"session_id,omitempty"`
	Owner                string   `json:"owner,omitempty"`
	ExcludedCapabilities []string `json:"excludedCapabilities,omitempty"`
}

// chatLine is one NDJSON line of the chat reply. Exactly one of the payload
// fields is set, discriminated by Type.
type chatLine struct {
	Type string `json:"type"`

	Text   string           `json:"text,omitempty"`
	Name   string           `json:"name,omitempty"` // capability being invoked
	Result *agentkit.Result `json:"result,omitempty"`
	Event  *artifact.Event  `json:"event,omitempty"` // artifact channel event

	// Final line only.
	SessionID  string                 `json:"session_id,omitempty"`
	Steps      int                    `json:"steps,omitempty"`
	StopReason agentkit.StopReason    `json:"stop_reason,omitempty"`
	Usage      *agentkit.UsageDetails `json:"usage,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// ndjsonWriter serializes concurrent line writes onto one response body.
// The model stream and the artifact channel both feed it, so every write
// takes the lock and flushes before releasing it.
type ndjsonWriter struct {
	mu  sync.Mutex
	w   io.Writer
	f   http.Flusher
	enc *json.Encoder
}

func newNDJSONWriter(w io.Writer) *ndjsonWriter {
	nw := &ndjsonWriter{w: w, enc: json.NewEncoder(w)}
	if f, ok := w.(http.Flusher); ok {
		nw.f = f
	}
	return nw
}

func (w *ndjsonWriter) write(line chatLine) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(line); err != nil {
		return err
	}
	if w.f != nil {
		w.f.Flush()
	}
	return nil
}

// handleChat runs one conversation turn. The reply is NDJSON: text deltas
// and capability markers interleaved with artifact events in the exact
// order they were produced, closed by a final "done" line.
func (s *server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	sessionID, session := s.sessionFor(req.SessionID)

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "application/x-ndjson")
	resp.WriteHeader(http.StatusOK)

	w := newNDJSONWriter(resp)

	// The artifact channel and the segment stream share the writer; the
	// consumer sees events in emission order.
	channel := artifact.ChannelFunc(func(e artifact.Event) error {
		ev := e
		return w.write(chatLine{Type: "artifact", Event: &ev})
	})

	ctx := c.Request().Context()
	stream := s.orch.RunStream(ctx,
		[]agentkit.Message{agentkit.NewUserMessage(req.Message)},
		agentkit.WithSession(session),
		agentkit.WithTurn(&agentkit.Turn{
			Channel:   channel,
			Artifacts: s.store,
			Owner:     req.Owner,
		}),
		agentkit.WithExclusions(req.ExcludedCapabilities...),
	)
	defer stream.Close()

	for {
		seg, ok, err := stream.Next(ctx)
		if err != nil {
			return w.write(chatLine{Type: "error", SessionID: sessionID, Error: err.Error()})
		}
		if !ok {
			break
		}

		switch seg.Type {
		case agentkit.SegmentText:
			err = w.write(chatLine{Type: "text", Text: seg.Text})
		case agentkit.SegmentCall:
			err = w.write(chatLine{Type: "capability_call", Name: seg.Call.Name})
		case agentkit.SegmentResult:
			err = w.write(chatLine{Type: "capability_result", Result: seg.Result})
		}
		if err != nil {
			return err
		}
	}

	final, err := stream.FinalResponse(ctx)
	if err != nil {
		return w.write(chatLine{Type: "error", SessionID: sessionID, Error: err.Error()})
	}
	done := chatLine{Type: "done", SessionID: sessionID}
	if final != nil {
		done.Steps = final.Steps
		done.StopReason = final.StopReason
		if final.Usage.TotalTokens > 0 {
			done.Usage = &final.Usage
		}
	}
	return w.write(done)
}

// sessionFor returns the session for id, creating one (with a fresh id)
// when id is empty or unknown.
func (s *server) sessionFor(id string) (string, *agentkit.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			return id, sess
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	sess := s.orch.NewSession()
	s.sessions[id] = sess
	return id, sess
}

// handleSessionState snapshots a session's conversation state. Message
// contents come back in their $type envelope encoding.
func (s *server) handleSessionState(c echo.Context) error {
	id := c.Param("id")

	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	state, err := sess.Serialize()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"session_id": id,
		"state":      state,
	})
}

func (s *server) handleArtifactLatest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid artifact id")
	}

	rec, err := s.store.Latest(c.Request().Context(), id)
	if errors.Is(err, artifact.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "artifact not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, artifactJSON(rec))
}

func (s *server) handleArtifactVersions(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid artifact id")
	}

	versions, err := s.store.Versions(c.Request().Context(), id)
	if errors.Is(err, artifact.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "artifact not found")
	}
	if err != nil {
		return err
	}

	out := make([]map[string]any, 0, len(versions))
	for i := range versions {
		out = append(out, artifactJSON(&versions[i]))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"artifact_id": id.String(),
		"versions":    out,
	})
}

func artifactJSON(a *artifact.Artifact) map[string]any {
	return map[string]any{
		"version_id": a.VersionID,
		"id":         a.ID.String(),
		"title":      a.Title,
		"kind":       string(a.Kind),
		"content":    json.RawMessage(a.Content),
		"owner":      a.Owner,
		"created_at": a.CreatedAt,
	}
}
