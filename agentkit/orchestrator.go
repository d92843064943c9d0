// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// DefaultStepBudget bounds the number of capability-invocation rounds in a
// single conversation turn. The budget is a hard cap, not a soft hint: it
// exists to bound cost and prevent infinite tool-call loops.
const DefaultStepBudget = 8

// Orchestrator drives a bounded loop of model inference, optional capability
// invocation, and result fold-back until the model emits a final answer or
// the step budget is exhausted.
//
// Create one with [NewOrchestrator] and functional options:
//
//	orch := agentkit.NewOrchestrator(client, registry,
//	    agentkit.WithName("study-assistant"),
//	    agentkit.WithInstructions("You are a study assistant."),
//	)
type Orchestrator struct {
	id                   string
	name                 string
	client               ChatClient
	registry             *Registry
	instructions         string
	stepBudget           int
	defaultOptions       *ChatOptions
	messageStoreFactory  func() MessageStore
	contextProvider      ContextProvider
	runMiddleware        []RunMiddleware
	capabilityMiddleware []CapabilityMiddleware
}

// OrchestratorOption configures an [Orchestrator] via [NewOrchestrator].
type OrchestratorOption func(*Orchestrator)

// WithName sets the orchestrator's display name.
func WithName(name string) OrchestratorOption {
	return func(o *Orchestrator) { o.name = name }
}

// WithInstructions sets the system instructions presented to the model.
func WithInstructions(instructions string) OrchestratorOption {
	return func(o *Orchestrator) { o.instructions = instructions }
}

// WithStepBudget overrides [DefaultStepBudget] for all turns.
func WithStepBudget(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.stepBudget = n }
}

// WithDefaultOptions sets default [ChatOptions] for all requests.
func WithDefaultOptions(opts *ChatOptions) OrchestratorOption {
	return func(o *Orchestrator) { o.defaultOptions = opts }
}

// WithMessageStoreFactory sets a factory for creating message stores when a
// session is initialized.
func WithMessageStoreFactory(f func() MessageStore) OrchestratorOption {
	return func(o *Orchestrator) { o.messageStoreFactory = f }
}

// WithContextProvider attaches a [ContextProvider] for dynamic context injection.
func WithContextProvider(cp ContextProvider) OrchestratorOption {
	return func(o *Orchestrator) { o.contextProvider = cp }
}

// WithRunMiddleware adds [RunMiddleware] to the turn pipeline.
func WithRunMiddleware(mws ...RunMiddleware) OrchestratorOption {
	return func(o *Orchestrator) { o.runMiddleware = append(o.runMiddleware, mws...) }
}

// WithCapabilityMiddleware adds [CapabilityMiddleware] to the invocation pipeline.
func WithCapabilityMiddleware(mws ...CapabilityMiddleware) OrchestratorOption {
	return func(o *Orchestrator) { o.capabilityMiddleware = append(o.capabilityMiddleware, mws...) }
}

// NewOrchestrator creates an Orchestrator over a [ChatClient] and [Registry].
func NewOrchestrator(client ChatClient, registry *Registry, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		id:         uuid.NewString(),
		client:     client,
		registry:   registry,
		stepBudget: DefaultStepBudget,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.stepBudget <= 0 {
		o.stepBudget = DefaultStepBudget
	}
	return o
}

// ID returns the orchestrator's unique identifier.
func (o *Orchestrator) ID() string { return o.id }

// Name returns the orchestrator's display name.
func (o *Orchestrator) Name() string { return o.name }

// RunOption configures a single [Orchestrator.Run] or [Orchestrator.RunStream] call.
type RunOption func(*runConfig)

type runConfig struct {
	session *Session
	exclude []string
	turn    *Turn
	options *ChatOptions
	budget  int
}

// WithSession attaches a [Session] for multi-turn conversation.
func WithSession(s *Session) RunOption {
	return func(c *runConfig) { c.session = s }
}

// WithExclusions disables the named capabilities for this turn.
func WithExclusions(names ...string) RunOption {
	return func(c *runConfig) { c.exclude = append(c.exclude, names...) }
}

// WithTurn supplies the per-turn context (artifact channel, store, owner).
func WithTurn(t *Turn) RunOption {
	return func(c *runConfig) { c.turn = t }
}

// WithRunOptions provides per-call [ChatOptions] overrides.
func WithRunOptions(opts *ChatOptions) RunOption {
	return func(c *runConfig) { c.options = opts }
}

// WithRunStepBudget overrides the step budget for this turn only.
func WithRunStepBudget(n int) RunOption {
	return func(c *runConfig) { c.budget = n }
}

// Run executes one conversation turn to completion and returns the merged
// response. Step-budget exhaustion is a designed termination, not an error:
// the returned response carries [StopBudget] and the partial answer.
func (o *Orchestrator) Run(ctx context.Context, messages []Message, opts ...RunOption) (*TurnResponse, error) {
	cfg := o.buildRunConfig(opts)

	handler := func(ctx context.Context, req *RunRequest) (*TurnResponse, error) {
		return o.execute(ctx, req.Messages, cfg, nil)
	}
	wrapped := chainRunMiddleware(handler, o.runMiddleware...)

	return wrapped(ctx, &RunRequest{
		Messages: messages,
		Session:  cfg.session,
		Options:  cfg.options,
	})
}

// RunStream executes one conversation turn, streaming output segments as
// they are produced: text deltas from the model interleaved with capability
// invocation and result markers.
func (o *Orchestrator) RunStream(ctx context.Context, messages []Message, opts ...RunOption) *TurnStream {
	cfg := o.buildRunConfig(opts)

	// The producer goroutine starts inside NewResponseStream and may call
	// setFinal before this function returns, so the TurnStream must be
	// fully constructed first.
	ts := &TurnStream{}
	ts.stream = NewResponseStream(ctx, func(ctx context.Context, ch chan<- Segment) error {
		emit := func(seg Segment) error {
			select {
			case ch <- seg:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		resp, err := o.execute(ctx, messages, cfg, emit)
		if err != nil {
			return err
		}
		ts.setFinal(resp)
		return nil
	})
	return ts
}

// NewSession creates a [Session] pre-configured for this orchestrator.
func (o *Orchestrator) NewSession() *Session {
	var store MessageStore
	if o.messageStoreFactory != nil {
		store = o.messageStoreFactory()
	} else {
		store = NewInMemoryStore()
	}
	return NewSession(WithSessionStore(store))
}

func (o *Orchestrator) buildRunConfig(opts []RunOption) *runConfig {
	cfg := &runConfig{budget: o.stepBudget}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.budget <= 0 {
		cfg.budget = o.stepBudget
	}
	if cfg.turn == nil {
		cfg.turn = &Turn{}
	}
	if cfg.turn.Channel == nil {
		cfg.turn.Channel = cfg.turn.ChannelOrDiscard()
	}
	return cfg
}

// prepare assembles the full message list and chat options for a turn:
// session history, context-provider injections, capability descriptors,
// and system instructions.
func (o *Orchestrator) prepare(ctx context.Context, messages []Message, cfg *runConfig) ([]Message, *ChatOptions, error) {
	opts := MergeChatOptions(o.defaultOptions, cfg.options)
	opts.Capabilities = o.registry.Descriptors(cfg.exclude...)

	if o.instructions != "" {
		if opts.Instructions != "" {
			opts.Instructions = o.instructions + "\n" + opts.Instructions
		} else {
			opts.Instructions = o.instructions
		}
	}

	var all []Message
	if cfg.session != nil {
		if store := cfg.session.Store(); store != nil {
			history, err := store.ListMessages(ctx)
			if err != nil {
				return nil, nil, fmt.Errorf("load session history: %w", err)
			}
			all = append(all, history...)
		}
	}
	all = append(all, messages...)

	if o.contextProvider != nil {
		injected, err := o.contextProvider.Invoking(ctx, all)
		if err != nil {
			return nil, nil, fmt.Errorf("context provider: %w", err)
		}
		if injected != nil {
			if injected.Instructions != "" {
				if opts.Instructions != "" {
					opts.Instructions += "\n" + injected.Instructions
				} else {
					opts.Instructions = injected.Instructions
				}
			}
			if len(injected.Messages) > 0 {
				all = append(injected.Messages, all...)
			}
		}
	}

	all = PrependInstructions(all, opts.Instructions)
	return all, opts, nil
}

// execute runs the dispatch loop. emit is nil for non-streaming turns.
func (o *Orchestrator) execute(ctx context.Context, request []Message, cfg *runConfig, emit func(Segment) error) (*TurnResponse, error) {
	messages, opts, err := o.prepare(ctx, request, cfg)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "turn started",
		"orchestrator_id", o.id,
		"orchestrator_name", o.name,
		"message_count", len(messages),
		"capability_count", len(opts.Capabilities),
		"step_budget", cfg.budget,
	)

	resp := &TurnResponse{StopReason: StopFinal}
	invocationCounts := make(map[string]int)

	for step := 0; ; step++ {
		chatResp, err := o.modelCall(ctx, messages, opts, emit)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecution, err)
		}
		resp.Usage.Add(chatResp.Usage)
		if chatResp.ResponseID != "" {
			resp.ResponseID = chatResp.ResponseID
		}
		resp.Messages = append(resp.Messages, chatResp.Messages...)

		calls := extractCapabilityCalls(chatResp)
		if len(calls) == 0 {
			resp.Steps = step
			break
		}

		// Hard cap: refuse to start another invocation round past the
		// budget. The partial answer accumulated so far is still valid
		// output; this is a forced stop, not an error.
		if step >= cfg.budget {
			resp.Steps = step
			resp.StopReason = StopBudget
			slog.WarnContext(ctx, "step budget exhausted",
				"orchestrator_id", o.id,
				"budget", cfg.budget,
			)
			break
		}

		var resultMessages []Message
		for _, call := range calls {
			if emit != nil {
				if err := emit(Segment{Type: SegmentCall, Call: call}); err != nil {
					return nil, err
				}
			}

			result := o.dispatch(ctx, call, cfg, invocationCounts)
			resp.Results = append(resp.Results, result)
			resultMessages = append(resultMessages, NewResultMessage(call.CallID, result.Summary))

			if emit != nil {
				r := result
				if err := emit(Segment{Type: SegmentResult, Result: &r}); err != nil {
					return nil, err
				}
			}
		}

		messages = append(messages, chatResp.Messages...)
		messages = append(messages, resultMessages...)
		resp.Messages = append(resp.Messages, resultMessages...)
	}

	if cfg.session != nil {
		if err := o.updateSession(ctx, cfg.session, request, resp.Messages); err != nil {
			slog.WarnContext(ctx, "failed to update session", "error", err)
		}
	}
	if o.contextProvider != nil {
		if err := o.contextProvider.Invoked(ctx, request, resp.Messages); err != nil {
			slog.WarnContext(ctx, "context provider invoked hook failed", "error", err)
		}
	}

	return resp, nil
}

// modelCall performs one model inference. In streaming mode it forwards
// text deltas to emit as they arrive and merges the updates afterwards.
func (o *Orchestrator) modelCall(ctx context.Context, messages []Message, opts *ChatOptions, emit func(Segment) error) (*ChatResponse, error) {
	if emit == nil {
		return o.client.Response(ctx, messages, opts)
	}

	stream, err := o.client.StreamResponse(ctx, messages, opts)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var updates []ChatResponseUpdate
	for {
		u, ok, err := stream.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if text := u.Text(); text != "" {
			if err := emit(Segment{Type: SegmentText, Text: text}); err != nil {
				return nil, err
			}
		}
		updates = append(updates, u)
	}
	return ChatResponseFromUpdates(updates), nil
}

// dispatch resolves, validates and executes one invocation request. Every
// failure mode is recovered locally into a Failure result; a single
// capability failure never aborts the loop.
func (o *Orchestrator) dispatch(ctx context.Context, call *CapabilityCallContent, cfg *runConfig, counts map[string]int) Result {
	excluded := make(map[string]struct{}, len(cfg.exclude))
	for _, name := range cfg.exclude {
		excluded[name] = struct{}{}
	}

	unit, found := o.registry.Resolve(call.Name)
	if _, off := excluded[call.Name]; off {
		found = false
	}
	if !found {
		slog.WarnContext(ctx, "unknown capability requested", "capability", call.Name)
		return Failuref(call.Name, "I tried to use %s, but it isn't available.", call.Name).
			WithDiagnostic(map[string]any{"error": ErrUnknownCapability.Error()})
	}

	if fc, ok := unit.(*FuncCapability); ok && fc.MaxInvocations() > 0 {
		if counts[call.Name] >= fc.MaxInvocations() {
			return Failuref(call.Name, "%s has already been used as often as allowed in this turn.", call.Name).
				WithDiagnostic(map[string]any{"max_invocations": fc.MaxInvocations()})
		}
	}

	args := json.RawMessage(call.Arguments)
	if err := ValidateArguments(unit.Parameters(), args); err != nil {
		slog.WarnContext(ctx, "capability arguments rejected",
			"capability", call.Name,
			"error", err,
		)
		diag := map[string]any{"error": err.Error()}
		var verr *ValidationError
		if errors.As(err, &verr) && verr.Field != "" {
			diag["field"] = verr.Field
		}
		return Failuref(call.Name, "I couldn't run %s: %s.", call.Name, err.Error()).
			WithDiagnostic(diag)
	}

	counts[call.Name]++

	handler := func(ctx context.Context, unit Capability, args json.RawMessage, turn *Turn) Result {
		return safeExecute(ctx, unit, args, turn)
	}
	final := chainCapabilityMiddleware(handler, o.capabilityMiddleware...)
	result := final(ctx, unit, args, cfg.turn)

	if !result.OK {
		slog.WarnContext(ctx, "capability failed",
			"capability", call.Name,
			"summary", result.Summary,
			"diagnostic", result.Diagnostic,
		)
	}
	return result
}

// extractCapabilityCalls finds all CapabilityCallContent in a response's messages.
func extractCapabilityCalls(resp *ChatResponse) []*CapabilityCallContent {
	var calls []*CapabilityCallContent
	for _, msg := range resp.Messages {
		for _, c := range msg.Contents {
			if cc, ok := c.(*CapabilityCallContent); ok {
				calls = append(calls, cc)
			}
		}
	}
	return calls
}

func (o *Orchestrator) updateSession(ctx context.Context, session *Session, request, produced []Message) error {
	store := session.Store()
	if store == nil {
		if o.messageStoreFactory != nil {
			store = o.messageStoreFactory()
		} else {
			store = NewInMemoryStore()
		}
		session.SetStore(store)
	}
	if err := store.AddMessages(ctx, request); err != nil {
		return err
	}
	return store.AddMessages(ctx, produced)
}
