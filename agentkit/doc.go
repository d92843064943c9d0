// Copyright (c) StudyFlow Authors. All rights reserved.

// Package agentkit provides the core types for building a tool-routing
// chat orchestrator in Go: messages, capability contracts, a registry,
// and a bounded dispatch loop with streaming support.
//
// # Quick Start
//
// Create a ChatClient (e.g., from the openai package), register
// capabilities, and build an Orchestrator:
//
//	client := openai.New(os.Getenv("OPENAI_API_KEY"), openai.WithModel("gpt-4o"))
//
//	reg := agentkit.NewRegistry()
//	_ = reg.Register(capability.NewWeather(nil))
//
//	orch := agentkit.NewOrchestrator(client, reg,
//	    agentkit.WithInstructions("You are a study assistant."),
//	)
//
//	resp, err := orch.Run(ctx, []agentkit.Message{
//	    agentkit.NewUserMessage("quiz me on photosynthesis"),
//	})
//
// # Architecture
//
// The package is organized around these key abstractions:
//
//   - [Orchestrator]: the bounded loop that lets the model choose and
//     sequence capability invocations within a step budget.
//   - [ChatClient]: interface for LLM backends (implemented by provider packages).
//   - [Capability]: a named, independently invocable function exposed to
//     the model, returning a [Result] (success or failure, never a fault).
//   - [Registry]: exact-match lookup table from capability name to unit,
//     read-only after startup.
//   - [Turn]: per-turn context carrying the artifact channel and store
//     into each capability invocation.
//   - [Content]: sealed interface over the concrete message part types.
//   - [ResponseStream]: generic pull-based iterator for streaming responses.
//
// # Capabilities
//
// Use [NewCapability] for type-safe units with automatic JSON Schema
// generation:
//
//	type TutorArgs struct {
//	    Topic string `json:"topic" jsonschema:"description=Topic to explain,required"`
//	    Level string `json:"level" jsonschema:"enum=beginner|intermediate|advanced"`
//	}
//
//	tutor := agentkit.NewCapability("explain_topic", "Explain a topic to the student",
//	    agentkit.KindDirect,
//	    func(ctx context.Context, args TutorArgs, turn *agentkit.Turn) agentkit.Result {
//	        return agentkit.Successf("explain_topic", "%s, explained.", args.Topic)
//	    },
//	)
//
// Capability selection is delegated entirely to the model's reading of
// each unit's description. Selection between overlapping descriptions is
// best-effort; there is no deterministic tie-break at this layer.
// Capabilities may call the model downstream but never re-enter the
// dispatch loop.
package agentkit
