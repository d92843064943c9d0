// Copyright (c) StudyFlow Authors. All rights reserved.

package capability

import (
	"context"

	"studyflow/agentkit"
)

const tutorInstructions = `You are a patient tutor. Explain the requested concept
clearly and concretely. Start from what the student likely already knows, use one
worked example, and keep the explanation under 300 words. Do not use bullet-point
lists unless the concept is inherently enumerable.`

// TutorArgs is the input contract for the concept explainer.
type TutorArgs struct {
	Concept string `json:"concept" jsonschema:"description=The concept or topic to explain,required"`
	Level   string `json:"level,omitempty" jsonschema:"description=Student level,enum=beginner|intermediate|advanced"`
}

// NewTutor creates the direct-result tutoring capability. It makes one
// downstream model call and folds the explanation back as text; it never
// re-enters the dispatch loop.
func NewTutor(client agentkit.ChatClient) *agentkit.FuncCapability {
	return agentkit.NewCapability(
		"explain_concept",
		"Explain a concept or answer a subject-matter question in a tutoring style. Use for conceptual questions that need a worked explanation rather than a document.",
		agentkit.KindDirect,
		func(ctx context.Context, args TutorArgs, _ *agentkit.Turn) agentkit.Result {
			const name = "explain_concept"

			prompt := "Explain: " + args.Concept
			if args.Level != "" {
				prompt += "\nStudent level: " + args.Level
			}

			explanation, err := generateText(ctx, client, tutorInstructions, prompt)
			if err != nil {
				return agentkit.Failuref(name, "I couldn't put together an explanation of %q right now.", args.Concept).
					WithDiagnostic(map[string]any{"error": err.Error()})
			}
			return agentkit.Successf(name, "%s", explanation)
		},
	)
}
