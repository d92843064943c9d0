// Copyright (c) StudyFlow Authors. All rights reserved.

package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"studyflow/agentkit"
	"studyflow/artifact"
)

const updateInstructions = `You revise an existing study document. You receive
the current document as JSON plus a revision instruction. Apply the instruction
and return the complete revised document in exactly the same JSON shape. Keep
everything the instruction does not touch unchanged.`

// UpdateArgs is the input contract for the artifact update capability.
type UpdateArgs struct {
	ArtifactID  string `json:"artifact_id" jsonschema:"description=ID of the artifact to revise,required"`
	Instruction string `json:"instruction" jsonschema:"description=What to change,required"`
}

// NewUpdateArtifact creates the artifact-producing update capability. It
// loads the current version from the store, revises it downstream, streams
// the revision into the same artifact panel, and appends a new version
// record under the same id.
func NewUpdateArtifact(client agentkit.ChatClient) *agentkit.FuncCapability {
	return agentkit.NewCapability(
		"update_artifact",
		"Revise an existing artifact (quiz, study plan, flashcards, ...) given its id and an instruction. Use when the user wants changes to a document already created this session.",
		agentkit.KindArtifact,
		func(ctx context.Context, args UpdateArgs, turn *agentkit.Turn) agentkit.Result {
			const name = "update_artifact"

			id, err := uuid.Parse(args.ArtifactID)
			if err != nil {
				return agentkit.Failuref(name, "%q is not a valid artifact id.", args.ArtifactID).
					WithDiagnostic(map[string]any{"error": err.Error()})
			}
			if turn == nil || turn.Artifacts == nil {
				return agentkit.Failuref(name, "There is no artifact storage available, so I can't look up the document.")
			}

			current, err := turn.Artifacts.Latest(ctx, id)
			if errors.Is(err, artifact.ErrNotFound) {
				return agentkit.Failuref(name, "I couldn't find an artifact with id %s.", id)
			}
			if err != nil {
				return agentkit.Failuref(name, "I couldn't load the current version of that artifact.").
					WithDiagnostic(map[string]any{"error": err.Error()})
			}

			// Same id, same panel: the consumer sees the revision replace the
			// document in place rather than opening a new one.
			sess, err := artifact.OpenWith(turn.ChannelOrDiscard(), current.ID, current.Title, current.Kind)
			if err != nil {
				return agentkit.Failuref(name, "I couldn't reopen the document for revision.").
					WithDiagnostic(map[string]any{"error": err.Error()})
			}
			defer sess.Close()

			prompt := fmt.Sprintf("Current document:\n%s\n\nRevision instruction: %s", current.Content, args.Instruction)

			revised, err := reviseContent(ctx, client, current.Kind, prompt)
			if err != nil {
				return agentkit.Failuref(name, "I couldn't apply that revision to %q right now.", current.Title).
					WithDiagnostic(map[string]any{"error": err.Error()})
			}

			if err := sess.WriteContent(revised); err != nil {
				return agentkit.Failuref(name, "I couldn't deliver the revised document.").
					WithDiagnostic(map[string]any{"error": err.Error()})
			}
			persist(ctx, turn, sess, revised)

			return agentkit.Successf(name, "Updated %q.", current.Title).
				WithData(map[string]any{
					"artifact_id": current.ID.String(),
					"kind":        string(current.Kind),
				})
		},
	)
}

// reviseContent runs the downstream revision call, validating the reply
// against the kind's payload shape where one is defined. Unknown kinds are
// revised as free-form JSON.
func reviseContent(ctx context.Context, client agentkit.ChatClient, kind artifact.Kind, prompt string) (any, error) {
	switch kind {
	case artifact.KindQuiz:
		var quiz QuizContent
		if err := generateJSON(ctx, client, updateInstructions, prompt, quizSchema(), &quiz); err != nil {
			return nil, err
		}
		if err := validateQuiz(&quiz, 0); err != nil {
			return nil, err
		}
		return quiz, nil

	case artifact.KindStudyPlan:
		var plan StudyPlanContent
		if err := generateJSON(ctx, client, updateInstructions, prompt, studyPlanSchema(), &plan); err != nil {
			return nil, err
		}
		if err := validateStudyPlan(&plan, 0); err != nil {
			return nil, err
		}
		return plan, nil

	case artifact.KindFlashcards:
		var deck FlashcardContent
		if err := generateJSON(ctx, client, updateInstructions, prompt, flashcardSchema(), &deck); err != nil {
			return nil, err
		}
		if err := validateFlashcards(&deck); err != nil {
			return nil, err
		}
		return deck, nil

	default:
		text, err := generateText(ctx, client, updateInstructions, prompt)
		if err != nil {
			return nil, err
		}
		raw := json.RawMessage(stripFences(text))
		if !json.Valid(raw) {
			return nil, fmt.Errorf("model returned malformed payload")
		}
		return raw, nil
	}
}
