// Copyright (c) StudyFlow Authors. All rights reserved.

package capability

import (
	"context"
	"fmt"

	"studyflow/agentkit"
	"studyflow/artifact"
)

const flashcardInstructions = `You write flashcard decks for spaced repetition.
Each card has a short prompt on the front and a precise answer on the back. One
fact per card; never bundle several facts into one answer.`

// FlashcardArgs is the input contract for the flashcard generator.
type FlashcardArgs struct {
	Topic string `json:"topic" jsonschema:"description=Topic for the flashcard deck,required"`
	Count int    `json:"count,omitempty" jsonschema:"description=Number of cards (1-50; default 10)"`
}

// Flashcard is a single front/back card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// FlashcardContent is the artifact payload for a flashcard deck.
type FlashcardContent struct {
	Title string      `json:"title"`
	Topic string      `json:"topic"`
	Cards []Flashcard `json:"cards"`
}

func flashcardSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"title", "cards"},
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"cards": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"front", "back"},
					"properties": map[string]any{
						"front": map[string]any{"type": "string"},
						"back":  map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}

func validateFlashcards(d *FlashcardContent) error {
	if d.Title == "" {
		return fmt.Errorf("deck has no title")
	}
	if len(d.Cards) == 0 {
		return fmt.Errorf("deck has no cards")
	}
	for i, c := range d.Cards {
		if c.Front == "" || c.Back == "" {
			return fmt.Errorf("card %d has an empty side", i)
		}
	}
	return nil
}

// NewFlashcards creates the artifact-producing flashcard deck generator.
func NewFlashcards(client agentkit.ChatClient) *agentkit.FuncCapability {
	return agentkit.NewCapability(
		"create_flashcards",
		"Create a flashcard deck on a topic as a side document. Use when the user wants material for memorization or review.",
		agentkit.KindArtifact,
		func(ctx context.Context, args FlashcardArgs, turn *agentkit.Turn) agentkit.Result {
			const name = "create_flashcards"

			count := args.Count
			if count <= 0 {
				count = 10
			}
			if count > 50 {
				count = 50
			}

			title := fmt.Sprintf("Flashcards: %s", args.Topic)
			sess, err := artifact.Open(turn.ChannelOrDiscard(), title, artifact.KindFlashcards)
			if err != nil {
				return agentkit.Failuref(name, "I couldn't start the flashcard document.").
					WithDiagnostic(map[string]any{"error": err.Error()})
			}
			defer sess.Close()

			prompt := fmt.Sprintf("Write %d flashcards about: %s", count, args.Topic)

			var deck FlashcardContent
			if err := generateJSON(ctx, client, flashcardInstructions, prompt, flashcardSchema(), &deck); err != nil {
				return agentkit.Failuref(name, "I couldn't generate flashcards about %q right now.", args.Topic).
					WithDiagnostic(map[string]any{"error": err.Error()})
			}
			deck.Topic = args.Topic
			if err := validateFlashcards(&deck); err != nil {
				return agentkit.Failuref(name, "The generated deck about %q came back malformed, please try again.", args.Topic).
					WithDiagnostic(map[string]any{"error": err.Error()})
			}

			if err := sess.WriteContent(deck); err != nil {
				return agentkit.Failuref(name, "I couldn't deliver the flashcard document.").
					WithDiagnostic(map[string]any{"error": err.Error()})
			}
			persist(ctx, turn, sess, deck)

			return agentkit.Successf(name, "Created %q with %d cards.", deck.Title, len(deck.Cards)).
				WithData(map[string]any{
					"artifact_id": sess.ID().String(),
					"kind":        string(artifact.KindFlashcards),
					"cards":       len(deck.Cards),
				})
		},
	)
}
