// Copyright (c) StudyFlow Authors. All rights reserved.

package capability

import (
	"context"
	"fmt"

	"studyflow/agentkit"
	"studyflow/artifact"
)

const quizInstructions = `You write multiple-choice quizzes for students. Every
question has exactly four answer options and exactly one correct option. Write
plausible distractors, not throwaway ones, and keep each explanation to one or
two sentences.`

// QuizArgs is the input contract for the quiz generator.
type QuizArgs struct {
	Topic string `json:"topic" jsonschema:"description=Subject of the quiz,required"`
	Count int    `json:"count,omitempty" jsonschema:"description=Number of questions (1-20; default 5)"`
	Level string `json:"level,omitempty" jsonschema:"description=Difficulty,enum=beginner|intermediate|advanced"`
}

// QuizQuestion is one multiple-choice question. CorrectAnswer indexes into
// Options, which always has exactly four entries.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// QuizContent is the artifact payload streamed to the panel and persisted.
type QuizContent struct {
	Title     string         `json:"title"`
	Topic     string         `json:"topic"`
	Questions []QuizQuestion `json:"questions"`
}

func quizSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"title", "questions"},
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"question", "options", "correctAnswer"},
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"options": map[string]any{
							"type":     "array",
							"items":    map[string]any{"type": "string"},
							"minItems": 4,
							"maxItems": 4,
						},
						"correctAnswer": map[string]any{"type": "integer", "minimum": 0, "maximum": 3},
						"explanation":   map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}

// validateQuiz rejects a generated payload before any of it reaches the
// channel. The panel only ever sees a quiz that satisfies the shape rules.
func validateQuiz(q *QuizContent, want int) error {
	if q.Title == "" {
		return fmt.Errorf("quiz has no title")
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("quiz has no questions")
	}
	if want > 0 && len(q.Questions) != want {
		return fmt.Errorf("expected %d questions, got %d", want, len(q.Questions))
	}
	for i, question := range q.Questions {
		if question.Question == "" {
			return fmt.Errorf("question %d is empty", i)
		}
		if len(question.Options) != 4 {
			return fmt.Errorf("question %d has %d options, want 4", i, len(question.Options))
		}
		if question.CorrectAnswer < 0 || question.CorrectAnswer > 3 {
			return fmt.Errorf("question %d correct answer index %d out of range", i, question.CorrectAnswer)
		}
	}
	return nil
}

// NewQuiz creates the artifact-producing quiz generator.
func NewQuiz(client agentkit.ChatClient) *agentkit.FuncCapability {
	return agentkit.NewCapability(
		"create_quiz",
		"Create a multiple-choice quiz on a topic as a side document. Use when the user asks to be quizzed or tested.",
		agentkit.KindArtifact,
		func(ctx context.Context, args QuizArgs, turn *agentkit.Turn) agentkit.Result {
			const name = "create_quiz"

			count := args.Count
			if count <= 0 {
				count = 5
			}
			if count > 20 {
				count = 20
			}

			title := fmt.Sprintf("Quiz: %s", args.Topic)
			sess, err := artifact.Open(turn.ChannelOrDiscard(), title, artifact.KindQuiz)
			if err != nil {
				return agentkit.Failuref(name, "I couldn't start the quiz document.").
					WithDiagnostic(map[string]any{"error": err.Error()})
			}
			defer sess.Close()

			prompt := fmt.Sprintf("Write a %d-question quiz about: %s", count, args.Topic)
			if args.Level != "" {
				prompt += "\nDifficulty: " + args.Level
			}

			var quiz QuizContent
			if err := generateJSON(ctx, client, quizInstructions, prompt, quizSchema(), &quiz); err != nil {
				return agentkit.Failuref(name, "I couldn't generate a quiz about %q right now.", args.Topic).
					WithDiagnostic(map[string]any{"error": err.Error()})
			}
			quiz.Topic = args.Topic
			if err := validateQuiz(&quiz, count); err != nil {
				return agentkit.Failuref(name, "The generated quiz about %q came back malformed, please try again.", args.Topic).
					WithDiagnostic(map[string]any{"error": err.Error()})
			}

			if err := sess.WriteContent(quiz); err != nil {
				return agentkit.Failuref(name, "I couldn't deliver the quiz document.").
					WithDiagnostic(map[string]any{"error": err.Error()})
			}
			persist(ctx, turn, sess, quiz)

			// The acknowledgment stays small; the payload travels over the
			// artifact channel, not through the model transcript.
			return agentkit.Successf(name, "Created %q with %d questions.", quiz.Title, len(quiz.Questions)).
				WithData(map[string]any{
					"artifact_id": sess.ID().String(),
					"kind":        string(artifact.KindQuiz),
					"questions":   len(quiz.Questions),
				})
		},
	)
}
