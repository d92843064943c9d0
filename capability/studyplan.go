// Copyright (c) StudyFlow Authors. All rights reserved.

package capability

import (
	"context"
	"fmt"

	"studyflow/agentkit"
	"studyflow/artifact"
)

const studyPlanInstructions = `You design weekly study plans. Break the subject
into sequential weeks that build on each other. Each week has a short title, two
or three concrete goals, a handful of tasks with realistic time estimates, and
optionally a resource or two. Do not front-load all the hard material.`

// StudyPlanArgs is the input contract for the study plan generator.
type StudyPlanArgs struct {
	Subject string `json:"subject" jsonschema:"description=Subject to build the plan for,required"`
	Weeks   int    `json:"weeks,omitempty" jsonschema:"description=Plan length in weeks (1-12; default 4)"`
	Goal    string `json:"goal,omitempty" jsonschema:"description=What the student wants to achieve, e.g. pass an exam"`
}

// PlanTask is one actionable item within a week. Done is always false on
// creation; only the update capability flips it.
type PlanTask struct {
	Description string `json:"description"`
	Duration    string `json:"duration,omitempty"`
	Done        bool   `json:"done"`
}

// PlanWeek groups one week of the plan.
type PlanWeek struct {
	Title     string     `json:"title"`
	Goals     []string   `json:"goals"`
	Tasks     []PlanTask `json:"tasks"`
	Resources []string   `json:"resources,omitempty"`
}

// StudyPlanContent is the artifact payload for a study plan.
type StudyPlanContent struct {
	Title   string     `json:"title"`
	Subject string     `json:"subject"`
	Goal    string     `json:"goal,omitempty"`
	Weeks   []PlanWeek `json:"weeks"`
}

func studyPlanSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"title", "weeks"},
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"goal":  map[string]any{"type": "string"},
			"weeks": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"title", "goals", "tasks"},
					"properties": map[string]any{
						"title": map[string]any{"type": "string"},
						"goals": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
						"tasks": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type":                 "object",
								"additionalProperties": false,
								"required":             []string{"description"},
								"properties": map[string]any{
									"description": map[string]any{"type": "string"},
									"duration":    map[string]any{"type": "string"},
								},
							},
						},
						"resources": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
					},
				},
			},
		},
	}
}

func validateStudyPlan(p *StudyPlanContent, wantWeeks int) error {
	if p.Title == "" {
		return fmt.Errorf("plan has no title")
	}
	if len(p.Weeks) == 0 {
		return fmt.Errorf("plan has no weeks")
	}
	if wantWeeks > 0 && len(p.Weeks) != wantWeeks {
		return fmt.Errorf("expected %d weeks, got %d", wantWeeks, len(p.Weeks))
	}
	for i, w := range p.Weeks {
		if w.Title == "" {
			return fmt.Errorf("week %d has no title", i+1)
		}
		if len(w.Tasks) == 0 {
			return fmt.Errorf("week %d has no tasks", i+1)
		}
	}
	return nil
}

// NewStudyPlan creates the artifact-producing study plan generator.
func NewStudyPlan(client agentkit.ChatClient) *agentkit.FuncCapability {
	return agentkit.NewCapability(
		"create_study_plan",
		"Create a weekly study plan for a subject as a side document. Use when the user wants a schedule or roadmap for learning something.",
		agentkit.KindArtifact,
		func(ctx context.Context, args StudyPlanArgs, turn *agentkit.Turn) agentkit.Result {
			const name = "create_study_plan"

			weeks := args.Weeks
			if weeks <= 0 {
				weeks = 4
			}
			if weeks > 12 {
				weeks = 12
			}

			title := fmt.Sprintf("Study plan: %s", args.Subject)
			sess, err := artifact.Open(turn.ChannelOrDiscard(), title, artifact.KindStudyPlan)
			if err != nil {
				return agentkit.Failuref(name, "I couldn't start the study plan document.").
					WithDiagnostic(map[string]any{"error": err.Error()})
			}
			defer sess.Close()

			prompt := fmt.Sprintf("Design a %d-week study plan for: %s", weeks, args.Subject)
			if args.Goal != "" {
				prompt += "\nThe student's goal: " + args.Goal
			}

			var plan StudyPlanContent
			if err := generateJSON(ctx, client, studyPlanInstructions, prompt, studyPlanSchema(), &plan); err != nil {
				return agentkit.Failuref(name, "I couldn't put a study plan together for %q right now.", args.Subject).
					WithDiagnostic(map[string]any{"error": err.Error()})
			}
			plan.Subject = args.Subject
			if plan.Goal == "" {
				plan.Goal = args.Goal
			}
			// New tasks always start unchecked, whatever the model emitted.
			for wi := range plan.Weeks {
				for ti := range plan.Weeks[wi].Tasks {
					plan.Weeks[wi].Tasks[ti].Done = false
				}
			}
			if err := validateStudyPlan(&plan, weeks); err != nil {
				return agentkit.Failuref(name, "The generated plan for %q came back malformed, please try again.", args.Subject).
					WithDiagnostic(map[string]any{"error": err.Error()})
			}

			if err := sess.WriteContent(plan); err != nil {
				return agentkit.Failuref(name, "I couldn't deliver the study plan document.").
					WithDiagnostic(map[string]any{"error": err.Error()})
			}
			persist(ctx, turn, sess, plan)

			return agentkit.Successf(name, "Created %q covering %d weeks.", plan.Title, len(plan.Weeks)).
				WithData(map[string]any{
					"artifact_id": sess.ID().String(),
					"kind":        string(artifact.KindStudyPlan),
					"weeks":       len(plan.Weeks),
				})
		},
	)
}
