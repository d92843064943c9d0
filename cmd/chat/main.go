// Copyright (c) StudyFlow Authors. All rights reserved.

// Command chat is a terminal client for the study assistant.
//
// It works with both direct OpenAI and Azure AI Foundry endpoints.
//
// Usage with OpenAI:
//
//	export OPENAI_API_KEY=sk-...
//	go run .
//
// Usage with Azure AI Foundry:
//
//	export AZURE_FOUNDRY_ENDPOINT=https://<project>.services.ai.azure.com/openai/deployments/<deployment>
//	export AZURE_FOUNDRY_KEY=<your-key>
//	export AZURE_FOUNDRY_MODEL=gpt-4o          # optional, defaults to gpt-4o
//	go run .
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/joho/godotenv"

	"studyflow/agentkit"
	"studyflow/artifact"
	"studyflow/capability"
	"studyflow/openai"
)

const assistantInstructions = `You are a study assistant. You help students
learn by explaining concepts, creating quizzes, flashcard decks, and study
plans, and revising documents you already created. When the user wants a
document, use the matching capability rather than writing it inline. Keep
chat responses concise.`

func main() {
	// Load .env file if present (ignored if missing).
	_ = godotenv.Load()

	if os.Getenv("DEBUG") != "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	client := newChatClient()

	registry := agentkit.NewRegistry()
	registry.MustRegister(
		capability.NewWeather(),
		capability.NewTutor(client),
		capability.NewQuiz(client),
		capability.NewStudyPlan(client),
		capability.NewFlashcards(client),
		capability.NewUpdateArtifact(client),
	)

	orch := agentkit.NewOrchestrator(client, registry,
		agentkit.WithName("study-assistant"),
		agentkit.WithInstructions(assistantInstructions),
		agentkit.WithRunMiddleware(agentkit.LoggingMiddleware(slog.Default())),
	)
	session := orch.NewSession()

	// The reducer materializes artifact events; the in-memory store keeps
	// versions so update_artifact works across the conversation.
	reducer := artifact.NewReducer()
	store := artifact.NewMemStore()
	channel := artifact.ChannelFunc(func(e artifact.Event) error {
		if err := reducer.Apply(e); err != nil {
			slog.Warn("artifact event rejected", "type", e.Type, "error", err)
			return nil
		}
		if e.Type == artifact.EventFinish {
			if v, ok := reducer.Current(); ok {
				renderArtifact(v)
			}
		}
		return nil
	})
	turn := &agentkit.Turn{Channel: channel, Artifacts: store, Owner: "local"}

	fmt.Println("Study assistant (type 'quit' to exit)")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			break
		}

		ctx := context.Background()
		stream := orch.RunStream(ctx,
			[]agentkit.Message{agentkit.NewUserMessage(input)},
			agentkit.WithSession(session),
			agentkit.WithTurn(turn),
		)

		fmt.Print("Assistant: ")
		for {
			seg, ok, err := stream.Next(ctx)
			if err != nil {
				log.Printf("\nError: %v", err)
				break
			}
			if !ok {
				break
			}
			switch seg.Type {
			case agentkit.SegmentText:
				fmt.Print(seg.Text)
			case agentkit.SegmentCall:
				fmt.Printf("\n  [using %s]\n", seg.Call.Name)
			case agentkit.SegmentResult:
				if !seg.Result.OK {
					fmt.Printf("  [%s failed: %s]\n", seg.Result.Capability, seg.Result.Summary)
				}
			}
		}
		fmt.Println()
		stream.Close()

		if final, err := stream.FinalResponse(ctx); err == nil && final != nil {
			if final.StopReason == agentkit.StopBudget {
				fmt.Println("  [stopped: step budget exhausted]")
			}
			if final.Usage.TotalTokens > 0 {
				fmt.Printf("  [tokens: %d in, %d out]\n",
					final.Usage.InputTokens, final.Usage.OutputTokens)
			}
		}
		fmt.Println()
	}
}

// renderArtifact prints a finished artifact panel to the terminal.
func renderArtifact(v artifact.View) {
	fmt.Printf("\n--- %s (%s, id %s) ---\n", v.Title, v.Kind, v.ID)
	if !v.Renderable {
		fmt.Println("  [no renderer for this kind]")
		return
	}

	switch v.Kind {
	case artifact.KindQuiz:
		var quiz capability.QuizContent
		if json.Unmarshal([]byte(v.Content), &quiz) == nil {
			for i, q := range quiz.Questions {
				fmt.Printf("%d. %s\n", i+1, q.Question)
				for j, opt := range q.Options {
					fmt.Printf("   %c) %s\n", 'a'+j, opt)
				}
			}
			return
		}
	case artifact.KindStudyPlan:
		var plan capability.StudyPlanContent
		if json.Unmarshal([]byte(v.Content), &plan) == nil {
			for i, w := range plan.Weeks {
				fmt.Printf("Week %d: %s\n", i+1, w.Title)
				for _, task := range w.Tasks {
					box := "[ ]"
					if task.Done {
						box = "[x]"
					}
					fmt.Printf("  %s %s", box, task.Description)
					if task.Duration != "" {
						fmt.Printf(" (%s)", task.Duration)
					}
					fmt.Println()
				}
			}
			return
		}
	case artifact.KindFlashcards:
		var deck capability.FlashcardContent
		if json.Unmarshal([]byte(v.Content), &deck) == nil {
			for i, card := range deck.Cards {
				fmt.Printf("%d. %s — %s\n", i+1, card.Front, card.Back)
			}
			return
		}
	}

	fmt.Println(v.Content)
}

// newChatClient creates an OpenAI-compatible client, choosing between Azure AI
// Foundry and direct OpenAI based on which environment variables are set.
func newChatClient() *openai.Client {
	// Azure AI Foundry — uses the OpenAI-compatible endpoint.
	if endpoint := os.Getenv("AZURE_FOUNDRY_ENDPOINT"); endpoint != "" {
		key := os.Getenv("AZURE_FOUNDRY_KEY")
		model := os.Getenv("AZURE_FOUNDRY_MODEL")
		if model == "" {
			model = "gpt-4o"
		}

		fmt.Printf("Using Azure AI Foundry: %s\n", endpoint)

		// If no key provided, use Azure AD authentication
		if key == "" {
			cred, err := azidentity.NewDefaultAzureCredential(nil)
			if err != nil {
				log.Fatalf("Failed to create Azure credential: %v", err)
			}
			return openai.New("", // empty key when using Azure AD
				openai.WithBaseURL(endpoint),
				openai.WithModel(model),
				openai.WithAzureCredential(cred),
			)
		}

		return openai.New(key,
			openai.WithBaseURL(endpoint),
			openai.WithModel(model),
			openai.WithHeaders(map[string]string{
				"api-key": key, // Azure uses api-key header instead of Bearer token
			}),
		)
	}

	// Direct OpenAI
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("Set OPENAI_API_KEY or AZURE_FOUNDRY_ENDPOINT")
	}
	return openai.New(apiKey,
		openai.WithModel("gpt-4o"),
	)
}
