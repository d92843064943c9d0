// Copyright (c) StudyFlow Authors. All rights reserved.

// Command studyflowd serves the study assistant over HTTP.
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
//
// Endpoints:
//
//	POST /api/chat                    run one conversation turn, NDJSON reply
//	GET  /api/sessions/:id            conversation state snapshot
//	GET  /api/artifacts/:id           latest version of an artifact
//	GET  /api/artifacts/:id/versions  full version history
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

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

	addr := os.Getenv("STUDYFLOW_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	dataDir := os.Getenv("STUDYFLOW_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	store, err := artifact.OpenSQLite(dataDir)
	if err != nil {
		log.Fatalf("open artifact store: %v", err)
	}
	defer store.Close()

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
		agentkit.WithCapabilityMiddleware(agentkit.CapabilityLoggingMiddleware(slog.Default())),
	)

	srv := newServer(orch, store)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))

	e.POST("/api/chat", srv.handleChat)
	e.GET("/api/sessions/:id", srv.handleSessionState)
	e.GET("/api/artifacts/:id", srv.handleArtifactLatest)
	e.GET("/api/artifacts/:id/versions", srv.handleArtifactVersions)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()
	slog.Info("studyflowd listening", "addr", addr, "data_dir", dataDir)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
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
