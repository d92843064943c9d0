// Copyright (c) StudyFlow Authors. All rights reserved.

// Package openai provides an [agentkit.ChatClient] implementation for the
// OpenAI Chat Completions API, including Azure OpenAI deployments.
//
// Create a client and pass it to [agentkit.NewOrchestrator]:
//
//	client := openai.New(os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
//
//	orch := agentkit.NewOrchestrator(client, registry)
//
// The client supports both synchronous and streaming responses, capability
// calling, and all standard ChatOptions.
//
// # Configuration
//
// Use functional options to configure the client:
//
//   - [WithModel]: set the default model or Azure deployment name
//   - [WithBaseURL]: override the API endpoint (e.g., Azure OpenAI)
//   - [WithAzureCredential]: use Azure AD token auth instead of an API key
//   - [WithOrganization]: set the OpenAI organization header
//   - [WithHTTPClient]: provide a custom http.Client
//   - [WithHeaders]: add custom headers to every request
//
// # Testing
//
// The client uses an unexported transport interface internally.
// For testing, provide a mock http.Client via [WithHTTPClient]
// with a custom RoundTripper.
package openai
