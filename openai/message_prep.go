// Copyright (c) StudyFlow Authors. All rights reserved.

package openai

import (
	"encoding/json"

	"studyflow/agentkit"
)

// chatRequest is the OpenAI Chat Completions API request body.
type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    *float64          `json:"temperature,omitempty"`
	TopP           *float64          `json:"top_p,omitempty"`
	MaxTokens      *int              `json:"max_completion_tokens,omitempty"`
	Stop           []string          `json:"stop,omitempty"`
	Seed           *int              `json:"seed,omitempty"`
	Tools          []toolSpec        `json:"tools,omitempty"`
	ToolChoice     any               `json:"tool_choice,omitempty"`
	User           string            `json:"user,omitempty"`
	Stream         bool              `json:"stream,omitempty"`
	StreamOptions  *streamOptions    `json:"stream_options,omitempty"`
	ResponseFormat any               `json:"response_format,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatMessage struct {
	Role       string     `json:"role"`
	Content    any        `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type toolSpec struct {
	Type     string       `json:"type"`
	Function functionSpec `json:"function"`
}

type functionSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// buildRequest converts agentkit types into an OpenAI API request.
// Capabilities travel on the wire as function tools; only Name,
// Description, and Parameters cross the boundary.
func buildRequest(messages []agentkit.Message, opts *agentkit.ChatOptions, defaultModel string) *chatRequest {
	req := &chatRequest{
		Model: defaultModel,
	}
	if opts != nil {
		if opts.ModelID != "" {
			req.Model = opts.ModelID
		}
		req.Temperature = opts.Temperature
		req.TopP = opts.TopP
		req.MaxTokens = opts.MaxTokens
		req.Stop = opts.Stop
		req.Seed = opts.Seed
		req.User = opts.User
		req.Metadata = opts.Metadata
		req.ResponseFormat = opts.ResponseFormat

		for _, d := range opts.Capabilities {
			req.Tools = append(req.Tools, toolSpec{
				Type: "function",
				Function: functionSpec{
					Name:        d.Name,
					Description: d.Description,
					Parameters:  d.Parameters,
				},
			})
		}

		req.ToolChoice = convertChoice(opts.CapabilityChoice)

		messages = agentkit.PrependInstructions(messages, opts.Instructions)
	}

	req.Messages = convertMessages(messages)
	return req
}

// convertMessages translates agentkit Messages into OpenAI chat messages.
func convertMessages(messages []agentkit.Message) []chatMessage {
	result := make([]chatMessage, 0, len(messages))

	for _, msg := range messages {
		cm := chatMessage{
			Role: string(msg.Role),
			Name: msg.AuthorName,
		}

		switch msg.Role {
		case agentkit.RoleTool:
			// Result messages carry a single capability result
			for _, c := range msg.Contents {
				if cr, ok := c.(*agentkit.CapabilityResultContent); ok {
					cm.ToolCallID = cr.CallID
					resultStr, _ := marshalResult(cr.Result)
					cm.Content = resultStr
				}
			}

		case agentkit.RoleAssistant:
			// Assistant messages may have text + capability calls
			var text string
			for _, c := range msg.Contents {
				switch v := c.(type) {
				case *agentkit.TextContent:
					text += v.Text
				case *agentkit.CapabilityCallContent:
					cm.ToolCalls = append(cm.ToolCalls, toolCall{
						ID:   v.CallID,
						Type: "function",
						Function: functionCall{
							Name:      v.Name,
							Arguments: v.Arguments,
						},
					})
				}
			}
			if text != "" {
				cm.Content = text
			}

		default:
			// User/system messages: plain text
			cm.Content = msg.Text()
		}

		result = append(result, cm)
	}

	return result
}

func convertChoice(choice agentkit.CapabilityChoice) any {
	switch choice {
	case agentkit.CapabilityChoiceAuto:
		return "auto"
	case agentkit.CapabilityChoiceRequired:
		return "required"
	case agentkit.CapabilityChoiceNone:
		return "none"
	case "":
		return nil
	default:
		return string(choice)
	}
}

func marshalResult(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(v)
	return string(b), err
}
