// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// LoggingMiddleware returns a [RunMiddleware] that logs conversation turns
// using slog.
func LoggingMiddleware(logger *slog.Logger) RunMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next RunHandler) RunHandler {
		return func(ctx context.Context, req *RunRequest) (*TurnResponse, error) {
			start := time.Now()
			logger.InfoContext(ctx, "turn started",
				"message_count", len(req.Messages),
			)

			resp, err := next(ctx, req)

			duration := time.Since(start)
			if err != nil {
				logger.ErrorContext(ctx, "turn failed",
					"duration", duration,
					"error", err,
				)
				return nil, err
			}

			logger.InfoContext(ctx, "turn completed",
				"duration", duration,
				"steps", resp.Steps,
				"stop_reason", resp.StopReason,
				"results", len(resp.Results),
				"input_tokens", resp.Usage.InputTokens,
				"output_tokens", resp.Usage.OutputTokens,
			)
			return resp, nil
		}
	}
}

// CapabilityLoggingMiddleware returns a [CapabilityMiddleware] that logs
// every invocation with its outcome and duration.
func CapabilityLoggingMiddleware(logger *slog.Logger) CapabilityMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next CapabilityHandler) CapabilityHandler {
		return func(ctx context.Context, unit Capability, args json.RawMessage, turn *Turn) Result {
			start := time.Now()
			result := next(ctx, unit, args, turn)
			logger.InfoContext(ctx, "capability invoked",
				"capability", unit.Name(),
				"kind", unit.Kind(),
				"ok", result.OK,
				"duration", time.Since(start),
			)
			return result
		}
	}
}
