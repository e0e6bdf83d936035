// Package tools implements the MCP tool registry for the storytelling
// analysis server. Every handler returns a JSON payload with a success flag.
// Bad input and upstream failures become {"success": false, "error": ...}
// rather than protocol-level errors.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/storymesh/story-mcp/engine/n8n"
	"github.com/storymesh/story-mcp/pkg/logger"
)

// Service dispatches tool invocations to the workflow engine client and keeps
// the local job registry.
type Service struct {
	client *n8n.Client
	jobs   *JobStore
}

func NewService(client *n8n.Client) *Service {
	return &Service{
		client: client,
		jobs:   NewJobStore(),
	}
}

// Jobs exposes the local job registry.
func (s *Service) Jobs() *JobStore {
	return s.jobs
}

// instrument tags every invocation with a request id and catches panics so no
// tool can take the process down.
func (s *Service) instrument(name string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		log := logger.FromContext(ctx).With("tool", name, "request_id", uuid.NewString())
		ctx = logger.ContextWithLogger(ctx, log)
		defer func() {
			if r := recover(); r != nil {
				log.Error("Tool handler panicked", "panic", r)
				result = errorResult(fmt.Sprintf("internal error in %s", name))
				err = nil
			}
		}()
		log.Debug("Tool invoked")
		return handler(ctx, req)
	}
}

// successResult wraps the payload in the success envelope as a JSON text result.
func successResult(payload map[string]any) *mcp.CallToolResult {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["success"] = true
	data, err := json.Marshal(payload)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to encode result: %v", err))
	}
	return textResult(string(data))
}

// errorResult converts a failure into the {"success":false,"error":...} envelope.
func errorResult(message string) *mcp.CallToolResult {
	data, err := json.Marshal(map[string]any{
		"success": false,
		"error":   message,
	})
	if err != nil {
		data = []byte(`{"success":false,"error":"internal error"}`)
	}
	return textResult(string(data))
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// Argument helpers. Input shapes are declared in the tool schemas, but hosts
// do not reliably enforce them, so every handler re-validates and returns a
// structured validation error on mismatch.

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	value, ok := raw.(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%s must be a non-empty string", key)
	}
	return value, nil
}

func sliceArg(args map[string]any, key string) ([]any, error) {
	raw, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("%s is required", key)
	}
	values, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array", key)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s must not be empty", key)
	}
	return values, nil
}

func stringSliceArg(args map[string]any, key string) ([]string, error) {
	values, err := sliceArg(args, key)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("%s[%d] must be a non-empty string", key, i)
		}
		out = append(out, s)
	}
	return out, nil
}

func optionalBool(m map[string]any, key string, fallback bool) bool {
	if raw, ok := m[key]; ok {
		if value, ok := raw.(bool); ok {
			return value
		}
	}
	return fallback
}

func optionalString(m map[string]any, key, fallback string) string {
	if raw, ok := m[key]; ok {
		if value, ok := raw.(string); ok && value != "" {
			return value
		}
	}
	return fallback
}
