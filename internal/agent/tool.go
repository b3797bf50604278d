package agent

import (
	"context"
	"errors"

	"medminer/internal/models"
	"medminer/internal/tool"
)

var errMissingRequest = errors.New(`argument "request" is required`)

// agentTool exposes an agent as a callable tool, so a managing agent can
// delegate a request to it and receive its final answer.
type agentTool struct {
	agent *Agent
}

// AsTool wraps the agent for use in another agent's tool set.
func AsTool(a *Agent) tool.Tool {
	return &agentTool{agent: a}
}

func (t *agentTool) Name() string        { return t.agent.name }
func (t *agentTool) Description() string { return t.agent.description }

func (t *agentTool) InputSchema() models.ToolSchema {
	return models.ToolSchema{
		Properties: map[string]any{
			"request": map[string]any{
				"type":        "string",
				"description": "The full request to hand to this agent, including any document text it needs.",
			},
		},
		Required: []string{"request"},
	}
}

func (t *agentTool) Call(ctx context.Context, args map[string]any) (string, error) {
	request, ok := args["request"].(string)
	if !ok || request == "" {
		return "", errMissingRequest
	}
	return t.agent.Run(ctx, request)
}
