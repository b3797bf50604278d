package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"medminer/internal/models"
)

// EchoTool accepts a batch of extracted records and returns them unchanged.
// Its purpose is to force the model to commit intermediate extractions into
// the conversation before normalization and saving.
type EchoTool struct {
	name        string
	description string
	itemHint    string
}

// NewEchoTool builds a staging tool with the given name. itemHint describes
// the expected shape of one record in the input schema.
func NewEchoTool(name, description, itemHint string) *EchoTool {
	return &EchoTool{name: name, description: description, itemHint: itemHint}
}

func (t *EchoTool) Name() string        { return t.name }
func (t *EchoTool) Description() string { return t.description }

func (t *EchoTool) InputSchema() models.ToolSchema {
	return models.ToolSchema{
		Properties: map[string]any{
			"data": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "object"},
				"description": t.itemHint,
			},
		},
		Required: []string{"data"},
	}
}

func (t *EchoTool) Call(ctx context.Context, args map[string]any) (string, error) {
	raw, ok := args["data"]
	if !ok {
		return "", fmt.Errorf("argument %q is required", "data")
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("encode records: %w", err)
	}
	return string(encoded), nil
}
