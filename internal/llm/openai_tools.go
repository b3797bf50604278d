package llm

import (
	openai "github.com/meguminnnnnnnnn/go-openai"

	"medminer/internal/models"
)

// toOpenAITools converts the neutral tool declarations to the Tool list the
// OpenAI SDK expects.
func toOpenAITools(tools []*models.FunctionDeclaration) []openai.Tool {
	var openAITools []openai.Tool
	for _, tool := range tools {
		openAITools = append(openAITools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  toOpenAISchema(tool.InputSchema),
			},
		})
	}
	return openAITools
}

func toOpenAISchema(schema models.ToolSchema) map[string]any {
	if len(schema.Properties) == 0 {
		return nil
	}
	return map[string]any{
		"type":       "object",
		"properties": schema.Properties,
		"required":   schema.Required,
	}
}
