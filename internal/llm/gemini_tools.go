package llm

import (
	"github.com/google/generative-ai-go/genai"

	"medminer/internal/models"
)

// toGenaiDeclarations converts the neutral tool declarations to the
// FunctionDeclaration list the Gemini SDK expects.
func toGenaiDeclarations(tools []*models.FunctionDeclaration) []*genai.FunctionDeclaration {
	var declarations []*genai.FunctionDeclaration
	for _, tool := range tools {
		declaration := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if params := toGenaiSchema(tool.InputSchema); params != nil {
			declaration.Parameters = params
		}
		declarations = append(declarations, declaration)
	}
	return declarations
}

func toGenaiSchema(schema models.ToolSchema) *genai.Schema {
	if len(schema.Properties) == 0 {
		return nil
	}
	out := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema),
		Required:   schema.Required,
	}
	for name, fragment := range schema.Properties {
		propMap, ok := fragment.(map[string]any)
		if !ok {
			continue
		}
		out.Properties[name] = toGenaiProperty(propMap)
	}
	return out
}

func toGenaiProperty(fragment map[string]any) *genai.Schema {
	prop := &genai.Schema{}
	if desc, ok := fragment["description"].(string); ok {
		prop.Description = desc
	}
	typ, _ := fragment["type"].(string)
	switch typ {
	case "string":
		prop.Type = genai.TypeString
	case "integer":
		prop.Type = genai.TypeInteger
	case "number":
		prop.Type = genai.TypeNumber
	case "boolean":
		prop.Type = genai.TypeBoolean
	case "array":
		prop.Type = genai.TypeArray
		if items, ok := fragment["items"].(map[string]any); ok {
			prop.Items = toGenaiProperty(items)
		} else {
			prop.Items = &genai.Schema{Type: genai.TypeString}
		}
	case "object":
		prop.Type = genai.TypeObject
	default:
		prop.Type = genai.TypeString
	}
	return prop
}
