package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	olla "github.com/ollama/ollama/api"

	"medminer/internal/models"
)

// Ollama talks to a local Ollama server. Local models have no native tool
// calling here, so tools are advertised inside the prompt and calls are
// parsed back out of the generated text.
type Ollama struct {
	client *olla.Client
	model  string
}

// NewOllama creates a new Ollama client. An empty baseURL defaults to the
// standard local server address.
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	hc := &http.Client{Timeout: 120 * time.Second}
	return &Ollama{client: olla.NewClient(parsedURL, hc), model: model}, nil
}

func (o *Ollama) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	prompt, err := o.toPrompt(req)
	if err != nil {
		return nil, err
	}

	var result *olla.GenerateResponse
	stream := false
	err = o.client.Generate(ctx, &olla.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
	}, func(resp olla.GenerateResponse) error {
		result = &resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generate content with ollama: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("ollama returned no response")
	}

	return o.toGenerateContentResponse(result), nil
}

// toPrompt flattens the conversation into a single prompt, embedding the
// tool declarations and the call protocol when tools are present.
func (o *Ollama) toPrompt(req *models.GenerateContentRequest) (string, error) {
	var sb strings.Builder

	if req.SystemInstruction != "" {
		sb.WriteString(req.SystemInstruction)
		sb.WriteString("\n\n")
	}
	if len(req.Tools) > 0 {
		section, err := toolProtocolSection(req.Tools)
		if err != nil {
			return "", err
		}
		sb.WriteString(section)
		sb.WriteString("\n\n")
	}

	for _, content := range req.Content {
		for _, part := range content.Parts {
			switch {
			case part.FunctionResponse != nil:
				body, err := json.Marshal(part.FunctionResponse.Response)
				if err != nil {
					return "", fmt.Errorf("encode tool response for %s: %w", part.FunctionResponse.Name, err)
				}
				fmt.Fprintf(&sb, "Tool result (%s): %s\n", part.FunctionResponse.Name, body)
			case part.FunctionCall != nil:
				args, err := json.Marshal(part.FunctionCall.Args)
				if err != nil {
					return "", fmt.Errorf("encode tool call args for %s: %w", part.FunctionCall.Name, err)
				}
				fmt.Fprintf(&sb, "Assistant: <tool_call>{\"name\": %q, \"arguments\": %s}</tool_call>\n", part.FunctionCall.Name, args)
			case part.Text != "":
				switch content.Role {
				case models.SpeakerModel:
					fmt.Fprintf(&sb, "Assistant: %s\n", part.Text)
				default:
					fmt.Fprintf(&sb, "User: %s\n", part.Text)
				}
			}
		}
	}
	sb.WriteString("Assistant:")
	return sb.String(), nil
}

func toolProtocolSection(tools []*models.FunctionDeclaration) (string, error) {
	declarations, err := json.MarshalIndent(tools, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode tool declarations: %w", err)
	}
	var sb strings.Builder
	sb.WriteString("You can call the following tools:\n")
	sb.Write(declarations)
	sb.WriteString("\n\nTo call a tool, respond with exactly:\n")
	sb.WriteString(`<tool_call>{"name": "<tool name>", "arguments": {<arguments matching the inputSchema>}}</tool_call>`)
	sb.WriteString("\nYou may emit several tool_call blocks in one response. " +
		"When you are done, respond with plain text and no tool_call block.")
	return sb.String(), nil
}

var toolCallPattern = regexp.MustCompile(`(?s)<tool_call>\s*(\{.*?\})\s*</tool_call>`)

// parseToolCalls extracts embedded tool calls and returns them with the
// remaining plain text. Malformed blocks are left in the text untouched.
func parseToolCalls(text string) (string, []*models.FunctionCall) {
	var calls []*models.FunctionCall
	remaining := toolCallPattern.ReplaceAllStringFunc(text, func(block string) string {
		groups := toolCallPattern.FindStringSubmatch(block)
		var payload struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		}
		if err := json.Unmarshal([]byte(groups[1]), &payload); err != nil || payload.Name == "" {
			return block
		}
		calls = append(calls, &models.FunctionCall{
			Name: payload.Name,
			Args: payload.Arguments,
		})
		return ""
	})
	return strings.TrimSpace(remaining), calls
}

func (o *Ollama) toGenerateContentResponse(resp *olla.GenerateResponse) *models.GenerateContentResponse {
	text, calls := parseToolCalls(resp.Response)

	var parts []*models.Part
	if text != "" {
		parts = append(parts, &models.Part{Text: text})
	}
	for _, call := range calls {
		parts = append(parts, &models.Part{FunctionCall: call})
	}

	return &models.GenerateContentResponse{
		Content: []models.Content{{
			Parts: parts,
			Role:  models.SpeakerModel,
		}},
		ModelVersion: resp.Model,
	}
}
