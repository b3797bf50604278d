package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"medminer/internal/models"
)

// Gemini talks to the Gemini API. Each request carries the full conversation
// and its own tool set, so a fresh chat session is started per call.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a new Gemini client.
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Close releases the underlying API connection.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	if len(req.Content) == 0 {
		return nil, fmt.Errorf("request has no content")
	}

	model := g.client.GenerativeModel(g.model)
	if req.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemInstruction)},
		}
	}
	if len(req.Tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: toGenaiDeclarations(req.Tools)}}
	}

	session := model.StartChat()
	history := req.Content[:len(req.Content)-1]
	last := req.Content[len(req.Content)-1]
	for _, content := range history {
		session.History = append(session.History, toGenaiContent(content))
	}

	resp, err := session.SendMessage(ctx, toGenaiParts(last)...)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	return fromGenaiResponse(resp), nil
}

func toGenaiContent(content models.Content) *genai.Content {
	return &genai.Content{
		Parts: toGenaiParts(content),
		Role:  string(content.Role),
	}
}

func toGenaiParts(content models.Content) []genai.Part {
	var parts []genai.Part
	for _, p := range content.Parts {
		switch {
		case p.FunctionCall != nil:
			parts = append(parts, genai.FunctionCall{
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			})
		case p.FunctionResponse != nil:
			parts = append(parts, genai.FunctionResponse{
				Name:     p.FunctionResponse.Name,
				Response: p.FunctionResponse.Response,
			})
		case p.Text != "":
			parts = append(parts, genai.Text(p.Text))
		}
	}
	return parts
}

func fromGenaiResponse(resp *genai.GenerateContentResponse) *models.GenerateContentResponse {
	if resp == nil {
		return nil
	}
	var content []models.Content
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			content = append(content, fromGenaiContent(cand.Content))
		}
	}
	return &models.GenerateContentResponse{Content: content}
}

func fromGenaiContent(content *genai.Content) models.Content {
	var parts []*models.Part
	for _, p := range content.Parts {
		parts = append(parts, fromGenaiPart(p))
	}
	return models.Content{
		Parts: parts,
		Role:  models.SpeakerRole(content.Role),
	}
}

func fromGenaiPart(part genai.Part) *models.Part {
	switch v := part.(type) {
	case genai.Text:
		return &models.Part{Text: string(v)}
	case genai.FunctionCall:
		return &models.Part{
			FunctionCall: &models.FunctionCall{
				Name: v.Name,
				Args: v.Args,
			},
		}
	case genai.FunctionResponse:
		return &models.Part{
			FunctionResponse: &models.FunctionResponse{
				Name:     v.Name,
				Response: v.Response,
			},
		}
	default:
		return &models.Part{Text: fmt.Sprintf("%v", v)}
	}
}
