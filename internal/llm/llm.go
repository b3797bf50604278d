package llm

import (
	"context"
	"fmt"

	"medminer/internal/config"
	"medminer/internal/models"
)

// LLM is the common interface every model client implements. Tools travel
// inside the request, so one client can serve tasks with different tool sets.
type LLM interface {
	GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error)
}

// NewClient builds the model client selected by the configuration.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an api key")
		}
		return NewGemini(ctx, cfg.Gemini.Model, cfg.Gemini.APIKey)
	case "azure":
		if cfg.Azure.APIKey == "" || cfg.Azure.Endpoint == "" {
			return nil, fmt.Errorf("azure provider requires an api key and endpoint")
		}
		return NewAzureOpenAI(cfg.Azure)
	case "ollama":
		return NewOllama(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
