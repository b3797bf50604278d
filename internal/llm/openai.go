package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"medminer/internal/config"
	"medminer/internal/models"
)

// OpenAI talks to an OpenAI-compatible chat completion API, in particular
// Azure OpenAI deployments.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewAzureOpenAI creates a client for an Azure OpenAI deployment.
func NewAzureOpenAI(cfg config.AzureOpenAIConfig) (*OpenAI, error) {
	clientCfg := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	if cfg.APIVersion != "" {
		clientCfg.APIVersion = cfg.APIVersion
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

func (o *OpenAI) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	openaiReq, err := o.toOpenAIRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := o.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return nil, fmt.Errorf("create chat completion: %w", err)
	}
	return o.toGenerateContentResponse(&resp)
}

func (o *OpenAI) toOpenAIRequest(req *models.GenerateContentRequest) (openai.ChatCompletionRequest, error) {
	var messages []openai.ChatCompletionMessage
	if req.SystemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}

	for _, content := range req.Content {
		converted, err := toOpenAIMessages(content)
		if err != nil {
			return openai.ChatCompletionRequest{}, err
		}
		messages = append(messages, converted...)
	}

	out := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	}
	if len(req.Tools) > 0 {
		out.Tools = toOpenAITools(req.Tools)
	}
	return out, nil
}

// toOpenAIMessages maps one conversation turn to chat messages. A model turn
// becomes a single assistant message carrying its text and tool calls; each
// tool result becomes its own tool-role message keyed by the call id.
func toOpenAIMessages(content models.Content) ([]openai.ChatCompletionMessage, error) {
	switch content.Role {
	case models.SpeakerTool:
		var messages []openai.ChatCompletionMessage
		for _, part := range content.Parts {
			if part.FunctionResponse == nil {
				continue
			}
			body, err := json.Marshal(part.FunctionResponse.Response)
			if err != nil {
				return nil, fmt.Errorf("encode tool response for %s: %w", part.FunctionResponse.Name, err)
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    string(body),
				ToolCallID: part.FunctionResponse.ID,
			})
		}
		return messages, nil

	case models.SpeakerModel:
		message := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant}
		for _, part := range content.Parts {
			if part.Text != "" {
				message.Content += part.Text
			}
			if part.FunctionCall != nil {
				args, err := json.Marshal(part.FunctionCall.Args)
				if err != nil {
					return nil, fmt.Errorf("encode tool call args for %s: %w", part.FunctionCall.Name, err)
				}
				message.ToolCalls = append(message.ToolCalls, openai.ToolCall{
					ID:   part.FunctionCall.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      part.FunctionCall.Name,
						Arguments: string(args),
					},
				})
			}
		}
		return []openai.ChatCompletionMessage{message}, nil

	default:
		var text string
		for _, part := range content.Parts {
			text += part.Text
		}
		return []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: text,
		}}, nil
	}
}

func (o *OpenAI) toGenerateContentResponse(resp *openai.ChatCompletionResponse) (*models.GenerateContentResponse, error) {
	var content []models.Content
	for _, choice := range resp.Choices {
		turn := models.Content{Role: models.SpeakerModel}
		if choice.Message.Content != "" {
			turn.Parts = append(turn.Parts, &models.Part{Text: choice.Message.Content})
		}
		for _, call := range choice.Message.ToolCalls {
			args := make(map[string]any)
			if call.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
					return nil, fmt.Errorf("decode tool call args for %s: %w", call.Function.Name, err)
				}
			}
			turn.Parts = append(turn.Parts, &models.Part{
				FunctionCall: &models.FunctionCall{
					ID:   call.ID,
					Name: call.Function.Name,
					Args: args,
				},
			})
		}
		content = append(content, turn)
	}

	return &models.GenerateContentResponse{
		Content:      content,
		ResponseID:   resp.ID,
		ModelVersion: resp.Model,
	}, nil
}
