package agent

import (
	"context"
	"fmt"

	"medminer/internal/llm"
	"medminer/internal/models"
	"medminer/internal/tool"
	"medminer/pkg/logger"
)

// DefaultMaxSteps bounds the tool-calling loop when no limit is configured.
const DefaultMaxSteps = 10

// Config describes one agent: the model it talks to, the tools it may call
// and the instruction steering it.
type Config struct {
	Name         string
	Description  string
	SystemPrompt string
	Model        llm.LLM
	Tools        []tool.Tool
	MaxSteps     int
}

// Agent drives a model through a tool-calling loop: it sends the
// conversation, executes the tool calls the model asks for, feeds the
// results back and repeats until the model answers in plain text.
type Agent struct {
	name         string
	description  string
	systemPrompt string
	model        llm.LLM
	tools        map[string]tool.Tool
	declarations []*models.FunctionDeclaration
	maxSteps     int
	log          *logger.Logger
}

// New creates an agent from its configuration.
func New(cfg Config) *Agent {
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	tools := make(map[string]tool.Tool, len(cfg.Tools))
	var declarations []*models.FunctionDeclaration
	for _, t := range cfg.Tools {
		tools[t.Name()] = t
		declarations = append(declarations, &models.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}

	return &Agent{
		name:         cfg.Name,
		description:  cfg.Description,
		systemPrompt: cfg.SystemPrompt,
		model:        cfg.Model,
		tools:        tools,
		declarations: declarations,
		maxSteps:     maxSteps,
		log:          logger.New("agent." + cfg.Name),
	}
}

// Name returns the agent's identifier.
func (a *Agent) Name() string { return a.name }

// Run executes the loop for one prompt and returns the model's final plain
// text answer.
func (a *Agent) Run(ctx context.Context, prompt string) (string, error) {
	history := []models.Content{{
		Role:  models.SpeakerUser,
		Parts: []*models.Part{{Text: prompt}},
	}}

	for step := 0; step < a.maxSteps; step++ {
		resp, err := a.model.GenerateContent(ctx, &models.GenerateContentRequest{
			SystemInstruction: a.systemPrompt,
			Content:           history,
			Tools:             a.declarations,
		})
		if err != nil {
			return "", fmt.Errorf("agent %s step %d: %w", a.name, step+1, err)
		}
		if resp == nil || len(resp.Content) == 0 {
			return "", fmt.Errorf("agent %s step %d: model returned no content", a.name, step+1)
		}

		turn := resp.Content[0]
		history = append(history, turn)

		calls := turnCalls(turn)
		if len(calls) == 0 {
			return turnText(turn), nil
		}

		toolTurn := models.Content{Role: models.SpeakerTool}
		for _, call := range calls {
			toolTurn.Parts = append(toolTurn.Parts, a.execute(ctx, call))
		}
		history = append(history, toolTurn)
	}

	return "", fmt.Errorf("agent %s gave no final answer within %d steps", a.name, a.maxSteps)
}

// execute runs one tool call. Tool failures are returned to the model as an
// error payload rather than aborting the run, so it can correct its input.
func (a *Agent) execute(ctx context.Context, call *models.FunctionCall) *models.Part {
	response := &models.FunctionResponse{ID: call.ID, Name: call.Name}

	t, ok := a.tools[call.Name]
	if !ok {
		a.log.WithField("tool", call.Name).Warn("model called an unknown tool")
		response.Response = map[string]any{"error": fmt.Sprintf("unknown tool: %s", call.Name)}
		return &models.Part{FunctionResponse: response}
	}

	a.log.WithField("tool", call.Name).Debug("executing tool call")
	out, err := t.Call(ctx, call.Args)
	if err != nil {
		a.log.WithField("tool", call.Name).WithError(err).Warn("tool call failed")
		response.Response = map[string]any{"error": err.Error()}
		return &models.Part{FunctionResponse: response}
	}

	response.Response = map[string]any{"output": out}
	return &models.Part{FunctionResponse: response}
}

func turnCalls(turn models.Content) []*models.FunctionCall {
	var calls []*models.FunctionCall
	for _, part := range turn.Parts {
		if part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}

func turnText(turn models.Content) string {
	var out string
	for _, part := range turn.Parts {
		out += part.Text
	}
	return out
}
