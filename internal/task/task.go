package task

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"medminer/internal/agent"
	"medminer/internal/llm"
	"medminer/internal/tool"
)

// internalSettings are injected by the orchestrator at instantiation and
// never surfaced to callers.
var internalSettings = map[string]struct{}{
	"task_name":  {},
	"session_id": {},
	"base_dir":   {},
}

// PromptBuilder renders the full prompt handed to the task agent for one
// document.
type PromptBuilder func(def *Definition, settings tool.Settings, data string) string

// Definition describes one extraction task: its instructions, the tools its
// agent may call and any extra settings it requires beyond the tools'.
type Definition struct {
	Name        string
	VerboseName string
	Prompt      string
	Tools       []tool.Descriptor
	MaxSteps    int

	// ExtraSettings are task-level settings not tied to a tool, such as
	// the filter query of the boolean task.
	ExtraSettings []tool.Setting

	// BuildPrompt overrides the default prompt layout when set.
	BuildPrompt PromptBuilder
}

// Settings returns the configurable settings of this task: the de-duplicated
// union of its tools' declared settings, minus the internal keys, plus the
// task-level extras.
func (d *Definition) Settings() []tool.Setting {
	seen := make(map[string]struct{})
	var out []tool.Setting
	for _, descriptor := range d.Tools {
		for _, setting := range descriptor.Settings() {
			if _, ok := seen[setting.ID]; ok {
				continue
			}
			if _, ok := internalSettings[setting.ID]; ok {
				continue
			}
			seen[setting.ID] = struct{}{}
			out = append(out, setting)
		}
	}
	for _, setting := range d.ExtraSettings {
		if _, ok := seen[setting.ID]; ok {
			continue
		}
		seen[setting.ID] = struct{}{}
		out = append(out, setting)
	}
	return out
}

// Description is the capability blurb used when the task's agent is exposed
// to a managing agent.
func (d *Definition) Description() string {
	return fmt.Sprintf("Extracts and saves the %s for the given data.", strings.ToLower(d.VerboseName))
}

// Task is a definition bound to a model and a concrete settings mapping,
// ready to process documents.
type Task struct {
	def      *Definition
	settings tool.Settings
	agent    *agent.Agent
}

// New instantiates the definition. The orchestrator keys task_name and fills
// session_id and base_dir when absent; every tool is constructed here, so a
// missing or mistyped setting fails before any model call.
func (d *Definition) New(model llm.LLM, settings tool.Settings) (*Task, error) {
	resolved := make(tool.Settings, len(settings)+3)
	for k, v := range settings {
		resolved[k] = v
	}
	resolved["task_name"] = d.Name
	if _, ok := resolved["session_id"]; !ok {
		resolved["session_id"] = NewSessionID()
	}
	if _, ok := resolved["base_dir"]; !ok {
		dir, err := os.MkdirTemp("", "medminer-")
		if err != nil {
			return nil, fmt.Errorf("create result directory: %w", err)
		}
		resolved["base_dir"] = dir
	}

	var tools []tool.Tool
	for _, descriptor := range d.Tools {
		t, err := descriptor.Resolve(resolved)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", d.Name, err)
		}
		tools = append(tools, t)
	}

	a := agent.New(agent.Config{
		Name:        d.Name,
		Description: d.Description(),
		Model:       model,
		Tools:       tools,
		MaxSteps:    d.MaxSteps,
	})

	return &Task{def: d, settings: resolved, agent: a}, nil
}

// NewSessionID returns a fresh session identifier: a uuid without dashes.
func NewSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (t *Task) Name() string            { return t.def.Name }
func (t *Task) Prompt() string          { return t.def.Prompt }
func (t *Task) Agent() *agent.Agent     { return t.agent }
func (t *Task) Settings() tool.Settings { return t.settings }

// Run processes one document with the task's agent.
func (t *Task) Run(ctx context.Context, data string) (string, error) {
	prompt := t.buildPrompt(data)
	return t.agent.Run(ctx, prompt)
}

func (t *Task) buildPrompt(data string) string {
	if t.def.BuildPrompt != nil {
		return t.def.BuildPrompt(t.def, t.settings, data)
	}
	return DefaultPrompt(t.def, data)
}

// DefaultPrompt lays out the agent prompt: task name, indented instructions,
// a separator and the indented document.
func DefaultPrompt(def *Definition, data string) string {
	return fmt.Sprintf("Task name: %s\nPrompt: \n%s\n%s\nData: \n%s\n",
		def.Name, Indent(def.Prompt), strings.Repeat("-", 80), Indent(data))
}

// Indent prefixes every non-empty line with the prompt indentation.
func Indent(text string) string {
	const prefix = "                    "
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
