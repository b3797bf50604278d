package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"medminer/internal/agent"
	"medminer/internal/llm"
	"medminer/internal/models"
	"medminer/internal/task"
	"medminer/internal/tool"
	"medminer/pkg/logger"
)

// MultiAgentPipeline hands every document to one manager agent that
// delegates to the task agents. Result tables are keyed by file stem.
type MultiAgentPipeline struct {
	tasks    []*task.Task
	manager  *agent.Agent
	settings tool.Settings
	log      *logger.Logger
}

// NewMultiAgent instantiates the task definitions and builds the manager
// agent with every task agent in its tool set.
func NewMultiAgent(defs []*task.Definition, model llm.LLM, settings tool.Settings) (*MultiAgentPipeline, error) {
	tasks, resolved, err := prepare(defs, model, settings)
	if err != nil {
		return nil, err
	}

	var delegates []tool.Tool
	for _, t := range tasks {
		delegates = append(delegates, agent.AsTool(t.Agent()))
	}
	manager := agent.New(agent.Config{
		Name:        "manager",
		Description: "Coordinates the extraction tasks for one document.",
		Model:       model,
		Tools:       delegates,
	})

	return &MultiAgentPipeline{
		tasks:    tasks,
		manager:  manager,
		settings: resolved,
		log:      logger.New("pipeline.multi"),
	}, nil
}

func (p *MultiAgentPipeline) Run(ctx context.Context, docs []models.Document) (map[string]*Table, error) {
	for _, doc := range docs {
		p.log.WithField("patient", doc.PatientID).Info("processing document")
		if _, err := p.manager.Run(ctx, p.buildPrompt(doc.Content())); err != nil {
			return nil, fmt.Errorf("patient %s: %w", doc.PatientID, err)
		}
	}
	return p.collect()
}

// buildPrompt assembles the umbrella prompt: delegation instructions, each
// task's name and prompt, and the document.
func (p *MultiAgentPipeline) buildPrompt(data string) string {
	names := make([]string, 0, len(p.tasks))
	for _, t := range p.tasks {
		names = append(names, t.Name())
	}

	header := fmt.Sprintf(`You are a medical data extraction agent.
You will receive a list of tasks to perform on the data.
Each task has a name, prompt and a corresponding managed agent.
Use every the corresponding agent to perform the task.
Call the agent with the prompt (enclosed by `+"```"+`) and the data.
Provide the information as one text to the agent.
The agent won't report the result, but will save it to a file.

Example input:
    Task name: Medication
    Prompt:
    `+"```"+`
    Instructions ...
    Examples ...
    Column definitions...
    `+"```"+`

    ---
    Data: ...
Example Agent instructions:
    Instructions ...
    Examples ...
    Column definitions...
    ---

    Data: ...

Tasks to perform: %s
`, strings.Join(names, ", "))

	separator := strings.Repeat("-", 80)
	var blocks []string
	for _, t := range p.tasks {
		blocks = append(blocks, fmt.Sprintf("Task name: %s\nPrompt: \n```\n%s\n```\n\n", t.Name(), t.Prompt()))
	}
	taskPrompt := strings.Join(blocks, "\n\n"+separator)

	return fmt.Sprintf("%s%s\n\n%s%s\n\nData: \n%s", header, separator, taskPrompt, separator, data)
}

// collect reads every table in the session directory, keyed by file stem.
func (p *MultiAgentPipeline) collect() (map[string]*Table, error) {
	dir, err := sessionDir(p.settings)
	if err != nil {
		return nil, err
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list result tables: %w", err)
	}

	results := make(map[string]*Table)
	for _, path := range paths {
		table, err := ReadCSVTable(path)
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", path, err)
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		results[stem] = table
	}
	return results, nil
}
