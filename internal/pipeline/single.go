package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"medminer/internal/llm"
	"medminer/internal/models"
	"medminer/internal/task"
	"medminer/internal/tool"
	"medminer/pkg/logger"
)

// SingleAgentPipeline runs every task's own agent over every document, one
// task at a time. Result tables are keyed by task name.
type SingleAgentPipeline struct {
	tasks    []*task.Task
	settings tool.Settings
	log      *logger.Logger
}

// NewSingleAgent instantiates the given task definitions for one run.
func NewSingleAgent(defs []*task.Definition, model llm.LLM, settings tool.Settings) (*SingleAgentPipeline, error) {
	tasks, resolved, err := prepare(defs, model, settings)
	if err != nil {
		return nil, err
	}
	return &SingleAgentPipeline{
		tasks:    tasks,
		settings: resolved,
		log:      logger.New("pipeline.single"),
	}, nil
}

func (p *SingleAgentPipeline) Run(ctx context.Context, docs []models.Document) (map[string]*Table, error) {
	for _, t := range p.tasks {
		for _, doc := range docs {
			p.log.WithField("task", t.Name()).WithField("patient", doc.PatientID).Info("processing document")
			if _, err := t.Run(ctx, doc.Content()); err != nil {
				return nil, fmt.Errorf("task %s, patient %s: %w", t.Name(), doc.PatientID, err)
			}
		}
	}
	return p.collect()
}

// collect reads each task's table from the session directory. Tasks that
// saved nothing have no file and are skipped.
func (p *SingleAgentPipeline) collect() (map[string]*Table, error) {
	dir, err := sessionDir(p.settings)
	if err != nil {
		return nil, err
	}

	results := make(map[string]*Table)
	for _, t := range p.tasks {
		path := filepath.Join(dir, t.Name()+".csv")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		table, err := ReadCSVTable(path)
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", t.Name(), err)
		}
		results[t.Name()] = table
	}
	return results, nil
}
