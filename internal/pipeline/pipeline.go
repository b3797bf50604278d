package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"medminer/internal/llm"
	"medminer/internal/models"
	"medminer/internal/task"
	"medminer/internal/tool"
)

// DefaultBaseDir receives the result tables when no base_dir setting is
// provided.
const DefaultBaseDir = "result"

// Pipeline processes a batch of documents and returns the collected result
// tables.
type Pipeline interface {
	Run(ctx context.Context, docs []models.Document) (map[string]*Table, error)
}

// prepare fills the run-scoped defaults and instantiates every task
// definition. Instantiation resolves all tool settings, so configuration
// errors surface here, before any document is processed.
func prepare(defs []*task.Definition, model llm.LLM, settings tool.Settings) ([]*task.Task, tool.Settings, error) {
	resolved := make(tool.Settings, len(settings)+2)
	for k, v := range settings {
		resolved[k] = v
	}
	if _, ok := resolved["session_id"]; !ok {
		resolved["session_id"] = task.NewSessionID()
	}
	if _, ok := resolved["base_dir"]; !ok {
		resolved["base_dir"] = DefaultBaseDir
	}

	tasks := make([]*task.Task, 0, len(defs))
	for _, def := range defs {
		instance, err := def.New(model, resolved)
		if err != nil {
			return nil, nil, err
		}
		tasks = append(tasks, instance)
	}
	return tasks, resolved, nil
}

// sessionDir is the directory holding this run's result tables.
func sessionDir(settings tool.Settings) (string, error) {
	baseDir, ok := settings["base_dir"].(string)
	if !ok {
		return "", fmt.Errorf("setting %q is not a string", "base_dir")
	}
	sessionID, ok := settings["session_id"].(string)
	if !ok {
		return "", fmt.Errorf("setting %q is not a string", "session_id")
	}
	return filepath.Join(baseDir, sessionID), nil
}
