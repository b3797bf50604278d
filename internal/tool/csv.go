package tool

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"medminer/internal/models"
	"medminer/pkg/logger"
)

// csvSettings are the values the orchestrator injects for every task run.
var csvSettings = []Setting{
	{ID: "task_name", Label: "Task name", Type: TypeString},
	{ID: "session_id", Label: "Session id", Type: TypeString},
	{ID: "base_dir", Label: "Result directory", Type: TypePath},
}

// CSVTool appends extraction batches to one CSV table per task and session.
// The header is fixed by the first non-empty batch; later batches only
// contribute rows.
type CSVTool struct {
	taskName  string
	sessionID string
	baseDir   string
	log       *logger.Logger
}

// CSV returns the descriptor binding the result sink into a task.
func CSV() Descriptor {
	return Configurable(csvSettings, func(values map[string]string) (Tool, error) {
		return &CSVTool{
			taskName:  values["task_name"],
			sessionID: values["session_id"],
			baseDir:   values["base_dir"],
			log:       logger.New("tool.csv"),
		}, nil
	})
}

func (t *CSVTool) Name() string { return "save_csv" }

func (t *CSVTool) Description() string {
	return "Saves a batch of extracted records to the result table of the current task. " +
		"Each record is an object whose keys become the table columns."
}

func (t *CSVTool) InputSchema() models.ToolSchema {
	return models.ToolSchema{
		Properties: map[string]any{
			"data": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "object"},
				"description": "Records to append. All records of one run should share the same keys.",
			},
		},
		Required: []string{"data"},
	}
}

// Path returns the table file this sink writes to.
func (t *CSVTool) Path() string {
	return filepath.Join(t.baseDir, t.sessionID, t.taskName+".csv")
}

func (t *CSVTool) Call(ctx context.Context, args map[string]any) (string, error) {
	rows, err := recordsArg(args, "data")
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "No data to save.", nil
	}

	fields := fieldNames(rows)
	path := t.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create result directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open result table: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat result table: %w", err)
	}

	writer := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := writer.Write(fields); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
	}
	for _, row := range rows {
		record := make([]string, len(fields))
		for i, field := range fields {
			record[i] = formatCell(row[field])
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush result table: %w", err)
	}

	t.log.WithField("rows", len(rows)).WithField("path", path).Info("saved batch")
	return fmt.Sprintf("Saved %d records to %s.", len(rows), path), nil
}

func recordsArg(args map[string]any, key string) ([]map[string]any, error) {
	raw, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("argument %q is required", key)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an array of objects, got %T", key, raw)
	}
	rows := make([]map[string]any, 0, len(items))
	for i, item := range items {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("argument %q[%d] must be an object, got %T", key, i, item)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// fieldNames collects the sorted key union of the batch. Sorting keeps the
// header stable across runs regardless of map iteration order.
func fieldNames(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	var fields []string
	for _, row := range rows {
		for key := range row {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			fields = append(fields, key)
		}
	}
	sort.Strings(fields)
	return fields
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
