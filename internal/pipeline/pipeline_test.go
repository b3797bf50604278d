package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medminer/internal/config"
	"medminer/internal/models"
	"medminer/internal/task"
	"medminer/internal/tool"
)

// routingModel answers according to the tool set it is offered: a manager
// request delegates to the medication agent once, a worker request saves an
// extraction batch once, then both finish with plain text.
type routingModel struct {
	managerSteps   int
	workerSteps    int
	managerPrompts []string
	err            error
}

func (m *routingModel) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}

	switch {
	case hasTool(req, "medication"):
		m.managerSteps++
		m.managerPrompts = append(m.managerPrompts, req.Content[0].Parts[0].Text)
		if m.managerSteps == 1 {
			return callResponse("medication", map[string]any{"request": "extract the medications"}), nil
		}
		return textResponse("all tasks done"), nil

	case hasTool(req, "save_csv"):
		m.workerSteps++
		if m.workerSteps == 1 {
			return callResponse("save_csv", map[string]any{"data": []any{
				map[string]any{
					"patient_id":      "1",
					"medication_name": "Aspirin",
					"dose":            float64(100),
					"unit":            "mg",
					"dosage_morning":  float64(1),
					"dosage_noon":     float64(0),
					"dosage_evening":  float64(1),
					"dosage_night":    float64(0),
				},
			}}), nil
		}
		return textResponse("saved"), nil

	default:
		return textResponse("nothing to do"), nil
	}
}

func hasTool(req *models.GenerateContentRequest, name string) bool {
	for _, t := range req.Tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

func textResponse(text string) *models.GenerateContentResponse {
	return &models.GenerateContentResponse{Content: []models.Content{{
		Role:  models.SpeakerModel,
		Parts: []*models.Part{{Text: text}},
	}}}
}

func callResponse(name string, args map[string]any) *models.GenerateContentResponse {
	return &models.GenerateContentResponse{Content: []models.Content{{
		Role:  models.SpeakerModel,
		Parts: []*models.Part{{FunctionCall: &models.FunctionCall{Name: name, Args: args}}},
	}}}
}

func aspirinDocs() []models.Document {
	return []models.Document{{PatientID: "1", Text: "Aspirin 100mg 1-0-1-0"}}
}

func TestSingleAgentPipelineExtractsAndCollectsByTaskName(t *testing.T) {
	defs := []*task.Definition{task.MedicationTask(nil), task.DiagnoseTask()}
	model := &routingModel{}

	p, err := NewSingleAgent(defs, model, tool.Settings{"base_dir": t.TempDir()})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	results, err := p.Run(context.Background(), aspirinDocs())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	table, ok := results["medication"]
	if !ok {
		t.Fatalf("results = %v, want a medication table", results)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(table.Rows))
	}
	if got := table.Cell(0, "medication_name"); got != "Aspirin" {
		t.Errorf("medication_name = %q", got)
	}
	if got := table.Cell(0, "dose"); got != "100" {
		t.Errorf("dose = %q", got)
	}
	if got := table.Cell(0, "unit"); got != "mg" {
		t.Errorf("unit = %q", got)
	}
	if got := table.Cell(0, "dosage_morning"); got != "1" {
		t.Errorf("dosage_morning = %q", got)
	}
	if got := table.Cell(0, "dosage_noon"); got != "0" {
		t.Errorf("dosage_noon = %q", got)
	}

	// The diagnose task saved nothing, so it contributes no table.
	if _, ok := results["diagnose"]; ok {
		t.Error("diagnose table present despite no saved rows")
	}
}

func TestSingleAgentPipelineAbortsOnTaskFailure(t *testing.T) {
	defs := []*task.Definition{task.MedicationTask(nil)}
	model := &routingModel{err: errors.New("model unavailable")}

	p, err := NewSingleAgent(defs, model, tool.Settings{"base_dir": t.TempDir()})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	if _, err := p.Run(context.Background(), aspirinDocs()); err == nil {
		t.Fatal("expected the pipeline to abort on a task failure")
	}
}

func TestMultiAgentPipelineDelegatesAndCollectsByFileStem(t *testing.T) {
	baseDir := t.TempDir()
	defs := []*task.Definition{task.MedicationTask(nil)}
	model := &routingModel{}

	p, err := NewMultiAgent(defs, model, tool.Settings{
		"base_dir":   baseDir,
		"session_id": "session1",
	})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	// A table another writer dropped into the session directory is picked
	// up too: collection is by file stem, not by task name.
	stray := filepath.Join(baseDir, "session1", "extra.csv")
	if err := os.MkdirAll(filepath.Dir(stray), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stray, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	results, err := p.Run(context.Background(), aspirinDocs())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if _, ok := results["medication"]; !ok {
		t.Errorf("results = %v, want a medication table", results)
	}
	if _, ok := results["extra"]; !ok {
		t.Errorf("results = %v, want the stray table keyed by stem", results)
	}

	if len(model.managerPrompts) == 0 {
		t.Fatal("manager agent never ran")
	}
	umbrella := model.managerPrompts[0]
	if !strings.Contains(umbrella, "Tasks to perform: medication") {
		t.Error("umbrella prompt does not list the tasks")
	}
	if !strings.Contains(umbrella, "Task name: medication") {
		t.Error("umbrella prompt does not include the task block")
	}
	if !strings.Contains(umbrella, "Aspirin 100mg 1-0-1-0") {
		t.Error("umbrella prompt does not include the document")
	}
}

func TestPipelineFailsFastOnMissingToolSetting(t *testing.T) {
	defs := []*task.Definition{task.HistoryTask(config.ICDConfig{}, nil)}
	model := &routingModel{}

	_, err := NewSingleAgent(defs, model, tool.Settings{"base_dir": t.TempDir()})
	var cfgErr *tool.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *tool.ConfigError for the missing ICD credentials", err)
	}
}

func TestReadCSVTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	content := "patient_id,diagnosis\n1,chronic heart failure\n2,colon cancer\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := ReadCSVTable(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(table.Columns) != 2 || table.Columns[0] != "patient_id" {
		t.Errorf("columns = %v", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}
	if got := table.Cell(1, "diagnosis"); got != "colon cancer" {
		t.Errorf("cell = %q", got)
	}
	if got := table.Cell(0, "missing"); got != "" {
		t.Errorf("missing column cell = %q, want empty", got)
	}
}
