package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"medminer/internal/config"
	"medminer/internal/llm"
	"medminer/internal/models"
	"medminer/internal/task"
	pkghttp "medminer/pkg/http"
	"medminer/pkg/ratelimiter"
)

// savingModel instructs its agent to save one diagnosis row, then finishes.
type savingModel struct {
	steps int
}

func (m *savingModel) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	m.steps++
	if m.steps == 1 {
		return &models.GenerateContentResponse{Content: []models.Content{{
			Role: models.SpeakerModel,
			Parts: []*models.Part{{FunctionCall: &models.FunctionCall{
				Name: "save_csv",
				Args: map[string]any{"data": []any{
					map[string]any{"patient_id": "note", "diagnosis": "chronic heart failure"},
				}},
			}}},
		}}}, nil
	}
	return &models.GenerateContentResponse{Content: []models.Content{{
		Role:  models.SpeakerModel,
		Parts: []*models.Part{{Text: "done"}},
	}}}, nil
}

func testRouter(t *testing.T, factory ModelFactory) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{}
	cfg.ApplyDefaults()
	cfg.Vocab.SNOMED.BaseURL = "https://snowstorm.test"
	cfg.Vocab.SNOMED.Edition = "MAIN"
	cfg.Vocab.ICD.ClientID = "id"
	cfg.Vocab.ICD.ClientSecret = "secret"

	hc, err := pkghttp.NewClient(cfg.Middleware.CircuitBreaker)
	if err != nil {
		t.Fatal(err)
	}
	rl := ratelimiter.NewTokenBucket(100, 100)
	registry := task.DefaultRegistry(cfg, hc, rl)

	return SetupRouter(NewAPI(cfg, registry, factory))
}

func staticFactory(model llm.LLM) ModelFactory {
	return func(ctx context.Context, cfg config.LLMConfig) (llm.LLM, error) {
		return model, nil
	}
}

func processRequest(t *testing.T, fields map[string]string, fileName, fileContent string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatal(err)
		}
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("files", fileName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(part, fileContent); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestListTasks(t *testing.T) {
	router := testRouter(t, staticFactory(&savingModel{}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var payload struct {
		Tasks []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"tasks"`
		Settings []struct {
			ID string `json:"id"`
			UI struct {
				Dependent []string `json:"dependent"`
			} `json:"ui"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(payload.Tasks) != 5 {
		t.Errorf("got %d tasks, want 5", len(payload.Tasks))
	}
	if payload.Tasks[0].ID != "medication" {
		t.Errorf("first task = %q", payload.Tasks[0].ID)
	}

	var ids []string
	for _, setting := range payload.Settings {
		ids = append(ids, setting.ID)
	}
	for _, want := range []string{"icd_client_id", "snomed_base_url", "boolean_query"} {
		found := false
		for _, id := range ids {
			if id == want {
				found = true
			}
		}
		if !found {
			t.Errorf("settings %v missing %q", ids, want)
		}
	}
}

func TestProcessRunsTasksAndReturnsTables(t *testing.T) {
	router := testRouter(t, staticFactory(&savingModel{}))

	fields := map[string]string{
		"tasks":    "diagnose",
		"agent":    "single",
		"settings": `{"base_dir": "` + t.TempDir() + `"}`,
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, processRequest(t, fields, "note.txt", "severe chronic heart failure"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var payload struct {
		SessionID string `json:"session_id"`
		Results   map[string]struct {
			Columns []string   `json:"columns"`
			Rows    [][]string `json:"rows"`
		} `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if payload.SessionID == "" {
		t.Error("session id missing")
	}
	table, ok := payload.Results["diagnose"]
	if !ok {
		t.Fatalf("results = %v, want a diagnose table", payload.Results)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(table.Rows))
	}
}

func TestProcessRejectsMissingTasks(t *testing.T) {
	router := testRouter(t, staticFactory(&savingModel{}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, processRequest(t, map[string]string{}, "note.txt", "text"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestProcessRejectsUnknownTask(t *testing.T) {
	router := testRouter(t, staticFactory(&savingModel{}))

	fields := map[string]string{"tasks": "nonexistent"}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, processRequest(t, fields, "note.txt", "text"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestProcessRejectsEmptyDocumentSet(t *testing.T) {
	router := testRouter(t, staticFactory(&savingModel{}))

	fields := map[string]string{"tasks": "diagnose"}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, processRequest(t, fields, "", ""))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestProcessAcceptsInlineText(t *testing.T) {
	router := testRouter(t, staticFactory(&savingModel{}))

	fields := map[string]string{
		"tasks":    "diagnose",
		"text":     "severe chronic heart failure",
		"settings": `{"base_dir": "` + t.TempDir() + `"}`,
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, processRequest(t, fields, "", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}
