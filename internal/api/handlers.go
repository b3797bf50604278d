package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"medminer/internal/config"
	"medminer/internal/document"
	"medminer/internal/llm"
	"medminer/internal/models"
	"medminer/internal/pipeline"
	"medminer/internal/task"
	"medminer/internal/tool"
	"medminer/pkg/logger"
)

// ModelFactory builds the LLM client for one processing run.
type ModelFactory func(ctx context.Context, cfg config.LLMConfig) (llm.LLM, error)

// API serves the task catalog and the document processing endpoint.
type API struct {
	cfg      *config.AppConfig
	registry *task.Registry
	newModel ModelFactory
	log      *logger.Logger
}

// NewAPI creates the handler set. A nil factory uses the configured
// provider.
func NewAPI(cfg *config.AppConfig, registry *task.Registry, newModel ModelFactory) *API {
	if newModel == nil {
		newModel = llm.NewClient
	}
	return &API{
		cfg:      cfg,
		registry: registry,
		newModel: newModel,
		log:      logger.New("api"),
	}
}

type taskInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListTasksHandler returns the registered tasks and their aggregated
// settings schema.
func (a *API) ListTasksHandler(c *gin.Context) {
	var tasks []taskInfo
	for _, def := range a.registry.All() {
		tasks = append(tasks, taskInfo{ID: def.Name, Name: def.VerboseName})
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks":    tasks,
		"settings": a.registry.AllSettings(),
	})
}

// ProcessHandler runs the selected tasks over the uploaded documents and
// returns the collected tables.
func (a *API) ProcessHandler(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	names := splitList(form.Value["tasks"])
	if len(names) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no tasks selected"})
		return
	}
	defs := a.registry.Filter(names)
	if len(defs) != len(names) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown task selected"})
		return
	}

	settings, err := a.buildSettings(form.Value["settings"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	docs, err := a.collectDocuments(c, form, firstValue(form.Value["csv_column"]))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(docs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no documents provided"})
		return
	}

	model, err := a.newModel(c.Request.Context(), a.cfg.LLM)
	if err != nil {
		a.log.WithError(err).Error("model construction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initialize the model"})
		return
	}

	pipe, err := a.buildPipeline(firstValue(form.Value["agent"]), defs, model, settings)
	if err != nil {
		var cfgErr *tool.ConfigError
		if errors.As(err, &cfgErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a.log.WithError(err).Error("pipeline construction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build the pipeline"})
		return
	}

	results, err := pipe.Run(c.Request.Context(), docs)
	if err != nil {
		a.log.WithError(err).Error("processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	if firstValue(form.Value["format"]) == "xlsx" {
		a.sendWorkbook(c, results)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": settings["session_id"],
		"results":    results,
	})
}

// buildSettings decodes the submitted settings and fills service defaults
// from the configuration, so callers only override what differs.
func (a *API) buildSettings(raw []string) (tool.Settings, error) {
	settings := tool.Settings{}
	if len(raw) > 0 && raw[0] != "" {
		if err := json.Unmarshal([]byte(raw[0]), &settings); err != nil {
			return nil, fmt.Errorf("invalid settings payload: %w", err)
		}
	}

	defaults := map[string]string{
		"snomed_base_url":   a.cfg.Vocab.SNOMED.BaseURL,
		"snomed_edition":    a.cfg.Vocab.SNOMED.Edition,
		"icd_client_id":     a.cfg.Vocab.ICD.ClientID,
		"icd_client_secret": a.cfg.Vocab.ICD.ClientSecret,
	}
	for key, value := range defaults {
		if _, ok := settings[key]; !ok && value != "" {
			settings[key] = value
		}
	}
	settings["session_id"] = task.NewSessionID()
	return settings, nil
}

func (a *API) buildPipeline(mode string, defs []*task.Definition, model llm.LLM, settings tool.Settings) (pipeline.Pipeline, error) {
	switch mode {
	case "", "single":
		return pipeline.NewSingleAgent(defs, model, settings)
	case "multi":
		return pipeline.NewMultiAgent(defs, model, settings)
	default:
		return nil, &tool.ConfigError{SettingID: "agent", Reason: fmt.Sprintf("unknown agent mode %q", mode)}
	}
}

// collectDocuments saves the uploads to a scratch directory and loads them.
// Text typed directly into the form becomes one document.
func (a *API) collectDocuments(c *gin.Context, form *multipart.Form, csvColumn string) ([]models.Document, error) {
	var docs []models.Document

	files := form.File["files"]
	if len(files) > 0 {
		dir, err := os.MkdirTemp("", "medminer-upload-")
		if err != nil {
			return nil, fmt.Errorf("create upload directory: %w", err)
		}
		defer os.RemoveAll(dir)

		for _, file := range files {
			path := filepath.Join(dir, filepath.Base(file.Filename))
			if err := c.SaveUploadedFile(file, path); err != nil {
				return nil, fmt.Errorf("save upload %s: %w", file.Filename, err)
			}

			var loaded []models.Document
			if strings.EqualFold(filepath.Ext(path), ".csv") {
				if csvColumn == "" {
					return nil, fmt.Errorf("csv upload %s requires the csv_column field", file.Filename)
				}
				loaded, err = document.LoadCSVColumn(path, csvColumn)
			} else {
				loaded, err = document.Load(path)
			}
			if err != nil {
				return nil, err
			}
			docs = append(docs, loaded...)
		}
	}

	if text := firstValue(form.Value["text"]); text != "" {
		docs = append(docs, models.Document{PatientID: "text", Text: text})
	}
	return docs, nil
}

func (a *API) sendWorkbook(c *gin.Context, results map[string]*pipeline.Table) {
	dir, err := os.MkdirTemp("", "medminer-export-")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export results"})
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "results.xlsx")
	if err := pipeline.ExportXLSX(results, path); err != nil {
		a.log.WithError(err).Error("xlsx export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export results"})
		return
	}
	c.FileAttachment(path, "results.xlsx")
}

func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
