package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"medminer/internal/config"
	"medminer/internal/models"
	"medminer/internal/vocab"
	pkghttp "medminer/pkg/http"
)

var icdSettings = []Setting{
	{ID: "icd_client_id", Label: "ICD API client id", Type: TypeString},
	{
		ID:    "icd_client_secret",
		Label: "ICD API client secret",
		Type:  TypeString,
		UI:    UISetting{Params: map[string]string{"type": "password"}},
	},
}

// ICDLookup binds the ICD-11 code lookup to a task. The API credentials are
// per-run settings, so the client is built at task instantiation.
func ICDLookup(cfg config.ICDConfig, hc *pkghttp.Client) Descriptor {
	return Configurable(icdSettings, func(values map[string]string) (Tool, error) {
		client := vocab.NewICDClient(cfg, values["icd_client_id"], values["icd_client_secret"], hc)
		return &ICDTool{client: client}, nil
	})
}

// ICDTool resolves diagnosis terms to ICD-11 codes.
type ICDTool struct {
	client *vocab.ICDClient
}

func (t *ICDTool) Name() string { return "lookup_icd11" }

func (t *ICDTool) Description() string {
	return "Looks up ICD-11 codes for diagnosis terms. Returns, per term, the candidate " +
		"codes with their titles and match scores, best match first. Terms without a " +
		"sufficiently confident match come back with an empty candidate list."
}

func (t *ICDTool) InputSchema() models.ToolSchema {
	return models.ToolSchema{
		Properties: map[string]any{
			"terms": arrayProp("string", "Diagnosis terms exactly as extracted from the document."),
		},
		Required: []string{"terms"},
	}
}

func (t *ICDTool) Call(ctx context.Context, args map[string]any) (string, error) {
	terms, err := stringSliceArg(args, "terms")
	if err != nil {
		return "", err
	}
	codes, err := t.client.ResolveCodes(ctx, terms)
	if err != nil {
		return "", err
	}
	encoded, err := json.Marshal(codes)
	if err != nil {
		return "", fmt.Errorf("encode icd result: %w", err)
	}
	return string(encoded), nil
}
