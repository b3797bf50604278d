package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"medminer/internal/models"
	"medminer/internal/vocab"
)

// RxCUITool resolves free-text medication names to RxNorm identifiers.
type RxCUITool struct {
	client *vocab.RxNormClient
}

func NewRxCUITool(client *vocab.RxNormClient) *RxCUITool {
	return &RxCUITool{client: client}
}

func (t *RxCUITool) Name() string { return "get_rxcui" }

func (t *RxCUITool) Description() string {
	return "Looks up RxNorm concept identifiers (RxCUIs) for medication names. " +
		"Returns, per name, the matching RxCUIs grouped with their source vocabularies. " +
		"Names without a confident match come back with an empty result."
}

func (t *RxCUITool) InputSchema() models.ToolSchema {
	return models.ToolSchema{
		Properties: map[string]any{
			"medication_names": arrayProp("string", "Medication names exactly as extracted from the document."),
		},
		Required: []string{"medication_names"},
	}
}

func (t *RxCUITool) Call(ctx context.Context, args map[string]any) (string, error) {
	names, err := stringSliceArg(args, "medication_names")
	if err != nil {
		return "", err
	}
	resolved, err := t.client.ResolveIdentifiers(ctx, names)
	if err != nil {
		return "", err
	}
	encoded, err := json.Marshal(resolved)
	if err != nil {
		return "", fmt.Errorf("encode rxcui result: %w", err)
	}
	return string(encoded), nil
}

// DrugClassTool resolves RxCUIs to a drug classification system such as
// ATC or the VA drug classes.
type DrugClassTool struct {
	client *vocab.RxNormClient
	system string
	name   string
}

// NewATCTool resolves RxCUIs to ATC classes.
func NewATCTool(client *vocab.RxNormClient) *DrugClassTool {
	return &DrugClassTool{client: client, system: "ATC", name: "get_atc"}
}

// NewVATool resolves RxCUIs to VA drug classes.
func NewVATool(client *vocab.RxNormClient) *DrugClassTool {
	return &DrugClassTool{client: client, system: "VA", name: "get_va"}
}

func (t *DrugClassTool) Name() string { return t.name }

func (t *DrugClassTool) Description() string {
	return fmt.Sprintf("Looks up the %s drug class for each given RxCUI. "+
		"RxCUIs without a class in this system come back with empty fields.", t.system)
}

func (t *DrugClassTool) InputSchema() models.ToolSchema {
	return models.ToolSchema{
		Properties: map[string]any{
			"rxcuis": arrayProp("string", "RxNorm concept identifiers to classify."),
		},
		Required: []string{"rxcuis"},
	}
}

func (t *DrugClassTool) Call(ctx context.Context, args map[string]any) (string, error) {
	rxcuis, err := stringSliceArg(args, "rxcuis")
	if err != nil {
		return "", err
	}
	classes, err := t.client.ResolveClassification(ctx, rxcuis, t.system)
	if err != nil {
		return "", err
	}

	prefix := strings.ToLower(t.system)
	out := make(map[string]map[string]string, len(classes))
	for rxcui, class := range classes {
		out[rxcui] = map[string]string{
			prefix + "_id":   class.ClassID,
			prefix + "_name": class.ClassName,
			prefix + "_type": class.ClassType,
		}
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode %s result: %w", prefix, err)
	}
	return string(encoded), nil
}
