package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"medminer/internal/models"
	"medminer/internal/vocab"
	pkghttp "medminer/pkg/http"
	"medminer/pkg/ratelimiter"
)

var snomedSettings = []Setting{
	{ID: "snomed_base_url", Label: "SNOMED CT terminology server", Type: TypeString},
	{ID: "snomed_edition", Label: "SNOMED CT edition", Type: TypeString},
}

// SNOMEDSearch binds the SNOMED CT procedure search to a task. The server
// and edition are per-run settings.
func SNOMEDSearch(hc *pkghttp.Client, rl ratelimiter.RateLimiter) Descriptor {
	return Configurable(snomedSettings, func(values map[string]string) (Tool, error) {
		client := vocab.NewSNOMEDClient(values["snomed_base_url"], values["snomed_edition"], hc, rl)
		return &SNOMEDTool{client: client}, nil
	})
}

// SNOMEDTool searches the procedure hierarchy of SNOMED CT for a term,
// relaxing the query stepwise until candidates are found.
type SNOMEDTool struct {
	client *vocab.SNOMEDClient
}

func (t *SNOMEDTool) Name() string { return "search_snomed_procedures" }

func (t *SNOMEDTool) Description() string {
	return "Searches SNOMED CT procedure concepts for a term. Starts with the exact " +
		"phrase and relaxes the query using the given synonyms and keywords until " +
		"matches are found. Returns candidate concepts, most specific first."
}

func (t *SNOMEDTool) InputSchema() models.ToolSchema {
	return models.ToolSchema{
		Properties: map[string]any{
			"term": prop("string", "Procedure description exactly as extracted from the document."),
			"synonyms": map[string]any{
				"type":        "object",
				"description": "Optional mapping of words in the term to a clinical synonym, e.g. {\"removal\": \"excision\"}.",
			},
			"keywords": arrayProp("string", "Optional extra keywords to try when the term itself yields no match."),
		},
		Required: []string{"term"},
	}
}

func (t *SNOMEDTool) Call(ctx context.Context, args map[string]any) (string, error) {
	term, err := stringArg(args, "term")
	if err != nil {
		return "", err
	}
	synonyms, err := optStringMapArg(args, "synonyms")
	if err != nil {
		return "", err
	}
	keywords, err := optStringSliceArg(args, "keywords")
	if err != nil {
		return "", err
	}

	concepts, err := t.client.ResolveConcepts(ctx, term, synonyms, keywords)
	if err != nil {
		return "", err
	}
	encoded, err := json.Marshal(concepts)
	if err != nil {
		return "", fmt.Errorf("encode snomed result: %w", err)
	}
	return string(encoded), nil
}
