package vocab

import (
	"context"
	"net/url"
	"strings"

	pkghttp "medminer/pkg/http"
	"medminer/pkg/logger"
	"medminer/pkg/ratelimiter"
)

// RxNormClient resolves free-text drug names against the RxNav REST API.
// Lookups are best-effort: a failed or empty lookup yields an empty entry
// for that item, never an error for the whole batch.
type RxNormClient struct {
	baseURL string
	http    *pkghttp.Client
	limiter ratelimiter.RateLimiter
	log     *logger.Logger
}

// NewRxNormClient creates a client for the RxNav service at baseURL.
func NewRxNormClient(baseURL string, hc *pkghttp.Client, rl ratelimiter.RateLimiter) *RxNormClient {
	return &RxNormClient{
		baseURL: baseURL,
		http:    hc,
		limiter: rl,
		log:     logger.New("vocab.rxnorm"),
	}
}

type approximateTermResponse struct {
	ApproximateGroup struct {
		Candidate []struct {
			RxCUI  string `json:"rxcui"`
			Rank   string `json:"rank"`
			Source string `json:"source"`
		} `json:"candidate"`
	} `json:"approximateGroup"`
}

// ResolveIdentifiers maps each drug name to its candidate RxCUIs via
// approximate term matching. Only candidates at the top rank ("1") are
// kept; each surviving RxCUI records every source vocabulary that
// contributed it. A name with no top-rank candidate maps to an empty
// (non-nil) entry.
func (c *RxNormClient) ResolveIdentifiers(ctx context.Context, names []string) (map[string]map[string][]string, error) {
	result := make(map[string]map[string][]string, len(names))

	for _, name := range names {
		rxcuis := map[string][]string{}
		result[name] = rxcuis

		if err := ratelimiter.Wait(ctx, c.limiter); err != nil {
			return nil, err
		}

		var resp approximateTermResponse
		query := url.Values{"term": {name}}
		if err := c.http.GetJSON(ctx, c.baseURL, "approximateTerm.json", query, nil, &resp); err != nil {
			c.log.WithField("name", name).WithError(err).Warn("approximate term lookup failed")
			continue
		}

		for _, cand := range resp.ApproximateGroup.Candidate {
			if cand.Rank != "1" {
				continue
			}
			rxcuis[cand.RxCUI] = append(rxcuis[cand.RxCUI], cand.Source)
		}
	}

	return result, nil
}

// DrugClass is a classification record for a confirmed RxCUI. The zero
// value marks an identifier without a matching classification.
type DrugClass struct {
	ClassID   string `json:"classId"`
	ClassName string `json:"className"`
	ClassType string `json:"classType"`
}

type rxClassResponse struct {
	RxClassDrugInfoList struct {
		RxClassDrugInfo []struct {
			RelaSource             string `json:"relaSource"`
			RxClassMinConceptItem struct {
				ClassID   string `json:"classId"`
				ClassName string `json:"className"`
				ClassType string `json:"classType"`
			} `json:"rxclassMinConceptItem"`
		} `json:"rxclassDrugInfo"`
	} `json:"rxclassDrugInfoList"`
}

// ResolveClassification maps each RxCUI to its class within the given
// classification system ("ATC", "VA", ...). The first class record whose
// relation source mentions the system (case-insensitive) wins; identifiers
// without one map to an empty record rather than an error.
func (c *RxNormClient) ResolveClassification(ctx context.Context, rxcuis []string, system string) (map[string]DrugClass, error) {
	result := make(map[string]DrugClass, len(rxcuis))
	needle := strings.ToLower(system)

	for _, rxcui := range rxcuis {
		result[rxcui] = DrugClass{}

		if err := ratelimiter.Wait(ctx, c.limiter); err != nil {
			return nil, err
		}

		var resp rxClassResponse
		query := url.Values{"rxcui": {rxcui}}
		if err := c.http.GetJSON(ctx, c.baseURL, "rxclass/class/byRxcui.json", query, nil, &resp); err != nil {
			c.log.WithField("rxcui", rxcui).WithError(err).Warn("class lookup failed")
			continue
		}

		for _, info := range resp.RxClassDrugInfoList.RxClassDrugInfo {
			if !strings.Contains(strings.ToLower(info.RelaSource), needle) {
				continue
			}
			concept := info.RxClassMinConceptItem
			if concept.ClassID == "" && concept.ClassName == "" {
				continue
			}
			result[rxcui] = DrugClass{
				ClassID:   concept.ClassID,
				ClassName: concept.ClassName,
				ClassType: concept.ClassType,
			}
			break
		}
	}

	return result, nil
}
