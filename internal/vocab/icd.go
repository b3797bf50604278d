package vocab

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"medminer/internal/config"
	pkghttp "medminer/pkg/http"
	"medminer/pkg/logger"
)

// minCandidateScore filters out low-relevance ICD-11 search hits.
const minCandidateScore = 0.3

// ICDClient resolves diagnosis terms against the WHO ICD-11 API. Access
// requires a bearer token obtained via the client-credentials flow; the
// token is cached in a single slot until its expiry and refreshed under a
// mutex so concurrent callers do not race duplicate token requests.
type ICDClient struct {
	baseURL      string
	tokenURL     string
	release      string
	clientID     string
	clientSecret string
	http         *pkghttp.Client
	log          *logger.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// NewICDClient creates a client using the service endpoints from cfg and
// the given client credentials.
func NewICDClient(cfg config.ICDConfig, clientID, clientSecret string, hc *pkghttp.Client) *ICDClient {
	return &ICDClient{
		baseURL:      cfg.BaseURL,
		tokenURL:     cfg.TokenURL,
		release:      cfg.Release,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         hc,
		log:          logger.New("vocab.icd"),
		now:          time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// getToken returns the cached access token, re-authenticating when the
// cache is empty or the token has reached its expiry. A call arriving
// exactly at the expiry instant re-authenticates.
func (c *ICDClient) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"scope":         {"icdapi_access"},
		"grant_type":    {"client_credentials"},
	}

	var resp tokenResponse
	if err := c.http.PostForm(ctx, c.tokenURL, form, &resp); err != nil {
		return "", fmt.Errorf("icd token request failed: %w", err)
	}
	if resp.AccessToken == "" {
		return "", errors.New("icd token response contained no access token")
	}

	expiresIn := resp.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	c.token = resp.AccessToken
	c.expiresAt = c.now().Add(time.Duration(expiresIn) * time.Second)

	return c.token, nil
}

// CodeCandidate is one ICD-11 code proposed for a term.
type CodeCandidate struct {
	Code  string  `json:"code"`
	Score float64 `json:"score"`
	Title string  `json:"title"`
}

// TermCodes pairs a search term with its surviving candidates, sorted by
// score descending.
type TermCodes struct {
	Term       string          `json:"term"`
	Candidates []CodeCandidate `json:"candidates"`
}

type icdSearchResponse struct {
	DestinationEntities []struct {
		TheCode string  `json:"theCode"`
		Score   float64 `json:"score"`
		Title   string  `json:"title"`
	} `json:"destinationEntities"`
}

// ResolveCodes searches ICD-11 for each term via flexisearch. Candidates
// with score <= 0.3 are dropped; the rest are returned sorted by score
// descending with no size limit. A non-2xx search response is logged with
// its status and body and propagated, so a credentials problem surfaces
// instead of degrading silently to empty rows.
func (c *ICDClient) ResolveCodes(ctx context.Context, terms []string) ([]TermCodes, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"Authorization":   "Bearer " + token,
		"Accept-Language": "en",
		"API-Version":     "v2",
	}
	searchPath := fmt.Sprintf("icd/release/11/%s/mms/search", c.release)

	results := make([]TermCodes, 0, len(terms))
	for _, term := range terms {
		query := url.Values{
			"q":              {term},
			"useFlexisearch": {"true"},
		}

		var resp icdSearchResponse
		if err := c.http.GetJSON(ctx, c.baseURL, searchPath, query, headers, &resp); err != nil {
			var statusErr *pkghttp.StatusError
			if errors.As(err, &statusErr) {
				c.log.WithField("term", term).
					WithField("status", statusErr.StatusCode).
					WithField("body", statusErr.Body).
					Error("icd search request failed")
			}
			return nil, fmt.Errorf("icd search for %q failed: %w", term, err)
		}

		candidates := make([]CodeCandidate, 0, len(resp.DestinationEntities))
		for _, entity := range resp.DestinationEntities {
			if entity.Score <= minCandidateScore {
				continue
			}
			candidates = append(candidates, CodeCandidate{
				Code:  entity.TheCode,
				Score: entity.Score,
				Title: entity.Title,
			})
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score > candidates[j].Score
		})

		results = append(results, TermCodes{Term: term, Candidates: candidates})
	}

	return results, nil
}
