package vocab

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	pkghttp "medminer/pkg/http"
	"medminer/pkg/logger"
	"medminer/pkg/ratelimiter"
)

// maxConcepts caps the number of concepts returned per lookup.
const maxConcepts = 100

// procedureRoot constrains every ECL query to descendants of the SNOMED CT
// procedure hierarchy.
const procedureRoot = "< 71388002|Procedure|"

// SNOMEDClient resolves procedure terms against a Snowstorm terminology
// server using progressively looser ECL queries: the caller always gets the
// most specific match available because a looser query is only attempted
// when every stricter one came back empty.
type SNOMEDClient struct {
	baseURL string
	edition string
	http    *pkghttp.Client
	limiter ratelimiter.RateLimiter
	log     *logger.Logger
}

// NewSNOMEDClient creates a client for the Snowstorm server at baseURL,
// querying the given edition branch (e.g. "MAIN/SNOMEDCT-US").
func NewSNOMEDClient(baseURL, edition string, hc *pkghttp.Client, rl ratelimiter.RateLimiter) *SNOMEDClient {
	return &SNOMEDClient{
		baseURL: baseURL,
		edition: edition,
		http:    hc,
		limiter: rl,
		log:     logger.New("vocab.snomed"),
	}
}

// Concept is one SNOMED CT procedure concept.
type Concept struct {
	ID  string `json:"id"`
	PT  string `json:"term"`
	FSN string `json:"fsn"`
}

type conceptSearchResponse struct {
	Items []struct {
		ConceptID        string `json:"conceptId"`
		DefinitionStatus string `json:"definitionStatus"`
		PT               struct {
			Term string `json:"term"`
		} `json:"pt"`
		FSN struct {
			Term string `json:"term"`
		} `json:"fsn"`
	} `json:"items"`
}

// ResolveConcepts searches for procedure concepts matching term. Synonyms
// map individual words of the term to an accepted alternative; keywords are
// extra search words unioned in by the loosest query only. The first query
// in the relaxation sequence that returns at least one concept wins.
// Results keep only fully-defined or primitive concepts, sorted by
// ascending FSN length, capped at 100. Lookup failures degrade to an empty
// result for this term after logging.
func (s *SNOMEDClient) ResolveConcepts(ctx context.Context, term string, synonyms map[string]string, keywords []string) ([]Concept, error) {
	var items conceptSearchResponse

	for _, ecl := range eclQueries(term, synonyms, keywords) {
		if err := ratelimiter.Wait(ctx, s.limiter); err != nil {
			return nil, err
		}

		query := url.Values{
			"activeFilter": {"true"},
			"termActive":   {"true"},
			"ecl":          {ecl},
		}
		items = conceptSearchResponse{}
		if err := s.http.GetJSON(ctx, s.baseURL, s.edition+"/concepts", query, nil, &items); err != nil {
			s.log.WithField("term", term).WithError(err).Warn("concept search failed")
			continue
		}
		if len(items.Items) > 0 {
			break
		}
	}

	concepts := make([]Concept, 0, len(items.Items))
	for _, item := range items.Items {
		if item.DefinitionStatus != "FULLY_DEFINED" && item.DefinitionStatus != "PRIMITIVE" {
			continue
		}
		concepts = append(concepts, Concept{
			ID:  item.ConceptID,
			PT:  item.PT.Term,
			FSN: item.FSN.Term,
		})
	}

	sort.SliceStable(concepts, func(i, j int) bool {
		return len(concepts[i].FSN) < len(concepts[j].FSN)
	})

	if len(concepts) > maxConcepts {
		concepts = concepts[:maxConcepts]
	}
	return concepts, nil
}

// eclQueries builds the relaxation sequence for a term: exact phrase,
// per-word synonym alternatives, shrinking word subsets (n-1 words down to
// pairs), the full word basket, and finally the basket unioned with the
// supplied keywords.
func eclQueries(term string, synonyms map[string]string, keywords []string) []string {
	words := strings.Fields(term)

	queries := []string{eclExact(term)}

	if len(synonyms) > 0 {
		queries = append(queries, eclSynonyms(words, synonyms))
	}

	if len(words) > 2 {
		for size := len(words) - 1; size >= 2; size-- {
			queries = append(queries, eclPhrases(subPhrases(words, size)))
		}
	}

	queries = append(queries, eclPhrases(words))

	if len(keywords) > 0 {
		queries = append(queries, eclPhrases(append(append([]string{}, words...), keywords...)))
	}

	return queries
}

func eclExact(term string) string {
	return fmt.Sprintf(`%s {{ term = "%s"}}`, procedureRoot, term)
}

// eclSynonyms requires every word of the term, each satisfiable by the
// word itself or its listed synonym.
func eclSynonyms(words []string, synonyms map[string]string) string {
	var sb strings.Builder
	sb.WriteString(procedureRoot)
	for _, word := range words {
		if syn, ok := synonyms[word]; ok && syn != "" {
			fmt.Fprintf(&sb, ` {{ term = ("%s" "%s")}}`, word, syn)
		} else {
			fmt.Fprintf(&sb, ` {{ term = "%s"}}`, word)
		}
	}
	return sb.String()
}

// eclPhrases matches any one of the given phrases.
func eclPhrases(phrases []string) string {
	return fmt.Sprintf(`%s {{ term = ("%s")}}`, procedureRoot, strings.Join(phrases, `" "`))
}

// subPhrases returns every combination of size words, each joined into a
// single phrase, preserving word order.
func subPhrases(words []string, size int) []string {
	var phrases []string
	for _, comb := range combinations(words, size) {
		phrases = append(phrases, strings.Join(comb, " "))
	}
	return phrases
}

func combinations(items []string, k int) [][]string {
	if k <= 0 || k > len(items) {
		return nil
	}
	var result [][]string
	comb := make([]string, 0, k)

	var walk func(start int)
	walk = func(start int) {
		if len(comb) == k {
			result = append(result, append([]string{}, comb...))
			return
		}
		for i := start; i <= len(items)-(k-len(comb)); i++ {
			comb = append(comb, items[i])
			walk(i + 1)
			comb = comb[:len(comb)-1]
		}
	}
	walk(0)
	return result
}
