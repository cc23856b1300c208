// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/talent-engine/pkg/types"
)

// semanticAuthorBase is the Semantic Scholar author search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAuthorBase = "https://api.semanticscholar.org/graph/v1/author/search"

const semanticFields = "name,url,affiliations,externalIds,papers.title,papers.venue,papers.year,papers.publicationDate,papers.citationCount,papers.url"

// SemanticScholar searches authors. Each paper returned with an author
// becomes a citation observation and, when it names a venue, a venue
// observation.
type SemanticScholar struct {
	http   httpSettings
	APIKey string
}

func (c *SemanticScholar) Name() string               { return NameSemanticScholar }
func (c *SemanticScholar) System() types.SourceSystem { return types.SourceScholarIndex }

// Search queries the Semantic Scholar author search endpoint.
func (c *SemanticScholar) Search(ctx context.Context, query string, limit int) ([]types.RawCandidateRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}

	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(clampLimit(limit, 20, 1000))},
		"fields": {semanticFields},
	}
	header := http.Header{}
	if c.APIKey != "" {
		header.Set("x-api-key", c.APIKey)
	}

	var resp semanticResponse
	if err := c.http.getJSON(ctx, "Semantic Scholar", semanticAuthorBase+"?"+params.Encode(), header, &resp); err != nil {
		return nil, err
	}

	records := make([]types.RawCandidateRecord, 0, len(resp.Data))
	for _, a := range resp.Data {
		rec := types.RawCandidateRecord{
			SourceSystem: types.SourceScholarIndex,
			SourceQuery:  query,
			ExternalID:   a.AuthorID,
			DisplayName:  a.Name,
			EvidenceURLs: appendNonEmpty(nil, a.URL),
		}
		if len(a.Affiliations) > 0 {
			rec.Affiliation = a.Affiliations[0]
		}
		if orcid := a.ExternalIDs.ORCID; orcid != "" {
			rec.EvidenceURLs = append(rec.EvidenceURLs, "https://orcid.org/"+orcid)
		}
		for _, p := range a.Papers {
			at := parseDate(p.PublicationDate, p.Year)
			if at.IsZero() {
				continue
			}
			if p.CitationCount > 0 {
				rec.Observations = append(rec.Observations, types.Observation{
					Kind:  types.ObservationCitation,
					At:    at,
					Count: p.CitationCount,
					URL:   p.URL,
				})
			}
			if p.Venue != "" {
				rec.Observations = append(rec.Observations, types.Observation{
					Kind:  types.ObservationVenue,
					At:    at,
					Label: p.Venue,
					URL:   p.URL,
				})
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int              `json:"total"`
	Data  []semanticAuthor `json:"data"`
}

type semanticAuthor struct {
	AuthorID     string   `json:"authorId"`
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	Affiliations []string `json:"affiliations"`
	ExternalIDs  struct {
		ORCID string `json:"ORCID"`
	} `json:"externalIds"`
	Papers []semanticPaper `json:"papers"`
}

type semanticPaper struct {
	Title           string `json:"title"`
	Venue           string `json:"venue"`
	Year            int    `json:"year"`
	PublicationDate string `json:"publicationDate"`
	CitationCount   int    `json:"citationCount"`
	URL             string `json:"url"`
}
