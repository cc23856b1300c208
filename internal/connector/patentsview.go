// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/talent-engine/pkg/types"
)

// patentsViewSearchBase is the PatentsView patent search endpoint. Declared
// as a var so tests can substitute an httptest server.
var patentsViewSearchBase = "https://search.patentsview.org/api/v1/patent/"

const patentsViewFields = `["patent_id","patent_title","patent_date","inventors.inventor_name_first","inventors.inventor_name_last","assignees.assignee_organization"]`

// patentURLBase links a patent number to a public page.
const patentURLBase = "https://patents.google.com/patent/"

// PatentsView searches patents by title and abstract text and groups the
// matches by inventor. Each inventor becomes one record whose observations
// are the matching filings.
type PatentsView struct {
	http   httpSettings
	APIKey string
}

func (c *PatentsView) Name() string               { return NamePatentsView }
func (c *PatentsView) System() types.SourceSystem { return types.SourcePatentIndex }

// Search returns at most limit inventors, in order of first appearance.
func (c *PatentsView) Search(ctx context.Context, query string, limit int) ([]types.RawCandidateRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty PatentsView query")
	}
	limit = clampLimit(limit, 25, 1000)

	params := url.Values{
		"q": {buildPatentsViewQuery(query)},
		"f": {patentsViewFields},
		"s": {`[{"patent_date":"desc"}]`},
		"o": {fmt.Sprintf(`{"size":%d}`, limit)},
	}
	header := http.Header{}
	if c.APIKey != "" {
		header.Set("X-Api-Key", c.APIKey)
	}

	var resp patentsViewResponse
	if err := c.http.getJSON(ctx, "PatentsView", patentsViewSearchBase+"?"+params.Encode(), header, &resp); err != nil {
		return nil, err
	}

	byName := make(map[string]int)
	var records []types.RawCandidateRecord
	for _, p := range resp.Patents {
		number := "US" + p.PatentID
		link := patentURLBase + number
		at := parseDate(p.PatentDate, 0)
		org := ""
		if len(p.Assignees) > 0 {
			org = p.Assignees[0].Organization
		}

		for _, inv := range p.Inventors {
			name := strings.TrimSpace(strings.TrimSpace(inv.First) + " " + strings.TrimSpace(inv.Last))
			if name == "" {
				continue
			}
			idx, ok := byName[strings.ToLower(name)]
			if !ok {
				if len(records) >= limit {
					continue
				}
				idx = len(records)
				byName[strings.ToLower(name)] = idx
				records = append(records, types.RawCandidateRecord{
					SourceSystem:       types.SourcePatentIndex,
					SourceQuery:        query,
					DisplayName:        name,
					PatentInventorName: name,
					Affiliation:        org,
				})
			}
			rec := &records[idx]
			rec.EvidenceURLs = append(rec.EvidenceURLs, link)
			if !at.IsZero() {
				rec.Observations = append(rec.Observations, types.Observation{
					Kind:  types.ObservationPatent,
					At:    at,
					Count: 1,
					Label: number,
					URL:   link,
				})
			}
		}
	}
	return records, nil
}

// buildPatentsViewQuery matches any query word in the title or abstract.
func buildPatentsViewQuery(text string) string {
	e := escapeJSON(text)
	return fmt.Sprintf(`{"_or":[{"_text_any":{"patent_title":"%s"}},{"_text_any":{"patent_abstract":"%s"}}]}`, e, e)
}

// escapeJSON escapes a string for safe inclusion in a JSON string value.
func escapeJSON(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// PatentsView API JSON structures.
type patentsViewResponse struct {
	Patents []patentsViewPatent `json:"patents"`
	Count   int                 `json:"count"`
	Total   int                 `json:"total_hits"`
}

type patentsViewPatent struct {
	PatentID   string                `json:"patent_id"`
	PatentDate string                `json:"patent_date"`
	Inventors  []patentsViewInventor `json:"inventors"`
	Assignees  []patentsViewAssignee `json:"assignees"`
}

type patentsViewInventor struct {
	First string `json:"inventor_name_first"`
	Last  string `json:"inventor_name_last"`
}

type patentsViewAssignee struct {
	Organization string `json:"assignee_organization"`
}
