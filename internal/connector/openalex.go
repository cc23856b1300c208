// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/talent-engine/internal/logger"
	"github.com/pdiddy/talent-engine/pkg/types"
)

// Declared as vars so tests can substitute an httptest server.
var (
	openAlexAuthorsBase = "https://api.openalex.org/authors"
	openAlexWorksBase   = "https://api.openalex.org/works"
)

const openAlexIDPrefix = "https://openalex.org/"

// OpenAlex searches scholarly authors. Each author record carries yearly
// citation counts, and optionally the venues of the author's most recent
// works.
type OpenAlex struct {
	http httpSettings

	// Email is sent as mailto parameter for polite pool access.
	Email string

	// WorksPerAuthor bounds the per-author works lookup; 0 skips it.
	WorksPerAuthor int
}

func (c *OpenAlex) Name() string               { return NameOpenAlex }
func (c *OpenAlex) System() types.SourceSystem { return types.SourceScholarIndex }

// Search queries the OpenAlex authors endpoint.
func (c *OpenAlex) Search(ctx context.Context, query string, limit int) ([]types.RawCandidateRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}

	params := url.Values{
		"search":   {query},
		"per_page": {strconv.Itoa(clampLimit(limit, 25, 200))},
		"page":     {"1"},
	}
	if c.Email != "" {
		params.Set("mailto", c.Email)
	}

	var resp openAlexAuthorsResponse
	if err := c.http.getJSON(ctx, "OpenAlex", openAlexAuthorsBase+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	log := logger.Named("connector.openalex")
	records := make([]types.RawCandidateRecord, 0, len(resp.Results))
	for _, a := range resp.Results {
		rec := types.RawCandidateRecord{
			SourceSystem: types.SourceScholarIndex,
			SourceQuery:  query,
			ExternalID:   strings.TrimPrefix(a.ID, openAlexIDPrefix),
			DisplayName:  a.DisplayName,
			EvidenceURLs: appendNonEmpty(nil, a.ID, a.ORCID),
		}
		if len(a.LastKnownInstitutions) > 0 {
			rec.Affiliation = a.LastKnownInstitutions[0].DisplayName
		}
		for i, t := range a.Topics {
			if i == 5 {
				break
			}
			rec.RawSignalTags = appendNonEmpty(rec.RawSignalTags, t.DisplayName)
		}
		for _, y := range a.CountsByYear {
			if y.Year <= 0 || y.CitedByCount <= 0 {
				continue
			}
			rec.Observations = append(rec.Observations, types.Observation{
				Kind:  types.ObservationCitation,
				At:    yearStart(y.Year),
				Count: y.CitedByCount,
				URL:   a.ID,
			})
		}

		if c.WorksPerAuthor > 0 && rec.ExternalID != "" {
			venues, err := c.venues(ctx, rec.ExternalID)
			if err != nil {
				// The author record still stands; venue_change reports
				// the gap as not computed.
				log.Warn().Err(err).Str("author", rec.ExternalID).Msg("works lookup failed")
			}
			rec.Observations = append(rec.Observations, venues...)
		}
		records = append(records, rec)
	}
	return records, nil
}

// venues returns one venue observation per recent work with a known source.
func (c *OpenAlex) venues(ctx context.Context, authorID string) ([]types.Observation, error) {
	params := url.Values{
		"filter":   {"author.id:" + authorID},
		"sort":     {"publication_date:desc"},
		"per_page": {strconv.Itoa(clampLimit(c.WorksPerAuthor, 10, 200))},
	}
	if c.Email != "" {
		params.Set("mailto", c.Email)
	}

	var resp openAlexWorksResponse
	if err := c.http.getJSON(ctx, "OpenAlex", openAlexWorksBase+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	var out []types.Observation
	for _, w := range resp.Results {
		venue := w.PrimaryLocation.Source.DisplayName
		at := parseDate(w.PublicationDate, w.PublicationYear)
		if venue == "" || at.IsZero() {
			continue
		}
		out = append(out, types.Observation{
			Kind:  types.ObservationVenue,
			At:    at,
			Label: venue,
			URL:   w.ID,
		})
	}
	return out, nil
}

// parseDate reads an ISO date, falling back to January 1 of year.
func parseDate(date string, year int) time.Time {
	if date != "" {
		if t, err := time.Parse("2006-01-02", date); err == nil {
			return t
		}
	}
	if year > 0 {
		return yearStart(year)
	}
	return time.Time{}
}

// OpenAlex API JSON structures.
type openAlexAuthorsResponse struct {
	Results []openAlexAuthor `json:"results"`
}

type openAlexAuthor struct {
	ID                    string                `json:"id"`
	ORCID                 string                `json:"orcid"`
	DisplayName           string                `json:"display_name"`
	LastKnownInstitutions []openAlexInstitution `json:"last_known_institutions"`
	Topics                []openAlexTopic       `json:"topics"`
	CountsByYear          []openAlexYearCount   `json:"counts_by_year"`
}

type openAlexInstitution struct {
	DisplayName string `json:"display_name"`
}

type openAlexTopic struct {
	DisplayName string `json:"display_name"`
}

type openAlexYearCount struct {
	Year         int `json:"year"`
	WorksCount   int `json:"works_count"`
	CitedByCount int `json:"cited_by_count"`
}

type openAlexWorksResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID              string `json:"id"`
	PublicationDate string `json:"publication_date"`
	PublicationYear int    `json:"publication_year"`
	PrimaryLocation struct {
		Source struct {
			DisplayName string `json:"display_name"`
		} `json:"source"`
	} `json:"primary_location"`
}
