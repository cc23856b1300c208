// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/talent-engine/internal/httputil"
	"github.com/pdiddy/talent-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

// swap points a base URL var at ts for the duration of the test.
func swap(t *testing.T, v *string, val string) {
	t.Helper()
	old := *v
	*v = val
	t.Cleanup(func() { *v = old })
}

func settings(ts *httptest.Server) httpSettings {
	return httpSettings{client: ts.Client(), userAgent: "talent-engine-test", maxRetries: 1}
}

func TestOpenAlexSearch(t *testing.T) {
	var authorsQuery, worksQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/authors":
			authorsQuery = r.URL.RawQuery
			fmt.Fprint(w, `{"results":[{
				"id":"https://openalex.org/A123",
				"orcid":"https://orcid.org/0000-0001",
				"display_name":"Jane Doe",
				"last_known_institutions":[{"display_name":"MIT"}],
				"topics":[{"display_name":"Robotics"},{"display_name":"Control"}],
				"counts_by_year":[{"year":2026,"cited_by_count":40},{"year":2025,"cited_by_count":0}]
			}]}`)
		case "/works":
			worksQuery = r.URL.RawQuery
			fmt.Fprint(w, `{"results":[
				{"id":"https://openalex.org/W1","publication_date":"2026-03-02","primary_location":{"source":{"display_name":"NeurIPS"}}},
				{"id":"https://openalex.org/W2","publication_year":2025,"primary_location":{"source":null}}
			]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()
	swap(t, &openAlexAuthorsBase, ts.URL+"/authors")
	swap(t, &openAlexWorksBase, ts.URL+"/works")

	c := &OpenAlex{http: settings(ts), Email: "ops@example.com", WorksPerAuthor: 5}
	recs, err := c.Search(context.Background(), "  humanoid robotics ", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Contains(t, authorsQuery, "mailto=ops%40example.com")
	assert.Contains(t, authorsQuery, "per_page=10")
	assert.Contains(t, worksQuery, "author.id%3AA123")

	r := recs[0]
	assert.Equal(t, types.SourceScholarIndex, r.SourceSystem)
	assert.Equal(t, "A123", r.ExternalID)
	assert.Equal(t, "A123", r.ScholarID())
	assert.Equal(t, "MIT", r.Affiliation)
	assert.Equal(t, "humanoid robotics", r.SourceQuery)
	assert.Equal(t, []string{"https://openalex.org/A123", "https://orcid.org/0000-0001"}, r.EvidenceURLs)
	assert.Equal(t, []string{"Robotics", "Control"}, r.RawSignalTags)

	require.Len(t, r.Observations, 2, "zero-citation year and venue-less work skipped")
	assert.Equal(t, types.ObservationCitation, r.Observations[0].Kind)
	assert.Equal(t, 40, r.Observations[0].Count)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), r.Observations[0].At)
	assert.Equal(t, types.ObservationVenue, r.Observations[1].Kind)
	assert.Equal(t, "NeurIPS", r.Observations[1].Label)
}

func TestOpenAlexWorksFailureKeepsAuthor(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/works" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"results":[{"id":"https://openalex.org/A9","display_name":"Ann Lee"}]}`)
	}))
	defer ts.Close()
	swap(t, &openAlexAuthorsBase, ts.URL+"/authors")
	swap(t, &openAlexWorksBase, ts.URL+"/works")

	c := &OpenAlex{http: settings(ts), WorksPerAuthor: 3}
	recs, err := c.Search(context.Background(), "q", 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].Observations)
}

func TestSemanticScholarSearch(t *testing.T) {
	var apiKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("x-api-key")
		fmt.Fprint(w, `{"total":1,"data":[{
			"authorId":"1741101","name":"Wei Zhang","url":"https://www.semanticscholar.org/author/1741101",
			"affiliations":["Tsinghua"],"externalIds":{"ORCID":"0000-0002"},
			"papers":[
				{"title":"A","venue":"ICRA","publicationDate":"2026-05-01","citationCount":12,"url":"https://s2/p/1"},
				{"title":"B","venue":"","year":2019,"citationCount":0},
				{"title":"C","venue":"CoRL"}
			]
		}]}`)
	}))
	defer ts.Close()
	swap(t, &semanticAuthorBase, ts.URL)

	c := &SemanticScholar{http: settings(ts), APIKey: "sk"}
	recs, err := c.Search(context.Background(), "manipulation", 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "sk", apiKey)

	r := recs[0]
	assert.Equal(t, "1741101", r.ScholarID())
	assert.Equal(t, "Tsinghua", r.Affiliation)
	assert.Equal(t, []string{"https://www.semanticscholar.org/author/1741101", "https://orcid.org/0000-0002"}, r.EvidenceURLs)
	require.Len(t, r.Observations, 2, "undated paper skipped, zero citations skipped")
	assert.Equal(t, types.ObservationCitation, r.Observations[0].Kind)
	assert.Equal(t, "ICRA", r.Observations[1].Label)
}

func TestGitHubSearch(t *testing.T) {
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		switch {
		case r.URL.Path == "/search/users":
			fmt.Fprint(w, `{"total_count":1,"items":[{"login":"jdoe","html_url":"https://github.com/jdoe"}]}`)
		case r.URL.Path == "/users/jdoe":
			fmt.Fprint(w, `{"login":"jdoe","name":"Jane Doe","company":"@mit","blog":"https://jane.dev"}`)
		case r.URL.Path == "/users/jdoe/repos":
			assert.Equal(t, "pushed", r.URL.Query().Get("sort"))
			fmt.Fprint(w, `[
				{"full_name":"jdoe/walker","html_url":"https://github.com/jdoe/walker","stargazers_count":120,"language":"Go","topics":["robotics"],"pushed_at":"2026-10-01T10:00:00Z"},
				{"full_name":"jdoe/fork","fork":true,"pushed_at":"2026-10-02T10:00:00Z"}
			]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()
	swap(t, &githubAPIBase, ts.URL)

	c := &GitHub{http: settings(ts), Token: "ght", ReposPerUser: 5}
	recs, err := c.Search(context.Background(), "robotics in:bio", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Bearer ght", auth)

	r := recs[0]
	assert.Equal(t, types.SourceCodeHost, r.SourceSystem)
	assert.Equal(t, "jdoe", r.Handle())
	assert.Equal(t, "Jane Doe", r.DisplayName)
	assert.Equal(t, "mit", r.Affiliation)
	assert.Equal(t, []string{"https://github.com/jdoe", "https://jane.dev"}, r.EvidenceURLs)
	assert.Equal(t, []string{"robotics", "Go"}, r.RawSignalTags)
	require.Len(t, r.Observations, 1, "forks skipped")
	assert.Equal(t, types.ObservationActivity, r.Observations[0].Kind)
	assert.Equal(t, 120, r.Observations[0].Count)
	assert.Equal(t, "jdoe/walker", r.Observations[0].Label)
}

func TestPatentsViewGroupsByInventor(t *testing.T) {
	var q string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query().Get("q")
		fmt.Fprint(w, `{"count":2,"patents":[
			{"patent_id":"11000001","patent_date":"2026-02-03",
			 "inventors":[{"inventor_name_first":"Wei","inventor_name_last":"Zhang"},{"inventor_name_first":"Ann","inventor_name_last":"Lee"}],
			 "assignees":[{"assignee_organization":"Acme Robotics"}]},
			{"patent_id":"11000002","patent_date":"2025-11-20",
			 "inventors":[{"inventor_name_first":"wei","inventor_name_last":"zhang"},{"inventor_name_first":"","inventor_name_last":""}]}
		]}`)
	}))
	defer ts.Close()
	swap(t, &patentsViewSearchBase, ts.URL)

	c := &PatentsView{http: settings(ts)}
	recs, err := c.Search(context.Background(), `legged "robot"`, 10)
	require.NoError(t, err)
	assert.Contains(t, q, `legged \"robot\"`)

	require.Len(t, recs, 2)
	wei := recs[0]
	assert.Equal(t, "Wei Zhang", wei.InventorName())
	assert.Equal(t, "Acme Robotics", wei.Affiliation)
	assert.Len(t, wei.Observations, 2)
	assert.Equal(t, []string{patentURLBase + "US11000001", patentURLBase + "US11000002"}, wei.EvidenceURLs)
	assert.Equal(t, "Ann Lee", recs[1].DisplayName)
}

func TestPatentsViewLimitCapsInventors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"patents":[{"patent_id":"1","patent_date":"2026-01-01","inventors":[
			{"inventor_name_first":"A","inventor_name_last":"One"},
			{"inventor_name_first":"B","inventor_name_last":"Two"}]}]}`)
	}))
	defer ts.Close()
	swap(t, &patentsViewSearchBase, ts.URL)

	recs, err := (&PatentsView{http: settings(ts)}).Search(context.Background(), "x", 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "A One", recs[0].DisplayName)
}

func TestHTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"server error", http.StatusInternalServerError, "", "HTTP 500"},
		{"rate limit exhausted", http.StatusTooManyRequests, "", "HTTP 429"},
		{"malformed json", http.StatusOK, "{not json", "parsing OpenAlex response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()
			swap(t, &openAlexAuthorsBase, ts.URL)

			_, err := (&OpenAlex{http: settings(ts)}).Search(context.Background(), "q", 1)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEmptyQueryRejected(t *testing.T) {
	for name, c := range NewSet(types.DefaultPipelineConfig().Connectors, nil, t.TempDir()) {
		_, err := c.Search(context.Background(), "   ", 1)
		assert.Error(t, err, name)
		assert.True(t, strings.Contains(strings.ToLower(err.Error()), "empty"), name)
	}
}

func TestNewSetNames(t *testing.T) {
	set := NewSet(types.DefaultPipelineConfig().Connectors, nil, "")
	assert.Equal(t, []string{NameFile, NameGitHub, NameOpenAlex, NamePatentsView, NameSemanticScholar}, set.Names())
	for name, c := range set {
		assert.Equal(t, name, c.Name())
		assert.True(t, c.System().Valid(), name)
	}
}
