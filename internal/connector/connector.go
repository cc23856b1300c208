// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package connector queries external discovery sources (scholarly indexes,
// code hosts, patent indexes, local capture files) and returns raw
// candidate records. Connectors never resolve identity; they report what a
// source says about one entity, plus the dated observations the signal
// engine scores.
package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/pdiddy/talent-engine/internal/httputil"
	"github.com/pdiddy/talent-engine/pkg/types"
)

// Connector searches a single source. Implementations must return an empty
// slice, not an error, when the source simply has no matches.
type Connector interface {
	Name() string
	System() types.SourceSystem
	Search(ctx context.Context, query string, limit int) ([]types.RawCandidateRecord, error)
}

// Connector names as used in scenario configuration.
const (
	NameOpenAlex        = "openalex"
	NameSemanticScholar = "semantic_scholar"
	NameGitHub          = "github"
	NamePatentsView     = "patentsview"
	NameFile            = "file"
)

// Set is the connectors available to a run, keyed by name.
type Set map[string]Connector

// Names returns the connector names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewSet builds every built-in connector from cfg. A nil client gets one
// with cfg.Timeout. fileDir is the directory file scenarios are relative to.
func NewSet(cfg types.ConnectorConfig, client *http.Client, fileDir string) Set {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	h := httpSettings{client: client, userAgent: cfg.UserAgent, maxRetries: cfg.MaxRetries}
	return Set{
		NameOpenAlex:        &OpenAlex{http: h, Email: cfg.OpenAlexEmail, WorksPerAuthor: cfg.WorksPerAuthor},
		NameSemanticScholar: &SemanticScholar{http: h, APIKey: cfg.SemanticScholarAPIKey},
		NameGitHub:          &GitHub{http: h, Token: cfg.GitHubToken, ReposPerUser: cfg.ReposPerUser},
		NamePatentsView:     &PatentsView{http: h, APIKey: cfg.PatentsViewAPIKey},
		NameFile:            &File{Dir: fileDir},
	}
}

type httpSettings struct {
	client     *http.Client
	userAgent  string
	maxRetries int
}

// getJSON issues a GET with retry on 429/503 and decodes a 200 response
// into v. Any other status is an error naming the source.
func (h httpSettings) getJSON(ctx context.Context, source, reqURL string, header http.Header, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, h.client, req, h.maxRetries)
	if err != nil {
		return fmt.Errorf("%s API request: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s API returned HTTP %d", source, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing %s response: %w", source, err)
	}
	return nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return limit
}

func appendNonEmpty(list []string, vals ...string) []string {
	for _, v := range vals {
		if v != "" {
			list = append(list, v)
		}
	}
	return list
}
