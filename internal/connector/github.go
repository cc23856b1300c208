// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/talent-engine/internal/logger"
	"github.com/pdiddy/talent-engine/pkg/types"
)

// githubAPIBase is the GitHub REST root. Declared as a var so tests can
// substitute an httptest server.
var githubAPIBase = "https://api.github.com"

// GitHub searches code-host users. Each user is enriched with the public
// profile and the most recently pushed repositories, which become activity
// observations.
type GitHub struct {
	http  httpSettings
	Token string

	// ReposPerUser bounds the repository lookup; 0 skips it.
	ReposPerUser int
}

func (c *GitHub) Name() string               { return NameGitHub }
func (c *GitHub) System() types.SourceSystem { return types.SourceCodeHost }

func (c *GitHub) header() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/vnd.github+json")
	h.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.Token != "" {
		h.Set("Authorization", "Bearer "+c.Token)
	}
	return h
}

// Search queries the user search endpoint. Per-user lookups that fail are
// logged and leave the record with what the search returned.
func (c *GitHub) Search(ctx context.Context, query string, limit int) ([]types.RawCandidateRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty GitHub query")
	}

	params := url.Values{
		"q":        {query},
		"per_page": {strconv.Itoa(clampLimit(limit, 30, 100))},
	}
	var resp githubUserSearch
	if err := c.http.getJSON(ctx, "GitHub", githubAPIBase+"/search/users?"+params.Encode(), c.header(), &resp); err != nil {
		return nil, err
	}

	log := logger.Named("connector.github")
	records := make([]types.RawCandidateRecord, 0, len(resp.Items))
	for _, u := range resp.Items {
		rec := types.RawCandidateRecord{
			SourceSystem: types.SourceCodeHost,
			SourceQuery:  query,
			ExternalID:   u.Login,
			DisplayName:  u.Login,
			EvidenceURLs: appendNonEmpty(nil, u.HTMLURL),
		}

		var prof githubProfile
		if err := c.http.getJSON(ctx, "GitHub", githubAPIBase+"/users/"+url.PathEscape(u.Login), c.header(), &prof); err != nil {
			log.Warn().Err(err).Str("login", u.Login).Msg("profile lookup failed")
		} else {
			if prof.Name != "" {
				rec.DisplayName = prof.Name
			}
			rec.Affiliation = strings.TrimPrefix(strings.TrimSpace(prof.Company), "@")
			if prof.Blog != "" && strings.HasPrefix(prof.Blog, "http") {
				rec.EvidenceURLs = append(rec.EvidenceURLs, prof.Blog)
			}
		}

		if c.ReposPerUser > 0 {
			obs, tags, err := c.repos(ctx, u.Login)
			if err != nil {
				log.Warn().Err(err).Str("login", u.Login).Msg("repository lookup failed")
			}
			rec.Observations = append(rec.Observations, obs...)
			rec.RawSignalTags = append(rec.RawSignalTags, tags...)
		}
		records = append(records, rec)
	}
	return records, nil
}

// repos returns one activity observation per owned, non-fork repository,
// labelled with the repository name and counted in stars.
func (c *GitHub) repos(ctx context.Context, login string) ([]types.Observation, []string, error) {
	params := url.Values{
		"sort":     {"pushed"},
		"type":     {"owner"},
		"per_page": {strconv.Itoa(clampLimit(c.ReposPerUser, 5, 100))},
	}
	var repos []githubRepo
	reqURL := githubAPIBase + "/users/" + url.PathEscape(login) + "/repos?" + params.Encode()
	if err := c.http.getJSON(ctx, "GitHub", reqURL, c.header(), &repos); err != nil {
		return nil, nil, err
	}

	var obs []types.Observation
	var tags []string
	for _, r := range repos {
		if r.Fork || r.PushedAt.IsZero() {
			continue
		}
		obs = append(obs, types.Observation{
			Kind:  types.ObservationActivity,
			At:    r.PushedAt,
			Count: r.StargazersCount,
			Label: r.FullName,
			URL:   r.HTMLURL,
		})
		tags = append(tags, r.Topics...)
		if r.Language != "" {
			tags = append(tags, r.Language)
		}
	}
	return obs, tags, nil
}

// GitHub API JSON structures.
type githubUserSearch struct {
	TotalCount int          `json:"total_count"`
	Items      []githubUser `json:"items"`
}

type githubUser struct {
	Login   string `json:"login"`
	HTMLURL string `json:"html_url"`
}

type githubProfile struct {
	Login   string `json:"login"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Blog    string `json:"blog"`
}

type githubRepo struct {
	FullName        string    `json:"full_name"`
	HTMLURL         string    `json:"html_url"`
	Fork            bool      `json:"fork"`
	StargazersCount int       `json:"stargazers_count"`
	Language        string    `json:"language"`
	Topics          []string  `json:"topics"`
	PushedAt        time.Time `json:"pushed_at"`
}
