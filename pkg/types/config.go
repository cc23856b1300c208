// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by connectors that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "talent-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds 429 retries per request (0 uses the helper default).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0"`
}

// ScenarioConfig declares one discovery scenario: a query run against one
// connector. Guardrail yields are counted per scenario ID.
type ScenarioConfig struct {
	ID        string `json:"id" yaml:"id" mapstructure:"id" validate:"required"`
	Connector string `json:"connector" yaml:"connector" mapstructure:"connector" validate:"required"`
	Query     string `json:"query" yaml:"query" mapstructure:"query" validate:"required"`
	Limit     int    `json:"limit" yaml:"limit" mapstructure:"limit" validate:"gte=0"`
}

// ConnectorConfig holds settings for the source connectors.
type ConnectorConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Concurrency caps the number of scenarios searched at once.
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency" validate:"gte=0"`

	// DefaultLimit applies to scenarios that do not set one.
	DefaultLimit int `json:"default_limit" yaml:"default_limit" mapstructure:"default_limit" validate:"gte=0"`

	// OpenAlexEmail is sent as mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`

	// WorksPerAuthor is how many recent works are fetched per OpenAlex
	// author to observe publication venues (0 disables the extra call).
	WorksPerAuthor int `json:"works_per_author" yaml:"works_per_author" mapstructure:"works_per_author" validate:"gte=0"`

	// ReposPerUser is how many recently pushed repositories are fetched per
	// code-host user (0 disables the extra call).
	ReposPerUser int `json:"repos_per_user" yaml:"repos_per_user" mapstructure:"repos_per_user" validate:"gte=0"`

	GitHubToken           string `json:"github_token,omitempty" yaml:"github_token,omitempty" mapstructure:"github_token"`
	PatentsViewAPIKey     string `json:"patentsview_api_key,omitempty" yaml:"patentsview_api_key,omitempty" mapstructure:"patentsview_api_key"`
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`
}

// ResolverConfig holds identity resolution settings.
type ResolverConfig struct {
	// EvidenceCap bounds the evidence URLs retained per Person. The
	// earliest URLs are kept.
	EvidenceCap int `json:"evidence_cap" yaml:"evidence_cap" mapstructure:"evidence_cap" validate:"gte=1"`
}

// SignalConfig holds the signal engine settings.
type SignalConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Window is the evidence time window (default 365 days).
	Window time.Duration `json:"window" yaml:"window" mapstructure:"window" validate:"gt=0"`

	// CitationCap is the windowed citation count that maps to 1.0.
	CitationCap int `json:"citation_cap" yaml:"citation_cap" mapstructure:"citation_cap" validate:"gte=1"`

	// PopularityCap is the stars/events count that maps to the full
	// popularity term.
	PopularityCap int `json:"popularity_cap" yaml:"popularity_cap" mapstructure:"popularity_cap" validate:"gte=1"`

	// VenueHitCap is the number of target-venue hits that maps to the full
	// venue base score.
	VenueHitCap int `json:"venue_hit_cap" yaml:"venue_hit_cap" mapstructure:"venue_hit_cap" validate:"gte=1"`

	// PatentCap is the windowed filing count that maps to 1.0.
	PatentCap int `json:"patent_cap" yaml:"patent_cap" mapstructure:"patent_cap" validate:"gte=1"`

	// TargetVenues lists venue names counted as hits (case-insensitive).
	TargetVenues []string `json:"target_venues" yaml:"target_venues" mapstructure:"target_venues"`
}

// Weights are the composite weights of the four sub-signals. They must sum to 1.0.
type Weights struct {
	CitationVelocity float64 `json:"citation_velocity" yaml:"citation_velocity" mapstructure:"citation_velocity" validate:"gte=0,lte=1"`
	Activity         float64 `json:"activity" yaml:"activity" mapstructure:"activity" validate:"gte=0,lte=1"`
	VenueChange      float64 `json:"venue_change" yaml:"venue_change" mapstructure:"venue_change" validate:"gte=0,lte=1"`
	IPEvent          float64 `json:"ip_event" yaml:"ip_event" mapstructure:"ip_event" validate:"gte=0,lte=1"`
}

// Thresholds are the lower bounds of Tier_1..Tier_3, strictly descending.
type Thresholds struct {
	Tier1 float64 `json:"tier_1" yaml:"tier_1" mapstructure:"tier_1" validate:"gte=0,lte=1"`
	Tier2 float64 `json:"tier_2" yaml:"tier_2" mapstructure:"tier_2" validate:"gte=0,lte=1"`
	Tier3 float64 `json:"tier_3" yaml:"tier_3" mapstructure:"tier_3" validate:"gte=0,lte=1"`
}

// WatchlistConfig is the versioned configuration of the decision engine.
type WatchlistConfig struct {
	Version    string     `json:"version" yaml:"version" mapstructure:"version" validate:"required"`
	Weights    Weights    `json:"weights" yaml:"weights" mapstructure:"weights"`
	Thresholds Thresholds `json:"thresholds" yaml:"thresholds" mapstructure:"thresholds"`

	// Cadence maps a tier label ("Tier_1") to a standard cron spec used to
	// schedule the next review.
	Cadence map[string]string `json:"cadence" yaml:"cadence" mapstructure:"cadence"`
}

// GuardrailConfig holds the fail-closed run quality thresholds.
type GuardrailConfig struct {
	MinPerScenario      int  `json:"min_per_scenario" yaml:"min_per_scenario" mapstructure:"min_per_scenario" validate:"gte=0"`
	MinTotal            int  `json:"min_total" yaml:"min_total" mapstructure:"min_total" validate:"gte=0"`
	RequireEvidenceURLs bool `json:"require_evidence_urls" yaml:"require_evidence_urls" mapstructure:"require_evidence_urls"`

	// EvidenceColumn and IDColumn name the row-set columns the evidence
	// check reads (defaults "evidence_urls" and "person_id").
	EvidenceColumn string `json:"evidence_column" yaml:"evidence_column" mapstructure:"evidence_column"`
	IDColumn       string `json:"id_column" yaml:"id_column" mapstructure:"id_column"`
}

// OutputConfig holds settings for output artifacts.
type OutputConfig struct {
	// Dir receives rows.csv, decisions.json and manifest.yaml.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir" validate:"required"`

	// SchemaPath is the canonical schema definition. Empty uses the
	// embedded default.
	SchemaPath string `json:"schema_path,omitempty" yaml:"schema_path,omitempty" mapstructure:"schema_path"`

	// Sidecar enables the per-Person decision JSON document.
	Sidecar bool `json:"sidecar" yaml:"sidecar" mapstructure:"sidecar"`

	// Capture writes the raw collected records to records.yaml so the run
	// can be replayed with the file connector.
	Capture bool `json:"capture" yaml:"capture" mapstructure:"capture"`

	// MetricsFile, when set, receives a Prometheus textfile after the run.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
}

// StoreConfig holds settings for the snapshot and decision store.
type StoreConfig struct {
	// CacheDir holds talent.db. One run at a time per directory.
	CacheDir string `json:"cache_dir" yaml:"cache_dir" mapstructure:"cache_dir" validate:"required"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level" validate:"omitempty,oneof=trace debug info warn warning error"`
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"omitempty,oneof=console json"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Scenarios  []ScenarioConfig `json:"scenarios" yaml:"scenarios" mapstructure:"scenarios" validate:"dive"`
	Connectors ConnectorConfig  `json:"connectors" yaml:"connectors" mapstructure:"connectors"`
	Resolver   ResolverConfig   `json:"resolver" yaml:"resolver" mapstructure:"resolver"`
	Signals    SignalConfig     `json:"signals" yaml:"signals" mapstructure:"signals"`
	Watchlist  WatchlistConfig  `json:"watchlist" yaml:"watchlist" mapstructure:"watchlist"`
	Guardrail  GuardrailConfig  `json:"guardrail" yaml:"guardrail" mapstructure:"guardrail"`
	Output     OutputConfig     `json:"output" yaml:"output" mapstructure:"output"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultPipelineConfig returns the configuration used when no file or flag
// overrides a value.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Connectors: ConnectorConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "talent-engine/0.1",
			},
			Concurrency:    4,
			DefaultLimit:   50,
			WorksPerAuthor: 10,
			ReposPerUser:   5,
		},
		Resolver: ResolverConfig{EvidenceCap: 25},
		Signals: SignalConfig{
			Enabled:       true,
			Window:        365 * 24 * time.Hour,
			CitationCap:   1000,
			PopularityCap: 5000,
			VenueHitCap:   5,
			PatentCap:     5,
		},
		Watchlist: DefaultWatchlistConfig(),
		Guardrail: GuardrailConfig{
			MinPerScenario:      1,
			MinTotal:            1,
			RequireEvidenceURLs: true,
			EvidenceColumn:      "evidence_urls",
			IDColumn:            "person_id",
		},
		Output: OutputConfig{Dir: "output", Sidecar: true},
		Store:  StoreConfig{CacheDir: "cache"},
		Log:    LogConfig{Level: "info", Format: "console"},
	}
}

// DefaultWatchlistConfig returns version "v1" of the decision weights.
func DefaultWatchlistConfig() WatchlistConfig {
	return WatchlistConfig{
		Version: "v1",
		Weights: Weights{
			CitationVelocity: 0.35,
			Activity:         0.25,
			VenueChange:      0.25,
			IPEvent:          0.15,
		},
		Thresholds: Thresholds{Tier1: 0.70, Tier2: 0.45, Tier3: 0.25},
		Cadence: map[string]string{
			Tier1.String(): "0 6 * * 1",
			Tier2.String(): "0 6 1 * *",
			Tier3.String(): "0 6 1 */3 *",
			Tier4.String(): "0 6 1 1 *",
		},
	}
}
