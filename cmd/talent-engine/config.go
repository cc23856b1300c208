// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/pdiddy/talent-engine/internal/secrets"
	"github.com/pdiddy/talent-engine/pkg/types"
)

// setDefaults registers the scalar defaults with viper so environment
// variables such as TALENT_ENGINE_OUTPUT_DIR are picked up by Unmarshal.
func setDefaults(d types.PipelineConfig) {
	viper.SetDefault("connectors.timeout", d.Connectors.Timeout)
	viper.SetDefault("connectors.user_agent", d.Connectors.UserAgent)
	viper.SetDefault("connectors.max_retries", d.Connectors.MaxRetries)
	viper.SetDefault("connectors.concurrency", d.Connectors.Concurrency)
	viper.SetDefault("connectors.default_limit", d.Connectors.DefaultLimit)
	viper.SetDefault("connectors.works_per_author", d.Connectors.WorksPerAuthor)
	viper.SetDefault("connectors.repos_per_user", d.Connectors.ReposPerUser)
	viper.SetDefault("connectors.openalex_email", "")
	viper.SetDefault("connectors.github_token", "")
	viper.SetDefault("connectors.patentsview_api_key", "")
	viper.SetDefault("connectors.semantic_scholar_api_key", "")

	viper.SetDefault("resolver.evidence_cap", d.Resolver.EvidenceCap)

	viper.SetDefault("signals.enabled", d.Signals.Enabled)
	viper.SetDefault("signals.window", d.Signals.Window)
	viper.SetDefault("signals.citation_cap", d.Signals.CitationCap)
	viper.SetDefault("signals.popularity_cap", d.Signals.PopularityCap)
	viper.SetDefault("signals.venue_hit_cap", d.Signals.VenueHitCap)
	viper.SetDefault("signals.patent_cap", d.Signals.PatentCap)

	viper.SetDefault("watchlist.version", d.Watchlist.Version)
	viper.SetDefault("watchlist.weights.citation_velocity", d.Watchlist.Weights.CitationVelocity)
	viper.SetDefault("watchlist.weights.activity", d.Watchlist.Weights.Activity)
	viper.SetDefault("watchlist.weights.venue_change", d.Watchlist.Weights.VenueChange)
	viper.SetDefault("watchlist.weights.ip_event", d.Watchlist.Weights.IPEvent)
	viper.SetDefault("watchlist.thresholds.tier_1", d.Watchlist.Thresholds.Tier1)
	viper.SetDefault("watchlist.thresholds.tier_2", d.Watchlist.Thresholds.Tier2)
	viper.SetDefault("watchlist.thresholds.tier_3", d.Watchlist.Thresholds.Tier3)
	viper.SetDefault("watchlist.cadence", d.Watchlist.Cadence)

	viper.SetDefault("guardrail.min_per_scenario", d.Guardrail.MinPerScenario)
	viper.SetDefault("guardrail.min_total", d.Guardrail.MinTotal)
	viper.SetDefault("guardrail.require_evidence_urls", d.Guardrail.RequireEvidenceURLs)
	viper.SetDefault("guardrail.evidence_column", d.Guardrail.EvidenceColumn)
	viper.SetDefault("guardrail.id_column", d.Guardrail.IDColumn)

	viper.SetDefault("output.dir", d.Output.Dir)
	viper.SetDefault("output.schema_path", "")
	viper.SetDefault("output.sidecar", d.Output.Sidecar)
	viper.SetDefault("output.capture", d.Output.Capture)
	viper.SetDefault("output.metrics_file", "")

	viper.SetDefault("store.cache_dir", d.Store.CacheDir)
	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.format", d.Log.Format)
}

// loadConfig unmarshals the merged configuration (defaults, file,
// environment, flags) and fills API keys from the secrets directory.
func loadConfig() (types.PipelineConfig, error) {
	cfg := types.DefaultPipelineConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	secrets.Apply(&cfg.Connectors, loadedSecrets)
	return cfg, nil
}

// configDir is the directory relative file scenarios resolve against.
func configDir() string {
	if f := viper.ConfigFileUsed(); f != "" {
		return filepath.Dir(f)
	}
	return "."
}
