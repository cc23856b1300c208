// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package watchlist

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/pdiddy/talent-engine/internal/validate"
	"github.com/pdiddy/talent-engine/pkg/types"
)

// ErrInvalidConfig wraps every configuration rejection.
var ErrInvalidConfig = errors.New("invalid watchlist config")

const weightTolerance = 1e-9

// cadenceParser accepts standard five-field specs and descriptors such as
// "@weekly".
var cadenceParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateConfig checks that the weights sum to 1.0, the thresholds are
// strictly descending within [0,1], and every cadence entry names a tier and
// parses as a cron spec. All problems are reported together.
func ValidateConfig(cfg types.WatchlistConfig) error {
	var problems []string
	if err := validate.Struct(cfg); err != nil {
		problems = append(problems, err.Error())
	}

	w := cfg.Weights
	if sum := w.CitationVelocity + w.Activity + w.VenueChange + w.IPEvent; math.Abs(sum-1) > weightTolerance {
		problems = append(problems, fmt.Sprintf("weights sum to %.6f, want 1.0", sum))
	}

	th := cfg.Thresholds
	if !(th.Tier1 > th.Tier2 && th.Tier2 > th.Tier3) {
		problems = append(problems, fmt.Sprintf("thresholds must be strictly descending, got %.2f/%.2f/%.2f", th.Tier1, th.Tier2, th.Tier3))
	}

	if _, err := compileCadence(cfg.Cadence); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// compileCadence parses cadence specs keyed by tier label. Keys match
// case-insensitively because config loaders may lowercase map keys.
func compileCadence(cadence map[string]string) (map[types.Tier]cron.Schedule, error) {
	keys := make([]string, 0, len(cadence))
	for k := range cadence {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[types.Tier]cron.Schedule, len(cadence))
	var problems []string
	for _, k := range keys {
		tier, err := parseTierKey(k)
		if err != nil {
			problems = append(problems, fmt.Sprintf("cadence: %v", err))
			continue
		}
		if _, dup := out[tier]; dup {
			problems = append(problems, fmt.Sprintf("cadence: %s declared twice", tier))
			continue
		}
		sched, err := cadenceParser.Parse(strings.TrimSpace(cadence[k]))
		if err != nil {
			problems = append(problems, fmt.Sprintf("cadence %s: %v", tier, err))
			continue
		}
		out[tier] = sched
	}
	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}
	return out, nil
}

func parseTierKey(k string) (types.Tier, error) {
	k = strings.TrimSpace(k)
	if len(k) > 4 && strings.EqualFold(k[:4], "tier") {
		k = "Tier" + k[4:]
	}
	return types.ParseTier(k)
}
