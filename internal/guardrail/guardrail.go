// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package guardrail enforces the fail-closed quality checks a run must pass
// before its output is considered valid: per-scenario yield, total yield and
// evidence completeness. Every violation is collected; none short-circuits.
package guardrail

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/talent-engine/internal/validate"
	"github.com/pdiddy/talent-engine/pkg/types"
)

// Kind classifies a single violation.
type Kind string

const (
	KindScenarioYield   Kind = "scenario_yield"
	KindTotalYield      Kind = "total_yield"
	KindMissingEvidence Kind = "missing_evidence"
	KindMissingColumn   Kind = "missing_column"
)

// Failure is one failed check.
type Failure struct {
	Kind Kind `json:"kind" yaml:"kind"`

	// Subject is the scenario id, row identifier or column the check is
	// about. Empty for the total yield.
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`

	Got  int `json:"got" yaml:"got"`
	Want int `json:"want" yaml:"want"`
}

func (f Failure) String() string {
	switch f.Kind {
	case KindScenarioYield:
		return fmt.Sprintf("scenario %q yielded %d, minimum %d", f.Subject, f.Got, f.Want)
	case KindTotalYield:
		return fmt.Sprintf("total yield %d, minimum %d", f.Got, f.Want)
	case KindMissingEvidence:
		return fmt.Sprintf("row %s has no evidence", f.Subject)
	case KindMissingColumn:
		return fmt.Sprintf("row set has no %q column", f.Subject)
	}
	return string(f.Kind)
}

// Violation is the aggregated error returned when any check fails.
type Violation struct {
	Failures []Failure
}

func (v *Violation) Error() string {
	msgs := make([]string, len(v.Failures))
	for i, f := range v.Failures {
		msgs[i] = f.String()
	}
	return fmt.Sprintf("guardrail violation (%d): %s", len(v.Failures), strings.Join(msgs, "; "))
}

// Scenarios returns the ids of scenarios that failed the yield check.
func (v *Violation) Scenarios() []string {
	var out []string
	for _, f := range v.Failures {
		if f.Kind == KindScenarioYield {
			out = append(out, f.Subject)
		}
	}
	return out
}

// Count returns the number of failures of kind k.
func (v *Violation) Count(k Kind) int {
	n := 0
	for _, f := range v.Failures {
		if f.Kind == k {
			n++
		}
	}
	return n
}

// ValidateConfig checks the guardrail thresholds.
func ValidateConfig(cfg types.GuardrailConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid guardrail config: %w", err)
	}
	return nil
}

// Validate runs every check and returns a *Violation listing all failures,
// or nil. Bounds are inclusive: a yield equal to the minimum passes.
// Scenarios are checked in sorted id order so the report is stable.
func Validate(yields map[string]int, total int, rows types.RowSet, cfg types.GuardrailConfig) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	var v Violation

	ids := make([]string, 0, len(yields))
	for id := range yields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if got := yields[id]; got < cfg.MinPerScenario {
			v.Failures = append(v.Failures, Failure{Kind: KindScenarioYield, Subject: id, Got: got, Want: cfg.MinPerScenario})
		}
	}

	if total < cfg.MinTotal {
		v.Failures = append(v.Failures, Failure{Kind: KindTotalYield, Got: total, Want: cfg.MinTotal})
	}

	if cfg.RequireEvidenceURLs {
		v.Failures = append(v.Failures, evidenceFailures(rows, cfg)...)
	}

	if len(v.Failures) == 0 {
		return nil
	}
	return &v
}

func evidenceFailures(rows types.RowSet, cfg types.GuardrailConfig) []Failure {
	evCol := cfg.EvidenceColumn
	if evCol == "" {
		evCol = "evidence_urls"
	}
	idCol := cfg.IDColumn
	if idCol == "" {
		idCol = "person_id"
	}

	if rows.Index(evCol) < 0 {
		if len(rows.Rows) == 0 {
			return nil
		}
		return []Failure{{Kind: KindMissingColumn, Subject: evCol}}
	}

	var out []Failure
	for i := range rows.Rows {
		if strings.TrimSpace(rows.Value(i, evCol)) != "" {
			continue
		}
		subject := fmt.Sprintf("#%d", i+1)
		if id := rows.Value(i, idCol); id != "" {
			subject += " (" + id + ")"
		}
		out = append(out, Failure{Kind: KindMissingEvidence, Subject: subject})
	}
	return out
}
