// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one end-to-end talent research pass: collect raw
// records from every scenario, resolve identities, rank, compute signals,
// decide watchlist tiers, project the canonical rows, and check the
// guardrails before anything is persisted or published.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/talent-engine/internal/connector"
	"github.com/pdiddy/talent-engine/internal/guardrail"
	"github.com/pdiddy/talent-engine/internal/identity"
	"github.com/pdiddy/talent-engine/internal/logger"
	"github.com/pdiddy/talent-engine/internal/metrics"
	"github.com/pdiddy/talent-engine/internal/output"
	"github.com/pdiddy/talent-engine/internal/schema"
	"github.com/pdiddy/talent-engine/internal/scoring"
	"github.com/pdiddy/talent-engine/internal/signal"
	"github.com/pdiddy/talent-engine/internal/store"
	"github.com/pdiddy/talent-engine/internal/validate"
	"github.com/pdiddy/talent-engine/internal/watchlist"
	"github.com/pdiddy/talent-engine/pkg/types"
)

// Runner holds what a run needs. Zero-valued optional fields get defaults:
// a store opened from Config.Store, fresh metrics, the wall clock, a random
// run id and the "pipeline" logger.
type Runner struct {
	Config     types.PipelineConfig
	Connectors connector.Set

	Store   *store.Store
	Metrics *metrics.Metrics
	Now     func() time.Time
	RunID   string
	Log     *logger.Logger
}

// Result is the outcome of a run. On a guardrail violation Run returns a
// Result along with the error so callers can report what was found.
type Result struct {
	RunID      string
	Collection connector.Report
	Resolution identity.Result
	Ranked     []scoring.Ranked
	Bundles    map[string]types.SignalBundle
	Decisions  map[string]types.WatchlistDecision
	Rows       types.RowSet
	Manifest   output.Manifest
	Files      []string
}

// ValidateConfig checks every stage configuration and collects all problems.
func ValidateConfig(cfg types.PipelineConfig) error {
	var errs []error
	if err := validate.Struct(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := watchlist.ValidateConfig(cfg.Watchlist); err != nil {
		errs = append(errs, err)
	}
	if err := guardrail.ValidateConfig(cfg.Guardrail); err != nil {
		errs = append(errs, err)
	}
	if len(cfg.Scenarios) == 0 {
		errs = append(errs, errors.New("no scenarios configured"))
	}
	return errors.Join(errs...)
}

// LoadSchema returns the registry at path, or the embedded default when
// path is empty.
func LoadSchema(path string) (*schema.Registry, error) {
	if path == "" {
		return schema.Default()
	}
	return schema.Load(path)
}

func (r *Runner) defaults() {
	if r.Now == nil {
		r.Now = time.Now
	}
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.Log == nil {
		r.Log = logger.Named("pipeline")
	}
	if r.Metrics == nil {
		r.Metrics = metrics.New()
	}
}

// Run executes the pipeline. Schema, configuration and guardrail errors are
// fatal; per-record identity failures and uncomputable signals are counted
// and reported, never fatal.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	r.defaults()
	cfg := r.Config
	log := r.Log.With().Str("run_id", r.RunID).Logger()

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	reg, err := LoadSchema(cfg.Output.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	if err := connector.CheckScenarios(cfg.Scenarios, r.Connectors); err != nil {
		return nil, err
	}
	wl, err := watchlist.New(cfg.Watchlist, watchlist.WithClock(r.Now), watchlist.WithLogger(logger.Named("watchlist")))
	if err != nil {
		return nil, err
	}

	st := r.Store
	if st == nil {
		if st, err = store.Open(cfg.Store); err != nil {
			return nil, err
		}
		defer st.Close()
	}

	startedAt := r.Now().UTC()
	if err := st.BeginRun(ctx, r.RunID, cfg.Watchlist.Version, startedAt); err != nil {
		return nil, err
	}

	res := &Result{RunID: r.RunID}
	runErr := r.run(ctx, reg, wl, st, res, &log)

	res.Manifest = r.manifest(reg, res, startedAt, runErr)
	if path, err := output.WriteFile(cfg.Output.Dir, output.ManifestFile, func(w io.Writer) error {
		return output.WriteManifest(w, res.Manifest)
	}); err != nil {
		runErr = errors.Join(runErr, err)
	} else {
		res.Files = append(res.Files, path)
	}

	if runErr == nil {
		r.Metrics.LastRunSuccess.Set(1)
	} else {
		r.Metrics.LastRunSuccess.Set(0)
	}
	if cfg.Output.MetricsFile != "" {
		if err := r.Metrics.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			log.Warn().Err(err).Msg("metrics textfile not written")
		}
	}

	totals := store.RunTotals{
		Records: res.Collection.Records,
		Persons: len(res.Resolution.Persons),
		Dropped: len(res.Resolution.Dropped),
		Rows:    len(res.Rows.Rows),
	}
	// The run log is written even when ctx is cancelled.
	if err := st.FinishRun(context.WithoutCancel(ctx), r.RunID, totals, runErr, r.Now().UTC()); err != nil {
		runErr = errors.Join(runErr, err)
	}

	if runErr != nil {
		log.Error().Err(runErr).Msg("run failed")
		return res, runErr
	}
	log.Info().
		Int("records", totals.Records).
		Int("persons", totals.Persons).
		Int("rows", totals.Rows).
		Strs("files", res.Files).
		Msg("run complete")
	return res, nil
}

func (r *Runner) run(ctx context.Context, reg *schema.Registry, wl *watchlist.Engine, st *store.Store, res *Result, log *logger.Logger) error {
	cfg := r.Config
	m := r.Metrics

	// Collect and resolve.
	start := time.Now()
	sink := identity.NewSink(identity.NewResolver(cfg.Resolver.EvidenceCap, logger.Named("identity")), 64)
	rep, err := connector.Collect(ctx, cfg.Scenarios, r.Connectors, sink.In, connector.CollectOptions{
		Concurrency:  cfg.Connectors.Concurrency,
		DefaultLimit: cfg.Connectors.DefaultLimit,
		Now:          r.Now,
		Log:          logger.Named("collect"),
	})
	close(sink.In)
	resolution, records := sink.Wait()
	res.Collection = rep
	res.Resolution = resolution
	m.ObserveStage("collect", start)
	if err != nil {
		return err
	}

	for sys, n := range rep.BySource {
		m.RecordsCollected.WithLabelValues(string(sys)).Add(float64(n))
	}
	for _, id := range rep.Failed() {
		m.ConnectorFailures.WithLabelValues(id).Inc()
	}
	for _, d := range resolution.Dropped {
		m.RecordsDropped.WithLabelValues(string(d.Kind)).Inc()
	}
	m.IdentityConflicts.Add(float64(resolution.Conflicts))
	m.PersonsResolved.Set(float64(len(resolution.Persons)))

	// Rank.
	res.Ranked = scoring.Rank(resolution.Persons)

	// Signals and decisions.
	snapshots := newStagedSnapshots(st)
	if cfg.Signals.Enabled {
		start = time.Now()
		if err := r.decide(ctx, wl, snapshots, st, res); err != nil {
			return err
		}
		m.ObserveStage("signals", start)
	}

	// Project and check.
	res.Rows, err = output.Project(reg, output.Input{
		Ranked:    res.Ranked,
		Bundles:   res.Bundles,
		Decisions: res.Decisions,
		Run:       output.RunMeta{RunID: r.RunID, GeneratedAt: r.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if err := reg.Validate(res.Rows.Columns); err != nil {
		return err
	}
	m.RowsEmitted.Set(float64(len(res.Rows.Rows)))

	if err := guardrail.Validate(rep.Yields, len(res.Rows.Rows), res.Rows, cfg.Guardrail); err != nil {
		var v *guardrail.Violation
		if errors.As(err, &v) {
			for _, f := range v.Failures {
				m.GuardrailFailures.WithLabelValues(string(f.Kind)).Inc()
			}
		}
		return err
	}

	// Stage the artifacts, commit the store, then publish. Anything failing
	// before the commit leaves neither artifacts nor a moved baseline.
	staging := output.NewStaging(cfg.Output.Dir)
	defer staging.Discard()
	if err := r.stage(staging, reg, res, records); err != nil {
		return err
	}

	venues := snapshots.staged()
	if err := st.Commit(ctx, store.Commit{
		RunID:     r.RunID,
		Persons:   resolution.Persons,
		Venues:    venues,
		Decisions: orderedDecisions(res),
	}); err != nil {
		return err
	}
	log.Debug().Int("persons", len(resolution.Persons)).Int("snapshots", len(venues)).
		Int("decisions", len(res.Decisions)).Msg("run committed")

	paths, err := staging.Publish()
	res.Files = append(res.Files, paths...)
	for _, p := range paths {
		log.Debug().Str("path", p).Msg("wrote artifact")
	}
	return err
}

// decide builds a bundle and a decision for every ranked person.
func (r *Runner) decide(ctx context.Context, wl *watchlist.Engine, snapshots *stagedSnapshots, st *store.Store, res *Result) error {
	m := r.Metrics
	engine := signal.NewEngine(signal.ConfigFrom(r.Config.Signals), snapshots,
		signal.WithClock(r.Now),
		signal.WithRunID(r.RunID),
		signal.WithLogger(logger.Named("signal")),
	)

	ids := make([]string, len(res.Ranked))
	for i, rk := range res.Ranked {
		ids[i] = rk.Person.PersonID
	}
	previous, err := st.LatestDecisions(ctx, ids)
	if err != nil {
		return err
	}

	res.Bundles = make(map[string]types.SignalBundle, len(res.Ranked))
	res.Decisions = make(map[string]types.WatchlistDecision, len(res.Ranked))
	for _, rk := range res.Ranked {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := rk.Person
		b := engine.BuildBundle(ctx, p, 0)
		for _, s := range signal.Ordered(b) {
			if s.Sub.Details.Status == types.SignalNotComputed {
				m.SignalsNotComputed.WithLabelValues(s.Name).Inc()
			}
		}

		in := watchlist.Input{RunID: r.RunID, Person: p}
		if prev, ok := previous[p.PersonID]; ok {
			in.Previous = &prev
		}
		d := wl.DecideWith(b, in)
		m.Decisions.WithLabelValues(d.MonitoringTier.String(), string(d.TierChange)).Inc()

		res.Bundles[p.PersonID] = b
		res.Decisions[p.PersonID] = d
	}
	return nil
}

// orderedDecisions returns decisions in rank order.
func orderedDecisions(res *Result) []types.WatchlistDecision {
	out := make([]types.WatchlistDecision, 0, len(res.Decisions))
	for _, rk := range res.Ranked {
		if d, ok := res.Decisions[rk.Person.PersonID]; ok {
			out = append(out, d)
		}
	}
	return out
}

// stage writes rows.csv, the sidecar and the record capture to temporary
// files in the output directory.
func (r *Runner) stage(st *output.Staging, reg *schema.Registry, res *Result, records []types.RawCandidateRecord) error {
	out := r.Config.Output

	if err := st.Write(output.RowsFile, func(w io.Writer) error { return output.WriteCSV(w, res.Rows) }); err != nil {
		return err
	}
	if out.Sidecar {
		sc := output.NewSidecar(output.Input{
			Ranked:    res.Ranked,
			Decisions: res.Decisions,
			Run:       output.RunMeta{RunID: r.RunID, GeneratedAt: r.Now().UTC()},
		}, reg.Version(), r.Config.Watchlist.Version)
		if err := st.Write(output.SidecarFile, func(w io.Writer) error { return output.WriteSidecar(w, sc) }); err != nil {
			return err
		}
	}
	if out.Capture {
		capture := connector.NewCapture(r.RunID, r.Now(), records, res.Collection)
		if err := st.Write(output.RecordsFile, func(w io.Writer) error { return connector.EncodeCapture(w, capture) }); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) manifest(reg *schema.Registry, res *Result, startedAt time.Time, runErr error) output.Manifest {
	m := output.Manifest{
		RunID:          r.RunID,
		Status:         store.RunSucceeded,
		StartedAt:      startedAt,
		FinishedAt:     r.Now().UTC(),
		SchemaVersion:  reg.Version(),
		ConfigVersion:  r.Config.Watchlist.Version,
		Records:        res.Collection.Records,
		Persons:        len(res.Resolution.Persons),
		Dropped:        len(res.Resolution.Dropped),
		Conflicts:      res.Resolution.Conflicts,
		Rows:           len(res.Rows.Rows),
		ScenarioYields: res.Collection.Yields,
		ScenarioErrors: res.Collection.Errors,
	}
	if runErr != nil {
		m.Status = store.RunFailed
		m.Error = runErr.Error()
	}
	if len(res.Decisions) > 0 {
		m.Tiers = make(map[string]int)
		for _, d := range res.Decisions {
			m.Tiers[d.MonitoringTier.String()]++
		}
	}
	for _, f := range res.Files {
		m.Files = append(m.Files, filepath.Base(f))
	}
	sort.Strings(m.Files)
	return m
}
