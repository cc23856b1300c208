// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/talent-engine/internal/connector"
	"github.com/pdiddy/talent-engine/internal/logger"
	"github.com/pdiddy/talent-engine/internal/pipeline"
	"github.com/pdiddy/talent-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full discovery and watchlist pipeline",
	Long: `Run collects candidates for every configured scenario, resolves identities,
ranks persons, computes evidence signals, assigns watchlist tiers and writes
rows.csv, decisions.json and manifest.yaml to the output directory.

The run fails with a non-zero exit when a guardrail is violated; nothing is
published or persisted in that case except the manifest and the run log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		only, _ := cmd.Flags().GetStringSlice("scenario")
		if cfg.Scenarios, err = selectScenarios(cfg.Scenarios, only); err != nil {
			return err
		}
		runID, _ := cmd.Flags().GetString("run-id")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r := &pipeline.Runner{
			Config:     cfg,
			Connectors: connector.NewSet(cfg.Connectors, nil, configDir()),
			RunID:      runID,
			Log:        logger.Named("pipeline"),
		}
		res, err := r.Run(ctx)
		if res != nil {
			printSummary(cmd, res)
		}
		return err
	},
}

func init() {
	runCmd.Flags().String("output-dir", "", "directory for run artifacts")
	runCmd.Flags().String("schema", "", "canonical schema definition (default: embedded)")
	runCmd.Flags().StringSlice("scenario", nil, "run only these scenario ids")
	runCmd.Flags().String("run-id", "", "run identifier (default: random UUID)")
	runCmd.Flags().Bool("no-signals", false, "skip signal computation and watchlist decisions")
	runCmd.Flags().Bool("capture", false, "write the raw records to records.yaml")
	runCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this textfile")

	viper.BindPFlag("output.dir", runCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("output.schema_path", runCmd.Flags().Lookup("schema"))
	viper.BindPFlag("output.capture", runCmd.Flags().Lookup("capture"))
	viper.BindPFlag("output.metrics_file", runCmd.Flags().Lookup("metrics-file"))

	runCmd.PreRun = func(cmd *cobra.Command, args []string) {
		if off, _ := cmd.Flags().GetBool("no-signals"); off {
			viper.Set("signals.enabled", false)
		}
	}

	rootCmd.AddCommand(runCmd)
}

// selectScenarios keeps the scenarios named in only, in configured order.
func selectScenarios(all []types.ScenarioConfig, only []string) ([]types.ScenarioConfig, error) {
	if len(only) == 0 {
		return all, nil
	}
	want := make(map[string]bool, len(only))
	for _, id := range only {
		want[id] = true
	}
	var out []types.ScenarioConfig
	for _, sc := range all {
		if want[sc.ID] {
			out = append(out, sc)
			delete(want, sc.ID)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for id := range want {
			missing = append(missing, id)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("unknown scenario(s): %v", missing)
	}
	return out, nil
}

func printSummary(cmd *cobra.Command, res *pipeline.Result) {
	w := cmd.OutOrStdout()
	m := res.Manifest
	fmt.Fprintf(w, "run %s: %s\n", m.RunID, m.Status)
	fmt.Fprintf(w, "  records %d, persons %d, dropped %d, conflicts %d, rows %d\n",
		m.Records, m.Persons, m.Dropped, m.Conflicts, m.Rows)

	ids := make([]string, 0, len(m.ScenarioYields))
	for id := range m.ScenarioYields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		line := fmt.Sprintf("  scenario %-24s %d", id, m.ScenarioYields[id])
		if e, ok := m.ScenarioErrors[id]; ok {
			line += "  (error: " + e + ")"
		}
		fmt.Fprintln(w, line)
	}
	for _, tier := range []types.Tier{types.Tier1, types.Tier2, types.Tier3, types.Tier4} {
		if n, ok := m.Tiers[tier.String()]; ok {
			fmt.Fprintf(w, "  %s %d\n", tier, n)
		}
	}
	for _, f := range res.Files {
		fmt.Fprintf(w, "  wrote %s\n", f)
	}
}
