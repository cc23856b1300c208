// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/talent-engine/internal/store"
	"github.com/pdiddy/talent-engine/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query watchlist decision history",
	Long: `History lists stored watchlist decisions, newest first when --newest is set,
filtered by person, run, tier or decision time. With --export the matching
decisions are written to history.yaml or history.json in the cache
directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := historyOptions(cmd)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		w := cmd.OutOrStdout()

		switch export, _ := cmd.Flags().GetString("export"); export {
		case "":
		case "yaml":
			path, err := st.ExportYAML(ctx, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "exported", path)
			return nil
		case "json":
			path, err := st.ExportJSON(ctx, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "exported", path)
			return nil
		default:
			return fmt.Errorf("unknown export format %q (want yaml or json)", export)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			entries, err := st.ExportEntries(ctx, opts)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		decisions, err := st.History(ctx, opts)
		if err != nil {
			return err
		}
		if len(decisions) == 0 {
			fmt.Fprintln(w, "No decisions found.")
			return nil
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-6s  %-6s  %-9s  %s\n", "Person", "Decided", "Tier", "Change", "Composite", "Next review")
		for _, d := range decisions {
			next := ""
			if !d.NextReviewAt.IsZero() {
				next = d.NextReviewAt.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%-36s  %-20s  %-6s  %-6s  %9.4f  %s\n",
				d.PersonID, d.DecidedAt.Format(time.RFC3339), d.MonitoringTier, d.TierChange, d.CompositeScore, next)
		}
		return nil
	},
}

var historyRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.Runs(cmd.Context(), limit)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, r := range runs {
			fmt.Fprintf(w, "%-36s  %-20s  %-9s  persons %-5d rows %-5d %s\n",
				r.RunID, r.StartedAt.Format(time.RFC3339), r.Status, r.Persons, r.Rows, r.Error)
		}
		return nil
	},
}

func historyOptions(cmd *cobra.Command) (store.HistoryOptions, error) {
	var opts store.HistoryOptions
	opts.PersonID, _ = cmd.Flags().GetString("person")
	opts.RunID, _ = cmd.Flags().GetString("run")
	opts.Newest, _ = cmd.Flags().GetBool("newest")
	opts.Limit, _ = cmd.Flags().GetInt("limit")

	if s, _ := cmd.Flags().GetString("tier"); s != "" {
		tier, err := types.ParseTier(s)
		if err != nil {
			return opts, err
		}
		opts.Tier = tier
	}
	if s, _ := cmd.Flags().GetString("since"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return opts, fmt.Errorf("invalid --since %q: %w", s, err)
		}
		opts.Since = t
	}
	return opts, nil
}

func init() {
	historyCmd.Flags().String("person", "", "filter by person id")
	historyCmd.Flags().String("run", "", "filter by run id")
	historyCmd.Flags().String("tier", "", "filter by tier (Tier_1..Tier_4)")
	historyCmd.Flags().String("since", "", "only decisions on or after this date (YYYY-MM-DD)")
	historyCmd.Flags().Bool("newest", false, "newest decisions first")
	historyCmd.Flags().Int("limit", 50, "maximum number of decisions")
	historyCmd.Flags().Bool("json", false, "output decisions as JSON")
	historyCmd.Flags().String("export", "", "export to history.yaml or history.json in the cache directory (yaml|json)")

	historyRunsCmd.Flags().Int("limit", 20, "maximum number of runs")

	historyCmd.AddCommand(historyRunsCmd)
	rootCmd.AddCommand(historyCmd)
}
