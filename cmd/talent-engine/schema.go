// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/talent-engine/internal/output"
	"github.com/pdiddy/talent-engine/internal/pipeline"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect the canonical output schema",
}

var schemaCheckCmd = &cobra.Command{
	Use:   "check [rows.csv]",
	Short: "Validate the schema definition, and optionally a CSV header against it",
	Long: `Check loads the canonical schema definition (the embedded default or
--schema) and reports its version and columns. Every column must be one the
projector can fill.

Given a CSV file, check also maps its header through the alias table and
requires the exact canonical column list, in order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("schema")
		if path == "" {
			path = viper.GetString("output.schema_path")
		}
		reg, err := pipeline.LoadSchema(path)
		if err != nil {
			return err
		}
		for _, c := range reg.Columns() {
			if !output.Supported(c) {
				return fmt.Errorf("schema %s: column %q has no projection", reg.Version(), c)
			}
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "schema %s: %d columns\n", reg.Version(), reg.Len())
		if len(args) == 0 {
			for i, c := range reg.Columns() {
				fmt.Fprintf(w, "  %2d  %s\n", i+1, c)
			}
			return nil
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		rs, err := output.ReadCSV(f, reg)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		if err := reg.Validate(rs.Columns); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		fmt.Fprintf(w, "%s: ok (%d rows)\n", args[0], len(rs.Rows))
		return nil
	},
}

func init() {
	schemaCheckCmd.Flags().String("schema", "", "schema definition file (default: configured or embedded)")
	schemaCmd.AddCommand(schemaCheckCmd)
	rootCmd.AddCommand(schemaCmd)
}
