// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the talent-engine CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/talent-engine/internal/logger"
	"github.com/pdiddy/talent-engine/internal/secrets"
	"github.com/pdiddy/talent-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from the secrets directory at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the talent-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "talent-engine",
	Short: "Deterministic talent research pipeline",
	Long: `talent-engine discovers candidates across scholarly indexes, code hosts and
patent indexes, resolves them into deduplicated persons, ranks them with a
fixed explainable score, and assigns each a watchlist tier from dated
evidence signals.

Every run writes a canonical CSV, an audit sidecar and a run manifest, and
fails closed when the guardrails are not met.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init(logger.Options{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		})
		log := logger.Named("cli")
		if f := viper.ConfigFileUsed(); f != "" {
			log.Info().Str("file", f).Msg("using config file")
		}

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./talent-engine.yaml or ~/.config/talent-engine/talent-engine.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory of API key files")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")
	rootCmd.PersistentFlags().String("cache-dir", "", "directory holding talent.db")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("store.cache_dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("talent-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "talent-engine"))
		}
	}

	viper.SetEnvPrefix("TALENT_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(types.DefaultPipelineConfig())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
