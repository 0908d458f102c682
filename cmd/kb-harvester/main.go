// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the kb-harvester CLI. Subcommands
// map onto the pipeline stages: harvest runs the full batch, discover and
// search expose the lookup stages, stats and export read the corpus.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintelligence/kb-harvester/internal/secrets"
	"github.com/meshintelligence/kb-harvester/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the stored secret
// for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

var rootCmd = &cobra.Command{
	Use:   "kb-harvester",
	Short: "Harvest articles from an authenticated knowledge base",
	Long: `kb-harvester logs into a knowledge-base site, discovers articles by
title, extracts their content, and persists them to a local corpus with
search and export facilities.

Each pipeline stage is a subcommand: harvest runs the whole batch,
discover and search exercise the lookup stages on their own, and stats,
export, and reindex operate on the stored corpus.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
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
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./kb-harvester.yaml or ~/.config/kb-harvester/config.yaml)")
	rootCmd.PersistentFlags().String("site", "", "base URL of the knowledge base")
	rootCmd.PersistentFlags().String("data-dir", "", "storage directory for the corpus (default data)")
}

func initConfig() {
	// A local .env supplies environment overrides before viper reads them.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("kb-harvester")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "kb-harvester"))
		}
	}

	viper.SetEnvPrefix("KB_HARVESTER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the effective configuration: built-in defaults,
// overlaid by the config file and environment, overlaid by flags.
// Credentials resolve flag > secret file > config/environment.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()

	overrideString("site.base_url", &cfg.Site.BaseURL)
	overrideString("site.search_path", &cfg.Site.SearchPath)
	overrideString("site.content_path_marker", &cfg.Site.ContentPathMarker)
	overrideString("site.username", &cfg.Site.Username)
	overrideString("site.password", &cfg.Site.Password)

	overrideString("store.data_dir", &cfg.Store.DataDir)
	if viper.IsSet("store.fts_enabled") {
		cfg.Store.FTSEnabled = viper.GetBool("store.fts_enabled")
	}
	if v := viper.GetInt("store.max_results"); v > 0 {
		cfg.Store.MaxResults = v
	}

	if v := viper.GetDuration("fetch.timeout"); v > 0 {
		cfg.Fetch.Timeout = v
	}
	overrideString("fetch.user_agent", &cfg.Fetch.UserAgent)
	if v := viper.GetInt("fetch.max_retries"); v > 0 {
		cfg.Fetch.MaxRetries = v
	}
	if v := viper.GetDuration("fetch.retry_delay"); v > 0 {
		cfg.Fetch.RetryDelay = v
	}
	if v := viper.GetDuration("fetch.request_delay"); v > 0 {
		cfg.Fetch.RequestDelay = v
	}
	if v := viper.GetDuration("fetch.settle_delay"); v > 0 {
		cfg.Fetch.SettleDelay = v
	}
	if v := viper.GetInt("batch.max_articles"); v > 0 {
		cfg.Batch.MaxArticles = v
	}

	overrideSelectors(&cfg.Selectors)

	if site, _ := cmd.Flags().GetString("site"); site != "" {
		cfg.Site.BaseURL = site
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Store.DataDir = dataDir
	}

	cfg.Site.Username = secretDefault("kb-username", cfg.Site.Username)
	cfg.Site.Password = secretDefault("kb-password", cfg.Site.Password)
	return cfg
}

func overrideString(key string, dst *string) {
	if v := viper.GetString(key); v != "" {
		*dst = v
	}
}

func overrideSlice(key string, dst *[]string) {
	if v := viper.GetStringSlice(key); len(v) > 0 {
		*dst = v
	}
}

// overrideSelectors applies per-list selector overrides from the config
// file. Each list replaces the default wholesale; there is no merging.
func overrideSelectors(sel *types.SelectorConfig) {
	overrideSlice("selectors.login_form", &sel.LoginForm)
	overrideSlice("selectors.username_field", &sel.UsernameField)
	overrideSlice("selectors.password_field", &sel.PasswordField)
	overrideSlice("selectors.submit_button", &sel.SubmitButton)
	overrideSlice("selectors.auth_indicators", &sel.AuthIndicators)
	overrideSlice("selectors.result_items", &sel.ResultItems)
	overrideSlice("selectors.title", &sel.Title)
	overrideSlice("selectors.content", &sel.Content)
	overrideSlice("selectors.date", &sel.Date)
	overrideSlice("selectors.author", &sel.Author)
	overrideSlice("selectors.category", &sel.Category)
	overrideSlice("selectors.tags", &sel.Tags)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
