// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintelligence/kb-harvester/internal/orchestrate"
	"github.com/meshintelligence/kb-harvester/internal/session"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest [titles...]",
	Short: "Discover, extract, and store articles for the given titles",
	Long: `Harvest runs the full pipeline for each title: log in once, search the
site, extract the first matching article, and persist it to the corpus.
Titles come from arguments or from a file with one title per line.
Articles already in the corpus are skipped unless --refresh is set.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().String("titles-file", "", "file with one article title per line")
	harvestCmd.Flags().Bool("synonyms", false, "expand queries with synonym variants when direct search fails")
	harvestCmd.Flags().Bool("refresh", false, "re-extract articles already in the corpus")
	harvestCmd.Flags().Bool("export", false, "write CSV and spreadsheet exports after the batch")
	harvestCmd.Flags().Int("limit", 0, "maximum titles to process (0 = config default)")
	harvestCmd.Flags().Bool("no-input", false, "fail instead of prompting for manual login confirmation")

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	titles, err := collectTitles(cmd, args)
	if err != nil {
		return err
	}
	if len(titles) == 0 {
		return fmt.Errorf("provide article titles as arguments or via --titles-file")
	}

	cfg := pipelineConfig(cmd)
	if cfg.Site.BaseURL == "" {
		return fmt.Errorf("site base URL required: set --site, site.base_url, or KB_HARVESTER_SITE_BASE_URL")
	}
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		cfg.Batch.MaxArticles = limit
	}

	var confirm session.Confirmer = session.StdinConfirmer{In: os.Stdin, Out: os.Stderr}
	if noInput, _ := cmd.Flags().GetBool("no-input"); noInput {
		confirm = session.NoConfirmer{}
	}

	runner, err := orchestrate.NewRunner(cfg, confirm, os.Stdout)
	if err != nil {
		return err
	}
	defer runner.Close()

	synonyms, _ := cmd.Flags().GetBool("synonyms")
	refresh, _ := cmd.Flags().GetBool("refresh")
	export, _ := cmd.Flags().GetBool("export")

	result, err := runner.RunBatch(cmd.Context(), titles, orchestrate.Options{
		Synonyms: synonyms,
		Refresh:  refresh,
		Export:   export,
	})
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d article(s) failed harvesting", result.Failed)
	}
	return nil
}

// collectTitles merges argument titles with the titles file, arguments
// first. Blank lines and #-comments in the file are ignored.
func collectTitles(cmd *cobra.Command, args []string) ([]string, error) {
	titles := append([]string{}, args...)

	path, _ := cmd.Flags().GetString("titles-file")
	if path == "" {
		return titles, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening titles file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		titles = append(titles, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading titles file: %w", err)
	}
	return titles, nil
}
