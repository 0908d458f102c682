// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meshintelligence/kb-harvester/internal/corpus"
)

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate corpus statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Printf("Articles: %d\n", stats.TotalArticles)
	fmt.Printf("Words:    %d\n", stats.TotalWords)
	return nil
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the corpus to CSV or a spreadsheet",
	Long: `Export writes the corpus to the data directory: export.csv with one
row per index record, export.xlsx with the full article contents plus a
stats sheet. --format selects one of csv, xlsx, or both.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	cfg := pipelineConfig(cmd)
	store, err := corpus.NewStore(cfg.Store, os.Stderr)
	if err != nil {
		return err
	}
	defer store.Close()

	if format == "csv" || format == "both" {
		path := filepath.Join(cfg.Store.DataDir, "export.csv")
		n, err := store.ExportCSV(path)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d rows to %s\n", n, path)
	}
	if format == "xlsx" || format == "both" {
		path := filepath.Join(cfg.Store.DataDir, "export.xlsx")
		n, err := store.ExportSpreadsheet(path)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d rows to %s\n", n, path)
	}
	if format != "csv" && format != "xlsx" && format != "both" {
		return fmt.Errorf("unsupported format %q: use csv, xlsx, or both", format)
	}
	return nil
}

// --- reindex ---

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the full-text search index from the stored articles",
	RunE:  runReindex,
}

func runReindex(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.RebuildSearchIndex()
	if err != nil {
		return err
	}
	fmt.Printf("Reindexed %d articles\n", n)
	return nil
}

func openStore(cmd *cobra.Command) (*corpus.Store, error) {
	cfg := pipelineConfig(cmd)
	return corpus.NewStore(cfg.Store, os.Stderr)
}

func init() {
	statsCmd.Flags().Bool("json", false, "output statistics as JSON")
	exportCmd.Flags().String("format", "both", "export format: csv, xlsx, or both")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reindexCmd)
}
