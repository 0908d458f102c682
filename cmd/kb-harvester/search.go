// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintelligence/kb-harvester/internal/corpus"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the stored corpus",
	Long: `Search scans the local corpus for articles matching the query. The
default is a case-insensitive substring match over titles, bodies, and
tags; --fts uses the ranked full-text index instead.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Bool("fts", false, "use the ranked full-text index instead of the substring scan")
	searchCmd.Flags().Bool("json", false, "output hits as JSON")
	searchCmd.Flags().Int("limit", 0, "maximum hits (0 = config default)")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}
	query := strings.Join(args, " ")

	cfg := pipelineConfig(cmd)
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		cfg.Store.MaxResults = limit
	}

	store, err := corpus.NewStore(cfg.Store, os.Stderr)
	if err != nil {
		return err
	}
	defer store.Close()

	var hits []corpus.Excerpt
	if fts, _ := cmd.Flags().GetBool("fts"); fts {
		hits, err = store.SearchFTS(query)
	} else {
		hits, err = store.Search(query)
	}
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, hit := range hits {
		fmt.Printf("%d. %s (%s, %d words)\n", i+1, hit.Title, hit.ID, hit.WordCount)
		fmt.Printf("   %s\n", hit.Address)
		fmt.Printf("   %s\n\n", strings.ReplaceAll(hit.Excerpt, "\n", " "))
	}
	fmt.Printf("%d results\n", len(hits))
	return nil
}
