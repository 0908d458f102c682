// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintelligence/kb-harvester/internal/discover"
	"github.com/meshintelligence/kb-harvester/internal/session"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [query]",
	Short: "Search the site for articles matching a query",
	Long: `Discover runs the discovery cascade for one query and prints the
candidate articles without extracting or storing anything. Useful for
checking selectors and search behavior before a full harvest.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().Bool("synonyms", false, "expand the query with synonym variants when direct search fails")
	discoverCmd.Flags().Bool("json", false, "output candidates as JSON")
	discoverCmd.Flags().Bool("no-input", false, "fail instead of prompting for manual login confirmation")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}
	query := strings.Join(args, " ")

	cfg := pipelineConfig(cmd)
	if cfg.Site.BaseURL == "" {
		return fmt.Errorf("site base URL required: set --site, site.base_url, or KB_HARVESTER_SITE_BASE_URL")
	}

	var confirm session.Confirmer = session.StdinConfirmer{In: os.Stdin, Out: os.Stderr}
	if noInput, _ := cmd.Flags().GetBool("no-input"); noInput {
		confirm = session.NoConfirmer{}
	}

	sess, err := session.New(cfg, confirm, os.Stderr)
	if err != nil {
		return err
	}
	defer sess.Close()

	if ok, err := sess.Authenticate(cmd.Context()); err != nil || !ok {
		if err != nil {
			return err
		}
		return session.ErrNotAuthenticated
	}

	synonyms, _ := cmd.Flags().GetBool("synonyms")
	engine := discover.New(sess, cfg.Site, cfg.Selectors, os.Stderr)
	candidates, err := engine.Discover(cmd.Context(), query, discover.Options{Synonyms: synonyms})
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(candidates)
	}

	if len(candidates) == 0 {
		fmt.Println("No articles found.")
		return nil
	}
	fmt.Printf("%s  %s  %s\n", fill("#", 3), fill("Title", 50), "Address")
	for i, c := range candidates {
		fmt.Printf("%s  %s  %s\n", fill(fmt.Sprint(i+1), 3), fill(clip(c.Title, 50), 50), c.Address)
	}
	fmt.Printf("\n%d candidates\n", len(candidates))
	return nil
}
