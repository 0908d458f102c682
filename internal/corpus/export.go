// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/meshintelligence/kb-harvester/pkg/types"
)

// Export is read-only over the corpus: it derives tabular snapshots from
// the index and the record files and never mutates stored state.

// ExportCSV writes one row per index record to path and returns the
// number of rows written.
func (s *Store) ExportCSV(path string) (int, error) {
	records, err := s.Index()
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"id", "title", "address", "category", "word_count", "retrieved_at"}); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.ID, r.Title, r.Address, r.Category,
			strconv.Itoa(r.WordCount),
			r.RetrievedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("writing row for %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flushing CSV: %w", err)
	}
	return len(records), nil
}

const (
	articlesSheet = "Articles"
	statsSheet    = "Stats"
)

// ExportSpreadsheet writes the full corpus to an .xlsx workbook: an
// Articles sheet built from every persisted entry and a Stats sheet with
// aggregate counts and the export timestamp.
func (s *Store) ExportSpreadsheet(path string) (int, error) {
	entries, err := s.Entries()
	if err != nil {
		return 0, err
	}

	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName(wb.GetSheetName(0), articlesSheet); err != nil {
		return 0, fmt.Errorf("naming sheet: %w", err)
	}

	header := []any{
		"id", "title", "address", "category", "tags",
		"date", "author", "language",
		"word_count", "retrieved_at", "persisted_at", "body",
	}
	if err := wb.SetSheetRow(articlesSheet, "A1", &header); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		row := []any{
			e.ID, e.Title, e.Address, e.Category,
			strings.Join(e.Tags, ", "),
			e.Metadata["date"], e.Metadata["author"], e.Metadata["language"],
			e.WordCount,
			e.RetrievedAt.Format(time.RFC3339),
			e.PersistedAt.Format(time.RFC3339),
			e.Body,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		if err := wb.SetSheetRow(articlesSheet, cell, &row); err != nil {
			return 0, fmt.Errorf("writing row for %s: %w", e.ID, err)
		}
	}

	if err := writeStatsSheet(wb, entries); err != nil {
		return 0, err
	}

	if err := wb.SaveAs(path); err != nil {
		return 0, fmt.Errorf("saving %s: %w", path, err)
	}
	return len(entries), nil
}

func writeStatsSheet(wb *excelize.File, entries []types.CorpusEntry) error {
	if _, err := wb.NewSheet(statsSheet); err != nil {
		return fmt.Errorf("creating stats sheet: %w", err)
	}

	words := 0
	for _, e := range entries {
		words += e.WordCount
	}

	rows := [][]any{
		{"total_articles", len(entries)},
		{"total_words", words},
		{"exported_at", time.Now().Format(time.RFC3339)},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(statsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing stats row: %w", err)
		}
	}
	return nil
}
