// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meshintelligence/kb-harvester/pkg/types"
)

// ftsMirror keeps a SQLite FTS5 copy of the corpus for ranked full-text
// search. It is an accelerator over the YAML files, never the source of
// truth: a stale or broken mirror is repaired with RebuildSearchIndex, and
// every write is best-effort from the caller's point of view.
type ftsMirror struct {
	db *sql.DB
}

func openFTSMirror(path string) (*ftsMirror, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}

	_, err = db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS articles_fts
		USING fts5(id UNINDEXED, address UNINDEXED, word_count UNINDEXED, retrieved_at UNINDEXED, title, body, tags)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating search index schema: %w", err)
	}
	return &ftsMirror{db: db}, nil
}

func (m *ftsMirror) close() error {
	return m.db.Close()
}

// upsert replaces the indexed copy of one entry.
func (m *ftsMirror) upsert(entry types.CorpusEntry) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM articles_fts WHERE id = ?`, entry.ID); err != nil {
		return fmt.Errorf("removing stale row: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO articles_fts (id, address, word_count, retrieved_at, title, body, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Address, entry.WordCount,
		entry.RetrievedAt.Format(time.RFC3339Nano),
		entry.Title, entry.Body, strings.Join(entry.Tags, " "),
	)
	if err != nil {
		return fmt.Errorf("inserting row: %w", err)
	}
	return tx.Commit()
}

const defaultFTSResults = 20

// SearchFTS queries the FTS5 mirror and returns hits ordered by rank.
// It fails when the mirror is disabled or was never built; the substring
// Search over the files is the always-available path.
func (s *Store) SearchFTS(query string) ([]Excerpt, error) {
	if s.fts == nil {
		return nil, fmt.Errorf("search index is disabled")
	}

	limit := s.maxResults
	if limit <= 0 {
		limit = defaultFTSResults
	}

	rows, err := s.fts.db.Query(
		`SELECT id, address, word_count, retrieved_at, title,
			snippet(articles_fts, 5, '', '', '…', 24)
		 FROM articles_fts WHERE articles_fts MATCH ?
		 ORDER BY rank LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying search index: %w", err)
	}
	defer rows.Close()

	var hits []Excerpt
	for rows.Next() {
		var hit Excerpt
		var retrievedAt string
		if err := rows.Scan(&hit.ID, &hit.Address, &hit.WordCount, &retrievedAt, &hit.Title, &hit.Excerpt); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		hit.RetrievedAt, _ = time.Parse(time.RFC3339Nano, retrievedAt)
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// RebuildSearchIndex drops the mirror contents and re-indexes every
// persisted entry. Run it after an index-upsert warning or when the
// mirror file was deleted.
func (s *Store) RebuildSearchIndex() (int, error) {
	if s.fts == nil {
		return 0, fmt.Errorf("search index is disabled")
	}

	entries, err := s.Entries()
	if err != nil {
		return 0, err
	}

	if _, err := s.fts.db.Exec(`DELETE FROM articles_fts`); err != nil {
		return 0, fmt.Errorf("clearing search index: %w", err)
	}
	for _, entry := range entries {
		if err := s.fts.upsert(entry); err != nil {
			return 0, fmt.Errorf("indexing %s: %w", entry.ID, err)
		}
	}
	return len(entries), nil
}
