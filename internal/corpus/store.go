// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus persists extracted articles content-addressed and keeps a
// compact index over them. The authoritative state is plain YAML on disk:
// one record file per entry under articles/, one index file listing every
// entry. A SQLite FTS5 mirror can be kept alongside for ranked full-text
// search; it is rebuilt from the files and never authoritative.
package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/meshintelligence/kb-harvester/pkg/types"
)

const (
	articlesDir = "articles"
	indexFile   = "index.yaml"
	ftsFile     = "search.db"
)

// Store manages one storage directory. A single mutex serializes index
// read-modify-write cycles; concurrent Save calls from one process are
// safe, concurrent processes sharing the directory are not.
type Store struct {
	dataDir    string
	maxResults int
	fts        *ftsMirror
	w          io.Writer

	mu sync.Mutex // guards the index file
}

// NewStore opens or creates the storage directory.
func NewStore(cfg types.StoreConfig, w io.Writer) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(cfg.DataDir, articlesDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	s := &Store{
		dataDir:    cfg.DataDir,
		maxResults: cfg.MaxResults,
		w:          w,
	}

	if cfg.FTSEnabled {
		fts, err := openFTSMirror(filepath.Join(cfg.DataDir, ftsFile))
		if err != nil {
			// The mirror is an accelerator; the store works without it.
			fmt.Fprintf(w, "warning: search index unavailable: %v\n", err)
		} else {
			s.fts = fts
		}
	}
	return s, nil
}

// Close releases the search index handle.
func (s *Store) Close() error {
	if s.fts != nil {
		return s.fts.close()
	}
	return nil
}

// IndexError reports a failed index upsert after the entry record itself
// was written. The entry stays retrievable by ID until the next rebuild;
// callers should surface the warning but count the save as succeeded.
type IndexError struct {
	ID  string
	Err error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index update for %s: %v", e.ID, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// Save persists the article as a CorpusEntry and upserts the index. The
// entry ID is content-addressed, so re-saving identical (title, body)
// replaces the prior record instead of duplicating it. The returned path
// points at the record file; an *IndexError means the record was written
// but the index was not updated.
func (s *Store) Save(article types.Article) (string, error) {
	entry := types.CorpusEntry{
		ID:          article.ID(),
		Article:     article,
		PersistedAt: time.Now(),
	}

	path := s.recordPath(entry.ID)
	if err := writeYAML(path, entry); err != nil {
		return "", fmt.Errorf("writing record %s: %w", entry.ID, err)
	}

	if s.fts != nil {
		if err := s.fts.upsert(entry); err != nil {
			fmt.Fprintf(s.w, "warning: search index update failed for %s: %v\n", entry.ID, err)
		}
	}

	if err := s.upsertIndex(indexRecord(entry)); err != nil {
		return path, &IndexError{ID: entry.ID, Err: err}
	}
	return path, nil
}

// Entry loads one persisted entry by ID.
func (s *Store) Entry(id string) (types.CorpusEntry, error) {
	var entry types.CorpusEntry
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		return entry, fmt.Errorf("reading record %s: %w", id, err)
	}
	if err := yaml.Unmarshal(data, &entry); err != nil {
		return entry, fmt.Errorf("parsing record %s: %w", id, err)
	}
	return entry, nil
}

// Entries loads every persisted entry, ordered by ID. Unreadable record
// files are skipped with a warning rather than failing the whole scan.
func (s *Store) Entries() ([]types.CorpusEntry, error) {
	names, err := os.ReadDir(filepath.Join(s.dataDir, articlesDir))
	if err != nil {
		return nil, fmt.Errorf("reading storage directory: %w", err)
	}

	var entries []types.CorpusEntry
	for _, name := range names {
		if name.IsDir() || !strings.HasSuffix(name.Name(), ".yaml") {
			continue
		}
		entry, err := s.Entry(strings.TrimSuffix(name.Name(), ".yaml"))
		if err != nil {
			fmt.Fprintf(s.w, "warning: skipping %s: %v\n", name.Name(), err)
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Index returns the current index records in stored order.
func (s *Store) Index() ([]types.IndexRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readIndex()
}

// Stats aggregates the index. An absent index reads as an empty corpus.
type Stats struct {
	TotalArticles int       `json:"total_articles" yaml:"total_articles"`
	TotalWords    int       `json:"total_words" yaml:"total_words"`
	AsOf          time.Time `json:"as_of" yaml:"as_of"`
}

// Stats returns aggregate corpus counts.
func (s *Store) Stats() (Stats, error) {
	records, err := s.Index()
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{AsOf: time.Now()}
	for _, r := range records {
		stats.TotalArticles++
		stats.TotalWords += r.WordCount
	}
	return stats, nil
}

// upsertIndex replaces any record with the same ID and appends the new
// one, rewriting the whole index file under the store mutex. The
// read-modify-write cycle is the only shared mutable state in the store.
func (s *Store) upsertIndex(record types.IndexRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readIndex()
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, r := range records {
		if r.ID != record.ID {
			kept = append(kept, r)
		}
	}
	kept = append(kept, record)

	return writeYAML(filepath.Join(s.dataDir, indexFile), kept)
}

// readIndex loads the index file. Callers hold the store mutex.
func (s *Store) readIndex() ([]types.IndexRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, indexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}
	var records []types.IndexRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}
	return records, nil
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.dataDir, articlesDir, id+".yaml")
}

func indexRecord(entry types.CorpusEntry) types.IndexRecord {
	return types.IndexRecord{
		ID:          entry.ID,
		Title:       entry.Title,
		Address:     entry.Address,
		Category:    entry.Category,
		WordCount:   entry.WordCount,
		RetrievedAt: entry.RetrievedAt,
	}
}

// writeYAML marshals v to a temporary file and renames it into place, so
// a failed write never leaves a truncated record or index behind.
func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".corpus-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		if writeErr != nil {
			return fmt.Errorf("writing temp file: %w", writeErr)
		}
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
