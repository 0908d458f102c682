// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrate drives the batch pipeline: authenticate once, then
// for each requested title discover a candidate article, extract it, and
// persist it to the corpus. Items are processed strictly sequentially and
// failures are contained per item; only a failed authentication aborts
// the run.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/meshintelligence/kb-harvester/internal/corpus"
	"github.com/meshintelligence/kb-harvester/internal/discover"
	"github.com/meshintelligence/kb-harvester/internal/extract"
	"github.com/meshintelligence/kb-harvester/internal/session"
	"github.com/meshintelligence/kb-harvester/pkg/types"
)

// Discoverer resolves a title to candidate articles.
type Discoverer interface {
	Discover(ctx context.Context, query string, opts discover.Options) ([]types.SearchCandidate, error)
}

// Extractor derives an article from a page address.
type Extractor interface {
	Extract(ctx context.Context, address string) (types.Article, error)
}

// Storer persists extracted articles.
type Storer interface {
	Save(article types.Article) (string, error)
	Index() ([]types.IndexRecord, error)
	ExportCSV(path string) (int, error)
	ExportSpreadsheet(path string) (int, error)
}

// Authenticator establishes the site session before the batch starts.
type Authenticator interface {
	Authenticate(ctx context.Context) (bool, error)
}

// Options toggles optional batch behavior.
type Options struct {
	// Synonyms enables synonym expansion during discovery.
	Synonyms bool

	// Refresh re-extracts articles whose address is already in the corpus
	// instead of skipping them.
	Refresh bool

	// Export writes CSV and spreadsheet snapshots after the batch.
	Export bool
}

// Runner executes batch harvests over one authenticated session.
type Runner struct {
	auth     Authenticator
	discover Discoverer
	extract  Extractor
	store    Storer

	cfg     types.PipelineConfig
	limiter *rate.Limiter
	w       io.Writer

	// Owned resources, released by Close. Nil when the stages were
	// injected directly.
	sess        *session.Session
	corpusStore *corpus.Store
}

// NewRunner wires the pipeline stages around a fresh session and store.
// Close must be called when the runner is no longer needed.
func NewRunner(cfg types.PipelineConfig, confirm session.Confirmer, w io.Writer) (*Runner, error) {
	sess, err := session.New(cfg, confirm, w)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	store, err := corpus.NewStore(cfg.Store, w)
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("opening corpus: %w", err)
	}

	return &Runner{
		auth:        sess,
		discover:    discover.New(sess, cfg.Site, cfg.Selectors, w),
		extract:     extract.New(sess, cfg.Selectors, cfg.Fetch, w),
		store:       store,
		cfg:         cfg,
		limiter:     newLimiter(cfg.Fetch.RequestDelay),
		w:           w,
		sess:        sess,
		corpusStore: store,
	}, nil
}

// Close releases the session and the corpus store.
func (r *Runner) Close() error {
	if r.sess != nil {
		r.sess.Close()
	}
	if r.corpusStore != nil {
		return r.corpusStore.Close()
	}
	return nil
}

// newLimiter paces batch items at one per delay. A zero delay disables
// pacing.
func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// RunBatch harvests the given titles in order. Authentication failure
// aborts before any item is processed and the returned result carries
// zero counts. Per-item failures are recorded and the batch continues;
// the error return is reserved for run-level conditions.
func (r *Runner) RunBatch(ctx context.Context, titles []string, opts Options) (result types.RunResult, err error) {
	result = types.NewRunResult()
	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	if max := r.cfg.Batch.MaxArticles; max > 0 && len(titles) > max {
		fmt.Fprintf(r.w, "batch: limiting run to first %d of %d titles\n", max, len(titles))
		titles = titles[:max]
	}

	fmt.Fprintf(r.w, "batch %s: %d titles\n", result.RunID, len(titles))

	ok, err := r.auth.Authenticate(ctx)
	if err != nil {
		return result, fmt.Errorf("authentication: %w", err)
	}
	if !ok {
		return result, session.ErrNotAuthenticated
	}

	known, err := r.knownAddresses()
	if err != nil {
		fmt.Fprintf(r.w, "warning: reading corpus index: %v\n", err)
	}

	for _, title := range titles {
		if err := r.limiter.Wait(ctx); err != nil {
			return result, err
		}
		item, status := r.runOne(ctx, title, opts, known)
		switch status {
		case itemSucceeded:
			result.Succeeded++
			result.Items = append(result.Items, item)
			known[item.Address] = true
		case itemSkipped:
			result.Skipped++
		case itemFailed:
			result.Failed++
		}
	}

	if opts.Export {
		r.export()
	}

	fmt.Fprintf(r.w, "\nBatch summary: %d succeeded, %d skipped, %d failed (total: %d)\n",
		result.Succeeded, result.Skipped, result.Failed, result.Total())
	return result, nil
}

type itemStatus int

const (
	itemSucceeded itemStatus = iota
	itemSkipped
	itemFailed
)

// runOne processes a single title end to end. All failures are reported
// on the status line and absorbed into the item status.
func (r *Runner) runOne(ctx context.Context, title string, opts Options, known map[string]bool) (types.RunItem, itemStatus) {
	candidates, err := r.discover.Discover(ctx, title, discover.Options{Synonyms: opts.Synonyms})
	if err != nil {
		fmt.Fprintf(r.w, "failed:  %s (%v)\n", title, err)
		return types.RunItem{}, itemFailed
	}
	if len(candidates) == 0 {
		fmt.Fprintf(r.w, "failed:  %s (no articles found)\n", title)
		return types.RunItem{}, itemFailed
	}

	candidate := candidates[0]
	if known[candidate.Address] && !opts.Refresh {
		fmt.Fprintf(r.w, "skipped: %s (already in corpus)\n", candidate.Title)
		return types.RunItem{}, itemSkipped
	}

	fmt.Fprintf(r.w, "harvesting: %s\n", candidate.Title)

	article, err := r.extract.Extract(ctx, candidate.Address)
	if err != nil {
		fmt.Fprintf(r.w, "failed:  %s (%v)\n", title, err)
		return types.RunItem{}, itemFailed
	}

	path, err := r.store.Save(article)
	if err != nil {
		var indexErr *corpus.IndexError
		if !errors.As(err, &indexErr) {
			fmt.Fprintf(r.w, "failed:  %s (%v)\n", title, err)
			return types.RunItem{}, itemFailed
		}
		// Record written, index behind. The entry is still retrievable
		// by ID; a rebuild repairs the index.
		fmt.Fprintf(r.w, "  warning: %v\n", indexErr)
	}

	return types.RunItem{
		Title:       article.Title,
		Address:     article.Address,
		WordCount:   article.WordCount,
		StoragePath: path,
	}, itemSucceeded
}

// knownAddresses maps every indexed article address, used for skip
// detection.
func (r *Runner) knownAddresses() (map[string]bool, error) {
	known := make(map[string]bool)
	records, err := r.store.Index()
	if err != nil {
		return known, err
	}
	for _, rec := range records {
		known[rec.Address] = true
	}
	return known, nil
}

// export writes the CSV and spreadsheet snapshots. Export failures never
// fail the batch; the harvested articles are already on disk.
func (r *Runner) export() {
	csvPath := filepath.Join(r.cfg.Store.DataDir, "export.csv")
	if n, err := r.store.ExportCSV(csvPath); err != nil {
		fmt.Fprintf(r.w, "warning: CSV export failed: %v\n", err)
	} else {
		fmt.Fprintf(r.w, "exported %d rows to %s\n", n, csvPath)
	}

	xlsxPath := filepath.Join(r.cfg.Store.DataDir, "export.xlsx")
	if n, err := r.store.ExportSpreadsheet(xlsxPath); err != nil {
		fmt.Fprintf(r.w, "warning: spreadsheet export failed: %v\n", err)
	} else {
		fmt.Fprintf(r.w, "exported %d rows to %s\n", n, xlsxPath)
	}
}
