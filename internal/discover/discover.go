// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover turns a free-text query into a ranked, de-duplicated
// list of candidate article locators. Strategies cascade: the site search
// endpoint first, then synonym variants (opt-in), then related-topic
// phrases, and finally a raw link scan of the result page. Each strategy
// runs only when every previous one produced nothing.
package discover

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/meshintelligence/kb-harvester/pkg/types"
)

// Fetcher is the slice of the session the discovery engine uses.
type Fetcher interface {
	Get(ctx context.Context, addr string) (*goquery.Document, error)
	Resolve(addr string) string
}

// Options toggles the optional strategies for one Discover call.
type Options struct {
	// Synonyms enables the synonym-expansion strategy.
	Synonyms bool
}

// Engine runs the discovery cascade against one site.
type Engine struct {
	fetch Fetcher
	site  types.SiteConfig
	sel   types.SelectorConfig
	w     io.Writer
}

// New builds a discovery engine. The selector configuration is consumed
// read-only.
func New(fetch Fetcher, site types.SiteConfig, sel types.SelectorConfig, w io.Writer) *Engine {
	return &Engine{fetch: fetch, site: site, sel: sel, w: w}
}

// maxSynonymVariants bounds how many substituted queries the synonym
// strategy issues; maxRelatedPhrases bounds lookups per query word.
const (
	maxSynonymVariants = 3
	maxRelatedPhrases  = 2
)

// Discover resolves query to candidate articles. The returned slice is
// de-duplicated by address with insertion order preserved; the first-seen
// title for an address wins. No candidates is an empty slice, not an
// error — only fetch-level failures of the initial search are errors.
func (e *Engine) Discover(ctx context.Context, query string, opts Options) ([]types.SearchCandidate, error) {
	acc := newAccumulator()

	doc, err := e.searchOnce(ctx, query, acc)
	if err != nil {
		return nil, err
	}
	if len(acc.candidates) > 0 {
		return acc.candidates, nil
	}

	if opts.Synonyms {
		for _, variant := range synonymVariants(query) {
			fmt.Fprintf(e.w, "discover: trying synonym variant %q\n", variant)
			if d, err := e.searchOnce(ctx, variant, acc); err == nil && d != nil {
				doc = d
			}
		}
		if len(acc.candidates) > 0 {
			return acc.candidates, nil
		}
	}

	for _, phrase := range relatedPhrases(query) {
		fmt.Fprintf(e.w, "discover: trying related topic %q\n", phrase)
		if d, err := e.searchOnce(ctx, phrase, acc); err == nil && d != nil {
			doc = d
		}
	}
	if len(acc.candidates) > 0 {
		return acc.candidates, nil
	}

	// Last resort: the search endpoint yielded nothing usable, so scan
	// every link on the page we have.
	if doc == nil {
		if doc, err = e.fetch.Get(ctx, e.site.BaseURL); err != nil {
			return nil, err
		}
	}
	e.scanAllLinks(doc, query, acc)
	return acc.candidates, nil
}

// searchOnce submits one query to the search endpoint and scans the result
// page. The fetched document is returned for the fallback scan.
func (e *Engine) searchOnce(ctx context.Context, query string, acc *accumulator) (*goquery.Document, error) {
	addr := e.site.SearchPath + "?q=" + url.QueryEscape(query)
	doc, err := e.fetch.Get(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("search request for %q: %w", query, err)
	}
	e.scanResults(doc, acc)
	return doc, nil
}

// scanResults walks the result-item selector cascade. The first selector
// that yields an accepted candidate wins; later selectors are not tried,
// so a specific site override shadows the generic fallbacks.
func (e *Engine) scanResults(doc *goquery.Document, acc *accumulator) {
	for _, sel := range e.sel.ResultItems {
		found := false
		doc.Find(sel).Each(func(_ int, item *goquery.Selection) {
			if e.accept(item, acc) {
				found = true
			}
		})
		if found {
			return
		}
	}
}

// scanAllLinks keeps every content-path link whose visible text contains
// the query, case-insensitively, as a whole or by any single word.
func (e *Engine) scanAllLinks(doc *goquery.Document, query string, acc *accumulator) {
	q := strings.ToLower(query)
	words := strings.Fields(q)

	doc.Find("a").Each(func(_ int, link *goquery.Selection) {
		text := strings.ToLower(strings.TrimSpace(link.Text()))
		if text == "" {
			return
		}
		matched := strings.Contains(text, q)
		for _, w := range words {
			if matched {
				break
			}
			matched = strings.Contains(text, w)
		}
		if matched {
			e.accept(link, acc)
		}
	})
}

// accept records the element as a candidate when it carries a usable title
// and a content-path address. Reports whether a new candidate was added.
func (e *Engine) accept(item *goquery.Selection, acc *accumulator) bool {
	title := strings.Join(strings.Fields(item.Text()), " ")
	href, ok := item.Attr("href")
	if !ok {
		// The cascade may select a result container rather than the link
		// itself; look one level down.
		link := item.Find("a").First()
		if link.Length() == 0 {
			return false
		}
		href, ok = link.Attr("href")
		if !ok {
			return false
		}
		if title == "" {
			title = strings.Join(strings.Fields(link.Text()), " ")
		}
	}
	if title == "" || !strings.Contains(href, e.site.ContentPathMarker) {
		return false
	}
	return acc.add(types.SearchCandidate{Title: title, Address: e.fetch.Resolve(href)})
}

// accumulator deduplicates candidates by address across all strategies.
type accumulator struct {
	seen       map[string]bool
	candidates []types.SearchCandidate
}

func newAccumulator() *accumulator {
	return &accumulator{seen: make(map[string]bool)}
}

// add appends c unless its address was already seen. First-seen title wins.
func (a *accumulator) add(c types.SearchCandidate) bool {
	if a.seen[c.Address] {
		return false
	}
	a.seen[c.Address] = true
	a.candidates = append(a.candidates, c)
	return true
}
