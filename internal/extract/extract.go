// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract derives a normalized Article from a knowledge-base page.
// Every field comes out of a cascading selector list; when the structured
// cascade finds nothing the engine degrades through readability extraction
// to the raw document text, and a whole failed attempt is retried under a
// bounded policy. The engine never fabricates content — a page with no
// usable text yields the fallback sentinels.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/meshintelligence/kb-harvester/internal/httputil"
	"github.com/meshintelligence/kb-harvester/pkg/types"
)

// Fallback sentinels substituted when a field yields nothing usable.
const (
	TitleMissing = "(no title)"
	BodyMissing  = "(no content)"
)

const (
	minTitleLen = 5
	minBlockLen = 100
)

// Fetcher is the slice of the session the extraction engine uses.
type Fetcher interface {
	Get(ctx context.Context, addr string) (*goquery.Document, error)
	Resolve(addr string) string
}

// Engine extracts articles from pages fetched through a shared session.
type Engine struct {
	fetch Fetcher
	sel   types.SelectorConfig
	retry httputil.Policy
	w     io.Writer
}

// New builds an extraction engine. Retry bounds come from the fetch
// configuration; the selector configuration is consumed read-only.
func New(fetch Fetcher, sel types.SelectorConfig, cfg types.FetchConfig, w io.Writer) *Engine {
	return &Engine{
		fetch: fetch,
		sel:   sel,
		retry: httputil.Policy{MaxAttempts: cfg.MaxRetries, Delay: cfg.RetryDelay},
		w:     w,
	}
}

// Extract fetches the page at address and derives an Article from it,
// retrying failed attempts with a fixed delay. After exhausting retries it
// returns the last error; the caller records that as a failed item, not a
// fatal condition.
func (e *Engine) Extract(ctx context.Context, address string) (types.Article, error) {
	var article types.Article
	err := e.retry.Do(ctx, func() error {
		doc, err := e.fetch.Get(ctx, address)
		if err != nil {
			fmt.Fprintf(e.w, "extract: attempt failed for %s: %v\n", address, err)
			return err
		}
		article = e.fromDocument(doc, e.fetch.Resolve(address))
		return nil
	})
	if err != nil {
		return types.Article{}, fmt.Errorf("extracting %s: %w", address, err)
	}
	return article, nil
}

// fromDocument derives the Article fields from a parsed page.
func (e *Engine) fromDocument(doc *goquery.Document, address string) types.Article {
	title := e.extractTitle(doc)
	body := e.extractBody(doc, address)
	metadata := e.extractMetadata(doc)
	tags := e.extractTags(doc)

	if lang, ok := detectLanguage(body); ok {
		metadata["language"] = lang
	}
	return types.NewArticle(title, address, body, metadata["category"], tags, metadata)
}

// extractTitle walks the title cascade; the first element whose trimmed
// text exceeds the minimum length wins.
func (e *Engine) extractTitle(doc *goquery.Document) string {
	for _, sel := range e.sel.Title {
		title := ""
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.Join(strings.Fields(s.Text()), " ")
			if utf8.RuneCountInString(text) > minTitleLen {
				title = text
				return false
			}
			return true
		})
		if title != "" {
			return title
		}
	}
	return TitleMissing
}

// extractBody walks the content cascade. The first selector that matches
// at least one sufficiently long container wins; all of its matches are
// joined in document order. When no structured container qualifies the
// engine tries readability's main-content extraction, then the whole
// document text.
func (e *Engine) extractBody(doc *goquery.Document, address string) string {
	for _, sel := range e.sel.Content {
		var parts []string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if utf8.RuneCountInString(text) > minBlockLen {
				parts = append(parts, text)
			}
		})
		if len(parts) > 0 {
			if body := Clean(strings.Join(parts, "\n\n")); body != "" {
				return body
			}
		}
	}

	if body := Clean(e.readabilityText(doc, address)); body != "" {
		return body
	}
	if body := Clean(doc.Find("body").Text()); body != "" {
		return body
	}
	return BodyMissing
}

// readabilityText runs the readability content extractor over the page.
// Failures just mean an empty string; the caller has one more fallback.
func (e *Engine) readabilityText(doc *goquery.Document, address string) string {
	html, err := doc.Html()
	if err != nil {
		return ""
	}
	pageURL, err := url.Parse(address)
	if err != nil {
		return ""
	}
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), pageURL)
	if err != nil {
		return ""
	}
	return article.TextContent
}

// extractMetadata tries each metadata cascade independently and takes the
// first match's trimmed text. Absent fields are omitted from the map, not
// set to empty strings.
func (e *Engine) extractMetadata(doc *goquery.Document) map[string]string {
	metadata := map[string]string{}
	for field, cascade := range map[string][]string{
		"date":     e.sel.Date,
		"author":   e.sel.Author,
		"category": e.sel.Category,
	} {
		for _, sel := range cascade {
			text := strings.TrimSpace(doc.Find(sel).First().Text())
			if text != "" {
				metadata[field] = text
				break
			}
		}
	}
	return metadata
}

// extractTags collects tag texts from the first tag selector that matches,
// deduplicated, document order preserved.
func (e *Engine) extractTags(doc *goquery.Document) []string {
	for _, sel := range e.sel.Tags {
		var tags []string
		seen := map[string]bool{}
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			tag := strings.TrimSpace(s.Text())
			if tag != "" && !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		})
		if len(tags) > 0 {
			return tags
		}
	}
	return nil
}
