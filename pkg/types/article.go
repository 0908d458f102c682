// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the kb-harvester pipeline:
// the Article value record produced by extraction, the persisted corpus
// projections (CorpusEntry, IndexRecord), the transient discovery candidate,
// and the per-batch RunResult summary.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"
)

// Article is the normalized record extracted from one knowledge-base page.
// An Article is a value: construct it with NewArticle and treat it as
// read-only afterwards. Re-extraction of a page produces a new Article,
// never an in-place mutation; WordCount is derived from Body at
// construction and is meaningless to set by hand.
type Article struct {
	// Title is the article heading. Never empty; extraction substitutes a
	// fixed placeholder when no usable heading is found.
	Title string `json:"title" yaml:"title"`

	// Address is the article URL, the stable identifier within a run.
	Address string `json:"address" yaml:"address"`

	// Body is the cleaned article text. May hold a placeholder when no
	// structured content was found.
	Body string `json:"body" yaml:"body"`

	// Category is the first category/topic marker found on the page, if any.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Tags lists tag texts in document order. Empty, never nil-sentinel
	// semantics: an article without tags has a zero-length slice.
	Tags []string `json:"tags" yaml:"tags"`

	// Metadata holds optional page fields (date, author, category,
	// language). Absent fields are omitted from the map entirely.
	Metadata map[string]string `json:"metadata" yaml:"metadata"`

	// WordCount is the number of whitespace-delimited tokens in Body.
	WordCount int `json:"word_count" yaml:"word_count"`

	// RetrievedAt is when the article was extracted.
	RetrievedAt time.Time `json:"retrieved_at" yaml:"retrieved_at"`
}

// NewArticle builds an Article, deriving WordCount from body and stamping
// RetrievedAt. Nil tags or metadata become empty values.
func NewArticle(title, address, body, category string, tags []string, metadata map[string]string) Article {
	if tags == nil {
		tags = []string{}
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	return Article{
		Title:       title,
		Address:     address,
		Body:        body,
		Category:    category,
		Tags:        tags,
		Metadata:    metadata,
		WordCount:   len(strings.Fields(body)),
		RetrievedAt: time.Now(),
	}
}

// ID derives the content-addressed identifier used for de-duplication:
// an alphanumeric slug of the title (up to 20 characters) joined with the
// first 10 hex characters of the SHA-256 of the body. Identical
// (title, body) pairs always map to the same ID; a materially different
// body yields a different one.
func (a Article) ID() string {
	return ArticleID(a.Title, a.Body)
}

// ArticleID computes the corpus identifier for a (title, body) pair.
// The slug bound counts runes, not bytes, so Cyrillic titles keep their
// full 20 characters.
func ArticleID(title, body string) string {
	var slug strings.Builder
	runes := 0
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			slug.WriteRune(r)
			runes++
		}
		if runes >= slugMaxLen {
			break
		}
	}
	sum := sha256.Sum256([]byte(body))
	return slug.String() + "_" + hex.EncodeToString(sum[:])[:hashPrefixLen]
}

const (
	slugMaxLen    = 20
	hashPrefixLen = 10
)

// CorpusEntry is a persisted Article plus its storage identity.
type CorpusEntry struct {
	// ID is the content-addressed identifier (see Article.ID).
	ID string `json:"id" yaml:"id"`

	Article `yaml:",inline"`

	// PersistedAt is when the entry was written to the store, distinct
	// from the article's RetrievedAt.
	PersistedAt time.Time `json:"persisted_at" yaml:"persisted_at"`
}

// IndexRecord is the compact per-article projection kept in the corpus
// index for fast listing. Exactly one record exists per distinct ID;
// re-saving an article with the same ID replaces its record.
type IndexRecord struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Address     string    `json:"address" yaml:"address"`
	Category    string    `json:"category,omitempty" yaml:"category,omitempty"`
	WordCount   int       `json:"word_count" yaml:"word_count"`
	RetrievedAt time.Time `json:"retrieved_at" yaml:"retrieved_at"`
}

// SearchCandidate is an unconfirmed (title, address) pair produced by the
// discovery engine. Candidates are never persisted; they are either handed
// to extraction or discarded when discovery finishes.
type SearchCandidate struct {
	Title   string `json:"title"`
	Address string `json:"address"`
}
