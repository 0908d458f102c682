// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"strings"
	"time"
)

// excerptLen is the number of body runes quoted per search hit.
const excerptLen = 200

// Excerpt is one search hit over the persisted corpus.
type Excerpt struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Address     string    `json:"address" yaml:"address"`
	Excerpt     string    `json:"excerpt" yaml:"excerpt"`
	WordCount   int       `json:"word_count" yaml:"word_count"`
	RetrievedAt time.Time `json:"retrieved_at" yaml:"retrieved_at"`
}

// Search scans every persisted entry for a case-insensitive substring
// match against title, body, or any tag. There is no ranking; hits come
// back in ascending ID order, which keeps results deterministic across
// runs. MaxResults from the store config caps the hit count when set.
func (s *Store) Search(query string) ([]Excerpt, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var hits []Excerpt
	for _, entry := range entries {
		if !matches(needle, entry.Title, entry.Body, entry.Tags) {
			continue
		}
		hits = append(hits, Excerpt{
			ID:          entry.ID,
			Title:       entry.Title,
			Address:     entry.Address,
			Excerpt:     excerpt(entry.Body),
			WordCount:   entry.WordCount,
			RetrievedAt: entry.RetrievedAt,
		})
		if s.maxResults > 0 && len(hits) >= s.maxResults {
			break
		}
	}
	return hits, nil
}

func matches(needle, title, body string, tags []string) bool {
	if strings.Contains(strings.ToLower(title), needle) ||
		strings.Contains(strings.ToLower(body), needle) {
		return true
	}
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// excerpt quotes the first excerptLen runes of body. Rune counting keeps
// Cyrillic bodies from being cut mid-character.
func excerpt(body string) string {
	runes := []rune(body)
	if len(runes) <= excerptLen {
		return body
	}
	return string(runes[:excerptLen]) + "…"
}
