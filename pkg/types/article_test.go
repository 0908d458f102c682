// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"testing"
	"unicode"
)

func TestArticleID(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		body     string
		wantSlug string
	}{
		{"ascii title", "Payment Methods", "some body", "PaymentMethods"},
		{"punctuation stripped", "Go 1.22: what's new?", "body", "Go122whatsnew"},
		{"cyrillic title", "Оплата электроэнергии", "body", "Оплатаэлектроэнергии"},
		{"long title truncated", "A very long article title about tariffs", "body", "Averylongarticletitl"},
		{"empty title", "", "body", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ArticleID(tt.title, tt.body)
			parts := strings.SplitN(got, "_", 2)
			if len(parts) != 2 {
				t.Fatalf("ArticleID(%q, %q) = %q, want slug_hash form", tt.title, tt.body, got)
			}
			if parts[0] != tt.wantSlug {
				t.Errorf("slug = %q, want %q", parts[0], tt.wantSlug)
			}
			if len(parts[1]) != 10 {
				t.Errorf("hash prefix length = %d, want 10", len(parts[1]))
			}
			for _, r := range parts[1] {
				if !unicode.Is(unicode.ASCII_Hex_Digit, r) {
					t.Errorf("hash prefix %q contains non-hex rune %q", parts[1], r)
				}
			}
		})
	}
}

func TestArticleID_Deterministic(t *testing.T) {
	a := ArticleID("Счетчик", "показания за март")
	b := ArticleID("Счетчик", "показания за март")
	if a != b {
		t.Errorf("same inputs produced different IDs: %q vs %q", a, b)
	}
}

func TestArticleID_BodySensitive(t *testing.T) {
	a := ArticleID("Title", "first body")
	b := ArticleID("Title", "second body")
	if a == b {
		t.Errorf("different bodies produced the same ID: %q", a)
	}
}

func TestArticleID_SlugRuneBound(t *testing.T) {
	// Multibyte titles overshoot the byte-length check inside the builder;
	// the final slug must still be at most 20 runes.
	id := ArticleID("Электроэнергия и тарифы на электричество", "body")
	slug := strings.SplitN(id, "_", 2)[0]
	if n := len([]rune(slug)); n > 20 {
		t.Errorf("slug %q has %d runes, want at most 20", slug, n)
	}
}

func TestNewArticle(t *testing.T) {
	a := NewArticle("Title", "https://kb.example.com/content/1", "one two  three\nfour", "billing", nil, nil)

	if a.WordCount != 4 {
		t.Errorf("WordCount = %d, want 4", a.WordCount)
	}
	if a.Tags == nil || len(a.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty non-nil slice", a.Tags)
	}
	if a.Metadata == nil {
		t.Error("Metadata is nil, want empty map")
	}
	if a.RetrievedAt.IsZero() {
		t.Error("RetrievedAt not stamped")
	}
	if a.Category != "billing" {
		t.Errorf("Category = %q, want %q", a.Category, "billing")
	}
}

func TestNewArticle_EmptyBody(t *testing.T) {
	a := NewArticle("Title", "addr", "", "", nil, nil)
	if a.WordCount != 0 {
		t.Errorf("WordCount = %d, want 0 for empty body", a.WordCount)
	}
}
