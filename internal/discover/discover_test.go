// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/meshintelligence/kb-harvester/pkg/types"
)

const testBase = "https://kb.example.com"

// fakeFetcher serves canned result pages keyed by the relative address the
// engine requests.
type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Get(_ context.Context, addr string) (*goquery.Document, error) {
	f.calls = append(f.calls, addr)
	html, ok := f.pages[addr]
	if !ok {
		return nil, fmt.Errorf("no page for %s", addr)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *fakeFetcher) Resolve(addr string) string {
	if strings.HasPrefix(addr, "http") {
		return addr
	}
	return testBase + addr
}

func testSite() types.SiteConfig {
	return types.SiteConfig{
		BaseURL:           testBase,
		SearchPath:        "/search",
		ContentPathMarker: "/content/",
	}
}

func newTestEngine(fetch *fakeFetcher) *Engine {
	return New(fetch, testSite(), types.DefaultSelectors(), io.Discard)
}

func searchAddr(query string) string {
	return "/search?q=" + url.QueryEscape(query)
}

func TestDiscover_DirectSearch(t *testing.T) {
	fetch := &fakeFetcher{pages: map[string]string{
		searchAddr("тариф"): `<html><body>
			<a href="/content/tariff-day">Дневной тариф</a>
			<a href="/content/tariff-night">Ночной тариф</a>
			<a href="/about">О компании</a>
		</body></html>`,
	}}

	candidates, err := newTestEngine(fetch).Discover(context.Background(), "тариф", Options{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2: %#v", len(candidates), candidates)
	}
	if candidates[0].Title != "Дневной тариф" {
		t.Errorf("candidates[0].Title = %q", candidates[0].Title)
	}
	if candidates[0].Address != testBase+"/content/tariff-day" {
		t.Errorf("candidates[0].Address = %q, want absolute address", candidates[0].Address)
	}
}

func TestDiscover_DeduplicatesByAddress(t *testing.T) {
	fetch := &fakeFetcher{pages: map[string]string{
		searchAddr("долг"): `<html><body>
			<a href="/content/debt">Задолженность за свет</a>
			<a href="/content/debt">Долг (дубликат ссылки)</a>
		</body></html>`,
	}}

	candidates, err := newTestEngine(fetch).Discover(context.Background(), "долг", Options{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	// First-seen title wins.
	if candidates[0].Title != "Задолженность за свет" {
		t.Errorf("Title = %q, want the first-seen title", candidates[0].Title)
	}
}

func TestDiscover_NoResultsIsEmptyNotError(t *testing.T) {
	empty := `<html><body><p>Ничего не найдено</p></body></html>`
	fetch := &fakeFetcher{pages: map[string]string{
		searchAddr("неизвестный запрос"): empty,
	}}

	candidates, err := newTestEngine(fetch).Discover(context.Background(), "неизвестный запрос", Options{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("got %d candidates, want 0", len(candidates))
	}
}

func TestDiscover_FallbackLinkScan(t *testing.T) {
	// The result page carries no recognizable result items, but a plain
	// link mentions one of the query words; the fallback scan keeps it.
	// The result-item cascade is narrowed so the direct scan cannot see
	// the link, and the query words have no related-topic entries.
	page := `<html><body>
		<nav><a href="/home">Главная</a></nav>
		<div class="random">
			<a href="/content/meters-faq">Что делать, если прибор учета сломался</a>
			<a href="/content/other">Другая статья</a>
		</div>
	</body></html>`
	fetch := &fakeFetcher{pages: map[string]string{
		searchAddr("прибор сломался"): page,
	}}

	sel := types.DefaultSelectors()
	sel.ResultItems = []string{".search-result a"}
	engine := New(fetch, testSite(), sel, io.Discard)

	candidates, err := engine.Discover(context.Background(), "прибор сломался", Options{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1: %#v", len(candidates), candidates)
	}
	if candidates[0].Address != testBase+"/content/meters-faq" {
		t.Errorf("Address = %q", candidates[0].Address)
	}
}

func TestDiscover_SynonymsOptIn(t *testing.T) {
	fetch := &fakeFetcher{pages: map[string]string{
		searchAddr("льгота"):      `<html><body></body></html>`,
		searchAddr("преференция"): `<html><body></body></html>`,
		searchAddr("скидка"): `<html><body>
			<a href="/content/discounts">Скидки и льготы</a>
		</body></html>`,
		searchAddr("субсидия"): `<html><body></body></html>`,
	}}

	candidates, err := newTestEngine(fetch).Discover(context.Background(), "льгота", Options{Synonyms: true})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].Title != "Скидки и льготы" {
		t.Errorf("Title = %q", candidates[0].Title)
	}
}

func TestDiscover_SynonymsOffByDefault(t *testing.T) {
	fetch := &fakeFetcher{pages: map[string]string{
		searchAddr("льгота"):            `<html><body></body></html>`,
		searchAddr("оформление льготы"): `<html><body></body></html>`,
		searchAddr("социальные льготы"): `<html><body></body></html>`,
	}}

	_, err := newTestEngine(fetch).Discover(context.Background(), "льгота", Options{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	for _, call := range fetch.calls {
		if strings.Contains(call, url.QueryEscape("преференция")) {
			t.Errorf("synonym search %q issued without opt-in", call)
		}
	}
}

func TestSynonymVariants(t *testing.T) {
	variants := synonymVariants("льгота на оплату")
	if len(variants) > maxSynonymVariants {
		t.Fatalf("got %d variants, cap is %d", len(variants), maxSynonymVariants)
	}
	if len(variants) == 0 {
		t.Fatal("expected variants for a known word")
	}
	for _, v := range variants {
		if v == "льгота на оплату" {
			t.Error("variants must not include the original query")
		}
		if !strings.Contains(v, "на оплату") {
			t.Errorf("variant %q lost the untouched words", v)
		}
	}
}

func TestSynonymVariants_UnknownWord(t *testing.T) {
	if got := synonymVariants("неизвестное слово"); len(got) != 0 {
		t.Errorf("got %d variants for unknown words, want 0", len(got))
	}
}

func TestRelatedPhrases(t *testing.T) {
	phrases := relatedPhrases("долг тариф")
	// Two table words, capped at two phrases each.
	if len(phrases) != 4 {
		t.Fatalf("got %d phrases, want 4: %#v", len(phrases), phrases)
	}
	if phrases[0] != "погашение задолженности" {
		t.Errorf("phrases[0] = %q", phrases[0])
	}
}
