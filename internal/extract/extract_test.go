// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/meshintelligence/kb-harvester/pkg/types"
)

// fakeFetcher serves canned HTML and can fail a configurable number of
// leading calls to exercise the retry path.
type fakeFetcher struct {
	pages    map[string]string
	failures int
	calls    int
}

func (f *fakeFetcher) Get(_ context.Context, addr string) (*goquery.Document, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	html, ok := f.pages[addr]
	if !ok {
		return nil, fmt.Errorf("no page for %s", addr)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *fakeFetcher) Resolve(addr string) string { return addr }

func newTestEngine(fetch *fakeFetcher) *Engine {
	cfg := types.FetchConfig{MaxRetries: 3, RetryDelay: time.Millisecond}
	return New(fetch, types.DefaultSelectors(), cfg, io.Discard)
}

const longBody = `Для передачи показаний счетчика электроэнергии воспользуйтесь
личным кабинетом на сайте или мобильным приложением. Показания принимаются
с 15 по 25 число каждого месяца. При отсутствии показаний начисление
производится по среднемесячному расходу за предыдущие полгода.`

func articlePage(title, body string) string {
	return fmt.Sprintf(`<html><body>
		<h1>%s</h1>
		<div class="date">15.03.2026</div>
		<div class="author">Служба поддержки</div>
		<div class="category">Показания</div>
		<article>%s</article>
		<ul class="tags">
			<li><a href="/tag/1">счетчик</a></li>
			<li><a href="/tag/2">показания</a></li>
			<li><a href="/tag/3">счетчик</a></li>
		</ul>
	</body></html>`, title, body)
}

func TestExtract_FullPage(t *testing.T) {
	addr := "https://kb.example.com/content/meters"
	fetch := &fakeFetcher{pages: map[string]string{
		addr: articlePage("Как передать показания счетчика", longBody),
	}}

	article, err := newTestEngine(fetch).Extract(context.Background(), addr)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if article.Title != "Как передать показания счетчика" {
		t.Errorf("Title = %q", article.Title)
	}
	if article.Address != addr {
		t.Errorf("Address = %q, want %q", article.Address, addr)
	}
	if !strings.Contains(article.Body, "личным кабинетом") {
		t.Errorf("Body missing expected text: %q", article.Body)
	}
	if article.WordCount == 0 {
		t.Error("WordCount = 0, want > 0")
	}
	if article.Metadata["date"] != "15.03.2026" {
		t.Errorf("Metadata[date] = %q", article.Metadata["date"])
	}
	if article.Metadata["author"] != "Служба поддержки" {
		t.Errorf("Metadata[author] = %q", article.Metadata["author"])
	}
	if article.Category != "Показания" {
		t.Errorf("Category = %q", article.Category)
	}
	if article.Metadata["language"] != "ru" {
		t.Errorf("Metadata[language] = %q, want ru", article.Metadata["language"])
	}
	want := []string{"счетчик", "показания"}
	if len(article.Tags) != len(want) {
		t.Fatalf("Tags = %#v, want %#v", article.Tags, want)
	}
	for i := range want {
		if article.Tags[i] != want[i] {
			t.Errorf("Tags[%d] = %q, want %q", i, article.Tags[i], want[i])
		}
	}
}

func TestExtract_TitleCascadeSkipsShortHeading(t *testing.T) {
	addr := "/content/a"
	html := fmt.Sprintf(`<html><body>
		<h1>Ok</h1>
		<div class="article-title">Полное название статьи</div>
		<article>%s</article>
	</body></html>`, longBody)
	fetch := &fakeFetcher{pages: map[string]string{addr: html}}

	article, err := newTestEngine(fetch).Extract(context.Background(), addr)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if article.Title != "Полное название статьи" {
		t.Errorf("Title = %q, want the cascade to skip the short h1", article.Title)
	}
}

func TestExtract_SentinelsOnEmptyPage(t *testing.T) {
	addr := "/content/empty"
	fetch := &fakeFetcher{pages: map[string]string{addr: `<html><body>   </body></html>`}}

	article, err := newTestEngine(fetch).Extract(context.Background(), addr)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if article.Title != TitleMissing {
		t.Errorf("Title = %q, want %q", article.Title, TitleMissing)
	}
	if article.Body != BodyMissing {
		t.Errorf("Body = %q, want %q", article.Body, BodyMissing)
	}
	if _, ok := article.Metadata["language"]; ok {
		t.Error("language set for sentinel body")
	}
}

func TestExtract_RetriesThenSucceeds(t *testing.T) {
	addr := "/content/flaky"
	fetch := &fakeFetcher{
		pages:    map[string]string{addr: articlePage("Надежная статья о тарифах", longBody)},
		failures: 2,
	}

	article, err := newTestEngine(fetch).Extract(context.Background(), addr)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if fetch.calls != 3 {
		t.Errorf("fetch calls = %d, want 3", fetch.calls)
	}
	if article.Title == TitleMissing {
		t.Error("got sentinel title after successful retry")
	}
}

func TestExtract_ExhaustsRetries(t *testing.T) {
	fetch := &fakeFetcher{failures: 10}
	_, err := newTestEngine(fetch).Extract(context.Background(), "/content/down")
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if fetch.calls != 3 {
		t.Errorf("fetch calls = %d, want 3", fetch.calls)
	}
}
