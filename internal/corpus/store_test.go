// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/meshintelligence/kb-harvester/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(types.StoreConfig{DataDir: t.TempDir()}, io.Discard)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testArticle(title, body string, tags ...string) types.Article {
	return types.NewArticle(title, "https://kb.example.com/content/"+title, body, "Оплата", tags, nil)
}

func TestSaveAndEntry(t *testing.T) {
	store := newTestStore(t)
	article := testArticle("Оплата банковской картой", "Оплатить можно картой любого банка без комиссии.", "оплата")

	path, err := store.Save(article)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("record file missing: %v", err)
	}

	entry, err := store.Entry(article.ID())
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if entry.ID != article.ID() {
		t.Errorf("ID = %q, want %q", entry.ID, article.ID())
	}
	if entry.Title != article.Title || entry.Body != article.Body {
		t.Error("round-tripped entry does not match saved article")
	}
	if entry.PersistedAt.IsZero() {
		t.Error("PersistedAt not stamped")
	}
}

func TestSave_Idempotent(t *testing.T) {
	store := newTestStore(t)
	article := testArticle("Передача показаний", "Показания принимаются с 15 по 25 число.")

	if _, err := store.Save(article); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if _, err := store.Save(article); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	entries, err := store.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries after duplicate save, want 1", len(entries))
	}

	records, err := store.Index()
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d index records after duplicate save, want 1", len(records))
	}
}

func TestSave_DistinctBodiesDistinctEntries(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Save(testArticle("Тарифы", "Первая редакция статьи о тарифах.")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Save(testArticle("Тарифы", "Обновленная редакция статьи о тарифах.")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := store.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2 for distinct bodies", len(entries))
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats on empty store: %v", err)
	}
	if stats.TotalArticles != 0 || stats.TotalWords != 0 {
		t.Errorf("empty store stats = %+v, want zeros", stats)
	}

	store.Save(testArticle("Первая", "один два три"))
	store.Save(testArticle("Вторая", "четыре пять"))

	stats, err = store.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalArticles != 2 {
		t.Errorf("TotalArticles = %d, want 2", stats.TotalArticles)
	}
	if stats.TotalWords != 5 {
		t.Errorf("TotalWords = %d, want 5", stats.TotalWords)
	}
}

func TestSearch(t *testing.T) {
	store := newTestStore(t)
	store.Save(testArticle("Оформление субсидии", "Субсидия предоставляется малоимущим семьям.", "льгота"))
	store.Save(testArticle("Замена счетчика", "Счетчик меняется за счет сетевой организации."))

	tests := []struct {
		name      string
		query     string
		wantTitle string
	}{
		{"body match", "малоимущим", "Оформление субсидии"},
		{"title match case-insensitive", "замена", "Замена счетчика"},
		{"tag match", "льгота", "Оформление субсидии"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := store.Search(tt.query)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(hits) != 1 {
				t.Fatalf("got %d hits, want 1", len(hits))
			}
			if hits[0].Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", hits[0].Title, tt.wantTitle)
			}
		})
	}

	hits, err := store.Search("ничего такого нет")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits for absent text, want 0", len(hits))
	}
}

func TestSearch_ExcerptBounded(t *testing.T) {
	store := newTestStore(t)
	long := strings.Repeat("очень длинный текст статьи ", 30)
	store.Save(testArticle("Длинная статья", long))

	hits, err := store.Search("длинный")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	// 200 body runes plus the ellipsis.
	if n := utf8.RuneCountInString(hits[0].Excerpt); n > excerptLen+1 {
		t.Errorf("excerpt is %d runes, want at most %d", n, excerptLen+1)
	}
	if !strings.HasSuffix(hits[0].Excerpt, "…") {
		t.Error("truncated excerpt missing ellipsis")
	}
}

func TestSearch_MaxResults(t *testing.T) {
	store, err := NewStore(types.StoreConfig{DataDir: t.TempDir(), MaxResults: 1}, io.Discard)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	store.Save(testArticle("Первая статья", "общий текст про оплату"))
	store.Save(testArticle("Вторая статья", "общий текст про оплату тоже"))

	hits, err := store.Search("общий")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("got %d hits with MaxResults 1, want 1", len(hits))
	}
}

func TestExportCSV(t *testing.T) {
	store := newTestStore(t)
	store.Save(testArticle("Первая", "текст первой статьи"))
	store.Save(testArticle("Вторая", "текст второй статьи"))

	path := filepath.Join(t.TempDir(), "export.csv")

	n, err := store.ExportCSV(path)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if n != 2 {
		t.Errorf("exported %d rows, want 2", n)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d CSV lines, want header plus 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,title,address") {
		t.Errorf("unexpected header: %q", lines[0])
	}
}
