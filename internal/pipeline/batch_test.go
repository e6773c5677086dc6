package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/nao1215/wordfactor/internal/model"
)

// fakeCrawler returns canned pages per URL.
type fakeCrawler struct {
	pages  map[string][]*model.Document
	errs   map[string]error
	delay  time.Duration
	calls  atomic.Int32
	active atomic.Int32
	peak   atomic.Int32
}

func (f *fakeCrawler) Crawl(ctx context.Context, startURL string) ([]*model.Document, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if err := f.errs[startURL]; err != nil {
		return nil, err
	}
	return f.pages[startURL], nil
}

func (f *fakeCrawler) factory() CrawlerFactory {
	return func(string) Crawler { return f }
}

// memoryCache is an in-memory PageCache.
type memoryCache struct {
	mu    sync.Mutex
	pages map[string]*model.Document
	puts  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{pages: make(map[string]*model.Document)}
}

func (c *memoryCache) GetFreshPage(_ context.Context, url string, maxAge time.Duration) (*model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.pages[url]
	if !ok || maxAge <= 0 || time.Since(doc.FetchedAt) > maxAge {
		return nil, nil
	}
	cp := *doc
	cp.FromCache = true
	return &cp, nil
}

func (c *memoryCache) UpsertPage(_ context.Context, doc *model.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[doc.URL] = doc
	c.puts++
	return nil
}

func page(url, text string) *model.Document {
	return &model.Document{URL: url, Text: text, StatusCode: 200, FetchedAt: time.Now()}
}

func TestBatchFetcher_FetchAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	urls := make([]string, 12)
	crawler := &fakeCrawler{
		pages: make(map[string][]*model.Document),
		errs:  map[string]error{},
		delay: 5 * time.Millisecond,
	}
	for i := range urls {
		urls[i] = "https://example.com/" + string(rune('a'+i))
		crawler.pages[urls[i]] = []*model.Document{page(urls[i], "text "+urls[i])}
	}
	crawler.errs[urls[3]] = errors.New("connection refused")

	b := NewBatchFetcher(crawler.factory(), WithConcurrency(3), WithBatchLogger(quietLogger()))
	results := b.FetchAll(context.Background(), urls)

	if len(results) != len(urls) {
		t.Fatalf("got %d results, want %d", len(results), len(urls))
	}
	for i, r := range results {
		if r.URL != urls[i] {
			t.Errorf("results[%d].URL = %q, want %q", i, r.URL, urls[i])
		}
		if i == 3 {
			if r.Err == nil {
				t.Error("expected error for failing URL")
			}
			continue
		}
		if r.Err != nil {
			t.Errorf("results[%d]: unexpected error %v", i, r.Err)
			continue
		}
		if r.Document.Text != "text "+urls[i] {
			t.Errorf("results[%d].Text = %q", i, r.Document.Text)
		}
	}
	if peak := crawler.peak.Load(); peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
}

func TestBatchFetcher_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	crawler := &fakeCrawler{delay: time.Second}
	b := NewBatchFetcher(crawler.factory(), WithConcurrency(2), WithBatchLogger(quietLogger()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	results := b.FetchAll(ctx, []string{"https://a.example/", "https://b.example/", "https://c.example/"})
	for i, r := range results {
		if !errors.Is(r.Err, context.DeadlineExceeded) {
			t.Errorf("results[%d].Err = %v, want deadline exceeded", i, r.Err)
		}
	}
}

func TestBatchFetcher_Cache(t *testing.T) {
	t.Parallel()

	const u = "https://example.com/"
	crawler := &fakeCrawler{pages: map[string][]*model.Document{u: {page(u, "fresh text")}}}
	cache := newMemoryCache()

	b := NewBatchFetcher(crawler.factory(), WithPageCache(cache, time.Hour), WithBatchLogger(quietLogger()))

	first := b.FetchAll(context.Background(), []string{u})
	if first[0].Err != nil || first[0].Document.FromCache {
		t.Fatalf("first fetch should hit the network: %+v", first[0])
	}
	second := b.FetchAll(context.Background(), []string{u})
	if second[0].Err != nil || !second[0].Document.FromCache {
		t.Fatalf("second fetch should hit the cache: %+v", second[0])
	}
	if second[0].Document.Text != "fresh text" {
		t.Errorf("cached text = %q", second[0].Document.Text)
	}
	if calls := crawler.calls.Load(); calls != 1 {
		t.Errorf("crawler called %d times, want 1", calls)
	}

	writeOnly := NewBatchFetcher(crawler.factory(), WithPageCache(cache, 0), WithBatchLogger(quietLogger()))
	third := writeOnly.FetchAll(context.Background(), []string{u})
	if third[0].Document.FromCache {
		t.Error("zero max age must not read from the cache")
	}
	if cache.puts != 2 {
		t.Errorf("cache writes = %d, want 2", cache.puts)
	}
}

func TestMergeDocuments(t *testing.T) {
	t.Parallel()

	const u = "https://example.com/"
	first := page(u, "first page")
	first.Title = "Home"
	first.Links = []string{"https://example.com/a", "https://example.com/b"}
	second := page(u+"a", "second page")
	second.Links = []string{"https://example.com/b"}

	merged := mergeDocuments(u, []*model.Document{first, second, page(u+"b", "")})

	if merged.URL != u || merged.Title != "Home" {
		t.Errorf("metadata not taken from first page: %+v", merged)
	}
	if merged.Text != "first page\nsecond page" {
		t.Errorf("Text = %q", merged.Text)
	}
	if len(merged.Links) != 2 {
		t.Errorf("Links = %v", merged.Links)
	}
	if merged.Hash == "" {
		t.Error("expected hash to be computed")
	}

	empty := mergeDocuments(u, nil)
	if empty.Text != "" || !strings.HasPrefix(empty.URL, "https://") {
		t.Errorf("empty merge = %+v", empty)
	}
}
