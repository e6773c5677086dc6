package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/wordfactor/internal/model"
)

// DefaultConcurrency is the number of URLs fetched at the same time when
// WithConcurrency is not given.
const DefaultConcurrency = 4

// Crawler fetches the pages reachable from one listed URL.
type Crawler interface {
	Crawl(ctx context.Context, startURL string) ([]*model.Document, error)
}

// CrawlerFactory returns the Crawler used for one listed URL, so that
// per-site settings can differ between URLs.
type CrawlerFactory func(rawURL string) Crawler

// PageCache stores the merged text of listed URLs between runs.
type PageCache interface {
	GetFreshPage(ctx context.Context, url string, maxAge time.Duration) (*model.Document, error)
	UpsertPage(ctx context.Context, doc *model.Document) error
}

// FetchResult is the outcome of fetching one listed URL.
type FetchResult struct {
	URL string

	// Document holds the text of the listed page and every page crawled
	// from it. Nil when Err is set.
	Document *model.Document

	// Pages is the number of pages merged into Document.
	Pages int

	Err error
}

// BatchFetcher fetches many listed URLs concurrently.
type BatchFetcher struct {
	newCrawler  CrawlerFactory
	concurrency int
	cache       PageCache
	cacheMaxAge time.Duration
	logger      *slog.Logger
}

// BatchOption configures a BatchFetcher.
type BatchOption func(*BatchFetcher)

// WithConcurrency sets the maximum number of URLs fetched at once.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchFetcher) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithPageCache reads pages younger than maxAge from cache instead of the
// network and writes every fetched page back. A zero maxAge only writes.
func WithPageCache(cache PageCache, maxAge time.Duration) BatchOption {
	return func(b *BatchFetcher) {
		b.cache = cache
		b.cacheMaxAge = maxAge
	}
}

// WithBatchLogger sets a custom logger for batch fetching.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchFetcher) {
		b.logger = logger
	}
}

// NewBatchFetcher creates a BatchFetcher that crawls with crawlers made by
// newCrawler.
func NewBatchFetcher(newCrawler CrawlerFactory, opts ...BatchOption) *BatchFetcher {
	b := &BatchFetcher{
		newCrawler:  newCrawler,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// FetchAll fetches every URL and returns one result per URL in input order.
// A failing URL records its error in its result and never stops the others.
// URLs not started before ctx is cancelled carry ctx's error.
func (b *BatchFetcher) FetchAll(ctx context.Context, urls []string) []FetchResult {
	b.logger.Info("starting batch fetch",
		"total_urls", len(urls),
		"concurrency", b.concurrency,
	)
	start := time.Now()

	results := make([]FetchResult, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, rawURL := range urls {
		g.Go(func() error {
			results[i] = b.fetchOne(gctx, rawURL, i, len(urls))
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers record errors in their results

	b.logger.Info("batch fetch complete",
		"total_urls", len(urls),
		"elapsed", time.Since(start),
	)
	return results
}

func (b *BatchFetcher) fetchOne(ctx context.Context, rawURL string, index, total int) FetchResult {
	result := FetchResult{URL: rawURL}
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	if b.cache != nil && b.cacheMaxAge > 0 {
		doc, err := b.cache.GetFreshPage(ctx, rawURL, b.cacheMaxAge)
		if err != nil {
			b.logger.Warn("page cache lookup failed", "url", rawURL, "error", err)
		} else if doc != nil {
			b.logger.Debug("using cached page", "url", rawURL)
			result.Document = doc
			result.Pages = 1
			return result
		}
	}

	b.logger.Info("fetching url",
		"url", rawURL,
		"index", index+1,
		"total", total,
	)

	docs, err := b.newCrawler(rawURL).Crawl(ctx, rawURL)
	if err != nil {
		b.logger.Warn("fetch failed", "url", rawURL, "error", err)
		result.Err = err
		return result
	}

	result.Document = mergeDocuments(rawURL, docs)
	result.Pages = len(docs)

	if b.cache != nil {
		if err := b.cache.UpsertPage(ctx, result.Document); err != nil {
			b.logger.Warn("failed to cache page", "url", rawURL, "error", err)
		}
	}
	return result
}

// mergeDocuments combines the pages crawled from one listed URL into a
// single document labelled with that URL. The first page supplies the
// metadata.
func mergeDocuments(rawURL string, docs []*model.Document) *model.Document {
	merged := &model.Document{URL: rawURL, FetchedAt: time.Now()}
	if len(docs) == 0 {
		return merged
	}

	first := docs[0]
	merged.StatusCode = first.StatusCode
	merged.ContentType = first.ContentType
	merged.Title = first.Title
	merged.FetchedAt = first.FetchedAt

	texts := make([]string, 0, len(docs))
	seen := make(map[string]bool)
	for _, d := range docs {
		if d.Text != "" {
			texts = append(texts, d.Text)
		}
		for _, link := range d.Links {
			if !seen[link] {
				seen[link] = true
				merged.Links = append(merged.Links, link)
			}
		}
	}
	merged.Text = strings.Join(texts, "\n")
	merged.TruncateText()
	merged.ComputeHash()
	return merged
}
