package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/nao1215/wordfactor/internal/model"
)

// Spider fetches pages and optionally follows links on the same host.
// A Spider is safe for concurrent use; every Crawl keeps its own visited set.
type Spider struct {
	// client performs the HTTP requests.
	client *http.Client

	// maxDepth limits how deep to crawl from the starting URL.
	// 0 means only the starting page, 1 means one level of links, etc.
	maxDepth int

	// maxPages limits the number of pages fetched by one Crawl.
	maxPages int

	// delay is the time to wait between requests of one Crawl.
	delay time.Duration

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// headers are added to every request.
	headers map[string]string

	// cookie is sent as the Cookie header when set.
	cookie string

	// ignorePatterns are URL path patterns to skip during crawling.
	// Patterns use glob syntax (e.g., "/admin/*", "*.pdf").
	ignorePatterns []string

	// followPatterns are URL path patterns to follow during crawling.
	// If set, only URLs matching these patterns are crawled.
	followPatterns []string

	logger *slog.Logger

	// mutex protects the counters below.
	mutex        sync.Mutex
	pagesFetched int
	failures     int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the starting page, 1 = starting page plus linked pages, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxPages sets the maximum number of pages one Crawl fetches.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the delay between requests.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) SpiderOption {
	return func(s *Spider) {
		s.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size. Longer bodies are truncated.
func WithMaxBodySize(size int64) SpiderOption {
	return func(s *Spider) {
		s.maxBodySize = size
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) SpiderOption {
	return func(s *Spider) {
		s.headers = headers
	}
}

// WithCookie sets the Cookie header sent with every request.
func WithCookie(cookie string) SpiderOption {
	return func(s *Spider) {
		s.cookie = cookie
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow during crawling.
// If set, only URLs matching at least one pattern are crawled.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a new Spider with the given HTTP client.
// A nil client means http.DefaultClient.
func NewSpider(client *http.Client, opts ...SpiderOption) *Spider {
	if client == nil {
		client = http.DefaultClient
	}
	s := &Spider{
		client:      client,
		maxDepth:    0,
		maxPages:    20,
		delay:       500 * time.Millisecond,
		userAgent:   "wordfactor/1.0 (+https://github.com/nao1215/wordfactor)",
		maxBodySize: 5 * 1024 * 1024, // 5MB
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// queueItem represents an item in the crawl queue.
type queueItem struct {
	url   string
	depth int
}

// Crawl fetches startURL and, up to the configured depth, the same-host pages
// it links to. A failing start page is an error; failures further down are
// logged and skipped. On cancellation the pages fetched so far are returned
// with ctx.Err().
func (s *Spider) Crawl(ctx context.Context, startURL string) ([]*model.Document, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}
	if start.Scheme != "http" && start.Scheme != "https" {
		return nil, fmt.Errorf("invalid start URL %q: scheme must be http or https", startURL)
	}

	docs := make([]*model.Document, 0)
	visited := make(map[string]bool)
	queue := []queueItem{{url: start.String(), depth: 0}}

	for len(queue) > 0 && len(docs) < s.maxPages {
		if err := ctx.Err(); err != nil {
			return docs, err
		}

		item := queue[0]
		queue = queue[1:]

		key := normalizeURL(item.url)
		if visited[key] {
			continue
		}
		visited[key] = true

		if len(docs) > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return docs, ctx.Err()
			case <-time.After(s.delay):
			}
		}

		doc, links, err := s.Fetch(ctx, item.url)
		if err != nil {
			if item.depth == 0 {
				return nil, err
			}
			if ctx.Err() != nil {
				return docs, ctx.Err()
			}
			s.logger.Debug("skipping linked page", "url", item.url, "error", err)
			continue
		}
		doc.Depth = item.depth
		docs = append(docs, doc)

		if item.depth < s.maxDepth {
			for _, link := range links {
				if !visited[normalizeURL(link)] && isSameHost(start.Host, link) && s.shouldCrawl(link) {
					queue = append(queue, queueItem{url: link, depth: item.depth + 1})
				}
			}
		}
	}

	return docs, nil
}

// Fetch downloads one page and returns its document and same-host links.
// Non-2xx responses give a *StatusError.
func (s *Spider) Fetch(ctx context.Context, pageURL string) (*model.Document, []string, error) {
	doc, links, err := s.fetch(ctx, pageURL)

	s.mutex.Lock()
	if err != nil {
		s.failures++
	} else {
		s.pagesFetched++
	}
	s.mutex.Unlock()

	return doc, links, err
}

func (s *Spider) fetch(ctx context.Context, pageURL string) (*model.Document, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}

	s.logger.Debug("fetching page", "url", pageURL)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("GET %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, nil, &StatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", pageURL, err)
	}

	rawContentType := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(rawContentType)
	if err != nil {
		mediaType = ""
	}
	if mediaType == "" {
		mediaType = http.DetectContentType(body)
		if i := strings.Index(mediaType, ";"); i >= 0 {
			mediaType = mediaType[:i]
		}
		rawContentType = mediaType
	}

	doc := &model.Document{
		URL:         pageURL,
		StatusCode:  resp.StatusCode,
		ContentType: mediaType,
		FetchedAt:   time.Now(),
	}

	var links []string
	switch {
	case doc.IsHTML():
		reader, err := charset.NewReader(bytes.NewReader(body), rawContentType)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode %s: %w", pageURL, err)
		}
		parser, err := NewParser(pageURL)
		if err != nil {
			return nil, nil, err
		}
		result, err := parser.Parse(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
		}
		doc.Title = result.Title
		doc.Text = result.Text
		doc.Links = result.Links
		links = result.InternalLinks
	case strings.HasPrefix(mediaType, "text/") || (utf8.Valid(body) && !bytes.ContainsRune(body, 0)):
		doc.Text = strings.Join(strings.Fields(string(body)), " ")
	default:
		return nil, nil, fmt.Errorf("%w: %s is %s", ErrUnsupportedContent, pageURL, mediaType)
	}

	doc.TruncateText()
	doc.ComputeHash()

	return doc, links, nil
}

// Stats returns counters accumulated over the spider's lifetime.
func (s *Spider) Stats() SpiderStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return SpiderStats{
		PagesFetched: s.pagesFetched,
		Failures:     s.failures,
	}
}

// SpiderStats contains fetch statistics.
type SpiderStats struct {
	// PagesFetched is the number of pages successfully fetched.
	PagesFetched int

	// Failures is the number of fetches that failed.
	Failures int
}

// normalizeURL normalizes a URL for deduplication: the fragment is dropped,
// scheme and host are lower-cased, and an empty path becomes "/".
func normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// isSameHost checks if a URL is on the crawl's start host.
func isSameHost(baseHost, targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, baseHost)
}

// shouldCrawl checks if a URL should be crawled based on ignore/follow patterns.
// Ignore patterns win; when follow patterns are set a URL must match one.
func (s *Spider) shouldCrawl(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(s.followPatterns) > 0 {
		for _, pattern := range s.followPatterns {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}

	return true
}

// matchPattern checks if a path matches a glob pattern.
//
// Examples:
//   - "/archive/*" matches "/archive/2023", "/archive"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/page/?" matches "/page/1"
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}

	return false
}
