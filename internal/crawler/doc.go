// Package crawler fetches web pages and reduces them to the text that
// wordfactor counts words in.
//
// # Components
//
//   - Spider: fetches a listed page and, when a depth above zero is set,
//     follows same-host links breadth-first
//   - Parser: HTML parser that extracts the title, visible text and links
//
// # Politeness
//
// The spider waits between requests, stops at depth and page limits, and
// honours glob patterns that skip or restrict the paths it follows.
//
// # Usage
//
//	spider := crawler.NewSpider(httpClient, crawler.WithMaxDepth(1))
//	docs, err := spider.Crawl(ctx, "https://example.com/news")
package crawler
