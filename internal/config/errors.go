package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while users still get a readable message.
var (
	// ErrNoInput is returned when neither a URL list nor a word-count table is given.
	ErrNoInput = errors.New("no input specified: provide --urls or --table")

	// ErrConflictingInputs is returned when both a URL list and a word-count table are given.
	ErrConflictingInputs = errors.New("conflicting inputs: --urls and --table cannot be used together")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the fetch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidCrawlDepth is returned when the crawl depth is negative.
	ErrInvalidCrawlDepth = errors.New("invalid crawl depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page limit per listed URL is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidMinWordLength is returned when the minimum word length is below 1.
	ErrInvalidMinWordLength = errors.New("invalid minimum word length: must be at least 1")

	// ErrInvalidRank is returned when the factorization rank is not positive.
	ErrInvalidRank = errors.New("invalid rank: number of features must be positive")

	// ErrInvalidMaxIter is returned when the iteration limit is not positive.
	ErrInvalidMaxIter = errors.New("invalid max iterations: must be positive")

	// ErrInvalidTolerance is returned when the convergence tolerance is not positive.
	ErrInvalidTolerance = errors.New("invalid tolerance: must be positive")

	// ErrInvalidTopWords is returned when the number of words listed per feature is not positive.
	ErrInvalidTopWords = errors.New("invalid top words: must be positive")
)
