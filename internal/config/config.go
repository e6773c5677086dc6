package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is the number of pages fetched at the same time.
	DefaultConcurrency = 4

	// DefaultCrawlDepth of 0 fetches only the pages named in the URL list.
	DefaultCrawlDepth = 0

	// DefaultMaxPages caps the pages collected from one listed URL when
	// link following is enabled.
	DefaultMaxPages = 20

	// AppName is the application name used for XDG directory paths.
	AppName = "wordfactor"

	// DefaultCrawlDelay is the delay between requests to the same site.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultUserAgent identifies wordfactor in HTTP requests.
	DefaultUserAgent = "wordfactor/1.0 (+https://github.com/nao1215/wordfactor)"

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultMinWordLength drops tokens shorter than three runes ("a", "of", "to").
	DefaultMinWordLength = 3

	// DefaultMinDocumentFrequency keeps every word that occurs in at least one document.
	DefaultMinDocumentFrequency = 1

	// DefaultRank is the number of features extracted by the factorization.
	DefaultRank = 3

	// DefaultMaxIter bounds the multiplicative update iterations.
	DefaultMaxIter = 200

	// DefaultTolerance is the relative residual change that ends the iteration.
	DefaultTolerance = 1e-4

	// DefaultSeed makes factorizations reproducible between runs.
	DefaultSeed = 1

	// DefaultTopWords is the number of words listed per feature in reports.
	DefaultTopWords = 10

	// DefaultCacheTTL is how long a fetched page is reused from the page cache.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultWordTableFile is the file name used by "wordfactor matrix".
	DefaultWordTableFile = "wordcount.txt"
)

// Config holds all configuration options for wordfactor.
// It is populated from defaults, the YAML configuration file, and CLI flags,
// in that order, and is passed explicitly to the components that need it.
type Config struct {
	// URLListPath is a text file with one URL per line.
	URLListPath string

	// TablePath is a word-count table written by a previous "matrix" run.
	// It replaces fetching when set.
	TablePath string

	// Timeout is the HTTP timeout for each request.
	Timeout time.Duration

	// Concurrency is the number of listed URLs fetched at the same time.
	Concurrency int

	// CrawlDepth is how many links deep to follow from each listed URL.
	// Depth 0 means only the listed page itself.
	CrawlDepth int

	// MaxPages is the maximum number of pages taken from one listed URL.
	MaxPages int

	// CrawlDelay is the delay between HTTP requests made by one spider.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default.
	MaxBodySize int64

	// MinWordLength is the minimum token length in runes.
	MinWordLength int

	// MinDocumentFrequency drops words that occur in fewer documents.
	MinDocumentFrequency int

	// MaxWords keeps only the most frequent words when positive.
	MaxWords int

	// Stemming reduces words to their Snowball stem before counting.
	Stemming bool

	// ExtraStopwords are appended to the built-in English stopword list.
	ExtraStopwords []string

	// Rank is the number of features (k) of the factorization.
	Rank int

	// MaxIter is the maximum number of factorization iterations.
	MaxIter int

	// Tolerance is the relative residual change that ends the factorization.
	Tolerance float64

	// Seed initializes the random starting factors.
	Seed uint64

	// TopWords is the number of words listed for each feature.
	TopWords int

	// UseCache reuses pages fetched within CacheTTL from the page cache.
	UseCache bool

	// CacheTTL is the maximum age of a cached page.
	CacheTTL time.Duration

	// DBDir is the directory holding the SQLite database.
	DBDir string

	// SaveToDB stores fetched pages and categorization runs in the database.
	SaveToDB bool

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .wordfactor is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds per-site settings loaded from the config file.
	SiteConfigs *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report; stdout when empty.
	ReportFile string

	// WordTableFile is where the word-count table is written.
	WordTableFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:              DefaultTimeout,
		Concurrency:          DefaultConcurrency,
		CrawlDepth:           DefaultCrawlDepth,
		MaxPages:             DefaultMaxPages,
		CrawlDelay:           DefaultCrawlDelay,
		UserAgent:            DefaultUserAgent,
		MaxBodySize:          DefaultMaxBodySize,
		MinWordLength:        DefaultMinWordLength,
		MinDocumentFrequency: DefaultMinDocumentFrequency,
		Rank:                 DefaultRank,
		MaxIter:              DefaultMaxIter,
		Tolerance:            DefaultTolerance,
		Seed:                 DefaultSeed,
		TopWords:             DefaultTopWords,
		UseCache:             true,
		CacheTTL:             DefaultCacheTTL,
		WordTableFile:        DefaultWordTableFile,
	}
}

// XDGDataDir returns the XDG data directory for wordfactor.
// On Linux: ~/.local/share/wordfactor
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wordfactor.
// On Linux: ~/.config/wordfactor
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for wordfactor.
// On Linux: ~/.cache/wordfactor
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.URLListPath == "" && c.TablePath == "" {
		return ErrNoInput
	}
	if c.URLListPath != "" && c.TablePath != "" {
		return ErrConflictingInputs
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.CrawlDepth < 0 {
		return ErrInvalidCrawlDepth
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.MinWordLength < 1 {
		return ErrInvalidMinWordLength
	}
	if c.Rank <= 0 {
		return ErrInvalidRank
	}
	if c.MaxIter <= 0 {
		return ErrInvalidMaxIter
	}
	if c.Tolerance <= 0 {
		return ErrInvalidTolerance
	}
	if c.TopWords <= 0 {
		return ErrInvalidTopWords
	}
	return nil
}

// ApplyFile merges text options from the configuration file into c.
// Values set in the file replace the current ones, so callers apply
// command-line flags afterwards for those to take precedence.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.SiteConfigs = f
	c.ExtraStopwords = append(c.ExtraStopwords, f.Stopwords...)
	if f.Text.MinWordLength > 0 {
		c.MinWordLength = f.Text.MinWordLength
	}
	if f.Text.MinDocumentFrequency > 0 {
		c.MinDocumentFrequency = f.Text.MinDocumentFrequency
	}
	if f.Text.MaxWords > 0 {
		c.MaxWords = f.Text.MaxWords
	}
	if f.Text.Stemming {
		c.Stemming = true
	}
}
