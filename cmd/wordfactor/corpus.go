package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/wordfactor/internal/config"
	"github.com/nao1215/wordfactor/internal/crawler"
	"github.com/nao1215/wordfactor/internal/lexer"
	"github.com/nao1215/wordfactor/internal/pipeline"
	"github.com/nao1215/wordfactor/internal/termmatrix"
)

// addCorpusFlags registers the flags shared by commands that fetch pages
// and count words.
func addCorpusFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("urls", "u", "",
		"File with one URL per line")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .wordfactor in current or home directory)")

	// Fetch behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"HTTP timeout for each request")
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of URLs fetched at the same time")
	cmd.Flags().IntP("depth", "d", config.DefaultCrawlDepth,
		"Link depth followed from each listed URL (0 fetches only the listed page)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages taken from one listed URL")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Delay between requests made while following links")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with requests")
	cmd.Flags().Bool("no-cache", false,
		"Always fetch pages instead of reusing recently cached ones")
	cmd.Flags().Duration("cache-ttl", config.DefaultCacheTTL,
		"Maximum age of a cached page")
	addDBFlag(cmd)

	// Text flags
	cmd.Flags().Int("min-length", config.DefaultMinWordLength,
		"Minimum word length in characters")
	cmd.Flags().Int("min-df", config.DefaultMinDocumentFrequency,
		"Drop words that occur in fewer documents")
	cmd.Flags().Int("max-words", 0,
		"Keep only the most frequent words (0 keeps all)")
	cmd.Flags().Bool("stem", false,
		"Reduce words to their Snowball stem")
	cmd.Flags().StringSlice("stopword", nil,
		"Additional stopword (repeatable)")
}

// buildCorpusConfig creates a Config from the flags registered by
// addCorpusFlags and merges the configuration file into it.
func buildCorpusConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.URLListPath, err = cmd.Flags().GetString("urls")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}
	cfg.CrawlDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}
	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}
	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}
	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return nil, err
	}
	cfg.UseCache = !noCache
	cfg.CacheTTL, err = cmd.Flags().GetDuration("cache-ttl")
	if err != nil {
		return nil, err
	}
	cfg.DBDir, err = dbDir(cmd)
	if err != nil {
		return nil, err
	}

	// An explicitly requested file must exist; otherwise a missing file
	// leaves the defaults in place.
	file, err := config.ResolveConfigFile(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyFile(file)

	// Text flags given on the command line override the file.
	flags := cmd.Flags()
	if flags.Changed("min-length") {
		if cfg.MinWordLength, err = flags.GetInt("min-length"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("min-df") {
		if cfg.MinDocumentFrequency, err = flags.GetInt("min-df"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-words") {
		if cfg.MaxWords, err = flags.GetInt("max-words"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("stem") {
		if cfg.Stemming, err = flags.GetBool("stem"); err != nil {
			return nil, err
		}
	}
	stopwords, err := flags.GetStringSlice("stopword")
	if err != nil {
		return nil, err
	}
	cfg.ExtraStopwords = append(stopwords, cfg.ExtraStopwords...)

	return cfg, nil
}

// readURLList reads the URL list file named by the configuration.
func readURLList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	urls, err := termmatrix.ReadURLList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%s: %w", path, pipeline.ErrNoURLs)
	}
	return urls, nil
}

// newFetcher creates the batch fetcher for cfg. Each listed URL gets its own
// spider configured with the settings of its host. cache may be nil.
func newFetcher(cfg *config.Config, cache pipeline.PageCache, logger *slog.Logger) *pipeline.BatchFetcher {
	client := &http.Client{Timeout: cfg.Timeout}

	factory := func(rawURL string) pipeline.Crawler {
		site := cfg.SiteConfigs.SiteConfigForURL(rawURL)
		depth := cfg.CrawlDepth
		if site.Depth > 0 {
			depth = site.Depth
		}
		return crawler.NewSpider(client,
			crawler.WithMaxDepth(depth),
			crawler.WithMaxPages(cfg.MaxPages),
			crawler.WithDelay(cfg.CrawlDelay),
			crawler.WithUserAgent(cfg.UserAgent),
			crawler.WithMaxBodySize(cfg.MaxBodySize),
			crawler.WithHeaders(site.Headers),
			crawler.WithCookie(site.Cookie),
			crawler.WithIgnorePatterns(site.IgnorePatterns),
			crawler.WithFollowPatterns(site.FollowPatterns),
			crawler.WithLogger(logger),
		)
	}

	opts := []pipeline.BatchOption{
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	}
	if cache != nil {
		maxAge := cfg.CacheTTL
		if !cfg.UseCache {
			maxAge = 0
		}
		opts = append(opts, pipeline.WithPageCache(cache, maxAge))
	}
	return pipeline.NewBatchFetcher(factory, opts...)
}

// newTokenizer creates the tokenizer for cfg. The caller must Close it.
func newTokenizer(cfg *config.Config) (*lexer.Tokenizer, error) {
	tok, err := lexer.NewTokenizer(
		lexer.WithMinLength(cfg.MinWordLength),
		lexer.WithStopwords(cfg.ExtraStopwords...),
		lexer.WithStemming(cfg.Stemming),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}
	return tok, nil
}

// matrixOptions returns the matrix build options for cfg.
func matrixOptions(cfg *config.Config) []termmatrix.Option {
	return []termmatrix.Option{
		termmatrix.WithMinDocumentFrequency(cfg.MinDocumentFrequency),
		termmatrix.WithMaxWords(cfg.MaxWords),
	}
}

// corpusSteps returns the steps that turn the run's URLs into a count matrix.
func corpusSteps(cfg *config.Config, cache pipeline.PageCache, tok pipeline.Tokenizer, logger *slog.Logger) []pipeline.Step {
	return []pipeline.Step{
		pipeline.NewFetchStep(newFetcher(cfg, cache, logger)),
		pipeline.NewTokenizeStep(tok),
		pipeline.NewMatrixStep(matrixOptions(cfg)...),
	}
}
