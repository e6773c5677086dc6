package config

import "net/url"

// SiteConfig holds settings applied when fetching pages from one host.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send, "name=value" or "a=1; b=2".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers to send.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the global crawl depth for this host. Zero keeps the global value.
	Depth int `yaml:"depth,omitempty"`

	// IgnorePatterns are URL path globs that are never followed.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns restrict link following to matching URL paths.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// TextConfig holds tokenizer and matrix options that can be set in the file.
type TextConfig struct {
	MinWordLength        int  `yaml:"minWordLength,omitempty"`
	MinDocumentFrequency int  `yaml:"minDocumentFrequency,omitempty"`
	MaxWords             int  `yaml:"maxWords,omitempty"`
	Stemming             bool `yaml:"stemming,omitempty"`
}

// File represents the structure of the .wordfactor configuration file.
type File struct {
	// Sites maps host names (e.g. "en.wikipedia.org") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every host unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Stopwords extend the built-in stopword list.
	Stopwords []string `yaml:"stopwords,omitempty"`

	// Text holds tokenizer and matrix options.
	Text TextConfig `yaml:"text,omitempty"`
}

// GetSiteConfig returns the configuration for a host merged over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if result.Headers != nil {
		headers := make(map[string]string, len(result.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}
	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.Depth != 0 {
		result.Depth = siteConfig.Depth
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}
	return result
}

// SiteConfigForURL returns the site settings for the host of rawURL.
// A nil File or an unparsable URL yields an empty SiteConfig.
func (cf *File) SiteConfigForURL(rawURL string) SiteConfig {
	if cf == nil {
		return SiteConfig{}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return cf.Defaults
	}
	return cf.GetSiteConfig(u.Hostname())
}
