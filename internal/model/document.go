package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Document is a fetched page reduced to what the word counts need.
type Document struct {
	// URL is the address the document was fetched from.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the media type of the response without parameters.
	ContentType string `json:"content_type,omitempty"`

	// Title is the text of the <title> element. Empty for non-HTML content.
	Title string `json:"title,omitempty"`

	// Text is the visible text of the page.
	Text string `json:"-"`

	// Links contains the absolute links found on the page.
	Links []string `json:"links,omitempty"`

	// Depth is the crawl depth the page was found at; 0 for listed URLs.
	Depth int `json:"depth"`

	// Hash is the SHA-256 hash of Text.
	Hash string `json:"hash"`

	// FetchedAt is when the page was fetched from the network.
	FetchedAt time.Time `json:"fetched_at"`

	// FromCache is true when the document was served from the page cache.
	FromCache bool `json:"from_cache,omitempty"`
}

// MaxTextSize is the maximum size of extracted text kept per document.
const MaxTextSize = 2 * 1024 * 1024 // 2 MB

// ComputeHash sets Hash from the document text.
func (d *Document) ComputeHash() {
	if d.Text == "" {
		d.Hash = ""
		return
	}
	hash := sha256.Sum256([]byte(d.Text))
	d.Hash = hex.EncodeToString(hash[:])
}

// IsHTML reports whether the content type is an HTML type.
func (d *Document) IsHTML() bool {
	ct := strings.ToLower(d.ContentType)
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

// TruncateText cuts Text to MaxTextSize bytes without splitting a rune.
func (d *Document) TruncateText() {
	if len(d.Text) <= MaxTextSize {
		return
	}
	cut := MaxTextSize
	for cut > 0 && !isRuneStart(d.Text[cut]) {
		cut--
	}
	d.Text = d.Text[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Label returns the column label used in the word-count table.
func (d *Document) Label() string {
	return d.URL
}
