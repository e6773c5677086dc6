package termmatrix

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ReadURLList reads one URL per line. Blank lines and lines starting with '#'
// are skipped and duplicates are dropped, keeping the first occurrence.
func ReadURLList(r io.Reader) ([]string, error) {
	var urls []string
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !isAbsoluteHTTP(line) {
			return nil, &ParseError{Line: lineNo, Err: fmt.Errorf("%w: %q", ErrInvalidURL, line)}
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return urls, nil
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
