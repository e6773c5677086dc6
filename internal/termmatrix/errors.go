package termmatrix

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMatrix is returned when no document or no word survives.
	ErrEmptyMatrix = errors.New("word-frequency matrix is empty")
	// ErrInvalidURL is returned for URL list entries that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("not an absolute http(s) URL")
	// ErrMissingHeader is returned when a table has no header line.
	ErrMissingHeader = errors.New("missing header line")
	// ErrRaggedRow is returned when a table row has the wrong number of columns.
	ErrRaggedRow = errors.New("wrong number of columns")
	// ErrInvalidCount is returned for counts that are not non-negative integers.
	ErrInvalidCount = errors.New("count must be a non-negative integer")
	// ErrDuplicateWord is returned when a word appears on two table rows.
	ErrDuplicateWord = errors.New("duplicate word")
)

// ParseError reports the line of a URL list or word-count table that could
// not be read.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
