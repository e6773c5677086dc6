package crawler

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnsupportedContent is returned for bodies that are neither HTML nor text.
var ErrUnsupportedContent = errors.New("unsupported content")

// StatusError is returned when a page answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}
