package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches any response rejected with 401.
var ErrUnauthorized = errors.New("authentication rejected")

// HTTPError is returned for every non-2xx response.
type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is reports 401 responses as ErrUnauthorized.
func (e *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// StatusCode extracts the HTTP status from err, or 0 if err is not an *HTTPError.
func StatusCode(err error) int {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode
	}
	return 0
}
