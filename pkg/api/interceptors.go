package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// RequestInterceptor runs before every request is sent. Returning an error
// aborts the request and the error reaches the caller unchanged.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor runs after every round trip. err is the transport error
// or an *HTTPError for non-2xx responses, nil on success; resp is nil when the
// transport failed. The returned error replaces err.
type ResponseInterceptor func(req *http.Request, resp *http.Response, err error) error

// TokenSource yields the current bearer token, "" when there is none.
type TokenSource interface {
	Token() (string, error)
}

// BearerToken reads the token before every request and sets the Authorization
// header when one is present. Without a token the header is left unset.
func BearerToken(src TokenSource) RequestInterceptor {
	return func(req *http.Request) error {
		token, err := src.Token()
		if err != nil {
			return err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

// RequestID tags each request with a random X-Request-ID unless one is set.
func RequestID() RequestInterceptor {
	return func(req *http.Request) error {
		if req.Header.Get("X-Request-ID") == "" {
			req.Header.Set("X-Request-ID", uuid.NewString())
		}
		return nil
	}
}

// OnUnauthorized calls fn whenever a response is rejected with 401, before the
// error propagates to the caller.
func OnUnauthorized(fn func(ctx context.Context)) ResponseInterceptor {
	return func(req *http.Request, resp *http.Response, err error) error {
		if errors.Is(err, ErrUnauthorized) {
			fn(req.Context())
		}
		return err
	}
}

// UserAgent sets a fixed User-Agent header.
func UserAgent(ua string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set("User-Agent", ua)
		return nil
	}
}

func requestLabel(req *http.Request) string {
	return fmt.Sprintf("%s %s", req.Method, req.URL.Path)
}
