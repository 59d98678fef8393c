package api

import (
	"time"

	"github.com/aretw0/introspection"
)

// ClientState exposes internal state for observability.
type ClientState struct {
	BaseURL              string        `json:"base_url"`
	Timeout              time.Duration `json:"timeout"`
	RequestInterceptors  int           `json:"request_interceptors"`
	ResponseInterceptors int           `json:"response_interceptors"`
}

// State implements introspection.Introspectable.
func (c *Client) State() any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return ClientState{
		BaseURL:              c.baseURL.String(),
		Timeout:              c.http.Timeout,
		RequestInterceptors:  len(c.request),
		ResponseInterceptors: len(c.response),
	}
}

// ComponentType implements introspection.Component.
func (c *Client) ComponentType() string {
	return "api-client"
}

var _ introspection.Introspectable = (*Client)(nil)
var _ introspection.Component = (*Client)(nil)
