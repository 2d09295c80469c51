// Package httpclient talks to the console's backend API. Cross-cutting
// behavior (in-flight de-duplication, envelope unwrapping, timeouts, logging)
// is layered on a plain transport as middleware.
package httpclient

import (
	"context"
	"net/http"
	"strings"
)

// Request describes one upstream call. URL is relative to the transport's
// base URL.
type Request struct {
	Method string
	URL    string
	Params map[string]any
	Body   any
	Header http.Header
}

// Response carries the decoded JSON body (see jsonutil.Decode). Body is the raw
// text when the upstream did not answer with JSON.
type Response struct {
	Status int
	Header http.Header
	Body   any
}

// Client performs upstream calls.
type Client interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req *Request) (*Response, error)

func (f ClientFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware decorates a Client to inject cross-cutting concerns.
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

func normalizeMethod(m string) string {
	m = strings.ToUpper(strings.TrimSpace(m))
	if m == "" {
		return http.MethodGet
	}
	return m
}

func hasBody(method string) bool {
	switch normalizeMethod(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}
