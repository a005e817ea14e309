package transport

import (
	"context"
	"net/http"
	"net/url"
)

// Request is a single HTTP call relative to the transport's base URL.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Query  url.Values
	// Body is the already-serialized JSON payload; nil sends no body.
	Body []byte
}

// Response carries the raw result of a request. Status interpretation is
// left to the caller.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport issues requests and returns status plus body. Implementations
// must not retry.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Func adapts a plain function to the Transport interface.
type Func func(ctx context.Context, req Request) (*Response, error)

// Do calls f.
func (f Func) Do(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Cookies parses Set-Cookie headers of the response.
func (r *Response) Cookies() []*http.Cookie {
	if r == nil || len(r.Header) == 0 {
		return nil
	}
	return (&http.Response{Header: r.Header}).Cookies()
}
