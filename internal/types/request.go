package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request describes a single page fetch.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Method is the HTTP method. Defaults to GET.
	Method string

	// Headers are custom HTTP headers to send with the request.
	Headers http.Header

	// Timeout overrides the fetcher's request timeout when non-zero.
	Timeout time.Duration

	// Tag names the kind of page ("summary", "ratings", "title", ...).
	Tag string

	// Offset is the 1-based start offset for paginated list pages, 0 otherwise.
	Offset int
}

// NewRequest creates a GET Request for rawURL.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	return &Request{
		URL:     u,
		Method:  http.MethodGet,
		Headers: make(http.Header),
	}, nil
}

// WithQuery returns a copy of the request with the given query parameters
// merged into its URL.
func (r *Request) WithQuery(params map[string]string) *Request {
	clone := r.Clone()
	q := clone.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	clone.URL.RawQuery = q.Encode()
	return clone
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Domain returns the hostname of the request URL.
func (r *Request) Domain() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Hostname()
}

// Clone creates a deep copy of the request.
func (r *Request) Clone() *Request {
	clone := *r
	if r.URL != nil {
		u := *r.URL
		clone.URL = &u
	}
	clone.Headers = r.Headers.Clone()
	if clone.Headers == nil {
		clone.Headers = make(http.Header)
	}
	return &clone
}
