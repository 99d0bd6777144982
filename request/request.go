// Package request builds immutable descriptors of outbound requests.
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout applies when no positive timeout is given.
const DefaultTimeout = 15 * time.Second

var ErrInvalidURL = errors.New("request: invalid url")

type Method string

const (
	GET    Method = http.MethodGet
	POST   Method = http.MethodPost
	PUT    Method = http.MethodPut
	PATCH  Method = http.MethodPatch
	DELETE Method = http.MethodDelete
)

// Descriptor describes one outbound request. It is immutable once built;
// accessors hand out copies of reference fields.
type Descriptor struct {
	method      Method
	url         *url.URL
	headers     http.Header
	body        []byte
	shouldCache bool
	timeout     time.Duration
}

// Option configures a Descriptor under construction.
type Option func(*builder) error

type builder struct {
	d     Descriptor
	query map[string]string
}

// New parses rawURL and applies opts. The default method is GET.
func New(rawURL string, opts ...Option) (Descriptor, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	b := &builder{d: Descriptor{
		method:  GET,
		url:     u,
		headers: make(http.Header),
		timeout: DefaultTimeout,
	}}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return Descriptor{}, err
		}
	}
	if len(b.query) > 0 {
		q := b.d.url.Query()
		for k, v := range b.query {
			q.Set(k, v)
		}
		b.d.url.RawQuery = q.Encode()
	}
	return b.d, nil
}

// MustNew is like New but panics on error. Meant for tests and fixed URLs.
func MustNew(rawURL string, opts ...Option) Descriptor {
	d, err := New(rawURL, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func WithMethod(m Method) Option {
	return func(b *builder) error {
		b.d.method = Method(strings.ToUpper(string(m)))
		return nil
	}
}

// WithQuery sets query parameters on the URL, replacing same-named ones.
func WithQuery(params map[string]string) Option {
	return func(b *builder) error {
		if b.query == nil {
			b.query = make(map[string]string, len(params))
		}
		for k, v := range params {
			b.query[k] = v
		}
		return nil
	}
}

func WithHeader(key, value string) Option {
	return func(b *builder) error {
		b.d.headers.Add(key, value)
		return nil
	}
}

func WithHeaders(h map[string]string) Option {
	return func(b *builder) error {
		for k, v := range h {
			b.d.headers.Add(k, v)
		}
		return nil
	}
}

func WithBody(body []byte) Option {
	return func(b *builder) error {
		b.d.body = append([]byte(nil), body...)
		return nil
	}
}

// WithJSONBody marshals v as the body and sets Content-Type.
func WithJSONBody(v any) Option {
	return func(b *builder) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("request: encode body: %w", err)
		}
		b.d.body = raw
		b.d.headers.Set("Content-Type", "application/json")
		return nil
	}
}

// WithCache marks the response as eligible for the persistent cache.
func WithCache(on bool) Option {
	return func(b *builder) error {
		b.d.shouldCache = on
		return nil
	}
}

// WithTimeout sets the per-request timeout; d <= 0 keeps DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(b *builder) error {
		if d > 0 {
			b.d.timeout = d
		}
		return nil
	}
}

// WithCredentials sets the Authorization header from c.
func WithCredentials(c Credentials) Option {
	return func(b *builder) error {
		if tok := c.Token(); tok != "" {
			b.d.headers.Set("Authorization", tok)
		}
		return nil
	}
}

func (d Descriptor) Method() Method { return d.method }

// URL returns a copy of the request URL.
func (d Descriptor) URL() *url.URL {
	if d.url == nil {
		return &url.URL{}
	}
	u := *d.url
	return &u
}

func (d Descriptor) Headers() http.Header { return d.headers.Clone() }

// Body returns a copy of the body, nil when absent.
func (d Descriptor) Body() []byte {
	if d.body == nil {
		return nil
	}
	return bytes.Clone(d.body)
}

func (d Descriptor) HasBody() bool          { return d.body != nil }
func (d Descriptor) ShouldCache() bool      { return d.shouldCache }
func (d Descriptor) Timeout() time.Duration { return d.timeout }

func (d Descriptor) String() string {
	return string(d.method) + " " + d.URL().String()
}
