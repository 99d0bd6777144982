// Package transport performs the single network attempt behind a request.
// Fetchers report raw outcomes: status codes are never interpreted and
// transport failures are returned untouched for classification upstream.
package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/unkn0wn-root/offcache/request"
)

// Sentinels for fetchers that do not sit on net/http.
var (
	ErrTimedOut     = errors.New("transport: timed out")
	ErrNotConnected = errors.New("transport: not connected")
	ErrCancelled    = errors.New("transport: cancelled")
	ErrUploadFailed = errors.New("transport: upload failed")
)

// Response is a completed exchange. Body may be empty.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Fetcher interface {
	Fetch(ctx context.Context, d request.Descriptor) (Response, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, d request.Descriptor) (Response, error)

func (f FetcherFunc) Fetch(ctx context.Context, d request.Descriptor) (Response, error) {
	return f(ctx, d)
}
