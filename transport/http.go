package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/unkn0wn-root/offcache/log"
	"github.com/unkn0wn-root/offcache/request"
)

type HTTPOptions struct {
	Client    *http.Client // nil => a client without its own timeout
	UserAgent string       // set when the descriptor carries none
	Logger    log.Logger
}

// HTTP fetches over net/http. The descriptor's timeout bounds the whole
// exchange, body read included.
type HTTP struct {
	client *http.Client
	ua     string
	log    log.Logger
}

var _ Fetcher = (*HTTP)(nil)

func NewHTTP(opts HTTPOptions) *HTTP {
	c := opts.Client
	if c == nil {
		c = &http.Client{}
	}
	return &HTTP{client: c, ua: opts.UserAgent, log: log.OrNop(opts.Logger)}
}

func (h *HTTP) Fetch(ctx context.Context, d request.Descriptor) (Response, error) {
	if t := d.Timeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	var body io.Reader
	if d.HasBody() {
		body = bytes.NewReader(d.Body())
	}
	req, err := http.NewRequestWithContext(ctx, string(d.Method()), d.URL().String(), body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", request.ErrInvalidURL, err)
	}
	req.Header = d.Headers()
	if h.ua != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", h.ua)
	}
	h.log.Debug("request", log.Fields{"method": req.Method, "url": req.URL.String(), "bytes": len(d.Body())})

	resp, err := h.client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}
	h.log.Debug("response", log.Fields{"url": req.URL.String(), "status": resp.StatusCode, "bytes": len(b)})
	return Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: b}, nil
}
