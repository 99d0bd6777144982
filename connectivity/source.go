package connectivity

import (
	"context"
	"net"
	"time"
)

// Source produces connectivity observations until ctx is done.
type Source interface {
	Events(ctx context.Context) <-chan bool
}

// ChanSource bridges an existing channel, e.g. an OS reachability callback.
type ChanSource chan bool

func (c ChanSource) Events(context.Context) <-chan bool { return c }

// Probe dials a set of TCP addresses; the network counts as reachable when
// any dial succeeds. It emits the first observation and then only changes.
type Probe struct {
	Addrs    []string      // host:port, e.g. "1.1.1.1:443"
	Interval time.Duration // 0 => 10s
	Timeout  time.Duration // per dial; 0 => 2s

	// Dial overrides the dialer, mainly for tests.
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

const (
	defaultProbeInterval = 10 * time.Second
	defaultProbeTimeout  = 2 * time.Second
)

// Reachable runs one probe round.
func (p *Probe) Reachable(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	dial := p.Dial
	if dial == nil {
		dial = (&net.Dialer{}).DialContext
	}
	for _, addr := range p.Addrs {
		dctx, cancel := context.WithTimeout(ctx, timeout)
		conn, err := dial(dctx, "tcp", addr)
		cancel()
		if err == nil {
			_ = conn.Close()
			return true
		}
	}
	return false
}

// Check runs one probe round and renders it for a health endpoint.
func (p *Probe) Check(ctx context.Context) Status { return StatusOf(p.Reachable(ctx)) }

func (p *Probe) Events(ctx context.Context) <-chan bool {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	out := make(chan bool, 1)
	go func() {
		defer close(out)
		t := time.NewTicker(interval)
		defer t.Stop()

		last, first := false, true
		for {
			v := p.Reachable(ctx)
			if first || v != last {
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
				first, last = false, v
			}
			select {
			case <-t.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
