package offcache

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/unkn0wn-root/offcache/codec"
	"github.com/unkn0wn-root/offcache/request"
	"github.com/unkn0wn-root/offcache/transport"
)

// Classify maps a transport-level failure onto the closed taxonomy.
// Order matters: a timeout is also a net.Error, and a dial timeout can wrap
// a syscall error.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}

	switch {
	case errors.Is(err, request.ErrInvalidURL):
		return KindInvalidURL
	case errors.Is(err, context.Canceled), errors.Is(err, transport.ErrCancelled):
		return KindCancelled
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, transport.ErrTimedOut):
		return KindTimedOut
	case errors.Is(err, transport.ErrUploadFailed):
		return KindUploadFailed
	case errors.Is(err, codec.ErrInvalidData):
		return KindInvalidData
	case errors.Is(err, transport.ErrNotConnected),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETDOWN):
		return KindNoConnection
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimedOut
		}
		return KindNoConnection
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimedOut
	}
	var oe *net.OpError
	if errors.As(err, &oe) && oe.Op == "dial" {
		return KindNoConnection
	}
	return KindUnknown
}

func classified(err error) *RequestError {
	var re *RequestError
	if errors.As(err, &re) {
		return re
	}
	return newError(Classify(err), "", err)
}
