package offcache

import (
	"fmt"
)

// ErrorKind is the closed taxonomy of failures a call can surface.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidURL
	KindTimedOut
	KindNoConnection
	KindCancelled
	KindUnauthorized
	KindInvalidData
	KindUploadFailed
	KindCacheRule
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindTimedOut:
		return "timed_out"
	case KindNoConnection:
		return "no_connection"
	case KindCancelled:
		return "cancelled"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidData:
		return "invalid_data"
	case KindUploadFailed:
		return "upload_failed"
	case KindCacheRule:
		return "cache_rule"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// RequestError is the failure carried by a Result. errors.Is matches any
// RequestError against the bare sentinel of the same kind.
type RequestError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Sentinels for errors.Is.
var (
	ErrUnknown      = &RequestError{Kind: KindUnknown}
	ErrInvalidURL   = &RequestError{Kind: KindInvalidURL}
	ErrTimedOut     = &RequestError{Kind: KindTimedOut}
	ErrNoConnection = &RequestError{Kind: KindNoConnection}
	ErrCancelled    = &RequestError{Kind: KindCancelled}
	ErrUnauthorized = &RequestError{Kind: KindUnauthorized}
	ErrInvalidData  = &RequestError{Kind: KindInvalidData}
	ErrUploadFailed = &RequestError{Kind: KindUploadFailed}
	ErrCacheRule    = &RequestError{Kind: KindCacheRule}
	ErrParse        = &RequestError{Kind: KindParse}
)

func newError(kind ErrorKind, msg string, err error) *RequestError {
	return &RequestError{Kind: kind, Message: msg, Err: err}
}

func (e *RequestError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("offcache: %s: %v", msg, e.Err)
	}
	return "offcache: " + msg
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool {
	t, ok := target.(*RequestError)
	return ok && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}
