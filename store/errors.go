package store

import (
	"errors"
	"fmt"
)

var (
	ErrRejected = errors.New("store: durable provider rejected write")
	ErrClosed   = errors.New("store: closed")
)

// InvalidateError reports a partially failed Invalidate. A successful bump
// alone already hides the entry from readers.
type InvalidateError struct {
	Key     string
	BumpErr error
	DelErr  error
}

func (e *InvalidateError) Error() string {
	switch {
	case e.BumpErr != nil && e.DelErr != nil:
		return fmt.Sprintf("invalidate %q: gen bump and delete failed: bump=%v; delete=%v", e.Key, e.BumpErr, e.DelErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("invalidate %q: gen bump failed: %v", e.Key, e.BumpErr)
	default:
		return fmt.Sprintf("invalidate %q: delete failed: %v", e.Key, e.DelErr)
	}
}

func (e *InvalidateError) Unwrap() []error { return nonNil(e.BumpErr, e.DelErr) }

// ClearError reports a partially failed Clear.
type ClearError struct {
	BumpErr    error
	DurableErr error
	FrontErr   error
}

func (e *ClearError) Error() string {
	return fmt.Sprintf("clear: bump=%v; durable=%v; front=%v", e.BumpErr, e.DurableErr, e.FrontErr)
}

func (e *ClearError) Unwrap() []error { return nonNil(e.BumpErr, e.DurableErr, e.FrontErr) }

func nonNil(errs ...error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}
