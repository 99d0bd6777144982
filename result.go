package offcache

// Result is one delivered outcome of a call. Err is nil on success and a
// *RequestError otherwise.
type Result[T any] struct {
	Value  T
	Err    error
	Origin Origin
}

func (r Result[T]) OK() bool { return r.Err == nil }

// Kind returns the failure kind; meaningless when OK.
func (r Result[T]) Kind() ErrorKind { return Classify(r.Err) }
