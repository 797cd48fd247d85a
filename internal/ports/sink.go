package ports

// ErrorSink receives errors from work that has no synchronous caller, such as
// the event stream task and subscription callbacks.
type ErrorSink interface {
	Report(err error)
}

// ErrorSinkFunc adapts a function to ErrorSink.
type ErrorSinkFunc func(err error)

func (f ErrorSinkFunc) Report(err error) { f(err) }
