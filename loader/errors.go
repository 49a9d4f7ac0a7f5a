package loader

import (
	"errors"
	"fmt"

	"github.com/kbukum/resourcekit/httpclient"
)

var (
	// ErrNoResponse is wrapped when a transport returns neither a body nor an error.
	ErrNoResponse = errors.New("loader: transport returned no response")

	// ErrClosed is delivered to callbacks of dispatches made after Close.
	ErrClosed = errors.New("loader: closed")
)

// TransportError reports that no usable response body was obtained for a
// request. Err is usually a *httpclient.Error.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// StatusCode returns the HTTP status behind a transport failure, or 0 when
// the failure happened before a response arrived.
func StatusCode(err error) int {
	return httpclient.StatusCode(err)
}
