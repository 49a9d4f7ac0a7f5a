package loader

import (
	"errors"

	"github.com/kbukum/resourcekit/codec"
)

// Outcome labels a Result in logs, spans and metrics.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeDecodeError    Outcome = "decode_error"
	OutcomeClosed         Outcome = "closed"
)

// Result is the outcome of one dispatch: either a decoded model or an error.
type Result[M any] struct {
	value M
	err   error
}

// Success returns a successful Result holding m.
func Success[M any](m M) Result[M] {
	return Result[M]{value: m}
}

// Failure returns a failed Result. A nil err is replaced by ErrNoResponse
// so that a Failure never reads as a success.
func Failure[M any](err error) Result[M] {
	if err == nil {
		err = ErrNoResponse
	}
	return Result[M]{err: err}
}

// IsSuccess reports whether the result holds a model.
func (r Result[M]) IsSuccess() bool {
	return r.err == nil
}

// Value returns the model. It is the zero M for a failure.
func (r Result[M]) Value() M {
	return r.value
}

// Err returns the failure, or nil for a success.
func (r Result[M]) Err() error {
	return r.err
}

// Get returns the model and the failure as a conventional pair.
func (r Result[M]) Get() (M, error) {
	return r.value, r.err
}

// Outcome classifies the result.
func (r Result[M]) Outcome() Outcome {
	switch {
	case r.err == nil:
		return OutcomeSuccess
	case codec.IsDecodeError(r.err):
		return OutcomeDecodeError
	case errors.Is(r.err, ErrClosed):
		return OutcomeClosed
	default:
		return OutcomeTransportError
	}
}
