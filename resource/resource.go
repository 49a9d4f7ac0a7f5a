package resource

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/kbukum/resourcekit/codec"
	"github.com/kbukum/resourcekit/logger"
)

// Resource is an immutable description of one typed network operation.
type Resource[M any] struct {
	request Request
	decode  func([]byte) (M, error)
}

// New builds a Resource that decodes its response body as JSON into M.
//
// The only construction error is a malformed URL, reported as ErrInvalidURL.
// A POST whose parameters fail to encode is built without a body.
func New[M any](rawURL string, method Method) (*Resource[M], error) {
	return NewWithDecoder(rawURL, method, codec.Decode[M])
}

// NewGet builds a GET Resource with no parameters.
func NewGet[M any](rawURL string) (*Resource[M], error) {
	return New[M](rawURL, Method{})
}

// NewWithDecoder builds a Resource with a custom decode function.
func NewWithDecoder[M any](rawURL string, method Method, decode func([]byte) (M, error)) (*Resource[M], error) {
	if decode == nil {
		return nil, fmt.Errorf("resource: nil decoder for %s", rawURL)
	}
	req, err := buildRequest(rawURL, method)
	if err != nil {
		return nil, err
	}
	if req.BodyErr != nil {
		logger.Get("resource").Warn("post body dropped", logger.Fields(
			logger.FieldURL, req.URL,
			logger.FieldError, req.BodyErr.Error(),
		))
	}
	return &Resource[M]{request: req, decode: decode}, nil
}

// Must panics if err is non-nil. It is intended for package-level
// Resource definitions with constant URLs.
func Must[M any](r *Resource[M], err error) *Resource[M] {
	if err != nil {
		panic(err)
	}
	return r
}

// Request returns a copy of the wire request.
func (r *Resource[M]) Request() Request {
	return r.request.clone()
}

// Decode turns a response body into an M. Every failure is a
// *codec.DecodeError: errors from custom decoders are wrapped, and a
// panicking decoder is recovered.
func (r *Resource[M]) Decode(data []byte) (model M, err error) {
	defer func() {
		if p := recover(); p != nil {
			var zero M
			model = zero
			err = invalid[M](fmt.Errorf("decoder panic: %v", p))
		}
	}()

	model, err = r.decode(data)
	if err != nil {
		var zero M
		var de *codec.DecodeError
		if !errors.As(err, &de) {
			err = invalid[M](err)
		}
		return zero, err
	}
	return model, nil
}

func invalid[M any](err error) *codec.DecodeError {
	return &codec.DecodeError{
		Type:   reflect.TypeFor[M]().String(),
		Reason: codec.ReasonInvalid,
		Err:    err,
	}
}

func (r *Resource[M]) String() string {
	return r.request.Method + " " + r.request.URL
}
