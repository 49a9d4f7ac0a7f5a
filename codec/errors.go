package codec

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var (
	errNullBody  = errors.New("body is null")
	errAbsentKey = errors.New("key absent or null")
)

// Reason classifies why a payload could not be decoded.
type Reason int

const (
	// ReasonMalformed means the body is not valid JSON.
	ReasonMalformed Reason = iota
	// ReasonTypeMismatch means a JSON value has the wrong type for its field.
	ReasonTypeMismatch
	// ReasonMissing means a required field is absent or null, or the whole
	// body is null where a value is expected.
	ReasonMissing
	// ReasonInvalid means a field failed a validation rule other than required.
	ReasonInvalid
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case ReasonMalformed:
		return "malformed"
	case ReasonTypeMismatch:
		return "type_mismatch"
	case ReasonMissing:
		return "missing"
	case ReasonInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// DecodeError reports a response body that does not match the target model.
type DecodeError struct {
	// Type is the Go type being decoded into.
	Type string
	// Field is the json name of the offending field, if known.
	Field string
	// Path locates the field within the payload, e.g. "[0].long".
	Path string
	// Reason classifies the failure.
	Reason Reason
	// Err is the underlying codec or validation error.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("codec: decode %s: field %q (%s): %s", e.Type, e.Field, e.Path, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("codec: decode %s: %s: %v", e.Type, e.Reason, e.Err)
	}
	return fmt.Sprintf("codec: decode %s: %s", e.Type, e.Reason)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newUnmarshalError(typeName string, err error) *DecodeError {
	de := &DecodeError{Type: typeName, Reason: ReasonMalformed, Err: err}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		de.Reason = ReasonTypeMismatch
		de.Field = typeErr.Field
		de.Path = typeErr.Field
	}
	return de
}

// IsDecodeError checks if an error is a decode error.
func IsDecodeError(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

// IsMissingField checks if an error reports a missing required field.
func IsMissingField(err error) bool {
	var e *DecodeError
	return errors.As(err, &e) && e.Reason == ReasonMissing
}
