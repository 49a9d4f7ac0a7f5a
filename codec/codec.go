package codec

import (
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
)

// ContentType is the media type produced by Encode.
const ContentType = "application/json"

// Encode returns the JSON encoding of v.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: encode %T: %w", v, err)
	}
	return data, nil
}

// Decode unmarshals data into a T and checks the result's shape.
// Any failure is returned as a *DecodeError.
//
// A null body is rejected unless T is a pointer or interface. Struct fields
// tagged `validate:"required"` must be present and non-null at any depth;
// other validate rules are enforced as written.
func Decode[T any](data []byte) (T, error) {
	var v T
	t := reflect.TypeFor[T]()
	typeName := t.String()

	if err := checkTopLevel(typeName, t, data); err != nil {
		var zero T
		return zero, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, newUnmarshalError(typeName, err)
	}
	if err := checkShape(typeName, reflect.ValueOf(&v).Elem(), data, ""); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Decoder returns Decode[T] as a function value.
func Decoder[T any]() func([]byte) (T, error) {
	return Decode[T]
}
