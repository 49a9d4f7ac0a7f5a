package codec

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()

		// Report json names so errors match the wire payload.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _ := jsonName(fld)
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

var nullLiteral = []byte("null")

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), nullLiteral)
}

// checkTopLevel rejects a null body for targets that cannot hold "no value".
func checkTopLevel(typeName string, t reflect.Type, data []byte) error {
	if !isNull(data) {
		return nil
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		return nil
	}
	return &DecodeError{Type: typeName, Reason: ReasonMissing, Err: errNullBody}
}

// checkShape walks the decoded value alongside its raw JSON.
//
// A field tagged `validate:"required"` is missing only when its key is absent
// or null; a present zero value such as "" or 0 is accepted. Every other
// validate rule is checked by validator on each struct reached by the walk,
// so nested slices and maps of structs are covered without a dive tag.
func checkShape(typeName string, v reflect.Value, raw json.RawMessage, path string) error {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return checkShape(typeName, v.Elem(), raw, path)
	case reflect.Struct:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			// Types with their own UnmarshalJSON may not be objects on the wire.
			return nil
		}
		if err := checkFields(typeName, v, obj, path); err != nil {
			return err
		}
		return validateStruct(typeName, v, path)
	case reflect.Slice, reflect.Array:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		for i := 0; i < v.Len() && i < len(items); i++ {
			if err := checkShape(typeName, v.Index(i), items[i], fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil
		}
		iter := v.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			if err := checkShape(typeName, iter.Value(), obj[key], fmt.Sprintf("%s[%s]", path, key)); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkFields(typeName string, v reflect.Value, obj map[string]json.RawMessage, path string) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		fld := t.Field(i)
		if !fld.IsExported() {
			continue
		}
		name, tagged := jsonName(fld)
		if name == "-" {
			continue
		}

		// Untagged embedded structs share the parent's object.
		if fld.Anonymous && !tagged && indirect(fld.Type).Kind() == reflect.Struct {
			fv := v.Field(i)
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if err := checkFields(typeName, fv, obj, path); err != nil {
				return err
			}
			continue
		}
		if name == "" {
			name = fld.Name
		}

		fieldRaw, ok := lookupKey(obj, name)
		if !ok || isNull(fieldRaw) {
			if isRequired(fld) {
				return &DecodeError{
					Type:   typeName,
					Field:  name,
					Path:   joinPath(path, name),
					Reason: ReasonMissing,
					Err:    errAbsentKey,
				}
			}
			continue
		}
		if err := checkShape(typeName, v.Field(i), fieldRaw, joinPath(path, name)); err != nil {
			return err
		}
	}
	return nil
}

// lookupKey matches keys the way encoding/json does: exact first, then
// case-insensitive.
func lookupKey(obj map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if raw, ok := obj[name]; ok {
		return raw, true
	}
	for k, raw := range obj {
		if strings.EqualFold(k, name) {
			return raw, true
		}
	}
	return nil, false
}

func validateStruct(typeName string, v reflect.Value, path string) error {
	if !v.CanInterface() {
		return nil
	}
	err := getValidator().Struct(v.Interface())
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &DecodeError{Type: typeName, Path: path, Reason: ReasonInvalid, Err: err}
	}

	// Presence was settled by checkFields; zero values are not missing.
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			continue
		}
		return &DecodeError{
			Type:   typeName,
			Field:  fe.Field(),
			Path:   joinPath(path, fieldPath(fe.Namespace())),
			Reason: ReasonInvalid,
			Err:    err,
		}
	}
	return nil
}

func isRequired(fld reflect.StructField) bool {
	for _, rule := range strings.Split(fld.Tag.Get("validate"), ",") {
		if rule == "required" {
			return true
		}
	}
	return false
}

// jsonName returns the field's json key and whether a json tag named it.
func jsonName(fld reflect.StructField) (string, bool) {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	return name, name != ""
}

func indirect(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// fieldPath drops the struct type prefix from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func joinPath(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	default:
		return prefix + "." + field
	}
}
