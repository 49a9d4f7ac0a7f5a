package resource

import (
	"fmt"
	"maps"
	"net/http"

	"github.com/kbukum/resourcekit/codec"
)

type methodKind int

const (
	kindGet methodKind = iota
	kindPost
)

// Method is the HTTP method of a Resource together with its encoded
// parameters: GET carries query parameters, POST carries a JSON body.
//
// The zero Method is a GET with no parameters.
type Method struct {
	kind    methodKind
	query   map[string]string
	body    []byte
	bodyErr error
}

// Get returns a GET method whose parameters become query string entries.
// Each value is rendered with its default string representation.
func Get[V any](params map[string]V) Method {
	if len(params) == 0 {
		return Method{}
	}
	query := make(map[string]string, len(params))
	for k, v := range params {
		query[k] = fmt.Sprint(v)
	}
	return Method{kind: kindGet, query: query}
}

// Post returns a POST method whose body is the JSON encoding of params.
//
// If params cannot be encoded the method still describes a POST, but without
// a body. The encoding error is available from BodyErr and from the built
// Request.
func Post[P any](params P) Method {
	body, err := codec.Encode(params)
	if err != nil {
		return Method{kind: kindPost, bodyErr: err}
	}
	return Method{kind: kindPost, body: body}
}

// Name returns the wire method name.
func (m Method) Name() string {
	if m.kind == kindPost {
		return http.MethodPost
	}
	return http.MethodGet
}

// Query returns a copy of the GET query parameters.
func (m Method) Query() map[string]string {
	return maps.Clone(m.query)
}

// Body returns a copy of the POST body, or nil.
func (m Method) Body() []byte {
	if m.body == nil {
		return nil
	}
	return append([]byte(nil), m.body...)
}

// BodyErr returns the error that prevented the POST body from being encoded.
func (m Method) BodyErr() error {
	return m.bodyErr
}

func (m Method) String() string {
	switch {
	case m.kind == kindPost && m.body != nil:
		return fmt.Sprintf("POST(%d bytes)", len(m.body))
	case m.kind == kindPost:
		return "POST(no body)"
	case len(m.query) > 0:
		return fmt.Sprintf("GET(%d params)", len(m.query))
	default:
		return "GET"
	}
}
