package resource

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/kbukum/resourcekit/codec"
)

// ErrInvalidURL is wrapped by construction errors for malformed base URLs.
var ErrInvalidURL = errors.New("resource: invalid url")

// Request is the wire form of a Resource.
type Request struct {
	// URL is the absolute target URL, query string included.
	URL string
	// Method is the HTTP method name.
	Method string
	// Body is the request body. Nil for GET, and for a POST whose
	// parameters failed to encode.
	Body []byte
	// ContentType is set when Body is present.
	ContentType string
	// BodyErr records why a POST was built without a body.
	BodyErr error
}

// HasBody reports whether the request carries a body.
func (r Request) HasBody() bool {
	return r.Body != nil
}

func (r Request) String() string {
	return r.Method + " " + r.URL
}

func (r Request) clone() Request {
	if r.Body != nil {
		r.Body = append([]byte(nil), r.Body...)
	}
	return r
}

// buildRequest encodes method against rawURL.
func buildRequest(rawURL string, method Method) (Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Request{}, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Request{}, fmt.Errorf("%w %q: scheme and host are required", ErrInvalidURL, rawURL)
	}

	req := Request{Method: method.Name()}

	switch method.kind {
	case kindPost:
		// The base query string passes through untouched.
		req.Body = method.Body()
		req.BodyErr = method.bodyErr
		if req.Body != nil {
			req.ContentType = codec.ContentType
		}
	default:
		if len(method.query) > 0 {
			q := u.Query()
			for k, v := range method.query {
				q.Set(k, v)
			}
			u.RawQuery = q.Encode()
		}
	}

	req.URL = u.String()
	return req, nil
}
