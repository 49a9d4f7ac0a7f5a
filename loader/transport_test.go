package loader

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/resourcekit/httpclient"
	"github.com/kbukum/resourcekit/resource"
)

func TestToHTTPRequest(t *testing.T) {
	req := resource.Request{
		Method:      http.MethodPost,
		URL:         "http://x.test/acronyms",
		Body:        []byte(`{}`),
		ContentType: "application/json",
	}
	out, err := toHTTPRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.Headers["Content-Type"]; got != "application/json" {
		t.Errorf("expected application/json, got %q", got)
	}
	if string(out.Body) != `{}` {
		t.Errorf("unexpected body: %s", out.Body)
	}

	out, err = toHTTPRequest(context.Background(), resource.Request{Method: http.MethodGet, URL: "http://x.test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Headers != nil || out.Body != nil {
		t.Errorf("expected no headers and no body, got %v, %v", out.Headers, out.Body)
	}
}

func TestFromHTTPResponse(t *testing.T) {
	body, err := fromHTTPResponse(nil)
	if err != nil || body != nil {
		t.Errorf("expected nil, nil; got %v, %v", body, err)
	}

	body, err = fromHTTPResponse(&httpclient.Response{StatusCode: 200, Body: []byte(`[]`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `[]` {
		t.Errorf("expected [], got %s", body)
	}
}

func TestHTTPTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Method+" "+r.URL.RawQuery)
	}))
	defer srv.Close()

	adapter, err := httpclient.New(httpclient.Config{Name: "til-http"})
	if err != nil {
		t.Fatalf("httpclient.New: %v", err)
	}
	tr := HTTPTransport(adapter)
	if tr.Name() != "til-http" {
		t.Errorf("expected name til-http, got %q", tr.Name())
	}

	body, err := tr.Execute(context.Background(), resource.Request{Method: http.MethodGet, URL: srv.URL + "?term=afk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "GET term=afk" {
		t.Errorf("unexpected body: %s", body)
	}
}
