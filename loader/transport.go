package loader

import (
	"context"

	"github.com/kbukum/resourcekit/httpclient"
	"github.com/kbukum/resourcekit/provider"
	"github.com/kbukum/resourcekit/resource"
)

// Transport performs one round trip for a request and returns the raw
// response body.
type Transport = provider.RequestResponse[resource.Request, []byte]

// HTTPTransport adapts an httpclient.Adapter to a Transport.
func HTTPTransport(adapter *httpclient.Adapter) Transport {
	return provider.Adapt[resource.Request, []byte, httpclient.Request, *httpclient.Response](
		adapter,
		adapter.Name(),
		toHTTPRequest,
		fromHTTPResponse,
	)
}

func toHTTPRequest(_ context.Context, req resource.Request) (httpclient.Request, error) {
	out := httpclient.Request{
		Method: req.Method,
		URL:    req.URL,
		Body:   req.Body,
	}
	if req.HasBody() && req.ContentType != "" {
		out.Headers = map[string]string{"Content-Type": req.ContentType}
	}
	return out, nil
}

func fromHTTPResponse(resp *httpclient.Response) ([]byte, error) {
	if resp == nil {
		return nil, nil
	}
	return resp.Body, nil
}
