// Package httpclient is the HTTP transport used to dispatch resources.
//
// An Adapter performs one request per call: it sends the method, URL,
// headers and body it is given, reads the whole response body, closes it,
// and classifies the outcome. Connection and timeout failures become an
// *Error with no response; non-2xx statuses become an *Error alongside the
// response unless Config.AcceptAnyStatus is set.
//
//	adapter, err := httpclient.New(httpclient.Config{
//	    Name:    "til-api",
//	    Timeout: 10 * time.Second,
//	})
//
//	resp, err := adapter.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    URL:    "http://localhost:8080/acronyms",
//	})
//
// Adapter satisfies provider.RequestResponse so it can be wrapped with the
// provider middlewares (logging, tracing, metrics).
package httpclient
