// Package provider defines the request/response provider abstraction that
// transports implement, together with composable middleware.
//
// RequestResponse[I, O] is one input to one output. Middleware[I, O] wraps a
// provider with cross-cutting behavior; Chain composes several:
//
//	transport := provider.Chain(
//	    provider.WithLogging[resource.Request, []byte](log),
//	    provider.WithTracing[resource.Request, []byte]("tilctl"),
//	    provider.WithMetrics[resource.Request, []byte](metrics),
//	)(base)
//
// Adapt converts a provider between input/output types, which is how an
// HTTP adapter speaking httpclient.Request becomes a transport speaking
// resource.Request.
//
// Every wrapper in this package forwards Close to the provider it wraps.
package provider
