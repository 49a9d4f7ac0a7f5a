// Package loader dispatches resource.Resource values over a Transport and
// reports each outcome as a typed Result.
//
// Every dispatch performs one round trip and calls its callback exactly
// once with Success(model), Failure(*TransportError) or
// Failure(*codec.DecodeError):
//
//	l, _ := loader.New(loader.Config{})
//	defer l.Close(ctx)
//
//	acronyms := resource.Must(resource.NewGet[[]til.Acronym]("http://localhost:8080/acronyms"))
//	loader.Dispatch(ctx, l, acronyms, func(r loader.Result[[]til.Acronym]) {
//	    if list, err := r.Get(); err == nil {
//	        fmt.Println(len(list))
//	    }
//	})
//
// Callbacks run on the loader's Executor. The default SerialExecutor runs
// them one at a time on a single goroutine owned by the loader.
//
// There are no retries and no request cancellation. Non-2xx responses fail
// with a TransportError wrapping *httpclient.Error unless the HTTP config
// sets AcceptAnyStatus.
package loader
