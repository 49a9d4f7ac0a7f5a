// Package resource describes typed network operations.
//
// A Resource[M] pairs a fully encoded HTTP request (URL, method, optional
// JSON body) with the function that turns a response body into an M. It holds
// no network state, so a single value can be built once and dispatched any
// number of times, concurrently, by a loader.
//
//	acronyms := resource.Must(resource.NewGet[[]Acronym]("http://localhost:8080/acronyms"))
//
//	search, err := resource.New[[]Acronym](
//	    "http://localhost:8080/acronyms/search",
//	    resource.Get(map[string]string{"term": "AFK"}),
//	)
//
//	create, err := resource.New[Acronym](
//	    "http://localhost:8080/acronyms",
//	    resource.Post(CreateAcronym{Short: "AFK", Long: "Away From Keyboard"}),
//	)
package resource
