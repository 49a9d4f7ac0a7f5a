// Package til describes the "Today I Learned" acronym service: its models
// and one resource constructor per endpoint.
//
//	api := til.New("http://localhost:8080")
//	list, err := api.Acronyms()
//	if err != nil {
//	    return err
//	}
//	r := loader.Await(ctx, l, list)
package til
