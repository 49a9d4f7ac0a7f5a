// Package codec encodes request parameters and decodes response bodies as
// JSON.
//
// Decoding is two-phase: the body is unmarshalled into the target type, and
// the result is then checked against its `validate` struct tags so that a
// payload missing a required field fails instead of yielding a zero value.
//
//	type Acronym struct {
//	    ID    int    `json:"id"`
//	    Short string `json:"short" validate:"required"`
//	    Long  string `json:"long" validate:"required"`
//	}
//
//	acronyms, err := codec.Decode[[]Acronym](body)
//	var de *codec.DecodeError
//	if errors.As(err, &de) && de.Reason == codec.ReasonMissing {
//	    // de.Field == "long"
//	}
package codec
