// Package field provides per-operation field declarations for crudl models.
//
// A field keeps one validation specification per CRUDL operation. Calls
// made without On apply to every operation; On narrows the following calls
// to the listed operations:
//
//	field.Text("body").Max(150).
//	    On("create update").Required()
//
//	field.Text("userId").
//	    On("create update").Forbidden().
//	    On("delete").Required()
//
// # Field Types
//
//	field.ID("_id")               // UUID string
//	field.Text("name")            // string
//	field.Bool("active")          // boolean
//	field.Number("score")         // float64
//	field.Int("age")              // whole number
//	field.Date("createdAt")       // time.Time or RFC 3339 string
//	field.Object("address",       // nested attributes
//	    field.Text("city"),
//	)
//	field.Sequence("tags").Items(field.Text("tag"))
//
// # Constraints
//
//	Required, Optional, Forbidden      presence
//	Default, DefaultFunc               value used when absent
//	Description, Label                 documentation and error naming
//	Min, Max, Len                      length of text and sequences, value of numbers
//	Email, URL, Match                  text formats
//	Integer, Positive, Negative        numbers
//	Valid                              allowed values
//
// Primitive checks are delegated to github.com/go-playground/validator tags,
// visible in Spec.Rules.
//
// # Specifications
//
// Schema returns the specification of one operation, or the base
// specification for crudl.OpAll. Declaration mistakes, such as a length
// bound on a boolean or an unknown operation name, are collected and
// reported by Err.
package field
