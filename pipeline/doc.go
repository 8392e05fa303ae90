// Package pipeline runs the middleware steps of CRUDL operations.
//
// Every model operation owns one Pipeline seeded with the Persist step of
// the operation. Steps registered later run first:
//
//	p := pipeline.New(crudl.OpDelete, pipeline.Persist(crudl.OpDelete))
//	p.RegisterBefore(rejectIfNotOwner)
//
//	func rejectIfNotOwner(c *crudl.Context, next crudl.Next) error {
//	    if c.Caller != c.Args["ownerId"] {
//	        return errors.New("not the owner")
//	    }
//	    return next()
//	}
//
// A step may run logic around next, pass through, or end the execution
// by returning without calling next. Bind turns a pipeline into a
// crudl.Resolver that validates the arguments and builds a fresh
// crudl.Context for every call.
package pipeline
