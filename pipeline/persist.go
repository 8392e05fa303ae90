package pipeline

import (
	"github.com/syssam/crudl"
)

// Persist returns the default step of op, bound to the collection of the
// execution context: create and update save the arguments, read finds one
// document, delete removes the matching documents and list finds all of
// them. The backend result is written to c.Result before next is called.
// Backend errors are returned unmodified.
func Persist(op crudl.Op) crudl.Step {
	return func(c *crudl.Context, next crudl.Next) error {
		coll := c.Collection()
		if coll == nil {
			return crudl.ErrNoCollection
		}
		ctx := c.Context()
		switch op {
		case crudl.OpCreate, crudl.OpUpdate:
			doc, err := coll.Save(ctx, c.Args)
			if err != nil {
				return err
			}
			c.Result = result(doc)
		case crudl.OpRead:
			doc, err := coll.FindOne(ctx, c.Args)
			if err != nil {
				return err
			}
			c.Result = result(doc)
		case crudl.OpDelete:
			doc, err := coll.Remove(ctx, c.Args)
			if err != nil {
				return err
			}
			c.Result = result(doc)
		case crudl.OpList:
			docs, err := coll.Find(ctx, c.Args)
			if err != nil {
				return err
			}
			if docs == nil {
				docs = []crudl.Document{}
			}
			c.Result = docs
		default:
			return &crudl.InvalidOperationError{Op: op}
		}
		return next()
	}
}

// result avoids a typed nil document in the untyped result.
func result(doc crudl.Document) any {
	if doc == nil {
		return nil
	}
	return doc
}
