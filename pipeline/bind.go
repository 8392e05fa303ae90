package pipeline

import (
	"context"
	"maps"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/schema/field"
)

// Binding configures the resolver produced by Bind.
type Binding struct {
	// Name is the model or definition name, exposed as Context.Name.
	Name string
	// Args validates the arguments before any step runs. Without it the
	// arguments are passed through as is.
	Args *field.Spec
	// Store and Collection bind the execution context to a collection.
	// The collection is looked up by name on every access.
	Store      crudl.Store
	Collection string
	// NewResult returns the initial result. By default it is an empty
	// slice for list and an empty document otherwise.
	NewResult func() any
}

// Bind returns a resolver running the pipeline. Each invocation validates
// the arguments, builds a fresh execution context and returns its result
// once the pipeline completes. Validation and step errors are returned
// unmodified and discard the result.
func (p *Pipeline) Bind(b Binding) crudl.Resolver {
	newResult := b.NewResult
	if newResult == nil {
		newResult = func() any {
			if p.op == crudl.OpList {
				return []crudl.Document{}
			}
			return crudl.Document{}
		}
	}
	return func(ctx context.Context, rp crudl.ResolveParams) (any, error) {
		var args crudl.Document
		if b.Args != nil {
			v, err := b.Args.ValidateArgs(rp.Args)
			if err != nil {
				return nil, err
			}
			args = v
		} else {
			args = maps.Clone(rp.Args)
			if args == nil {
				args = crudl.Document{}
			}
		}
		c := crudl.NewContext(ctx, b.Store, b.Collection)
		c.Name = b.Name
		c.Op = p.op
		c.Parent = rp.Parent
		c.Info = rp.Info
		c.Args = args
		c.Result = newResult()
		if err := p.Run(c); err != nil {
			return nil, err
		}
		return c.Result, nil
	}
}
