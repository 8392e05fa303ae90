package crudl

import "context"

// Context is the mutable state shared by the steps of one pipeline
// execution. A new Context is created for every resolver invocation.
type Context struct {
	ctx        context.Context
	store      Store
	collection string

	// Name is the model or definition name the operation belongs to.
	Name string
	// Op is the operation being executed.
	Op Op
	// Parent is the parent value handed over by the GraphQL engine.
	Parent any
	// Args holds the validated arguments. Steps may rewrite them before
	// the persistence step runs.
	Args Document
	// Result is returned to the caller once the pipeline completes.
	Result any
	// Info is the engine specific query information (AST, path).
	Info any
	// Caller is the identity of the caller, as found in the request context.
	Caller any
}

// NewContext returns a Context bound to the given request context. The
// collection is resolved from store by name each time it is accessed.
func NewContext(ctx context.Context, store Store, collection string) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		ctx:        ctx,
		store:      store,
		collection: collection,
		Args:       Document{},
		Caller:     CallerFromContext(ctx),
	}
}

// Context returns the request context.
func (c *Context) Context() context.Context { return c.ctx }

// Store returns the document store the operation is bound to.
func (c *Context) Store() Store { return c.store }

// CollectionName returns the name of the model collection.
func (c *Context) CollectionName() string { return c.collection }

// Collection returns the model collection. It returns nil if the context
// is not bound to a store or collection.
func (c *Context) Collection() Collection {
	if c.store == nil || c.collection == "" {
		return nil
	}
	return c.store.Collection(c.collection)
}

// Next invokes the remaining steps of a pipeline.
type Next func() error

// Step is a single middleware step. A step may run logic before or after
// calling next, or return without calling it to end the execution early.
type Step func(c *Context, next Next) error

// ResolveParams holds the engine supplied inputs of a resolver call.
type ResolveParams struct {
	Parent any
	Args   map[string]any
	Info   any
}

// Resolver resolves a single GraphQL field.
type Resolver func(ctx context.Context, p ResolveParams) (any, error)

type callerCtxKey struct{}

// WithCaller returns a new context carrying the caller identity.
func WithCaller(parent context.Context, caller any) context.Context {
	return context.WithValue(parent, callerCtxKey{}, caller)
}

// CallerFromContext returns the caller identity stored in ctx, if any.
func CallerFromContext(ctx context.Context) any {
	return ctx.Value(callerCtxKey{})
}
