// Package mixin provides the base mixin implementation for crudl models.
//
// A mixin is a reusable set of fields and pipeline steps that can be
// mounted into multiple models:
//
//	type Audit struct {
//	    mixin.Schema
//	}
//
//	func (Audit) Fields() []*field.Field {
//	    return []*field.Field{
//	        field.Text("createdBy").On("create update").Forbidden(),
//	    }
//	}
//
//	func (Audit) Steps() []schema.Registration {
//	    return []schema.Registration{
//	        {Ops: "create", Steps: []crudl.Step{setCreatedBy}},
//	    }
//	}
//
//	user := graph.MustModel(store, "User", fields, graph.WithMixin(Audit{}))
//
// Ready-to-use mixins (timestamps, ownership) live in contrib/mixin.
package mixin
