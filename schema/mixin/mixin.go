package mixin

import (
	"github.com/syssam/crudl/schema"
	"github.com/syssam/crudl/schema/field"
)

// Schema is the default implementation for the schema.Mixin interface.
// It should be embedded in all custom mixin definitions.
//
// Example:
//
//	type MyMixin struct {
//	    mixin.Schema
//	}
//
//	func (MyMixin) Fields() []*field.Field {
//	    return []*field.Field{
//	        field.Text("custom_field"),
//	    }
//	}
type Schema struct{}

// Fields returns the fields of the mixin.
// Override this method to add fields to the model attribute set.
func (Schema) Fields() []*field.Field { return nil }

// Steps returns the step registrations of the mixin.
// Override this method to add pipeline steps.
func (Schema) Steps() []schema.Registration { return nil }

// schema mixin must implement `Mixin` interface.
var _ schema.Mixin = (*Schema)(nil)

// Describe wraps a mixin and sets the description of all its fields on
// every operation.
//
// Example:
//
//	mixin.Describe(mixin.Time{}, "Managed by the server")
func Describe(m schema.Mixin, text string) schema.Mixin {
	return describer{Mixin: m, text: text}
}

type describer struct {
	schema.Mixin
	text string
}

func (d describer) Fields() []*field.Field {
	fields := d.Mixin.Fields()
	for _, f := range fields {
		f.On("all").Description(d.text)
	}
	return fields
}

// Merge returns the fields and step registrations of all mixins, in order.
func Merge(mixins ...schema.Mixin) ([]*field.Field, []schema.Registration) {
	var (
		fields []*field.Field
		regs   []schema.Registration
	)
	for _, m := range mixins {
		if m == nil {
			continue
		}
		fields = append(fields, m.Fields()...)
		regs = append(regs, m.Steps()...)
	}
	return fields, regs
}
