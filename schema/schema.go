package schema

import (
	"errors"
	"fmt"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/schema/field"
)

// Operation is the compiled schema of one (model, operation) pair: the
// argument specification, the result shape and the bound resolver.
type Operation struct {
	Op          crudl.Op       `yaml:"op"`
	Description string         `yaml:"description,omitempty"`
	Args        *field.Spec    `yaml:"args"`
	Result      *field.Spec    `yaml:"result"`
	Resolve     crudl.Resolver `yaml:"-"`
}

// Operations holds the compiled operations of a model, keyed by single
// operation.
type Operations map[crudl.Op]*Operation

// BindFunc produces the resolver of an operation from its argument
// specification.
type BindFunc func(op crudl.Op, args *field.Spec) crudl.Resolver

// Mixin is a reusable bundle of fields and steps shared by models.
type Mixin interface {
	// Fields returns the fields added to the model attribute set.
	Fields() []*field.Field
	// Steps returns the steps registered on the model pipelines.
	Steps() []Registration
}

// Registration registers steps before the default step of the listed
// operations, e.g. {Ops: "update delete", Steps: ...}.
type Registration struct {
	Ops   string
	Steps []crudl.Step
}

var (
	errInvalidName = errors.New("invalid field name")
	errDuplicate   = errors.New("duplicate field")
)

// IDField returns the identifier field injected into attribute sets that
// do not declare one: generated on create, mandatory on update and delete.
func IDField() *field.Field {
	return field.ID(crudl.IDField).
		Description("Unique identifier").
		On("create").Forbidden().
		On("update delete").Required()
}

// Attributes validates an attribute set and returns it with the
// identifier field appended when missing. The input slice is not
// modified.
func Attributes(fields []*field.Field) ([]*field.Field, error) {
	var (
		errs []error
		seen = make(map[string]bool, len(fields)+1)
		out  = make([]*field.Field, 0, len(fields)+1)
	)
	for i, f := range fields {
		switch {
		case f == nil:
			errs = append(errs, fmt.Errorf("crudl: nil field at position %d", i))
			continue
		case !field.ValidName(f.Name()):
			errs = append(errs, &crudl.DeclarationError{Field: f.Name(), Err: errInvalidName})
		case seen[f.Name()]:
			errs = append(errs, &crudl.DeclarationError{Field: f.Name(), Err: errDuplicate})
		}
		if err := f.Err(); err != nil {
			errs = append(errs, err)
		}
		seen[f.Name()] = true
		out = append(out, f)
	}
	if err := crudl.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	if !seen[crudl.IDField] {
		out = append(out, IDField())
	}
	return out, nil
}

// Compile compiles the attribute set of the model name into its five
// operations. Arguments of each operation are checked against the
// projection of every field on that operation. Results combine the base
// specification of every field, as one object named after the model, or a
// sequence of them for list.
//
// bind may be nil, leaving the operations without resolvers.
func Compile(name string, fields []*field.Field, bind BindFunc) (Operations, error) {
	if !field.ValidName(name) {
		return nil, fmt.Errorf("crudl: invalid model name %q", name)
	}
	attrs, err := Attributes(fields)
	if err != nil {
		return nil, fmt.Errorf("crudl: compile %s: %w", name, err)
	}
	result := project(name, attrs, crudl.OpAll)
	ops := make(Operations, len(crudl.Ops))
	for _, op := range crudl.Ops {
		o := &Operation{
			Op:          op,
			Description: describe(op, name),
			Args:        project("", attrs, op),
			Result:      result.Clone(),
		}
		if op == crudl.OpList {
			o.Result = field.NewSequence("", result.Clone())
		}
		if bind != nil {
			o.Resolve = bind(op, o.Args.Clone())
		}
		ops[op] = o
	}
	return ops, nil
}

// project returns the object specification combining every field on op.
func project(typeName string, fields []*field.Field, op crudl.Op) *field.Spec {
	specs := make([]*field.Spec, len(fields))
	for i, f := range fields {
		specs[i] = f.MustSchema(op)
	}
	return field.NewObject("", typeName, specs...)
}

func describe(op crudl.Op, name string) string {
	switch op {
	case crudl.OpCreate:
		return "Creates a " + name
	case crudl.OpRead:
		return "Reads a " + name
	case crudl.OpUpdate:
		return "Updates a " + name
	case crudl.OpDelete:
		return "Deletes a " + name
	case crudl.OpList:
		return "Lists " + name + " documents matching the arguments"
	}
	return ""
}
