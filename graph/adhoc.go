package graph

import (
	"errors"
	"fmt"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/pipeline"
	"github.com/syssam/crudl/schema"
	"github.com/syssam/crudl/schema/field"
)

// Def declares an ad-hoc query or mutation.
type Def struct {
	// Args are validated against the base specification of each field.
	Args []*field.Field
	// Type is the result shape.
	Type *field.Field
	// Steps run in order. The initial result is an empty document for
	// object types, an empty slice for sequences and nil otherwise.
	Steps []crudl.Step
	// Store is exposed to the steps as Context.Store.
	Store       crudl.Store
	Description string
}

// Definition is an ad-hoc query or mutation mounted under its own name.
type Definition struct {
	name     string
	mutation bool
	op       *schema.Operation
	pipeline *pipeline.Pipeline
}

// Query returns an ad-hoc query.
func Query(name string, def Def) (*Definition, error) {
	return newDefinition(name, false, def)
}

// Mutation returns an ad-hoc mutation.
func Mutation(name string, def Def) (*Definition, error) {
	return newDefinition(name, true, def)
}

// MustQuery is like Query but panics on error.
func MustQuery(name string, def Def) *Definition {
	d, err := Query(name, def)
	if err != nil {
		panic(err)
	}
	return d
}

// MustMutation is like Mutation but panics on error.
func MustMutation(name string, def Def) *Definition {
	d, err := Mutation(name, def)
	if err != nil {
		panic(err)
	}
	return d
}

func newDefinition(name string, mutation bool, def Def) (*Definition, error) {
	if !field.ValidName(name) {
		return nil, fmt.Errorf("crudl: invalid definition name %q", name)
	}
	if def.Type == nil {
		return nil, fmt.Errorf("crudl: definition %s: %w", name, errors.New("missing result type"))
	}
	var errs []error
	if err := def.Type.Err(); err != nil {
		errs = append(errs, err)
	}
	args := field.NewObject("", "")
	seen := make(map[string]bool, len(def.Args))
	for _, a := range def.Args {
		switch {
		case a == nil:
			errs = append(errs, errors.New("crudl: nil argument"))
			continue
		case seen[a.Name()]:
			errs = append(errs, &crudl.DeclarationError{Field: a.Name(), Err: errors.New("duplicate argument")})
		case !field.ValidName(a.Name()):
			errs = append(errs, &crudl.DeclarationError{Field: a.Name(), Err: errors.New("invalid argument name")})
		}
		if err := a.Err(); err != nil {
			errs = append(errs, err)
		}
		seen[a.Name()] = true
		args.Fields = append(args.Fields, a.MustSchema(crudl.OpAll))
	}
	if err := crudl.NewAggregateError(errs...); err != nil {
		return nil, fmt.Errorf("crudl: definition %s: %w", name, err)
	}
	result := def.Type.MustSchema(crudl.OpAll)
	p := pipeline.New(0, def.Steps...)
	d := &Definition{
		name:     name,
		mutation: mutation,
		pipeline: p,
		op: &schema.Operation{
			Description: def.Description,
			Args:        args,
			Result:      result,
		},
	}
	d.op.Resolve = p.Bind(pipeline.Binding{
		Name:      name,
		Args:      args.Clone(),
		Store:     def.Store,
		NewResult: initialResult(result.Kind),
	})
	return d, nil
}

func initialResult(k field.Kind) func() any {
	return func() any {
		switch k {
		case field.TypeObject:
			return crudl.Document{}
		case field.TypeSequence:
			return []any{}
		}
		return nil
	}
}

// Name returns the definition name.
func (d *Definition) Name() string { return d.name }

// IsMutation reports whether the definition is a mutation.
func (d *Definition) IsMutation() bool { return d.mutation }

// Operation returns the compiled operation.
func (d *Definition) Operation() *schema.Operation { return d.op }

func (d *Definition) mount(s *Schema) error {
	if err := s.add(d.mutation, d.name, d.op); err != nil {
		return err
	}
	s.pipelines = append(s.pipelines, d.pipeline)
	return nil
}
