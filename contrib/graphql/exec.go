package graphql

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/graph"
	"github.com/syssam/crudl/schema"
)

// Date is the scalar of date fields, serialized as RFC 3339 text.
var Date = graphql.NewScalar(graphql.ScalarConfig{
	Name:        scalarDate,
	Description: scalarDescriptions[scalarDate],
	Serialize:   serializeDate,
	ParseValue:  func(v any) any { return v },
	ParseLiteral: func(v ast.Value) any {
		if s, ok := v.(*ast.StringValue); ok {
			return s.Value
		}
		return nil
	},
})

// JSON is the scalar of objects and sequences declared without attributes.
var JSON = graphql.NewScalar(graphql.ScalarConfig{
	Name:         scalarJSON,
	Description:  scalarDescriptions[scalarJSON],
	Serialize:    func(v any) any { return v },
	ParseValue:   func(v any) any { return v },
	ParseLiteral: literal,
})

var scalarDescriptions = map[string]string{
	scalarDate: "An RFC 3339 date-time.",
	scalarJSON: "An arbitrary JSON value.",
}

var errNoQuery = errors.New("crudl/graphql: schema has no query")

// NewExecutableSchema builds a graphql-go schema executing the operations
// of s. Every root field calls the resolver bound to its operation.
func NewExecutableSchema(s *graph.Schema) (graphql.Schema, error) {
	c := newCatalog(s)
	if len(c.query) == 0 {
		return graphql.Schema{}, errNoQuery
	}
	e := &emitter{catalog: c, built: make(map[string]graphql.Type)}
	cfg := graphql.SchemaConfig{Query: e.root("Query", c.query)}
	if len(c.mutation) > 0 {
		cfg.Mutation = e.root("Mutation", c.mutation)
	}
	return graphql.NewSchema(cfg)
}

// MustExecutableSchema is like NewExecutableSchema but panics on error.
func MustExecutableSchema(s *graph.Schema) graphql.Schema {
	es, err := NewExecutableSchema(s)
	if err != nil {
		panic(err)
	}
	return es
}

type emitter struct {
	*catalog
	built map[string]graphql.Type
}

func (e *emitter) root(name string, defs []*fieldDef) *graphql.Object {
	fields := make(graphql.Fields, len(defs))
	for _, def := range defs {
		args := make(graphql.FieldConfigArgument, len(def.Args))
		for _, a := range def.Args {
			args[a.Name] = &graphql.ArgumentConfig{
				Type:        e.ref(a.Type).(graphql.Input),
				Description: a.Description,
			}
		}
		fields[def.Name] = &graphql.Field{
			Name:        def.Name,
			Description: def.Description,
			Type:        e.ref(def.Type).(graphql.Output),
			Args:        args,
			Resolve:     resolveOp(def.Name, def.op),
		}
	}
	return graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: fields})
}

func (e *emitter) ref(r *typeRef) graphql.Type {
	var t graphql.Type
	if r.Name == "" {
		t = graphql.NewList(e.ref(r.Elem))
	} else {
		t = e.named(r.Name)
	}
	if r.NonNull {
		t = graphql.NewNonNull(t)
	}
	return t
}

func (e *emitter) named(name string) graphql.Type {
	switch name {
	case scalarID:
		return graphql.ID
	case scalarString:
		return graphql.String
	case scalarBoolean:
		return graphql.Boolean
	case scalarFloat:
		return graphql.Float
	case scalarInt:
		return graphql.Int
	case scalarDate:
		return Date
	case scalarJSON:
		return JSON
	}
	if t, ok := e.built[name]; ok {
		return t
	}
	def := e.catalog.types[name]
	if def.Kind == defInput {
		t := graphql.NewInputObject(graphql.InputObjectConfig{
			Name:        def.Name,
			Description: def.Description,
			Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
				fields := make(graphql.InputObjectConfigFieldMap, len(def.Fields))
				for _, f := range def.Fields {
					fields[f.Name] = &graphql.InputObjectFieldConfig{
						Type:        e.ref(f.Type).(graphql.Input),
						Description: f.Description,
					}
				}
				return fields
			}),
		})
		e.built[name] = t
		return t
	}
	t := graphql.NewObject(graphql.ObjectConfig{
		Name:        def.Name,
		Description: def.Description,
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			fields := make(graphql.Fields, len(def.Fields))
			for _, f := range def.Fields {
				fields[f.Name] = &graphql.Field{
					Name:        f.Name,
					Description: f.Description,
					Type:        e.ref(f.Type).(graphql.Output),
					Resolve:     resolveKey(f.Name),
				}
			}
			return fields
		}),
	})
	e.built[name] = t
	return t
}

func resolveOp(name string, op *schema.Operation) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if op.Resolve == nil {
			return nil, fmt.Errorf("crudl/graphql: %s has no resolver", name)
		}
		return op.Resolve(p.Context, crudl.ResolveParams{
			Parent: p.Source,
			Args:   p.Args,
			Info:   p.Info,
		})
	}
}

// resolveKey reads a key of a document. Field names are resolved by key
// rather than by the engine's struct tag lookup.
func resolveKey(key string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if src, ok := p.Source.(crudl.Document); ok {
			return src[key], nil
		}
		return nil, nil
	}
}

func serializeDate(v any) any {
	switch v := v.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.UTC().Format(time.RFC3339Nano)
	case string:
		return v
	}
	return nil
}

func literal(v ast.Value) any {
	switch v := v.(type) {
	case *ast.StringValue:
		return v.Value
	case *ast.BooleanValue:
		return v.Value
	case *ast.EnumValue:
		return v.Value
	case *ast.IntValue:
		n, err := strconv.ParseInt(v.Value, 10, 64)
		if err != nil {
			return nil
		}
		return n
	case *ast.FloatValue:
		f, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return nil
		}
		return f
	case *ast.ListValue:
		out := make([]any, len(v.Values))
		for i, item := range v.Values {
			out[i] = literal(item)
		}
		return out
	case *ast.ObjectValue:
		out := make(map[string]any, len(v.Fields))
		for _, f := range v.Fields {
			out[f.Name.Value] = literal(f.Value)
		}
		return out
	}
	return nil
}
