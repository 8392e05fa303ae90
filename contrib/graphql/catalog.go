package graphql

import (
	"cmp"
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/syssam/crudl/graph"
	"github.com/syssam/crudl/schema"
	"github.com/syssam/crudl/schema/field"
)

// Scalar type names.
const (
	scalarID      = "ID"
	scalarString  = "String"
	scalarBoolean = "Boolean"
	scalarFloat   = "Float"
	scalarInt     = "Int"
	scalarDate    = "Date"
	scalarJSON    = "JSON"
)

type defKind uint8

const (
	defObject defKind = iota
	defInput
)

// typeRef references a named type, or a list of Elem when Name is empty.
type typeRef struct {
	Name    string
	Elem    *typeRef
	NonNull bool
}

type fieldDef struct {
	Name        string
	Description string
	Type        *typeRef
	Args        []*fieldDef

	// op is set on root fields only.
	op *schema.Operation
}

type typeDef struct {
	Kind        defKind
	Name        string
	Description string
	Fields      []*fieldDef
}

// catalog is the engine independent description of an assembled schema.
type catalog struct {
	types    map[string]*typeDef
	order    []string
	scalars  map[string]bool
	query    []*fieldDef
	mutation []*fieldDef
}

func newCatalog(s *graph.Schema) *catalog {
	c := &catalog{
		types:   make(map[string]*typeDef),
		scalars: make(map[string]bool),
	}
	c.query = c.roots(s.QueryNames(), s.Query)
	c.mutation = c.roots(s.MutationNames(), s.Mutation)
	return c
}

func (c *catalog) roots(names []string, ops map[string]*schema.Operation) []*fieldDef {
	defs := make([]*fieldDef, 0, len(names))
	for _, name := range names {
		op := ops[name]
		hint := typeHint(op.Result, title(name))
		def := &fieldDef{
			Name:        name,
			Description: op.Description,
			Type:        c.output(op.Result, hint+"Result"),
			op:          op,
		}
		suffix := ""
		if op.Op.Single() {
			suffix = title(op.Op.String())
		}
		for _, arg := range args(op.Args) {
			def.Args = append(def.Args, &fieldDef{
				Name:        arg.Name,
				Description: arg.Description,
				Type:        c.input(arg, hint+title(arg.Name), suffix),
			})
		}
		defs = append(defs, def)
	}
	return defs
}

// typeHint returns the type name of a result, or of its items.
func typeHint(s *field.Spec, fallback string) string {
	for s != nil {
		if s.TypeName != "" {
			return s.TypeName
		}
		s = s.Items
	}
	return fallback
}

// args returns the argument fields a caller may supply.
func args(s *field.Spec) []*field.Spec {
	if s == nil {
		return nil
	}
	out := make([]*field.Spec, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Presence != field.Forbidden {
			out = append(out, f)
		}
	}
	return out
}

func (c *catalog) output(s *field.Spec, hint string) *typeRef {
	if s == nil {
		return c.scalar(scalarJSON)
	}
	switch s.Kind {
	case field.TypeObject:
		if len(s.Fields) == 0 {
			return c.scalar(scalarJSON)
		}
		name := cmp.Or(s.TypeName, hint)
		if _, ok := c.types[name]; !ok {
			def := c.define(defObject, name, s.Description)
			for _, f := range s.Fields {
				def.Fields = append(def.Fields, &fieldDef{
					Name:        f.Name,
					Description: f.Description,
					Type:        c.output(f, name+title(f.Name)),
				})
			}
		}
		return &typeRef{Name: name}
	case field.TypeSequence:
		return &typeRef{Elem: c.output(s.Items, hint)}
	}
	return c.scalar(scalarName(s))
}

func (c *catalog) input(s *field.Spec, hint, suffix string) *typeRef {
	var ref *typeRef
	switch {
	case s.Kind == field.TypeObject && len(s.Fields) > 0:
		name := cmp.Or(s.TypeName, hint) + suffix + "Input"
		if _, ok := c.types[name]; !ok {
			def := c.define(defInput, name, s.Description)
			for _, f := range args(s) {
				def.Fields = append(def.Fields, &fieldDef{
					Name:        f.Name,
					Description: f.Description,
					Type:        c.input(f, cmp.Or(s.TypeName, hint)+title(f.Name), suffix),
				})
			}
		}
		ref = &typeRef{Name: name}
	case s.Kind == field.TypeObject:
		ref = c.scalar(scalarJSON)
	case s.Kind == field.TypeSequence && s.Items != nil:
		ref = &typeRef{Elem: c.input(s.Items, hint, suffix)}
	case s.Kind == field.TypeSequence:
		ref = &typeRef{Elem: c.scalar(scalarJSON)}
	default:
		ref = c.scalar(scalarName(s))
	}
	ref.NonNull = s.Presence == field.Required
	return ref
}

func (c *catalog) define(kind defKind, name, desc string) *typeDef {
	def := &typeDef{Kind: kind, Name: name, Description: desc}
	c.types[name] = def
	c.order = append(c.order, name)
	return def
}

func (c *catalog) scalar(name string) *typeRef {
	c.scalars[name] = true
	return &typeRef{Name: name}
}

// customScalars returns the non built-in scalars in use, sorted.
func (c *catalog) customScalars() []string {
	var out []string
	for _, name := range []string{scalarDate, scalarJSON} {
		if c.scalars[name] {
			out = append(out, name)
		}
	}
	return out
}

// sortedTypes returns the defined types sorted by name.
func (c *catalog) sortedTypes() []*typeDef {
	names := slices.Sorted(slices.Values(c.order))
	out := make([]*typeDef, len(names))
	for i, n := range names {
		out[i] = c.types[n]
	}
	return out
}

func scalarName(s *field.Spec) string {
	switch s.Kind {
	case field.TypeID:
		return scalarID
	case field.TypeBool:
		return scalarBoolean
	case field.TypeNumber:
		if s.Integer {
			return scalarInt
		}
		return scalarFloat
	case field.TypeDate:
		return scalarDate
	}
	return scalarString
}

func title(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
