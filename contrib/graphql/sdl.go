package graphql

import (
	"bytes"
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/syssam/crudl/graph"
)

// SDL renders s in the GraphQL schema definition language. The output is
// checked by loading it back with gqlparser.
func SDL(s *graph.Schema) (string, error) {
	c := newCatalog(s)
	doc := &ast.SchemaDocument{}
	for _, name := range c.customScalars() {
		doc.Definitions = append(doc.Definitions, &ast.Definition{
			Kind:        ast.Scalar,
			Name:        name,
			Description: scalarDescriptions[name],
		})
	}
	for _, t := range c.sortedTypes() {
		def := &ast.Definition{Kind: ast.Object, Name: t.Name, Description: t.Description}
		if t.Kind == defInput {
			def.Kind = ast.InputObject
		}
		for _, f := range t.Fields {
			def.Fields = append(def.Fields, fieldDefinition(f))
		}
		doc.Definitions = append(doc.Definitions, def)
	}
	for _, root := range []struct {
		name string
		defs []*fieldDef
	}{{"Query", c.query}, {"Mutation", c.mutation}} {
		if len(root.defs) == 0 {
			continue
		}
		def := &ast.Definition{Kind: ast.Object, Name: root.name}
		for _, f := range root.defs {
			def.Fields = append(def.Fields, fieldDefinition(f))
		}
		doc.Definitions = append(doc.Definitions, def)
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchemaDocument(doc)
	sdl := buf.String()
	if _, err := gqlparser.LoadSchema(&ast.Source{Name: "crudl.graphql", Input: sdl}); err != nil {
		return "", fmt.Errorf("crudl/graphql: invalid schema: %w", err)
	}
	return sdl, nil
}

func fieldDefinition(f *fieldDef) *ast.FieldDefinition {
	def := &ast.FieldDefinition{
		Name:        f.Name,
		Description: f.Description,
		Type:        astType(f.Type),
	}
	for _, a := range f.Args {
		def.Arguments = append(def.Arguments, &ast.ArgumentDefinition{
			Name:        a.Name,
			Description: a.Description,
			Type:        astType(a.Type),
		})
	}
	return def
}

func astType(r *typeRef) *ast.Type {
	if r.Name == "" {
		return &ast.Type{Elem: astType(r.Elem), NonNull: r.NonNull}
	}
	return &ast.Type{NamedType: r.Name, NonNull: r.NonNull}
}
