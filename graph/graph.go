package graph

import (
	"maps"
	"slices"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/pipeline"
	"github.com/syssam/crudl/schema"
)

// Mountable is implemented by the items a Schema is assembled from:
// *Model and *Definition.
type Mountable interface {
	mount(*Schema) error
}

var (
	_ Mountable = (*Model)(nil)
	_ Mountable = (*Definition)(nil)
)

// Schema is the assembled GraphQL schema artifact: every operation keyed
// by its name in the query or mutation namespace.
type Schema struct {
	Query    map[string]*schema.Operation `yaml:"query"`
	Mutation map[string]*schema.Operation `yaml:"mutation"`

	pipelines []*pipeline.Pipeline
}

// Assemble mounts models and ad-hoc definitions into one schema. Models
// are mounted as create<S>, <s>, update<S>, delete<S> and <p>; definitions
// under their own names. A name used twice in a namespace fails with a
// *crudl.NamingConflictError. On success the pipelines of every mounted
// item are frozen.
func Assemble(items ...Mountable) (*Schema, error) {
	s := &Schema{
		Query:    make(map[string]*schema.Operation),
		Mutation: make(map[string]*schema.Operation),
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		if err := it.mount(s); err != nil {
			return nil, err
		}
	}
	for _, p := range s.pipelines {
		p.Freeze()
	}
	return s, nil
}

// MustAssemble is like Assemble but panics on error.
func MustAssemble(items ...Mountable) *Schema {
	s, err := Assemble(items...)
	if err != nil {
		panic(err)
	}
	return s
}

// QueryNames returns the sorted query names.
func (s *Schema) QueryNames() []string { return slices.Sorted(maps.Keys(s.Query)) }

// MutationNames returns the sorted mutation names.
func (s *Schema) MutationNames() []string { return slices.Sorted(maps.Keys(s.Mutation)) }

func (s *Schema) add(mutation bool, name string, op *schema.Operation) error {
	ns, namespace := s.Query, "query"
	if mutation {
		ns, namespace = s.Mutation, "mutation"
	}
	if _, ok := ns[name]; ok {
		return &crudl.NamingConflictError{Namespace: namespace, Name: name}
	}
	ns[name] = op
	return nil
}
