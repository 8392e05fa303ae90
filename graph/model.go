package graph

import (
	"fmt"
	"maps"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/pipeline"
	"github.com/syssam/crudl/schema"
	"github.com/syssam/crudl/schema/field"
	"github.com/syssam/crudl/schema/mixin"
)

// Model is a document model with its five compiled operations and their
// pipelines.
type Model struct {
	name       string
	plural     string
	collection string
	store      crudl.Store
	fields     []*field.Field
	ops        schema.Operations
	pipelines  map[crudl.Op]*pipeline.Pipeline
}

// Option configures a Model.
type Option func(*options)

type options struct {
	plural     string
	collection string
	mixins     []schema.Mixin
}

// WithPlural overrides the plural name derived from the model name.
func WithPlural(plural string) Option {
	return func(o *options) { o.plural = plural }
}

// WithCollection overrides the collection name, camel(plural) by default.
func WithCollection(name string) Option {
	return func(o *options) { o.collection = name }
}

// WithMixin mounts mixins into the model. Mixin fields come before the
// model fields; mixin steps are registered in order.
func WithMixin(mixins ...schema.Mixin) Option {
	return func(o *options) { o.mixins = append(o.mixins, mixins...) }
}

// NewModel compiles the attribute set of the model name and binds every
// operation to a pipeline seeded with its persistence step against store.
func NewModel(store crudl.Store, name string, fields []*field.Field, opts ...Option) (*Model, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.plural == "" {
		o.plural = Plural(name)
	}
	if o.collection == "" {
		o.collection = Camel(o.plural)
	}
	if !field.ValidName(o.plural) {
		return nil, fmt.Errorf("crudl: invalid plural name %q", o.plural)
	}
	mixinFields, regs := mixin.Merge(o.mixins...)
	m := &Model{
		name:       name,
		plural:     o.plural,
		collection: o.collection,
		store:      store,
		pipelines:  make(map[crudl.Op]*pipeline.Pipeline, len(crudl.Ops)),
	}
	attrs, err := schema.Attributes(append(mixinFields, fields...))
	if err != nil {
		return nil, fmt.Errorf("crudl: model %s: %w", name, err)
	}
	m.fields = attrs
	m.ops, err = schema.Compile(name, attrs, m.bind)
	if err != nil {
		return nil, err
	}
	for _, r := range regs {
		if err := m.On(r.Ops, r.Steps...); err != nil {
			return nil, fmt.Errorf("crudl: model %s: mixin steps: %w", name, err)
		}
	}
	return m, nil
}

// MustModel is like NewModel but panics on error.
func MustModel(store crudl.Store, name string, fields []*field.Field, opts ...Option) *Model {
	m, err := NewModel(store, name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Model) bind(op crudl.Op, args *field.Spec) crudl.Resolver {
	p := pipeline.New(op, pipeline.Persist(op))
	m.pipelines[op] = p
	return p.Bind(pipeline.Binding{
		Name:       m.name,
		Args:       args,
		Store:      m.store,
		Collection: m.collection,
	})
}

// On registers steps ahead of the current steps of the listed operations,
// e.g. "update delete". Steps registered later run first; the persistence
// step always runs last. Registration fails once the model was assembled
// into a schema.
func (m *Model) On(ops string, steps ...crudl.Step) error {
	op, err := crudl.ParseOp(ops)
	if err != nil {
		return err
	}
	for _, o := range op.Split() {
		if err := m.pipelines[o].RegisterBefore(steps...); err != nil {
			return fmt.Errorf("crudl: model %s: %s: %w", m.name, o, err)
		}
	}
	return nil
}

// Name returns the singular model name.
func (m *Model) Name() string { return m.name }

// Plural returns the plural model name.
func (m *Model) Plural() string { return m.plural }

// CollectionName returns the name of the backing collection.
func (m *Model) CollectionName() string { return m.collection }

// Fields returns the attribute set, including the identifier field.
func (m *Model) Fields() []*field.Field { return append([]*field.Field(nil), m.fields...) }

// Operation returns the compiled operation op, or nil.
func (m *Model) Operation(op crudl.Op) *schema.Operation { return m.ops[op] }

// Operations returns the compiled operations.
func (m *Model) Operations() schema.Operations { return maps.Clone(m.ops) }

// Pipeline returns the pipeline of op, or nil.
func (m *Model) Pipeline(op crudl.Op) *pipeline.Pipeline { return m.pipelines[op] }

// Field returns the result shape of the model as an object field, to
// embed the model in another attribute set:
//
//	tweet := graph.MustModel(store, "Tweet", []*field.Field{
//	    field.Text("body"),
//	    user.Field("user").On("create update").Forbidden(),
//	})
func (m *Model) Field(name string) *field.Field {
	return field.FromSpec(name, m.ops[crudl.OpRead].Result)
}

// Names returns the schema names of the model operations.
func (m *Model) Names() map[crudl.Op]string {
	return map[crudl.Op]string{
		crudl.OpCreate: "create" + m.name,
		crudl.OpRead:   Camel(m.name),
		crudl.OpUpdate: "update" + m.name,
		crudl.OpDelete: "delete" + m.name,
		crudl.OpList:   Camel(m.plural),
	}
}

func (m *Model) mount(s *Schema) error {
	names := m.Names()
	for _, op := range crudl.Ops {
		if err := s.add(op.Mutation(), names[op], m.ops[op]); err != nil {
			return err
		}
	}
	for _, op := range crudl.Ops {
		s.pipelines = append(s.pipelines, m.pipelines[op])
	}
	return nil
}
