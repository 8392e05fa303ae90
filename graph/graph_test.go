package graph_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/dialect/memory"
	"github.com/syssam/crudl/graph"
	"github.com/syssam/crudl/schema"
	"github.com/syssam/crudl/schema/field"
	"github.com/syssam/crudl/schema/mixin"
)

// echoCollection echoes saved documents back with a generated identifier.
type echoCollection struct {
	mu    sync.Mutex
	calls map[string]int
}

func (e *echoCollection) record(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.calls == nil {
		e.calls = map[string]int{}
	}
	e.calls[name]++
}

func (e *echoCollection) count(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[name]
}

func (e *echoCollection) Save(_ context.Context, doc crudl.Document) (crudl.Document, error) {
	e.record("save")
	out := crudl.Document{crudl.IDField: "generated"}
	for k, v := range doc {
		out[k] = v
	}
	return out, nil
}

func (e *echoCollection) FindOne(_ context.Context, filter crudl.Document) (crudl.Document, error) {
	e.record("findOne")
	return filter, nil
}

func (e *echoCollection) Remove(_ context.Context, filter crudl.Document) (crudl.Document, error) {
	e.record("remove")
	return filter, nil
}

func (e *echoCollection) Find(_ context.Context, filter crudl.Document) ([]crudl.Document, error) {
	e.record("find")
	return []crudl.Document{filter}, nil
}

func echoStore(coll *echoCollection) crudl.Store {
	return crudl.StoreFunc(func(string) crudl.Collection { return coll })
}

func userFields() []*field.Field {
	return []*field.Field{
		field.Text("name").On("create").Required(),
	}
}

func TestAssemble_Naming(t *testing.T) {
	t.Parallel()

	user := graph.MustModel(nil, "User", userFields())
	person := graph.MustModel(nil, "Person", []*field.Field{field.Text("name")})
	s, err := graph.Assemble(user, person)
	require.NoError(t, err)

	assert.Equal(t, []string{"people", "person", "user", "users"}, s.QueryNames())
	assert.Equal(t, []string{"createPerson", "createUser", "deletePerson", "deleteUser", "updatePerson", "updateUser"}, s.MutationNames())
	assert.Same(t, user.Operation(crudl.OpCreate), s.Mutation["createUser"])
	assert.Same(t, user.Operation(crudl.OpList), s.Query["users"])
	assert.Same(t, person.Operation(crudl.OpRead), s.Query["person"])
	assert.Equal(t, "people", person.CollectionName())
	assert.Equal(t, "People", person.Plural())
}

func TestModel_CreateEcho(t *testing.T) {
	t.Parallel()

	coll := &echoCollection{}
	user := graph.MustModel(echoStore(coll), "User", userFields())
	s := graph.MustAssemble(user)

	v, err := s.Mutation["createUser"].Resolve(context.Background(), crudl.ResolveParams{
		Args: map[string]any{"name": "Ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, crudl.Document{crudl.IDField: "generated", "name": "Ada"}, v)
	assert.Equal(t, 1, coll.count("save"))
}

func TestModel_CreateMissingRequired(t *testing.T) {
	t.Parallel()

	coll := &echoCollection{}
	s := graph.MustAssemble(graph.MustModel(echoStore(coll), "User", userFields()))

	_, err := s.Mutation["createUser"].Resolve(context.Background(), crudl.ResolveParams{Args: map[string]any{}})
	require.Error(t, err)
	assert.True(t, crudl.IsValidationError(err))
	assert.Equal(t, 0, coll.count("save"))
}

func TestModel_OwnerCheckOnDelete(t *testing.T) {
	t.Parallel()

	errUnauthorized := errors.New("unauthorized")
	coll := &echoCollection{}
	tweet := graph.MustModel(echoStore(coll), "Tweet", []*field.Field{
		field.Text("body"),
		field.Text("ownerId").On("delete").Required(),
	})
	require.NoError(t, tweet.On("delete", func(c *crudl.Context, next crudl.Next) error {
		if c.Caller != c.Args["ownerId"] {
			return errUnauthorized
		}
		return next()
	}))
	s := graph.MustAssemble(tweet)
	args := map[string]any{crudl.IDField: "00000000-0000-0000-0000-000000000001", "ownerId": "u2"}

	_, err := s.Mutation["deleteTweet"].Resolve(crudl.WithCaller(context.Background(), "u1"), crudl.ResolveParams{Args: args})
	assert.Same(t, errUnauthorized, err)
	assert.Equal(t, 0, coll.count("remove"))

	v, err := s.Mutation["deleteTweet"].Resolve(crudl.WithCaller(context.Background(), "u2"), crudl.ResolveParams{Args: args})
	require.NoError(t, err)
	assert.Equal(t, "u2", v.(crudl.Document)["ownerId"])
	assert.Equal(t, 1, coll.count("remove"))
}

func TestModel_On(t *testing.T) {
	t.Parallel()

	var trace []string
	step := func(name string) crudl.Step {
		return func(_ *crudl.Context, next crudl.Next) error {
			trace = append(trace, name)
			return next()
		}
	}
	coll := &echoCollection{}
	user := graph.MustModel(echoStore(coll), "User", userFields())
	require.NoError(t, user.On("update delete", step("A"), step("B")))
	require.NoError(t, user.On("update", step("C")))
	assert.Equal(t, 4, user.Pipeline(crudl.OpUpdate).Len())
	assert.Equal(t, 3, user.Pipeline(crudl.OpDelete).Len())
	assert.Equal(t, 1, user.Pipeline(crudl.OpCreate).Len())

	_, err := user.Operation(crudl.OpUpdate).Resolve(context.Background(), crudl.ResolveParams{
		Args: map[string]any{crudl.IDField: "00000000-0000-0000-0000-000000000001"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, trace)
	assert.Equal(t, 1, coll.count("save"))

	assert.True(t, crudl.IsInvalidOperation(user.On("publish", step("D"))))

	graph.MustAssemble(user)
	assert.ErrorIs(t, user.On("create", step("E")), crudl.ErrPipelineFrozen)
}

func TestModel_LazyStore(t *testing.T) {
	t.Parallel()

	var (
		lookups int
		backend crudl.Store
	)
	store := crudl.StoreFunc(func(name string) crudl.Collection {
		lookups++
		if backend == nil {
			return nil
		}
		return backend.Collection(name)
	})
	user := graph.MustModel(store, "User", userFields())
	s := graph.MustAssemble(user)
	args := crudl.ResolveParams{Args: map[string]any{"name": "Ada"}}

	_, err := s.Mutation["createUser"].Resolve(context.Background(), args)
	assert.ErrorIs(t, err, crudl.ErrNoCollection)

	// Connected after assembly.
	mem := memory.NewStore()
	backend = mem
	_, err = s.Mutation["createUser"].Resolve(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Len("users"))
	assert.Equal(t, 2, lookups)
}

func TestModel_Options(t *testing.T) {
	t.Parallel()

	m := graph.MustModel(nil, "Cactus", nil, graph.WithPlural("Cacti"), graph.WithCollection("plants"))
	assert.Equal(t, "Cacti", m.Plural())
	assert.Equal(t, "plants", m.CollectionName())
	assert.Contains(t, graph.MustAssemble(m).Query, "cacti")

	_, err := graph.NewModel(nil, "Cactus", nil, graph.WithPlural("not valid"))
	assert.Error(t, err)
	_, err = graph.NewModel(nil, "User", []*field.Field{field.Text("a"), field.Text("a")})
	assert.True(t, crudl.IsDeclarationError(err))
	assert.Panics(t, func() { graph.MustModel(nil, "bad name", nil) })
}

type stampMixin struct{ mixin.Schema }

func (stampMixin) Fields() []*field.Field {
	return []*field.Field{field.Text("stamp").On("create update").Forbidden()}
}

func (stampMixin) Steps() []schema.Registration {
	return []schema.Registration{{
		Ops: "create update",
		Steps: []crudl.Step{func(c *crudl.Context, next crudl.Next) error {
			c.Args["stamp"] = "set"
			return next()
		}},
	}}
}

func TestModel_WithMixin(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	user := graph.MustModel(store, "User", userFields(), graph.WithMixin(stampMixin{}))
	fields := user.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, "stamp", fields[0].Name())
	assert.Equal(t, "name", fields[1].Name())
	assert.Equal(t, crudl.IDField, fields[2].Name())

	v, err := user.Operation(crudl.OpCreate).Resolve(context.Background(), crudl.ResolveParams{Args: map[string]any{"name": "Ada"}})
	require.NoError(t, err)
	assert.Equal(t, "set", v.(crudl.Document)["stamp"])

	_, err = user.Operation(crudl.OpCreate).Resolve(context.Background(), crudl.ResolveParams{Args: map[string]any{"name": "Ada", "stamp": "x"}})
	assert.ErrorIs(t, err, crudl.ErrForbidden)
}

func TestModel_Field(t *testing.T) {
	t.Parallel()

	user := graph.MustModel(nil, "User", userFields())
	tweet := graph.MustModel(nil, "Tweet", []*field.Field{
		field.Text("body"),
		user.Field("user").On("create update").Forbidden(),
	})
	spec := tweet.Operation(crudl.OpRead).Result.Field("user")
	require.NotNil(t, spec)
	assert.Equal(t, field.TypeObject, spec.Kind)
	assert.Equal(t, "User", spec.TypeName)
	assert.NotNil(t, spec.Field("name"))
	assert.NotNil(t, spec.Field(crudl.IDField))
	assert.Equal(t, field.Forbidden, tweet.Operation(crudl.OpCreate).Args.Field("user").Presence)
}

func TestAssemble_Conflicts(t *testing.T) {
	t.Parallel()

	user := graph.MustModel(nil, "User", userFields())
	tests := []struct {
		name  string
		items []graph.Mountable
		want  string
	}{
		{
			name:  "model_twice",
			items: []graph.Mountable{user, graph.MustModel(nil, "User", nil)},
			want:  "createUser",
		},
		{
			name: "query_shadows_read",
			items: []graph.Mountable{user, graph.MustQuery("user", graph.Def{
				Type: field.Text("name"),
			})},
			want: "user",
		},
		{
			name: "mutation_shadows_create",
			items: []graph.Mountable{graph.MustMutation("createUser", graph.Def{
				Type: field.Text("status"),
			}), user},
			want: "createUser",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := graph.Assemble(tt.items...)
			require.Error(t, err)
			var conflict *crudl.NamingConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, tt.want, conflict.Name)
		})
	}

	// Failed assemblies leave pipelines open.
	assert.False(t, user.Pipeline(crudl.OpCreate).Frozen())

	// The same name may live in both namespaces.
	_, err := graph.Assemble(
		graph.MustQuery("status", graph.Def{Type: field.Text("s")}),
		graph.MustMutation("status", graph.Def{Type: field.Text("s")}),
	)
	assert.NoError(t, err)
}

func TestAdhoc(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	users := graph.MustModel(store, "User", userFields())
	for _, name := range []string{"Ada", "Grace", "Ada"} {
		_, err := users.Operation(crudl.OpCreate).Resolve(context.Background(), crudl.ResolveParams{Args: map[string]any{"name": name}})
		require.NoError(t, err)
	}

	userNames := graph.MustQuery("userNames", graph.Def{
		Type:  field.Sequence("names").Items(field.Text("name")),
		Store: store,
		Steps: []crudl.Step{func(c *crudl.Context, next crudl.Next) error {
			docs, err := c.Store().Collection("users").Find(c.Context(), nil)
			if err != nil {
				return err
			}
			seen := map[any]bool{}
			names := c.Result.([]any)
			for _, d := range docs {
				if !seen[d["name"]] {
					seen[d["name"]] = true
					names = append(names, d["name"])
				}
			}
			c.Result = names
			return next()
		}},
	})
	var sent []any
	blastEmail := graph.MustMutation("blastEmail", graph.Def{
		Args: []*field.Field{field.Sequence("ids").Items(field.ID("id")).Required()},
		Type: field.Text("status"),
		Steps: []crudl.Step{
			func(c *crudl.Context, next crudl.Next) error {
				if err := next(); err != nil {
					return err
				}
				c.Result = "Success"
				return nil
			},
			func(c *crudl.Context, next crudl.Next) error {
				sent = c.Args["ids"].([]any)
				return next()
			},
		},
	})
	s := graph.MustAssemble(users, userNames, blastEmail)
	assert.True(t, blastEmail.IsMutation())
	assert.Equal(t, "userNames", userNames.Name())

	v, err := s.Query["userNames"].Resolve(context.Background(), crudl.ResolveParams{})
	require.NoError(t, err)
	assert.Equal(t, []any{"Ada", "Grace"}, v)

	id := "00000000-0000-0000-0000-000000000001"
	v, err = s.Mutation["blastEmail"].Resolve(context.Background(), crudl.ResolveParams{Args: map[string]any{"ids": []any{id}}})
	require.NoError(t, err)
	assert.Equal(t, "Success", v)
	assert.Equal(t, []any{id}, sent)

	_, err = s.Mutation["blastEmail"].Resolve(context.Background(), crudl.ResolveParams{})
	assert.ErrorIs(t, err, crudl.ErrRequired)
	_, err = s.Mutation["blastEmail"].Resolve(context.Background(), crudl.ResolveParams{Args: map[string]any{"ids": []any{"nope"}}})
	assert.True(t, crudl.IsValidationError(err))
}

func TestAdhoc_Errors(t *testing.T) {
	t.Parallel()

	_, err := graph.Query("bad name", graph.Def{Type: field.Text("a")})
	assert.Error(t, err)
	_, err = graph.Query("q", graph.Def{})
	assert.Error(t, err)
	_, err = graph.Mutation("m", graph.Def{Type: field.Text("a"), Args: []*field.Field{field.Text("x"), field.Text("x")}})
	assert.True(t, crudl.IsDeclarationError(err))
	_, err = graph.Mutation("m", graph.Def{Type: field.Bool("a").Max(1)})
	assert.True(t, crudl.IsDeclarationError(err))

	// Initial results follow the result kind.
	for _, tt := range []struct {
		typ  *field.Field
		want any
	}{
		{field.Object("o"), crudl.Document{}},
		{field.Sequence("s"), []any{}},
		{field.Text("t"), nil},
	} {
		d := graph.MustQuery("q", graph.Def{Type: tt.typ})
		v, err := d.Operation().Resolve(context.Background(), crudl.ResolveParams{})
		require.NoError(t, err)
		assert.Equal(t, tt.want, v, tt.typ.Kind().String())
	}
}
