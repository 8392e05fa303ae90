package field_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/schema/field"
)

var allOps = append([]crudl.Op{crudl.OpAll}, crudl.Ops...)

func TestField_NoSelectorAppliesEverywhere(t *testing.T) {
	t.Parallel()

	f := field.Text("name").Max(50).Required().Description("display name")
	require.NoError(t, f.Err())
	for _, op := range allOps {
		s := f.MustSchema(op)
		assert.Equal(t, field.Required, s.Presence, op.String())
		assert.Equal(t, "display name", s.Description, op.String())
		assert.True(t, s.HasRule("max"), op.String())
	}
}

func TestField_OnScopesMutations(t *testing.T) {
	t.Parallel()

	f := field.Text("name").On("create").Required()
	require.NoError(t, f.Err())
	assert.Equal(t, field.Required, f.MustSchema(crudl.OpCreate).Presence)
	for _, op := range []crudl.Op{crudl.OpAll, crudl.OpRead, crudl.OpUpdate, crudl.OpDelete, crudl.OpList} {
		assert.Equal(t, field.Optional, f.MustSchema(op).Presence, op.String())
	}
}

func TestField_OnDoesNotAffectEarlierMutations(t *testing.T) {
	t.Parallel()

	f := field.Text("foo").
		Label("hi").
		On("create").Label("bye")
	assert.Equal(t, "hi", f.MustSchema(crudl.OpAll).Label)
	assert.Equal(t, "bye", f.MustSchema(crudl.OpCreate).Label)
	assert.Equal(t, "hi", f.MustSchema(crudl.OpRead).Label)

	f = field.Text("foo").
		On("create").Description("a").
		On("read").Description("b").
		On("update").Description("c").
		On("delete").Description("d").
		On("list").Description("e")
	want := map[crudl.Op]string{
		crudl.OpCreate: "a",
		crudl.OpRead:   "b",
		crudl.OpUpdate: "c",
		crudl.OpDelete: "d",
		crudl.OpList:   "e",
		crudl.OpAll:    "",
	}
	for op, desc := range want {
		assert.Equal(t, desc, f.MustSchema(op).Description, op.String())
	}
}

func TestField_OnMultipleAndAll(t *testing.T) {
	t.Parallel()

	f := field.ID("userId").
		On("create update").Forbidden().
		On("delete").Required().
		On("all").Description("owner")
	require.NoError(t, f.Err())
	assert.Equal(t, field.Forbidden, f.MustSchema(crudl.OpCreate).Presence)
	assert.Equal(t, field.Forbidden, f.MustSchema(crudl.OpUpdate).Presence)
	assert.Equal(t, field.Required, f.MustSchema(crudl.OpDelete).Presence)
	assert.Equal(t, field.Optional, f.MustSchema(crudl.OpRead).Presence)
	for _, op := range allOps {
		assert.Equal(t, "owner", f.MustSchema(op).Description)
	}

	f = field.Bool("flag").OnOp(crudl.OpRead | crudl.OpList).Default(true)
	assert.Equal(t, true, f.MustSchema(crudl.OpList).Default)
	assert.Nil(t, f.MustSchema(crudl.OpCreate).Default)
}

func TestField_OnEveryOpKeepsBase(t *testing.T) {
	t.Parallel()

	f := field.Text("x").On("create read update delete list").Required()
	require.NoError(t, f.Err())
	for _, op := range crudl.Ops {
		assert.Equal(t, field.Required, f.MustSchema(op).Presence, op.String())
	}
	assert.Equal(t, field.Optional, f.MustSchema(crudl.OpAll).Presence)

	f = field.Text("x").On("list").Max(3).On("ALL").Min(1)
	assert.True(t, f.MustSchema(crudl.OpAll).HasRule("min"))
	assert.False(t, f.MustSchema(crudl.OpAll).HasRule("max"))
}

func TestField_Schema(t *testing.T) {
	t.Parallel()

	f := field.Text("name")
	_, err := f.Schema(crudl.OpCreate | crudl.OpRead)
	assert.True(t, crudl.IsInvalidOperation(err))
	_, err = f.Schema(0)
	assert.True(t, crudl.IsInvalidOperation(err))
	assert.Panics(t, func() { f.MustSchema(crudl.Op(1 << 10)) })

	// Returned specs are copies.
	s := f.MustSchema(crudl.OpCreate)
	s.Presence = field.Required
	assert.Equal(t, field.Optional, f.MustSchema(crudl.OpCreate).Presence)
	assert.Equal(t, "name", s.Name)
	assert.Equal(t, field.TypeText, s.Kind)
}

func TestField_DeclarationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		f    *field.Field
	}{
		{"unknown op", field.Text("a").On("upsert").Required()},
		{"invalid typed op", field.Text("a").OnOp(0)},
		{"max on bool", field.Bool("a").Max(3)},
		{"negative length", field.Text("a").Max(-1)},
		{"fractional length", field.Sequence("a").Min(1.5)},
		{"email on number", field.Number("a").Email()},
		{"nil regexp", field.Text("a").Match(nil)},
		{"items on text", field.Text("a").Items(field.Text("b"))},
		{"nil items", field.Sequence("a").Items(nil)},
		{"broken items", field.Sequence("a").Items(field.Bool("b").Len(2))},
		{"attrs on text", field.Text("a").Attrs(field.Text("b"))},
		{"duplicate attrs", field.Object("a", field.Text("b"), field.Text("b"))},
		{"invalid attr name", field.Object("a", field.Text("not valid"))},
		{"empty valid", field.Text("a").Valid()},
		{"nil default func", field.Date("a").DefaultFunc(nil)},
		{"integer on text", field.Text("a").Integer()},
		{"type name on text", field.Text("a").TypeName("A")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Err()
			require.Error(t, err)
			assert.True(t, crudl.IsDeclarationError(err))
		})
	}

	f := field.Text("a").On("nope").Required()
	for _, op := range allOps {
		assert.Equal(t, field.Optional, f.MustSchema(op).Presence, "an invalid selector targets nothing")
	}
	assert.True(t, crudl.IsInvalidOperation(f.Err()))
}

func TestField_Bounds(t *testing.T) {
	t.Parallel()

	s := field.Text("body").Max(150).Max(140).Min(1).MustSchema(crudl.OpAll)
	require.Len(t, s.Rules, 2)
	assert.Equal(t, "max=140", s.Rules[0].Tag)
	assert.Equal(t, "min=1", s.Rules[1].Tag)

	s = field.Number("score").Min(-1.5).Positive().MustSchema(crudl.OpAll)
	assert.Equal(t, "min=-1.5", s.Rules[0].Tag)
	assert.Equal(t, "gt=0", s.Rules[1].Tag)

	assert.True(t, field.Int("age").MustSchema(crudl.OpRead).Integer)
	assert.True(t, field.Text("code").Len(4).MustSchema(crudl.OpRead).HasRule("len"))
	assert.True(t, field.Text("site").URL().Match(regexp.MustCompile("^https")).MustSchema(crudl.OpRead).HasRule("match"))
}

func TestField_Items(t *testing.T) {
	t.Parallel()

	item := field.Text("tag").On("create").Required()
	f := field.Sequence("tags").Items(item).Max(3)
	require.NoError(t, f.Err())
	assert.Equal(t, field.Required, f.MustSchema(crudl.OpCreate).Items.Presence)
	assert.Equal(t, field.Optional, f.MustSchema(crudl.OpRead).Items.Presence)
	assert.Equal(t, field.TypeText, f.MustSchema(crudl.OpAll).Items.Kind)

	// Later changes to the element do not leak into the sequence.
	item.On("all").Forbidden()
	assert.Equal(t, field.Optional, f.MustSchema(crudl.OpRead).Items.Presence)
}

func TestField_Attrs(t *testing.T) {
	t.Parallel()

	f := field.Object("address",
		field.Text("city").On("create").Required(),
		field.Text("zip"),
	).TypeName("Address")
	require.NoError(t, f.Err())

	create := f.MustSchema(crudl.OpCreate)
	assert.Equal(t, "Address", create.TypeName)
	require.Len(t, create.Fields, 2)
	assert.Equal(t, field.Required, create.Field("city").Presence)
	assert.Equal(t, field.Optional, f.MustSchema(crudl.OpUpdate).Field("city").Presence)
	assert.Nil(t, create.Field("street"))

	f.Attrs(field.Text("zip").Len(5), field.Text("street"))
	all := f.MustSchema(crudl.OpAll)
	require.Len(t, all.Fields, 3)
	assert.True(t, all.Field("zip").HasRule("len"))
	assert.Equal(t, "street", all.Fields[2].Name)

	f.On("create update delete").Forbidden()
	assert.Equal(t, field.Forbidden, f.MustSchema(crudl.OpDelete).Presence)
	assert.Equal(t, field.Optional, f.MustSchema(crudl.OpRead).Presence)
}

func TestSpec_Clone(t *testing.T) {
	t.Parallel()

	s := field.NewObject("user", "User",
		&field.Spec{Name: "name", Kind: field.TypeText, Rules: []field.Rule{{Name: "max", Tag: "max=3"}}},
	)
	s.Default = map[string]any{"name": "x"}
	c := s.Clone()
	c.Fields[0].Rules[0].Tag = "max=4"
	c.Default.(map[string]any)["name"] = "y"
	assert.Equal(t, "max=3", s.Fields[0].Rules[0].Tag)
	assert.Equal(t, "x", s.Default.(map[string]any)["name"])
	assert.Nil(t, (*field.Spec)(nil).Clone())

	seq := field.NewSequence("users", s)
	assert.Equal(t, field.TypeSequence, seq.Kind)
	assert.Same(t, s, seq.Items)
}

func TestKindAndPresence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "sequence", field.TypeSequence.String())
	assert.Equal(t, "Kind(42)", field.Kind(42).String())
	assert.Equal(t, "forbidden", field.Forbidden.String())
	text, err := field.Required.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "required", string(text))
	assert.True(t, field.ValidName("_id"))
	assert.False(t, field.ValidName("1st"))
}

func TestFromSpec(t *testing.T) {
	t.Parallel()

	user := field.NewObject("", "User",
		field.Text("name").MustSchema(crudl.OpAll),
	)
	f := field.FromSpec("author", user)
	require.NoError(t, f.Err())
	assert.Equal(t, field.TypeObject, f.Kind())
	for _, op := range allOps {
		s := f.MustSchema(op)
		assert.Equal(t, "author", s.Name)
		assert.Equal(t, "User", s.TypeName)
	}

	f.On("create update").Forbidden()
	assert.Equal(t, field.Forbidden, f.MustSchema(crudl.OpCreate).Presence)
	assert.Equal(t, field.Optional, user.Presence)

	assert.True(t, crudl.IsDeclarationError(field.FromSpec("x", nil).Err()))
}
