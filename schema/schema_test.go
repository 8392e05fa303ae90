package schema_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/schema"
	"github.com/syssam/crudl/schema/field"
)

func userFields() []*field.Field {
	return []*field.Field{
		field.Text("name").On("create").Required(),
		field.Int("age").Min(0),
	}
}

// TestCompile_InjectsID tests the identifier injected into attribute sets.
func TestCompile_InjectsID(t *testing.T) {
	t.Parallel()

	ops, err := schema.Compile("User", userFields(), nil)
	require.NoError(t, err)
	require.Len(t, ops, 5)

	t.Run("forbidden_on_create", func(t *testing.T) {
		id := ops[crudl.OpCreate].Args.Field(crudl.IDField)
		require.NotNil(t, id)
		assert.Equal(t, field.Forbidden, id.Presence)
		assert.Equal(t, field.TypeID, id.Kind)
	})

	t.Run("required_on_update_and_delete", func(t *testing.T) {
		for _, op := range []crudl.Op{crudl.OpUpdate, crudl.OpDelete} {
			assert.Equal(t, field.Required, ops[op].Args.Field(crudl.IDField).Presence, op.String())
		}
	})

	t.Run("optional_on_read_and_list", func(t *testing.T) {
		for _, op := range []crudl.Op{crudl.OpRead, crudl.OpList} {
			assert.Equal(t, field.Optional, ops[op].Args.Field(crudl.IDField).Presence, op.String())
		}
	})

	t.Run("appended_last", func(t *testing.T) {
		fields := ops[crudl.OpRead].Args.Fields
		require.Len(t, fields, 3)
		assert.Equal(t, []string{"name", "age", "_id"}, []string{fields[0].Name, fields[1].Name, fields[2].Name})
	})

	t.Run("explicit_id_is_kept", func(t *testing.T) {
		custom, err := schema.Compile("Tag", []*field.Field{field.ID("_id").Required()}, nil)
		require.NoError(t, err)
		require.Len(t, custom[crudl.OpCreate].Args.Fields, 1)
		assert.Equal(t, field.Required, custom[crudl.OpCreate].Args.Fields[0].Presence)
	})
}

// TestCompile_Shapes tests argument and result shapes per operation.
func TestCompile_Shapes(t *testing.T) {
	t.Parallel()

	ops, err := schema.Compile("User", userFields(), nil)
	require.NoError(t, err)

	assert.Equal(t, field.Required, ops[crudl.OpCreate].Args.Field("name").Presence)
	assert.Equal(t, field.Optional, ops[crudl.OpUpdate].Args.Field("name").Presence)

	for _, op := range []crudl.Op{crudl.OpCreate, crudl.OpRead, crudl.OpUpdate, crudl.OpDelete} {
		res := ops[op].Result
		assert.Equal(t, field.TypeObject, res.Kind, op.String())
		assert.Equal(t, "User", res.TypeName, op.String())
		assert.Equal(t, field.Optional, res.Field("name").Presence, "results use the base specification")
		assert.Equal(t, field.Optional, res.Field(crudl.IDField).Presence)
	}
	list := ops[crudl.OpList].Result
	assert.Equal(t, field.TypeSequence, list.Kind)
	assert.Equal(t, "User", list.Items.TypeName)
	assert.Equal(t, "Lists User documents matching the arguments", ops[crudl.OpList].Description)
	assert.Equal(t, crudl.OpDelete, ops[crudl.OpDelete].Op)
}

// TestCompile_Idempotent tests that compiling the same attribute set twice
// yields equal specifications.
func TestCompile_Idempotent(t *testing.T) {
	t.Parallel()

	a, err := schema.Compile("User", userFields(), nil)
	require.NoError(t, err)
	b, err := schema.Compile("User", userFields(), nil)
	require.NoError(t, err)
	for _, op := range crudl.Ops {
		assert.Equal(t, a[op].Args, b[op].Args, op.String())
		assert.Equal(t, a[op].Result, b[op].Result, op.String())
	}

	// The same field slice compiles twice without accumulating identifiers.
	fields := userFields()
	_, err = schema.Compile("User", fields, nil)
	require.NoError(t, err)
	c, err := schema.Compile("User", fields, nil)
	require.NoError(t, err)
	assert.Len(t, fields, 2)
	assert.Equal(t, a[crudl.OpUpdate].Args, c[crudl.OpUpdate].Args)
}

// TestCompile_Bind tests resolver binding.
func TestCompile_Bind(t *testing.T) {
	t.Parallel()

	var bound []crudl.Op
	ops, err := schema.Compile("User", userFields(), func(op crudl.Op, args *field.Spec) crudl.Resolver {
		bound = append(bound, op)
		require.NotNil(t, args.Field("name"))
		return func(context.Context, crudl.ResolveParams) (any, error) { return op.String(), nil }
	})
	require.NoError(t, err)
	assert.Equal(t, crudl.Ops, bound)

	v, err := ops[crudl.OpUpdate].Resolve(context.Background(), crudl.ResolveParams{})
	require.NoError(t, err)
	assert.Equal(t, "update", v)
}

// TestCompile_Errors tests declaration-time failures.
func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		model  string
		fields []*field.Field
		check  func(error) bool
	}{
		{"invalid_model_name", "my model", nil, func(err error) bool { return err != nil }},
		{"duplicate_field", "User", []*field.Field{field.Text("a"), field.Bool("a")}, crudl.IsDeclarationError},
		{"invalid_field_name", "User", []*field.Field{field.Text("a-b")}, crudl.IsDeclarationError},
		{"field_error", "User", []*field.Field{field.Bool("a").Max(1)}, crudl.IsDeclarationError},
		{"unknown_op", "User", []*field.Field{field.Text("a").On("publish").Required()}, crudl.IsInvalidOperation},
		{"nil_field", "User", []*field.Field{nil}, func(err error) bool { return err != nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.Compile(tt.model, tt.fields, nil)
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}
}

// TestIDField tests the injected identifier declaration.
func TestIDField(t *testing.T) {
	t.Parallel()

	f := schema.IDField()
	require.NoError(t, f.Err())
	assert.Equal(t, crudl.IDField, f.Name())
	assert.Equal(t, "Unique identifier", f.MustSchema(crudl.OpAll).Description)
	assert.Equal(t, field.Optional, f.MustSchema(crudl.OpAll).Presence)
}
