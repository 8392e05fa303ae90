// Package schema compiles model attribute sets into CRUDL operations.
//
// An attribute set is the ordered list of fields of one model. Compile
// derives five operations from it:
//
//	ops, err := schema.Compile("User", []*field.Field{
//	    field.Text("name").On("create").Required(),
//	}, bind)
//
//	ops[crudl.OpCreate].Args    // name required, _id forbidden
//	ops[crudl.OpUpdate].Args    // _id required
//	ops[crudl.OpList].Result    // sequence of User
//
// When the attribute set has no "_id" field, IDField is appended. The
// injected identifier is an ordinary field afterwards.
//
// Mixin and Registration describe reusable bundles of fields and steps;
// see the schema/mixin and contrib/mixin packages.
package schema
