// Package crudl turns declarative models into a create/read/update/delete/list
// GraphQL API backed by a document store.
//
// A model is an ordered set of field declarations. Each declaration carries
// one validation specification per operation, so a single attribute set
// describes five argument shapes:
//
//	user := graph.MustModel(store, "User", []*field.Field{
//	    field.Text("email").Email(),
//	    field.Text("name").On("create").Required(),
//	})
//
// Every operation runs through a pipeline of steps that ends with a
// persistence step bound to the store. Steps registered with On run
// before it, most recently registered first:
//
//	user.On("delete", func(c *crudl.Context, next crudl.Next) error {
//	    if err := next(); err != nil {
//	        return err
//	    }
//	    _, err := c.Store().Collection("tweets").Remove(c.Context(), crudl.Document{"userId": c.Args["_id"]})
//	    return err
//	})
//
// Models are mounted into a schema with graph.Assemble and served with the
// contrib/graphql package.
package crudl
