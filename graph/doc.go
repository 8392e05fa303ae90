// Package graph builds models and assembles them into a GraphQL schema
// artifact.
//
// # Models
//
// A model compiles its attribute set into five operations, each resolved
// by a pipeline ending with the persistence step of the operation:
//
//	store := memory.NewStore()
//	user := graph.MustModel(store, "User", []*field.Field{
//	    field.Text("email").Email(),
//	    field.Text("name").On("create").Required(),
//	})
//	user.On("delete", deleteTweets)
//
// The collection of a model is the camel-cased plural of its name
// ("people" for "Person"). It is looked up in the store on every access.
//
// # Ad-hoc Definitions
//
// Queries and mutations outside the CRUDL set run their own steps:
//
//	userNames := graph.MustQuery("userNames", graph.Def{
//	    Type:  field.Sequence("names").Items(field.Text("name")),
//	    Steps: []crudl.Step{distinctNames},
//	    Store: store,
//	})
//
// # Assembly
//
// Assemble mounts models as create<S>, <s>, update<S>, delete<S> and <p>,
// and ad-hoc definitions under their own names:
//
//	s, err := graph.Assemble(user, tweet, userNames)
//	s.Mutation["createUser"]
//	s.Query["users"]
//
// Conflicting names fail with a *crudl.NamingConflictError. Assembly
// freezes the mounted pipelines; registering steps afterwards fails with
// crudl.ErrPipelineFrozen.
package graph
