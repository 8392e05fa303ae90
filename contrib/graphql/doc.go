// Package graphql binds an assembled crudl schema to GraphQL.
//
// NewExecutableSchema builds a github.com/graphql-go/graphql schema whose
// root fields call the resolvers of the mounted operations:
//
//	s := graph.MustAssemble(users, tweets)
//	es, err := graphql.NewExecutableSchema(s)
//
// SDL renders the same schema in the schema definition language, checked
// with github.com/vektah/gqlparser:
//
//	sdl, err := graphql.SDL(s)
//
// # Types
//
// Model results are object types named after the model. Arguments are
// mapped to input objects named <Type><Op>Input when a field holds nested
// attributes. Required arguments are non-null, forbidden arguments are
// omitted. Field kinds map to scalars:
//
//	id        ID
//	text      String
//	bool      Boolean
//	number    Float, or Int for whole numbers
//	date      Date (RFC 3339)
//	object    object type, or JSON without attributes
//	sequence  list
//
// # HTTP
//
// Mount routes the schema on a chi router, with an optional GraphiQL page:
//
//	r := chi.NewRouter()
//	err := graphql.Mount(r, "/graphql", s,
//	    graphql.WithLogger(log),
//	    graphql.WithPlayground("Tweets"),
//	)
package graphql
