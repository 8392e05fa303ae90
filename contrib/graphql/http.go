package graphql

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/graph"
)

// Request is a GraphQL request as sent over HTTP.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Option configures the HTTP handler.
type Option func(*options)

type options struct {
	logger     zerolog.Logger
	caller     func(*http.Request) any
	playground bool
	title      string
}

// WithLogger sets the logger of request failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithCaller sets the function extracting the caller identity of a
// request. The identity is made available to steps as Context.Caller.
func WithCaller(fn func(*http.Request) any) Option {
	return func(o *options) { o.caller = fn }
}

// WithPlayground enables the GraphiQL page served by Mount under
// <route>/playground.
func WithPlayground(title string) Option {
	return func(o *options) {
		o.playground = true
		o.title = title
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: zerolog.Nop(), title: "crudl"}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handler returns an HTTP handler executing GraphQL requests against s.
// Requests are accepted as JSON POST bodies or as GET query parameters.
func Handler(s graphql.Schema, opts ...Option) http.Handler {
	o := newOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := decode(r)
		if err != nil {
			o.logger.Debug().Err(err).Msg("invalid graphql request")
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"errors": []map[string]any{{"message": err.Error()}},
			})
			return
		}
		ctx := r.Context()
		if o.caller != nil {
			if caller := o.caller(r); caller != nil {
				ctx = crudl.WithCaller(ctx, caller)
			}
		}
		res := graphql.Do(graphql.Params{
			Schema:         s,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})
		if res.HasErrors() {
			for _, e := range res.Errors {
				o.logger.Warn().
					Str("operation", req.OperationName).
					Str("error", e.Message).
					Msg("graphql error")
			}
		}
		writeJSON(w, http.StatusOK, res)
	})
}

// Mount builds the executable schema of s and routes it on r at route.
func Mount(r chi.Router, route string, s *graph.Schema, opts ...Option) error {
	es, err := NewExecutableSchema(s)
	if err != nil {
		return err
	}
	o := newOptions(opts)
	h := Handler(es, opts...)
	r.Get(route, h.ServeHTTP)
	r.Post(route, h.ServeHTTP)
	if o.playground {
		r.Get(strings.TrimSuffix(route, "/")+"/playground", playground.Handler(o.title, route))
	}
	return nil
}

var (
	errVariables    = errors.New("variables must be a JSON object")
	errBody         = errors.New("body must be a JSON GraphQL request")
	errMethod       = errors.New("method not allowed")
	errMissingQuery = errors.New("query is required")
)

func decode(r *http.Request) (*Request, error) {
	req := &Request{}
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				return nil, errVariables
			}
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			return nil, errBody
		}
	default:
		return nil, errMethod
	}
	if req.Query == "" {
		return nil, errMissingQuery
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
