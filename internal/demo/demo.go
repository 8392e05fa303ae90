// Package demo declares the User and Tweet sample application served by
// the crudl command.
package demo

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/rs/zerolog"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/contrib/dataloader"
	"github.com/syssam/crudl/contrib/mixin"
	"github.com/syssam/crudl/graph"
	"github.com/syssam/crudl/privacy"
	"github.com/syssam/crudl/schema/field"
)

// UserHeader carries the identifier of the calling user.
const UserHeader = "X-User-Id"

// App is the assembled demo application.
type App struct {
	Users      *graph.Model
	Tweets     *graph.Model
	UserNames  *graph.Definition
	BlastEmail *graph.Definition
	Schema     *graph.Schema
}

// New declares the demo models on store and assembles them. The given
// steps run first on every operation, e.g. logging or metrics.
func New(store crudl.Store, logger zerolog.Logger, steps ...crudl.Step) (*App, error) {
	users, err := graph.NewModel(store, "User", []*field.Field{
		field.Text("email").Email(),
		field.Text("name").Max(80).
			On("create").Required(),
	}, graph.WithMixin(mixin.Time{}))
	if err != nil {
		return nil, err
	}
	tweets, err := graph.NewModel(store, "Tweet", []*field.Field{
		field.Text("body").Max(150).
			On("create update").Required(),
		users.Field("user").
			Description("Author of the tweet").
			On("create update").Forbidden(),
	}, graph.WithMixin(mixin.Time{}, mixin.Owner{}))
	if err != nil {
		return nil, err
	}

	app := &App{Users: users, Tweets: tweets}
	errs := []error{
		users.On("delete", deleteTweets(tweets)),
		tweets.On("create", setAuthor(users), congratulate(logger)),
	}
	if len(steps) > 0 {
		errs = append(errs, users.On("all", steps...), tweets.On("all", steps...))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	app.UserNames, err = graph.Query("userNames", graph.Def{
		Description: "Distinct names of the registered users",
		Type:        field.Sequence("names").Items(field.Text("name")),
		Steps:       append(slices.Clone(steps), distinctNames(users)),
		Store:       store,
	})
	if err != nil {
		return nil, err
	}
	app.BlastEmail, err = graph.Mutation("blastEmail", graph.Def{
		Description: "Sends an email to the given users",
		Args: []*field.Field{
			field.Sequence("ids").Items(field.ID("id")).Required(),
		},
		Type:  field.Text("status"),
		Steps: append(slices.Clone(steps), confirmSent(logger), sendEmailBlast(users, logger)),
		Store: store,
	})
	if err != nil {
		return nil, err
	}

	app.Schema, err = graph.Assemble(tweets, users, app.UserNames, app.BlastEmail)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Caller returns the viewer named by the UserHeader of r, or nil.
func Caller(r *http.Request) any {
	id := r.Header.Get(UserHeader)
	if id == "" {
		return nil
	}
	return &privacy.SimpleViewer{UserID: id}
}

// setAuthor embeds the calling user document into a new tweet.
func setAuthor(users *graph.Model) crudl.Step {
	return func(c *crudl.Context, next crudl.Next) error {
		viewer := privacy.ViewerOf(c)
		if viewer == nil {
			return next()
		}
		user, err := c.Store().Collection(users.CollectionName()).
			FindOne(c.Context(), crudl.Document{crudl.IDField: viewer.GetID()})
		if err != nil {
			return err
		}
		if user == nil {
			return &crudl.NotFoundError{Collection: users.CollectionName(), ID: viewer.GetID()}
		}
		c.Args["user"] = user
		return next()
	}
}

func congratulate(logger zerolog.Logger) crudl.Step {
	return func(c *crudl.Context, next crudl.Next) error {
		logger.Info().Str("body", fmt.Sprint(c.Args["body"])).Msg("creating tweet")
		if err := next(); err != nil {
			return err
		}
		if doc, ok := c.Result.(crudl.Document); ok {
			logger.Info().Any("id", doc[crudl.IDField]).Msg("congrats on your tweet")
		}
		return nil
	}
}

// deleteTweets removes the tweets of a deleted user.
func deleteTweets(tweets *graph.Model) crudl.Step {
	return func(c *crudl.Context, next crudl.Next) error {
		if err := next(); err != nil {
			return err
		}
		doc, ok := c.Result.(crudl.Document)
		if !ok {
			return nil
		}
		_, err := c.Store().Collection(tweets.CollectionName()).
			Remove(c.Context(), crudl.Document{"userId": doc[crudl.IDField]})
		return err
	}
}

func distinctNames(users *graph.Model) crudl.Step {
	return func(c *crudl.Context, next crudl.Next) error {
		docs, err := c.Store().Collection(users.CollectionName()).Find(c.Context(), nil)
		if err != nil {
			return err
		}
		names := []any{}
		for _, d := range docs {
			if name, ok := d["name"]; ok && !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
		c.Result = names
		return next()
	}
}

func confirmSent(logger zerolog.Logger) crudl.Step {
	return func(c *crudl.Context, next crudl.Next) error {
		logger.Info().Any("ids", c.Args["ids"]).Msg("sending email blast")
		if err := next(); err != nil {
			return err
		}
		c.Result = "Success"
		logger.Info().Msg("email blast sent")
		return nil
	}
}

func sendEmailBlast(users *graph.Model, logger zerolog.Logger) crudl.Step {
	return func(c *crudl.Context, next crudl.Next) error {
		var ids []string
		if list, ok := c.Args["ids"].([]any); ok {
			for _, id := range list {
				ids = append(ids, fmt.Sprint(id))
			}
		}
		loader := dataloader.New(c.Store().Collection(users.CollectionName()))
		docs, errs := loader.LoadMany(c.Context(), ids)
		var names []string
		for i, doc := range docs {
			switch {
			case errors.Is(errs[i], dataloader.ErrNotFound):
				logger.Warn().Str("id", ids[i]).Msg("unknown recipient")
			case errs[i] != nil:
				return errs[i]
			default:
				names = append(names, fmt.Sprint(doc["name"]))
			}
		}
		logger.Info().Strs("names", names).Msg("sending to")
		return next()
	}
}
