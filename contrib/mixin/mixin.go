// Package mixin provides common mixin implementations for crudl models.
//
// These mixins are OPTIONAL and provided as convenient starting points.
// Users are encouraged to create their own mixins tailored to their needs.
//
// Available mixins:
//   - CreateTime: Adds a createdAt date set on create
//   - UpdateTime: Adds an updatedAt date set on create and update
//   - Time: Combines CreateTime and UpdateTime
//   - Owner: Adds a userId set from the viewer, restricting update and delete to the owner
//   - TenantID: Adds a tenantId set from the viewer, isolating documents per tenant
//
// Usage:
//
//	import "github.com/syssam/crudl/contrib/mixin"
//
//	graph.NewModel(store, "Tweet", fields,
//	    graph.WithMixin(mixin.Time{}, mixin.Owner{}),
//	)
//
// Custom mixins:
//
// For project-specific needs, define your own mixins:
//
//	type AuditMixin struct {
//	    mixin.Schema
//	}
//
//	func (AuditMixin) Fields() []*field.Field {
//	    return []*field.Field{
//	        field.Text("createdBy").On("create update").Forbidden(),
//	    }
//	}
package mixin

import (
	"fmt"
	"time"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/privacy"
	"github.com/syssam/crudl/schema"
	"github.com/syssam/crudl/schema/field"
	"github.com/syssam/crudl/schema/mixin"
)

// now is the clock of the time mixins.
var now = func() any { return time.Now().UTC() }

// CreateTime adds the createdAt date field.
// The field cannot be written by callers and defaults to the current time
// on create.
type CreateTime struct{ mixin.Schema }

// Fields of the create time mixin.
func (CreateTime) Fields() []*field.Field {
	return []*field.Field{
		field.Date("createdAt").
			Description("Creation time").
			On("create update").Forbidden().
			On("create").DefaultFunc(now),
	}
}

// create time mixin must implement `Mixin` interface.
var _ schema.Mixin = (*CreateTime)(nil)

// UpdateTime adds the updatedAt date field.
// The field is refreshed on every create and update.
type UpdateTime struct{ mixin.Schema }

// Fields of the update time mixin.
func (UpdateTime) Fields() []*field.Field {
	return []*field.Field{
		field.Date("updatedAt").
			Description("Last modification time").
			On("create update").Forbidden().DefaultFunc(now),
	}
}

// update time mixin must implement `Mixin` interface.
var _ schema.Mixin = (*UpdateTime)(nil)

// Time composes CreateTime and UpdateTime mixins.
// Provides both createdAt and updatedAt fields.
//
// This is the most common mixin for tracking document timestamps.
type Time struct{ mixin.Schema }

// Fields of the time mixin.
func (Time) Fields() []*field.Field {
	return append(
		CreateTime{}.Fields(),
		UpdateTime{}.Fields()...,
	)
}

// time mixin must implement `Mixin` interface.
var _ schema.Mixin = (*Time)(nil)

// Owner adds an owner identifier field, userId unless Field is set.
//
// Callers cannot write the field: it is filled with the viewer ID on
// create. Update and delete are only allowed to the viewer owning the
// stored document.
type Owner struct {
	mixin.Schema
	Field string
}

func (o Owner) field() string {
	if o.Field == "" {
		return "userId"
	}
	return o.Field
}

// Fields of the owner mixin.
func (o Owner) Fields() []*field.Field {
	return []*field.Field{
		field.ID(o.field()).
			Description("Owner identifier").
			On("create update").Forbidden(),
	}
}

// Steps of the owner mixin.
func (o Owner) Steps() []schema.Registration {
	name := o.field()
	return []schema.Registration{
		{
			Ops: "create",
			Steps: []crudl.Step{
				privacy.Policy{privacy.DenyIfNoViewer()}.Step(),
				func(c *crudl.Context, next crudl.Next) error {
					c.Args[name] = privacy.ViewerOf(c).GetID()
					return next()
				},
			},
		},
		{
			Ops: "update delete",
			Steps: []crudl.Step{
				privacy.Policy{
					privacy.DenyIfNoViewer(),
					privacy.IsDocumentOwner(name),
					privacy.AlwaysDenyRule(),
				}.Step(),
			},
		},
	}
}

// owner mixin must implement `Mixin` interface.
var _ schema.Mixin = (*Owner)(nil)

// TenantID adds a tenantId field for multi-tenancy support.
//
// The field is filled with the viewer tenant on create and added to the
// filter of read and list, so a viewer only sees documents of its tenant.
// Update and delete of a document owned by another tenant are denied, and
// fail with *crudl.NotFoundError when no document has the identifier.
type TenantID struct{ mixin.Schema }

// Fields of the TenantID mixin.
func (TenantID) Fields() []*field.Field {
	return []*field.Field{
		field.Text("tenantId").
			Description("Tenant identifier").
			On("create read update list").Forbidden(),
	}
}

// Steps of the TenantID mixin.
func (TenantID) Steps() []schema.Registration {
	setTenant := func(c *crudl.Context, next crudl.Next) error {
		c.Args["tenantId"] = privacy.ViewerOf(c).GetTenantID()
		return next()
	}
	return []schema.Registration{
		{
			Ops:   "create read list",
			Steps: []crudl.Step{privacy.Policy{privacy.TenantRequired()}.Step(), setTenant},
		},
		{
			Ops: "update delete",
			Steps: []crudl.Step{
				privacy.Policy{
					privacy.TenantRequired(),
					privacy.RuleFunc(sameTenant),
				}.Step(),
			},
		},
	}
}

// sameTenant denies access to a stored document of another tenant. A
// missing document is reported as *crudl.NotFoundError, so update cannot
// insert a document outside of the viewer tenant.
func sameTenant(c *crudl.Context) error {
	coll := c.Collection()
	if coll == nil {
		return crudl.ErrNoCollection
	}
	id, ok := c.Args[crudl.IDField]
	if !ok {
		return privacy.Skip
	}
	doc, err := coll.FindOne(c.Context(), crudl.Document{crudl.IDField: id})
	if err != nil {
		return err
	}
	if doc == nil {
		return &crudl.NotFoundError{Collection: c.CollectionName(), ID: fmt.Sprint(id)}
	}
	if doc["tenantId"] != privacy.ViewerOf(c).GetTenantID() {
		return privacy.Denyf("crudl/privacy: tenant mismatch")
	}
	return privacy.Skip
}

// tenant id mixin must implement `Mixin` interface.
var _ schema.Mixin = (*TenantID)(nil)
