package privacy

import (
	"context"
	"fmt"
	"slices"

	"github.com/syssam/crudl"
)

// Viewer represents the authenticated user making a request.
// This interface should be implemented by application-specific user types.
type Viewer interface {
	// GetID returns the viewer's unique identifier.
	GetID() string
	// GetRoles returns the viewer's roles.
	GetRoles() []string
	// GetTenantID returns the viewer's tenant identifier for multi-tenancy.
	// Returns empty string if not applicable.
	GetTenantID() string
}

// WithViewer returns a new context with the viewer attached as the caller
// identity.
func WithViewer(ctx context.Context, viewer Viewer) context.Context {
	return crudl.WithCaller(ctx, viewer)
}

// ViewerFromContext retrieves the viewer from the context.
// Returns nil if no viewer is present.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := crudl.CallerFromContext(ctx).(Viewer)
	return v
}

// ViewerOf returns the caller of an execution context as a Viewer.
func ViewerOf(c *crudl.Context) Viewer {
	v, _ := c.Caller.(Viewer)
	return v
}

// SimpleViewer is a basic implementation of the Viewer interface.
// Use this for testing or simple use cases.
type SimpleViewer struct {
	UserID   string
	Roles    []string
	TenantID string
}

// GetID returns the user ID.
func (v *SimpleViewer) GetID() string {
	return v.UserID
}

// GetRoles returns the user's roles.
func (v *SimpleViewer) GetRoles() []string {
	return v.Roles
}

// GetTenantID returns the tenant ID.
func (v *SimpleViewer) GetTenantID() string {
	return v.TenantID
}

// DenyIfNoViewer returns a rule that denies access if the caller is not a
// viewer. This is typically used as the first rule in a policy to require
// authentication.
func DenyIfNoViewer() Rule {
	return RuleFunc(func(c *crudl.Context) error {
		if ViewerOf(c) == nil {
			return Denyf("crudl/privacy: viewer required")
		}
		return Skip
	})
}

// HasRole returns a rule that allows access if the viewer has the specified role.
// Skips if the viewer doesn't have the role (allows next rule to evaluate).
func HasRole(role string) Rule {
	return HasAnyRole(role)
}

// HasAnyRole returns a rule that allows access if the viewer has any of the specified roles.
func HasAnyRole(roles ...string) Rule {
	return RuleFunc(func(c *crudl.Context) error {
		viewer := ViewerOf(c)
		if viewer == nil {
			return Skip
		}
		viewerRoles := viewer.GetRoles()
		for _, role := range roles {
			if slices.Contains(viewerRoles, role) {
				return Allow
			}
		}
		return Skip
	})
}

// IsOwner returns a rule that allows access if the argument field holds
// the viewer's ID.
//
// Example:
//
//	privacy.Policy{
//	    privacy.DenyIfNoViewer(),
//	    privacy.IsOwner("userId"),
//	    privacy.AlwaysDenyRule(),
//	}
func IsOwner(field string) Rule {
	return RuleFunc(func(c *crudl.Context) error {
		viewer := ViewerOf(c)
		if viewer == nil {
			return Skip
		}
		value, ok := c.Args[field]
		if !ok {
			return Skip
		}
		if idString(value) == viewer.GetID() {
			return Allow
		}
		return Skip
	})
}

// IsDocumentOwner returns a rule that loads the document targeted by the
// identifier argument and allows access if its field holds the viewer's
// ID. A missing document is reported as *crudl.NotFoundError.
func IsDocumentOwner(field string) Rule {
	return RuleFunc(func(c *crudl.Context) error {
		viewer := ViewerOf(c)
		if viewer == nil {
			return Skip
		}
		id, ok := c.Args[crudl.IDField]
		if !ok {
			return Skip
		}
		coll := c.Collection()
		if coll == nil {
			return crudl.ErrNoCollection
		}
		doc, err := coll.FindOne(c.Context(), crudl.Document{crudl.IDField: id})
		if err != nil {
			return err
		}
		if doc == nil {
			return &crudl.NotFoundError{Collection: c.CollectionName(), ID: idString(id)}
		}
		if idString(doc[field]) == viewer.GetID() {
			return Allow
		}
		return Skip
	})
}

// TenantRule returns a rule that allows access if the viewer's tenant
// matches the tenant argument field, and denies it otherwise.
func TenantRule(field string) Rule {
	return RuleFunc(func(c *crudl.Context) error {
		viewer := ViewerOf(c)
		if viewer == nil {
			return Skip
		}
		viewerTenant := viewer.GetTenantID()
		if viewerTenant == "" {
			return Skip
		}
		value, ok := c.Args[field]
		if !ok {
			return Skip
		}
		if idString(value) == viewerTenant {
			return Allow
		}
		return Denyf("crudl/privacy: tenant mismatch")
	})
}

// TenantRequired returns a rule that denies access if no viewer or tenant
// is present.
func TenantRequired() Rule {
	return RuleFunc(func(c *crudl.Context) error {
		viewer := ViewerOf(c)
		if viewer == nil {
			return Denyf("crudl/privacy: viewer required for tenant-filtered operation")
		}
		if viewer.GetTenantID() == "" {
			return Denyf("crudl/privacy: tenant required")
		}
		return Skip
	})
}

func idString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
