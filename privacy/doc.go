// Package privacy provides rule based authorization steps for crudl
// operations.
//
// # Core Concepts
//
//   - Policy: An ordered list of rules turned into a pipeline step
//   - Rule: A function that returns Allow, Deny, or Skip decisions
//   - Viewer: An interface representing the caller
//
// # Defining Policies
//
//	tweet.On("update delete", privacy.Policy{
//	    privacy.DenyIfNoViewer(),          // Require authentication
//	    privacy.HasRole("admin"),          // Allow admins
//	    privacy.IsDocumentOwner("userId"), // Allow owners
//	    privacy.AlwaysDenyRule(),          // Deny by default
//	}.Step())
//
// # Rule Evaluation
//
// Rules are evaluated in order until one returns a final decision:
//
//   - Allow: Grants access and stops evaluation
//   - Deny: Denies access and stops evaluation
//   - Skip: Continues to the next rule
//
// If all rules return Skip, access is granted. Denials surface as
// *crudl.PrivacyError wrapping the decision, before the persistence step
// runs.
//
// # Built-in Rules
//
//   - DenyIfNoViewer: Denies if the caller is not a Viewer
//   - AlwaysAllowRule, AlwaysDenyRule: Fixed decisions
//   - HasRole, HasAnyRole: Allows if viewer has one of the roles
//   - IsOwner: Allows if an argument holds the viewer ID
//   - IsDocumentOwner: Allows if the targeted document belongs to the viewer
//   - TenantRule, TenantRequired: Multi-tenant isolation
//   - OnOperation, AllowOperationRule, DenyOperationRule: Per operation rules
//
// # Viewer Interface
//
// The viewer is the caller identity of the request context:
//
//	ctx := privacy.WithViewer(ctx, &privacy.SimpleViewer{
//	    UserID: "user-123",
//	    Roles:  []string{"user"},
//	})
package privacy
