// Package privacy provides sets of types and helpers for writing privacy
// rules over crudl operations, and deal with their evaluation at runtime.
package privacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/crudl"
)

// Policy decision sentinel errors.
//
// These errors are used as return values from policy rules to indicate
// how the policy evaluation should proceed. Use errors.Is() to check
// for these values:
//
//	if errors.Is(err, privacy.Allow) { ... }
//	if errors.Is(err, privacy.Deny) { ... }
//	if errors.Is(err, privacy.Skip) { ... }
var (
	// Allow may be returned by rules to indicate that the policy
	// evaluation should terminate with an allow decision.
	Allow = errors.New("crudl/privacy: allow rule")

	// Deny may be returned by rules to indicate that the policy
	// evaluation should terminate with a deny decision.
	Deny = errors.New("crudl/privacy: deny rule")

	// Skip may be returned by rules to indicate that the policy
	// evaluation should continue to the next rule in the chain.
	Skip = errors.New("crudl/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Rule decides whether the operation of an execution context may run.
// It returns Allow, Deny, Skip or an error; nil is equivalent to Skip.
type Rule interface {
	Eval(c *crudl.Context) error
}

// RuleFunc type is an adapter which allows the use of ordinary functions
// as rules.
type RuleFunc func(*crudl.Context) error

// Eval returns f(c).
func (f RuleFunc) Eval(c *crudl.Context) error { return f(c) }

// AlwaysAllowRule returns a rule that always returns an Allow decision.
func AlwaysAllowRule() Rule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always returns a Deny decision.
func AlwaysDenyRule() Rule {
	return fixedDecision{Deny}
}

// ContextRule creates a rule from a request context evaluation function.
func ContextRule(eval func(context.Context) error) Rule {
	return RuleFunc(func(c *crudl.Context) error {
		return eval(c.Context())
	})
}

// OnOperation evaluates the given rule only on the given operations.
func OnOperation(rule Rule, op crudl.Op) Rule {
	return RuleFunc(func(c *crudl.Context) error {
		if c.Op.Is(op) {
			return rule.Eval(c)
		}
		return Skip
	})
}

// DenyOperationRule returns a rule denying the given operations.
func DenyOperationRule(op crudl.Op) Rule {
	rule := RuleFunc(func(c *crudl.Context) error {
		return Denyf("crudl/privacy: operation %s is not allowed", c.Op)
	})
	return OnOperation(rule, op)
}

// AllowOperationRule returns a rule allowing the given operations.
func AllowOperationRule(op crudl.Op) Rule {
	return OnOperation(fixedDecision{Allow}, op)
}

// Policy is an ordered list of rules. Evaluation stops at the first rule
// returning a decision other than Skip. If every rule skips, the operation
// is allowed; end a policy with AlwaysDenyRule to deny by default.
type Policy []Rule

// Eval evaluates the policy. It returns nil when the operation is allowed
// and the deny decision otherwise. A decision attached to the request
// context with DecisionContext takes precedence over the rules.
func (p Policy) Eval(c *crudl.Context) error {
	if decision, ok := DecisionFromContext(c.Context()); ok {
		return decision
	}
	for _, rule := range p {
		switch decision := rule.Eval(c); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

// Step returns a pipeline step evaluating the policy before calling next.
// Denials are reported as *crudl.PrivacyError.
//
//	tweet.On("update delete", privacy.Policy{
//	    privacy.DenyIfNoViewer(),
//	    privacy.HasRole("admin"),
//	    privacy.IsDocumentOwner("userId"),
//	    privacy.AlwaysDenyRule(),
//	}.Step())
func (p Policy) Step() crudl.Step {
	return func(c *crudl.Context, next crudl.Next) error {
		if err := p.Eval(c); err != nil {
			return crudl.NewPrivacyError(c.Name, c.Op, err)
		}
		return next()
	}
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context with
// a policy decision attach to it.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) Eval(*crudl.Context) error {
	return f.decision
}
