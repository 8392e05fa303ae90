package field

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/syssam/crudl"
)

// A Field is the declaration of one attribute. It keeps a validation
// specification for each CRUDL operation plus an unconstrained base
// specification returned for crudl.OpAll.
//
// Constraint methods apply to the operations selected by the last call to
// On, or to all of them if On was never called:
//
//	field.ID("_id").
//	    On("create").Forbidden().
//	    On("update delete").Required()
type Field struct {
	name   string
	kind   Kind
	specs  [6]*Spec
	active crudl.Op
	base   bool
	errs   []error
}

// ID returns a new identifier field. Identifier values are UUID strings.
func ID(name string) *Field { return newField(name, TypeID) }

// Text returns a new text field.
func Text(name string) *Field { return newField(name, TypeText) }

// Bool returns a new boolean field.
func Bool(name string) *Field { return newField(name, TypeBool) }

// Number returns a new numeric field.
func Number(name string) *Field { return newField(name, TypeNumber) }

// Int returns a new numeric field restricted to whole numbers.
func Int(name string) *Field { return newField(name, TypeNumber).Integer() }

// Date returns a new date field. Values are time.Time or RFC 3339 strings.
func Date(name string) *Field { return newField(name, TypeDate) }

// Object returns a new structured object field holding the given fields.
func Object(name string, fields ...*Field) *Field {
	f := newField(name, TypeObject)
	if len(fields) > 0 {
		f.Attrs(fields...)
	}
	return f
}

// Sequence returns a new sequence field. Use Items to constrain elements.
func Sequence(name string) *Field { return newField(name, TypeSequence) }

// FromSpec returns a field using a copy of s, renamed to name, as the
// specification of every operation. It embeds a compiled shape, such as a
// model result, into another attribute set.
func FromSpec(name string, s *Spec) *Field {
	if s == nil {
		return newField(name, TypeInvalid).fail(errors.New("nil spec"))
	}
	f := &Field{name: name, kind: s.Kind, active: crudl.OpAll, base: true}
	for i := range f.specs {
		f.specs[i] = s.Clone()
		f.specs[i].Name = name
	}
	return f
}

func newField(name string, kind Kind) *Field {
	f := &Field{name: name, kind: kind, active: crudl.OpAll, base: true}
	for i := range f.specs {
		f.specs[i] = &Spec{Name: name, Kind: kind}
	}
	return f
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// Kind returns the base kind of the field.
func (f *Field) Kind() Kind { return f.kind }

// Err returns the declaration errors recorded while building the field.
func (f *Field) Err() error { return crudl.NewAggregateError(f.errs...) }

// Schema returns a copy of the specification accumulated for op. Pass
// crudl.OpAll for the unconstrained base specification.
func (f *Field) Schema(op crudl.Op) (*Spec, error) {
	i, ok := slot(op)
	if !ok {
		return nil, &crudl.InvalidOperationError{Op: op}
	}
	return f.specs[i].Clone(), nil
}

// MustSchema is like Schema but panics on error.
func (f *Field) MustSchema(op crudl.Op) *Spec {
	s, err := f.Schema(op)
	if err != nil {
		panic(err)
	}
	return s
}

// On selects the operations subsequent constraint calls apply to. The
// argument is a space-separated list such as "create update" or "all".
// Only "all" also selects the base specification: listing the five
// operations does not.
func (f *Field) On(ops string) *Field {
	op, err := crudl.ParseOp(ops)
	if err != nil {
		f.active, f.base = 0, false
		return f.fail(err)
	}
	f.active, f.base = op, false
	for _, name := range strings.Fields(ops) {
		if strings.EqualFold(name, "all") {
			f.base = true
		}
	}
	return f
}

// OnOp is like On with a typed operation set. crudl.OpAll selects the
// base specification too.
func (f *Field) OnOp(op crudl.Op) *Field {
	if op == 0 || op&^crudl.OpAll != 0 {
		f.active, f.base = 0, false
		return f.fail(&crudl.InvalidOperationError{Op: op})
	}
	f.active, f.base = op, op == crudl.OpAll
	return f
}

// Required marks the value as mandatory.
func (f *Field) Required() *Field {
	return f.apply(func(_ crudl.Op, s *Spec) { s.Presence = Required })
}

// Optional marks the value as optional.
func (f *Field) Optional() *Field {
	return f.apply(func(_ crudl.Op, s *Spec) { s.Presence = Optional })
}

// Forbidden rejects any supplied value.
func (f *Field) Forbidden() *Field {
	return f.apply(func(_ crudl.Op, s *Spec) { s.Presence = Forbidden })
}

// Default sets the value used when none is supplied.
func (f *Field) Default(v any) *Field {
	return f.apply(func(_ crudl.Op, s *Spec) {
		s.Default, s.DefaultFunc = v, nil
	})
}

// DefaultFunc sets a function computing the value used when none is
// supplied, e.g. time.Now wrapped for dates.
func (f *Field) DefaultFunc(fn func() any) *Field {
	if fn == nil {
		return f.fail(errors.New("nil default func"))
	}
	return f.apply(func(_ crudl.Op, s *Spec) {
		s.Default, s.DefaultFunc = nil, fn
	})
}

// Description sets the description exposed in the GraphQL schema.
func (f *Field) Description(text string) *Field {
	return f.apply(func(_ crudl.Op, s *Spec) { s.Description = text })
}

// Label sets the label used in error messages.
func (f *Field) Label(text string) *Field {
	return f.apply(func(_ crudl.Op, s *Spec) { s.Label = text })
}

// Min sets the lower bound: the minimum length of text and sequences,
// or the minimum value of numbers.
func (f *Field) Min(n float64) *Field { return f.bound("min", n) }

// Max sets the upper bound: the maximum length of text and sequences,
// or the maximum value of numbers.
func (f *Field) Max(n float64) *Field { return f.bound("max", n) }

// Len sets the exact length of text and sequences.
func (f *Field) Len(n int) *Field {
	if !f.expect("len", TypeText, TypeSequence) {
		return f
	}
	if n < 0 {
		return f.fail(fmt.Errorf("len: negative length %d", n))
	}
	return f.rule(Rule{Name: "len", Tag: "len=" + strconv.Itoa(n)})
}

// Email requires text to be an e-mail address.
func (f *Field) Email() *Field {
	if !f.expect("email", TypeText) {
		return f
	}
	return f.rule(Rule{Name: "email", Tag: "email"})
}

// URL requires text to be an absolute URL.
func (f *Field) URL() *Field {
	if !f.expect("url", TypeText) {
		return f
	}
	return f.rule(Rule{Name: "url", Tag: "url"})
}

// Match requires text to match the regular expression.
func (f *Field) Match(re *regexp.Regexp) *Field {
	if !f.expect("match", TypeText) {
		return f
	}
	if re == nil {
		return f.fail(errors.New("match: nil regexp"))
	}
	return f.rule(Rule{Name: "match", check: func(v any) error {
		if s, _ := v.(string); !re.MatchString(s) {
			return fmt.Errorf("does not match %q", re)
		}
		return nil
	}})
}

// Integer restricts numbers to whole values.
func (f *Field) Integer() *Field {
	if !f.expect("integer", TypeNumber) {
		return f
	}
	return f.apply(func(_ crudl.Op, s *Spec) { s.Integer = true })
}

// Positive requires numbers greater than zero.
func (f *Field) Positive() *Field {
	if !f.expect("positive", TypeNumber) {
		return f
	}
	return f.rule(Rule{Name: "positive", Tag: "gt=0"})
}

// Negative requires numbers lower than zero.
func (f *Field) Negative() *Field {
	if !f.expect("negative", TypeNumber) {
		return f
	}
	return f.rule(Rule{Name: "negative", Tag: "lt=0"})
}

// Valid restricts values to the given set.
func (f *Field) Valid(values ...any) *Field {
	if !f.expect("valid", TypeID, TypeText, TypeBool, TypeNumber, TypeDate) {
		return f
	}
	if len(values) == 0 {
		return f.fail(errors.New("valid: empty value set"))
	}
	return f.apply(func(_ crudl.Op, s *Spec) { s.Allowed = append([]any(nil), values...) })
}

// TypeName sets the GraphQL type name of an object field.
func (f *Field) TypeName(name string) *Field {
	if !f.expect("type name", TypeObject) {
		return f
	}
	return f.apply(func(_ crudl.Op, s *Spec) { s.TypeName = name })
}

// Items sets the element declaration of a sequence. Each operation takes
// the element specification of the same operation.
func (f *Field) Items(item *Field) *Field {
	if !f.expect("items", TypeSequence) {
		return f
	}
	if item == nil {
		return f.fail(errors.New("items: nil element"))
	}
	if err := item.Err(); err != nil {
		return f.fail(fmt.Errorf("items: %w", err))
	}
	return f.apply(func(op crudl.Op, s *Spec) {
		s.Items = item.MustSchema(op)
	})
}

// Attrs adds nested fields to an object. A nested field replaces an
// earlier one with the same name.
func (f *Field) Attrs(fields ...*Field) *Field {
	if !f.expect("attrs", TypeObject) {
		return f
	}
	seen := make(map[string]bool, len(fields))
	for _, c := range fields {
		switch {
		case c == nil:
			return f.fail(errors.New("attrs: nil field"))
		case seen[c.name]:
			return f.fail(fmt.Errorf("attrs: duplicate field %q", c.name))
		case !ValidName(c.name):
			return f.fail(fmt.Errorf("attrs: invalid field name %q", c.name))
		}
		if err := c.Err(); err != nil {
			return f.fail(fmt.Errorf("attrs: %w", err))
		}
		seen[c.name] = true
	}
	return f.apply(func(op crudl.Op, s *Spec) {
		for _, c := range fields {
			cs := c.MustSchema(op)
			if i := indexOf(s.Fields, c.name); i >= 0 {
				s.Fields[i] = cs
			} else {
				s.Fields = append(s.Fields, cs)
			}
		}
	})
}

func (f *Field) bound(name string, n float64) *Field {
	if !f.expect(name, TypeText, TypeNumber, TypeSequence) {
		return f
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return f.fail(fmt.Errorf("%s: invalid bound %v", name, n))
	}
	if f.kind != TypeNumber && (n < 0 || n != math.Trunc(n)) {
		return f.fail(fmt.Errorf("%s: length must be a non-negative integer, got %v", name, n))
	}
	return f.rule(Rule{Name: name, Tag: name + "=" + strconv.FormatFloat(n, 'f', -1, 64)})
}

func (f *Field) rule(r Rule) *Field {
	return f.apply(func(_ crudl.Op, s *Spec) { s.addRule(r) })
}

// apply runs fn on every specification of the active selector, and on
// the base specification when "all" was selected.
func (f *Field) apply(fn func(crudl.Op, *Spec)) *Field {
	if f.base {
		fn(crudl.OpAll, f.specs[0])
	}
	for i, op := range crudl.Ops {
		if f.active.Is(op) {
			fn(op, f.specs[i+1])
		}
	}
	return f
}

func (f *Field) expect(method string, kinds ...Kind) bool {
	for _, k := range kinds {
		if f.kind == k {
			return true
		}
	}
	f.fail(fmt.Errorf("%s is not supported on %s fields", method, f.kind))
	return false
}

func (f *Field) fail(err error) *Field {
	f.errs = append(f.errs, &crudl.DeclarationError{Field: f.name, Err: err})
	return f
}

func slot(op crudl.Op) (int, bool) {
	if op == crudl.OpAll {
		return 0, true
	}
	for i, o := range crudl.Ops {
		if o == op {
			return i + 1, true
		}
	}
	return 0, false
}

func indexOf(specs []*Spec, name string) int {
	for i, s := range specs {
		if s.Name == name {
			return i
		}
	}
	return -1
}

var nameRe = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// ValidName reports whether name is a valid GraphQL name.
func ValidName(name string) bool {
	return nameRe.MatchString(name)
}
