package field

import (
	"fmt"
	"maps"
	"slices"
)

// Kind is the base kind of a field.
type Kind uint8

// Field kinds.
const (
	TypeInvalid Kind = iota
	TypeID
	TypeText
	TypeBool
	TypeNumber
	TypeObject
	TypeDate
	TypeSequence
)

var kindNames = [...]string{
	TypeInvalid:  "invalid",
	TypeID:       "id",
	TypeText:     "text",
	TypeBool:     "bool",
	TypeNumber:   "number",
	TypeObject:   "object",
	TypeDate:     "date",
	TypeSequence: "sequence",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Presence tells whether a value must, may or must not be supplied.
type Presence uint8

// Presence values.
const (
	Optional Presence = iota
	Required
	Forbidden
)

// String returns the presence name.
func (p Presence) String() string {
	switch p {
	case Required:
		return "required"
	case Forbidden:
		return "forbidden"
	default:
		return "optional"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Presence) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Rule is a single value constraint. Rules with a Tag are checked with
// the go-playground/validator tag syntax, others with their own check.
type Rule struct {
	Name string `yaml:"name"`
	Tag  string `yaml:"tag,omitempty"`

	check func(any) error
}

// Spec is the validation specification of a field for one operation.
// Specs handed out by a Field are copies and may be inspected freely.
type Spec struct {
	Name        string   `yaml:"name,omitempty"`
	Kind        Kind     `yaml:"kind"`
	Presence    Presence `yaml:"presence"`
	Description string   `yaml:"description,omitempty"`
	Label       string   `yaml:"label,omitempty"`
	// TypeName names the GraphQL object type of object specs.
	TypeName string `yaml:"type,omitempty"`
	// Integer restricts number specs to whole numbers.
	Integer bool    `yaml:"integer,omitempty"`
	Default any     `yaml:"default,omitempty"`
	Allowed []any   `yaml:"allowed,omitempty"`
	Rules   []Rule  `yaml:"rules,omitempty"`
	Items   *Spec   `yaml:"items,omitempty"`
	Fields  []*Spec `yaml:"fields,omitempty"`

	DefaultFunc func() any `yaml:"-"`
}

// Clone returns a deep copy of s.
func (s *Spec) Clone() *Spec {
	if s == nil {
		return nil
	}
	c := *s
	c.Allowed = slices.Clone(s.Allowed)
	c.Rules = slices.Clone(s.Rules)
	c.Items = s.Items.Clone()
	if s.Fields != nil {
		c.Fields = make([]*Spec, len(s.Fields))
		for i, f := range s.Fields {
			c.Fields[i] = f.Clone()
		}
	}
	if m, ok := s.Default.(map[string]any); ok {
		c.Default = maps.Clone(m)
	}
	return &c
}

// Field returns the nested field spec with the given name, or nil.
func (s *Spec) Field(name string) *Spec {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// HasRule reports whether s carries a rule with the given name.
func (s *Spec) HasRule(name string) bool {
	return slices.ContainsFunc(s.Rules, func(r Rule) bool { return r.Name == name })
}

// HasDefault reports whether a default value is configured.
func (s *Spec) HasDefault() bool {
	return s.Default != nil || s.DefaultFunc != nil
}

// NewObject returns an object spec with the given nested specs.
func NewObject(name, typeName string, fields ...*Spec) *Spec {
	return &Spec{Name: name, Kind: TypeObject, TypeName: typeName, Fields: fields}
}

// NewSequence returns a sequence spec of items.
func NewSequence(name string, items *Spec) *Spec {
	return &Spec{Name: name, Kind: TypeSequence, Items: items}
}

func (s *Spec) addRule(r Rule) {
	// A later rule with the same name overrides the earlier one, e.g.
	// Max(10) then Max(20) keeps only the last bound.
	for i := range s.Rules {
		if s.Rules[i].Name == r.Name {
			s.Rules[i] = r
			return
		}
	}
	s.Rules = append(s.Rules, r)
}
