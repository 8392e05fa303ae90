package crudl

import (
	"fmt"
	"strings"
)

// Op represents one or more CRUDL operations as a bit set.
type Op uint

// CRUDL operations.
const (
	OpCreate Op = 1 << iota // create<Model>
	OpRead                  // <model>
	OpUpdate                // update<Model>
	OpDelete                // delete<Model>
	OpList                  // <models>

	// OpAll selects every operation. When passed to a schema lookup it
	// denotes the unconstrained base specification.
	OpAll = OpCreate | OpRead | OpUpdate | OpDelete | OpList
)

// Ops lists the single operations in declaration order.
var Ops = []Op{OpCreate, OpRead, OpUpdate, OpDelete, OpList}

var opNames = map[Op]string{
	OpCreate: "create",
	OpRead:   "read",
	OpUpdate: "update",
	OpDelete: "delete",
	OpList:   "list",
}

// Is reports whether o contains the given op.
func (o Op) Is(op Op) bool { return o&op != 0 }

// Single reports whether o holds exactly one operation.
func (o Op) Single() bool {
	_, ok := opNames[o]
	return ok
}

// Mutation reports whether o is one of the mutating operations.
func (o Op) Mutation() bool {
	return o.Single() && o.Is(OpCreate|OpUpdate|OpDelete)
}

// Split returns the single operations contained in o.
func (o Op) Split() []Op {
	ops := make([]Op, 0, len(Ops))
	for _, op := range Ops {
		if o.Is(op) {
			ops = append(ops, op)
		}
	}
	return ops
}

// String returns the space-separated names of the operations in o.
func (o Op) String() string {
	if o == OpAll {
		return "all"
	}
	names := make([]string, 0, len(Ops))
	for _, op := range o.Split() {
		names = append(names, opNames[op])
	}
	if len(names) == 0 || o&^OpAll != 0 {
		return fmt.Sprintf("Op(%d)", uint(o))
	}
	return strings.Join(names, " ")
}

// MarshalText implements encoding.TextMarshaler.
func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ParseOp parses a space-separated list of operation names, e.g.
// "update delete". The name "all" selects every operation.
func ParseOp(s string) (Op, error) {
	var op Op
	names := strings.Fields(s)
	if len(names) == 0 {
		return 0, &InvalidOperationError{Name: s}
	}
	for _, name := range names {
		switch name = strings.ToLower(name); name {
		case "all":
			op |= OpAll
		default:
			found := false
			for o, n := range opNames {
				if n == name {
					op |= o
					found = true
					break
				}
			}
			if !found {
				return 0, &InvalidOperationError{Name: name}
			}
		}
	}
	return op, nil
}

// MustParseOp is like ParseOp but panics on error.
func MustParseOp(s string) Op {
	op, err := ParseOp(s)
	if err != nil {
		panic(err)
	}
	return op
}
