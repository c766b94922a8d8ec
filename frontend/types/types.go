package types

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Type is a type expression: a tree whose leaves are type variables, nominal
// types and generic parameters, with tuples, function types and l-value
// wrappers as interior nodes.
//
// Types are compared by Hash; two types with the same hash are the same
// canonical type. We implement equality this way rather than with an Equals
// method because each node kind has its own interpretation of equality, and
// an l-value wrapper must never accidentally compare equal to its object
// type.
type Type interface {
	Hash() uint64
	String() string
}

// Equal compares two types for canonical equality.
func Equal(fst, snd Type) bool {
	return fst.Hash() == snd.Hash()
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// TypeVar is an unknown in a constraint system. Identity is the pointer; ID
// is a stable ordinal assigned by whoever created the variable. The solver
// keeps all mutable state (representative, fixed binding) outside this
// struct so that the type tree itself stays immutable.
type TypeVar struct {
	ID              int
	NameHint        string
	CanBindToLValue bool
}

func (v *TypeVar) Hash() uint64 {
	return 0x9e3779b9*uint64(v.ID) + 41
}

func (v *TypeVar) String() string {
	if v.NameHint != "" {
		return "$" + v.NameHint
	}
	return "$T" + strconv.Itoa(v.ID)
}

// Nominal is a named type, optionally applied to type arguments. A nominal
// whose declaration has parameters but which carries no arguments is an
// unspecialized generic (see Universe.IsUnspecializedGeneric).
type Nominal struct {
	Name string
	Args []Type
}

func (n Nominal) Hash() uint64 {
	h := 31*hashString(n.Name) ^ 0x5bd1e995
	for _, arg := range n.Args {
		h = 31*h ^ arg.Hash()
	}
	return h
}

func (n Nominal) String() string {
	if len(n.Args) == 0 {
		return n.Name
	}
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.String()
	}
	return n.Name + "<" + strings.Join(args, ", ") + ">"
}

// TupleElem is one element of a tuple type.
type TupleElem struct {
	Label    string
	Type     Type
	Variadic bool
}

// Tuple is an ordered sequence of optionally-labelled, optionally-variadic
// elements.
type Tuple struct {
	Elems []TupleElem
}

func (t Tuple) Hash() uint64 {
	h := uint64(0x85ebca6b)
	for _, e := range t.Elems {
		h = 31*h ^ e.Type.Hash()
		h = 31*h ^ hashString(e.Label)
		if e.Variadic {
			h = 31*h ^ 7
		}
	}
	return h
}

func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		s := e.Type.String()
		if e.Variadic {
			s += "..."
		}
		if e.Label != "" {
			s = e.Label + ": " + s
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ScalarElem reports the index of the sole element a scalar value could
// initialize, or -1. A tuple is scalar-initializable when exactly one of its
// elements is non-variadic and unlabelled-or-defaultable; we use the narrow
// rule: one element total.
func (t Tuple) ScalarElem() int {
	if len(t.Elems) == 1 {
		return 0
	}
	return -1
}

// Func is a function type from Input (conventionally a Tuple) to Result.
type Func struct {
	Input       Type
	Result      Type
	AutoClosure bool
}

func (f Func) Hash() uint64 {
	h := 31*f.Input.Hash() ^ f.Result.Hash()
	if f.AutoClosure {
		h = 31*h ^ 13
	}
	return h
}

func (f Func) String() string {
	prefix := ""
	if f.AutoClosure {
		prefix = "@auto_closure "
	}
	return fmt.Sprintf("%s%s -> %s", prefix, f.Input, f.Result)
}

// LValue wraps the type of a mutable location.
type LValue struct {
	Object   Type
	Implicit bool
}

func (l LValue) Hash() uint64 {
	h := 31*l.Object.Hash() ^ 0xc2b2ae35
	if l.Implicit {
		h = 31*h ^ 3
	}
	return h
}

func (l LValue) String() string {
	return "@lvalue " + l.Object.String()
}

// GenericParam is a generic type parameter, identified by depth and index.
// The solver binds leftover free variables to these under the
// GenericParameters relaxation.
type GenericParam struct {
	Depth int
	Index int
}

func (g GenericParam) Hash() uint64 {
	return 0x27d4eb2f*uint64(g.Depth) ^ 0x165667b1*uint64(g.Index) ^ 59
}

func (g GenericParam) String() string {
	return fmt.Sprintf("tau_%d_%d", g.Depth, g.Index)
}

// RValueOf strips an l-value wrapper, if any.
func RValueOf(t Type) Type {
	if lv, ok := t.(LValue); ok {
		return lv.Object
	}
	return t
}

// IsTypeVariable returns the type variable when t is one.
func IsTypeVariable(t Type) (*TypeVar, bool) {
	v, ok := t.(*TypeVar)
	return v, ok
}
