package types

import (
	"sort"

	"github.com/xtgo/set"
)

// Walk calls visit on t and every type nested inside it, stopping early when
// visit returns false.
func Walk(t Type, visit func(Type) bool) bool {
	if !visit(t) {
		return false
	}
	switch t := t.(type) {
	case Nominal:
		for _, arg := range t.Args {
			if !Walk(arg, visit) {
				return false
			}
		}
	case Tuple:
		for _, e := range t.Elems {
			if !Walk(e.Type, visit) {
				return false
			}
		}
	case Func:
		if !Walk(t.Input, visit) {
			return false
		}
		if !Walk(t.Result, visit) {
			return false
		}
	case LValue:
		if !Walk(t.Object, visit) {
			return false
		}
	}
	return true
}

// Transform rebuilds t top-down, consulting f on each node before its
// children and replacing any node for which f returns a non-nil type.
// Children of a replaced node are not visited.
func Transform(t Type, f func(Type) Type) Type {
	if replaced := f(t); replaced != nil {
		return replaced
	}
	switch t := t.(type) {
	case Nominal:
		if len(t.Args) == 0 {
			return t
		}
		args := make([]Type, len(t.Args))
		for i, arg := range t.Args {
			args[i] = Transform(arg, f)
		}
		return Nominal{Name: t.Name, Args: args}
	case Tuple:
		elems := make([]TupleElem, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = TupleElem{Label: e.Label, Type: Transform(e.Type, f), Variadic: e.Variadic}
		}
		return Tuple{Elems: elems}
	case Func:
		return Func{
			Input:       Transform(t.Input, f),
			Result:      Transform(t.Result, f),
			AutoClosure: t.AutoClosure,
		}
	case LValue:
		return LValue{Object: Transform(t.Object, f), Implicit: t.Implicit}
	default:
		return t
	}
}

type byID []*TypeVar

func (s byID) Len() int           { return len(s) }
func (s byID) Less(i, j int) bool { return s[i].ID < s[j].ID }
func (s byID) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// TypeVariablesIn collects every type variable occurring in t, deduplicated
// and ordered by ID.
func TypeVariablesIn(t Type) []*TypeVar {
	var vars []*TypeVar
	Walk(t, func(t Type) bool {
		if v, ok := t.(*TypeVar); ok {
			vars = append(vars, v)
		}
		return true
	})
	if len(vars) < 2 {
		return vars
	}
	sort.Sort(byID(vars))
	n := set.Uniq(byID(vars))
	return vars[:n]
}

// HasTypeVariable reports whether any type variable occurs in t.
func HasTypeVariable(t Type) bool {
	found := false
	Walk(t, func(t Type) bool {
		if _, ok := t.(*TypeVar); ok {
			found = true
		}
		return !found
	})
	return found
}
