package solver

import (
	"github.com/pkg/errors"

	"github.com/crestlang/crest/frontend/types"
)

// worstOf combines two verdicts: an error on either side fails the whole
// constraint, and any unsolved part keeps it active.
func worstOf(a, b SolutionKind) SolutionKind {
	if a == SolutionError || b == SolutionError {
		return SolutionError
	}
	if a == SolutionUnsolved || b == SolutionUnsolved {
		return SolutionUnsolved
	}
	return SolutionSolved
}

// simplifyConstraint reduces one constraint against the current
// substitution. Side effects are confined to the substitution store and the
// journal; binding a variable re-activates dependent constraints through
// the graph.
func (cs *ConstraintSystem) simplifyConstraint(c *Constraint) SolutionKind {
	switch c.Kind {
	case KindBind, KindEqual, KindTrivialSubtype, KindSubtype, KindConversion:
		return cs.matchTypes(c.First, c.Second, c.Kind)

	case KindApplicableFunction:
		return cs.simplifyApplicableFunction(c)

	case KindMaterializable:
		t := cs.SimplifyType(c.First)
		if types.HasTypeVariable(t) {
			return SolutionUnsolved
		}
		materializable := true
		types.Walk(t, func(n types.Type) bool {
			if _, ok := n.(types.LValue); ok {
				materializable = false
			}
			return materializable
		})
		if materializable {
			return SolutionSolved
		}
		return SolutionError

	case KindValueMember, KindTypeMember:
		return cs.simplifyMember(c)

	case KindConformsTo, KindSelfObjectOfProtocol:
		t := cs.SimplifyType(c.First)
		if types.HasTypeVariable(t) {
			return SolutionUnsolved
		}
		if cs.universe.Conforms(types.RValueOf(t), c.Protocol) {
			return SolutionSolved
		}
		return SolutionError

	case KindDisjunction:
		// Disjunctions are branched by the driver, never simplified in
		// place.
		return SolutionUnsolved

	case KindConjunction:
		panic(errors.New("conjunction constraints should have been broken apart"))

	default:
		panic(errors.Errorf("cannot simplify constraint kind %s", c.Kind))
	}
}

// matchTypes relates two types under the given relational kind. Bind and
// Equal may bind type variables; the weaker kinds leave variables to the
// binding search and report Unsolved.
func (cs *ConstraintSystem) matchTypes(first, second types.Type, kind ConstraintKind) SolutionKind {
	t1 := cs.SimplifyType(first)
	t2 := cs.SimplifyType(second)

	if types.Equal(t1, t2) {
		return SolutionSolved
	}

	v1, ok1 := types.IsTypeVariable(t1)
	v2, ok2 := types.IsTypeVariable(t2)

	if kind == KindBind || kind == KindEqual {
		switch {
		case ok1 && ok2:
			cs.mergeEquivalenceClasses(v1, v2)
			return SolutionSolved
		case ok1:
			return cs.bindVariable(v1, t2)
		case ok2:
			return cs.bindVariable(v2, t1)
		}
	} else if ok1 || ok2 {
		// Subtype-like constraints never bind; the search does.
		return SolutionUnsolved
	}

	return cs.matchConcreteTypes(t1, t2, kind)
}

// bindVariable fixes v to t after the occurs check.
func (cs *ConstraintSystem) bindVariable(v *types.TypeVar, t types.Type) SolutionKind {
	rep := cs.Representative(v)
	for _, other := range types.TypeVariablesIn(t) {
		if cs.Representative(other) == rep {
			return SolutionError
		}
	}
	if !v.CanBindToLValue {
		t = types.RValueOf(t)
	}
	cs.AssignFixedType(v, t, true)
	return SolutionSolved
}

func (cs *ConstraintSystem) matchConcreteTypes(t1, t2 types.Type, kind ConstraintKind) SolutionKind {
	// l-value adjustments first: a location can be read wherever its
	// object type is wanted, but never the other way around.
	if l1, ok := t1.(types.LValue); ok {
		if l2, ok := t2.(types.LValue); ok {
			return cs.matchTypes(l1.Object, l2.Object, KindEqual)
		}
		if kind >= KindTrivialSubtype {
			result := cs.matchTypes(l1.Object, t2, kind)
			if result == SolutionSolved {
				cs.recordRestriction(t1, t2, RestrictionLValueToRValue)
			}
			return result
		}
		return SolutionError
	}
	if _, ok := t2.(types.LValue); ok {
		return SolutionError
	}

	if f1, ok := t1.(types.Func); ok {
		if f2, ok := t2.(types.Func); ok {
			subKind := kind
			if subKind > KindSubtype {
				subKind = KindSubtype
			}
			// Input is contravariant, result covariant.
			in := cs.matchTypes(f2.Input, f1.Input, subKind)
			out := cs.matchTypes(f1.Result, f2.Result, subKind)
			return worstOf(in, out)
		}
	} else if f2, ok := t2.(types.Func); ok && f2.AutoClosure && kind == KindConversion {
		// A value converts to an auto-closure producing it.
		result := cs.matchTypes(t1, f2.Result, KindConversion)
		if result == SolutionSolved {
			cs.recordRestriction(t1, t2, RestrictionAutoClosure)
			cs.increaseScore(SKFunctionConversion)
		}
		return result
	}

	tu1, isTuple1 := t1.(types.Tuple)
	tu2, isTuple2 := t2.(types.Tuple)
	switch {
	case isTuple1 && isTuple2:
		return cs.matchTupleTypes(tu1, tu2, kind)

	case !isTuple1 && isTuple2 && kind == KindConversion:
		// Scalar to single-element tuple.
		if idx := tu2.ScalarElem(); idx >= 0 {
			elem := tu2.Elems[idx]
			result := cs.matchTypes(t1, elem.Type, KindConversion)
			if result == SolutionSolved {
				cs.recordRestriction(t1, t2, RestrictionScalarToTuple)
				cs.increaseScore(SKScalarToTuple)
			}
			return result
		}

	case isTuple1 && !isTuple2 && kind >= KindSubtype:
		// A one-element unlabelled tuple is interchangeable with its
		// element.
		if len(tu1.Elems) == 1 && !tu1.Elems[0].Variadic && tu1.Elems[0].Label == "" {
			return cs.matchTypes(tu1.Elems[0].Type, t2, kind)
		}
	}

	n1, isNominal1 := t1.(types.Nominal)
	n2, isNominal2 := t2.(types.Nominal)
	if isNominal1 && isNominal2 {
		if n1.Name == n2.Name {
			if len(n1.Args) != len(n2.Args) {
				return SolutionError
			}
			// Type arguments are invariant.
			result := SolutionSolved
			for i := range n1.Args {
				result = worstOf(result, cs.matchTypes(n1.Args[i], n2.Args[i], KindEqual))
			}
			return result
		}
		if kind >= KindSubtype {
			for super := cs.universe.SuperclassOf(n1); super != nil; super = cs.universe.SuperclassOf(super) {
				if types.Equal(super, t2) {
					cs.recordRestriction(t1, t2, RestrictionSuperclass)
					if kind == KindConversion {
						cs.increaseScore(SKUserConversion)
					}
					return SolutionSolved
				}
			}
		}
	}

	return SolutionError
}

func (cs *ConstraintSystem) matchTupleTypes(tu1, tu2 types.Tuple, kind ConstraintKind) SolutionKind {
	if len(tu1.Elems) != len(tu2.Elems) {
		return SolutionError
	}
	result := SolutionSolved
	for i := range tu1.Elems {
		e1, e2 := tu1.Elems[i], tu2.Elems[i]
		if e1.Label != e2.Label || e1.Variadic != e2.Variadic {
			return SolutionError
		}
		result = worstOf(result, cs.matchTypes(e1.Type, e2.Type, kind))
	}
	if result == SolutionSolved && kind == KindConversion {
		cs.recordRestriction(tu1, tu2, RestrictionTupleToTuple)
	}
	return result
}

// simplifyMember resolves a value or type member once the base type has
// become concrete.
func (cs *ConstraintSystem) simplifyMember(c *Constraint) SolutionKind {
	base := types.RValueOf(cs.SimplifyType(c.First))
	if types.HasTypeVariable(base) {
		return SolutionUnsolved
	}

	var memberType types.Type
	var ok bool
	if c.Kind == KindValueMember {
		memberType, ok = cs.universe.MemberType(base, c.Member)
	} else {
		memberType, ok = cs.universe.TypeMemberType(base, c.Member)
	}
	if !ok {
		return SolutionError
	}
	return cs.matchTypes(memberType, c.Second, KindEqual)
}

// simplifyApplicableFunction matches a function type built from an
// argument list against a callee type.
func (cs *ConstraintSystem) simplifyApplicableFunction(c *Constraint) SolutionKind {
	f1, ok := cs.SimplifyType(c.First).(types.Func)
	if !ok {
		return SolutionError
	}
	callee := types.RValueOf(cs.SimplifyType(c.Second))
	if types.HasTypeVariable(callee) {
		if _, isVar := types.IsTypeVariable(callee); isVar {
			return SolutionUnsolved
		}
	}
	f2, ok := callee.(types.Func)
	if !ok {
		return SolutionError
	}

	// Arguments convert to parameters; the result type is an exact match.
	in := cs.matchTypes(f1.Input, f2.Input, KindConversion)
	out := cs.matchTypes(f2.Result, f1.Result, KindBind)
	return worstOf(in, out)
}
