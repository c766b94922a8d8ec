package solver

import (
	set "github.com/hashicorp/go-set/v3"

	"github.com/crestlang/crest/frontend/types"
)

// potentialBinding is one candidate type for a variable. open marks generic
// literal defaults that must be instantiated with fresh variables before
// binding.
type potentialBinding struct {
	ty   types.Type
	open bool
}

// PotentialBindings is the ordered candidate list for one type variable.
type PotentialBindings struct {
	Bindings []potentialBinding

	// FullyBound carries over from the classifier summary.
	FullyBound bool

	// InvolvesTypeVariables is set when any candidate still mentions other
	// type variables, when a bound was refused by checkTypeOfBinding, or when
	// the summary has non-concrete constraints.
	InvolvesTypeVariables bool

	// HasLiteralBindings is set when any candidate came from a protocol's
	// default literal type.
	HasLiteralBindings bool
}

// less orders two binding sets by desirability: not fully bound first, then
// concrete over variable-involving, then non-literal, then more candidates.
func (b PotentialBindings) less(other PotentialBindings) bool {
	lhs := [3]bool{b.FullyBound, b.InvolvesTypeVariables, b.HasLiteralBindings}
	rhs := [3]bool{other.FullyBound, other.InvolvesTypeVariables, other.HasLiteralBindings}
	for i := range lhs {
		if lhs[i] != rhs[i] {
			return !lhs[i]
		}
	}
	return len(b.Bindings) > len(other.Bindings)
}

// checkTypeOfBinding checks whether t can be used as a binding for typeVar,
// returning the simplified type to bind when it can. A type that still
// references the variable is rejected, as is one whose rvalue is a bare
// type variable.
func (cs *ConstraintSystem) checkTypeOfBinding(typeVar *types.TypeVar, t types.Type) (types.Type, bool) {
	if t == nil {
		return nil, false
	}
	t = cs.SimplifyType(t)

	rep := cs.Representative(typeVar)
	for _, referenced := range types.TypeVariablesIn(t) {
		if cs.Representative(referenced) == rep {
			return nil, false
		}
	}

	if _, ok := types.IsTypeVariable(types.RValueOf(t)); ok {
		return nil, false
	}

	return t, true
}

// getPotentialBindings builds the ordered candidate list for one type
// variable from its bounds and its protocols' default literal types.
func (cs *ConstraintSystem) getPotentialBindings(tvc *TypeVariableConstraints) PotentialBindings {
	result := PotentialBindings{
		FullyBound:            tvc.FullyBound,
		InvolvesTypeVariables: tvc.HasNonConcreteConstraints,
	}

	exactTypes := set.New[uint64](len(tvc.Below) + len(tvc.Above))

	// Types below the variable.
	for _, arg := range tvc.Below {
		t, ok := cs.checkTypeOfBinding(tvc.TypeVar, arg.Snd)
		if !ok {
			// A recursive bound obviously involves type variables.
			result.InvolvesTypeVariables = true
			continue
		}
		if types.HasTypeVariable(t) {
			result.InvolvesTypeVariables = true
		}
		if exactTypes.Insert(t.Hash()) {
			result.Bindings = append(result.Bindings, potentialBinding{ty: t})
		}
	}

	// Types above the variable.
	for _, arg := range tvc.Above {
		t, ok := cs.checkTypeOfBinding(tvc.TypeVar, arg.Snd)
		if !ok {
			result.InvolvesTypeVariables = true
			continue
		}
		if types.HasTypeVariable(t) {
			result.InvolvesTypeVariables = true
		}

		// A conversion to a single-element non-variadic tuple binds to the
		// sole element type instead.
		switch arg.Fst.Kind {
		case KindConversion, KindSubtype, KindTrivialSubtype:
			if tuple, isTuple := t.(types.Tuple); isTuple {
				if len(tuple.Elems) == 1 && !tuple.Elems[0].Variadic {
					t = tuple.Elems[0].Type
				}
			}
		}

		if exactTypes.Insert(t.Hash()) {
			result.Bindings = append(result.Bindings, potentialBinding{ty: t})
		}
	}

	// Conformance to a literal protocol suggests the protocol's default
	// type.
	for _, constraint := range tvc.Conforms {
		t := cs.universe.DefaultType(constraint.Protocol)
		if t == nil {
			continue
		}

		if !cs.universe.IsUnspecializedGeneric(t) {
			if exactTypes.Insert(t.Hash()) {
				result.HasLiteralBindings = true
				result.Bindings = append(result.Bindings, potentialBinding{ty: t, open: true})
			}
			continue
		}

		// For a generic literal type, check whether the list already has a
		// specialization of the same declaration.
		head, _ := types.NominalHead(t)
		matched := false
		for _, existing := range result.Bindings {
			if existingHead, ok := types.NominalHead(existing.ty); ok && existingHead == head {
				matched = true
				break
			}
		}
		if !matched {
			result.HasLiteralBindings = true
			exactTypes.Insert(t.Hash())
			result.Bindings = append(result.Bindings, potentialBinding{ty: t, open: true})
		}
	}

	return result
}

// enumerateDirectSupertypes yields the direct supertypes of a concrete
// type, consulted only when no candidate binding admits a solution.
func (cs *ConstraintSystem) enumerateDirectSupertypes(t types.Type) []types.Type {
	var result []types.Type

	if tuple, ok := t.(types.Tuple); ok {
		// A tuple constructible from a scalar has that scalar type as a
		// supertype.
		if idx := tuple.ScalarElem(); idx >= 0 {
			elem := tuple.Elems[idx]
			if elem.Variadic {
				result = append(result, elem.Type)
			} else if elem.Label != "" {
				result = append(result, elem.Type)
			}
		}
	}

	if fn, ok := t.(types.Func); ok {
		// An auto-closure function type can be viewed as a scalar of its
		// result type.
		if fn.AutoClosure {
			result = append(result, fn.Result)
		}
	}

	if cs.universe.MayHaveSuperclass(t) {
		if superclass := cs.universe.SuperclassOf(t); superclass != nil {
			result = append(result, superclass)
		}
	}

	if lvalue, ok := t.(types.LValue); ok {
		if lvalue.Implicit {
			result = append(result, lvalue.Object)
		}
	}

	return result
}

// openBindingType instantiates an unspecialized generic literal type with
// fresh type variables; any other type is returned unchanged.
func (cs *ConstraintSystem) openBindingType(t types.Type) types.Type {
	if !cs.universe.IsUnspecializedGeneric(t) {
		return t
	}
	nominal := t.(types.Nominal)
	args := make([]types.Type, cs.universe.GenericArity(nominal.Name))
	for i := range args {
		args[i] = cs.NewTypeVariable("", false)
	}
	return types.Nominal{Name: nominal.Name, Args: args}
}

// tryTypeVariableBindings binds typeVar to each candidate in turn,
// recursing into the solver. When a round of candidates yields nothing, the
// first retry consults alternative literal types; other retries enumerate
// the direct supertypes of the previous round's candidates only. It returns
// true when no binding produced a solution.
func (cs *ConstraintSystem) tryTypeVariableBindings(
	tvc *TypeVariableConstraints,
	initial []potentialBinding,
	solutions *[]Solution,
	allowFree FreeTypeVariableBinding,
) bool {
	typeVar := tvc.TypeVar
	anySolved := false
	exploredTypes := set.New[uint64](len(initial))

	bindings := initial
	cs.solverState.local.NumTypeVariablesBound++

	for tryCount := 0; !anySolved && len(bindings) > 0; tryCount++ {
		cs.solverState.local.NumTypeVariableBindings++
		sawFirstLiteralConstraint := false
		for _, binding := range bindings {
			t := binding.ty

			// If the variable cannot bind to an l-value, neither can its
			// binding.
			if !typeVar.CanBindToLValue {
				t = types.RValueOf(t)
			}

			cs.debugLog("trying binding", "var", typeVar.String(), "type", t.String())

			scope := cs.newSolverScope()
			if binding.open {
				// Defaults are only worth trying when nothing else worked.
				if !sawFirstLiteralConstraint {
					sawFirstLiteralConstraint = true
					if anySolved {
						scope.exit()
						break
					}
				}
				t = cs.openBindingType(t)
			}

			bind := NewConstraint(KindBind, typeVar, t, nil)
			cs.AddConstraint(bind)
			cs.addGeneratedConstraint(bind)
			if !cs.solve(solutions, allowFree) {
				anySolved = true
			}
			scope.exit()
		}

		if anySolved {
			break
		}

		// No binding worked; grow the candidate set.
		var newBindings []potentialBinding

		if tryCount == 0 {
			for _, binding := range bindings {
				exploredTypes.Insert(binding.ty.Hash())
			}

			// Alternative literal types of the protocols this variable
			// must conform to, tried once.
			for _, constraint := range tvc.Conforms {
				proto := constraint.Protocol
				if cs.universe.DefaultType(proto) == nil {
					continue
				}
				for _, t := range cs.universe.AlternativeLiteralTypes(proto.Literal) {
					if exploredTypes.Insert(t.Hash()) {
						newBindings = append(newBindings, potentialBinding{ty: t, open: true})
					}
				}
			}

			if len(newBindings) > 0 {
				bindings = newBindings
				continue
			}
		}

		// Enumerate the supertypes of each of the types we tried.
		for _, binding := range bindings {
			for _, supertype := range cs.enumerateDirectSupertypes(binding.ty) {
				super, ok := cs.checkTypeOfBinding(typeVar, supertype)
				if !ok {
					continue
				}
				if exploredTypes.Insert(super.Hash()) {
					newBindings = append(newBindings, potentialBinding{ty: super})
				}
			}
		}

		if len(newBindings) == 0 {
			break
		}
		bindings = newBindings
	}

	return !anySolved
}
