package solver

import (
	set "github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"

	"github.com/crestlang/crest/frontend/types"
	"github.com/crestlang/crest/util"
)

// TypeVariableConstraints summarises the active constraints that mention
// one type variable (representative).
type TypeVariableConstraints struct {
	TypeVar *types.TypeVar

	// FullyBound variables will be determined by solving other constraints
	// (an applicable-function left side, a member whose base is elsewhere);
	// binding them directly is pointless.
	FullyBound bool

	// HasNonConcreteConstraints is set when the variable is also referenced
	// from constraints that contribute no usable bound.
	HasNonConcreteConstraints bool

	// Above holds (constraint, type) upper bounds: the variable appears on
	// the left of a relational constraint.
	Above []util.Pair[*Constraint, types.Type]

	// Below holds (constraint, type) lower bounds.
	Below []util.Pair[*Constraint, types.Type]

	// Conforms holds the conformance constraints rooted at this variable.
	Conforms []*Constraint
}

// collectConstraintsForTypeVariables walks the active constraints once and
// produces a summary per type variable along with every top-level
// disjunction.
func (cs *ConstraintSystem) collectConstraintsForTypeVariables() ([]TypeVariableConstraints, []*Constraint) {
	var typeVarConstraints []TypeVariableConstraints
	var disjunctions []*Constraint

	indexOf := make(map[*types.TypeVar]int)
	getTVC := func(v *types.TypeVar) *TypeVariableConstraints {
		v = cs.Representative(v)
		idx, ok := indexOf[v]
		if !ok {
			idx = len(typeVarConstraints)
			indexOf[v] = idx
			typeVarConstraints = append(typeVarConstraints, TypeVariableConstraints{TypeVar: v})
		}
		return &typeVarConstraints[idx]
	}

	var referenced []*types.TypeVar
	reference := func(t types.Type) {
		referenced = append(referenced, types.TypeVariablesIn(t)...)
	}

	for constraint := range cs.constraints.items() {
		var first types.Type
		if constraint.Kind != KindConjunction && constraint.Kind != KindDisjunction {
			first = cs.SimplifyType(constraint.First)
		}

		switch constraint.Kind.Classify() {
		case ClassRelational:
			// Conformance constraints are stored separately.
			if constraint.Kind == KindConformsTo || constraint.Kind == KindSelfObjectOfProtocol {
				if firstTV, ok := types.IsTypeVariable(first); ok {
					tvc := getTVC(firstTV)
					tvc.Conforms = append(tvc.Conforms, constraint)
				}
				continue
			}

			if constraint.Kind == KindApplicableFunction {
				// Applicable-function constraints fully bind the type
				// variables on their left-hand side.
				for _, v := range types.TypeVariablesIn(first) {
					getTVC(v).FullyBound = true
				}
				reference(cs.SimplifyType(constraint.Second))
				continue
			}

			// The interesting case continues below.

		case ClassTypeProperty:
			if _, ok := types.IsTypeVariable(first); !ok {
				reference(first)
			}
			continue

		case ClassMember:
			baseVars := types.TypeVariablesIn(first)
			memberVars := types.TypeVariablesIn(cs.SimplifyType(constraint.Second))

			// A member whose base is determined elsewhere fully binds the
			// member type's variables.
			if !cs.typeVariablesIntersect(baseVars, memberVars) {
				for _, v := range memberVars {
					getTVC(v).FullyBound = true
				}
			} else {
				referenced = append(referenced, memberVars...)
			}
			continue

		case ClassConjunction:
			panic(errors.New("conjunction constraints should have been broken apart"))

		case ClassDisjunction:
			disjunctions = append(disjunctions, constraint)

			// Reference the variables of every nested constraint.
			for _, alternative := range constraint.Nested {
				inner := []*Constraint{alternative}
				if alternative.Kind == KindConjunction {
					inner = alternative.Nested
				}
				for _, c := range inner {
					if c.First != nil {
						reference(cs.SimplifyType(c.First))
					}
					if c.Second != nil {
						reference(cs.SimplifyType(c.Second))
					}
				}
			}
			continue
		}

		second := cs.SimplifyType(constraint.Second)

		firstTV, firstIsTV := types.IsTypeVariable(first)
		if firstIsTV {
			getTVC(firstTV).Above = append(getTVC(firstTV).Above, util.NewPair(constraint, second))
		} else {
			reference(first)
		}

		secondTV, secondIsTV := types.IsTypeVariable(second)
		if secondIsTV {
			getTVC(secondTV).Below = append(getTVC(secondTV).Below, util.NewPair(constraint, first))
		} else {
			reference(second)
		}

		if firstIsTV && secondIsTV {
			referenced = append(referenced, firstTV, secondTV)
		}
	}

	// Mark referenced variables as having non-concrete constraints.
	seen := set.New[*types.TypeVar](len(referenced))
	for _, v := range referenced {
		if !seen.Insert(v) {
			continue
		}
		if idx, ok := indexOf[cs.Representative(v)]; ok {
			typeVarConstraints[idx].HasNonConcreteConstraints = true
		}
	}

	return typeVarConstraints, disjunctions
}

// typeVariablesIntersect reports whether the two sets of variables share an
// equivalence class.
func (cs *ConstraintSystem) typeVariablesIntersect(vars1, vars2 []*types.TypeVar) bool {
	if len(vars1) == 0 || len(vars2) == 0 {
		return false
	}
	reps := set.New[*types.TypeVar](len(vars1))
	for _, v := range vars1 {
		reps.Insert(cs.Representative(v))
	}
	for _, v := range vars2 {
		if reps.Contains(cs.Representative(v)) {
			return true
		}
	}
	return false
}
