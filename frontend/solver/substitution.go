package solver

import (
	"github.com/crestlang/crest/frontend/types"
	"github.com/crestlang/crest/util"
)

// varState is the mutable half of a type variable: its union-find parent
// (nil while the variable is its own representative) and its fixed type, if
// one has been chosen.
type varState struct {
	parent *types.TypeVar
	fixed  types.Type
}

// SavedBinding remembers the prior state of one variable so a scope can
// undo a mutation. Records are appended to the journal and re-applied in
// reverse.
type SavedBinding struct {
	v      *types.TypeVar
	parent *types.TypeVar
	fixed  types.Type
}

func (b SavedBinding) restore(cs *ConstraintSystem) {
	st := cs.varStates[b.v]
	st.parent = b.parent
	st.fixed = b.fixed
}

// recordBinding journals v's current state before a mutation. Mutations
// made outside of solving are permanent and need no journal.
func (cs *ConstraintSystem) recordBinding(v *types.TypeVar) {
	if cs.solverState == nil {
		return
	}
	st := cs.varStates[v]
	cs.solverState.savedBindings = append(cs.solverState.savedBindings,
		SavedBinding{v: v, parent: st.parent, fixed: st.fixed})
}

// Representative returns the union-find root of v's equivalence class. Two
// variables with the same representative are interchangeable.
func (cs *ConstraintSystem) Representative(v *types.TypeVar) *types.TypeVar {
	for {
		st := cs.varStates[v]
		if st == nil || st.parent == nil {
			return v
		}
		v = st.parent
	}
}

// mergeEquivalenceClasses makes v1 and v2 interchangeable. The second
// class's representative is journaled and re-parented under the first's.
func (cs *ConstraintSystem) mergeEquivalenceClasses(v1, v2 *types.TypeVar) {
	rep1, rep2 := cs.Representative(v1), cs.Representative(v2)
	if rep1 == rep2 {
		return
	}
	cs.recordBinding(rep2)
	cs.varStates[rep2].parent = rep1
	cs.addTypeVariableConstraintsToWorkList(rep1)
}

// FixedType returns the concrete type v's class is bound to, or nil.
func (cs *ConstraintSystem) FixedType(v *types.TypeVar) types.Type {
	return cs.varStates[cs.Representative(v)].fixed
}

// AssignFixedType binds v's class to type t. The journal records the prior
// state. The simplifier passes updateScore=true so that penalty-carrying
// bindings can be charged; solution replay passes false because the
// applied solution already carries its score.
func (cs *ConstraintSystem) AssignFixedType(v *types.TypeVar, t types.Type, updateScore bool) {
	rep := cs.Representative(v)
	cs.recordBinding(rep)
	cs.varStates[rep].fixed = t

	if updateScore {
		if _, ok := t.(types.LValue); ok && v.CanBindToLValue {
			cs.increaseScore(SKUserConversion)
		}
	}

	cs.addTypeVariableConstraintsToWorkList(rep)
}

// SimplifyType substitutes every bound variable in t by its fixed type,
// recursively, and replaces merged variables by their representative. The
// result is a fixed point under further substitution.
func (cs *ConstraintSystem) SimplifyType(t types.Type) types.Type {
	return types.Transform(t, func(n types.Type) types.Type {
		v, ok := n.(*types.TypeVar)
		if !ok {
			return nil
		}
		rep := cs.Representative(v)
		if st := cs.varStates[rep]; st.fixed != nil {
			return cs.SimplifyType(st.fixed)
		}
		return rep
	})
}

// restoreTypeVariableBindings re-applies the last n saved bindings in
// reverse and truncates the journal.
func (cs *ConstraintSystem) restoreTypeVariableBindings(n int) {
	saved := cs.solverState.savedBindings
	for b := range util.Reverse(saved[len(saved)-n:]) {
		b.restore(cs)
	}
	cs.solverState.savedBindings = saved[:len(saved)-n]
}
