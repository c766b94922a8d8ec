package solver

import (
	"github.com/benbjohnson/immutable"
	"github.com/pkg/errors"

	"github.com/crestlang/crest/frontend/types"
	set "github.com/hashicorp/go-set/v3"
)

// FreeTypeVariableBinding controls what happens to type variables that are
// still unbound when a solution is recorded.
type FreeTypeVariableBinding int

const (
	// FreeTypeVariablesDisallowed rejects partial solutions; reaching
	// finalize with a free variable is an invariant violation.
	FreeTypeVariablesDisallowed FreeTypeVariableBinding = iota
	// FreeTypeVariablesAllowed leaves free variables in the solution.
	FreeTypeVariablesAllowed
	// FreeTypeVariablesBindToGenericParameters binds each free variable to
	// a fresh generic parameter.
	FreeTypeVariablesBindToGenericParameters
)

// ResolvedOverloadChoice is the per-locator payload of a solved overload
// set.
type ResolvedOverloadChoice struct {
	Choice         OverloadChoice
	OpenedFullType types.Type
	OpenedType     types.Type
}

// RestrictionKey identifies a pair of canonical types in the restriction
// table.
type RestrictionKey struct {
	First  uint64
	Second uint64
}

type typeVarHasher struct{}

func (typeVarHasher) Hash(v *types.TypeVar) uint32 { return uint32(v.Hash()) }
func (typeVarHasher) Equal(a, b *types.TypeVar) bool { return a == b }

type locatorHasher struct{}

func (locatorHasher) Hash(l *Locator) uint32 {
	h := uint32(2166136261)
	for _, r := range l.Anchor {
		h = (h ^ uint32(r)) * 16777619
	}
	for _, e := range l.Path {
		h = (h ^ uint32(e.Kind)) * 16777619
		h = (h ^ uint32(e.Index)) * 16777619
	}
	return h
}
func (locatorHasher) Equal(a, b *Locator) bool { return a == b }

type restrictionKeyHasher struct{}

func (restrictionKeyHasher) Hash(k RestrictionKey) uint32 {
	return uint32(k.First*31 ^ k.Second)
}
func (restrictionKeyHasher) Equal(a, b RestrictionKey) bool { return a == b }

// Solution is the immutable snapshot exported by a successful leaf of the
// search: a binding for every type variable, a choice for every overload
// set, and the conversion restrictions that were applied.
type Solution struct {
	TypeBindings    *immutable.Map[*types.TypeVar, types.Type]
	OverloadChoices *immutable.Map[*Locator, ResolvedOverloadChoice]
	Restrictions    *immutable.Map[RestrictionKey, RestrictionEntry]
	Score           Score
}

// finalize materializes a Solution from the current state and updates the
// best known score.
func (cs *ConstraintSystem) finalize(allowFree FreeTypeVariableBinding) Solution {
	solution := Solution{Score: cs.CurrentScore}

	if cs.solverState != nil {
		if best := cs.solverState.BestScore; best != nil && best.Less(cs.CurrentScore) {
			panic(errors.New("finalizing a solution worse than the best recorded"))
		}
		score := cs.CurrentScore
		cs.solverState.BestScore = &score
	}

	// Bind any remaining free type variables per the relaxation mode.
	index := 0
	for _, v := range cs.TypeVariables {
		if cs.FixedType(v) != nil {
			continue
		}
		switch allowFree {
		case FreeTypeVariablesDisallowed:
			panic(errors.Errorf("solver left free type variable %s", v))

		case FreeTypeVariablesAllowed:
			// Leave it free.

		case FreeTypeVariablesBindToGenericParameters:
			cs.AssignFixedType(v, types.GenericParam{Depth: 0, Index: index}, false)
			index++
		}
	}

	typeBindings := immutable.NewMap[*types.TypeVar, types.Type](typeVarHasher{})
	for _, v := range cs.TypeVariables {
		typeBindings = typeBindings.Set(v, cs.SimplifyType(v))
	}
	solution.TypeBindings = typeBindings

	overloadChoices := immutable.NewMap[*Locator, ResolvedOverloadChoice](locatorHasher{})
	for resolved := cs.resolvedOverloads; resolved != nil; resolved = resolved.Previous {
		overloadChoices = overloadChoices.Set(resolved.Locator, ResolvedOverloadChoice{
			Choice:         resolved.Choice,
			OpenedFullType: resolved.OpenedFullType,
			OpenedType:     resolved.OpenedType,
		})
	}
	solution.OverloadChoices = overloadChoices

	// Record restrictions under simplified, canonical keys.
	restrictions := immutable.NewMap[RestrictionKey, RestrictionEntry](restrictionKeyHasher{})
	if cs.solverState != nil {
		for _, entry := range cs.solverState.constraintRestrictions {
			first := cs.SimplifyType(entry.First)
			second := cs.SimplifyType(entry.Second)
			key := RestrictionKey{First: first.Hash(), Second: second.Hash()}
			restrictions = restrictions.Set(key, RestrictionEntry{First: first, Second: second, Kind: entry.Kind})
		}
	}
	solution.Restrictions = restrictions

	return solution
}

// applySolution replays a (partial) solution into the current state.
func (cs *ConstraintSystem) applySolution(solution Solution) {
	cs.CurrentScore = cs.CurrentScore.Add(solution.Score)

	known := set.New[*types.TypeVar](len(cs.TypeVariables))
	for _, v := range cs.TypeVariables {
		known.Insert(v)
	}

	for itr := solution.TypeBindings.Iterator(); !itr.Done(); {
		v, t, _ := itr.Next()
		if known.Insert(v) {
			cs.addTypeVariable(v)
		}
		if cs.FixedType(v) == nil && !types.HasTypeVariable(t) {
			cs.AssignFixedType(v, t, false)
		}
	}

	for itr := solution.OverloadChoices.Iterator(); !itr.Done(); {
		locator, choice, _ := itr.Next()
		cs.ResolveOverload(locator, choice.Choice, choice.OpenedFullType, choice.OpenedType)
	}

	for itr := solution.Restrictions.Iterator(); !itr.Done(); {
		_, entry, _ := itr.Next()
		cs.recordRestriction(entry.First, entry.Second, entry.Kind)
	}
}

// findBestSolution returns the index of the solution with the uniquely
// smallest score. The second result is false when the set is empty or no
// single solution wins.
func findBestSolution(solutions []Solution, minimize bool) (int, bool) {
	_ = minimize
	if len(solutions) == 0 {
		return 0, false
	}
	best := 0
	for i := 1; i < len(solutions); i++ {
		if solutions[i].Score.Less(solutions[best].Score) {
			best = i
		}
	}
	for i := range solutions {
		if i != best && !solutions[best].Score.Less(solutions[i].Score) {
			return 0, false
		}
	}
	return best, true
}

// minimalSolutions filters a solution set down to the ones sharing the
// smallest score, preserving order.
func minimalSolutions(solutions []Solution) []Solution {
	if len(solutions) < 2 {
		return solutions
	}
	min := solutions[0].Score
	for _, s := range solutions[1:] {
		if s.Score.Less(min) {
			min = s.Score
		}
	}
	var out []Solution
	for _, s := range solutions {
		if !min.Less(s.Score) {
			out = append(out, s)
		}
	}
	return out
}
