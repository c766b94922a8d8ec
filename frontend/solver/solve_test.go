package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestlang/crest/frontend/types"
)

func bindingOf(t *testing.T, solution Solution, v *types.TypeVar) types.Type {
	t.Helper()
	ty, ok := solution.TypeBindings.Get(v)
	require.True(t, ok, "no binding for %s", v)
	return ty
}

func TestSolveSimpleLowerBound(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	cs.AddConstraint(NewConstraint(KindSubtype, intT, v0, nil))

	var solutions []Solution
	failed := cs.Solve(&solutions, FreeTypeVariablesDisallowed)

	require.False(t, failed)
	require.Len(t, solutions, 1)
	assert.True(t, types.Equal(intT, bindingOf(t, solutions[0], v0)))
	assert.True(t, solutions[0].Score.IsZero())
}

func TestSolveLiteralDefault(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	cs.AddConstraint(NewConformsConstraint(KindConformsTo, v0, protoIntLiteral, nil))

	var solutions []Solution
	failed := cs.Solve(&solutions, FreeTypeVariablesDisallowed)

	require.False(t, failed)
	require.Len(t, solutions, 1)
	assert.True(t, types.Equal(intT, bindingOf(t, solutions[0], v0)))
}

func TestSolveIndependentComponents(t *testing.T) {
	overallBefore, _, _, _ := ReadStatistics()

	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	v1 := cs.NewTypeVariable("b", false)
	cs.AddConstraint(NewConstraint(KindSubtype, intT, v0, nil))
	cs.AddConstraint(NewConstraint(KindSubtype, stringT, v1, nil))

	var solutions []Solution
	failed := cs.Solve(&solutions, FreeTypeVariablesDisallowed)

	require.False(t, failed)
	require.Len(t, solutions, 1)
	assert.True(t, types.Equal(intT, bindingOf(t, solutions[0], v0)))
	assert.True(t, types.Equal(stringT, bindingOf(t, solutions[0], v1)))

	// The driver split the system into two components.
	overallAfter, _, _, _ := ReadStatistics()
	assert.GreaterOrEqual(t, overallAfter.NumComponentsSplit, overallBefore.NumComponentsSplit+2)
}

func TestSolveDisjunctionChoice(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	cs.AddConstraint(NewDisjunction([]*Constraint{
		NewConstraint(KindEqual, v0, intT, nil),
		NewConstraint(KindEqual, v0, doubleT, nil),
	}, nil))
	cs.AddConstraint(NewConstraint(KindSubtype, intT, v0, nil))

	var solutions []Solution
	failed := cs.Solve(&solutions, FreeTypeVariablesDisallowed)

	require.False(t, failed)
	require.Len(t, solutions, 1)
	assert.True(t, types.Equal(intT, bindingOf(t, solutions[0], v0)))
}

func TestSolveSupertypeFallback(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("obj", false)
	v1 := cs.NewTypeVariable("member", false)

	// The lower bound suggests Derived, but only Base has the member, so
	// the supertype walk must find Base.
	cs.AddConstraint(NewConstraint(KindSubtype, derived, v0, nil))
	cs.AddConstraint(NewMemberConstraint(KindValueMember, v0, "name", v1, nil))

	var solutions []Solution
	failed := cs.Solve(&solutions, FreeTypeVariablesDisallowed)

	require.False(t, failed)
	require.Len(t, solutions, 1)
	assert.True(t, types.Equal(baseT, bindingOf(t, solutions[0], v0)))
	assert.True(t, types.Equal(stringT, bindingOf(t, solutions[0], v1)))
}

func TestSolveAmbiguity(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	cs.AddConstraint(NewDisjunction([]*Constraint{
		NewConstraint(KindEqual, v0, intT, nil),
		NewConstraint(KindEqual, v0, stringT, nil),
	}, nil))

	var solutions []Solution
	failed := cs.Solve(&solutions, FreeTypeVariablesDisallowed)

	// Two equally-scored solutions: failure, both reported for
	// diagnostics.
	assert.True(t, failed)
	assert.Len(t, solutions, 2)
}

func TestSolveLiteralAlternativeFallback(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("lit", false)
	v1 := cs.NewTypeVariable("member", false)

	// The default Int has no magnitude; the alternative Double does.
	cs.AddConstraint(NewConformsConstraint(KindConformsTo, v0, protoIntLiteral, nil))
	cs.AddConstraint(NewMemberConstraint(KindValueMember, v0, "magnitude", v1, nil))

	var solutions []Solution
	failed := cs.Solve(&solutions, FreeTypeVariablesDisallowed)

	require.False(t, failed)
	require.Len(t, solutions, 1)
	assert.True(t, types.Equal(doubleT, bindingOf(t, solutions[0], v0)))
}

func TestSolveConversionScoreAndRestrictions(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("obj", false)
	v1 := cs.NewTypeVariable("member", false)

	cs.AddConstraint(NewConstraint(KindConversion, derived, v0, nil))
	cs.AddConstraint(NewMemberConstraint(KindValueMember, v0, "name", v1, nil))

	var solutions []Solution
	failed := cs.Solve(&solutions, FreeTypeVariablesDisallowed)

	require.False(t, failed)
	require.Len(t, solutions, 1)
	solution := solutions[0]

	// Converting Derived up to Base costs one user conversion and records
	// the superclass restriction under canonical keys.
	assert.Equal(t, Score{SKUserConversion: 1}, solution.Score)
	key := RestrictionKey{First: derived.Hash(), Second: baseT.Hash()}
	entry, ok := solution.Restrictions.Get(key)
	require.True(t, ok)
	assert.Equal(t, RestrictionSuperclass, entry.Kind)
}

func TestSolveOverconstrainedFails(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	cs.AddConstraint(NewConstraint(KindSubtype, intT, v0, nil))
	cs.AddConstraint(NewConstraint(KindEqual, v0, stringT, nil))

	var solutions []Solution
	failed := cs.Solve(&solutions, FreeTypeVariablesDisallowed)

	assert.True(t, failed)
	assert.Empty(t, solutions)
}

func TestSolveFreeVariables(t *testing.T) {
	proto := &types.Protocol{Name: "Unfulfillable"}

	t.Run("disallowed", func(t *testing.T) {
		cs := newTestSystem()
		v0 := cs.NewTypeVariable("a", false)
		cs.AddConstraint(NewConformsConstraint(KindConformsTo, v0, proto, nil))

		var solutions []Solution
		assert.True(t, cs.Solve(&solutions, FreeTypeVariablesDisallowed))
		assert.Empty(t, solutions)
	})

	t.Run("allowed leaves the variable free", func(t *testing.T) {
		cs := newTestSystem()
		v0 := cs.NewTypeVariable("a", false)
		cs.AddConstraint(NewConformsConstraint(KindConformsTo, v0, proto, nil))

		var solutions []Solution
		require.False(t, cs.Solve(&solutions, FreeTypeVariablesAllowed))
		require.Len(t, solutions, 1)
		_, isVar := types.IsTypeVariable(bindingOf(t, solutions[0], v0))
		assert.True(t, isVar)
	})

	t.Run("generic parameters bind free variables", func(t *testing.T) {
		cs := newTestSystem()
		v0 := cs.NewTypeVariable("a", false)
		cs.AddConstraint(NewConformsConstraint(KindConformsTo, v0, proto, nil))

		var solutions []Solution
		require.False(t, cs.Solve(&solutions, FreeTypeVariablesBindToGenericParameters))
		require.Len(t, solutions, 1)
		got := bindingOf(t, solutions[0], v0)
		assert.True(t, types.Equal(types.GenericParam{Depth: 0, Index: 0}, got))
	})

	t.Run("non-conformance residue still fails", func(t *testing.T) {
		cs := newTestSystem()
		v0 := cs.NewTypeVariable("a", false)
		v1 := cs.NewTypeVariable("b", false)
		cs.AddConstraint(NewConformsConstraint(KindConformsTo, v0, proto, nil))
		// A value-member residual is not a legal leftover.
		cs.AddConstraint(NewMemberConstraint(KindValueMember, v1, "name", types.Func{Input: v1, Result: v1}, nil))

		var solutions []Solution
		assert.True(t, cs.Solve(&solutions, FreeTypeVariablesAllowed))
	})
}

func TestSolveWithoutGraphMatches(t *testing.T) {
	cs := NewConstraintSystem(testUniverse(), WithoutGraph())
	v0 := cs.NewTypeVariable("a", false)
	v1 := cs.NewTypeVariable("b", false)
	cs.AddConstraint(NewConstraint(KindSubtype, intT, v0, nil))
	cs.AddConstraint(NewConstraint(KindSubtype, stringT, v1, nil))

	var solutions []Solution
	failed := cs.Solve(&solutions, FreeTypeVariablesDisallowed)

	require.False(t, failed)
	require.Len(t, solutions, 1)
	assert.True(t, types.Equal(intT, bindingOf(t, solutions[0], v0)))
	assert.True(t, types.Equal(stringT, bindingOf(t, solutions[0], v1)))
}

func TestSolveTupleToTupleShortCircuit(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)

	// Both alternatives are viable; the first carries the tuple-to-tuple
	// restriction, so the second is never attempted and no ambiguity
	// arises.
	cs.AddConstraint(NewDisjunction([]*Constraint{
		NewRestrictedConstraint(KindEqual, v0, intT, RestrictionTupleToTuple, nil),
		NewConstraint(KindEqual, v0, doubleT, nil),
	}, nil))

	var solutions []Solution
	failed := cs.Solve(&solutions, FreeTypeVariablesDisallowed)

	require.False(t, failed)
	require.Len(t, solutions, 1)
	assert.True(t, types.Equal(intT, bindingOf(t, solutions[0], v0)))
}

func TestSolveOptionalToOptionalSkippedOnceSolved(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)

	cs.AddConstraint(NewDisjunction([]*Constraint{
		NewConstraint(KindEqual, v0, intT, nil),
		NewRestrictedConstraint(KindEqual, v0, doubleT, RestrictionOptionalToOptional, nil),
	}, nil))

	var solutions []Solution
	failed := cs.Solve(&solutions, FreeTypeVariablesDisallowed)

	require.False(t, failed)
	require.Len(t, solutions, 1)
	assert.True(t, types.Equal(intT, bindingOf(t, solutions[0], v0)))
}

func TestSolveInterpolationArgumentShortCircuit(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)

	locator := &Locator{Anchor: "interp", Path: []LocatorPathElem{{Kind: PathInterpolationArgument}}}
	cs.AddConstraint(NewDisjunction([]*Constraint{
		NewConstraint(KindConversion, intT, v0, nil),
		NewConstraint(KindEqual, v0, doubleT, nil),
	}, locator))

	var solutions []Solution
	failed := cs.Solve(&solutions, FreeTypeVariablesDisallowed)

	require.False(t, failed)
	require.Len(t, solutions, 1)
	assert.True(t, types.Equal(intT, bindingOf(t, solutions[0], v0)))
}

func TestSolveRestoresSystemOnFailure(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	cs.AddConstraint(NewConstraint(KindSubtype, intT, v0, nil))
	cs.AddConstraint(NewConformsConstraint(KindConformsTo, v0, protoStrLiteral, nil))

	before := snapshot(cs)

	var solutions []Solution
	require.True(t, cs.Solve(&solutions, FreeTypeVariablesDisallowed))
	assert.Empty(t, solutions)

	assertSnapshotEqual(t, before, snapshot(cs))
	assert.Nil(t, cs.solverState)
}

func TestSimplifyIsIdempotent(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	c := NewConstraint(KindSubtype, intT, v0, nil)
	cs.AddConstraint(c)

	cs.solverState = newSolverState(cs)
	defer func() {
		cs.solverState.teardown()
		cs.solverState = nil
	}()

	cs.activateConstraint(c)
	require.False(t, cs.simplify())
	worked := cs.solverState.local.NumSimplifiedConstraints + cs.solverState.local.NumUnsimplifiedConstraints

	// With no intervening mutation, a second pass does no work.
	require.False(t, cs.simplify())
	assert.Equal(t, worked, cs.solverState.local.NumSimplifiedConstraints+cs.solverState.local.NumUnsimplifiedConstraints)
	assert.Empty(t, cs.worklist)
}

func TestSolveOverloadChoicesSurvive(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	locator := &Locator{Anchor: "call"}
	cs.ResolveOverload(locator, OverloadChoice{Name: "f", Index: 2}, nil, intT)
	cs.AddConstraint(NewConstraint(KindSubtype, intT, v0, nil))

	var solutions []Solution
	require.False(t, cs.Solve(&solutions, FreeTypeVariablesDisallowed))
	require.Len(t, solutions, 1)

	choice, ok := solutions[0].OverloadChoices.Get(locator)
	require.True(t, ok)
	assert.Equal(t, "f", choice.Choice.Name)
	assert.Equal(t, 2, choice.Choice.Index)
}

func TestStatisticsAdvance(t *testing.T) {
	_, _, attemptsBefore, _ := ReadStatistics()

	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	cs.AddConstraint(NewConstraint(KindSubtype, intT, v0, nil))
	var solutions []Solution
	require.False(t, cs.Solve(&solutions, FreeTypeVariablesDisallowed))

	overall, _, attemptsAfter, _ := ReadStatistics()
	assert.Equal(t, attemptsBefore+1, attemptsAfter)
	assert.NotZero(t, overall.NumStatesExplored)
}
