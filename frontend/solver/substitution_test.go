package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestlang/crest/frontend/types"
)

func TestRepresentativeAndMerge(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	v1 := cs.NewTypeVariable("b", false)
	v2 := cs.NewTypeVariable("c", false)

	assert.Same(t, v0, cs.Representative(v0))

	cs.mergeEquivalenceClasses(v0, v1)
	assert.Same(t, v0, cs.Representative(v1))

	// Merging transitively re-roots the whole class.
	cs.mergeEquivalenceClasses(v2, v0)
	assert.Same(t, v2, cs.Representative(v0))
	assert.Same(t, v2, cs.Representative(v1))
}

func TestAssignFixedTypeAndSimplify(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	v1 := cs.NewTypeVariable("b", false)

	cs.AssignFixedType(v1, intT, false)
	require.NotNil(t, cs.FixedType(v1))

	// Fixed types substitute recursively: v0 := (v1) -> v1 simplifies all
	// the way down to Int.
	cs.AssignFixedType(v0, types.Func{Input: v1, Result: v1}, false)
	got := cs.SimplifyType(v0)
	want := types.Func{Input: intT, Result: intT}
	assert.True(t, types.Equal(want, got), "got %s", got)

	// Merged variables resolve through their representative's binding.
	v2 := cs.NewTypeVariable("c", false)
	v3 := cs.NewTypeVariable("d", false)
	cs.mergeEquivalenceClasses(v2, v3)
	cs.AssignFixedType(v3, stringT, false)
	assert.True(t, types.Equal(stringT, cs.SimplifyType(v3)))
	assert.True(t, types.Equal(stringT, cs.SimplifyType(v2)))
}

func TestSimplifyTypeIsFixedPoint(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	cs.AssignFixedType(v0, tupleOf(types.TupleElem{Type: intT}), false)

	once := cs.SimplifyType(v0)
	twice := cs.SimplifyType(once)
	assert.True(t, types.Equal(once, twice))
	assert.False(t, types.HasTypeVariable(once))
}

func TestSavedBindingsRestoreInReverse(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)

	cs.solverState = newSolverState(cs)
	defer func() {
		cs.solverState.teardown()
		cs.solverState = nil
	}()

	cs.AssignFixedType(v0, intT, false)
	cs.AssignFixedType(v0, doubleT, false)
	require.Len(t, cs.solverState.savedBindings, 2)

	// Undoing one step exposes the intermediate state, not the original.
	cs.restoreTypeVariableBindings(1)
	assert.True(t, types.Equal(intT, cs.FixedType(v0)))

	cs.restoreTypeVariableBindings(1)
	assert.Nil(t, cs.FixedType(v0))
	assert.Empty(t, cs.solverState.savedBindings)
}
