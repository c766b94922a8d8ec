package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphAdjacency(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	v1 := cs.NewTypeVariable("b", false)

	c := NewConstraint(KindSubtype, v0, v1, nil)
	cs.AddConstraint(c)

	assert.Contains(t, cs.graph.adjacentConstraints(v0), c)
	assert.Contains(t, cs.graph.adjacentConstraints(v1), c)

	cs.graph.RemoveConstraint(c)
	assert.Empty(t, cs.graph.adjacentConstraints(v0))
}

func TestGraphScopeRollback(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	v1 := cs.NewTypeVariable("b", false)

	before := NewConstraint(KindSubtype, v0, v1, nil)
	cs.AddConstraint(before)

	scope := cs.graph.NewScope()

	added := NewConstraint(KindSubtype, intT, v0, nil)
	cs.graph.AddConstraint(added)
	cs.graph.RemoveConstraint(before)

	scope.rollback()

	// Pre-scope edges are back, in-scope edges are gone.
	assert.Contains(t, cs.graph.adjacentConstraints(v0), before)
	assert.NotContains(t, cs.graph.adjacentConstraints(v0), added)
	assert.Contains(t, cs.graph.adjacentConstraints(v1), before)
}

func TestConnectedComponents(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	v1 := cs.NewTypeVariable("b", false)
	v2 := cs.NewTypeVariable("c", false)
	free := cs.NewTypeVariable("free", false)

	// v0-v1 are linked by one constraint; v2 stands alone with its own.
	cs.AddConstraint(NewConstraint(KindSubtype, v0, v1, nil))
	cs.AddConstraint(NewConstraint(KindSubtype, intT, v2, nil))

	components, num := cs.graph.ComputeConnectedComponents(cs.TypeVariables)
	assert.Equal(t, 2, num)

	require.Contains(t, components, v0)
	require.Contains(t, components, v1)
	require.Contains(t, components, v2)
	assert.Equal(t, components[v0], components[v1])
	assert.NotEqual(t, components[v0], components[v2])

	// A variable with no constraints belongs to no component.
	assert.NotContains(t, components, free)
}

func TestConnectedComponentsMergedClasses(t *testing.T) {
	cs := newTestSystem()
	v0 := cs.NewTypeVariable("a", false)
	v1 := cs.NewTypeVariable("b", false)

	cs.AddConstraint(NewConstraint(KindSubtype, intT, v0, nil))
	cs.AddConstraint(NewConstraint(KindSubtype, stringT, v1, nil))

	components, num := cs.graph.ComputeConnectedComponents(cs.TypeVariables)
	require.Equal(t, 2, num)
	assert.NotEqual(t, components[v0], components[v1])

	// Merging the classes collapses the two components into one.
	cs.mergeEquivalenceClasses(v0, v1)
	components, num = cs.graph.ComputeConnectedComponents(cs.TypeVariables)
	assert.Equal(t, 1, num)
	assert.Equal(t, components[v0], components[v1])
}
