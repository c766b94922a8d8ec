package solver

import (
	"github.com/crestlang/crest/frontend/types"
	"github.com/crestlang/crest/util"
)

// typeVariables gathers every type variable mentioned anywhere in the
// constraint, including inside nested alternatives.
func (c *Constraint) typeVariables() []*types.TypeVar {
	var vars []*types.TypeVar
	seen := make(map[*types.TypeVar]struct{})
	add := func(t types.Type) {
		if t == nil {
			return
		}
		for _, v := range types.TypeVariablesIn(t) {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				vars = append(vars, v)
			}
		}
	}
	var walk func(c *Constraint)
	walk = func(c *Constraint) {
		add(c.First)
		add(c.Second)
		for _, nested := range c.Nested {
			walk(nested)
		}
	}
	walk(c)
	return vars
}

// cgEvent is one journaled adjacency change, undone in reverse on scope
// exit.
type cgEvent struct {
	c     *Constraint
	vars  []*types.TypeVar
	added bool
}

// ConstraintGraph maintains the bipartite adjacency between type variables
// and the constraints mentioning them. All changes are journaled so a
// CGScope can rewind them.
type ConstraintGraph struct {
	cs        *ConstraintSystem
	adjacency map[*types.TypeVar][]*Constraint
	edges     map[*Constraint][]*types.TypeVar
	journal   util.Stack[cgEvent]
}

func NewConstraintGraph(cs *ConstraintSystem) *ConstraintGraph {
	return &ConstraintGraph{
		cs:        cs,
		adjacency: make(map[*types.TypeVar][]*Constraint),
		edges:     make(map[*Constraint][]*types.TypeVar),
	}
}

func (g *ConstraintGraph) attach(c *Constraint, vars []*types.TypeVar) {
	g.edges[c] = vars
	for _, v := range vars {
		g.adjacency[v] = append(g.adjacency[v], c)
	}
}

func (g *ConstraintGraph) detach(c *Constraint) {
	for _, v := range g.edges[c] {
		adj := g.adjacency[v]
		for i, other := range adj {
			if other == c {
				g.adjacency[v] = append(adj[:i:i], adj[i+1:]...)
				break
			}
		}
	}
	delete(g.edges, c)
}

// AddConstraint records c's adjacency edges.
func (g *ConstraintGraph) AddConstraint(c *Constraint) {
	vars := c.typeVariables()
	g.attach(c, vars)
	g.journal.Push(cgEvent{c: c, vars: vars, added: true})
}

// RemoveConstraint removes c's adjacency edges.
func (g *ConstraintGraph) RemoveConstraint(c *Constraint) {
	vars := g.edges[c]
	g.detach(c)
	g.journal.Push(cgEvent{c: c, vars: vars, added: false})
}

// adjacentConstraints returns the constraints recorded against v itself,
// without widening to its equivalence class.
func (g *ConstraintGraph) adjacentConstraints(v *types.TypeVar) []*Constraint {
	return g.adjacency[v]
}

// ConstraintsFor returns the constraints adjacent to v.
func (g *ConstraintGraph) ConstraintsFor(v *types.TypeVar) []*Constraint {
	rep := g.cs.Representative(v)
	var out []*Constraint
	for u, cons := range g.adjacency {
		if g.cs.Representative(u) != rep {
			continue
		}
		out = append(out, cons...)
	}
	return out
}

// rollbackTo undoes journaled events down to the given mark, in reverse.
func (g *ConstraintGraph) rollbackTo(mark int) {
	for g.journal.Len() > mark {
		ev, _ := g.journal.Pop()
		if ev.added {
			g.detach(ev.c)
		} else {
			g.attach(ev.c, ev.vars)
		}
	}
}

// CGScope rewinds graph changes on scope exit, in step with SolverScope.
type CGScope struct {
	graph *ConstraintGraph
	mark  int
}

func (g *ConstraintGraph) NewScope() CGScope {
	return CGScope{graph: g, mark: g.journal.Len()}
}

func (s CGScope) rollback() {
	s.graph.rollbackTo(s.mark)
}

// ComputeConnectedComponents groups the given type variables by
// connectivity through active constraints (and through equivalence-class
// merges). Only variables adjacent to at least one active constraint, or
// merged into the equivalence class of such a variable, receive a component;
// the rest are absent from the result.
func (g *ConstraintGraph) ComputeConnectedComponents(vars []*types.TypeVar) (map[*types.TypeVar]int, int) {
	index := make(map[*types.TypeVar]int, len(vars))
	for i, v := range vars {
		index[v] = i
	}

	parent := make([]int, len(vars))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			parent[rj] = ri
		}
	}

	// Merged equivalence classes always share a component.
	for _, v := range vars {
		rep := g.cs.Representative(v)
		if rep != v {
			if j, ok := index[rep]; ok {
				union(index[v], j)
			}
		}
	}

	// Variables mentioned by the same active constraint share a component.
	involved := make([]bool, len(vars))
	for c := range g.cs.constraints.items() {
		var first = -1
		for _, v := range g.edges[c] {
			i, ok := index[v]
			if !ok {
				continue
			}
			involved[i] = true
			if first == -1 {
				first = i
			} else {
				union(first, i)
			}
		}
	}
	for i := range vars {
		if involved[i] {
			involved[find(i)] = true
		}
	}

	components := make(map[*types.TypeVar]int)
	componentOf := make(map[int]int)
	numComponents := 0
	for i, v := range vars {
		root := find(i)
		if !involved[root] {
			continue
		}
		id, ok := componentOf[root]
		if !ok {
			id = numComponents
			componentOf[root] = id
			numComponents++
		}
		components[v] = id
	}
	return components, numComponents
}
