package solver

import (
	set "github.com/hashicorp/go-set/v3"
)

// SolverScope is one transactional frame of the search tree. On entry it
// captures the prefixes of every journaled structure; exit restores them
// all. The active constraint list gets back exactly its former members, but
// restored constraints are appended at its end, so their positions in the
// list are not preserved.
//
// Scopes must be exited in reverse order of entry.
type SolverScope struct {
	cs *ConstraintSystem

	resolvedOverloads *ResolvedOverload
	numTypeVariables  int
	numSavedBindings  int
	firstRetired      *Constraint
	numRestrictions   int
	oldGenerated      *set.Set[*Constraint]
	generated         *set.Set[*Constraint]
	previousScore     Score

	cgScope CGScope
	hasCG   bool
}

func (cs *ConstraintSystem) newSolverScope() *SolverScope {
	state := cs.solverState
	state.depth++
	state.local.NumStatesExplored++

	s := &SolverScope{
		cs:                cs,
		resolvedOverloads: cs.resolvedOverloads,
		numTypeVariables:  len(cs.TypeVariables),
		numSavedBindings:  len(state.savedBindings),
		firstRetired:      state.retiredConstraints.front(),
		numRestrictions:   len(state.constraintRestrictions),
		oldGenerated:      state.generated,
		generated:         set.New[*Constraint](0),
		previousScore:     cs.CurrentScore,
	}
	state.generated = s.generated

	if cs.graph != nil {
		s.cgScope = cs.graph.NewScope()
		s.hasCG = true
	}
	return s
}

// exit unwinds every mutation made since the scope was entered.
func (s *SolverScope) exit() {
	cs := s.cs
	state := cs.solverState
	state.depth--

	cs.resolvedOverloads = s.resolvedOverloads
	cs.TypeVariables = cs.TypeVariables[:s.numTypeVariables]
	cs.restoreTypeVariableBindings(len(state.savedBindings) - s.numSavedBindings)

	// Add the retired constraints back into circulation.
	state.retiredConstraints.spliceFrontRangeTo(&cs.constraints, s.firstRetired)

	// Remove any constraints that were generated in this scope.
	if s.generated.Size() > 0 {
		for c := range cs.constraints.items() {
			if s.generated.Contains(c) {
				cs.constraints.remove(c)
			}
		}
	}

	state.constraintRestrictions = state.constraintRestrictions[:s.numRestrictions]
	state.generated = s.oldGenerated
	cs.CurrentScore = s.previousScore

	if s.hasCG {
		s.cgScope.rollback()
	}

	cs.failedConstraint = nil
}
