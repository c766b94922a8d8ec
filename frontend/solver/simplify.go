package solver

import (
	set "github.com/hashicorp/go-set/v3"
)

// SolutionKind is the simplifier's verdict on one constraint.
type SolutionKind int

const (
	// SolutionError means the constraint cannot hold under the current
	// substitution.
	SolutionError SolutionKind = iota
	// SolutionSolved means the constraint holds and can be retired.
	SolutionSolved
	// SolutionUnsolved means no verdict yet; the constraint stays active.
	SolutionUnsolved
)

// simplify drives the active constraints to a fixed point. It returns true
// on failure.
//
// With a constraint graph the worklist is drained FIFO; binding a type
// variable re-activates its dependent constraints through the graph.
// Without one, all constraints are spliced out and re-inserted through
// AddConstraint until an iteration solves nothing.
func (cs *ConstraintSystem) simplify() bool {
	if cs.graph != nil {
		retired := set.New[*Constraint](0)

		for len(cs.worklist) > 0 {
			constraint := cs.worklist[0]
			cs.worklist = cs.worklist[1:]

			switch cs.simplifyConstraint(constraint) {
			case SolutionError:
				if cs.failedConstraint == nil {
					cs.failedConstraint = constraint
				}

			case SolutionSolved:
				cs.solverState.local.NumSimplifiedConstraints++
				retired.Insert(constraint)
				cs.graph.RemoveConstraint(constraint)

			case SolutionUnsolved:
				cs.solverState.local.NumUnsimplifiedConstraints++
			}

			// Delayed until after simplification to avoid re-insertion.
			constraint.setActive(false)

			if cs.failedConstraint != nil {
				// Drain the worklist; nothing further can matter.
				for _, c := range cs.worklist {
					c.setActive(false)
				}
				cs.worklist = nil

				cs.solverState.retiredConstraints.spliceFrontAll(&cs.constraints)
				return true
			}

			if cs.worseThanBestSolution() {
				return true
			}
		}

		// Transfer the constraints we retired out of the active list.
		for c := range cs.constraints.items() {
			if retired.Contains(c) {
				cs.constraints.remove(c)
				cs.solverState.retiredConstraints.pushFront(c)
			}
		}
		return false
	}

	for {
		var existing constraintList
		existing.spliceBackAll(&cs.constraints)
		solvedAny := false
		for !existing.empty() {
			constraint := existing.popFront()

			if cs.AddConstraint(constraint) {
				solvedAny = true
				cs.solverState.local.NumSimplifiedConstraints++
			} else if cs.failedConstraint == nil {
				cs.solverState.local.NumUnsimplifiedConstraints++
			}

			if cs.failedConstraint != nil {
				cs.solverState.retiredConstraints.spliceFrontAll(&existing)
				return true
			}
		}

		cs.solverState.local.NumSimplifyIterations++
		if !solvedAny {
			return false
		}
	}
}
