package solver

import (
	"log/slog"
	"strconv"

	"github.com/crestlang/crest/frontend/types"
	"github.com/crestlang/crest/internal/log"
	set "github.com/hashicorp/go-set/v3"
)

var logger = log.DefaultLogger.With("section", "solver")

// ConstraintSystem owns a set of type variables, the active constraints over
// them, and the search state used while solving. It is strictly
// single-threaded and non-reentrant.
type ConstraintSystem struct {
	universe *types.Universe
	logger   *slog.Logger

	// TypeVariables lists every variable known to the system, in creation
	// order. Scope exit truncates it back to its recorded length.
	TypeVariables []*types.TypeVar
	varStates     map[*types.TypeVar]*varState
	nextVarID     int

	constraints constraintList
	worklist    []*Constraint

	graph *ConstraintGraph

	resolvedOverloads *ResolvedOverload

	CurrentScore     Score
	failedConstraint *Constraint

	solverState *SolverState
}

// Option configures a ConstraintSystem at construction.
type Option func(*ConstraintSystem)

// WithoutGraph disables the constraint graph; simplification then runs the
// fixed-point mode and the driver never splits into components.
func WithoutGraph() Option {
	return func(cs *ConstraintSystem) {
		cs.graph = nil
	}
}

func NewConstraintSystem(universe *types.Universe, opts ...Option) *ConstraintSystem {
	cs := &ConstraintSystem{
		universe:  universe,
		logger:    logger,
		varStates: make(map[*types.TypeVar]*varState),
	}
	cs.graph = NewConstraintGraph(cs)
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// Universe returns the type facts this system was built against.
func (cs *ConstraintSystem) Universe() *types.Universe { return cs.universe }

// NewTypeVariable introduces a fresh type variable into the system.
func (cs *ConstraintSystem) NewTypeVariable(nameHint string, canBindToLValue bool) *types.TypeVar {
	v := &types.TypeVar{ID: cs.nextVarID, NameHint: nameHint, CanBindToLValue: canBindToLValue}
	cs.nextVarID++
	cs.addTypeVariable(v)
	return v
}

func (cs *ConstraintSystem) addTypeVariable(v *types.TypeVar) {
	cs.TypeVariables = append(cs.TypeVariables, v)
	if _, ok := cs.varStates[v]; !ok {
		cs.varStates[v] = &varState{}
	}
}

// AddConstraint inserts a constraint, attempting to simplify it
// immediately. It reports whether the constraint was solved on the spot.
func (cs *ConstraintSystem) AddConstraint(c *Constraint) bool {
	switch cs.simplifyConstraint(c) {
	case SolutionError:
		if cs.failedConstraint == nil {
			cs.failedConstraint = c
		}
		// Park it with the retired constraints so scope exit can put it
		// back where it came from.
		if cs.solverState != nil {
			cs.solverState.retiredConstraints.pushFront(c)
		}
		return false

	case SolutionSolved:
		// Fully solved on insertion; keep it restorable when we are inside
		// the solver, drop it otherwise.
		if cs.solverState != nil {
			cs.solverState.retiredConstraints.pushFront(c)
		}
		return true

	default:
		cs.constraints.pushBack(c)
		if cs.graph != nil {
			cs.graph.AddConstraint(c)
		}
		return false
	}
}

// addGeneratedConstraint marks c as created inside the current scope, so
// scope exit erases it from the active list.
func (cs *ConstraintSystem) addGeneratedConstraint(c *Constraint) {
	cs.solverState.generated.Insert(c)
}

// activateConstraint puts c back on the worklist for (re-)simplification.
func (cs *ConstraintSystem) activateConstraint(c *Constraint) {
	if c.active {
		return
	}
	c.setActive(true)
	cs.worklist = append(cs.worklist, c)
}

// addTypeVariableConstraintsToWorkList re-activates every active-list
// constraint adjacent to v, via the constraint graph.
func (cs *ConstraintSystem) addTypeVariableConstraintsToWorkList(v *types.TypeVar) {
	if cs.graph == nil {
		return
	}
	for _, c := range cs.graph.ConstraintsFor(cs.Representative(v)) {
		cs.activateConstraint(c)
	}
}

// ResolveOverload pushes an overload choice onto the resolved-overloads
// stack.
func (cs *ConstraintSystem) ResolveOverload(locator *Locator, choice OverloadChoice, openedFullType, openedType types.Type) {
	cs.resolvedOverloads = &ResolvedOverload{
		Previous:       cs.resolvedOverloads,
		Locator:        locator,
		Choice:         choice,
		OpenedFullType: openedFullType,
		OpenedType:     openedType,
	}
}

// recordRestriction journals the conversion restriction chosen for a pair
// of types.
func (cs *ConstraintSystem) recordRestriction(first, second types.Type, kind RestrictionKind) {
	if cs.solverState != nil {
		cs.solverState.constraintRestrictions = append(cs.solverState.constraintRestrictions,
			RestrictionEntry{First: first, Second: second, Kind: kind})
	}
}

// increaseScore bumps one counter of the current score.
func (cs *ConstraintSystem) increaseScore(kind ScoreKind) {
	cs.CurrentScore[kind]++
	if debugConstraintSolver {
		cs.debugLog("increased score", "kind", int(kind), "score", cs.CurrentScore.String())
	}
}

// worseThanBestSolution reports whether the current score already exceeds
// the best solution's score, in which case the branch cannot improve on it.
// Equal scores are kept so that ambiguity between equally-good solutions
// can be reported.
func (cs *ConstraintSystem) worseThanBestSolution() bool {
	if cs.solverState == nil || cs.solverState.BestScore == nil {
		return false
	}
	return cs.solverState.BestScore.Less(cs.CurrentScore)
}

// hasFreeTypeVariables reports whether any known type variable still lacks
// a fixed type.
func (cs *ConstraintSystem) hasFreeTypeVariables() bool {
	for _, v := range cs.TypeVariables {
		if cs.FixedType(v) == nil {
			return true
		}
	}
	return false
}

func (cs *ConstraintSystem) debugLog(msg string, args ...any) {
	if !debugConstraintSolver {
		return
	}
	depth := 0
	if cs.solverState != nil {
		depth = cs.solverState.depth
	}
	args = append(args, "depth", depth)
	cs.logger.Debug(msg, args...)
}

// RestrictionEntry is one journaled conversion-restriction choice.
type RestrictionEntry struct {
	First  types.Type
	Second types.Type
	Kind   RestrictionKind
}

// SolverState holds the bookkeeping that only exists while a solve is in
// flight: journals, the retired list, the best score, and statistics for
// this attempt.
type SolverState struct {
	cs    *ConstraintSystem
	depth int

	// BestScore of any solution recorded so far, for pruning.
	BestScore *Score

	savedBindings          []SavedBinding
	retiredConstraints     constraintList
	constraintRestrictions []RestrictionEntry

	// generated points at the currently-accumulating set of constraints
	// created inside the innermost scope; SolverScope swaps it.
	generated *set.Set[*Constraint]

	local    Counters
	attempt  uint
	oldDebug bool
}

func newSolverState(cs *ConstraintSystem) *SolverState {
	s := &SolverState{
		cs:        cs,
		generated: set.New[*Constraint](0),
		oldDebug:  debugConstraintSolver,
	}
	s.attempt = nextSolutionAttempt()

	// If we're supposed to debug one specific solver attempt, turn
	// verbosity on for its duration.
	if n := debugAttemptNumber(); n != 0 && n == s.attempt {
		debugConstraintSolver = true
		cs.logger.Debug("debugging constraint system attempt #"+strconv.FormatUint(uint64(s.attempt), 10),
			"constraints", cs.constraints.len())
	}
	return s
}

func (s *SolverState) teardown() {
	debugConstraintSolver = s.oldDebug
	recordAttemptStats(s.attempt, s.local)
}
