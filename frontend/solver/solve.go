package solver

// Solve explores the constraint system and appends every solution found.
// It returns true on failure: no solution, or several with no unique best.
//
// The top-level call owns the solver state; recursive calls inherit it.
func (cs *ConstraintSystem) Solve(solutions *[]Solution, allowFree FreeTypeVariableBinding) bool {
	if cs.solverState != nil {
		return cs.solve(solutions, allowFree)
	}

	state := newSolverState(cs)
	cs.solverState = state

	cs.solve(solutions, allowFree)

	// If more than one system is viable, attempt to pick the best.
	if len(*solutions) > 1 {
		if best, ok := findBestSolution(*solutions, false); ok {
			if best != 0 {
				(*solutions)[0] = (*solutions)[best]
			}
			*solutions = (*solutions)[:1]
		}
	}

	state.teardown()
	cs.solverState = nil
	return len(*solutions) != 1
}

func (cs *ConstraintSystem) solve(solutions *[]Solution, allowFree FreeTypeVariableBinding) bool {
	// If we already failed, or simplification fails, we're done.
	if cs.failedConstraint != nil || cs.simplify() {
		return true
	}

	// No constraints remaining: save this solution.
	if cs.constraints.empty() {
		if cs.worseThanBestSolution() {
			return true
		}

		if allowFree == FreeTypeVariablesDisallowed && cs.hasFreeTypeVariables() {
			return true
		}

		solution := cs.finalize(allowFree)
		cs.debugLog("found solution", "score", solution.Score.String())
		*solutions = append(*solutions, solution)
		return false
	}

	if cs.graph == nil {
		return cs.solveSimplified(solutions, allowFree)
	}

	components, numComponents := cs.graph.ComputeConnectedComponents(cs.TypeVariables)
	if numComponents < 2 {
		return cs.solveSimplified(solutions, allowFree)
	}
	cs.debugLog("split into components", "components", numComponents)

	// Map each constraint to its owning component.
	constraintComponent := make(map[*Constraint]int)
	for _, v := range cs.TypeVariables {
		component, ok := components[v]
		if !ok {
			continue
		}
		for _, constraint := range cs.graph.adjacentConstraints(v) {
			constraintComponent[constraint] = component
		}
	}

	// Sort the constraints into buckets based on component number.
	buckets := make([]constraintList, numComponents)
	for !cs.constraints.empty() {
		constraint := cs.constraints.popFront()
		buckets[constraintComponent[constraint]].pushBack(constraint)
	}

	returnAllConstraints := func() {
		for component := range buckets {
			cs.constraints.spliceBackAll(&buckets[component])
		}
	}

	// Compute the partial solutions produced for each connected component.
	partialSolutions := make([][]Solution, numComponents)
	previousBestScore := cs.solverState.BestScore
	for component := 0; component != numComponents; component++ {
		cs.solverState.local.NumComponentsSplit++
		cs.constraints.spliceBackAll(&buckets[component])

		// Keep this component's variables visible, along with every
		// variable that belongs to no component (already resolved).
		allTypeVariables := cs.TypeVariables
		cs.TypeVariables = nil
		for _, v := range allTypeVariables {
			if other, ok := components[v]; ok && other != component {
				continue
			}
			cs.TypeVariables = append(cs.TypeVariables, v)
		}

		cs.debugLog("solving component", "component", component)
		scope := cs.newSolverScope()
		failed := cs.solveSimplified(&partialSolutions[component], allowFree)
		scope.exit()

		// Put the constraints back into their bucket.
		buckets[component].spliceBackAll(&cs.constraints)

		cs.TypeVariables = allTypeVariables

		if failed {
			cs.debugLog("failed component", "component", component)
			returnAllConstraints()
			return true
		}

		// The current score does not contribute to a component's partial
		// solutions, and each component is ranked independently.
		for i := range partialSolutions[component] {
			partialSolutions[component][i].Score = partialSolutions[component][i].Score.Sub(cs.CurrentScore)
		}
		cs.solverState.BestScore = previousBestScore
	}

	returnAllConstraints()

	// Rank each component's partial solutions; in the common case this
	// leaves a single combination to produce.
	for component := 0; component != numComponents; component++ {
		if best, ok := findBestSolution(partialSolutions[component], true); ok {
			partialSolutions[component] = partialSolutions[component][best : best+1]
		} else {
			partialSolutions[component] = minimalSolutions(partialSolutions[component])
		}
	}

	// Produce all combinations of partial solutions.
	indices := make([]int, numComponents)
	done := false
	anySolutions := false
	for !done {
		scope := cs.newSolverScope()
		for i := 0; i != numComponents; i++ {
			cs.applySolution(partialSolutions[i][indices[i]])
		}

		if !cs.worseThanBestSolution() {
			solution := cs.finalize(allowFree)
			cs.debugLog("composed solution", "score", solution.Score.String())
			*solutions = append(*solutions, solution)
			anySolutions = true
		}
		scope.exit()

		// Find the next combination.
		for n := numComponents; n > 0; n-- {
			indices[n-1]++
			if indices[n-1] < len(partialSolutions[n-1]) {
				break
			}
			if n == 1 {
				done = true
				break
			}
			for i := n - 1; i != numComponents; i++ {
				indices[i] = 0
			}
		}
	}

	return !anySolutions
}

// solveSimplified handles a system with no component structure: pick the
// best variable to bind, or branch the smallest disjunction.
func (cs *ConstraintSystem) solveSimplified(solutions *[]Solution, allowFree FreeTypeVariableBinding) bool {
	typeVarConstraints, disjunctions := cs.collectConstraintsForTypeVariables()

	if len(typeVarConstraints) > 0 {
		// Look for the best type variable to bind.
		bestIndex := 0
		bestBindings := cs.getPotentialBindings(&typeVarConstraints[0])
		for i := 1; i < len(typeVarConstraints); i++ {
			bindings := cs.getPotentialBindings(&typeVarConstraints[i])
			if len(bindings.Bindings) == 0 {
				continue
			}
			if len(bestBindings.Bindings) == 0 || bindings.less(bestBindings) {
				bestIndex = i
				bestBindings = bindings
			}
		}

		// If we have a binding that does not involve type variables, or no
		// other option, try the bindings for this type variable.
		if len(bestBindings.Bindings) > 0 &&
			(len(disjunctions) == 0 ||
				(!bestBindings.InvolvesTypeVariables && !bestBindings.FullyBound)) {
			return cs.tryTypeVariableBindings(&typeVarConstraints[bestIndex], bestBindings.Bindings, solutions, allowFree)
		}

		// Fall through to resolve a disjunction.
	}

	if len(disjunctions) == 0 {
		// When free variables are allowed, residual conformance and
		// type-member constraints still admit a solution.
		if allowFree != FreeTypeVariablesDisallowed && cs.hasFreeTypeVariables() {
			anyNonConformanceConstraints := false
			for constraint := range cs.constraints.items() {
				switch constraint.Kind {
				case KindConformsTo, KindSelfObjectOfProtocol, KindTypeMember:
					continue
				}
				anyNonConformanceConstraints = true
				break
			}

			if cs.worseThanBestSolution() {
				return true
			}

			if !anyNonConformanceConstraints {
				solution := cs.finalize(allowFree)
				cs.debugLog("found solution with free variables", "score", solution.Score.String())
				*solutions = append(*solutions, solution)
				return false
			}
		}
		return true
	}

	// Pick the smallest disjunction.
	disjunction := disjunctions[0]
	bestSize := len(disjunction.Nested)
	if bestSize > 2 {
		for _, contender := range disjunctions[1:] {
			if size := len(contender.Nested); size < bestSize {
				bestSize = size
				disjunction = contender
				if bestSize == 2 {
					break
				}
			}
		}
	}

	// Detach the disjunction while we try its alternatives.
	afterDisjunction := disjunction.next
	cs.constraints.remove(disjunction)
	if cs.graph != nil {
		cs.graph.RemoveConstraint(disjunction)
	}

	anySolved := false
	cs.solverState.local.NumDisjunctions++
	for _, constraint := range disjunction.Nested {
		// Once solved, don't bother with optional-to-optional conversions.
		if anySolved && constraint.Restriction == RestrictionOptionalToOptional {
			break
		}

		scope := cs.newSolverScope()
		cs.solverState.local.NumDisjunctionTerms++
		cs.debugLog("assuming disjunction alternative", "constraint", constraint.String())

		switch cs.simplifyConstraint(constraint) {
		case SolutionError:
			if cs.failedConstraint == nil {
				cs.failedConstraint = constraint
			}

		case SolutionSolved:
			// Nothing further to do.

		case SolutionUnsolved:
			cs.constraints.pushBack(constraint)
			if cs.graph != nil {
				cs.graph.AddConstraint(constraint)
			}
		}

		cs.addGeneratedConstraint(constraint)

		stop := false
		if !cs.solve(solutions, allowFree) {
			anySolved = true

			// A successful tuple-to-tuple conversion ends the search.
			if constraint.Restriction == RestrictionTupleToTuple {
				stop = true
			}

			// So does a conversion applied to an interpolation argument.
			if locator := disjunction.Locator; locator != nil && len(locator.Path) > 0 &&
				locator.Path[len(locator.Path)-1].Kind == PathInterpolationArgument &&
				constraint.Kind == KindConversion {
				stop = true
			}
		}

		scope.exit()
		if stop {
			break
		}
	}

	// Put the disjunction back in its place.
	cs.constraints.insertBefore(disjunction, afterDisjunction)
	if cs.graph != nil {
		cs.graph.AddConstraint(disjunction)
	}

	return !anySolved
}
