package solver

import (
	"fmt"
	"strings"
)

// ScoreKind indexes one penalty counter of a Score. The declaration order
// here is the one place that fixes the lexicographic significance of the
// counters: earlier kinds dominate later ones, for pruning and for ranking
// alike.
type ScoreKind int

const (
	// SKUserConversion counts applications of non-trivial conversions,
	// such as a conversion through a superclass.
	SKUserConversion ScoreKind = iota
	// SKFunctionConversion counts function-type adjustments such as
	// auto-closure formation.
	SKFunctionConversion
	// SKScalarToTuple counts scalar values promoted to one-element tuples.
	SKScalarToTuple

	numScoreKinds
)

// Score is a lexicographic tuple of non-negative penalty counters. Scores
// are compared with Less both when pruning branches against the best known
// solution and when ranking finished solutions.
type Score [numScoreKinds]uint

// Less compares scores lexicographically.
func (s Score) Less(other Score) bool {
	for i := range s {
		if s[i] != other[i] {
			return s[i] < other[i]
		}
	}
	return false
}

// Add returns the componentwise sum.
func (s Score) Add(other Score) Score {
	var out Score
	for i := range s {
		out[i] = s[i] + other[i]
	}
	return out
}

// Sub returns the componentwise difference. Every component of other must
// be at most the matching component of s.
func (s Score) Sub(other Score) Score {
	var out Score
	for i := range s {
		out[i] = s[i] - other[i]
	}
	return out
}

func (s Score) IsZero() bool {
	return s == Score{}
}

func (s Score) String() string {
	if s.IsZero() {
		return "<zero>"
	}
	var parts []string
	for i, n := range s {
		if n != 0 {
			parts = append(parts, fmt.Sprintf("%d:%d", i, n))
		}
	}
	return "<" + strings.Join(parts, " ") + ">"
}
