package solver

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/crestlang/crest/frontend/types"
)

// ConstraintKind discriminates the constraint variants the solver
// understands.
type ConstraintKind int

const (
	// KindBind requires the first type to be exactly the second type.
	KindBind ConstraintKind = iota
	// KindEqual requires the two types to be identical after substitution.
	KindEqual
	// KindTrivialSubtype requires a subtype relation with no representation
	// change.
	KindTrivialSubtype
	// KindSubtype requires the first type to be a subtype of the second.
	KindSubtype
	// KindConversion requires the first type to be convertible to the
	// second.
	KindConversion
	// KindApplicableFunction requires the first type, a function type built
	// from an argument list, to be applicable to the callee type on the
	// right.
	KindApplicableFunction
	// KindMaterializable requires the first type to contain no l-values.
	KindMaterializable
	// KindValueMember binds the second type to the type of a named value
	// member of the first.
	KindValueMember
	// KindTypeMember binds the second type to a named type member of the
	// first.
	KindTypeMember
	// KindConformsTo requires the first type to conform to a protocol.
	KindConformsTo
	// KindSelfObjectOfProtocol is the conformance used for protocol Self
	// requirements.
	KindSelfObjectOfProtocol
	// KindConjunction holds nested constraints that must all hold. They are
	// broken apart before solving; the solver never sees one at top level.
	KindConjunction
	// KindDisjunction holds nested constraints of which at least one must
	// hold.
	KindDisjunction
)

func (k ConstraintKind) String() string {
	switch k {
	case KindBind:
		return "bind"
	case KindEqual:
		return "equal"
	case KindTrivialSubtype:
		return "trivial subtype"
	case KindSubtype:
		return "subtype"
	case KindConversion:
		return "conversion"
	case KindApplicableFunction:
		return "applicable fn"
	case KindMaterializable:
		return "materializable"
	case KindValueMember:
		return "value member"
	case KindTypeMember:
		return "type member"
	case KindConformsTo:
		return "conforms to"
	case KindSelfObjectOfProtocol:
		return "self object of protocol"
	case KindConjunction:
		return "conjunction"
	case KindDisjunction:
		return "disjunction"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Classification groups constraint kinds by how the classifier treats them.
type Classification int

const (
	ClassRelational Classification = iota
	ClassTypeProperty
	ClassMember
	ClassConjunction
	ClassDisjunction
)

// Classify maps a constraint kind to its classification.
func (k ConstraintKind) Classify() Classification {
	switch k {
	case KindBind, KindEqual, KindTrivialSubtype, KindSubtype, KindConversion,
		KindApplicableFunction, KindConformsTo, KindSelfObjectOfProtocol:
		return ClassRelational
	case KindMaterializable:
		return ClassTypeProperty
	case KindValueMember, KindTypeMember:
		return ClassMember
	case KindConjunction:
		return ClassConjunction
	case KindDisjunction:
		return ClassDisjunction
	default:
		panic(errors.Errorf("unknown constraint kind %d", int(k)))
	}
}

// RestrictionKind names the conversion restriction a relational constraint
// was solved with, when any.
type RestrictionKind int

const (
	RestrictionNone RestrictionKind = iota
	RestrictionTupleToTuple
	RestrictionScalarToTuple
	RestrictionSuperclass
	RestrictionLValueToRValue
	RestrictionAutoClosure
	RestrictionOptionalToOptional
)

func (r RestrictionKind) String() string {
	switch r {
	case RestrictionNone:
		return "none"
	case RestrictionTupleToTuple:
		return "tuple-to-tuple"
	case RestrictionScalarToTuple:
		return "scalar-to-tuple"
	case RestrictionSuperclass:
		return "superclass"
	case RestrictionLValueToRValue:
		return "lvalue-to-rvalue"
	case RestrictionAutoClosure:
		return "auto-closure"
	case RestrictionOptionalToOptional:
		return "optional-to-optional"
	default:
		return fmt.Sprintf("restriction(%d)", int(r))
	}
}

// LocatorPathKind tags one element of a locator path.
type LocatorPathKind int

const (
	PathApplyArgument LocatorPathKind = iota
	PathApplyFunction
	PathMember
	PathInterpolationArgument
)

// LocatorPathElem is one step of a locator path.
type LocatorPathElem struct {
	Kind  LocatorPathKind
	Index int
}

// Locator is an opaque anchor into the expression being checked, used for
// diagnostics and as the key identifying an overload set. Identity is the
// pointer.
type Locator struct {
	Anchor string
	Path   []LocatorPathElem
}

func (l *Locator) String() string {
	if l == nil {
		return "<no locator>"
	}
	var b strings.Builder
	b.WriteString(l.Anchor)
	for _, e := range l.Path {
		fmt.Fprintf(&b, ".%d/%d", int(e.Kind), e.Index)
	}
	return b.String()
}

// Constraint is a relation over types that the solver must satisfy. Identity
// is the pointer; ordering among constraints is insertion order in the
// active list.
type Constraint struct {
	Kind        ConstraintKind
	First       types.Type
	Second      types.Type
	Member      string
	Protocol    *types.Protocol
	Nested      []*Constraint
	Restriction RestrictionKind
	Locator     *Locator

	active bool

	// intrusive list linkage, owned by constraintList
	next, prev *Constraint
	owner      *constraintList
}

// NewConstraint builds a relational constraint.
func NewConstraint(kind ConstraintKind, first, second types.Type, locator *Locator) *Constraint {
	return &Constraint{Kind: kind, First: first, Second: second, Locator: locator}
}

// NewRestrictedConstraint builds a relational constraint carrying a
// conversion restriction, as disjunction alternatives do.
func NewRestrictedConstraint(kind ConstraintKind, first, second types.Type, restriction RestrictionKind, locator *Locator) *Constraint {
	return &Constraint{Kind: kind, First: first, Second: second, Restriction: restriction, Locator: locator}
}

// NewConformsConstraint builds a conformance constraint.
func NewConformsConstraint(kind ConstraintKind, first types.Type, proto *types.Protocol, locator *Locator) *Constraint {
	return &Constraint{Kind: kind, First: first, Protocol: proto, Locator: locator}
}

// NewMemberConstraint builds a member constraint: base, member name, and the
// type the member must have.
func NewMemberConstraint(kind ConstraintKind, base types.Type, member string, result types.Type, locator *Locator) *Constraint {
	return &Constraint{Kind: kind, First: base, Second: result, Member: member, Locator: locator}
}

// NewDisjunction builds a disjunction over the given alternatives.
func NewDisjunction(nested []*Constraint, locator *Locator) *Constraint {
	return &Constraint{Kind: KindDisjunction, Nested: nested, Locator: locator}
}

// NewConjunction builds a conjunction; the front-end breaks these apart
// before handing the system to the solver, so they only ever appear nested
// inside disjunctions.
func NewConjunction(nested []*Constraint, locator *Locator) *Constraint {
	return &Constraint{Kind: KindConjunction, Nested: nested, Locator: locator}
}

func (c *Constraint) IsActive() bool { return c.active }

func (c *Constraint) setActive(active bool) { c.active = active }

func (c *Constraint) String() string {
	switch c.Kind {
	case KindConformsTo, KindSelfObjectOfProtocol:
		return fmt.Sprintf("%s %s %s", c.First, c.Kind, c.Protocol)
	case KindValueMember, KindTypeMember:
		return fmt.Sprintf("%s[.%s] == %s", c.First, c.Member, c.Second)
	case KindMaterializable:
		return fmt.Sprintf("%s is materializable", c.First)
	case KindConjunction, KindDisjunction:
		sep := " and "
		if c.Kind == KindDisjunction {
			sep = " or "
		}
		parts := make([]string, len(c.Nested))
		for i, n := range c.Nested {
			parts[i] = n.String()
		}
		return "(" + strings.Join(parts, sep) + ")"
	default:
		s := fmt.Sprintf("%s %s %s", c.First, c.Kind, c.Second)
		if c.Restriction != RestrictionNone {
			s += " [" + c.Restriction.String() + "]"
		}
		return s
	}
}

// OverloadChoice identifies one alternative of an overload set.
type OverloadChoice struct {
	Name  string
	Index int
}

// ResolvedOverload is one entry of the resolved-overloads stack: a
// singly-linked list that is appended to per scope and truncated to the
// remembered head on scope exit.
type ResolvedOverload struct {
	Previous       *ResolvedOverload
	Locator        *Locator
	Choice         OverloadChoice
	OpenedFullType types.Type
	OpenedType     types.Type
}
