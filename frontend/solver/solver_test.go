package solver

import (
	"github.com/crestlang/crest/frontend/types"
)

// Shared fixtures: a small standard library with a class hierarchy, literal
// protocols, and a generic collection.
var (
	intT    = types.Nominal{Name: "Int"}
	doubleT = types.Nominal{Name: "Double"}
	stringT = types.Nominal{Name: "String"}
	boolT   = types.Nominal{Name: "Bool"}
	baseT   = types.Nominal{Name: "Base"}
	derived = types.Nominal{Name: "Derived"}
	arrayT  = types.Nominal{Name: "Array"}

	protoIntLiteral = &types.Protocol{Name: "ExpressibleByIntegerLiteral", Literal: types.LiteralInteger}
	protoStrLiteral = &types.Protocol{Name: "ExpressibleByStringLiteral", Literal: types.LiteralString}
	protoArrLiteral = &types.Protocol{Name: "ExpressibleByArrayLiteral", Literal: types.LiteralArray}
)

func testUniverse() *types.Universe {
	u := types.NewUniverse()

	u.RegisterClass("Base", nil)
	u.RegisterClass("Derived", baseT)

	u.AddConformance(intT, protoIntLiteral)
	u.AddConformance(doubleT, protoIntLiteral)
	u.AddConformance(stringT, protoStrLiteral)
	u.SetDefaultType(protoIntLiteral, intT)
	u.SetDefaultType(protoStrLiteral, stringT)
	u.SetAlternativeLiteralTypes(types.LiteralInteger, []types.Type{intT, doubleT})

	u.RegisterGeneric("Array", 1)
	u.SetDefaultType(protoArrLiteral, arrayT)

	// Members used by the binding-search scenarios: Base has a name,
	// Double has a magnitude; lookups are exact, so Derived has neither.
	u.AddMember(baseT, "name", stringT)
	u.AddMember(doubleT, "magnitude", doubleT)
	u.AddTypeMember(baseT, "Element", intT)

	return u
}

func newTestSystem() *ConstraintSystem {
	return NewConstraintSystem(testUniverse())
}

func tupleOf(elems ...types.TupleElem) types.Tuple {
	return types.Tuple{Elems: elems}
}
