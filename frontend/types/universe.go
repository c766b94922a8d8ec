package types

// LiteralKind identifies the family of literal a protocol describes, used to
// look up alternative literal types.
type LiteralKind int

const (
	LiteralNone LiteralKind = iota
	LiteralInteger
	LiteralFloat
	LiteralString
	LiteralArray
	LiteralDictionary
)

// Protocol is a named conformance requirement. Protocols for literals carry
// the literal kind so the solver can enumerate alternative default types.
type Protocol struct {
	Name    string
	Literal LiteralKind
}

func (p *Protocol) String() string { return p.Name }

// Universe holds the global type facts the solver consults: class
// hierarchies, protocol conformances and their default literal types, member
// tables, and generic declarations. It is immutable during solving.
type Universe struct {
	superclass   map[uint64]Type
	classes      map[string]struct{}
	conformances map[uint64]map[string]struct{}
	defaults     map[string]Type
	altLiterals  map[LiteralKind][]Type
	members      map[uint64]map[string]Type
	typeMembers  map[uint64]map[string]Type
	genericArity map[string]int
}

func NewUniverse() *Universe {
	return &Universe{
		superclass:   make(map[uint64]Type),
		classes:      make(map[string]struct{}),
		conformances: make(map[uint64]map[string]struct{}),
		defaults:     make(map[string]Type),
		altLiterals:  make(map[LiteralKind][]Type),
		members:      make(map[uint64]map[string]Type),
		typeMembers:  make(map[uint64]map[string]Type),
		genericArity: make(map[string]int),
	}
}

// RegisterClass declares name as a class type with the given superclass
// (nil for a root class).
func (u *Universe) RegisterClass(name string, superclass Type) {
	u.classes[name] = struct{}{}
	if superclass != nil {
		u.superclass[(Nominal{Name: name}).Hash()] = superclass
	}
}

// RegisterGeneric declares name as a generic nominal with the given number
// of type parameters.
func (u *Universe) RegisterGeneric(name string, arity int) {
	u.genericArity[name] = arity
}

// AddConformance records that t conforms to proto.
func (u *Universe) AddConformance(t Type, proto *Protocol) {
	key := t.Hash()
	if u.conformances[key] == nil {
		u.conformances[key] = make(map[string]struct{})
	}
	u.conformances[key][proto.Name] = struct{}{}
}

// SetDefaultType records the default literal type for proto.
func (u *Universe) SetDefaultType(proto *Protocol, t Type) {
	u.defaults[proto.Name] = t
}

// SetAlternativeLiteralTypes records the ordered alternatives for a literal
// kind, consulted when the default literal type admits no solution.
func (u *Universe) SetAlternativeLiteralTypes(kind LiteralKind, ts []Type) {
	u.altLiterals[kind] = ts
}

// AddMember records a value member on t.
func (u *Universe) AddMember(t Type, name string, memberType Type) {
	key := t.Hash()
	if u.members[key] == nil {
		u.members[key] = make(map[string]Type)
	}
	u.members[key][name] = memberType
}

// AddTypeMember records a type member on t.
func (u *Universe) AddTypeMember(t Type, name string, memberType Type) {
	key := t.Hash()
	if u.typeMembers[key] == nil {
		u.typeMembers[key] = make(map[string]Type)
	}
	u.typeMembers[key][name] = memberType
}

// SuperclassOf returns the direct superclass of t, or nil.
func (u *Universe) SuperclassOf(t Type) Type {
	return u.superclass[t.Hash()]
}

// MayHaveSuperclass reports whether t is a class type, and so could have a
// superclass worth enumerating.
func (u *Universe) MayHaveSuperclass(t Type) bool {
	n, ok := t.(Nominal)
	if !ok {
		return false
	}
	_, isClass := u.classes[n.Name]
	return isClass
}

// Conforms reports whether t conforms to proto, walking the superclass
// chain.
func (u *Universe) Conforms(t Type, proto *Protocol) bool {
	for cur := t; cur != nil; cur = u.superclass[cur.Hash()] {
		if protos, ok := u.conformances[cur.Hash()]; ok {
			if _, ok := protos[proto.Name]; ok {
				return true
			}
		}
		if !u.MayHaveSuperclass(cur) {
			break
		}
	}
	return false
}

// DefaultType returns the default literal type for proto, or nil when the
// protocol has none.
func (u *Universe) DefaultType(proto *Protocol) Type {
	return u.defaults[proto.Name]
}

// AlternativeLiteralTypes returns the ordered alternatives for a literal
// kind.
func (u *Universe) AlternativeLiteralTypes(kind LiteralKind) []Type {
	return u.altLiterals[kind]
}

// MemberType looks up a value member on the exact type t.
func (u *Universe) MemberType(t Type, name string) (Type, bool) {
	m, ok := u.members[t.Hash()][name]
	return m, ok
}

// TypeMemberType looks up a type member on the exact type t.
func (u *Universe) TypeMemberType(t Type, name string) (Type, bool) {
	m, ok := u.typeMembers[t.Hash()][name]
	return m, ok
}

// IsUnspecializedGeneric reports whether t names a generic declaration
// without supplying its type arguments.
func (u *Universe) IsUnspecializedGeneric(t Type) bool {
	n, ok := t.(Nominal)
	if !ok {
		return false
	}
	arity, generic := u.genericArity[n.Name]
	return generic && arity > 0 && len(n.Args) == 0
}

// GenericArity returns the declared parameter count for a generic nominal.
func (u *Universe) GenericArity(name string) int {
	return u.genericArity[name]
}

// NominalHead returns the nominal declaration name heading t, if any.
// Generic and non-generic applications of the same declaration share a head.
func NominalHead(t Type) (string, bool) {
	n, ok := t.(Nominal)
	if !ok {
		return "", false
	}
	return n.Name, true
}
