package air

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for types almost every translation touches.
type Builtins struct {
	Invalid TypeID
	Void    TypeID
	Bool    TypeID // unsigned 1-bit integer
	UInt8   TypeID
	Double  TypeID
	BytePtr TypeID // pointer to ui8, the untyped-memory pointer
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Two integer descriptors with equal width and different signedness
// intern to distinct IDs.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins
	structs  []StructInfo
	fns      []FnInfo
	aggIndex map[string]TypeID
}

// NewInterner constructs an interner seeded with built-in types.
func NewInterner() *Interner {
	in := &Interner{
		index:    make(map[typeKey]TypeID, 64),
		aggIndex: make(map[string]TypeID, 16),
	}
	in.structs = append(in.structs, StructInfo{}) // reserve 0 as invalid sentinel
	in.fns = append(in.fns, FnInfo{})
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Void = in.Intern(Type{Kind: KindVoid})
	in.builtins.Bool = in.Intern(MakeInteger(1, Unsigned))
	in.builtins.UInt8 = in.Intern(MakeInteger(8, Unsigned))
	in.builtins.Double = in.Intern(MakeFloat(FloatDouble))
	in.builtins.BytePtr = in.Intern(MakePointer(in.builtins.UInt8))
	return in
}

// Builtins returns TypeIDs for the seeded types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// InternStruct ensures a struct descriptor with the given fields has a
// stable TypeID. Structural: identical field lists share an ID.
func (in *Interner) InternStruct(fields []StructField, packed bool) TypeID {
	var sb strings.Builder
	sb.WriteByte('s')
	if packed {
		sb.WriteByte('p')
	}
	for _, f := range fields {
		fmt.Fprintf(&sb, ".%d", f.Type)
	}
	key := sb.String()
	if id, ok := in.aggIndex[key]; ok {
		return id
	}
	payload, err := safecast.Conv[uint32](len(in.structs))
	if err != nil {
		panic(fmt.Errorf("len(structs) overflow: %w", err))
	}
	in.structs = append(in.structs, StructInfo{
		Fields: append([]StructField(nil), fields...),
		Packed: packed,
	})
	id := in.internRaw(Type{Kind: KindStruct, Payload: payload})
	in.aggIndex[key] = id
	return id
}

// InternFunction ensures a function descriptor has a stable TypeID.
func (in *Interner) InternFunction(params []TypeID, result TypeID, variadic bool) TypeID {
	var sb strings.Builder
	sb.WriteByte('f')
	if variadic {
		sb.WriteByte('v')
	}
	fmt.Fprintf(&sb, ":%d", result)
	for _, p := range params {
		fmt.Fprintf(&sb, ".%d", p)
	}
	key := sb.String()
	if id, ok := in.aggIndex[key]; ok {
		return id
	}
	payload, err := safecast.Conv[uint32](len(in.fns))
	if err != nil {
		panic(fmt.Errorf("len(fns) overflow: %w", err))
	}
	in.fns = append(in.fns, FnInfo{
		Params:   append([]TypeID(nil), params...),
		Result:   result,
		Variadic: variadic,
	})
	id := in.internRaw(Type{Kind: KindFunction, Payload: payload})
	in.aggIndex[key] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("air: invalid TypeID")
	}
	return tt
}

// StructInfo returns the field table of a struct TypeID.
func (in *Interner) StructInfo(id TypeID) (*StructInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindStruct || int(tt.Payload) >= len(in.structs) {
		return nil, false
	}
	return &in.structs[tt.Payload], true
}

// FnInfo returns the signature table of a function TypeID.
func (in *Interner) FnInfo(id TypeID) (*FnInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFunction || int(tt.Payload) >= len(in.fns) {
		return nil, false
	}
	return &in.fns[tt.Payload], true
}

// Pointee returns the pointee of a pointer TypeID, or NoTypeID.
func (in *Interner) Pointee(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindPointer {
		return NoTypeID
	}
	return tt.Elem
}

// IsPointer reports whether id is a pointer type.
func (in *Interner) IsPointer(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindPointer
}

// IsInteger reports whether id is an integer type.
func (in *Interner) IsInteger(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindInteger
}

// IsFloat reports whether id is a floating-point type.
func (in *Interner) IsFloat(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindFloat
}

// WithSign reinterns an integer descriptor under the requested signedness.
// Non-integer IDs are returned unchanged.
func (in *Interner) WithSign(id TypeID, sign Sign) TypeID {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindInteger || tt.Sign == sign {
		return id
	}
	tt.Sign = sign
	return in.Intern(tt)
}

// BitcastCompatible is the single legality oracle for bitcast emission:
// pointer to pointer, or integer to integer of identical bit width.
func (in *Interner) BitcastCompatible(a, b TypeID) bool {
	ta, ok := in.Lookup(a)
	if !ok {
		return false
	}
	tb, ok := in.Lookup(b)
	if !ok {
		return false
	}
	if ta.Kind == KindPointer && tb.Kind == KindPointer {
		return true
	}
	return ta.Kind == KindInteger && tb.Kind == KindInteger && ta.Width == tb.Width
}

// ReinterpretCompatible extends BitcastCompatible with same-width
// integer/float reinterpretations, which only explicit bitcasts may
// produce.
func (in *Interner) ReinterpretCompatible(a, b TypeID) bool {
	if in.BitcastCompatible(a, b) {
		return true
	}
	ta, ok := in.Lookup(a)
	if !ok {
		return false
	}
	tb, ok := in.Lookup(b)
	if !ok {
		return false
	}
	if ta.Kind == KindInteger && tb.Kind == KindFloat {
		return ta.Width == tb.Float.Bits()
	}
	if ta.Kind == KindFloat && tb.Kind == KindInteger {
		return ta.Float.Bits() == tb.Width
	}
	return false
}

// String renders a TypeID for dumps and error messages.
func (in *Interner) String(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch tt.Kind {
	case KindVoid:
		return "void"
	case KindInteger:
		return fmt.Sprintf("%s%d", tt.Sign, tt.Width)
	case KindFloat:
		return tt.Float.String()
	case KindPointer:
		return in.String(tt.Elem) + "*"
	case KindArray:
		return fmt.Sprintf("[%d x %s]", tt.Count, in.String(tt.Elem))
	case KindVector:
		return fmt.Sprintf("<%d x %s>", tt.Count, in.String(tt.Elem))
	case KindStruct:
		info, ok := in.StructInfo(id)
		if !ok {
			return "{?}"
		}
		parts := make([]string, 0, len(info.Fields))
		for _, f := range info.Fields {
			parts = append(parts, in.String(f.Type))
		}
		if info.Packed {
			return "<{" + strings.Join(parts, ", ") + "}>"
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindFunction:
		info, ok := in.FnInfo(id)
		if !ok {
			return "fn(?)"
		}
		parts := make([]string, 0, len(info.Params))
		for _, p := range info.Params {
			parts = append(parts, in.String(p))
		}
		if info.Variadic {
			parts = append(parts, "...")
		}
		return fmt.Sprintf("%s(%s)", in.String(info.Result), strings.Join(parts, ", "))
	default:
		return tt.Kind.String()
	}
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32
	Width   Width
	Sign    Sign
	Float   FloatSem
	Payload uint32
}
