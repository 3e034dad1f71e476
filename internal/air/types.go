package air

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindInteger
	KindFloat
	KindPointer
	KindFunction
	KindStruct
	KindArray
	KindVector
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindInteger:
		return "int"
	case KindFloat:
		return "float"
	case KindPointer:
		return "pointer"
	case KindFunction:
		return "function"
	case KindStruct:
		return "struct"
	case KindArray:
		return "array"
	case KindVector:
		return "vector"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Sign is the signedness carried by every integer type.
type Sign uint8

const (
	Unsigned Sign = iota
	Signed
)

func (s Sign) String() string {
	if s == Signed {
		return "si"
	}
	return "ui"
}

// Opposite returns the flipped signedness.
func (s Sign) Opposite() Sign {
	if s == Signed {
		return Unsigned
	}
	return Signed
}

// Width is a bit width for integer types.
type Width uint16

// FloatSem enumerates floating-point semantics.
type FloatSem uint8

const (
	FloatHalf FloatSem = iota
	FloatSingle
	FloatDouble
	FloatX86FP80
	FloatFP128
	FloatPPCFP128
)

func (f FloatSem) String() string {
	switch f {
	case FloatHalf:
		return "half"
	case FloatSingle:
		return "float"
	case FloatDouble:
		return "double"
	case FloatX86FP80:
		return "x86_fp80"
	case FloatFP128:
		return "fp128"
	case FloatPPCFP128:
		return "ppc_fp128"
	default:
		return fmt.Sprintf("FloatSem(%d)", f)
	}
}

// Bits returns the storage width of the semantics in bits.
func (f FloatSem) Bits() Width {
	switch f {
	case FloatHalf:
		return 16
	case FloatSingle:
		return 32
	case FloatDouble:
		return 64
	case FloatX86FP80:
		return 80
	case FloatFP128, FloatPPCFP128:
		return 128
	default:
		return 0
	}
}

// Type is a compact descriptor for any supported type. Aggregate and
// function payloads live in interner side tables addressed by Payload.
type Type struct {
	Kind    Kind
	Elem    TypeID // pointee / array element / vector element
	Count   uint32 // array or vector length
	Width   Width  // integer bit width
	Sign    Sign   // integers only
	Float   FloatSem
	Payload uint32 // struct/function side-table index
}

// Descriptor helpers ---------------------------------------------------------

// MakeInteger describes an integer of the given width and signedness.
func MakeInteger(width Width, sign Sign) Type {
	return Type{Kind: KindInteger, Width: width, Sign: sign}
}

// MakeFloat describes a floating-point type.
func MakeFloat(sem FloatSem) Type {
	return Type{Kind: KindFloat, Float: sem}
}

// MakePointer describes a pointer to elem.
func MakePointer(elem TypeID) Type {
	return Type{Kind: KindPointer, Elem: elem}
}

// MakeArray describes an array of count elements.
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

// MakeVector describes a vector of count elements.
func MakeVector(elem TypeID, count uint32) Type {
	return Type{Kind: KindVector, Elem: elem, Count: count}
}

// StructField is one member of a struct descriptor.
type StructField struct {
	Type TypeID
}

// StructInfo is the side-table payload of a struct type.
type StructInfo struct {
	Fields []StructField
	Packed bool
}

// FnInfo is the side-table payload of a function type.
type FnInfo struct {
	Params   []TypeID
	Result   TypeID // NoTypeID for void results is not used; Void is interned
	Variadic bool
}
