package air

import "fmt"

// UnaryOpKind enumerates unary operation kinds.
type UnaryOpKind uint8

const (
	// UnaryUTrunc truncates an unsigned integer.
	UnaryUTrunc UnaryOpKind = iota
	// UnarySTrunc truncates a signed integer.
	UnarySTrunc
	// UnaryZExt zero-extends an unsigned integer.
	UnaryZExt
	// UnarySExt sign-extends a signed integer.
	UnarySExt
	// UnaryFPToUI converts a float to an unsigned integer.
	UnaryFPToUI
	// UnaryFPToSI converts a float to a signed integer.
	UnaryFPToSI
	// UnaryUIToFP converts an unsigned integer to a float.
	UnaryUIToFP
	// UnarySIToFP converts a signed integer to a float.
	UnarySIToFP
	// UnaryFPTrunc truncates a float.
	UnaryFPTrunc
	// UnaryFPExt extends a float.
	UnaryFPExt
	// UnaryPtrToUI converts a pointer to an unsigned integer.
	UnaryPtrToUI
	// UnaryPtrToSI converts a pointer to a signed integer.
	UnaryPtrToSI
	// UnaryUIToPtr converts an unsigned integer to a pointer.
	UnaryUIToPtr
	// UnarySIToPtr converts a signed integer to a pointer.
	UnarySIToPtr
	// UnaryBitcast reinterprets bits between compatible types.
	UnaryBitcast
)

func (op UnaryOpKind) String() string {
	switch op {
	case UnaryUTrunc:
		return "utrunc"
	case UnarySTrunc:
		return "strunc"
	case UnaryZExt:
		return "zext"
	case UnarySExt:
		return "sext"
	case UnaryFPToUI:
		return "fptoui"
	case UnaryFPToSI:
		return "fptosi"
	case UnaryUIToFP:
		return "uitofp"
	case UnarySIToFP:
		return "sitofp"
	case UnaryFPTrunc:
		return "fptrunc"
	case UnaryFPExt:
		return "fpext"
	case UnaryPtrToUI:
		return "ptotui"
	case UnaryPtrToSI:
		return "ptotsi"
	case UnaryUIToPtr:
		return "uitoptr"
	case UnarySIToPtr:
		return "sitoptr"
	case UnaryBitcast:
		return "bitcast"
	default:
		return fmt.Sprintf("UnaryOpKind(%d)", op)
	}
}

// BinaryOpKind enumerates binary operation kinds. Integer arithmetic
// comes in a signed and an unsigned variant.
type BinaryOpKind uint8

const (
	BinaryUAdd BinaryOpKind = iota
	BinarySAdd
	BinaryUSub
	BinarySSub
	BinaryUMul
	BinarySMul
	BinaryUDiv
	BinarySDiv
	BinaryURem
	BinarySRem
	BinaryUShl
	BinarySShl
	BinaryULShr
	BinarySLShr
	BinaryUAShr
	BinarySAShr
	BinaryUAnd
	BinarySAnd
	BinaryUOr
	BinarySOr
	BinaryUXor
	BinarySXor
	BinaryFAdd
	BinaryFSub
	BinaryFMul
	BinaryFDiv
	BinaryFRem
)

func (op BinaryOpKind) String() string {
	switch op {
	case BinaryUAdd:
		return "uadd"
	case BinarySAdd:
		return "sadd"
	case BinaryUSub:
		return "usub"
	case BinarySSub:
		return "ssub"
	case BinaryUMul:
		return "umul"
	case BinarySMul:
		return "smul"
	case BinaryUDiv:
		return "udiv"
	case BinarySDiv:
		return "sdiv"
	case BinaryURem:
		return "urem"
	case BinarySRem:
		return "srem"
	case BinaryUShl:
		return "ushl"
	case BinarySShl:
		return "sshl"
	case BinaryULShr:
		return "ulshr"
	case BinarySLShr:
		return "slshr"
	case BinaryUAShr:
		return "uashr"
	case BinarySAShr:
		return "sashr"
	case BinaryUAnd:
		return "uand"
	case BinarySAnd:
		return "sand"
	case BinaryUOr:
		return "uor"
	case BinarySOr:
		return "sor"
	case BinaryUXor:
		return "uxor"
	case BinarySXor:
		return "sxor"
	case BinaryFAdd:
		return "fadd"
	case BinaryFSub:
		return "fsub"
	case BinaryFMul:
		return "fmul"
	case BinaryFDiv:
		return "fdiv"
	case BinaryFRem:
		return "frem"
	default:
		return fmt.Sprintf("BinaryOpKind(%d)", op)
	}
}

// Predicate enumerates comparison predicates across the signed-integer,
// unsigned-integer, pointer and float families.
type Predicate uint8

const (
	PredUIEQ Predicate = iota
	PredUINE
	PredUIGT
	PredUIGE
	PredUILT
	PredUILE
	PredSIEQ
	PredSINE
	PredSIGT
	PredSIGE
	PredSILT
	PredSILE
	PredPEQ
	PredPNE
	PredPGT
	PredPGE
	PredPLT
	PredPLE
	PredFOEQ
	PredFOGT
	PredFOGE
	PredFOLT
	PredFOLE
	PredFONE
	PredFORD
	PredFUNO
	PredFUEQ
	PredFUGT
	PredFUGE
	PredFULT
	PredFULE
	PredFUNE
)

func (p Predicate) String() string {
	switch p {
	case PredUIEQ:
		return "uieq"
	case PredUINE:
		return "uine"
	case PredUIGT:
		return "uigt"
	case PredUIGE:
		return "uige"
	case PredUILT:
		return "uilt"
	case PredUILE:
		return "uile"
	case PredSIEQ:
		return "sieq"
	case PredSINE:
		return "sine"
	case PredSIGT:
		return "sigt"
	case PredSIGE:
		return "sige"
	case PredSILT:
		return "silt"
	case PredSILE:
		return "sile"
	case PredPEQ:
		return "peq"
	case PredPNE:
		return "pne"
	case PredPGT:
		return "pgt"
	case PredPGE:
		return "pge"
	case PredPLT:
		return "plt"
	case PredPLE:
		return "ple"
	case PredFOEQ:
		return "foeq"
	case PredFOGT:
		return "fogt"
	case PredFOGE:
		return "foge"
	case PredFOLT:
		return "folt"
	case PredFOLE:
		return "fole"
	case PredFONE:
		return "fone"
	case PredFORD:
		return "ford"
	case PredFUNO:
		return "funo"
	case PredFUEQ:
		return "fueq"
	case PredFUGT:
		return "fugt"
	case PredFUGE:
		return "fuge"
	case PredFULT:
		return "fult"
	case PredFULE:
		return "fule"
	case PredFUNE:
		return "fune"
	default:
		return fmt.Sprintf("Predicate(%d)", p)
	}
}

var predicateInverse = map[Predicate]Predicate{
	PredUIEQ: PredUINE,
	PredUINE: PredUIEQ,
	PredUIGT: PredUILE,
	PredUIGE: PredUILT,
	PredUILT: PredUIGE,
	PredUILE: PredUIGT,
	PredSIEQ: PredSINE,
	PredSINE: PredSIEQ,
	PredSIGT: PredSILE,
	PredSIGE: PredSILT,
	PredSILT: PredSIGE,
	PredSILE: PredSIGT,
	PredPEQ:  PredPNE,
	PredPNE:  PredPEQ,
	PredPGT:  PredPLE,
	PredPGE:  PredPLT,
	PredPLT:  PredPGE,
	PredPLE:  PredPGT,
	PredFOEQ: PredFUNE,
	PredFOGT: PredFULE,
	PredFOGE: PredFULT,
	PredFOLT: PredFUGE,
	PredFOLE: PredFUGT,
	PredFONE: PredFUEQ,
	PredFORD: PredFUNO,
	PredFUNO: PredFORD,
	PredFUEQ: PredFONE,
	PredFUGT: PredFOLE,
	PredFUGE: PredFOLT,
	PredFULT: PredFOGE,
	PredFULE: PredFOGT,
	PredFUNE: PredFOEQ,
}

// Inverse returns the predicate matching exactly the complement set of
// operand pairs.
func (p Predicate) Inverse() Predicate {
	inv, ok := predicateInverse[p]
	if !ok {
		panic("air: predicate without inverse")
	}
	return inv
}
