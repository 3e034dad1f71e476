package air

import "fmt"

// VarID identifies a variable inside one function's Code.
type VarID int32

// NoVarID marks the absence of a variable.
const NoVarID VarID = -1

// SourceID is an opaque provenance handle pointing back at the frontend
// construct a node was translated from. Zero means no provenance.
type SourceID uint32

// VarKind distinguishes variable storage classes.
type VarKind uint8

const (
	// VarParam is a function parameter.
	VarParam VarKind = iota
	// VarLocal is a stack variable produced by an allocation.
	VarLocal
	// VarInternal is a register-like SSA result.
	VarInternal
)

func (k VarKind) String() string {
	switch k {
	case VarParam:
		return "param"
	case VarLocal:
		return "local"
	case VarInternal:
		return "internal"
	default:
		return fmt.Sprintf("VarKind(%d)", k)
	}
}

// Variable is a typed slot owned by a Code.
type Variable struct {
	ID     VarID
	Kind   VarKind
	Name   string
	Type   TypeID
	Source SourceID
}
