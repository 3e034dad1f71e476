package air

import "fmt"

// ValueKind distinguishes operand kinds.
type ValueKind uint8

const (
	// ValueNone is the zero operand, used where a value is optional.
	ValueNone ValueKind = iota
	// ValueVar references a variable.
	ValueVar
	// ValueInt is an integer constant.
	ValueInt
	// ValueFloat is a floating-point constant.
	ValueFloat
	// ValueNull is a null pointer constant.
	ValueNull
	// ValueUndef is an undefined constant.
	ValueUndef
	// ValueZero is an aggregate zero constant.
	ValueZero
	// ValueGlobal references a global variable by name.
	ValueGlobal
	// ValueFunc references a function by name.
	ValueFunc
	// ValueAsm is an inline assembly constant.
	ValueAsm
)

// Value is an AIR operand. Every operand carries its type.
type Value struct {
	Kind ValueKind
	Type TypeID

	Var VarID // ValueVar

	// Int holds the raw two's-complement bits of an integer constant;
	// Text preserves the literal when it does not fit 64 bits.
	Int  uint64
	Text string

	FloatValue float64

	// Name of the referenced global or function.
	Name string

	// Inline assembly string and constraints.
	Asm        string
	Constraint string
}

// VarValue builds a variable operand.
func VarValue(v *Variable) Value {
	return Value{Kind: ValueVar, Type: v.Type, Var: v.ID}
}

// IntValue builds an integer constant operand.
func IntValue(typ TypeID, bits uint64) Value {
	return Value{Kind: ValueInt, Type: typ, Int: bits}
}

// FloatValue builds a float constant operand.
func FloatValue(typ TypeID, f float64) Value {
	return Value{Kind: ValueFloat, Type: typ, FloatValue: f}
}

// NullValue builds a null pointer constant operand.
func NullValue(typ TypeID) Value {
	return Value{Kind: ValueNull, Type: typ}
}

// UndefValue builds an undefined constant operand.
func UndefValue(typ TypeID) Value {
	return Value{Kind: ValueUndef, Type: typ}
}

// ZeroValue builds an aggregate zero constant operand.
func ZeroValue(typ TypeID) Value {
	return Value{Kind: ValueZero, Type: typ}
}

// GlobalValue builds a global reference operand.
func GlobalValue(typ TypeID, name string) Value {
	return Value{Kind: ValueGlobal, Type: typ, Name: name}
}

// FuncValue builds a function reference operand.
func FuncValue(typ TypeID, name string) Value {
	return Value{Kind: ValueFunc, Type: typ, Name: name}
}

// AsmValue builds an inline assembly operand.
func AsmValue(typ TypeID, asm, constraint string) Value {
	return Value{Kind: ValueAsm, Type: typ, Asm: asm, Constraint: constraint}
}

// IsConst reports whether the operand is a constant of any kind.
func (v Value) IsConst() bool {
	switch v.Kind {
	case ValueInt, ValueFloat, ValueNull, ValueUndef, ValueZero, ValueGlobal, ValueFunc, ValueAsm:
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.Kind {
	case ValueNone:
		return "_"
	case ValueVar:
		return fmt.Sprintf("%%%d", v.Var)
	case ValueInt:
		if v.Text != "" {
			return v.Text
		}
		return fmt.Sprintf("%d", v.Int)
	case ValueFloat:
		return fmt.Sprintf("%g", v.FloatValue)
	case ValueNull:
		return "null"
	case ValueUndef:
		return "undef"
	case ValueZero:
		return "zeroinit"
	case ValueGlobal:
		return "@" + v.Name
	case ValueFunc:
		return "@" + v.Name
	case ValueAsm:
		return fmt.Sprintf("asm(%q)", v.Asm)
	default:
		return fmt.Sprintf("Value(%d)", v.Kind)
	}
}
