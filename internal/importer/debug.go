package importer

import (
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/value"
)

// debugIndex is a one-pass index of the llvm.dbg.* calls of a function.
// Only calls whose DIExpression is empty participate: a non-identity
// expression means the variable does not hold the value directly.
type debugIndex struct {
	// declares maps an alloca (the address operand of dbg.declare or
	// dbg.addr) to the declared source-level type.
	declares map[value.Value]metadata.Field
	// values maps an SSA value (the operand of dbg.value) to the
	// source-level type of the variable it is a snapshot of.
	values map[value.Value]metadata.Field
}

func buildDebugIndex(f *ir.Func) *debugIndex {
	di := &debugIndex{
		declares: make(map[value.Value]metadata.Field),
		values:   make(map[value.Value]metadata.Field),
	}
	for _, block := range f.Blocks {
		for _, inst := range block.Insts {
			call, ok := inst.(*ir.InstCall)
			if !ok {
				continue
			}
			callee, ok := call.Callee.(*ir.Func)
			if !ok {
				continue
			}
			name := callee.Name()
			if !strings.HasPrefix(name, "llvm.dbg.") {
				continue
			}
			if len(call.Args) < 3 {
				continue
			}
			operand := mdOperandValue(call.Args[0])
			varType := mdLocalVarType(call.Args[1])
			if operand == nil || varType == nil || !mdExpressionEmpty(call.Args[2]) {
				continue
			}
			switch name {
			case "llvm.dbg.declare", "llvm.dbg.addr":
				if _, seen := di.declares[operand]; !seen {
					di.declares[operand] = varType
				}
			case "llvm.dbg.value":
				if _, seen := di.values[operand]; !seen {
					di.values[operand] = varType
				}
			}
		}
	}
	return di
}

// declareTypeOf returns the declared source type of an alloca, if any.
func (di *debugIndex) declareTypeOf(v value.Value) (metadata.Field, bool) {
	md, ok := di.declares[v]
	return md, ok
}

// valueTypeOf returns the snapshot source type of an SSA value, if any.
func (di *debugIndex) valueTypeOf(v value.Value) (metadata.Field, bool) {
	md, ok := di.values[v]
	return md, ok
}

// mdOperandValue unwraps the ir value carried by a metadata call
// argument.
func mdOperandValue(arg value.Value) value.Value {
	if mv, ok := arg.(*metadata.Value); ok {
		if inner, ok := any(mv.Value).(value.Value); ok {
			return inner
		}
		return nil
	}
	return arg
}

// mdLocalVarType extracts the DI type of a DILocalVariable argument.
func mdLocalVarType(arg value.Value) metadata.Field {
	node := any(arg)
	if mv, ok := arg.(*metadata.Value); ok {
		node = any(mv.Value)
	}
	if lv, ok := node.(*metadata.DILocalVariable); ok {
		return lv.Type
	}
	return nil
}

// mdExpressionEmpty reports whether the argument is an empty
// DIExpression.
func mdExpressionEmpty(arg value.Value) bool {
	node := any(arg)
	if mv, ok := arg.(*metadata.Value); ok {
		node = any(mv.Value)
	}
	expr, ok := node.(*metadata.DIExpression)
	return ok && len(expr.Fields) == 0
}
