package importer

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"
)

// valueUse records one occurrence of a value as an operand: the using
// instruction or terminator, and the operand slot it fills.
type valueUse struct {
	user  any
	index int
}

// useIndex is a per-function reverse map from values to their uses,
// built in one pass over the blocks in definition order so that the
// use lists are deterministic.
type useIndex struct {
	uses map[value.Value][]valueUse
}

func buildUseIndex(f *ir.Func) *useIndex {
	ui := &useIndex{uses: make(map[value.Value][]valueUse, 64)}
	for _, block := range f.Blocks {
		for _, inst := range block.Insts {
			ui.record(inst, instOperands(inst))
		}
		ui.record(block.Term, termOperands(block.Term))
	}
	return ui
}

func (ui *useIndex) record(user any, operands []value.Value) {
	for i, op := range operands {
		if op == nil {
			continue
		}
		// Constants carry no inferable state; globals and functions
		// are constants in this representation too.
		if _, isConst := op.(constant.Constant); isConst {
			continue
		}
		ui.uses[op] = append(ui.uses[op], valueUse{user: user, index: i})
	}
}

// usesOf returns the recorded uses of v in block order.
func (ui *useIndex) usesOf(v value.Value) []valueUse {
	return ui.uses[v]
}

// usedOnlyBy reports whether v has exactly one use and that use is by
// the given user.
func (ui *useIndex) usedOnlyBy(v value.Value, user any) bool {
	uses := ui.uses[v]
	return len(uses) == 1 && uses[0].user == user
}

// instOperands enumerates an instruction's value operands. The slot
// numbering here is the contract the hint rules dispatch on: stores
// are (value, pointer), calls are (callee, args...), comparisons and
// binary operators are (lhs, rhs).
func instOperands(inst ir.Instruction) []value.Value {
	switch in := inst.(type) {
	case *ir.InstAlloca:
		if in.NElems != nil {
			return []value.Value{in.NElems}
		}
		return nil
	case *ir.InstLoad:
		return []value.Value{in.Src}
	case *ir.InstStore:
		return []value.Value{in.Src, in.Dst}
	case *ir.InstAdd:
		return []value.Value{in.X, in.Y}
	case *ir.InstSub:
		return []value.Value{in.X, in.Y}
	case *ir.InstMul:
		return []value.Value{in.X, in.Y}
	case *ir.InstUDiv:
		return []value.Value{in.X, in.Y}
	case *ir.InstSDiv:
		return []value.Value{in.X, in.Y}
	case *ir.InstURem:
		return []value.Value{in.X, in.Y}
	case *ir.InstSRem:
		return []value.Value{in.X, in.Y}
	case *ir.InstShl:
		return []value.Value{in.X, in.Y}
	case *ir.InstLShr:
		return []value.Value{in.X, in.Y}
	case *ir.InstAShr:
		return []value.Value{in.X, in.Y}
	case *ir.InstAnd:
		return []value.Value{in.X, in.Y}
	case *ir.InstOr:
		return []value.Value{in.X, in.Y}
	case *ir.InstXor:
		return []value.Value{in.X, in.Y}
	case *ir.InstFAdd:
		return []value.Value{in.X, in.Y}
	case *ir.InstFSub:
		return []value.Value{in.X, in.Y}
	case *ir.InstFMul:
		return []value.Value{in.X, in.Y}
	case *ir.InstFDiv:
		return []value.Value{in.X, in.Y}
	case *ir.InstFRem:
		return []value.Value{in.X, in.Y}
	case *ir.InstFNeg:
		return []value.Value{in.X}
	case *ir.InstTrunc:
		return []value.Value{in.From}
	case *ir.InstZExt:
		return []value.Value{in.From}
	case *ir.InstSExt:
		return []value.Value{in.From}
	case *ir.InstFPTrunc:
		return []value.Value{in.From}
	case *ir.InstFPExt:
		return []value.Value{in.From}
	case *ir.InstFPToUI:
		return []value.Value{in.From}
	case *ir.InstFPToSI:
		return []value.Value{in.From}
	case *ir.InstUIToFP:
		return []value.Value{in.From}
	case *ir.InstSIToFP:
		return []value.Value{in.From}
	case *ir.InstPtrToInt:
		return []value.Value{in.From}
	case *ir.InstIntToPtr:
		return []value.Value{in.From}
	case *ir.InstBitCast:
		return []value.Value{in.From}
	case *ir.InstAddrSpaceCast:
		return []value.Value{in.From}
	case *ir.InstGetElementPtr:
		ops := make([]value.Value, 0, 1+len(in.Indices))
		ops = append(ops, in.Src)
		for _, idx := range in.Indices {
			ops = append(ops, idx)
		}
		return ops
	case *ir.InstICmp:
		return []value.Value{in.X, in.Y}
	case *ir.InstFCmp:
		return []value.Value{in.X, in.Y}
	case *ir.InstPhi:
		ops := make([]value.Value, 0, len(in.Incs))
		for _, inc := range in.Incs {
			ops = append(ops, inc.X)
		}
		return ops
	case *ir.InstSelect:
		return []value.Value{in.Cond, in.ValueTrue, in.ValueFalse}
	case *ir.InstCall:
		ops := make([]value.Value, 0, 1+len(in.Args))
		ops = append(ops, in.Callee)
		for _, arg := range in.Args {
			ops = append(ops, arg)
		}
		return ops
	case *ir.InstExtractValue:
		return []value.Value{in.X}
	case *ir.InstInsertValue:
		return []value.Value{in.X, in.Elem}
	case *ir.InstExtractElement:
		return []value.Value{in.X, in.Index}
	case *ir.InstInsertElement:
		return []value.Value{in.X, in.Elem, in.Index}
	case *ir.InstVAArg:
		return []value.Value{in.ArgList}
	default:
		return nil
	}
}

// termOperands enumerates a terminator's value operands; block targets
// are not operands.
func termOperands(term ir.Terminator) []value.Value {
	switch t := term.(type) {
	case *ir.TermRet:
		if t.X != nil {
			return []value.Value{t.X}
		}
		return nil
	case *ir.TermCondBr:
		return []value.Value{t.Cond}
	case *ir.TermSwitch:
		return []value.Value{t.X}
	case *ir.TermInvoke:
		ops := make([]value.Value, 0, 1+len(t.Args))
		ops = append(ops, t.Invokee)
		for _, arg := range t.Args {
			ops = append(ops, arg)
		}
		return ops
	case *ir.TermResume:
		return []value.Value{t.X}
	default:
		return nil
	}
}
