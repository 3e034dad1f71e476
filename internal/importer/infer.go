package importer

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"arlift/internal/air"
)

// inferType picks the AIR type of an llir value. Debug info wins when
// present and consistent; otherwise hints gathered from the value's
// uses are scored, and an empty hint set falls back to a per-kind
// default.
func (fi *FunctionImporter) inferType(v value.Value) (air.TypeID, error) {
	in := fi.bundle.Interner
	ti := fi.bundle.Types

	if alloca, ok := v.(*ir.InstAlloca); ok {
		if di, found := fi.debug.declareTypeOf(alloca); found {
			isArray := alloca.NElems != nil
			if !isArray && (fi.strict || ti.MatchDIType(di, alloca.ElemType)) {
				pointee, err := ti.TranslateDIType(di, alloca.ElemType)
				if err != nil {
					return air.NoTypeID, err
				}
				return in.Intern(air.MakePointer(pointee)), nil
			}
			if isArray && (fi.strict || ti.MatchDIType(di, alloca.Typ)) {
				return ti.TranslateDIType(di, alloca.Typ)
			}
		}
	}

	if di, found := fi.debug.valueTypeOf(v); found {
		if fi.strict {
			return ti.TranslateDIType(di, v.Type())
		}
		if ti.MatchDIType(di, v.Type()) {
			return ti.TranslateDIType(di, v.Type())
		}
		// A dbg.value on an alloca sometimes describes the slot
		// content rather than the address.
		if alloca, ok := v.(*ir.InstAlloca); ok && ti.MatchDIType(di, alloca.ElemType) {
			pointee, err := ti.TranslateDIType(di, alloca.ElemType)
			if err != nil {
				return air.NoTypeID, err
			}
			return in.Intern(air.MakePointer(pointee)), nil
		}
	}

	hints := newHintSet()
	for _, u := range fi.uses.usesOf(v) {
		h, err := fi.inferTypeHintUse(v, u)
		if err != nil {
			return air.NoTypeID, err
		}
		hints.add(h)
	}
	if hints.empty() {
		return fi.inferDefaultType(v), nil
	}
	return hints.best(), nil
}

// inferDefaultType is the no-hint fallback: the callee's declared
// return type for direct calls, the cast's own result type with a
// sign taken from the opcode, and a signed reading of the llir type
// for everything else.
func (fi *FunctionImporter) inferDefaultType(v value.Value) air.TypeID {
	ti := fi.bundle.Types
	switch vv := v.(type) {
	case *ir.InstCall:
		if callee, ok := vv.Callee.(*ir.Func); ok {
			af := fi.bundle.TranslateFunction(callee)
			if info, ok := fi.bundle.Interner.FnInfo(af.Type); ok {
				return info.Result
			}
		}
	case *ir.InstZExt:
		return ti.TranslateType(vv.To, air.Unsigned)
	case *ir.InstFPToUI:
		return ti.TranslateType(vv.To, air.Unsigned)
	case *ir.InstTrunc:
		return ti.TranslateType(vv.To, air.Signed)
	case *ir.InstSExt:
		return ti.TranslateType(vv.To, air.Signed)
	case *ir.InstFPTrunc:
		return ti.TranslateType(vv.To, air.Signed)
	case *ir.InstFPExt:
		return ti.TranslateType(vv.To, air.Signed)
	case *ir.InstFPToSI:
		return ti.TranslateType(vv.To, air.Signed)
	case *ir.InstUIToFP:
		return ti.TranslateType(vv.To, air.Signed)
	case *ir.InstSIToFP:
		return ti.TranslateType(vv.To, air.Signed)
	case *ir.InstPtrToInt:
		return ti.TranslateType(vv.To, air.Signed)
	case *ir.InstIntToPtr:
		return ti.TranslateType(vv.To, air.Signed)
	case *ir.InstBitCast:
		return ti.TranslateType(vv.To, air.Signed)
	}
	return ti.TranslateType(v.Type(), air.Signed)
}

// inferTypeHintUse derives the hint one use site contributes for v.
// u.index addresses the operand slot v fills in the user, following
// the numbering of instOperands and termOperands.
func (fi *FunctionImporter) inferTypeHintUse(v value.Value, u valueUse) (typeHint, error) {
	ti := fi.bundle.Types
	in := fi.bundle.Interner

	switch user := u.user.(type) {
	case *ir.InstAlloca:
		// v is the array size operand.
		return hintOf(ti.TranslateType(v.Type(), air.Unsigned), 5), nil

	case *ir.InstStore:
		if u.index == 0 {
			// Stored value: the pointee of whatever the pointer looks
			// like.
			h, err := fi.operandHint(user.Dst)
			if err != nil || h.empty() {
				return noHint(), err
			}
			if pointee := in.Pointee(h.typ); pointee != air.NoTypeID {
				return hintOf(pointee, h.score), nil
			}
			return noHint(), nil
		}
		// Pointer operand: a pointer to whatever the value looks like.
		h, err := fi.operandHint(user.Src)
		if err != nil || h.empty() {
			return noHint(), err
		}
		return hintOf(in.Intern(air.MakePointer(h.typ)), h.score), nil

	case *ir.InstLoad:
		h, err := fi.operandHint(user)
		if err != nil || h.empty() {
			return noHint(), err
		}
		return hintOf(in.Intern(air.MakePointer(h.typ)), h.score), nil

	case *ir.InstCall:
		return fi.callArgHint(user.Callee, u.index)

	case *ir.TermInvoke:
		return fi.callArgHint(user.Invokee, u.index)

	case *ir.InstZExt:
		return hintOf(ti.TranslateType(user.From.Type(), air.Unsigned), 5), nil
	case *ir.InstSExt:
		return hintOf(ti.TranslateType(user.From.Type(), air.Signed), 5), nil
	case *ir.InstUIToFP:
		return hintOf(ti.TranslateType(user.From.Type(), air.Unsigned), 5), nil
	case *ir.InstSIToFP:
		return hintOf(ti.TranslateType(user.From.Type(), air.Signed), 5), nil
	case *ir.InstIntToPtr:
		return hintOf(ti.TranslateType(user.From.Type(), air.Unsigned), 5), nil
	case *ir.InstTrunc, *ir.InstFPTrunc, *ir.InstFPExt,
		*ir.InstFPToUI, *ir.InstFPToSI, *ir.InstPtrToInt, *ir.InstBitCast:
		return noHint(), nil
	case *ir.InstAddrSpaceCast:
		return noHint(), Errorf("unsupported cast opcode addrspacecast")

	case *ir.InstGetElementPtr:
		return noHint(), nil

	case *ir.InstAdd:
		return fi.wrapSignHint(v, user.OverflowFlags), nil
	case *ir.InstSub:
		return fi.wrapSignHint(v, user.OverflowFlags), nil
	case *ir.InstMul:
		return fi.wrapSignHint(v, user.OverflowFlags), nil
	case *ir.InstUDiv:
		return hintOf(ti.TranslateType(v.Type(), air.Unsigned), 5), nil
	case *ir.InstURem:
		return hintOf(ti.TranslateType(v.Type(), air.Unsigned), 5), nil
	case *ir.InstSDiv:
		return hintOf(ti.TranslateType(v.Type(), air.Signed), 5), nil
	case *ir.InstSRem:
		return hintOf(ti.TranslateType(v.Type(), air.Signed), 5), nil
	case *ir.InstShl:
		return noHint(), nil
	case *ir.InstLShr:
		if u.index == 0 {
			return hintOf(ti.TranslateType(v.Type(), air.Unsigned), 5), nil
		}
		return noHint(), nil
	case *ir.InstAShr:
		if u.index == 0 {
			return hintOf(ti.TranslateType(v.Type(), air.Signed), 5), nil
		}
		return noHint(), nil
	case *ir.InstAnd:
		return hintOf(ti.TranslateType(v.Type(), air.Unsigned), 1), nil
	case *ir.InstOr:
		return hintOf(ti.TranslateType(v.Type(), air.Unsigned), 1), nil
	case *ir.InstXor:
		return hintOf(ti.TranslateType(v.Type(), air.Unsigned), 1), nil
	case *ir.InstFAdd, *ir.InstFSub, *ir.InstFMul, *ir.InstFDiv, *ir.InstFRem, *ir.InstFNeg:
		return noHint(), nil

	case *ir.InstICmp:
		return fi.cmpHint(v, user, u.index)
	case *ir.InstFCmp:
		return noHint(), nil

	case *ir.TermCondBr:
		return hintOf(ti.TranslateType(user.Cond.Type(), air.Unsigned), 2), nil

	case *ir.TermRet:
		info, ok := in.FnInfo(fi.af.Type)
		if !ok {
			return noHint(), Errorf("function %s has no signature", fi.af.Name)
		}
		return hintOf(info.Result, 5), nil

	case *ir.InstPhi:
		h, err := fi.operandHint(user)
		if err != nil {
			return noHint(), err
		}
		return h, nil

	case *ir.InstExtractValue, *ir.InstInsertValue, *ir.TermResume:
		return noHint(), nil

	case *ir.InstSelect:
		return noHint(), Errorf("select instruction not supported (use the -lower-select pass?)")
	case *ir.TermSwitch:
		return noHint(), Errorf("switch instruction not supported (use the -lowerswitch pass?)")

	default:
		return noHint(), nil
	}
}

// callArgHint is the call and invoke hint rule: the declared parameter
// type of a direct callee, trusted strongly, more so when the callee
// carries debug info. Indirect calls, ignored intrinsics, the callee
// slot and the variadic tail contribute nothing.
func (fi *FunctionImporter) callArgHint(callee value.Value, index int) (typeHint, error) {
	if index == 0 {
		return noHint(), nil
	}
	fn, ok := callee.(*ir.Func)
	if !ok {
		return noHint(), nil
	}
	if fi.bundle.IgnoreIntrinsic(fn.Name()) {
		return noHint(), nil
	}
	argIdx := index - 1
	if argIdx >= len(fn.Sig.Params) {
		return noHint(), nil
	}
	af := fi.bundle.TranslateFunction(fn)
	info, ok := fi.bundle.Interner.FnInfo(af.Type)
	if !ok || argIdx >= len(info.Params) {
		return noHint(), nil
	}
	score := uint32(10)
	if fi.bundle.HasDebugInfo(fn) {
		score = 1000
	}
	return hintOf(info.Params[argIdx], score), nil
}

// wrapSignHint reads nsw/nuw to choose the sign of add, sub and mul
// operands. Untagged arithmetic reads as unsigned, the sign whose
// overflow is well defined.
func (fi *FunctionImporter) wrapSignHint(v value.Value, flags []enum.OverflowFlag) typeHint {
	sign := air.Unsigned
	for _, f := range flags {
		if f == enum.OverflowFlagNSW {
			sign = air.Signed
		}
	}
	return hintOf(fi.bundle.Types.TranslateType(v.Type(), sign), 5)
}

// cmpHint reads the predicate of an integer comparison: signed and
// unsigned predicates state the sign outright; equality defers to the
// other operand with a weak score.
func (fi *FunctionImporter) cmpHint(v value.Value, cmp *ir.InstICmp, index int) (typeHint, error) {
	ti := fi.bundle.Types
	other := cmp.Y
	if index == 1 {
		other = cmp.X
	}
	switch v.Type().(type) {
	case *lltypes.IntType:
		switch cmp.Pred {
		case enum.IPredSGT, enum.IPredSGE, enum.IPredSLT, enum.IPredSLE:
			return hintOf(ti.TranslateType(v.Type(), air.Signed), 5), nil
		case enum.IPredUGT, enum.IPredUGE, enum.IPredULT, enum.IPredULE:
			return hintOf(ti.TranslateType(v.Type(), air.Unsigned), 5), nil
		case enum.IPredEQ, enum.IPredNE:
			h, err := fi.operandHint(other)
			if err != nil {
				return noHint(), err
			}
			return h.withScore(2), nil
		default:
			return noHint(), Errorf("unexpected integer comparison predicate %v", cmp.Pred)
		}
	case *lltypes.PointerType:
		h, err := fi.operandHint(other)
		if err != nil {
			return noHint(), err
		}
		return h.withScore(2), nil
	default:
		return noHint(), Errorf("unexpected comparison operand type %v", v.Type())
	}
}

// operandHint reads a hint from a value standing as the other side of
// a use. Globals and functions expose their declared AIR type, trusted
// strongly. Translated locals expose their recorded type with a weak
// score. Constants carry no sign information.
func (fi *FunctionImporter) operandHint(v value.Value) (typeHint, error) {
	in := fi.bundle.Interner
	switch vv := v.(type) {
	case *ir.Global:
		ag := fi.bundle.TranslateGlobal(vv)
		score := uint32(10)
		if globalHasDebugInfo(vv) {
			score = 1000
		}
		return hintOf(ag.Type, score), nil
	case *ir.Alias:
		return fi.operandHint(vv.Aliasee)
	case *ir.Func:
		af := fi.bundle.TranslateFunction(vv)
		score := uint32(10)
		if fi.bundle.HasDebugInfo(vv) {
			score = 1000
		}
		return hintOf(in.Intern(air.MakePointer(af.Type)), score), nil
	case *ir.Param:
		w, ok := fi.vars[vv]
		if !ok {
			return noHint(), Errorf("parameter %s not registered", vv.Ident())
		}
		score := uint32(10)
		if fi.hasDebug {
			score = 1000
		}
		return hintOf(w.Type, score), nil
	default:
		if _, isConst := v.(constant.Constant); isConst {
			return noHint(), nil
		}
		if w, ok := fi.vars[v]; ok {
			return hintOf(w.Type, 2), nil
		}
		// Not translated yet. Re-entering inference here could loop
		// through mutually dependent values.
		return noHint(), nil
	}
}

func globalHasDebugInfo(g *ir.Global) bool {
	for _, md := range g.Metadata {
		if md.Name == "dbg" {
			return true
		}
	}
	return false
}
