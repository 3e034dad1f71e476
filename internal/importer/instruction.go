package importer

import (
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"arlift/internal/air"
)

// translateInstruction lowers one llir instruction into the block fan.
// The merge pre-rule runs first: when the block has fanned out from a
// comparison, everything except further comparisons and binary
// operations funnels the fan back into a single output.
func (fi *FunctionImporter) translateInstruction(bt *blockTranslation, inst ir.Instruction) error {
	if call, ok := inst.(*ir.InstCall); ok {
		if fn, ok := call.Callee.(*ir.Func); ok && fi.bundle.IgnoreIntrinsic(fn.Name()) {
			return nil
		}
	}
	switch inst.(type) {
	case *ir.InstICmp, *ir.InstFCmp,
		*ir.InstAdd, *ir.InstSub, *ir.InstMul,
		*ir.InstUDiv, *ir.InstSDiv, *ir.InstURem, *ir.InstSRem,
		*ir.InstShl, *ir.InstLShr, *ir.InstAShr,
		*ir.InstAnd, *ir.InstOr, *ir.InstXor,
		*ir.InstFAdd, *ir.InstFSub, *ir.InstFMul, *ir.InstFDiv, *ir.InstFRem:
	default:
		bt.mergeOutputs()
	}

	switch in := inst.(type) {
	case *ir.InstAlloca:
		return fi.translateAlloca(bt, in)
	case *ir.InstLoad:
		return fi.translateLoad(bt, in)
	case *ir.InstStore:
		return fi.translateStore(bt, in)
	case *ir.InstCall:
		return fi.translateCall(bt, in)

	case *ir.InstAdd:
		opType := fi.bundle.Types.TranslateType(in.X.Type(), wrapSign(in.OverflowFlags))
		return fi.emitIntBinary(bt, in, in.X, in.Y, opType, air.BinaryUAdd, air.BinarySAdd, len(in.OverflowFlags) > 0, false)
	case *ir.InstSub:
		opType := fi.bundle.Types.TranslateType(in.X.Type(), wrapSign(in.OverflowFlags))
		return fi.emitIntBinary(bt, in, in.X, in.Y, opType, air.BinaryUSub, air.BinarySSub, len(in.OverflowFlags) > 0, false)
	case *ir.InstMul:
		opType := fi.bundle.Types.TranslateType(in.X.Type(), wrapSign(in.OverflowFlags))
		return fi.emitIntBinary(bt, in, in.X, in.Y, opType, air.BinaryUMul, air.BinarySMul, len(in.OverflowFlags) > 0, false)
	case *ir.InstUDiv:
		opType := fi.bundle.Types.TranslateType(in.X.Type(), air.Unsigned)
		return fi.emitIntBinary(bt, in, in.X, in.Y, opType, air.BinaryUDiv, air.BinarySDiv, false, in.Exact)
	case *ir.InstSDiv:
		opType := fi.bundle.Types.TranslateType(in.X.Type(), air.Signed)
		return fi.emitIntBinary(bt, in, in.X, in.Y, opType, air.BinaryUDiv, air.BinarySDiv, false, in.Exact)
	case *ir.InstURem:
		opType := fi.bundle.Types.TranslateType(in.X.Type(), air.Unsigned)
		return fi.emitIntBinary(bt, in, in.X, in.Y, opType, air.BinaryURem, air.BinarySRem, false, false)
	case *ir.InstSRem:
		opType := fi.bundle.Types.TranslateType(in.X.Type(), air.Signed)
		return fi.emitIntBinary(bt, in, in.X, in.Y, opType, air.BinaryURem, air.BinarySRem, false, false)
	case *ir.InstShl:
		opType, err := fi.bitwiseOpType(bt, in, in.X, in.Y)
		if err != nil {
			return err
		}
		return fi.emitIntBinary(bt, in, in.X, in.Y, opType, air.BinaryUShl, air.BinarySShl, len(in.OverflowFlags) > 0, false)
	case *ir.InstLShr:
		opType, err := fi.bitwiseOpType(bt, in, in.X, in.Y)
		if err != nil {
			return err
		}
		return fi.emitIntBinary(bt, in, in.X, in.Y, opType, air.BinaryULShr, air.BinarySLShr, false, in.Exact)
	case *ir.InstAShr:
		opType, err := fi.bitwiseOpType(bt, in, in.X, in.Y)
		if err != nil {
			return err
		}
		return fi.emitIntBinary(bt, in, in.X, in.Y, opType, air.BinaryUAShr, air.BinarySAShr, false, in.Exact)
	case *ir.InstAnd:
		opType, err := fi.bitwiseOpType(bt, in, in.X, in.Y)
		if err != nil {
			return err
		}
		return fi.emitIntBinary(bt, in, in.X, in.Y, opType, air.BinaryUAnd, air.BinarySAnd, false, false)
	case *ir.InstOr:
		opType, err := fi.bitwiseOpType(bt, in, in.X, in.Y)
		if err != nil {
			return err
		}
		return fi.emitIntBinary(bt, in, in.X, in.Y, opType, air.BinaryUOr, air.BinarySOr, false, false)
	case *ir.InstXor:
		opType, err := fi.bitwiseOpType(bt, in, in.X, in.Y)
		if err != nil {
			return err
		}
		return fi.emitIntBinary(bt, in, in.X, in.Y, opType, air.BinaryUXor, air.BinarySXor, false, false)

	case *ir.InstFAdd:
		return fi.emitFloatBinary(bt, in, in.X, in.Y, air.BinaryFAdd)
	case *ir.InstFSub:
		return fi.emitFloatBinary(bt, in, in.X, in.Y, air.BinaryFSub)
	case *ir.InstFMul:
		return fi.emitFloatBinary(bt, in, in.X, in.Y, air.BinaryFMul)
	case *ir.InstFDiv:
		return fi.emitFloatBinary(bt, in, in.X, in.Y, air.BinaryFDiv)
	case *ir.InstFRem:
		return fi.emitFloatBinary(bt, in, in.X, in.Y, air.BinaryFRem)

	case *ir.InstTrunc, *ir.InstZExt, *ir.InstSExt,
		*ir.InstFPTrunc, *ir.InstFPExt, *ir.InstFPToUI, *ir.InstFPToSI,
		*ir.InstUIToFP, *ir.InstSIToFP, *ir.InstPtrToInt, *ir.InstIntToPtr:
		return fi.translateCast(bt, inst)
	case *ir.InstBitCast:
		return fi.translateBitCast(bt, in)
	case *ir.InstAddrSpaceCast:
		return Errorf("unsupported cast opcode addrspacecast")

	case *ir.InstGetElementPtr:
		return fi.translateGEP(bt, in)
	case *ir.InstICmp:
		return fi.translateICmp(bt, in)
	case *ir.InstFCmp:
		return fi.translateFCmp(bt, in)
	case *ir.InstPhi:
		// Incoming assignments are wired after all blocks exist.
		typ, err := fi.inferType(in)
		if err != nil {
			return err
		}
		fi.defineVar(in, air.VarInternal, typ)
		return nil
	case *ir.InstSelect:
		return Errorf("select instruction not supported (use the -lower-select pass?)")
	case *ir.InstExtractValue:
		return fi.translateExtractValue(bt, in)
	case *ir.InstInsertValue:
		return fi.translateInsertValue(bt, in)
	case *ir.InstLandingPad:
		typ, err := fi.inferType(in)
		if err != nil {
			return err
		}
		w := fi.defineVar(in, air.VarInternal, typ)
		bt.addStatement(&air.Statement{
			Kind:       air.StmtLandingPad,
			Source:     fi.sourceOf(inst),
			LandingPad: air.LandingPadStmt{Dst: w.ID},
		})
		return nil
	default:
		return Errorf("unsupported instruction")
	}
}

func (fi *FunctionImporter) translateTerminator(bt *blockTranslation, term ir.Terminator) error {
	switch t := term.(type) {
	case *ir.TermBr:
		bt.addUnconditionalBranching(t.Target.(*ir.Block))
		return nil
	case *ir.TermCondBr:
		return fi.translateCondBr(bt, t)
	case *ir.TermRet:
		bt.mergeOutputs()
		stmt := &air.Statement{Kind: air.StmtReturn, Source: fi.sourceOf(term)}
		if t.X != nil {
			info, _ := fi.bundle.Interner.FnInfo(fi.af.Type)
			val, err := fi.translateValue(bt, t.X, info.Result)
			if err != nil {
				return err
			}
			stmt.Return = air.ReturnStmt{HasValue: true, Value: val}
		}
		bt.addStatement(stmt)
		return bt.markExit()
	case *ir.TermUnreachable:
		bt.mergeOutputs()
		bt.addStatement(&air.Statement{Kind: air.StmtUnreachable, Source: fi.sourceOf(term)})
		return bt.markUnreachable()
	case *ir.TermResume:
		bt.mergeOutputs()
		op, err := fi.translateValue(bt, t.X, air.NoTypeID)
		if err != nil {
			return err
		}
		bt.addStatement(&air.Statement{
			Kind:   air.StmtResume,
			Source: fi.sourceOf(term),
			Resume: air.ResumeStmt{Operand: op},
		})
		return bt.markEHResume()
	case *ir.TermInvoke:
		bt.mergeOutputs()
		if err := fi.translateCallLike(bt, t, t.Invokee, t.Args, true); err != nil {
			return err
		}
		return bt.addInvokeBranching(t.NormalRetTarget.(*ir.Block), t.ExceptionRetTarget.(*ir.Block))
	case *ir.TermSwitch:
		return Errorf("switch instruction not supported (use the -lowerswitch pass?)")
	default:
		return Errorf("unsupported terminator")
	}
}

func (fi *FunctionImporter) translateCondBr(bt *blockTranslation, t *ir.TermCondBr) error {
	if c, ok := t.Cond.(*constant.Int); ok {
		succ := t.TargetFalse
		if c.X.Sign() != 0 {
			succ = t.TargetTrue
		}
		bt.addUnconditionalBranching(succ.(*ir.Block))
		return nil
	}
	cond, ok := fi.vars[t.Cond]
	if !ok {
		return Errorf("unexpected branch condition %s", t.Cond.Ident())
	}
	eq := air.PredUIEQ
	if desc := fi.bundle.Interner.MustLookup(cond.Type); desc.Kind == air.KindInteger && desc.Sign == air.Signed {
		eq = air.PredSIEQ
	}
	singleUse := fi.uses.usedOnlyBy(t.Cond, t)
	bt.addConditionalBranching(cond, eq, t.TargetTrue.(*ir.Block), t.TargetFalse.(*ir.Block), singleUse, fi.sourceOf(t))
	return nil
}

func (fi *FunctionImporter) translateAlloca(bt *blockTranslation, in *ir.InstAlloca) error {
	typ, err := fi.inferType(in)
	if err != nil {
		return err
	}
	pointee := fi.bundle.Interner.Pointee(typ)
	if pointee == air.NoTypeID {
		return Errorf("expected pointer type for alloca %s", in.Ident())
	}
	src := fi.sourceOf(in)
	count := air.IntValue(fi.sizeType(), 1)
	if in.NElems != nil {
		count, err = fi.castToSizeType(bt, in.NElems, src)
		if err != nil {
			return err
		}
	}
	w := fi.defineVar(in, air.VarLocal, typ)
	bt.addStatement(&air.Statement{
		Kind:     air.StmtAllocate,
		Source:   src,
		Allocate: air.AllocateStmt{Dst: w.ID, Elem: pointee, Count: count},
	})
	return nil
}

func (fi *FunctionImporter) translateLoad(bt *blockTranslation, in *ir.InstLoad) error {
	typ, err := fi.inferType(in)
	if err != nil {
		return err
	}
	w := fi.defineVar(in, air.VarInternal, typ)
	ptr, err := fi.translateValue(bt, in.Src, fi.bundle.Interner.Intern(air.MakePointer(typ)))
	if err != nil {
		return err
	}
	bt.addStatement(&air.Statement{
		Kind:   air.StmtLoad,
		Source: fi.sourceOf(in),
		Load:   air.LoadStmt{Dst: w.ID, Ptr: ptr, Align: uint32(in.Align), Volatile: in.Volatile},
	})
	return nil
}

func (fi *FunctionImporter) translateStore(bt *blockTranslation, in *ir.InstStore) error {
	ptr, err := fi.translateValue(bt, in.Dst, air.NoTypeID)
	if err != nil {
		return err
	}
	pointee := fi.bundle.Interner.Pointee(ptr.Type)
	if pointee == air.NoTypeID {
		return Errorf("expected pointer store destination")
	}
	val, err := fi.translateValue(bt, in.Src, pointee)
	if err != nil {
		return err
	}
	bt.addStatement(&air.Statement{
		Kind:   air.StmtStore,
		Source: fi.sourceOf(in),
		Store:  air.StoreStmt{Ptr: ptr, Val: val, Align: uint32(in.Align), Volatile: in.Volatile},
	})
	return nil
}

// translateCall dispatches intrinsics with dedicated statement forms
// and lowers everything else through the shared call path.
func (fi *FunctionImporter) translateCall(bt *blockTranslation, in *ir.InstCall) error {
	if fn, ok := in.Callee.(*ir.Func); ok {
		name := fn.Name()
		switch {
		case strings.HasPrefix(name, "llvm.memcpy"):
			return fi.translateMemTransfer(bt, in, air.StmtMemCopy)
		case strings.HasPrefix(name, "llvm.memmove"):
			return fi.translateMemTransfer(bt, in, air.StmtMemMove)
		case strings.HasPrefix(name, "llvm.memset"):
			return fi.translateMemSet(bt, in)
		case strings.HasPrefix(name, "llvm.va_start"):
			return fi.translateVa(bt, in, air.StmtVaStart)
		case strings.HasPrefix(name, "llvm.va_end"):
			return fi.translateVa(bt, in, air.StmtVaEnd)
		case strings.HasPrefix(name, "llvm.va_copy"):
			return fi.translateVa(bt, in, air.StmtVaCopy)
		}
	}
	return fi.translateCallLike(bt, in, in.Callee, in.Args, false)
}

// translateCallLike is the shared call and invoke lowering. Argument
// types are forced to the declared signature for direct callees and
// for plain constants; call results are reconciled with the inferred
// type through a bitcast, invoke results are not, so the invoke stays
// the trailing statement for the branching fan-out.
func (fi *FunctionImporter) translateCallLike(bt *blockTranslation, inst value.Value, callee value.Value, args []value.Value, isInvoke bool) error {
	in := fi.bundle.Interner
	src := fi.sourceOf(inst)

	calleeVal, err := fi.translateValue(bt, callee, air.NoTypeID)
	if err != nil {
		return err
	}
	fnType := in.Pointee(calleeVal.Type)
	info, ok := in.FnInfo(fnType)
	if !ok {
		return Errorf("expected function pointer callee, got %s", in.String(calleeVal.Type))
	}

	_, direct := callee.(*ir.Func)
	argVals := make([]air.Value, 0, len(args))
	for i, arg := range args {
		target := air.NoTypeID
		if i < len(info.Params) && (direct || isNonGlobalConstant(arg)) {
			target = info.Params[i]
		}
		av, err := fi.translateValue(bt, arg, target)
		if err != nil {
			return err
		}
		argVals = append(argVals, av)
	}

	kind := air.StmtCall
	if isInvoke {
		kind = air.StmtInvoke
	}
	stmt := &air.Statement{
		Kind:   kind,
		Source: src,
		Call:   air.CallStmt{Callee: calleeVal, Args: argVals},
	}

	if _, isVoid := inst.Type().(*lltypes.VoidType); isVoid {
		bt.addStatement(stmt)
		return nil
	}

	if isInvoke {
		// invoke terminates its block, so there is no room for a
		// reconciling bitcast; the result keeps the declared return type.
		w := fi.defineVar(inst, air.VarInternal, info.Result)
		stmt.Call.HasDst = true
		stmt.Call.Dst = w.ID
		bt.addStatement(stmt)
		return nil
	}

	resultType, err := fi.inferType(inst)
	if err != nil {
		return err
	}
	if resultType != info.Result {
		if !in.BitcastCompatible(info.Result, resultType) {
			return Errorf("illegal bitcast %s -> %s",
				in.String(info.Result), in.String(resultType))
		}
		tmp := fi.code.NewVariable(air.VarInternal, "", info.Result, src)
		stmt.Call.HasDst = true
		stmt.Call.Dst = tmp.ID
		bt.addStatement(stmt)
		w := fi.defineVar(inst, air.VarInternal, resultType)
		bt.addStatement(&air.Statement{
			Kind:   air.StmtUnary,
			Source: src,
			Unary:  air.UnaryStmt{Op: air.UnaryBitcast, Dst: w.ID, Operand: air.VarValue(tmp)},
		})
		return nil
	}
	w := fi.defineVar(inst, air.VarInternal, resultType)
	stmt.Call.HasDst = true
	stmt.Call.Dst = w.ID
	bt.addStatement(stmt)
	return nil
}

func (fi *FunctionImporter) translateMemTransfer(bt *blockTranslation, in *ir.InstCall, kind air.StmtKind) error {
	if len(in.Args) < 3 {
		return Errorf("malformed memory intrinsic call")
	}
	bytePtr := fi.bundle.Interner.Builtins().BytePtr
	dst, err := fi.translateValue(bt, in.Args[0], bytePtr)
	if err != nil {
		return err
	}
	src, err := fi.translateValue(bt, in.Args[1], bytePtr)
	if err != nil {
		return err
	}
	length, err := fi.translateValue(bt, in.Args[2], fi.sizeType())
	if err != nil {
		return err
	}
	bt.addStatement(&air.Statement{
		Kind:   kind,
		Source: fi.sourceOf(in),
		Mem: air.MemStmt{
			Dst:      dst,
			Src:      src,
			Len:      length,
			Volatile: trailingVolatileFlag(in.Args),
		},
	})
	return nil
}

func (fi *FunctionImporter) translateMemSet(bt *blockTranslation, in *ir.InstCall) error {
	if len(in.Args) < 3 {
		return Errorf("malformed memory intrinsic call")
	}
	b := fi.bundle.Interner.Builtins()
	dst, err := fi.translateValue(bt, in.Args[0], b.BytePtr)
	if err != nil {
		return err
	}
	val, err := fi.translateValue(bt, in.Args[1], b.UInt8)
	if err != nil {
		return err
	}
	length, err := fi.translateValue(bt, in.Args[2], fi.sizeType())
	if err != nil {
		return err
	}
	bt.addStatement(&air.Statement{
		Kind:   air.StmtMemSet,
		Source: fi.sourceOf(in),
		Mem: air.MemStmt{
			Dst:      dst,
			Src:      val,
			Len:      length,
			Volatile: trailingVolatileFlag(in.Args),
		},
	})
	return nil
}

// trailingVolatileFlag reads the i1 volatility argument recent
// intrinsic encodings append.
func trailingVolatileFlag(args []value.Value) bool {
	if len(args) < 4 {
		return false
	}
	c, ok := args[len(args)-1].(*constant.Int)
	return ok && c.X.Sign() != 0
}

func (fi *FunctionImporter) translateVa(bt *blockTranslation, in *ir.InstCall, kind air.StmtKind) error {
	if len(in.Args) < 1 {
		return Errorf("malformed varargs intrinsic call")
	}
	bytePtr := fi.bundle.Interner.Builtins().BytePtr
	ptr, err := fi.translateValue(bt, in.Args[0], bytePtr)
	if err != nil {
		return err
	}
	va := air.VaStmt{Ptr: ptr}
	if kind == air.StmtVaCopy {
		if len(in.Args) < 2 {
			return Errorf("malformed varargs intrinsic call")
		}
		src, err := fi.translateValue(bt, in.Args[1], bytePtr)
		if err != nil {
			return err
		}
		va.Src = src
	}
	bt.addStatement(&air.Statement{Kind: kind, Source: fi.sourceOf(in), Va: va})
	return nil
}

// emitIntBinary translates both operands to opType, picks the signed
// or unsigned operator variant, and reconciles the result with the
// inferred type when they disagree.
func (fi *FunctionImporter) emitIntBinary(bt *blockTranslation, inst value.Value, x, y value.Value, opType air.TypeID, uop, sop air.BinaryOpKind, noWrap, exact bool) error {
	in := fi.bundle.Interner
	desc := in.MustLookup(opType)
	if desc.Kind != air.KindInteger {
		return Errorf("expected integer operands, got %s", in.String(opType))
	}
	left, err := fi.translateValue(bt, x, opType)
	if err != nil {
		return err
	}
	right, err := fi.translateValue(bt, y, opType)
	if err != nil {
		return err
	}
	op := uop
	if desc.Sign == air.Signed {
		op = sop
	}
	resultType, err := fi.inferType(inst)
	if err != nil {
		return err
	}
	src := fi.sourceOf(inst)
	if opType == resultType {
		w := fi.defineVar(inst, air.VarInternal, resultType)
		bt.addStatement(&air.Statement{
			Kind:   air.StmtBinary,
			Source: src,
			Binary: air.BinaryStmt{Op: op, Dst: w.ID, Left: left, Right: right, NoWrap: noWrap, Exact: exact},
		})
		return nil
	}
	if !in.BitcastCompatible(opType, resultType) {
		return Errorf("illegal bitcast %s -> %s", in.String(opType), in.String(resultType))
	}
	tmp := fi.code.NewVariable(air.VarInternal, "", opType, src)
	bt.addStatement(&air.Statement{
		Kind:   air.StmtBinary,
		Source: src,
		Binary: air.BinaryStmt{Op: op, Dst: tmp.ID, Left: left, Right: right, NoWrap: noWrap, Exact: exact},
	})
	w := fi.defineVar(inst, air.VarInternal, resultType)
	bt.addStatement(&air.Statement{
		Kind:   air.StmtUnary,
		Source: src,
		Unary:  air.UnaryStmt{Op: air.UnaryBitcast, Dst: w.ID, Operand: air.VarValue(tmp)},
	})
	return nil
}

// bitwiseOpType picks the operand type for shifts and bitwise ops: the
// recorded type of the first non-constant operand, or a signed reading
// of the llir type when both are constant.
func (fi *FunctionImporter) bitwiseOpType(bt *blockTranslation, inst value.Value, x, y value.Value) (air.TypeID, error) {
	if _, ok := x.(constant.Constant); !ok {
		lv, err := fi.translateValue(bt, x, air.NoTypeID)
		if err != nil {
			return air.NoTypeID, err
		}
		return lv.Type, nil
	}
	if _, ok := y.(constant.Constant); !ok {
		rv, err := fi.translateValue(bt, y, air.NoTypeID)
		if err != nil {
			return air.NoTypeID, err
		}
		return rv.Type, nil
	}
	return fi.bundle.Types.TranslateType(inst.Type(), air.Signed), nil
}

func (fi *FunctionImporter) emitFloatBinary(bt *blockTranslation, inst value.Value, x, y value.Value, op air.BinaryOpKind) error {
	left, err := fi.translateValue(bt, x, air.NoTypeID)
	if err != nil {
		return err
	}
	right, err := fi.translateValue(bt, y, air.NoTypeID)
	if err != nil {
		return err
	}
	typ, err := fi.inferType(inst)
	if err != nil {
		return err
	}
	w := fi.defineVar(inst, air.VarInternal, typ)
	bt.addStatement(&air.Statement{
		Kind:   air.StmtBinary,
		Source: fi.sourceOf(inst),
		Binary: air.BinaryStmt{Op: op, Dst: w.ID, Left: left, Right: right},
	})
	return nil
}

// translateCast lowers the width- and representation-changing casts.
// Each opcode fixes the sign of one side; the statement lands in the
// type that sign dictates, and a bitcast reconciles it with the
// inferred result type when they differ.
func (fi *FunctionImporter) translateCast(bt *blockTranslation, inst ir.Instruction) error {
	in := fi.bundle.Interner
	ti := fi.bundle.Types
	v := inst.(value.Value)
	src := fi.sourceOf(inst)

	resultType, err := fi.inferType(v)
	if err != nil {
		return err
	}

	var op air.UnaryOpKind
	var from value.Value
	srcTarget := air.NoTypeID
	destType := resultType

	switch c := inst.(type) {
	case *ir.InstTrunc:
		from = c.From
		desc := in.MustLookup(resultType)
		if desc.Kind != air.KindInteger {
			return Errorf("expected integer type for trunc result, got %s", in.String(resultType))
		}
		srcTarget = ti.TranslateType(c.From.Type(), desc.Sign)
		op = air.UnaryUTrunc
		if desc.Sign == air.Signed {
			op = air.UnarySTrunc
		}
	case *ir.InstZExt:
		from = c.From
		op = air.UnaryZExt
		srcTarget = ti.TranslateType(c.From.Type(), air.Unsigned)
		destType = ti.TranslateType(c.To, air.Unsigned)
	case *ir.InstSExt:
		from = c.From
		op = air.UnarySExt
		srcTarget = ti.TranslateType(c.From.Type(), air.Signed)
		destType = ti.TranslateType(c.To, air.Signed)
	case *ir.InstFPToUI:
		from = c.From
		op = air.UnaryFPToUI
		destType = ti.TranslateType(c.To, air.Unsigned)
	case *ir.InstFPToSI:
		from = c.From
		op = air.UnaryFPToSI
		destType = ti.TranslateType(c.To, air.Signed)
	case *ir.InstUIToFP:
		from = c.From
		op = air.UnaryUIToFP
		srcTarget = ti.TranslateType(c.From.Type(), air.Unsigned)
	case *ir.InstSIToFP:
		from = c.From
		op = air.UnarySIToFP
		srcTarget = ti.TranslateType(c.From.Type(), air.Signed)
	case *ir.InstFPTrunc:
		from = c.From
		op = air.UnaryFPTrunc
	case *ir.InstFPExt:
		from = c.From
		op = air.UnaryFPExt
	case *ir.InstPtrToInt:
		from = c.From
		desc := in.MustLookup(resultType)
		if desc.Kind != air.KindInteger {
			return Errorf("expected integer type for ptrtoint result, got %s", in.String(resultType))
		}
		op = air.UnaryPtrToUI
		if desc.Sign == air.Signed {
			op = air.UnaryPtrToSI
		}
	case *ir.InstIntToPtr:
		operand, err := fi.translateValue(bt, c.From, air.NoTypeID)
		if err != nil {
			return err
		}
		opKind := air.UnaryUIToPtr
		if d := in.MustLookup(operand.Type); d.Kind == air.KindInteger && d.Sign == air.Signed {
			opKind = air.UnarySIToPtr
		}
		return fi.emitUnary(bt, v, opKind, operand, resultType, resultType, src)
	default:
		return Errorf("unsupported cast opcode")
	}

	operand, err := fi.translateValue(bt, from, srcTarget)
	if err != nil {
		return err
	}
	return fi.emitUnary(bt, v, op, operand, destType, resultType, src)
}

func (fi *FunctionImporter) emitUnary(bt *blockTranslation, v value.Value, op air.UnaryOpKind, operand air.Value, destType, resultType air.TypeID, src air.SourceID) error {
	in := fi.bundle.Interner
	if destType == resultType {
		w := fi.defineVar(v, air.VarInternal, resultType)
		bt.addStatement(&air.Statement{
			Kind:   air.StmtUnary,
			Source: src,
			Unary:  air.UnaryStmt{Op: op, Dst: w.ID, Operand: operand},
		})
		return nil
	}
	if !in.BitcastCompatible(destType, resultType) {
		return Errorf("illegal bitcast %s -> %s", in.String(destType), in.String(resultType))
	}
	tmp := fi.code.NewVariable(air.VarInternal, "", destType, src)
	bt.addStatement(&air.Statement{
		Kind:   air.StmtUnary,
		Source: src,
		Unary:  air.UnaryStmt{Op: op, Dst: tmp.ID, Operand: operand},
	})
	w := fi.defineVar(v, air.VarInternal, resultType)
	bt.addStatement(&air.Statement{
		Kind:   air.StmtUnary,
		Source: src,
		Unary:  air.UnaryStmt{Op: air.UnaryBitcast, Dst: w.ID, Operand: air.VarValue(tmp)},
	})
	return nil
}

// translateBitCast lowers the explicit bitcast instruction. It accepts
// pointer-to-pointer casts and reinterpretations between an integer and a
// float; unlike the implicit re-typing casts, integer-to-integer bitcasts
// are rejected.
func (fi *FunctionImporter) translateBitCast(bt *blockTranslation, in *ir.InstBitCast) error {
	fromT := in.From.Type()
	_, fromPtr := fromT.(*lltypes.PointerType)
	_, toPtr := in.To.(*lltypes.PointerType)
	_, fromInt := fromT.(*lltypes.IntType)
	_, toInt := in.To.(*lltypes.IntType)
	_, fromFloat := fromT.(*lltypes.FloatType)
	_, toFloat := in.To.(*lltypes.FloatType)
	ok := (fromPtr && toPtr) || (fromInt && toFloat) || (fromFloat && toInt)
	if !ok {
		return Errorf("unexpected bitcast from %v to %v", fromT, in.To)
	}
	typ, err := fi.inferType(in)
	if err != nil {
		return err
	}
	operand, err := fi.translateValue(bt, in.From, air.NoTypeID)
	if err != nil {
		return err
	}
	w := fi.defineVar(in, air.VarInternal, typ)
	bt.addStatement(&air.Statement{
		Kind:   air.StmtUnary,
		Source: fi.sourceOf(in),
		Unary:  air.UnaryStmt{Op: air.UnaryBitcast, Dst: w.ID, Operand: operand},
	})
	return nil
}

// translateGEP flattens getelementptr into a pointer shift: struct
// indices become byte-offset terms with stride one, sequential indices
// become (element size, index) terms.
func (fi *FunctionImporter) translateGEP(bt *blockTranslation, in *ir.InstGetElementPtr) error {
	typ, err := fi.inferType(in)
	if err != nil {
		return err
	}
	base, err := fi.translateValue(bt, in.Src, air.NoTypeID)
	if err != nil {
		return err
	}
	ptrT, ok := in.Src.Type().(*lltypes.PointerType)
	if !ok {
		return Errorf("expected pointer base for getelementptr")
	}

	sizeType := fi.sizeType()
	terms := make([]air.ShiftTerm, 0, len(in.Indices))
	cur := lltypes.Type(ptrT.ElemType)
	for i, idx := range in.Indices {
		if i == 0 {
			stride, err := fi.bundle.Layout.TypeAllocSize(cur)
			if err != nil {
				return Errorf("%v", err)
			}
			iv, err := fi.translateGEPIndex(bt, idx)
			if err != nil {
				return err
			}
			terms = append(terms, air.ShiftTerm{Stride: stride, Index: iv})
			continue
		}
		switch ct := cur.(type) {
		case *lltypes.StructType:
			ic, ok := idx.(*constant.Int)
			if !ok {
				return Errorf("non-constant struct index in getelementptr")
			}
			field := int(ic.X.Int64())
			offset, err := fi.bundle.Layout.StructElementOffset(ct, field)
			if err != nil {
				return Errorf("%v", err)
			}
			terms = append(terms, air.ShiftTerm{Stride: 1, Index: air.IntValue(sizeType, offset)})
			cur = ct.Fields[field]
		case *lltypes.ArrayType:
			stride, err := fi.bundle.Layout.TypeAllocSize(ct.ElemType)
			if err != nil {
				return Errorf("%v", err)
			}
			iv, err := fi.translateGEPIndex(bt, idx)
			if err != nil {
				return err
			}
			terms = append(terms, air.ShiftTerm{Stride: stride, Index: iv})
			cur = ct.ElemType
		case *lltypes.VectorType:
			stride, err := fi.bundle.Layout.TypeAllocSize(ct.ElemType)
			if err != nil {
				return Errorf("%v", err)
			}
			iv, err := fi.translateGEPIndex(bt, idx)
			if err != nil {
				return err
			}
			terms = append(terms, air.ShiftTerm{Stride: stride, Index: iv})
			cur = ct.ElemType
		default:
			return Errorf("cannot index into %v", cur)
		}
	}

	w := fi.defineVar(in, air.VarInternal, typ)
	bt.addStatement(&air.Statement{
		Kind:         air.StmtPointerShift,
		Source:       fi.sourceOf(in),
		PointerShift: air.PointerShiftStmt{Dst: w.ID, Base: base, Terms: terms},
	})
	return nil
}

// translateGEPIndex re-types constant indices to the unsigned variant
// of their own width and leaves variables untouched.
func (fi *FunctionImporter) translateGEPIndex(bt *blockTranslation, idx value.Value) (air.Value, error) {
	if _, ok := idx.(constant.Constant); ok {
		target := fi.bundle.Types.TranslateType(idx.Type(), air.Unsigned)
		return fi.translateValue(bt, idx, target)
	}
	return fi.translateValue(bt, idx, air.NoTypeID)
}

func (fi *FunctionImporter) translateICmp(bt *blockTranslation, in *ir.InstICmp) error {
	typ, err := fi.inferType(in)
	if err != nil {
		return err
	}
	w := fi.defineVar(in, air.VarInternal, typ)
	src := fi.sourceOf(in)

	switch in.X.Type().(type) {
	case *lltypes.IntType:
		var sign air.Sign
		switch in.Pred {
		case enum.IPredSGT, enum.IPredSGE, enum.IPredSLT, enum.IPredSLE:
			sign = air.Signed
		case enum.IPredUGT, enum.IPredUGE, enum.IPredULT, enum.IPredULE:
			sign = air.Unsigned
		case enum.IPredEQ, enum.IPredNE:
			sign, err = fi.equalitySign(bt, in.X, in.Y)
			if err != nil {
				return err
			}
		default:
			return Errorf("unexpected integer comparison predicate %v", in.Pred)
		}
		opType := fi.bundle.Types.TranslateType(in.X.Type(), sign)
		left, err := fi.translateValue(bt, in.X, opType)
		if err != nil {
			return err
		}
		right, err := fi.translateValue(bt, in.Y, opType)
		if err != nil {
			return err
		}
		pred, err := intPredicate(in.Pred, sign)
		if err != nil {
			return err
		}
		bt.addComparison(w, &air.Statement{
			Kind:    air.StmtCompare,
			Source:  src,
			Compare: air.CompareStmt{Pred: pred, Left: left, Right: right},
		})
		return nil
	case *lltypes.PointerType:
		left, err := fi.translateValue(bt, in.X, air.NoTypeID)
		if err != nil {
			return err
		}
		right, err := fi.translateValue(bt, in.Y, air.NoTypeID)
		if err != nil {
			return err
		}
		pred, err := ptrPredicate(in.Pred)
		if err != nil {
			return err
		}
		bt.addComparison(w, &air.Statement{
			Kind:    air.StmtCompare,
			Source:  src,
			Compare: air.CompareStmt{Pred: pred, Left: left, Right: right},
		})
		return nil
	default:
		return Errorf("unexpected comparison operand type %v", in.X.Type())
	}
}

// equalitySign reads the sign of the first non-constant operand of an
// eq or ne comparison; two constants read as signed.
func (fi *FunctionImporter) equalitySign(bt *blockTranslation, x, y value.Value) (air.Sign, error) {
	for _, op := range []value.Value{x, y} {
		if _, ok := op.(constant.Constant); ok {
			continue
		}
		v, err := fi.translateValue(bt, op, air.NoTypeID)
		if err != nil {
			return air.Signed, err
		}
		if desc := fi.bundle.Interner.MustLookup(v.Type); desc.Kind == air.KindInteger {
			return desc.Sign, nil
		}
	}
	return air.Signed, nil
}

func intPredicate(p enum.IPred, sign air.Sign) (air.Predicate, error) {
	signed := sign == air.Signed
	switch p {
	case enum.IPredEQ:
		if signed {
			return air.PredSIEQ, nil
		}
		return air.PredUIEQ, nil
	case enum.IPredNE:
		if signed {
			return air.PredSINE, nil
		}
		return air.PredUINE, nil
	case enum.IPredSGT:
		return air.PredSIGT, nil
	case enum.IPredSGE:
		return air.PredSIGE, nil
	case enum.IPredSLT:
		return air.PredSILT, nil
	case enum.IPredSLE:
		return air.PredSILE, nil
	case enum.IPredUGT:
		return air.PredUIGT, nil
	case enum.IPredUGE:
		return air.PredUIGE, nil
	case enum.IPredULT:
		return air.PredUILT, nil
	case enum.IPredULE:
		return air.PredUILE, nil
	default:
		return 0, Errorf("unexpected integer comparison predicate %v", p)
	}
}

func ptrPredicate(p enum.IPred) (air.Predicate, error) {
	switch p {
	case enum.IPredEQ:
		return air.PredPEQ, nil
	case enum.IPredNE:
		return air.PredPNE, nil
	case enum.IPredUGT, enum.IPredSGT:
		return air.PredPGT, nil
	case enum.IPredUGE, enum.IPredSGE:
		return air.PredPGE, nil
	case enum.IPredULT, enum.IPredSLT:
		return air.PredPLT, nil
	case enum.IPredULE, enum.IPredSLE:
		return air.PredPLE, nil
	default:
		return 0, Errorf("unexpected pointer comparison predicate %v", p)
	}
}

func (fi *FunctionImporter) translateFCmp(bt *blockTranslation, in *ir.InstFCmp) error {
	typ, err := fi.inferType(in)
	if err != nil {
		return err
	}
	w := fi.defineVar(in, air.VarInternal, typ)
	left, err := fi.translateValue(bt, in.X, air.NoTypeID)
	if err != nil {
		return err
	}
	right, err := fi.translateValue(bt, in.Y, air.NoTypeID)
	if err != nil {
		return err
	}
	pred, err := floatPredicate(in.Pred)
	if err != nil {
		return err
	}
	bt.addComparison(w, &air.Statement{
		Kind:    air.StmtCompare,
		Source:  fi.sourceOf(in),
		Compare: air.CompareStmt{Pred: pred, Left: left, Right: right},
	})
	return nil
}

func floatPredicate(p enum.FPred) (air.Predicate, error) {
	switch p {
	case enum.FPredOEQ:
		return air.PredFOEQ, nil
	case enum.FPredOGT:
		return air.PredFOGT, nil
	case enum.FPredOGE:
		return air.PredFOGE, nil
	case enum.FPredOLT:
		return air.PredFOLT, nil
	case enum.FPredOLE:
		return air.PredFOLE, nil
	case enum.FPredONE:
		return air.PredFONE, nil
	case enum.FPredORD:
		return air.PredFORD, nil
	case enum.FPredUNO:
		return air.PredFUNO, nil
	case enum.FPredUEQ:
		return air.PredFUEQ, nil
	case enum.FPredUGT:
		return air.PredFUGT, nil
	case enum.FPredUGE:
		return air.PredFUGE, nil
	case enum.FPredULT:
		return air.PredFULT, nil
	case enum.FPredULE:
		return air.PredFULE, nil
	case enum.FPredUNE:
		return air.PredFUNE, nil
	default:
		return 0, Errorf("unsupported floating point comparison predicate %v", p)
	}
}

func (fi *FunctionImporter) translateExtractValue(bt *blockTranslation, in *ir.InstExtractValue) error {
	offset, err := fi.aggregateOffset(in.X.Type(), in.Indices)
	if err != nil {
		return err
	}
	typ, err := fi.inferType(in)
	if err != nil {
		return err
	}
	agg, err := fi.translateValue(bt, in.X, air.NoTypeID)
	if err != nil {
		return err
	}
	w := fi.defineVar(in, air.VarInternal, typ)
	bt.addStatement(&air.Statement{
		Kind:    air.StmtExtract,
		Source:  fi.sourceOf(in),
		Extract: air.ExtractStmt{Dst: w.ID, Agg: agg, Offset: offset},
	})
	return nil
}

func (fi *FunctionImporter) translateInsertValue(bt *blockTranslation, in *ir.InstInsertValue) error {
	offset, err := fi.aggregateOffset(in.X.Type(), in.Indices)
	if err != nil {
		return err
	}
	typ, err := fi.inferType(in)
	if err != nil {
		return err
	}
	agg, err := fi.translateValue(bt, in.X, air.NoTypeID)
	if err != nil {
		return err
	}
	elem, err := fi.translateValue(bt, in.Elem, air.NoTypeID)
	if err != nil {
		return err
	}
	w := fi.defineVar(in, air.VarInternal, typ)
	bt.addStatement(&air.Statement{
		Kind:   air.StmtInsert,
		Source: fi.sourceOf(in),
		Insert: air.InsertStmt{Dst: w.ID, Agg: agg, Val: elem, Offset: offset},
	})
	return nil
}

// aggregateOffset flattens an extractvalue/insertvalue index chain to
// one byte offset.
func (fi *FunctionImporter) aggregateOffset(t lltypes.Type, indices []uint64) (uint64, error) {
	var offset uint64
	cur := t
	for _, idx := range indices {
		switch ct := cur.(type) {
		case *lltypes.StructType:
			if int(idx) >= len(ct.Fields) {
				return 0, Errorf("aggregate index out of range")
			}
			off, err := fi.bundle.Layout.StructElementOffset(ct, int(idx))
			if err != nil {
				return 0, Errorf("%v", err)
			}
			offset += off
			cur = ct.Fields[idx]
		case *lltypes.ArrayType:
			size, err := fi.bundle.Layout.TypeAllocSize(ct.ElemType)
			if err != nil {
				return 0, Errorf("%v", err)
			}
			offset += size * idx
			cur = ct.ElemType
		default:
			return 0, Errorf("cannot index into %v", cur)
		}
	}
	return offset, nil
}

func wrapSign(flags []enum.OverflowFlag) air.Sign {
	for _, f := range flags {
		if f == enum.OverflowFlagNSW {
			return air.Signed
		}
	}
	return air.Unsigned
}
