package importer

import (
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"

	"arlift/internal/air"
)

// FunctionImporter translates one llir function body into AIR. The
// lifetime is a single TranslateBody call; all fields are scoped to
// that function.
type FunctionImporter struct {
	bundle *BundleImporter

	fn   *ir.Func
	af   *air.Function
	code *air.Code

	strict   bool
	hasDebug bool

	debug *debugIndex
	uses  *useIndex

	vars    map[value.Value]*air.Variable
	blocks  map[*ir.Block]*blockTranslation
	order   []*blockTranslation
	sources map[any]air.SourceID
}

// NewFunctionImporter prepares the per-function state: the debug-call
// index, the use index, and the provenance table.
func NewFunctionImporter(bundle *BundleImporter, fn *ir.Func) *FunctionImporter {
	fi := &FunctionImporter{
		bundle:   bundle,
		fn:       fn,
		af:       bundle.TranslateFunction(fn),
		strict:   bundle.StrictDebugInfo,
		hasDebug: bundle.HasDebugInfo(fn),
		debug:    buildDebugIndex(fn),
		uses:     buildUseIndex(fn),
		vars:     make(map[value.Value]*air.Variable, 32),
		blocks:   make(map[*ir.Block]*blockTranslation, len(fn.Blocks)),
		sources:  make(map[any]air.SourceID, 64),
	}
	next := air.SourceID(1)
	for _, p := range fn.Params {
		fi.sources[p] = next
		next++
	}
	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			fi.sources[inst] = next
			next++
		}
		fi.sources[block.Term] = next
		next++
	}
	return fi
}

// TranslateBody populates and returns the function's Code. Errors are
// terminal: a partially built Code is never returned.
func (fi *FunctionImporter) TranslateBody() (*air.Code, error) {
	if len(fi.fn.Blocks) == 0 {
		return nil, Errorf("function %s has no body", fi.fn.Name())
	}
	fi.code = air.NewCode()

	if err := fi.checkSpecialBlocks(); err != nil {
		return nil, err
	}
	if err := fi.translateParameters(); err != nil {
		return nil, err
	}
	if err := fi.translateBlocks(); err != nil {
		return nil, err
	}
	if err := fi.wirePhis(); err != nil {
		return nil, err
	}
	fi.linkBlocks()

	fi.af.Code = fi.code
	return fi.code, nil
}

// checkSpecialBlocks enforces the at-most-one rule for return,
// unreachable and resume blocks before any translation happens.
func (fi *FunctionImporter) checkSpecialBlocks() error {
	var rets, unreachables, resumes int
	for _, block := range fi.fn.Blocks {
		switch block.Term.(type) {
		case *ir.TermRet:
			rets++
		case *ir.TermUnreachable:
			unreachables++
		case *ir.TermResume:
			resumes++
		}
	}
	if rets > 1 {
		return Errorf("more than one exit block (use the -mergereturn pass?)")
	}
	if unreachables > 1 {
		return Errorf("more than one unreachable block (use the -mergereturn pass?)")
	}
	if resumes > 1 {
		return Errorf("more than one ehresume block (use the -mergereturn pass?)")
	}
	return nil
}

func (fi *FunctionImporter) translateParameters() error {
	info, ok := fi.bundle.Interner.FnInfo(fi.af.Type)
	if !ok {
		return Errorf("function %s has no signature", fi.af.Name)
	}
	if len(fi.fn.Params) != len(info.Params) {
		return Errorf("function %s: parameter count mismatch", fi.af.Name)
	}
	for i, p := range fi.fn.Params {
		v := fi.code.NewVariable(air.VarParam, localName(p), info.Params[i], fi.sourceOf(p))
		fi.vars[p] = v
		fi.af.Params = append(fi.af.Params, v)
	}
	return nil
}

// translateBlocks walks the CFG breadth-first from the entry. The
// order guarantees a value's definition is translated before any
// non-phi use, since a definition dominates its uses and dominators
// sit strictly closer to the entry.
func (fi *FunctionImporter) translateBlocks() error {
	entry := fi.fn.Blocks[0]
	worklist := []*ir.Block{entry}
	for len(worklist) > 0 {
		block := worklist[0]
		worklist = worklist[1:]
		if _, done := fi.blocks[block]; done {
			continue
		}
		bt := newBlockTranslation(block, fi.code.NewBlock())
		fi.blocks[block] = bt
		fi.order = append(fi.order, bt)
		if block == entry {
			bt.markEntry()
		}
		for _, inst := range block.Insts {
			if err := fi.translateInstruction(bt, inst); err != nil {
				return err
			}
		}
		if err := fi.translateTerminator(bt, block.Term); err != nil {
			return err
		}
		worklist = append(worklist, blockSuccessors(block.Term)...)
	}
	return nil
}

func blockSuccessors(term ir.Terminator) []*ir.Block {
	switch t := term.(type) {
	case *ir.TermBr:
		return []*ir.Block{t.Target.(*ir.Block)}
	case *ir.TermCondBr:
		return []*ir.Block{t.TargetTrue.(*ir.Block), t.TargetFalse.(*ir.Block)}
	case *ir.TermInvoke:
		return []*ir.Block{t.NormalRetTarget.(*ir.Block), t.ExceptionRetTarget.(*ir.Block)}
	default:
		return nil
	}
}

// wirePhis runs after every reachable block has been translated. Each
// incoming edge gets an assignment (or a reconciling bitcast) in the
// landing block dedicated to that predecessor.
func (fi *FunctionImporter) wirePhis() error {
	in := fi.bundle.Interner
	for _, block := range fi.fn.Blocks {
		bt := fi.blocks[block]
		if bt == nil {
			continue
		}
		for _, inst := range block.Insts {
			phi, ok := inst.(*ir.InstPhi)
			if !ok {
				continue
			}
			result := fi.vars[phi]
			if result == nil {
				return Errorf("phi %s was not translated", phi.Ident())
			}
			for _, inc := range phi.Incs {
				landing := bt.inputBlock(inc.Pred.(*ir.Block))
				target := air.NoTypeID
				if isNonGlobalConstant(inc.X) {
					target = result.Type
				}
				op, err := fi.translateValue(nil, inc.X, target)
				if err != nil {
					return err
				}
				switch {
				case op.Type == result.Type:
					landing.AddStatement(&air.Statement{
						Kind:   air.StmtAssign,
						Source: fi.sourceOf(phi),
						Assign: air.AssignStmt{Dst: result.ID, Src: op},
					})
				case in.BitcastCompatible(op.Type, result.Type):
					landing.AddStatement(&air.Statement{
						Kind:   air.StmtUnary,
						Source: fi.sourceOf(phi),
						Unary:  air.UnaryStmt{Op: air.UnaryBitcast, Dst: result.ID, Operand: op},
					})
				default:
					return Errorf("cannot reconcile phi incoming type %s with %s",
						in.String(op.Type), in.String(result.Type))
				}
			}
		}
	}
	return nil
}

// linkBlocks connects each open output to its llir successor: the
// successor's per-predecessor landing block when it has any, its main
// block otherwise.
func (fi *FunctionImporter) linkBlocks() {
	for _, bt := range fi.order {
		for _, out := range bt.outputs {
			if out.succ == nil {
				continue
			}
			target := fi.blocks[out.succ]
			dest := target.main
			if target.hasInputs() {
				dest = target.inputBlock(bt.source)
			}
			out.block.AddSuccessor(dest)
		}
	}
}

// translateValue maps an llir operand to an AIR operand. A concrete
// target re-types constants and, for variables, inserts a bitcast into
// the current block fan when the recorded type disagrees.
func (fi *FunctionImporter) translateValue(bt *blockTranslation, v value.Value, target air.TypeID) (air.Value, error) {
	if asm, ok := v.(*ir.InlineAsm); ok {
		typ := target
		if typ == air.NoTypeID {
			typ = fi.bundle.Types.TranslateType(v.Type(), air.Signed)
		}
		return air.AsmValue(typ, asm.Asm, asm.Constraint), nil
	}
	if c, ok := v.(constant.Constant); ok {
		return fi.bundle.Consts.TranslateConstant(c, target)
	}
	if w, ok := fi.vars[v]; ok {
		if target == air.NoTypeID || w.Type == target {
			return air.VarValue(w), nil
		}
		return fi.addBitcast(bt, w, target, fi.sourceOf(v))
	}
	return air.Value{}, Errorf("unexpected operand %s", v.Ident())
}

// addBitcast emits `tmp := bitcast w` into the current fan and returns
// tmp. Only pointer-to-pointer and width-preserving integer casts are
// legal here.
func (fi *FunctionImporter) addBitcast(bt *blockTranslation, w *air.Variable, target air.TypeID, source air.SourceID) (air.Value, error) {
	in := fi.bundle.Interner
	if bt == nil {
		return air.Value{}, Errorf("cannot re-type %s as %s here",
			in.String(w.Type), in.String(target))
	}
	if !in.BitcastCompatible(w.Type, target) {
		return air.Value{}, Errorf("illegal bitcast %s -> %s",
			in.String(w.Type), in.String(target))
	}
	tmp := fi.code.NewVariable(air.VarInternal, "", target, source)
	bt.addStatement(&air.Statement{
		Kind:   air.StmtUnary,
		Source: source,
		Unary:  air.UnaryStmt{Op: air.UnaryBitcast, Dst: tmp.ID, Operand: air.VarValue(w)},
	})
	return air.VarValue(tmp), nil
}

// castToSizeType coerces an integer operand to the platform size type,
// first adjusting the width in the operand's own signedness, then the
// sign with a bitcast.
func (fi *FunctionImporter) castToSizeType(bt *blockTranslation, v value.Value, source air.SourceID) (air.Value, error) {
	in := fi.bundle.Interner
	sizeType := fi.sizeType()
	if c, ok := v.(constant.Constant); ok {
		return fi.bundle.Consts.TranslateCastIntegerConstant(c, sizeType)
	}
	op, err := fi.translateValue(bt, v, air.NoTypeID)
	if err != nil {
		return air.Value{}, err
	}
	opDesc := in.MustLookup(op.Type)
	if opDesc.Kind != air.KindInteger {
		return air.Value{}, Errorf("expected integer size operand, got %s", in.String(op.Type))
	}
	wantDesc := in.MustLookup(sizeType)
	if opDesc.Width != wantDesc.Width {
		mid := in.Intern(air.MakeInteger(wantDesc.Width, opDesc.Sign))
		var op2 air.UnaryOpKind
		switch {
		case opDesc.Width < wantDesc.Width && opDesc.Sign == air.Signed:
			op2 = air.UnarySExt
		case opDesc.Width < wantDesc.Width:
			op2 = air.UnaryZExt
		case opDesc.Sign == air.Signed:
			op2 = air.UnarySTrunc
		default:
			op2 = air.UnaryUTrunc
		}
		tmp := fi.code.NewVariable(air.VarInternal, "", mid, source)
		bt.addStatement(&air.Statement{
			Kind:   air.StmtUnary,
			Source: source,
			Unary:  air.UnaryStmt{Op: op2, Dst: tmp.ID, Operand: op},
		})
		op = air.VarValue(tmp)
	}
	if op.Type != sizeType {
		w := fi.code.Var(op.Var)
		return fi.addBitcast(bt, w, sizeType, source)
	}
	return op, nil
}

// sizeType is the unsigned pointer-width integer of the target.
func (fi *FunctionImporter) sizeType() air.TypeID {
	bits := air.Width(8 * fi.bundle.Layout.Target.PtrSize)
	return fi.bundle.Interner.Intern(air.MakeInteger(bits, air.Unsigned))
}

// defineVar creates the result variable for an llir value and records
// the mapping.
func (fi *FunctionImporter) defineVar(v value.Value, kind air.VarKind, typ air.TypeID) *air.Variable {
	w := fi.code.NewVariable(kind, localName(v), typ, fi.sourceOf(v))
	fi.vars[v] = w
	return w
}

func (fi *FunctionImporter) sourceOf(x any) air.SourceID {
	return fi.sources[x]
}

func localName(v value.Value) string {
	return strings.TrimPrefix(v.Ident(), "%")
}

func isNonGlobalConstant(v value.Value) bool {
	switch v.(type) {
	case *ir.Global, *ir.Func, *ir.Alias:
		return false
	}
	_, ok := v.(constant.Constant)
	return ok
}
