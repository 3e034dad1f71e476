package importer

import (
	"bytes"
	"testing"

	"github.com/llir/llvm/asm"
	"github.com/stretchr/testify/require"

	"arlift/internal/air"
	"arlift/internal/layout"
)

func importLL(t *testing.T, src string) (*air.Module, *BundleImporter) {
	t.Helper()
	m, err := asm.ParseString("test.ll", src)
	require.NoError(t, err)
	bi := NewBundleImporter(layout.X86_64LinuxGNU())
	mod, err := bi.ImportModule(m)
	require.NoError(t, err)
	return mod, bi
}

func importErr(t *testing.T, src string) error {
	t.Helper()
	m, err := asm.ParseString("test.ll", src)
	require.NoError(t, err)
	bi := NewBundleImporter(layout.X86_64LinuxGNU())
	_, err = bi.ImportModule(m)
	require.Error(t, err)
	return err
}

func findFunc(t *testing.T, mod *air.Module, name string) *air.Function {
	t.Helper()
	for _, f := range mod.Funcs {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("no function %q in module", name)
	return nil
}

func findVar(t *testing.T, c *air.Code, name string) *air.Variable {
	t.Helper()
	for _, v := range c.Vars {
		if v.Name == name {
			return v
		}
	}
	t.Fatalf("no variable %q in code", name)
	return nil
}

func allStatements(c *air.Code) []*air.Statement {
	var out []*air.Statement
	for _, b := range c.Blocks {
		out = append(out, b.Stmts...)
	}
	return out
}

func TestSignFromWrapFlags(t *testing.T) {
	mod, _ := importLL(t, `
define i32 @f(i32 %a, i32 %b) {
entry:
	%c = add nsw i32 %a, %b
	ret i32 %c
}
`)
	f := findFunc(t, mod, "f")
	require.NotNil(t, f.Code)

	var adds []*air.Statement
	for _, s := range allStatements(f.Code) {
		if s.Kind == air.StmtBinary {
			adds = append(adds, s)
		}
	}
	require.Len(t, adds, 1)
	require.Equal(t, air.BinarySAdd, adds[0].Binary.Op)
	require.True(t, adds[0].Binary.NoWrap)
}

func TestPlainAddIsUnsignedAndReconciled(t *testing.T) {
	// Without wrap flags the addition runs unsigned; the signed result
	// demanded by the return re-types through a bitcast.
	mod, bi := importLL(t, `
define i32 @f(i32 %a, i32 %b) {
entry:
	%c = add i32 %a, %b
	ret i32 %c
}
`)
	f := findFunc(t, mod, "f")

	var add, cast *air.Statement
	for _, s := range allStatements(f.Code) {
		switch {
		case s.Kind == air.StmtBinary:
			add = s
		case s.Kind == air.StmtUnary && s.Unary.Op == air.UnaryBitcast:
			cast = s
		}
	}
	require.NotNil(t, add)
	require.Equal(t, air.BinaryUAdd, add.Binary.Op)
	require.False(t, add.Binary.NoWrap)

	require.NotNil(t, cast)
	dst := f.Code.Var(cast.Unary.Dst)
	require.Equal(t, "si32", bi.Interner.String(dst.Type))
}

func TestHintTieBreakPrefersFirstUse(t *testing.T) {
	mod, bi := importLL(t, `
define void @f(i32 %a, i32* %p, i32* %q) {
entry:
	%x = add i32 %a, 1
	%u = udiv i32 %x, 3
	%s = sdiv i32 %x, 5
	store i32 %u, i32* %p
	store i32 %s, i32* %q
	ret void
}
`)
	f := findFunc(t, mod, "f")
	// udiv and sdiv contribute equal scores; the earlier use wins.
	x := findVar(t, f.Code, "x")
	require.Equal(t, "ui32", bi.Interner.String(x.Type))
}

func TestHintAccumulationOutweighsSingleUse(t *testing.T) {
	mod, bi := importLL(t, `
define void @f(i32 %a, i32* %p, i32* %q, i32* %r) {
entry:
	%y = add i32 %a, 2
	%s1 = sdiv i32 %y, 3
	%s2 = sdiv i32 %y, 7
	%u1 = udiv i32 %y, 9
	store i32 %s1, i32* %p
	store i32 %s2, i32* %q
	store i32 %u1, i32* %r
	ret void
}
`)
	f := findFunc(t, mod, "f")
	// Two signed uses add up and beat the single unsigned one.
	y := findVar(t, f.Code, "y")
	require.Equal(t, "si32", bi.Interner.String(y.Type))
}

func TestComparisonFansOutAndMerges(t *testing.T) {
	mod, _ := importLL(t, `
define i32 @f(i32 %a, i32 %b) {
entry:
	%c = icmp slt i32 %a, %b
	%d = zext i1 %c to i32
	ret i32 %d
}
`)
	f := findFunc(t, mod, "f")
	c := f.Code

	// entry, two comparison children, one merge block.
	require.Len(t, c.Blocks, 4)
	entry := c.Entry
	require.NotNil(t, entry)
	require.Len(t, entry.Succs, 2)

	preds := map[air.Predicate]bool{}
	for _, child := range entry.Succs {
		require.NotEmpty(t, child.Stmts)
		first := child.Stmts[0]
		require.Equal(t, air.StmtCompare, first.Kind)
		preds[first.Compare.Pred] = true
		// comparison plus the boolean assignment
		require.Len(t, child.Stmts, 2)
		require.Equal(t, air.StmtAssign, child.Stmts[1].Kind)
		// both children funnel into the merge block
		require.Len(t, child.Succs, 1)
	}
	require.True(t, preds[air.PredSILT])
	require.True(t, preds[air.PredSIGE])

	merge := entry.Succs[0].Succs[0]
	require.Same(t, merge, entry.Succs[1].Succs[0])
	require.Same(t, c.Exit, merge)
}

func TestFusedBranchDropsSingleUseCondition(t *testing.T) {
	mod, bi := importLL(t, `
define i32 @max(i32 %a, i32 %b) {
entry:
	%c = icmp sgt i32 %a, %b
	br i1 %c, label %t, label %f
t:
	br label %done
f:
	br label %done
done:
	%r = phi i32 [ %a, %t ], [ %b, %f ]
	ret i32 %r
}
`)
	f := findFunc(t, mod, "max")
	c := f.Code

	entry := c.Entry
	require.Len(t, entry.Succs, 2)
	for _, child := range entry.Succs {
		// the boolean assignment is dropped, only the assertion stays
		require.Len(t, child.Stmts, 1)
		require.Equal(t, air.StmtCompare, child.Stmts[0].Kind)
	}

	// PHI incomings land in per-predecessor blocks holding one assign.
	r := findVar(t, c, "r")
	require.Equal(t, "si32", bi.Interner.String(r.Type))
	assigns := 0
	for _, s := range allStatements(c) {
		if s.Kind == air.StmtAssign && s.Assign.Dst == r.ID {
			assigns++
		}
	}
	require.Equal(t, 2, assigns)
	require.NotNil(t, c.Exit)
}

func TestPhiReconcilesSignMismatchWithBitcast(t *testing.T) {
	mod, bi := importLL(t, `
define i32 @f(i1 %c, i32 %a, i32 %b) {
entry:
	br i1 %c, label %t, label %done
t:
	%x = add nsw i32 %a, 1
	br label %done
done:
	%p = phi i32 [ %x, %t ], [ %b, %entry ]
	%r = udiv i32 %p, 2
	ret i32 %r
}
`)
	f := findFunc(t, mod, "f")
	c := f.Code

	// the udiv makes the phi unsigned while the nsw add stays signed
	p := findVar(t, c, "p")
	require.Equal(t, "ui32", bi.Interner.String(p.Type))
	x := findVar(t, c, "x")
	require.Equal(t, "si32", bi.Interner.String(x.Type))

	var assigns, casts int
	for _, s := range allStatements(c) {
		switch {
		case s.Kind == air.StmtAssign && s.Assign.Dst == p.ID:
			assigns++
		case s.Kind == air.StmtUnary && s.Unary.Op == air.UnaryBitcast && s.Unary.Dst == p.ID:
			casts++
		}
	}
	require.Equal(t, 2, assigns+casts, "each incoming lands exactly once")
	require.NotZero(t, casts, "the signed incoming must re-type through a bitcast")
}

func TestBranchOnNonFusedConditionSplits(t *testing.T) {
	// The condition is stored before branching, so every branch child
	// re-asserts its value instead of reading it off an assignment.
	mod, _ := importLL(t, `
define i32 @f(i32 %a, i32 %b, i1* %p) {
entry:
	%c = icmp eq i32 %a, %b
	store i1 %c, i1* %p
	br i1 %c, label %t, label %f
t:
	br label %done
f:
	br label %done
done:
	%r = phi i32 [ 1, %t ], [ 0, %f ]
	ret i32 %r
}
`)
	f := findFunc(t, mod, "f")
	c := f.Code

	// The store forces a merge after the comparison fan-out, so the
	// branch splits the merged block on the condition variable.
	var condAsserts int
	for _, s := range allStatements(c) {
		if s.Kind == air.StmtCompare && s.Compare.Right.Kind == air.ValueInt &&
			s.Compare.Left.Kind == air.ValueVar {
			condAsserts++
		}
	}
	require.GreaterOrEqual(t, condAsserts, 2)
}

func TestInvokeBackPatchesSuccessors(t *testing.T) {
	mod, _ := importLL(t, `
declare i32 @mayfail(i32)

declare i32 @__gxx_personality_v0(...)

define i32 @f(i32 %a) personality i32 (...)* @__gxx_personality_v0 {
entry:
	%r = invoke i32 @mayfail(i32 %a)
		to label %ok unwind label %bad
ok:
	ret i32 %r
bad:
	%lp = landingpad { i8*, i32 }
		cleanup
	resume { i8*, i32 } %lp
}
`)
	f := findFunc(t, mod, "f")
	c := f.Code

	var invoke *air.Statement
	for _, s := range allStatements(c) {
		if s.Kind == air.StmtInvoke {
			invoke = s
		}
	}
	require.NotNil(t, invoke)
	require.NotNil(t, invoke.Call.Normal)
	require.NotNil(t, invoke.Call.Except)
	require.NotSame(t, invoke.Call.Normal, invoke.Call.Except)

	require.NotNil(t, c.Exit)
	require.NotNil(t, c.EHResume)

	var landing, resume bool
	for _, s := range allStatements(c) {
		switch s.Kind {
		case air.StmtLandingPad:
			landing = true
		case air.StmtResume:
			resume = true
		}
	}
	require.True(t, landing)
	require.True(t, resume)
}

func TestInvokeResultKeepsDeclaredReturnType(t *testing.T) {
	// the udiv pulls the result toward unsigned, but an invoke ends its
	// block before any cast could run, so the declared type must win
	mod, bi := importLL(t, `
declare i32 @mayfail(i32)

declare i32 @__gxx_personality_v0(...)

define i32 @f(i32 %a) personality i32 (...)* @__gxx_personality_v0 {
entry:
	%r = invoke i32 @mayfail(i32 %a)
		to label %ok unwind label %bad
ok:
	%q = udiv i32 %r, 2
	ret i32 %q
bad:
	%lp = landingpad { i8*, i32 }
		cleanup
	resume { i8*, i32 } %lp
}
`)
	f := findFunc(t, mod, "f")
	r := findVar(t, f.Code, "r")
	require.Equal(t, "si32", bi.Interner.String(r.Type))
}

func TestGEPLowersToPointerShift(t *testing.T) {
	mod, _ := importLL(t, `
define i32 @idx([4 x i32]* %p, i64 %i) {
entry:
	%g = getelementptr [4 x i32], [4 x i32]* %p, i64 0, i64 %i
	%v = load i32, i32* %g
	ret i32 %v
}
`)
	f := findFunc(t, mod, "idx")

	var shift *air.Statement
	for _, s := range allStatements(f.Code) {
		if s.Kind == air.StmtPointerShift {
			shift = s
		}
	}
	require.NotNil(t, shift)
	require.Len(t, shift.PointerShift.Terms, 2)
	require.Equal(t, uint64(16), shift.PointerShift.Terms[0].Stride)
	require.Equal(t, uint64(4), shift.PointerShift.Terms[1].Stride)
	require.Equal(t, air.ValueVar, shift.PointerShift.Terms[1].Index.Kind)
}

func TestAllocaLoadStore(t *testing.T) {
	mod, bi := importLL(t, `
define i32 @f(i32 %a) {
entry:
	%slot = alloca i32, align 4
	store i32 %a, i32* %slot, align 4
	%v = load i32, i32* %slot, align 4
	ret i32 %v
}
`)
	f := findFunc(t, mod, "f")

	var alloc, store, load *air.Statement
	for _, s := range allStatements(f.Code) {
		switch s.Kind {
		case air.StmtAllocate:
			alloc = s
		case air.StmtStore:
			store = s
		case air.StmtLoad:
			load = s
		}
	}
	require.NotNil(t, alloc)
	require.NotNil(t, store)
	require.NotNil(t, load)

	slot := f.Code.Var(alloc.Allocate.Dst)
	require.Equal(t, air.VarLocal, slot.Kind)
	require.Equal(t, "si32*", bi.Interner.String(slot.Type))
	require.Equal(t, uint32(4), store.Store.Align)
	require.Equal(t, uint32(4), load.Load.Align)
}

func TestConstantConditionFoldsBranch(t *testing.T) {
	mod, _ := importLL(t, `
define i32 @f() {
entry:
	br i1 true, label %t, label %f
t:
	br label %done
f:
	br label %done
done:
	%r = phi i32 [ 1, %t ], [ 2, %f ]
	ret i32 %r
}
`)
	f := findFunc(t, mod, "f")
	entry := f.Code.Entry
	require.Len(t, entry.Succs, 1)
}

func TestSelectReportsLoweringPass(t *testing.T) {
	err := importErr(t, `
define i32 @f(i1 %c, i32 %a, i32 %b) {
entry:
	%r = select i1 %c, i32 %a, i32 %b
	ret i32 %r
}
`)
	require.ErrorContains(t, err, "select instruction not supported (use the -lower-select pass?)")
}

func TestSwitchReportsLoweringPass(t *testing.T) {
	err := importErr(t, `
define i32 @f(i32 %a) {
entry:
	switch i32 %a, label %d [ i32 1, label %one ]
one:
	br label %d
d:
	ret i32 0
}
`)
	require.ErrorContains(t, err, "switch instruction not supported (use the -lowerswitch pass?)")
}

func TestMultipleReturnsReportMergePass(t *testing.T) {
	err := importErr(t, `
define i32 @f(i1 %c) {
entry:
	br i1 %c, label %t, label %f
t:
	ret i32 1
f:
	ret i32 2
}
`)
	require.ErrorContains(t, err, "more than one exit block (use the -mergereturn pass?)")
}

func TestFCmpAlwaysPredicatesRejected(t *testing.T) {
	err := importErr(t, `
define i1 @f(double %a, double %b) {
entry:
	%r = fcmp true double %a, %b
	ret i1 %r
}
`)
	require.ErrorContains(t, err, "unsupported floating point comparison predicate")
}

func TestFCmpOrderedPredicateTranslates(t *testing.T) {
	mod, _ := importLL(t, `
define i1 @f(double %a, double %b) {
entry:
	%r = fcmp olt double %a, %b
	ret i1 %r
}
`)
	f := findFunc(t, mod, "f")
	var compares int
	for _, s := range allStatements(f.Code) {
		if s.Kind == air.StmtCompare && s.Compare.Pred == air.PredFOLT {
			compares++
		}
	}
	require.NotZero(t, compares)
}

func TestImportIsDeterministic(t *testing.T) {
	src := `
define i32 @max(i32 %a, i32 %b) {
entry:
	%c = icmp sgt i32 %a, %b
	br i1 %c, label %t, label %f
t:
	br label %done
f:
	br label %done
done:
	%r = phi i32 [ %a, %t ], [ %b, %f ]
	ret i32 %r
}
`
	dump := func() string {
		mod, bi := importLL(t, src)
		f := findFunc(t, mod, "max")
		var buf bytes.Buffer
		require.NoError(t, air.DumpFunction(&buf, f, bi.Interner))
		return buf.String()
	}
	require.Equal(t, dump(), dump())
}

func TestTranslatedCodeValidates(t *testing.T) {
	mod, bi := importLL(t, `
define i32 @f(i32 %a, i32 %b) {
entry:
	%c = icmp ult i32 %a, %b
	br i1 %c, label %t, label %e
t:
	br label %e
e:
	%r = phi i32 [ %a, %entry ], [ %b, %t ]
	ret i32 %r
}
`)
	for _, f := range mod.Funcs {
		if f.Code == nil {
			continue
		}
		require.NoError(t, air.Validate(f.Code, bi.Interner))
	}
}
