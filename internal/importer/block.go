package importer

import (
	"github.com/llir/llvm/ir"

	"arlift/internal/air"
)

// blockOutput is one open exit of a block under translation: the AIR
// block statements currently append to, and the llir successor it will
// be linked to once the terminator is known.
type blockOutput struct {
	block *air.BasicBlock
	succ  *ir.Block
}

// blockTranslation lowers one llir block into a fan of AIR blocks.
// Comparisons split every open output in two instead of computing a
// boolean, so downstream analyses see path conditions as branches
// rather than values joined at a merge point.
type blockTranslation struct {
	source *ir.Block
	main   *air.BasicBlock

	// outputs are the open exits. All statement appends go to every
	// output; a comparison doubles them.
	outputs []blockOutput
	// inputs are per-predecessor landing blocks, each with a single
	// edge into main. Phi assignments from a predecessor go here.
	inputs     map[*ir.Block]*air.BasicBlock
	inputOrder []*ir.Block
	// internals are closed blocks kept only for the graph.
	internals []*air.BasicBlock
}

func newBlockTranslation(source *ir.Block, main *air.BasicBlock) *blockTranslation {
	return &blockTranslation{
		source:  source,
		main:    main,
		outputs: []blockOutput{{block: main}},
		inputs:  make(map[*ir.Block]*air.BasicBlock),
	}
}

func (bt *blockTranslation) markEntry() {
	bt.main.Code().Entry = bt.main
}

func (bt *blockTranslation) markExit() error {
	if len(bt.outputs) != 1 {
		return Errorf("exit block has more than one output")
	}
	bt.main.Code().Exit = bt.outputs[0].block
	return nil
}

func (bt *blockTranslation) markUnreachable() error {
	if len(bt.outputs) != 1 {
		return Errorf("unreachable block has more than one output")
	}
	bt.main.Code().Unreachable = bt.outputs[0].block
	return nil
}

func (bt *blockTranslation) markEHResume() error {
	if len(bt.outputs) != 1 {
		return Errorf("ehresume block has more than one output")
	}
	bt.main.Code().EHResume = bt.outputs[0].block
	return nil
}

// inputBlock returns the landing block for edges from pred, creating
// it on first request.
func (bt *blockTranslation) inputBlock(pred *ir.Block) *air.BasicBlock {
	if bb, ok := bt.inputs[pred]; ok {
		return bb
	}
	bb := bt.main.Code().NewBlock()
	bb.AddSuccessor(bt.main)
	bt.inputs[pred] = bb
	bt.inputOrder = append(bt.inputOrder, pred)
	return bb
}

func (bt *blockTranslation) hasInputs() bool {
	return len(bt.inputs) > 0
}

// mergeOutputs funnels all open outputs into one fresh block. Called
// before any statement that is neither a comparison, a binary
// operation nor a branch when the block has fanned out.
func (bt *blockTranslation) mergeOutputs() {
	if len(bt.outputs) < 2 {
		return
	}
	dest := bt.main.Code().NewBlock()
	for _, out := range bt.outputs {
		bt.internals = append(bt.internals, out.block)
		out.block.AddSuccessor(dest)
	}
	bt.outputs = bt.outputs[:0]
	bt.outputs = append(bt.outputs, blockOutput{block: dest})
}

// addStatement appends to the single open output, or clones into each
// when the block has fanned out.
func (bt *blockTranslation) addStatement(s *air.Statement) {
	if len(bt.outputs) == 1 {
		bt.outputs[0].block.AddStatement(s)
		return
	}
	for _, out := range bt.outputs {
		out.block.AddStatement(s.Clone())
	}
}

// addComparison closes every open output with two children: one
// asserting the comparison and assigning true to the result variable,
// one asserting the inverse and assigning false.
func (bt *blockTranslation) addComparison(result *air.Variable, cmp *air.Statement) {
	prev := bt.outputs
	bt.outputs = make([]blockOutput, 0, 2*len(prev))
	for _, out := range prev {
		bt.internals = append(bt.internals, out.block)
		inverse := cmp.Clone()
		inverse.Compare.Pred = inverse.Compare.Pred.Inverse()
		bt.addComparisonOutput(out.block, cmp.Clone(), result, true)
		bt.addComparisonOutput(out.block, inverse, result, false)
	}
}

func (bt *blockTranslation) addComparisonOutput(src *air.BasicBlock, cmp *air.Statement, result *air.Variable, truth bool) {
	dest := src.Code().NewBlock()
	dest.AddStatement(cmp)
	var bit uint64
	if truth {
		bit = 1
	}
	dest.AddStatement(&air.Statement{
		Kind:   air.StmtAssign,
		Source: cmp.Source,
		Assign: air.AssignStmt{Dst: result.ID, Src: air.IntValue(result.Type, bit)},
	})
	src.AddSuccessor(dest)
	bt.outputs = append(bt.outputs, blockOutput{block: dest})
}

// addUnconditionalBranching points every open output at the single
// llir successor.
func (bt *blockTranslation) addUnconditionalBranching(succ *ir.Block) {
	for i := range bt.outputs {
		bt.outputs[i].succ = succ
	}
}

// addConditionalBranching lowers a branch on cond. When every open
// output already ends in `cond := constant` from a comparison fan-out,
// the successor is read off the constant directly; the assignment is
// dropped when the branch is the condition's only use. Otherwise each
// output splits into a true child and a false child guarded by an
// equality assertion on cond.
func (bt *blockTranslation) addConditionalBranching(cond *air.Variable, eq air.Predicate, trueSucc, falseSucc *ir.Block, condSingleUse bool, source air.SourceID) {
	fused := true
	for _, out := range bt.outputs {
		last := out.block.LastStatement()
		if last == nil || last.Kind != air.StmtAssign ||
			last.Assign.Dst != cond.ID || last.Assign.Src.Kind != air.ValueInt {
			fused = false
			break
		}
	}

	if fused {
		for i := range bt.outputs {
			out := &bt.outputs[i]
			last := out.block.LastStatement()
			if last.Assign.Src.Int == 0 {
				out.succ = falseSucc
			} else {
				out.succ = trueSucc
			}
			if condSingleUse {
				out.block.RemoveLastStatement()
			}
		}
		return
	}

	prev := bt.outputs
	bt.outputs = make([]blockOutput, 0, 2*len(prev))
	for _, out := range prev {
		bt.internals = append(bt.internals, out.block)
		bt.addConditionalOutput(out.block, cond, eq, trueSucc, true, condSingleUse, source)
		bt.addConditionalOutput(out.block, cond, eq, falseSucc, false, condSingleUse, source)
	}
}

func (bt *blockTranslation) addConditionalOutput(src *air.BasicBlock, cond *air.Variable, eq air.Predicate, succ *ir.Block, truth bool, condSingleUse bool, source air.SourceID) {
	dest := src.Code().NewBlock()
	if !condSingleUse {
		var bit uint64
		if truth {
			bit = 1
		}
		dest.AddStatement(&air.Statement{
			Kind:   air.StmtCompare,
			Source: source,
			Compare: air.CompareStmt{
				Pred:  eq,
				Left:  air.VarValue(cond),
				Right: air.IntValue(cond.Type, bit),
			},
		})
	}
	src.AddSuccessor(dest)
	bt.outputs = append(bt.outputs, blockOutput{block: dest, succ: succ})
}

// addInvokeBranching closes every open output, whose last statement is
// the just-appended invoke, with a normal child and an exception
// child, and patches that invoke's destinations to the children.
func (bt *blockTranslation) addInvokeBranching(normalSucc, exceptSucc *ir.Block) error {
	prev := bt.outputs
	bt.outputs = make([]blockOutput, 0, 2*len(prev))
	for _, out := range prev {
		last := out.block.LastStatement()
		if last == nil || last.Kind != air.StmtInvoke {
			return Errorf("invoke fan-out without a trailing invoke statement")
		}
		bt.internals = append(bt.internals, out.block)

		normal := out.block.Code().NewBlock()
		out.block.AddSuccessor(normal)
		bt.outputs = append(bt.outputs, blockOutput{block: normal, succ: normalSucc})
		last.Call.Normal = normal

		except := out.block.Code().NewBlock()
		out.block.AddSuccessor(except)
		bt.outputs = append(bt.outputs, blockOutput{block: except, succ: exceptSucc})
		last.Call.Except = except
	}
	return nil
}
