package air

import (
	"fmt"

	"fortio.org/safecast"
)

// BlockID identifies a basic block inside one Code.
type BlockID int32

// NoBlockID marks the absence of a block.
const NoBlockID BlockID = -1

// BasicBlock owns a statement sequence and a successor set. Edges carry
// no data.
type BasicBlock struct {
	ID    BlockID
	Stmts []*Statement
	Succs []*BasicBlock

	code *Code
}

// Code returns the owning container.
func (b *BasicBlock) Code() *Code {
	return b.code
}

// AddStatement appends a statement, transferring ownership to the block.
func (b *BasicBlock) AddStatement(s *Statement) {
	b.Stmts = append(b.Stmts, s)
}

// LastStatement returns the trailing statement, or nil.
func (b *BasicBlock) LastStatement() *Statement {
	if len(b.Stmts) == 0 {
		return nil
	}
	return b.Stmts[len(b.Stmts)-1]
}

// RemoveLastStatement drops the trailing statement.
func (b *BasicBlock) RemoveLastStatement() {
	if len(b.Stmts) > 0 {
		b.Stmts = b.Stmts[:len(b.Stmts)-1]
	}
}

// AddSuccessor appends an edge to succ. The caller adds each edge
// exactly once.
func (b *BasicBlock) AddSuccessor(succ *BasicBlock) {
	b.Succs = append(b.Succs, succ)
}

// Code is the owning container of a function body: its blocks, its
// variables, and the designated role slots.
type Code struct {
	Blocks []*BasicBlock
	Vars   []*Variable

	Entry       *BasicBlock
	Exit        *BasicBlock
	Unreachable *BasicBlock
	EHResume    *BasicBlock
}

// NewCode constructs an empty Code.
func NewCode() *Code {
	return &Code{}
}

// NewBlock appends a fresh empty block.
func (c *Code) NewBlock() *BasicBlock {
	id, err := safecast.Conv[int32](len(c.Blocks))
	if err != nil {
		panic(fmt.Errorf("len(blocks) overflow: %w", err))
	}
	b := &BasicBlock{ID: BlockID(id), code: c}
	c.Blocks = append(c.Blocks, b)
	return b
}

// NewVariable appends a fresh variable slot.
func (c *Code) NewVariable(kind VarKind, name string, typ TypeID, source SourceID) *Variable {
	id, err := safecast.Conv[int32](len(c.Vars))
	if err != nil {
		panic(fmt.Errorf("len(vars) overflow: %w", err))
	}
	v := &Variable{ID: VarID(id), Kind: kind, Name: name, Type: typ, Source: source}
	c.Vars = append(c.Vars, v)
	return v
}

// Var returns the variable with the given ID, or nil.
func (c *Code) Var(id VarID) *Variable {
	if id < 0 || int(id) >= len(c.Vars) {
		return nil
	}
	return c.Vars[id]
}
