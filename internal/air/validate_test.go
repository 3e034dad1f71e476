package air

import (
	"strings"
	"testing"
)

func TestValidateAcceptsWellFormedCode(t *testing.T) {
	in := NewInterner()
	si32 := in.Intern(MakeInteger(32, Signed))

	c := NewCode()
	v := c.NewVariable(VarInternal, "x", si32, 0)
	b0 := c.NewBlock()
	b1 := c.NewBlock()
	b0.AddStatement(&Statement{Kind: StmtAssign, Assign: AssignStmt{Dst: v.ID, Src: IntValue(si32, 1)}})
	b0.AddSuccessor(b1)
	b1.AddStatement(&Statement{Kind: StmtReturn, Return: ReturnStmt{HasValue: true, Value: VarValue(v)}})
	c.Entry = b0
	c.Exit = b1

	if err := Validate(c, in); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsForeignEdge(t *testing.T) {
	in := NewInterner()
	c := NewCode()
	other := NewCode()
	b := c.NewBlock()
	foreign := other.NewBlock()
	b.AddSuccessor(foreign)

	err := Validate(c, in)
	if err == nil || !strings.Contains(err.Error(), "another code") {
		t.Fatalf("expected foreign-edge error, got %v", err)
	}
}

func TestValidateRejectsDuplicateEdge(t *testing.T) {
	in := NewInterner()
	c := NewCode()
	b0 := c.NewBlock()
	b1 := c.NewBlock()
	b0.AddSuccessor(b1)
	b0.AddSuccessor(b1)

	err := Validate(c, in)
	if err == nil || !strings.Contains(err.Error(), "duplicate successor") {
		t.Fatalf("expected duplicate-edge error, got %v", err)
	}
}

func TestValidateRejectsIllegalBitcast(t *testing.T) {
	in := NewInterner()
	si32 := in.Intern(MakeInteger(32, Signed))
	si64 := in.Intern(MakeInteger(64, Signed))

	c := NewCode()
	src := c.NewVariable(VarInternal, "a", si32, 0)
	dst := c.NewVariable(VarInternal, "b", si64, 0)
	b := c.NewBlock()
	b.AddStatement(&Statement{Kind: StmtUnary, Unary: UnaryStmt{
		Op:      UnaryBitcast,
		Dst:     dst.ID,
		Operand: VarValue(src),
	}})

	err := Validate(c, in)
	if err == nil || !strings.Contains(err.Error(), "illegal bitcast") {
		t.Fatalf("expected bitcast error, got %v", err)
	}
}

func TestValidateRejectsUnknownVariable(t *testing.T) {
	in := NewInterner()
	si32 := in.Intern(MakeInteger(32, Signed))
	c := NewCode()
	b := c.NewBlock()
	b.AddStatement(&Statement{Kind: StmtAssign, Assign: AssignStmt{Dst: 7, Src: IntValue(si32, 0)}})

	err := Validate(c, in)
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected unknown-variable error, got %v", err)
	}
}

func TestStatementCloneIsDeep(t *testing.T) {
	s := &Statement{
		Kind:   StmtCall,
		Source: 3,
		Call: CallStmt{
			HasDst: true,
			Dst:    0,
			Callee: FuncValue(NoTypeID, "f"),
			Args:   []Value{IntValue(NoTypeID, 1), IntValue(NoTypeID, 2)},
		},
	}
	c := s.Clone()
	c.Call.Args[0] = IntValue(NoTypeID, 9)
	if s.Call.Args[0].Int != 1 {
		t.Fatalf("clone must not alias argument slices")
	}
	if c.Source != s.Source {
		t.Fatalf("clone must preserve provenance")
	}
}
