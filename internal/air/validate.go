package air

import (
	"errors"
	"fmt"
)

// Validate checks Code invariants.
// Returns error if any invariant is violated.
func Validate(c *Code, in *Interner) error {
	if c == nil {
		return nil
	}
	var errs []error

	if err := validateEdges(c); err != nil {
		errs = append(errs, err)
	}
	if err := validateSlots(c); err != nil {
		errs = append(errs, err)
	}
	if err := validateVars(c); err != nil {
		errs = append(errs, err)
	}
	if err := validateBitcasts(c, in); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// validateEdges checks that every successor edge targets a block of the
// same Code and that no edge is duplicated.
func validateEdges(c *Code) error {
	var errs []error
	for _, b := range c.Blocks {
		seen := make(map[BlockID]bool, len(b.Succs))
		for _, succ := range b.Succs {
			if succ == nil {
				errs = append(errs, fmt.Errorf("bb%d: nil successor", b.ID))
				continue
			}
			if succ.code != c {
				errs = append(errs, fmt.Errorf("bb%d: successor bb%d belongs to another code", b.ID, succ.ID))
			}
			if seen[succ.ID] {
				errs = append(errs, fmt.Errorf("bb%d: duplicate successor edge to bb%d", b.ID, succ.ID))
			}
			seen[succ.ID] = true
		}
	}
	return errors.Join(errs...)
}

// validateSlots checks that the role slots point into the Code.
func validateSlots(c *Code) error {
	var errs []error
	check := func(name string, b *BasicBlock) {
		if b == nil {
			return
		}
		if b.code != c {
			errs = append(errs, fmt.Errorf("%s slot bb%d belongs to another code", name, b.ID))
			return
		}
		if int(b.ID) >= len(c.Blocks) || c.Blocks[b.ID] != b {
			errs = append(errs, fmt.Errorf("%s slot bb%d is not registered in the code", name, b.ID))
		}
	}
	check("entry", c.Entry)
	check("exit", c.Exit)
	check("unreachable", c.Unreachable)
	check("ehresume", c.EHResume)
	return errors.Join(errs...)
}

// validateVars checks that every variable reference resolves.
func validateVars(c *Code) error {
	var errs []error

	varExists := func(id VarID) bool {
		return id >= 0 && int(id) < len(c.Vars)
	}

	checkDst := func(id VarID, ctx string) {
		if !varExists(id) {
			errs = append(errs, fmt.Errorf("%s: variable %%%d does not exist", ctx, id))
		}
	}
	checkVal := func(v Value, ctx string) {
		if v.Kind == ValueVar && !varExists(v.Var) {
			errs = append(errs, fmt.Errorf("%s: operand %%%d does not exist", ctx, v.Var))
		}
	}

	for _, b := range c.Blocks {
		for j, s := range b.Stmts {
			ctx := fmt.Sprintf("bb%d stmt %d", b.ID, j)
			switch s.Kind {
			case StmtAssign:
				checkDst(s.Assign.Dst, ctx)
				checkVal(s.Assign.Src, ctx)
			case StmtUnary:
				checkDst(s.Unary.Dst, ctx)
				checkVal(s.Unary.Operand, ctx)
			case StmtBinary:
				checkDst(s.Binary.Dst, ctx)
				checkVal(s.Binary.Left, ctx)
				checkVal(s.Binary.Right, ctx)
			case StmtCompare:
				checkVal(s.Compare.Left, ctx)
				checkVal(s.Compare.Right, ctx)
			case StmtAllocate:
				checkDst(s.Allocate.Dst, ctx)
				checkVal(s.Allocate.Count, ctx)
			case StmtLoad:
				checkDst(s.Load.Dst, ctx)
				checkVal(s.Load.Ptr, ctx)
			case StmtStore:
				checkVal(s.Store.Ptr, ctx)
				checkVal(s.Store.Val, ctx)
			case StmtMemCopy, StmtMemMove, StmtMemSet:
				checkVal(s.Mem.Dst, ctx)
				checkVal(s.Mem.Src, ctx)
				checkVal(s.Mem.Len, ctx)
			case StmtVaStart, StmtVaEnd:
				checkVal(s.Va.Ptr, ctx)
			case StmtVaCopy:
				checkVal(s.Va.Ptr, ctx)
				checkVal(s.Va.Src, ctx)
			case StmtCall, StmtInvoke:
				if s.Call.HasDst {
					checkDst(s.Call.Dst, ctx)
				}
				checkVal(s.Call.Callee, ctx)
				for _, a := range s.Call.Args {
					checkVal(a, ctx)
				}
				if s.Kind == StmtInvoke {
					if s.Call.Normal == nil || s.Call.Except == nil {
						errs = append(errs, fmt.Errorf("%s: invoke with unpatched successors", ctx))
					}
				}
			case StmtPointerShift:
				checkDst(s.PointerShift.Dst, ctx)
				checkVal(s.PointerShift.Base, ctx)
				for _, t := range s.PointerShift.Terms {
					checkVal(t.Index, ctx)
				}
			case StmtExtract:
				checkDst(s.Extract.Dst, ctx)
				checkVal(s.Extract.Agg, ctx)
			case StmtInsert:
				checkDst(s.Insert.Dst, ctx)
				checkVal(s.Insert.Agg, ctx)
				checkVal(s.Insert.Val, ctx)
			case StmtReturn:
				if s.Return.HasValue {
					checkVal(s.Return.Value, ctx)
				}
			case StmtLandingPad:
				checkDst(s.LandingPad.Dst, ctx)
			case StmtResume:
				checkVal(s.Resume.Operand, ctx)
			}
		}
	}
	return errors.Join(errs...)
}

// validateBitcasts checks that every bitcast joins pointer with pointer
// or two scalars of equal bit width.
func validateBitcasts(c *Code, in *Interner) error {
	if in == nil {
		return nil
	}
	var errs []error
	for _, b := range c.Blocks {
		for j, s := range b.Stmts {
			if s.Kind != StmtUnary || s.Unary.Op != UnaryBitcast {
				continue
			}
			dst := c.Var(s.Unary.Dst)
			if dst == nil {
				continue // reported by validateVars
			}
			if !in.ReinterpretCompatible(s.Unary.Operand.Type, dst.Type) {
				errs = append(errs, fmt.Errorf("bb%d stmt %d: illegal bitcast %s -> %s",
					b.ID, j, in.String(s.Unary.Operand.Type), in.String(dst.Type)))
			}
		}
	}
	return errors.Join(errs...)
}
