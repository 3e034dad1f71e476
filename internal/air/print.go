package air

import (
	"fmt"
	"io"
	"strings"
)

// DumpFunction writes a human-readable representation of a translated
// function. Output is deterministic: blocks and statements appear in
// creation order.
func DumpFunction(w io.Writer, f *Function, in *Interner) error {
	if w == nil || f == nil {
		return nil
	}
	fmt.Fprintf(w, "fn %s: %s\n", f.Name, in.String(f.Type))
	if f.Code == nil {
		fmt.Fprintf(w, "  <no body>\n")
		return nil
	}
	return DumpCode(w, f.Code, in)
}

// DumpCode writes a human-readable representation of a Code.
func DumpCode(w io.Writer, c *Code, in *Interner) error {
	if w == nil || c == nil {
		return nil
	}

	fmt.Fprintf(w, "  vars:\n")
	for _, v := range c.Vars {
		name := v.Name
		if name == "" {
			name = "_"
		}
		fmt.Fprintf(w, "    %%%d: %s %s name=%s\n", v.ID, in.String(v.Type), v.Kind, name)
	}

	for _, b := range c.Blocks {
		fmt.Fprintf(w, "  bb%d%s:\n", b.ID, blockRoles(c, b))
		for _, s := range b.Stmts {
			fmt.Fprintf(w, "    %s\n", FormatStatement(s, in))
		}
		if len(b.Succs) > 0 {
			parts := make([]string, 0, len(b.Succs))
			for _, succ := range b.Succs {
				parts = append(parts, fmt.Sprintf("bb%d", succ.ID))
			}
			fmt.Fprintf(w, "    -> %s\n", strings.Join(parts, ", "))
		}
	}
	return nil
}

func blockRoles(c *Code, b *BasicBlock) string {
	var roles []string
	if c.Entry == b {
		roles = append(roles, "entry")
	}
	if c.Exit == b {
		roles = append(roles, "exit")
	}
	if c.Unreachable == b {
		roles = append(roles, "unreachable")
	}
	if c.EHResume == b {
		roles = append(roles, "ehresume")
	}
	if len(roles) == 0 {
		return ""
	}
	return " (" + strings.Join(roles, ",") + ")"
}

// FormatStatement renders one statement.
func FormatStatement(s *Statement, in *Interner) string {
	switch s.Kind {
	case StmtAssign:
		return fmt.Sprintf("%%%d = %s", s.Assign.Dst, s.Assign.Src)
	case StmtUnary:
		return fmt.Sprintf("%%%d = %s %s", s.Unary.Dst, s.Unary.Op, s.Unary.Operand)
	case StmtBinary:
		flags := ""
		if s.Binary.NoWrap {
			flags += " nowrap"
		}
		if s.Binary.Exact {
			flags += " exact"
		}
		return fmt.Sprintf("%%%d = %s%s %s, %s", s.Binary.Dst, s.Binary.Op, flags, s.Binary.Left, s.Binary.Right)
	case StmtCompare:
		return fmt.Sprintf("assert %s %s, %s", s.Compare.Pred, s.Compare.Left, s.Compare.Right)
	case StmtAllocate:
		return fmt.Sprintf("%%%d = allocate %s, %s", s.Allocate.Dst, in.String(s.Allocate.Elem), s.Allocate.Count)
	case StmtLoad:
		return fmt.Sprintf("%%%d = load %s%s", s.Load.Dst, s.Load.Ptr, memFlags(s.Load.Align, s.Load.Volatile))
	case StmtStore:
		return fmt.Sprintf("store %s, %s%s", s.Store.Ptr, s.Store.Val, memFlags(s.Store.Align, s.Store.Volatile))
	case StmtMemCopy:
		return fmt.Sprintf("memcpy %s, %s, %s", s.Mem.Dst, s.Mem.Src, s.Mem.Len)
	case StmtMemMove:
		return fmt.Sprintf("memmove %s, %s, %s", s.Mem.Dst, s.Mem.Src, s.Mem.Len)
	case StmtMemSet:
		return fmt.Sprintf("memset %s, %s, %s", s.Mem.Dst, s.Mem.Src, s.Mem.Len)
	case StmtVaStart:
		return fmt.Sprintf("va_start %s", s.Va.Ptr)
	case StmtVaEnd:
		return fmt.Sprintf("va_end %s", s.Va.Ptr)
	case StmtVaCopy:
		return fmt.Sprintf("va_copy %s, %s", s.Va.Ptr, s.Va.Src)
	case StmtCall:
		return formatCall("call", s)
	case StmtInvoke:
		base := formatCall("invoke", s)
		if s.Call.Normal != nil && s.Call.Except != nil {
			return fmt.Sprintf("%s to bb%d unwind bb%d", base, s.Call.Normal.ID, s.Call.Except.ID)
		}
		return base
	case StmtPointerShift:
		parts := make([]string, 0, len(s.PointerShift.Terms))
		for _, t := range s.PointerShift.Terms {
			parts = append(parts, fmt.Sprintf("%d*%s", t.Stride, t.Index))
		}
		return fmt.Sprintf("%%%d = ptrshift %s + %s", s.PointerShift.Dst, s.PointerShift.Base, strings.Join(parts, " + "))
	case StmtExtract:
		return fmt.Sprintf("%%%d = extract %s @ %d", s.Extract.Dst, s.Extract.Agg, s.Extract.Offset)
	case StmtInsert:
		return fmt.Sprintf("%%%d = insert %s, %s @ %d", s.Insert.Dst, s.Insert.Agg, s.Insert.Val, s.Insert.Offset)
	case StmtReturn:
		if s.Return.HasValue {
			return fmt.Sprintf("return %s", s.Return.Value)
		}
		return "return"
	case StmtLandingPad:
		return fmt.Sprintf("%%%d = landingpad", s.LandingPad.Dst)
	case StmtResume:
		return fmt.Sprintf("resume %s", s.Resume.Operand)
	case StmtUnreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("StmtKind(%d)", s.Kind)
	}
}

func formatCall(verb string, s *Statement) string {
	args := make([]string, 0, len(s.Call.Args))
	for _, a := range s.Call.Args {
		args = append(args, a.String())
	}
	callArgs := fmt.Sprintf("%s %s(%s)", verb, s.Call.Callee, strings.Join(args, ", "))
	if s.Call.HasDst {
		return fmt.Sprintf("%%%d = %s", s.Call.Dst, callArgs)
	}
	return callArgs
}

func memFlags(align uint32, volatile bool) string {
	out := ""
	if align != 0 {
		out += fmt.Sprintf(", align %d", align)
	}
	if volatile {
		out += ", volatile"
	}
	return out
}
