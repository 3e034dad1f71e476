package importer

import (
	"strings"

	"github.com/llir/llvm/ir"

	"arlift/internal/air"
	"arlift/internal/layout"
)

// BundleImporter owns the per-module translation state shared by all
// function imports: the type interner, the layout engine, and the maps
// from llir functions and globals to their AIR counterparts.
type BundleImporter struct {
	Interner *air.Interner
	Types    *TypeImporter
	Consts   *ConstantImporter
	Layout   *layout.Engine

	// Options
	StrictDebugInfo bool

	funcs   map[*ir.Func]*air.Function
	globals map[*ir.Global]*air.GlobalVariable
	module  *air.Module
}

// NewBundleImporter constructs the shared import state for one module.
func NewBundleImporter(target layout.Target) *BundleImporter {
	in := air.NewInterner()
	bi := &BundleImporter{
		Interner: in,
		Types:    NewTypeImporter(in),
		Layout:   layout.New(target),
		funcs:    make(map[*ir.Func]*air.Function, 16),
		globals:  make(map[*ir.Global]*air.GlobalVariable, 16),
		module:   &air.Module{},
	}
	bi.Consts = &ConstantImporter{Types: bi.Types, Bundle: bi}
	return bi
}

// Module returns the AIR module being populated.
func (bi *BundleImporter) Module() *air.Module {
	return bi.module
}

// TranslateFunction maps an llir function to its AIR declaration,
// translating the signature on first use.
func (bi *BundleImporter) TranslateFunction(f *ir.Func) *air.Function {
	if af, ok := bi.funcs[f]; ok {
		return af
	}
	sig := f.Sig
	params := make([]air.TypeID, 0, len(sig.Params))
	for _, p := range sig.Params {
		params = append(params, bi.Types.TranslateType(p, air.Signed))
	}
	ret := bi.Types.TranslateType(sig.RetType, air.Signed)
	af := &air.Function{
		Name:     f.Name(),
		Type:     bi.Interner.InternFunction(params, ret, sig.Variadic),
		Variadic: sig.Variadic,
	}
	bi.funcs[f] = af
	bi.module.Funcs = append(bi.module.Funcs, af)
	return af
}

// TranslateGlobal maps an llir global variable to its AIR declaration.
func (bi *BundleImporter) TranslateGlobal(g *ir.Global) *air.GlobalVariable {
	if ag, ok := bi.globals[g]; ok {
		return ag
	}
	content := bi.Types.TranslateType(g.ContentType, air.Signed)
	ag := &air.GlobalVariable{
		Name: g.Name(),
		Type: bi.Interner.Intern(air.MakePointer(content)),
	}
	bi.globals[g] = ag
	bi.module.Globals = append(bi.module.Globals, ag)
	return ag
}

// ImportFunction translates a function declaration and, when the llir
// function has a body, its code.
func (bi *BundleImporter) ImportFunction(f *ir.Func) (*air.Function, error) {
	af := bi.TranslateFunction(f)
	if len(f.Blocks) == 0 || af.Code != nil {
		return af, nil
	}
	fi := NewFunctionImporter(bi, f)
	if _, err := fi.TranslateBody(); err != nil {
		return nil, Errorf("function %s: %v", f.Name(), err)
	}
	return af, nil
}

// ImportModule translates every global variable and function of a
// parsed module into the AIR module.
func (bi *BundleImporter) ImportModule(m *ir.Module) (*air.Module, error) {
	bi.module.Name = m.SourceFilename
	for _, g := range m.Globals {
		bi.TranslateGlobal(g)
	}
	for _, f := range m.Funcs {
		if _, err := bi.ImportFunction(f); err != nil {
			return nil, err
		}
	}
	return bi.module, nil
}

// HasDebugInfo reports whether the function carries a debug subprogram
// attachment.
func (bi *BundleImporter) HasDebugInfo(f *ir.Func) bool {
	for _, md := range f.Metadata {
		if md.Name == "dbg" {
			return true
		}
	}
	return false
}

// IgnoreIntrinsic reports whether calls to the named intrinsic carry no
// runtime semantics for the analysis and translate to nothing.
func (bi *BundleImporter) IgnoreIntrinsic(name string) bool {
	switch {
	case strings.HasPrefix(name, "llvm.dbg."):
		return true
	case strings.HasPrefix(name, "llvm.lifetime."):
		return true
	case strings.HasPrefix(name, "llvm.assume"):
		return true
	case strings.HasPrefix(name, "llvm.expect"):
		return true
	case strings.HasPrefix(name, "llvm.annotation"),
		strings.HasPrefix(name, "llvm.var.annotation"),
		strings.HasPrefix(name, "llvm.ptr.annotation"):
		return true
	case name == "llvm.donothing":
		return true
	}
	return false
}
