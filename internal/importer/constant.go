package importer

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"

	"arlift/internal/air"
)

// ConstantImporter translates llir constants into AIR operands.
type ConstantImporter struct {
	Types  *TypeImporter
	Bundle *BundleImporter
}

// TranslateConstant maps a constant to an operand of the requested
// type. A NoTypeID target means "translate the constant's own type,
// preferring signed".
func (ci *ConstantImporter) TranslateConstant(c constant.Constant, target air.TypeID) (air.Value, error) {
	switch cc := c.(type) {
	case *constant.Int:
		typ := target
		if typ == air.NoTypeID || !ci.Types.Interner.IsInteger(typ) {
			typ = ci.Types.TranslateType(cc.Typ, air.Signed)
		}
		return intOperand(cc, typ), nil
	case *constant.Float:
		typ := target
		if typ == air.NoTypeID {
			typ = ci.Types.TranslateType(cc.Typ, air.Signed)
		}
		f, _ := cc.X.Float64()
		return air.FloatValue(typ, f), nil
	case *constant.Null:
		typ := target
		if typ == air.NoTypeID {
			typ = ci.Types.TranslateType(cc.Typ, air.Signed)
		}
		return air.NullValue(typ), nil
	case *constant.Undef:
		typ := target
		if typ == air.NoTypeID {
			typ = ci.Types.TranslateType(cc.Typ, air.Signed)
		}
		return air.UndefValue(typ), nil
	case *constant.ZeroInitializer:
		typ := target
		if typ == air.NoTypeID {
			typ = ci.Types.TranslateType(cc.Typ, air.Signed)
		}
		return air.ZeroValue(typ), nil
	case *ir.Global:
		g := ci.Bundle.TranslateGlobal(cc)
		typ := target
		if typ == air.NoTypeID {
			typ = g.Type
		}
		return air.GlobalValue(typ, g.Name), nil
	case *ir.Func:
		f := ci.Bundle.TranslateFunction(cc)
		typ := target
		if typ == air.NoTypeID {
			typ = ci.Types.Interner.Intern(air.MakePointer(f.Type))
		}
		return air.FuncValue(typ, f.Name), nil
	case *constant.ExprBitCast:
		typ := target
		if typ == air.NoTypeID {
			typ = ci.Types.TranslateType(cc.To, air.Signed)
		}
		inner, err := ci.TranslateConstant(cc.From, air.NoTypeID)
		if err != nil {
			return air.Value{}, err
		}
		inner.Type = typ
		return inner, nil
	case *constant.ExprGetElementPtr:
		return ci.translateConstGEP(cc, target)
	default:
		return air.Value{}, Errorf("unsupported constant %v", c)
	}
}

// translateConstGEP reduces a constant getelementptr to its base when
// every index is zero; anything else has no operand form.
func (ci *ConstantImporter) translateConstGEP(e *constant.ExprGetElementPtr, target air.TypeID) (air.Value, error) {
	for _, idx := range e.Indices {
		ic, ok := idx.(*constant.Int)
		if !ok || ic.X.Sign() != 0 {
			return air.Value{}, Errorf("unsupported constant getelementptr with non-zero index")
		}
	}
	typ := target
	if typ == air.NoTypeID {
		typ = ci.Types.TranslateType(e.Typ, air.Signed)
	}
	inner, err := ci.TranslateConstant(e.Src, air.NoTypeID)
	if err != nil {
		return air.Value{}, err
	}
	inner.Type = typ
	return inner, nil
}

// TranslateCastIntegerConstant re-types an integer constant to the
// requested integer type.
func (ci *ConstantImporter) TranslateCastIntegerConstant(c constant.Constant, target air.TypeID) (air.Value, error) {
	ic, ok := c.(*constant.Int)
	if !ok {
		return air.Value{}, Errorf("expected integer constant, got %v", c)
	}
	if !ci.Types.Interner.IsInteger(target) {
		return air.Value{}, Errorf("expected integer cast target")
	}
	return intOperand(ic, target), nil
}

func intOperand(c *constant.Int, typ air.TypeID) air.Value {
	v := air.Value{Kind: air.ValueInt, Type: typ}
	switch {
	case c.X.IsUint64():
		v.Int = c.X.Uint64()
	case c.X.IsInt64():
		v.Int = uint64(c.X.Int64())
	default:
		v.Text = c.X.String()
	}
	return v
}
