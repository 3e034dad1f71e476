package importer

import (
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/metadata"
	lltypes "github.com/llir/llvm/ir/types"

	"arlift/internal/air"
)

// TypeImporter translates llir types into interned AIR types. Results
// are memoized per (type, sign) pair.
type TypeImporter struct {
	Interner *air.Interner

	memo    map[typeSignKey]air.TypeID
	visited map[lltypes.Type]bool
}

type typeSignKey struct {
	typ  lltypes.Type
	sign air.Sign
}

// NewTypeImporter constructs a TypeImporter over the given interner.
func NewTypeImporter(in *air.Interner) *TypeImporter {
	return &TypeImporter{
		Interner: in,
		memo:     make(map[typeSignKey]air.TypeID, 64),
		visited:  make(map[lltypes.Type]bool, 16),
	}
}

// TranslateType maps an llir type to an AIR type. Integer components
// take the preferred signedness; the preference propagates into
// pointees, elements, fields and signatures.
func (ti *TypeImporter) TranslateType(t lltypes.Type, sign air.Sign) air.TypeID {
	key := typeSignKey{typ: t, sign: sign}
	if id, ok := ti.memo[key]; ok {
		return id
	}
	id := ti.translate(t, sign)
	ti.memo[key] = id
	return id
}

func (ti *TypeImporter) translate(t lltypes.Type, sign air.Sign) air.TypeID {
	in := ti.Interner
	switch tt := t.(type) {
	case *lltypes.VoidType:
		return in.Builtins().Void
	case *lltypes.IntType:
		return in.Intern(air.MakeInteger(air.Width(tt.BitSize), sign))
	case *lltypes.FloatType:
		return in.Intern(air.MakeFloat(floatSem(tt.Kind)))
	case *lltypes.PointerType:
		// Recursive aggregates close their cycle through a pointer;
		// the pointee degrades to a byte there.
		if ti.visited[tt.ElemType] {
			return in.Builtins().BytePtr
		}
		return in.Intern(air.MakePointer(ti.TranslateType(tt.ElemType, sign)))
	case *lltypes.ArrayType:
		return in.Intern(air.MakeArray(ti.TranslateType(tt.ElemType, sign), uint32(tt.Len)))
	case *lltypes.VectorType:
		return in.Intern(air.MakeVector(ti.TranslateType(tt.ElemType, sign), uint32(tt.Len)))
	case *lltypes.StructType:
		if tt.Opaque {
			return in.Builtins().UInt8
		}
		ti.visited[tt] = true
		fields := make([]air.StructField, 0, len(tt.Fields))
		for _, f := range tt.Fields {
			fields = append(fields, air.StructField{Type: ti.TranslateType(f, sign)})
		}
		delete(ti.visited, tt)
		return in.InternStruct(fields, tt.Packed)
	case *lltypes.FuncType:
		params := make([]air.TypeID, 0, len(tt.Params))
		for _, p := range tt.Params {
			params = append(params, ti.TranslateType(p, sign))
		}
		ret := ti.TranslateType(tt.RetType, sign)
		return in.InternFunction(params, ret, tt.Variadic)
	default:
		return in.Builtins().Void
	}
}

func floatSem(k lltypes.FloatKind) air.FloatSem {
	switch k {
	case lltypes.FloatKindHalf:
		return air.FloatHalf
	case lltypes.FloatKindFloat:
		return air.FloatSingle
	case lltypes.FloatKindDouble:
		return air.FloatDouble
	case lltypes.FloatKindX86_FP80:
		return air.FloatX86FP80
	case lltypes.FloatKindFP128:
		return air.FloatFP128
	case lltypes.FloatKindPPC_FP128:
		return air.FloatPPCFP128
	default:
		return air.FloatDouble
	}
}

// TranslateDIType translates a source-level debug type paired with the
// llir type it annotates. Best effort: unsupported metadata shapes
// return an error, which lenient callers demote to a fallback.
func (ti *TypeImporter) TranslateDIType(di metadata.Field, t lltypes.Type) (air.TypeID, error) {
	if di == nil {
		return ti.TranslateType(t, air.Signed), nil
	}
	switch md := di.(type) {
	case *metadata.DIBasicType:
		sign, isFloat, ok := encodingSign(md.Encoding)
		if !ok {
			return air.NoTypeID, Errorf("unsupported debug type encoding for %v", t)
		}
		if isFloat {
			if _, isF := t.(*lltypes.FloatType); !isF {
				return air.NoTypeID, Errorf("debug float type does not match %v", t)
			}
			return ti.TranslateType(t, air.Signed), nil
		}
		if _, isI := t.(*lltypes.IntType); !isI {
			return air.NoTypeID, Errorf("debug integer type does not match %v", t)
		}
		return ti.TranslateType(t, sign), nil
	case *metadata.DIDerivedType:
		switch md.Tag {
		case enum.DwarfTagPointerType, enum.DwarfTagReferenceType:
			ptr, isPtr := t.(*lltypes.PointerType)
			if !isPtr {
				return air.NoTypeID, Errorf("debug pointer type does not match %v", t)
			}
			pointee, err := ti.TranslateDIType(md.BaseType, ptr.ElemType)
			if err != nil {
				return air.NoTypeID, err
			}
			return ti.Interner.Intern(air.MakePointer(pointee)), nil
		case enum.DwarfTagTypedef, enum.DwarfTagConstType, enum.DwarfTagVolatileType,
			enum.DwarfTagRestrictType, enum.DwarfTagMember:
			return ti.TranslateDIType(md.BaseType, t)
		default:
			return air.NoTypeID, Errorf("unsupported derived debug type tag %v", md.Tag)
		}
	case *metadata.DISubroutineType:
		if _, isF := t.(*lltypes.FuncType); !isF {
			return air.NoTypeID, Errorf("debug subroutine type does not match %v", t)
		}
		return ti.TranslateType(t, air.Signed), nil
	default:
		return air.NoTypeID, Errorf("unsupported debug type node")
	}
}

// MatchDIType reports whether the debug type is structurally compatible
// with the llir type it annotates.
func (ti *TypeImporter) MatchDIType(di metadata.Field, t lltypes.Type) bool {
	_, err := ti.TranslateDIType(di, t)
	return err == nil
}

func encodingSign(enc enum.DwarfAttEncoding) (sign air.Sign, isFloat, ok bool) {
	switch enc {
	case enum.DwarfAttEncodingSigned, enum.DwarfAttEncodingSignedChar:
		return air.Signed, false, true
	case enum.DwarfAttEncodingUnsigned, enum.DwarfAttEncodingUnsignedChar, enum.DwarfAttEncodingBoolean:
		return air.Unsigned, false, true
	case enum.DwarfAttEncodingFloat:
		return air.Unsigned, true, true
	default:
		return air.Unsigned, false, false
	}
}
