package layout

import (
	"fmt"

	lltypes "github.com/llir/llvm/ir/types"
)

// TypeLayout is the memory layout of a type for a specific Target.
type TypeLayout struct {
	StoreSize uint64 // bytes occupied by the value itself
	Align     uint64 // bytes

	// Struct-only:
	FieldOffsets []uint64
}

// AllocSize is the store size rounded up to the alignment, the stride
// used for arrays and pointer arithmetic.
func (l TypeLayout) AllocSize() uint64 {
	return roundUp(l.StoreSize, l.Align)
}

// Engine computes memory layout for llir types.
type Engine struct {
	Target Target

	cache map[lltypes.Type]TypeLayout
}

// New creates an Engine for the specified target.
func New(target Target) *Engine {
	return &Engine{
		Target: target,
		cache:  make(map[lltypes.Type]TypeLayout, 256),
	}
}

// LayoutOf computes and caches the layout of a type.
func (e *Engine) LayoutOf(t lltypes.Type) (TypeLayout, error) {
	if l, ok := e.cache[t]; ok {
		return l, nil
	}
	l, err := e.computeLayout(t)
	if err != nil {
		return TypeLayout{}, err
	}
	e.cache[t] = l
	return l, nil
}

// TypeAllocSize returns the number of bytes an element of the type
// occupies in memory, trailing padding included.
func (e *Engine) TypeAllocSize(t lltypes.Type) (uint64, error) {
	l, err := e.LayoutOf(t)
	if err != nil {
		return 0, err
	}
	return l.AllocSize(), nil
}

// TypeAlign returns the alignment requirement of the type in bytes.
func (e *Engine) TypeAlign(t lltypes.Type) (uint64, error) {
	l, err := e.LayoutOf(t)
	if err != nil {
		return 0, err
	}
	return l.Align, nil
}

// StructElementOffset returns the byte offset of a struct field.
func (e *Engine) StructElementOffset(st *lltypes.StructType, idx int) (uint64, error) {
	l, err := e.LayoutOf(st)
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= len(l.FieldOffsets) {
		return 0, fmt.Errorf("layout: struct field index %d out of range (%d fields)", idx, len(l.FieldOffsets))
	}
	return l.FieldOffsets[idx], nil
}

func (e *Engine) computeLayout(t lltypes.Type) (TypeLayout, error) {
	switch tt := t.(type) {
	case *lltypes.IntType:
		size := (tt.BitSize + 7) / 8
		return TypeLayout{StoreSize: size, Align: intAlign(size)}, nil
	case *lltypes.FloatType:
		switch tt.Kind {
		case lltypes.FloatKindHalf:
			return TypeLayout{StoreSize: 2, Align: 2}, nil
		case lltypes.FloatKindFloat:
			return TypeLayout{StoreSize: 4, Align: 4}, nil
		case lltypes.FloatKindDouble:
			return TypeLayout{StoreSize: 8, Align: 8}, nil
		case lltypes.FloatKindX86_FP80:
			return TypeLayout{StoreSize: 10, Align: 16}, nil
		case lltypes.FloatKindFP128, lltypes.FloatKindPPC_FP128:
			return TypeLayout{StoreSize: 16, Align: 16}, nil
		default:
			return TypeLayout{}, fmt.Errorf("layout: unsupported float kind %v", tt.Kind)
		}
	case *lltypes.PointerType:
		return TypeLayout{StoreSize: e.Target.PtrSize, Align: e.Target.PtrAlign}, nil
	case *lltypes.ArrayType:
		elem, err := e.LayoutOf(tt.ElemType)
		if err != nil {
			return TypeLayout{}, err
		}
		return TypeLayout{StoreSize: elem.AllocSize() * tt.Len, Align: elem.Align}, nil
	case *lltypes.VectorType:
		elem, err := e.LayoutOf(tt.ElemType)
		if err != nil {
			return TypeLayout{}, err
		}
		size := elem.StoreSize * tt.Len
		return TypeLayout{StoreSize: size, Align: intAlign(size)}, nil
	case *lltypes.StructType:
		return e.structLayout(tt)
	default:
		return TypeLayout{}, fmt.Errorf("layout: type %v has no memory layout", t)
	}
}

func (e *Engine) structLayout(st *lltypes.StructType) (TypeLayout, error) {
	if st.Opaque {
		return TypeLayout{}, fmt.Errorf("layout: opaque struct %q has no memory layout", st.Name())
	}
	var (
		offset  uint64
		align   uint64 = 1
		offsets        = make([]uint64, 0, len(st.Fields))
	)
	for _, f := range st.Fields {
		fl, err := e.LayoutOf(f)
		if err != nil {
			return TypeLayout{}, err
		}
		fieldAlign := fl.Align
		if st.Packed {
			fieldAlign = 1
		}
		offset = roundUp(offset, fieldAlign)
		offsets = append(offsets, offset)
		offset += fl.AllocSize()
		if fieldAlign > align {
			align = fieldAlign
		}
	}
	return TypeLayout{
		StoreSize:    roundUp(offset, align),
		Align:        align,
		FieldOffsets: offsets,
	}, nil
}

// intAlign is the ABI alignment of an integer (or vector) of the given
// byte size: the next power of two, capped at 16.
func intAlign(size uint64) uint64 {
	align := uint64(1)
	for align < size && align < 16 {
		align <<= 1
	}
	if align == 0 {
		align = 1
	}
	return align
}

func roundUp(n, align uint64) uint64 {
	if align == 0 {
		return n
	}
	return (n + align - 1) / align * align
}
