package layout

import (
	"testing"

	lltypes "github.com/llir/llvm/ir/types"
)

func TestIntegerAllocSizes(t *testing.T) {
	e := New(X86_64LinuxGNU())
	cases := []struct {
		bits  uint64
		alloc uint64
	}{
		{1, 1},
		{8, 1},
		{16, 2},
		{32, 4},
		{36, 8},
		{64, 8},
		{128, 16},
	}
	for _, tc := range cases {
		got, err := e.TypeAllocSize(lltypes.NewInt(tc.bits))
		if err != nil {
			t.Fatalf("i%d: %v", tc.bits, err)
		}
		if got != tc.alloc {
			t.Fatalf("i%d: alloc size %d, want %d", tc.bits, got, tc.alloc)
		}
	}
}

func TestPointerAndFloatSizes(t *testing.T) {
	e := New(X86_64LinuxGNU())

	ptr := lltypes.NewPointer(lltypes.I32)
	if got, _ := e.TypeAllocSize(ptr); got != 8 {
		t.Fatalf("pointer alloc size %d, want 8", got)
	}
	if got, _ := e.TypeAllocSize(lltypes.Double); got != 8 {
		t.Fatalf("double alloc size %d, want 8", got)
	}
	fp80 := &lltypes.FloatType{Kind: lltypes.FloatKindX86_FP80}
	if got, _ := e.TypeAllocSize(fp80); got != 16 {
		t.Fatalf("x86_fp80 alloc size %d, want 16", got)
	}
}

func TestStructOffsetsWithPadding(t *testing.T) {
	e := New(X86_64LinuxGNU())
	// { i8, i32, i8, i64 } -> offsets 0, 4, 8, 16; size 24
	st := lltypes.NewStruct(lltypes.I8, lltypes.I32, lltypes.I8, lltypes.I64)

	want := []uint64{0, 4, 8, 16}
	for i, w := range want {
		got, err := e.StructElementOffset(st, i)
		if err != nil {
			t.Fatalf("field %d: %v", i, err)
		}
		if got != w {
			t.Fatalf("field %d: offset %d, want %d", i, got, w)
		}
	}
	if size, _ := e.TypeAllocSize(st); size != 24 {
		t.Fatalf("struct alloc size %d, want 24", size)
	}
}

func TestPackedStructHasNoPadding(t *testing.T) {
	e := New(X86_64LinuxGNU())
	st := lltypes.NewStruct(lltypes.I8, lltypes.I32, lltypes.I8)
	st.Packed = true

	if off, _ := e.StructElementOffset(st, 1); off != 1 {
		t.Fatalf("packed field 1 offset %d, want 1", off)
	}
	if size, _ := e.TypeAllocSize(st); size != 6 {
		t.Fatalf("packed struct alloc size %d, want 6", size)
	}
}

func TestNestedAggregates(t *testing.T) {
	e := New(X86_64LinuxGNU())
	inner := lltypes.NewStruct(lltypes.I32, lltypes.I8) // size 8, align 4
	arr := lltypes.NewArray(3, inner)                   // size 24

	if size, _ := e.TypeAllocSize(arr); size != 24 {
		t.Fatalf("array alloc size %d, want 24", size)
	}
	outer := lltypes.NewStruct(lltypes.I8, arr)
	if off, _ := e.StructElementOffset(outer, 1); off != 4 {
		t.Fatalf("outer field 1 offset %d, want 4", off)
	}
}

func TestOpaqueStructHasNoLayout(t *testing.T) {
	e := New(X86_64LinuxGNU())
	st := &lltypes.StructType{Opaque: true}
	if _, err := e.TypeAllocSize(st); err == nil {
		t.Fatalf("expected error for opaque struct")
	}
}

func TestParseTarget(t *testing.T) {
	if _, err := ParseTarget("x86_64-linux-gnu"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseTarget("sparc-sun-solaris"); err == nil {
		t.Fatalf("expected error for unknown triple")
	}
}
