package air

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Void == NoTypeID || b.Bool == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	boolT, _ := in.Lookup(b.Bool)
	if boolT.Kind != KindInteger || boolT.Width != 1 || boolT.Sign != Unsigned {
		t.Fatalf("expected unsigned 1-bit integer, got %+v", boolT)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Intern(MakeInteger(32, Signed))
	ptr1 := in.Intern(MakePointer(elem))
	ptr2 := in.Intern(MakePointer(elem))
	if ptr1 != ptr2 {
		t.Fatalf("pointer types should be deduplicated")
	}
}

func TestSignAffectsIdentity(t *testing.T) {
	in := NewInterner()
	si := in.Intern(MakeInteger(32, Signed))
	ui := in.Intern(MakeInteger(32, Unsigned))
	if si == ui {
		t.Fatalf("equal-width integers with opposite signs must differ")
	}
	if in.WithSign(si, Unsigned) != ui {
		t.Fatalf("WithSign should reintern to the opposite-sign descriptor")
	}
	if in.WithSign(si, Signed) != si {
		t.Fatalf("WithSign with the same sign should be the identity")
	}
}

func TestBitcastCompatible(t *testing.T) {
	in := NewInterner()
	si32 := in.Intern(MakeInteger(32, Signed))
	ui32 := in.Intern(MakeInteger(32, Unsigned))
	si64 := in.Intern(MakeInteger(64, Signed))
	p32 := in.Intern(MakePointer(si32))
	p64 := in.Intern(MakePointer(si64))
	dbl := in.Builtins().Double

	if !in.BitcastCompatible(si32, ui32) {
		t.Fatalf("equal-width opposite-sign integers must be bitcast compatible")
	}
	if in.BitcastCompatible(si32, si64) {
		t.Fatalf("integers of different widths must not be bitcast compatible")
	}
	if !in.BitcastCompatible(p32, p64) {
		t.Fatalf("any two pointers must be bitcast compatible")
	}
	if in.BitcastCompatible(p32, si64) {
		t.Fatalf("pointer and integer must not be bitcast compatible")
	}
	if in.BitcastCompatible(si64, dbl) {
		t.Fatalf("integer and float must not be bitcast compatible")
	}
}

func TestInternStructAndFunction(t *testing.T) {
	in := NewInterner()
	si32 := in.Intern(MakeInteger(32, Signed))
	ui8 := in.Builtins().UInt8

	s1 := in.InternStruct([]StructField{{Type: si32}, {Type: ui8}}, false)
	s2 := in.InternStruct([]StructField{{Type: si32}, {Type: ui8}}, false)
	if s1 != s2 {
		t.Fatalf("identical struct descriptors should be deduplicated")
	}
	packed := in.InternStruct([]StructField{{Type: si32}, {Type: ui8}}, true)
	if packed == s1 {
		t.Fatalf("packed flag must affect identity")
	}
	info, ok := in.StructInfo(s1)
	if !ok || len(info.Fields) != 2 {
		t.Fatalf("struct info not stored")
	}

	f1 := in.InternFunction([]TypeID{si32}, in.Builtins().Void, false)
	f2 := in.InternFunction([]TypeID{si32}, in.Builtins().Void, false)
	if f1 != f2 {
		t.Fatalf("identical function descriptors should be deduplicated")
	}
	fv := in.InternFunction([]TypeID{si32}, in.Builtins().Void, true)
	if fv == f1 {
		t.Fatalf("variadic flag must affect identity")
	}
}

func TestTypeString(t *testing.T) {
	in := NewInterner()
	si32 := in.Intern(MakeInteger(32, Signed))
	ptr := in.Intern(MakePointer(si32))
	if got := in.String(si32); got != "si32" {
		t.Fatalf("unexpected string %q", got)
	}
	if got := in.String(ptr); got != "si32*" {
		t.Fatalf("unexpected string %q", got)
	}
}
