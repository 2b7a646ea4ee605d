package bcty

import "testing"

func TestConcreteness(t *testing.T) {
	if !Int32().IsConcrete() {
		t.Fatalf("Int32 should be concrete")
	}
	if TypeParam(0).IsConcrete() {
		t.Fatalf("TypeParam should not be concrete")
	}
	tup := Tuple(New([]BytecodeType{Int32(), TypeParam(0)}))
	if tup.IsConcrete() {
		t.Fatalf("Tuple containing a TypeParam should not be concrete")
	}
}

func TestSpecializeSubstitutesTypeParams(t *testing.T) {
	generic := Class(3, One(TypeParam(0)))
	args := One(Int32())
	got := generic.Specialize(args)

	want := Class(3, One(Int32()))
	if !got.Equal(want) {
		t.Fatalf("Specialize() = %s, want %s", got, want)
	}
	if !got.IsConcrete() {
		t.Fatalf("specialized type should be concrete")
	}
}

func TestSpecializeRecursesIntoNestedContainers(t *testing.T) {
	lambda := Lambda(One(TypeParam(0)), TypeParam(1))
	args := New([]BytecodeType{Int64(), Bool()})

	got := lambda.Specialize(args)
	want := Lambda(One(Int64()), Bool())
	if !got.Equal(want) {
		t.Fatalf("Specialize() = %s, want %s", got, want)
	}
}

func TestTypeArrayKeyIsStructural(t *testing.T) {
	a := New([]BytecodeType{Int32(), Bool()})
	b := New([]BytecodeType{Int32(), Bool()})
	c := New([]BytecodeType{Bool(), Int32()})

	if a.Key() != b.Key() {
		t.Fatalf("equal arrays must have equal keys")
	}
	if a.Key() == c.Key() {
		t.Fatalf("differently-ordered arrays must not collide")
	}
}

func TestAppendDoesNotMutateReceiver(t *testing.T) {
	a := One(Int32())
	b := a.Append(Bool())

	if a.Len() != 1 {
		t.Fatalf("Append must not mutate the receiver, got len %d", a.Len())
	}
	if b.Len() != 2 {
		t.Fatalf("expected appended array to have len 2, got %d", b.Len())
	}
}

func TestIsReference(t *testing.T) {
	cases := []struct {
		ty   BytecodeType
		want bool
	}{
		{Int32(), false},
		{Ptr(), true},
		{Class(1, Empty()), true},
		{Struct(1, Empty()), false},
		{Trait(1, Empty()), true},
		{Lambda(Empty(), Unit()), true},
	}
	for _, c := range cases {
		if got := c.ty.IsReference(); got != c.want {
			t.Errorf("%s.IsReference() = %v, want %v", c.ty, got, c.want)
		}
	}
}
