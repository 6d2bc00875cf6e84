package value

import "testing"

type fakeIdent struct {
	name string
}

func fakeCapability() Capability {
	return Capability{
		EqualTo:  func(a, b any) bool { return a.(fakeIdent).name == b.(fakeIdent).name },
		LessThan: func(a, b any) bool { return a.(fakeIdent).name < b.(fakeIdent).name },
		Hash:     HashStructure(),
		CreateDescription: func(v any) string {
			return v.(fakeIdent).name
		},
	}
}

func TestEqualToAndLessThan(t *testing.T) {
	cap := fakeCapability()
	a := NewOpaqueValue(fakeIdent{"alpha"}, cap)
	b := NewOpaqueValue(fakeIdent{"beta"}, cap)
	defer a.Release()
	defer b.Release()

	if a.EqualTo(b) {
		t.Errorf("distinct payloads compared equal")
	}
	if !a.LessThan(b) {
		t.Errorf("expected alpha < beta")
	}
	if b.LessThan(a) {
		t.Errorf("expected beta not < alpha")
	}

	c := NewOpaqueValue(fakeIdent{"alpha"}, cap)
	defer c.Release()
	if !a.EqualTo(c) {
		t.Errorf("equal payloads compared unequal")
	}
}

func TestCloneSharesDestructor(t *testing.T) {
	var destroyed int
	cap := fakeCapability()
	cap.Destructor = func(any) { destroyed++ }

	v := NewOpaqueValue(fakeIdent{"x"}, cap)
	clone := v.Clone()

	v.Release()
	if destroyed != 0 {
		t.Fatalf("destructor ran after only one of two references released")
	}
	clone.Release()
	if destroyed != 1 {
		t.Fatalf("destructor ran %d times, want 1", destroyed)
	}
}

func TestZeroValueIsInvalid(t *testing.T) {
	var v Value
	if v.IsValid() {
		t.Errorf("zero Value reported valid")
	}
	if v.Payload() != nil {
		t.Errorf("zero Value Payload() = %v, want nil", v.Payload())
	}
}

func TestStringFallback(t *testing.T) {
	v := NewOpaqueValue(fakeIdent{"x"}, Capability{
		EqualTo:  func(a, b any) bool { return true },
		LessThan: func(a, b any) bool { return false },
		Hash:     HashStructure(),
	})
	defer v.Release()
	if v.String() != "<opaque value>" {
		t.Errorf("String() = %q, want fallback placeholder", v.String())
	}
}
