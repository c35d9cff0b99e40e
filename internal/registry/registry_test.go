package registry

import (
	"slices"
	"testing"
)

func TestRegisterAndGet(t *testing.T) {
	r := New[int]("number")
	r.Register("two", 2)
	r.Register("one", 1)

	v, err := r.Get("two")
	if err != nil || v != 2 {
		t.Errorf("Get(two) = %d, %v", v, err)
	}
	if _, err := r.Get("three"); err == nil {
		t.Error("Get(three) should fail")
	}
	if !r.Exists("one") || r.Exists("three") {
		t.Error("Exists() mismatch")
	}
	if got := r.List(); !slices.Equal(got, []string{"one", "two"}) {
		t.Errorf("List() = %v", got)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	r := New[string]("thing")
	r.Register("a", "x")

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate id")
		}
	}()
	r.Register("a", "y")
}
