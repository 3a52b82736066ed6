package style

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	for _, s := range All() {
		got, err := Parse(string(s))
		if err != nil {
			t.Errorf("Parse(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("Parse(%q) = %q", s, got)
		}
	}

	if _, err := Parse("shakespearean"); !errors.Is(err, ErrInvalidStyle) {
		t.Errorf("Parse unknown style: err = %v, want ErrInvalidStyle", err)
	}
}

func TestInstructionsNonEmpty(t *testing.T) {
	for _, s := range All() {
		if s.Instruction() == "" {
			t.Errorf("style %q has no instruction", s)
		}
		if s.Label() == "" {
			t.Errorf("style %q has no label", s)
		}
	}
}

func TestCycleClosure(t *testing.T) {
	m, err := NewManager(Plain)
	if err != nil {
		t.Fatal(err)
	}

	seen := map[Style]bool{}
	n := len(All())
	for i := 0; i < n; i++ {
		seen[m.Cycle()] = true
	}

	if len(seen) != n {
		t.Errorf("cycled through %d distinct styles, want %d", len(seen), n)
	}
	if got := m.Current(); got != Plain {
		t.Errorf("after full cycle Current() = %q, want %q", got, Plain)
	}
}

func TestCycleOrderDeterministic(t *testing.T) {
	m, _ := NewManager(Plain)
	if got := m.Cycle(); got != Casual {
		t.Errorf("Cycle from plain = %q, want casual", got)
	}
	if got := m.Cycle(); got != Formal {
		t.Errorf("second Cycle = %q, want formal", got)
	}
}

func TestSet(t *testing.T) {
	m, _ := NewManager(Plain)

	if err := m.Set(Notes); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := m.Current(); got != Notes {
		t.Errorf("Current = %q after Set(notes)", got)
	}

	if err := m.Set(Style("nope")); !errors.Is(err, ErrInvalidStyle) {
		t.Errorf("Set invalid: err = %v, want ErrInvalidStyle", err)
	}
	if got := m.Current(); got != Notes {
		t.Errorf("invalid Set changed selection to %q", got)
	}
}

func TestNewManagerInvalid(t *testing.T) {
	if _, err := NewManager(Style("bogus")); !errors.Is(err, ErrInvalidStyle) {
		t.Errorf("NewManager invalid: err = %v, want ErrInvalidStyle", err)
	}
}
