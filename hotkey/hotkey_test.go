package hotkey

import "testing"

func TestParseChord(t *testing.T) {
	tests := []struct {
		in   string
		want Chord
	}{
		{"ctrl+shift+space", Chord{Ctrl: true, Shift: true, Key: "space"}},
		{"Ctrl+Alt+D", Chord{Ctrl: true, Alt: true, Key: "d"}},
		{"control+option+m", Chord{Ctrl: true, Alt: true, Key: "m"}},
		{"shift+5", Chord{Shift: true, Key: "5"}},
	}
	for _, tt := range tests {
		got, err := ParseChord(tt.in)
		if err != nil {
			t.Fatalf("ParseChord(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseChord(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseChordRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "space", "ctrl+", "super+space", "ctrl+escape"} {
		if _, err := ParseChord(in); err == nil {
			t.Fatalf("ParseChord(%q) accepted, want error", in)
		}
	}
}

func TestChordString(t *testing.T) {
	c := Chord{Ctrl: true, Shift: true, Key: "space"}
	if c.String() != "ctrl+shift+space" {
		t.Fatalf("got %q", c.String())
	}
}
