package hotkey

import (
	"fmt"
	"strings"
)

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// Chord is a parsed global key combination: one or more modifiers plus a
// single trigger key.
type Chord struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Key   string
}

var supportedKeys = map[string]bool{
	"space": true,
	"enter": true,
}

func init() {
	for c := 'a'; c <= 'z'; c++ {
		supportedKeys[string(c)] = true
	}
	for c := '0'; c <= '9'; c++ {
		supportedKeys[string(c)] = true
	}
}

// ParseChord parses a config string like "ctrl+shift+space". At least one
// modifier is required so the chord cannot swallow plain typing.
func ParseChord(s string) (Chord, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) < 2 {
		return Chord{}, fmt.Errorf("chord %q needs at least one modifier and a key", s)
	}

	var c Chord
	for _, mod := range parts[:len(parts)-1] {
		switch strings.TrimSpace(mod) {
		case "ctrl", "control":
			c.Ctrl = true
		case "shift":
			c.Shift = true
		case "alt", "option":
			c.Alt = true
		default:
			return Chord{}, fmt.Errorf("unknown modifier %q in chord %q", mod, s)
		}
	}

	c.Key = strings.TrimSpace(parts[len(parts)-1])
	if !supportedKeys[c.Key] {
		return Chord{}, fmt.Errorf("unsupported key %q in chord %q", c.Key, s)
	}
	return c, nil
}

func (c Chord) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "ctrl")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	if c.Alt {
		parts = append(parts, "alt")
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}
