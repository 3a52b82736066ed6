// Package style holds the dictation output styles and the process-wide
// selection of the active one.
package style

import (
	"errors"
	"fmt"
	"sync"
)

type Style string

const (
	Plain  Style = "plain"
	Casual Style = "casual"
	Formal Style = "formal"
	Notes  Style = "notes"
	Prompt Style = "prompt"
)

var ErrInvalidStyle = errors.New("invalid style")

// cycleOrder is the fixed order used by Cycle. It doubles as the set of
// valid styles.
var cycleOrder = []Style{Plain, Casual, Formal, Notes, Prompt}

var labels = map[Style]string{
	Plain:  "Plain cleanup",
	Casual: "Casual",
	Formal: "Formal",
	Notes:  "Structured notes",
	Prompt: "Prompt template",
}

// instructions are the per-style rewrite directives sent alongside the
// shared system prompt.
var instructions = map[Style]string{
	Plain: "Clean up the transcript: fix punctuation, capitalization, and " +
		"obvious speech disfluencies (ums, false starts, repeated words). " +
		"Keep the wording otherwise unchanged.",
	Casual: "Rewrite the transcript as a casual message: short sentences, " +
		"relaxed conversational tone, no sign-off.",
	Formal: "Rewrite the transcript in a professional register: complete " +
		"sentences, clean paragraphing, suitable for email.",
	Notes: "Restructure the transcript as concise notes: short bullet " +
		"points, one idea per line, preserve the original order.",
	Prompt: "Rewrite the transcript as a clear instruction to an AI " +
		"assistant: state the task first, then constraints and context.",
}

func All() []Style {
	out := make([]Style, len(cycleOrder))
	copy(out, cycleOrder)
	return out
}

func Parse(s string) (Style, error) {
	st := Style(s)
	if _, ok := instructions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStyle, s)
	}
	return st, nil
}

func (s Style) Label() string {
	return labels[s]
}

// Instruction returns the rewrite directive for this style.
func (s Style) Instruction() string {
	return instructions[s]
}

// Manager holds the active style. The selection is a single scalar read
// concurrently by the UI and the session pipeline; it lives only in memory
// and resets to the configured default on restart.
type Manager struct {
	mu      sync.Mutex
	current Style
}

func NewManager(initial Style) (*Manager, error) {
	if _, err := Parse(string(initial)); err != nil {
		return nil, err
	}
	return &Manager{current: initial}, nil
}

func (m *Manager) Current() Style {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Cycle advances to the next style in the fixed order and returns it.
func (m *Manager) Cycle() Style {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range cycleOrder {
		if s == m.current {
			m.current = cycleOrder[(i+1)%len(cycleOrder)]
			return m.current
		}
	}
	m.current = cycleOrder[0]
	return m.current
}

func (m *Manager) Set(s Style) error {
	if _, err := Parse(string(s)); err != nil {
		return err
	}
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return nil
}
