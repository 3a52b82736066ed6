package rewriter

import (
	"context"
	"sync"

	"murmur/style"
)

// FakeRewriter either echoes the transcript with a prefix or fails,
// depending on Ok.
type FakeRewriter struct {
	Ok     bool
	Prefix string
	Err    error

	mu         sync.Mutex
	calls      int
	lastInput  string
	lastStyle  style.Style
}

func (f *FakeRewriter) Name() string { return "fake" }

func (f *FakeRewriter) Rewrite(_ context.Context, transcript string, st style.Style) Result {
	f.mu.Lock()
	f.calls++
	f.lastInput = transcript
	f.lastStyle = st
	f.mu.Unlock()

	if !f.Ok {
		return Result{Ok: false, Err: f.Err}
	}
	return Result{Text: f.Prefix + transcript, Ok: true}
}

func (f *FakeRewriter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeRewriter) LastInput() (string, style.Style) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastInput, f.lastStyle
}
