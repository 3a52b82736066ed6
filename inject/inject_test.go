package inject

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeBoard struct {
	mu       sync.Mutex
	content  string
	copies   []string
	pastes   int
	copyErr  error
	pasteErr error
	slept    chan struct{}
}

func newFakeBoard(initial string) *fakeBoard {
	return &fakeBoard{content: initial, slept: make(chan struct{}, 1)}
}

func (b *fakeBoard) injector() *Injector {
	return &Injector{
		copyFn: func(s string) error {
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.copyErr != nil {
				return b.copyErr
			}
			b.content = s
			b.copies = append(b.copies, s)
			return nil
		},
		readFn: func() (string, error) {
			b.mu.Lock()
			defer b.mu.Unlock()
			return b.content, nil
		},
		pasteFn: func() error {
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.pasteErr != nil {
				return b.pasteErr
			}
			b.pastes++
			return nil
		},
		sleepFn: func(time.Duration) {
			b.slept <- struct{}{}
		},
	}
}

func (b *fakeBoard) snapshot() (string, []string, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content, append([]string(nil), b.copies...), b.pastes
}

func TestDeliverClipboardOnly(t *testing.T) {
	b := newFakeBoard("old")
	if err := b.injector().Deliver("hello", false); err != nil {
		t.Fatal(err)
	}
	content, copies, pastes := b.snapshot()
	if content != "hello" || pastes != 0 {
		t.Fatalf("content=%q pastes=%d", content, pastes)
	}
	if len(copies) != 1 {
		t.Fatalf("copies=%v", copies)
	}
}

func TestDeliverAutoPasteRestoresPrevious(t *testing.T) {
	b := newFakeBoard("old content")
	in := b.injector()
	if err := in.Deliver("new text", true); err != nil {
		t.Fatal(err)
	}

	select {
	case <-b.slept:
	case <-time.After(time.Second):
		t.Fatal("restore goroutine never ran")
	}

	deadline := time.Now().Add(time.Second)
	for {
		content, _, pastes := b.snapshot()
		if content == "old content" && pastes == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("content=%q pastes=%d, want restore", content, pastes)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDeliverCopyFailure(t *testing.T) {
	b := newFakeBoard("")
	b.copyErr = errors.New("no display")
	in := b.injector()
	if err := in.Deliver("text", true); err == nil {
		t.Fatal("expected error")
	}
	_, _, pastes := b.snapshot()
	if pastes != 0 {
		t.Fatal("paste fired after failed copy")
	}
}

func TestDeliverPasteFailureKeepsClipboard(t *testing.T) {
	b := newFakeBoard("old")
	b.pasteErr = errors.New("no uinput")
	in := b.injector()
	if err := in.Deliver("text", true); err == nil {
		t.Fatal("expected error")
	}
	content, _, _ := b.snapshot()
	if content != "text" {
		t.Fatalf("clipboard lost the delivered text: %q", content)
	}
}

func TestDeliverNoRestoreWhenPreviousEmpty(t *testing.T) {
	b := newFakeBoard("")
	if err := b.injector().Deliver("text", true); err != nil {
		t.Fatal(err)
	}
	select {
	case <-b.slept:
		t.Fatal("restore scheduled for empty previous clipboard")
	case <-time.After(50 * time.Millisecond):
	}
}
