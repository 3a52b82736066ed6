// Package inject delivers finished text to the user: clipboard always,
// plus an optional paste keystroke into the focused window.
package inject

import (
	"fmt"
	"time"

	"murmur/clipboard"
	"murmur/log"
)

const restoreDelay = 500 * time.Millisecond

// Injector performs exactly one delivery attempt per call. Failures are
// reported but never retried.
type Injector struct {
	// Overridable for tests.
	copyFn  func(string) error
	readFn  func() (string, error)
	pasteFn func() error
	sleepFn func(time.Duration)
}

func New() *Injector {
	return &Injector{
		copyFn:  clipboard.Copy,
		readFn:  clipboard.Read,
		pasteFn: clipboard.Paste,
		sleepFn: time.Sleep,
	}
}

// Deliver writes text to the clipboard and, when autoPaste is set, fires
// the platform paste keystroke and restores the previous clipboard content
// shortly after. A paste failure does not undo the clipboard write.
func (in *Injector) Deliver(text string, autoPaste bool) error {
	var previous string
	if autoPaste {
		// Best effort; an unreadable clipboard just skips the restore.
		previous, _ = in.readFn()
	}

	if err := in.copyFn(text); err != nil {
		return fmt.Errorf("clipboard copy: %w", err)
	}

	if !autoPaste {
		return nil
	}

	if err := in.pasteFn(); err != nil {
		return fmt.Errorf("paste keystroke: %w", err)
	}

	if previous != "" && previous != text {
		go func() {
			in.sleepFn(restoreDelay)
			if err := in.copyFn(previous); err != nil {
				log.Warnf("clipboard restore failed: %v", err)
			}
		}()
	}
	return nil
}
