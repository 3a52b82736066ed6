package hotkey

import (
	"sync/atomic"
	"time"
)

// Hybrid layers tap-to-toggle on top of hold-to-talk using the same chord.
// A press held past the threshold behaves as push-to-talk and stops on
// release. A shorter tap leaves recording toggled on until the next tap.
type Hybrid struct {
	startCh chan struct{}
	stopCh  chan struct{}
	toggled atomic.Bool
}

func NewHybrid(hk Hotkey, threshold time.Duration) *Hybrid {
	h := &Hybrid{
		startCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}, 1),
	}
	go h.run(hk, threshold)
	return h
}

// Start signals when recording should begin.
func (h *Hybrid) Start() <-chan struct{} { return h.startCh }

// StopChan signals when recording should end, for both hold and toggle.
func (h *Hybrid) StopChan() <-chan struct{} { return h.stopCh }

// IsToggle reports whether the current recording was toggled on by a tap
// rather than held. Toggle recordings are subject to the auto-close cap.
func (h *Hybrid) IsToggle() bool { return h.toggled.Load() }

func (h *Hybrid) run(hk Hotkey, threshold time.Duration) {
	for {
		<-hk.Keydown()
		h.toggled.Store(false)
		select {
		case h.startCh <- struct{}{}:
		default:
		}

		timer := time.NewTimer(threshold)
		select {
		case <-timer.C:
			// Held past the threshold: plain push-to-talk.
			<-hk.Keyup()
		case <-hk.Keyup():
			// Tap: recording stays on until the next press+release.
			if !timer.Stop() {
				<-timer.C
			}
			h.toggled.Store(true)
			<-hk.Keydown()
			<-hk.Keyup()
		}

		select {
		case h.stopCh <- struct{}{}:
		default:
		}
	}
}
