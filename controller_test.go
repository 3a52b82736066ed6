package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"murmur/rewriter"
	"murmur/style"
	"murmur/transcriber"
)

type fakeRecorder struct {
	mu       sync.Mutex
	pcm      []int16
	startErr error
	starts   int
	stops    int
	started  bool

	// When set, Start signals on the barrier and then blocks on it,
	// letting tests hold a session inside the device open.
	startBarrier chan struct{}
}

func (f *fakeRecorder) Start() error {
	f.mu.Lock()
	if f.startErr != nil {
		f.mu.Unlock()
		return f.startErr
	}
	barrier := f.startBarrier
	f.mu.Unlock()
	if barrier != nil {
		barrier <- struct{}{}
		<-barrier
	}
	f.mu.Lock()
	f.starts++
	f.started = true
	f.mu.Unlock()
	return nil
}

// Stop mirrors the real recorder: nil before Start has completed.
func (f *fakeRecorder) Stop() []int16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started {
		return nil
	}
	f.started = false
	f.stops++
	return f.pcm
}

type fakeDeliverer struct {
	mu    sync.Mutex
	texts []string
	autos []bool
	err   error
}

func (f *fakeDeliverer) Deliver(text string, autoPaste bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.autos = append(f.autos, autoPaste)
	return f.err
}

func (f *fakeDeliverer) delivered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type captureSink struct {
	nopSink
	mu      sync.Mutex
	results []string
	copied  []bool
	errors  []string
}

func (s *captureSink) Result(text string, _ bool, copied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, text)
	s.copied = append(s.copied, copied)
}

func (s *captureSink) SessionError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, msg)
}

// gateTranscriber blocks in Transcribe until released.
type gateTranscriber struct {
	gate  chan struct{}
	mu    sync.Mutex
	calls int
}

func (g *gateTranscriber) Name() string { return "gate" }

func (g *gateTranscriber) Transcribe(_ context.Context, _ []int16) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	<-g.gate
	return "gated text", nil
}

type harness struct {
	ctrl     *Controller
	rec      *fakeRecorder
	trans    *transcriber.FakeTranscriber
	rw       *rewriter.FakeRewriter
	inj      *fakeDeliverer
	sink     *captureSink
	modes    *style.Manager
	outcomes chan string
}

func newHarness(t *testing.T, trans transcriber.Transcriber, rw rewriter.Rewriter) *harness {
	t.Helper()
	h := &harness{
		rec:      &fakeRecorder{pcm: make([]int16, 16000)}, // 1s of audio
		inj:      &fakeDeliverer{},
		sink:     &captureSink{},
		outcomes: make(chan string, 8),
	}
	var err error
	h.modes, err = style.NewManager(style.Plain)
	if err != nil {
		t.Fatal(err)
	}
	h.ctrl = NewController(h.rec, trans, rw, h.inj, h.modes, h.sink, ControllerConfig{
		MinDuration: 300 * time.Millisecond,
		AutoPaste:   true,
		OnIdle:      func(outcome string) { h.outcomes <- outcome },
	})
	return h
}

func (h *harness) waitOutcome(t *testing.T) string {
	t.Helper()
	select {
	case o := <-h.outcomes:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session outcome")
		return ""
	}
}

func TestSessionSuccess(t *testing.T) {
	trans := transcriber.NewFake("raw words", nil)
	rw := &rewriter.FakeRewriter{Ok: true, Prefix: "styled: "}
	h := newHarness(t, trans, rw)

	h.ctrl.Press()
	h.ctrl.Release()

	if got := h.waitOutcome(t); got != "success" {
		t.Fatalf("outcome = %q", got)
	}
	if got := h.inj.delivered(); len(got) != 1 || got[0] != "styled: raw words" {
		t.Fatalf("delivered = %v", got)
	}
	last, _ := h.ctrl.LastText()
	if last != "styled: raw words" {
		t.Fatalf("last text = %q", last)
	}
}

func TestRewriteFailureFallsBackToRaw(t *testing.T) {
	trans := transcriber.NewFake("exact raw transcript", nil)
	rw := &rewriter.FakeRewriter{Ok: false, Err: errors.New("api down")}
	h := newHarness(t, trans, rw)

	h.ctrl.Press()
	h.ctrl.Release()

	if got := h.waitOutcome(t); got != "fallback_raw" {
		t.Fatalf("outcome = %q", got)
	}
	if got := h.inj.delivered(); len(got) != 1 || got[0] != "exact raw transcript" {
		t.Fatalf("injector must receive the raw transcript verbatim, got %v", got)
	}
}

func TestShortRecordingDiscarded(t *testing.T) {
	trans := transcriber.NewFake("should never run", nil)
	rw := &rewriter.FakeRewriter{Ok: true}
	h := newHarness(t, trans, rw)
	h.rec.pcm = make([]int16, 1600) // 100ms, below the 300ms threshold

	h.ctrl.Press()
	h.ctrl.Release()

	if got := h.waitOutcome(t); got != "discarded_short" {
		t.Fatalf("outcome = %q", got)
	}
	if trans.Calls() != 0 || rw.Calls() != 0 || len(h.inj.delivered()) != 0 {
		t.Fatal("downstream stages ran for a sub-threshold recording")
	}

	// Controller must be reusable immediately
	h.rec.pcm = make([]int16, 16000)
	h.ctrl.Press()
	h.ctrl.Release()
	if got := h.waitOutcome(t); got != "success" {
		t.Fatalf("next session outcome = %q", got)
	}
}

func TestPressWhileInFlightIgnored(t *testing.T) {
	gate := &gateTranscriber{gate: make(chan struct{})}
	rw := &rewriter.FakeRewriter{Ok: true}
	h := newHarness(t, gate, rw)

	h.ctrl.Press()
	h.ctrl.Release()

	// Pipeline is now blocked in the transcriber. Extra presses and
	// releases must not open a second session.
	time.Sleep(20 * time.Millisecond)
	h.ctrl.Press()
	h.ctrl.Release()
	h.ctrl.Press()

	close(gate.gate)
	if got := h.waitOutcome(t); got != "success" {
		t.Fatalf("outcome = %q", got)
	}

	gate.mu.Lock()
	calls := gate.calls
	gate.mu.Unlock()
	if calls != 1 {
		t.Fatalf("transcriber called %d times, want 1", calls)
	}
	if got := h.inj.delivered(); len(got) != 1 {
		t.Fatalf("delivered %d times, want 1", len(got))
	}
	if h.rec.starts != 1 {
		t.Fatalf("recorder started %d times, want 1", h.rec.starts)
	}
}

func TestReleaseDuringDeviceOpenClosesMic(t *testing.T) {
	trans := transcriber.NewFake("should never run", nil)
	h := newHarness(t, trans, &rewriter.FakeRewriter{Ok: true})
	h.rec.startBarrier = make(chan struct{})

	pressDone := make(chan struct{})
	go func() {
		h.ctrl.Press()
		close(pressDone)
	}()
	<-h.rec.startBarrier // Press is now inside the device open

	// A tray stop arrives while the device is still opening. The session
	// closes with nothing buffered.
	h.ctrl.Release()
	if got := h.waitOutcome(t); got != "discarded_short" {
		t.Fatalf("outcome = %q", got)
	}

	h.rec.startBarrier <- struct{}{} // let the open finish
	<-pressDone

	h.rec.mu.Lock()
	starts, stops := h.rec.starts, h.rec.stops
	h.rec.mu.Unlock()
	if starts != 1 || stops != 1 {
		t.Fatalf("recorder left running: starts=%d stops=%d", starts, stops)
	}
	if h.ctrl.Recording() {
		t.Fatal("controller still recording after the session closed")
	}
	if trans.Calls() != 0 {
		t.Fatal("pipeline ran for a session closed mid-open")
	}

	// The next session must start from a clean recorder.
	h.rec.mu.Lock()
	h.rec.startBarrier = nil
	h.rec.mu.Unlock()
	h.ctrl.Press()
	h.ctrl.Release()
	if got := h.waitOutcome(t); got != "success" {
		t.Fatalf("next session outcome = %q", got)
	}
}

func TestStyleReadAtReleaseTime(t *testing.T) {
	trans := transcriber.NewFake("text", nil)
	rw := &rewriter.FakeRewriter{Ok: true}
	h := newHarness(t, trans, rw)

	h.ctrl.Press()
	// Style change mid-recording applies to this session
	h.modes.Cycle()
	h.ctrl.Release()
	h.waitOutcome(t)

	_, st := rw.LastInput()
	if st == style.Plain {
		t.Fatal("rewriter saw the press-time style, want the release-time style")
	}
	if st != h.modes.Current() {
		t.Fatalf("rewriter style = %v, manager = %v", st, h.modes.Current())
	}
}

func TestEmptyTranscriptAborts(t *testing.T) {
	trans := transcriber.NewFake("   \n ", nil)
	rw := &rewriter.FakeRewriter{Ok: true}
	h := newHarness(t, trans, rw)

	h.ctrl.Press()
	h.ctrl.Release()

	if got := h.waitOutcome(t); got != "aborted_empty" {
		t.Fatalf("outcome = %q", got)
	}
	if rw.Calls() != 0 {
		t.Fatal("rewriter ran for an empty transcript")
	}
	if len(h.inj.delivered()) != 0 {
		t.Fatal("injection ran for an empty transcript")
	}
}

func TestTranscribeFailureAborts(t *testing.T) {
	trans := transcriber.NewFake("", errors.New("whisper exploded"))
	rw := &rewriter.FakeRewriter{Ok: true}
	h := newHarness(t, trans, rw)

	h.ctrl.Press()
	h.ctrl.Release()

	if got := h.waitOutcome(t); got != "aborted_error" {
		t.Fatalf("outcome = %q", got)
	}
	if rw.Calls() != 0 {
		t.Fatal("rewriter ran after transcription failure")
	}
	if len(h.inj.delivered()) != 0 {
		t.Fatal("injection ran after transcription failure")
	}
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	if len(h.sink.errors) == 0 {
		t.Fatal("no error surfaced to the overlay")
	}
}

func TestDeliveryFailureStillCompletes(t *testing.T) {
	trans := transcriber.NewFake("text", nil)
	rw := &rewriter.FakeRewriter{Ok: true, Prefix: "p: "}
	h := newHarness(t, trans, rw)
	h.inj.err = errors.New("clipboard unavailable")

	h.ctrl.Press()
	h.ctrl.Release()

	if got := h.waitOutcome(t); got != "success" {
		t.Fatalf("outcome = %q", got)
	}
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	if len(h.sink.results) != 1 {
		t.Fatalf("results = %v", h.sink.results)
	}
	if h.sink.copied[0] {
		t.Fatal("copied flag set despite delivery failure")
	}
	last, _ := h.ctrl.LastText()
	if last != "p: text" {
		t.Fatal("last text not retained after delivery failure")
	}
}

func TestReleaseWithoutPress(t *testing.T) {
	trans := transcriber.NewFake("text", nil)
	h := newHarness(t, trans, &rewriter.FakeRewriter{Ok: true})

	h.ctrl.Release()

	select {
	case o := <-h.outcomes:
		t.Fatalf("unexpected outcome %q", o)
	case <-time.After(50 * time.Millisecond):
	}
	if h.rec.stops != 0 {
		t.Fatal("recorder stopped without a session")
	}
}

func TestCaptureStartFailure(t *testing.T) {
	trans := transcriber.NewFake("text", nil)
	h := newHarness(t, trans, &rewriter.FakeRewriter{Ok: true})
	h.rec.startErr = errors.New("device busy")

	h.ctrl.Press()
	if got := h.waitOutcome(t); got != "aborted_error" {
		t.Fatalf("outcome = %q", got)
	}

	// Device comes back, the next press must work.
	h.rec.startErr = nil
	h.ctrl.Press()
	h.ctrl.Release()
	if got := h.waitOutcome(t); got != "success" {
		t.Fatalf("outcome = %q", got)
	}
}
