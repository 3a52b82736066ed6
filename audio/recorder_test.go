package audio

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

type stubCapture struct {
	cb      DataCallback
	started bool
	stopped bool
	failure error
}

func (s *stubCapture) Start() error {
	if s.failure != nil {
		return s.failure
	}
	s.started = true
	return nil
}

func (s *stubCapture) Stop()                      { s.stopped = true }
func (s *stubCapture) Close()                     {}
func (s *stubCapture) SetCallback(cb DataCallback) { s.cb = cb }
func (s *stubCapture) ClearCallback()             { s.cb = nil }
func (s *stubCapture) DeviceName() string         { return "stub" }

func pcmBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func TestRecorderBuffersBetweenStartAndStop(t *testing.T) {
	cap := &stubCapture{}
	rec := NewRecorder(cap)

	if err := rec.Start(); err != nil {
		t.Fatal(err)
	}
	want := []int16{100, -200, 300, -400}
	cap.cb(pcmBytes(want[:2]), 2)
	cap.cb(pcmBytes(want[2:]), 2)

	got := rec.Stop()
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
	if !cap.stopped {
		t.Fatal("capture device not stopped")
	}
}

func TestRecorderStopWithoutStart(t *testing.T) {
	rec := NewRecorder(&stubCapture{})
	if got := rec.Stop(); got != nil {
		t.Fatalf("expected nil, got %d samples", len(got))
	}
}

func TestRecorderStartIdempotent(t *testing.T) {
	cap := &stubCapture{}
	rec := NewRecorder(cap)
	if err := rec.Start(); err != nil {
		t.Fatal(err)
	}
	if err := rec.Start(); err != nil {
		t.Fatal(err)
	}
	cap.cb(pcmBytes([]int16{1, 2}), 2)
	if got := rec.Stop(); len(got) != 2 {
		t.Fatalf("double Start corrupted buffer: %d samples", len(got))
	}
}

func TestRecorderStartFailureResets(t *testing.T) {
	cap := &stubCapture{failure: errStub}
	rec := NewRecorder(cap)
	if err := rec.Start(); err == nil {
		t.Fatal("expected error")
	}
	if cap.cb != nil {
		t.Fatal("callback left registered after failed Start")
	}

	// A later Start against a working device must succeed.
	cap.failure = nil
	if err := rec.Start(); err != nil {
		t.Fatal(err)
	}
	rec.Stop()
}

func TestRecorderBufferResetsAcrossSessions(t *testing.T) {
	cap := &stubCapture{}
	rec := NewRecorder(cap)

	rec.Start()
	cap.cb(pcmBytes([]int16{1, 2, 3}), 3)
	rec.Stop()

	rec.Start()
	cap.cb(pcmBytes([]int16{4}), 1)
	got := rec.Stop()
	if len(got) != 1 || got[0] != 4 {
		t.Fatalf("second session buffer polluted: %v", got)
	}
}

func TestRecorderLevelHook(t *testing.T) {
	cap := &stubCapture{}
	rec := NewRecorder(cap)

	var levels []float64
	rec.OnLevel(func(rms float64) { levels = append(levels, rms) })

	rec.Start()
	cap.cb(pcmBytes([]int16{0, 0, 0, 0}), 4)
	cap.cb(pcmBytes([]int16{16384, 16384}), 2)
	rec.Stop()

	if len(levels) != 2 {
		t.Fatalf("got %d level callbacks, want 2", len(levels))
	}
	if levels[0] != 0 {
		t.Fatalf("silence RMS = %f, want 0", levels[0])
	}
	if math.Abs(levels[1]-0.5) > 0.001 {
		t.Fatalf("half-scale RMS = %f, want 0.5", levels[1])
	}
}

func TestRecorderDataHook(t *testing.T) {
	cap := &stubCapture{}
	rec := NewRecorder(cap)

	var chunks int
	rec.OnData(func(data []byte) { chunks++ })

	rec.Start()
	cap.cb(pcmBytes([]int16{1, 2}), 2)
	cap.cb(pcmBytes([]int16{3, 4}), 2)
	rec.Stop()

	if chunks != 2 {
		t.Fatalf("got %d data callbacks, want 2", chunks)
	}
}

func TestDuration(t *testing.T) {
	pcm := make([]int16, SampleRate) // exactly one second
	if d := Duration(pcm); d != time.Second {
		t.Fatalf("got %v, want 1s", d)
	}
	if d := Duration(nil); d != 0 {
		t.Fatalf("got %v, want 0", d)
	}
}

var errStub = errStubType{}

type errStubType struct{}

func (errStubType) Error() string { return "stub failure" }
