package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"time"
)

// Recorder buffers capture samples between Start and Stop. Nothing is
// buffered while stopped, so an idle recorder costs no CPU.
type Recorder struct {
	capture CaptureDevice

	// Both hooks run on the capture callback and must not block.
	onLevel func(rms float64)
	onData  func(data []byte)

	mu      sync.Mutex
	started bool
	buf     []int16
}

func NewRecorder(capture CaptureDevice) *Recorder {
	return &Recorder{capture: capture}
}

// OnLevel registers a per-callback RMS amplitude hook (waveform rendering).
func (r *Recorder) OnLevel(fn func(rms float64)) {
	r.onLevel = fn
}

// OnData registers a raw-sample hook (voice activity detection).
func (r *Recorder) OnData(fn func(data []byte)) {
	r.onData = fn
}

// SwapCapture replaces the underlying device, for microphone switching.
// Only valid while stopped.
func (r *Recorder) SwapCapture(capture CaptureDevice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return errors.New("cannot swap capture device while recording")
	}
	r.capture = capture
	return nil
}

// Start opens the capture stream and begins buffering. Calling Start on a
// recorder that is already started is a no-op.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	r.buf = r.buf[:0]
	r.mu.Unlock()

	r.capture.SetCallback(r.onChunk)
	if err := r.capture.Start(); err != nil {
		r.capture.ClearCallback()
		r.mu.Lock()
		r.started = false
		r.mu.Unlock()
		return err
	}
	return nil
}

// Stop closes the stream and returns everything buffered since Start,
// resetting the internal buffer. Stop on a stopped recorder returns nil.
func (r *Recorder) Stop() []int16 {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = false
	r.mu.Unlock()

	r.capture.Stop()
	r.capture.ClearCallback()

	r.mu.Lock()
	out := make([]int16, len(r.buf))
	copy(out, r.buf)
	r.buf = r.buf[:0]
	r.mu.Unlock()
	return out
}

func (r *Recorder) onChunk(data []byte, _ uint32) {
	if len(data) < 2 {
		return
	}

	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	for i := 0; i+1 < len(data); i += 2 {
		r.buf = append(r.buf, int16(binary.LittleEndian.Uint16(data[i:])))
	}
	r.mu.Unlock()

	if r.onLevel != nil {
		var sumSquares float64
		for i := 0; i+1 < len(data); i += 2 {
			sample := int16(binary.LittleEndian.Uint16(data[i:]))
			normalized := float64(sample) / 32768.0
			sumSquares += normalized * normalized
		}
		r.onLevel(math.Sqrt(sumSquares / float64(len(data)/2)))
	}
	if r.onData != nil {
		r.onData(data)
	}
}

// Duration converts a sample count to wall time at the capture rate.
func Duration(pcm []int16) time.Duration {
	return time.Duration(float64(len(pcm)) / float64(SampleRate) * float64(time.Second))
}
