package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"murmur/audio"
	"murmur/beep"
	"murmur/log"
	"murmur/rewriter"
	"murmur/style"
	"murmur/transcriber"
)

type sessionState int

const (
	stateIdle sessionState = iota
	stateRecording
	stateTranscribing
	stateRewriting
	stateInjecting
)

type recorder interface {
	Start() error
	Stop() []int16
}

type deliverer interface {
	Deliver(text string, autoPaste bool) error
}

// Controller owns the dictation session lifecycle:
// Idle -> Recording -> Transcribing -> Rewriting -> Injecting -> Idle.
// At most one session is in flight; a press while busy is ignored.
type Controller struct {
	rec      recorder
	trans    transcriber.Transcriber
	rw       rewriter.Rewriter
	injector deliverer
	modes    *style.Manager
	sink     EventSink

	minDuration time.Duration
	minChars    int
	autoPaste   atomic.Bool
	cues        bool

	mu        sync.Mutex
	state     sessionState
	startedAt time.Time

	lastMu   sync.Mutex
	lastText string
	lastDur  time.Duration

	sessions atomic.Int32

	// onIdle fires after a session reaches a terminal outcome. Used by
	// the tray and the headless driver; may be nil.
	onIdle func(outcome string)
}

type ControllerConfig struct {
	MinDuration time.Duration
	MinChars    int
	AutoPaste   bool
	Cues        bool
	OnIdle      func(outcome string)
}

func NewController(rec recorder, trans transcriber.Transcriber, rw rewriter.Rewriter, injector deliverer, modes *style.Manager, sink EventSink, cfg ControllerConfig) *Controller {
	if sink == nil {
		sink = nopSink{}
	}
	c := &Controller{
		rec:         rec,
		trans:       trans,
		rw:          rw,
		injector:    injector,
		modes:       modes,
		sink:        sink,
		minDuration: cfg.MinDuration,
		minChars:    cfg.MinChars,
		cues:        cfg.Cues,
		onIdle:      cfg.OnIdle,
	}
	c.autoPaste.Store(cfg.AutoPaste)
	return c
}

func (c *Controller) SetAutoPaste(on bool) { c.autoPaste.Store(on) }
func (c *Controller) AutoPaste() bool      { return c.autoPaste.Load() }

func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateRecording
}

func (c *Controller) LastText() (string, time.Duration) {
	c.lastMu.Lock()
	defer c.lastMu.Unlock()
	return c.lastText, c.lastDur
}

func (c *Controller) Sessions() int { return int(c.sessions.Load()) }

// Press opens a session. Anything but Idle makes it a no-op, which is
// what keeps a second chord press from corrupting a session in flight.
func (c *Controller) Press() {
	c.mu.Lock()
	if c.state != stateIdle {
		c.mu.Unlock()
		return
	}
	c.state = stateRecording
	c.startedAt = time.Now()
	c.mu.Unlock()

	err := c.rec.Start()

	c.mu.Lock()
	if c.state != stateRecording {
		// A Release raced the device open and already closed the session.
		// Its Stop hit a not-yet-started recorder, so close the mic here
		// or its buffer bleeds into the next session.
		c.mu.Unlock()
		if err == nil {
			c.rec.Stop()
		}
		return
	}
	if err != nil {
		c.state = stateIdle
		c.mu.Unlock()
		log.Errorf("capture start failed: %v", err)
		c.sink.SessionError(fmt.Sprintf("microphone unavailable: %v", err))
		if c.cues {
			beep.PlayError()
		}
		c.finish("aborted_error")
		return
	}
	c.mu.Unlock()

	if c.cues {
		beep.PlayStart()
	}
	c.sink.RecordingStart()
}

// Release closes the capture phase and hands the buffer to the pipeline
// goroutine. The caller (hotkey loop) never blocks on processing.
func (c *Controller) Release() {
	c.mu.Lock()
	if c.state != stateRecording {
		c.mu.Unlock()
		return
	}
	c.state = stateTranscribing
	c.mu.Unlock()

	if c.cues {
		beep.PlayEnd()
	}
	c.sink.RecordingStop()

	pcm := c.rec.Stop()
	dur := audio.Duration(pcm)

	if dur < c.minDuration {
		log.Info(fmt.Sprintf("discarding %dms recording (below %dms threshold)",
			dur.Milliseconds(), c.minDuration.Milliseconds()))
		c.mu.Lock()
		c.state = stateIdle
		c.mu.Unlock()
		c.finish("discarded_short")
		return
	}

	go c.process(pcm, dur)
}

func (c *Controller) process(pcm []int16, dur time.Duration) {
	totalStart := time.Now()
	outcome := "success"

	defer func() {
		c.mu.Lock()
		c.state = stateIdle
		c.mu.Unlock()
		c.finish(outcome)
	}()

	// Style is read at release time so a cycle during recording applies
	// to the session being dictated.
	st := c.modes.Current()

	c.sink.Processing("transcribing")
	transStart := time.Now()
	raw, err := c.trans.Transcribe(context.Background(), pcm)
	transMs := float64(time.Since(transStart).Milliseconds())

	if err != nil {
		outcome = "aborted_error"
		log.Errorf("transcription failed: %v", err)
		c.sink.SessionError(fmt.Sprintf("transcription failed: %v", err))
		if c.cues {
			beep.PlayError()
		}
		c.logSession(outcome, st, dur, transMs, 0, totalStart, 0)
		return
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) < c.minChars {
		outcome = "aborted_empty"
		c.sink.SessionError("no speech detected")
		c.logSession(outcome, st, dur, transMs, 0, totalStart, 0)
		return
	}

	log.TranscriptText(raw)

	c.mu.Lock()
	c.state = stateRewriting
	c.mu.Unlock()
	c.sink.Processing("rewriting")

	final := raw
	fallback := false
	rwStart := time.Now()
	res := c.rw.Rewrite(context.Background(), raw, st)
	rwMs := float64(time.Since(rwStart).Milliseconds())
	if res.Ok {
		final = res.Text
	} else {
		fallback = true
		outcome = "fallback_raw"
		if res.Err != nil {
			log.Warnf("rewrite failed, using raw transcript: %v", res.Err)
		}
	}

	c.mu.Lock()
	c.state = stateInjecting
	c.mu.Unlock()

	copied := true
	if err := c.injector.Deliver(final, c.autoPaste.Load()); err != nil {
		// Delivery problems never fail the session; the text is still
		// shown and kept for copy-last.
		copied = false
		log.Errorf("delivery failed: %v", err)
	}

	c.lastMu.Lock()
	c.lastText = final
	c.lastDur = dur
	c.lastMu.Unlock()

	c.sink.Result(final, fallback, copied)
	c.logSession(outcome, st, dur, transMs, rwMs, totalStart, len(final))
}

func (c *Controller) logSession(outcome string, st style.Style, dur time.Duration, transMs, rwMs float64, totalStart time.Time, chars int) {
	c.sessions.Add(1)
	log.Session(outcome, string(st), log.SessionMetrics{
		AudioLengthS: dur.Seconds(),
		TranscribeMs: transMs,
		RewriteMs:    rwMs,
		TotalMs:      float64(time.Since(totalStart).Milliseconds()),
		Chars:        chars,
	})
}

func (c *Controller) finish(outcome string) {
	if c.onIdle != nil {
		c.onIdle(outcome)
	}
}
