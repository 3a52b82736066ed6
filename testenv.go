package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"murmur/audio"
	"murmur/beep"
	"murmur/clipboard"
	"murmur/config"
	"murmur/hotkey"
	"murmur/inject"
	"murmur/log"
	"murmur/rewriter"
	"murmur/style"
	"murmur/transcriber"
)

const testFallbackTranscript = "the quick brown fox jumps over the lazy dog"

// runTestMode drives the full pipeline headless: a fake hotkey fed from
// stdin commands and a WAV-fed fake capture device. With no whisper model
// or API key configured the fake stages keep the run fully offline.
func runTestMode(cfg *config.Config, wavPath string, autoPaste bool) {
	beep.Disable()

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	var trans transcriber.Transcriber
	if w, err := transcriber.NewWhisperCPP(cfg.Whisper.Bin, cfg.Whisper.Model, cfg.Whisper.Threads, cfg.Whisper.Timeout); err == nil {
		trans = w
	} else {
		trans = transcriber.NewFake(testFallbackTranscript, nil)
	}

	var rw rewriter.Rewriter = rewriter.Disabled{}
	rewriteModel := "disabled"
	if cfg.RewriteEnabled() {
		rw = rewriter.NewOpenAI(cfg.Rewrite.APIKey, cfg.Rewrite.Model, cfg.Rewrite.Timeout)
		rewriteModel = cfg.Rewrite.Model
	}

	modes, err := style.NewManager(style.Style(cfg.Style.Default))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log.SessionStart(cfg.Style.Default, trans.Name(), rewriteModel)

	if autoPaste {
		if err := clipboard.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: paste init failed: %v\n", err)
		}
	}

	fakeCtx, err := audio.NewFakeContext(wavPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	capture, err := fakeCtx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: audio.SampleRate, Channels: audio.Channels,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()

	sessionDone := make(chan struct{}, 1)
	ctrl := NewController(audio.NewRecorder(capture), trans, rw, inject.New(), modes, nopSink{}, ControllerConfig{
		MinDuration: cfg.MinDuration(),
		MinChars:    cfg.Audio.MinChars,
		AutoPaste:   autoPaste,
		OnIdle: func(string) {
			select {
			case sessionDone <- struct{}{}:
			default:
			}
		},
	})

	hk := hotkey.NewFake()

	// Stdin driver in background -- sends hotkey events, handles WAIT/SLEEP/QUIT
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			cmd := strings.TrimSpace(scanner.Text())
			switch cmd {
			case "KEYDOWN":
				hk.SimKeydown()
			case "KEYUP":
				hk.SimKeyup()
			case "WAIT":
				<-sessionDone
			case "CYCLE":
				modes.Cycle()
			case "QUIT":
				log.SessionEnd(ctrl.Sessions())
				os.Exit(0)
			default:
				if strings.HasPrefix(cmd, "SLEEP ") {
					if ms, err := strconv.Atoi(cmd[6:]); err == nil {
						time.Sleep(time.Duration(ms) * time.Millisecond)
					}
				}
			}
		}
		os.Exit(0)
	}()

	// Event loop -- same pattern as run()
	for {
		<-hk.Keydown()
		ctrl.Press()
		<-hk.Keyup()
		ctrl.Release()
	}
}
