// Package doctor runs interactive end-to-end diagnostics: hotkey,
// microphone plus local transcription, rewrite credentials, and
// clipboard delivery.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"murmur/audio"
	"murmur/clipboard"
	"murmur/config"
	"murmur/hotkey"
	"murmur/rewriter"
	"murmur/style"
	"murmur/transcriber"
)

// Run executes the checks in order and returns an exit code (0=all pass).
func Run(cfg *config.Config) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("murmur doctor - interactive system diagnostics")
	fmt.Println("==============================================")

	allPass := true

	if !checkHotkey(cfg) {
		allPass = false
	}
	if allPass && !checkMicAndTranscription(cfg) {
		allPass = false
	}
	if allPass && !checkRewrite(cfg) {
		allPass = false
	}
	if allPass && !checkClipboard() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkHotkey(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[1/4] Hotkey detection")

	chord, err := hotkey.ParseChord(cfg.Hotkey.Chord)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("Press %s...\n", chord)

	hk, err := hotkey.New(chord)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		// Wait for keyup so the release does not leak into the next step
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkMicAndTranscription(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[2/4] Microphone and local transcription")

	reader := bufio.NewReader(os.Stdin)

	whisper, err := transcriber.NewWhisperCPP(
		cfg.Whisper.Bin, config.ExpandHome(cfg.Whisper.Model),
		cfg.Whisper.Threads, cfg.Whisper.Timeout)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}

	var device *audio.DeviceInfo
	switch {
	case len(devices) == 0:
		fmt.Println("Using system default device")
	case len(devices) == 1:
		device = &devices[0]
		fmt.Printf("Using device: %s\n", device.Name)
	default:
		fmt.Println()
		fmt.Println("Select input device:")
		for i, d := range devices {
			fmt.Printf("  %d. %s\n", i+1, d.Name)
		}
		fmt.Printf("Choice [1-%d]: ", len(devices))

		devChoice, _ := reader.ReadString('\n')
		devChoice = strings.TrimSpace(devChoice)
		idx := 0
		if devChoice != "" {
			fmt.Sscanf(devChoice, "%d", &idx)
			idx--
		}
		if idx < 0 || idx >= len(devices) {
			fmt.Println("  FAIL: invalid choice")
			return false
		}
		device = &devices[idx]
		fmt.Printf("Selected: %s\n", device.Name)
	}

	fmt.Println()
	fmt.Print("Press Enter and speak for 3 seconds...")
	reader.ReadString('\n')

	pcm, err := recordFor(ctx, device, 3*time.Second)
	if err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}
	if len(pcm) == 0 {
		fmt.Println("  FAIL: no audio captured")
		return false
	}

	fmt.Printf("  Recorded %.1fs, transcribing locally...\n", audio.Duration(pcm).Seconds())

	text, err := whisper.Transcribe(context.Background(), pcm)
	if err != nil {
		fmt.Printf("  FAIL: transcription error: %v\n", err)
		return false
	}
	if text == "" {
		text = "(no speech detected)"
	}

	fmt.Printf("\n  Transcribed text: %s\n\n", text)

	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}
	fmt.Println("  FAIL: transcription not confirmed")
	return false
}

func recordFor(ctx audio.Context, device *audio.DeviceInfo, d time.Duration) ([]int16, error) {
	captureDevice, err := ctx.NewCapture(device, audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	})
	if err != nil {
		return nil, err
	}
	defer captureDevice.Close()

	rec := audio.NewRecorder(captureDevice)
	if err := rec.Start(); err != nil {
		return nil, err
	}

	fmt.Print("  Recording")
	done := make(chan struct{})
	ticker := time.NewTicker(500 * time.Millisecond)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	time.Sleep(d)
	close(done)
	pcm := rec.Stop()
	fmt.Println(" done")
	return pcm, nil
}

func checkRewrite(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[3/4] Rewrite credentials")

	if !cfg.RewriteEnabled() {
		fmt.Println("  SKIP: no API key configured, sessions will use raw transcripts")
		return true
	}

	rw := rewriter.NewOpenAI(cfg.Rewrite.APIKey, cfg.Rewrite.Model, cfg.Rewrite.Timeout)
	res := rw.Rewrite(context.Background(), "um so this is just a quick test of the rewrite step", style.Plain)
	if !res.Ok {
		fmt.Printf("  FAIL: %v\n", res.Err)
		return false
	}
	fmt.Printf("  PASS: %s responded (%q)\n", rw.Name(), res.Text)
	return true
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[4/4] Clipboard and paste")

	if err := clipboard.Init(); err != nil {
		fmt.Printf("  Warning: paste init: %v\n", err)
	}

	fmt.Println("Focus on a text editor window...")
	for i := 5; i > 0; i-- {
		fmt.Printf("  %d...\n", i)
		time.Sleep(1 * time.Second)
	}

	testStr := "murmur-doctor-test"
	if err := clipboard.Copy(testStr); err != nil {
		fmt.Printf("  FAIL: clipboard copy failed: %v\n", err)
		return false
	}
	if err := clipboard.Paste(); err != nil {
		fmt.Printf("  FAIL: paste failed: %v\n", err)
		return false
	}

	resetTerminal()
	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Println()
	fmt.Printf("Did the text %q appear? [y/n]: ", testStr)
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm != "y" && confirm != "yes" {
		fmt.Println("  FAIL: clipboard/paste not confirmed")
		return false
	}
	fmt.Println("  PASS: clipboard and paste verified by user")
	return true
}
