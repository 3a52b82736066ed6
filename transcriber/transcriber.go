// Package transcriber turns recorded audio into text using a local
// whisper.cpp binary. Nothing leaves the machine at this stage.
package transcriber

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"murmur/audio"
)

type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, pcm []int16) (string, error)
}

// WhisperCPP shells out to whisper-cli. One invocation per session, no
// retry; a failed or timed-out run aborts the session.
type WhisperCPP struct {
	Bin     string
	Model   string
	Threads int
	Timeout time.Duration
}

func NewWhisperCPP(bin, model string, threads int, timeout time.Duration) (*WhisperCPP, error) {
	if bin == "" {
		return nil, fmt.Errorf("whisper binary not configured (set whisper.bin or WHISPER_BIN)")
	}
	if model == "" {
		return nil, fmt.Errorf("whisper model not configured (set whisper.model or WHISPER_MODEL_PATH)")
	}
	if _, err := os.Stat(model); err != nil {
		return nil, fmt.Errorf("whisper model %s: %w", model, err)
	}
	return &WhisperCPP{Bin: bin, Model: model, Threads: threads, Timeout: timeout}, nil
}

func (w *WhisperCPP) Name() string { return "whisper.cpp" }

func (w *WhisperCPP) Transcribe(ctx context.Context, pcm []int16) (string, error) {
	dir, err := os.MkdirTemp("", "murmur-*")
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	wavPath := filepath.Join(dir, "audio.wav")
	if err := audio.WriteWAV(wavPath, pcm); err != nil {
		return "", err
	}

	outBase := filepath.Join(dir, "audio")
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, w.Bin, w.args(wavPath, outBase)...)
	// CombinedOutput waits on the pipes, not just the child process. A
	// helper spawned by whisper can hold them open past the kill, so give
	// Wait a hard bound once the deadline fires.
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("whisper timed out after %s", w.Timeout)
		}
		return "", fmt.Errorf("whisper: %w: %s", err, tail(out))
	}

	text, err := os.ReadFile(outBase + ".txt")
	if err != nil {
		return "", fmt.Errorf("whisper produced no output: %w", err)
	}
	return strings.TrimSpace(string(text)), nil
}

// args builds the whisper-cli invocation: text output next to the WAV,
// no timestamps.
func (w *WhisperCPP) args(wavPath, outBase string) []string {
	args := []string{
		"-m", w.Model,
		"-f", wavPath,
		"-otxt",
		"-of", outBase,
		"--no-timestamps",
	}
	if w.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(w.Threads))
	}
	return args
}

// tail keeps the last part of whisper's combined output for error messages.
func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	const keep = 300
	if len(s) > keep {
		s = "..." + s[len(s)-keep:]
	}
	return s
}
