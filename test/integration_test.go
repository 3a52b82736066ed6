//go:build integration

package test_test

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("MURMUR_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "MURMUR_TEST_BIN not set; run: make test-integration")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// generateToneWAV writes a mono 16 kHz sine so the recording is never
// mistaken for silence.
func generateToneWAV(path string, durationS float64) error {
	const sampleRate = 16000
	const headerSize = 44
	numSamples := int(sampleRate * durationS)
	dataSize := numSamples * 2

	buf := make([]byte, headerSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], sampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], sampleRate*2)
	binary.LittleEndian.PutUint16(buf[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16) // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i := 0; i < numSamples; i++ {
		s := int16(8000 * math.Sin(2*math.Pi*220*float64(i)/sampleRate))
		binary.LittleEndian.PutUint16(buf[headerSize+i*2:], uint16(s))
	}
	return os.WriteFile(path, buf, 0644)
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

// runMurmur drives the binary in headless test mode. Whisper and rewrite
// credentials are stripped so the fake pipeline stages run and the test
// stays offline.
func runMurmur(t *testing.T, stdin, wavPath string) (logDir string) {
	t.Helper()
	logDir = t.TempDir()

	cmd := exec.Command(testBinary,
		"-logpath", logDir,
		"-autopaste=false",
		"-config", filepath.Join(logDir, "no-config.yaml"),
		"-test", wavPath)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(),
		"WHISPER_BIN=",
		"WHISPER_MODEL_PATH=",
		"OPENAI_API_KEY=",
		"MURMUR_LOG_PATH=")

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("murmur exited with error: %v\noutput: %s", err, out)
	}
	return logDir
}

func toneWAV(t *testing.T, durationS float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := generateToneWAV(path, durationS); err != nil {
		t.Fatalf("generating wav: %v", err)
	}
	return path
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func TestDictationSession(t *testing.T) {
	wav := toneWAV(t, 1.0)
	logDir := runMurmur(t, cmds("KEYDOWN", "SLEEP 100", "KEYUP", "WAIT", "QUIT"), wav)

	transcript := readLog(t, logDir, "transcript_log.txt")
	if strings.TrimSpace(transcript) == "" {
		t.Fatal("transcript_log.txt is empty, expected a dictated line")
	}

	diag := readLog(t, logDir, "diagnostics_log.txt")
	if !strings.Contains(diag, "session") {
		t.Errorf("diagnostics log has no session entry:\n%s", diag)
	}
	// No API key stripped in env means every session falls back to raw
	if !strings.Contains(diag, "fallback_raw") {
		t.Errorf("expected fallback_raw outcome in diagnostics:\n%s", diag)
	}
}

func TestShortTapDiscarded(t *testing.T) {
	wav := toneWAV(t, 0.1) // below the 300ms default threshold
	logDir := runMurmur(t, cmds("KEYDOWN", "KEYUP", "WAIT", "QUIT"), wav)

	transcript := readLog(t, logDir, "transcript_log.txt")
	if strings.TrimSpace(transcript) != "" {
		t.Fatalf("sub-threshold recording produced a transcript: %q", transcript)
	}

	diag := readLog(t, logDir, "diagnostics_log.txt")
	if !strings.Contains(diag, "discarding") {
		t.Errorf("expected discard entry in diagnostics:\n%s", diag)
	}
}

func TestMultipleSessions(t *testing.T) {
	wav := toneWAV(t, 1.0)
	logDir := runMurmur(t, cmds(
		"KEYDOWN", "KEYUP", "WAIT",
		"KEYDOWN", "KEYUP", "WAIT",
		"QUIT"), wav)

	transcript := readLog(t, logDir, "transcript_log.txt")
	lines := strings.Split(strings.TrimSpace(transcript), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 transcript lines, got %d:\n%s", len(lines), transcript)
	}
}

func TestStyleCycleAcrossSessions(t *testing.T) {
	wav := toneWAV(t, 1.0)
	logDir := runMurmur(t, cmds(
		"KEYDOWN", "CYCLE", "KEYUP", "WAIT",
		"QUIT"), wav)

	diag := readLog(t, logDir, "diagnostics_log.txt")
	// Cycled mid-recording from the default: the session must log casual
	if !strings.Contains(diag, "casual") {
		t.Errorf("expected the cycled style in the session entry:\n%s", diag)
	}
}

func TestQuitLogsShutdown(t *testing.T) {
	wav := toneWAV(t, 1.0)
	logDir := runMurmur(t, cmds("KEYDOWN", "KEYUP", "WAIT", "QUIT"), wav)

	diag := readLog(t, logDir, "diagnostics_log.txt")
	if !strings.Contains(diag, "app_end") {
		t.Errorf("expected app_end entry in diagnostics:\n%s", diag)
	}
}
