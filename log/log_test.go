package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func initInDir(t *testing.T) string {
	t.Helper()
	d := t.TempDir()
	SetDir(d)
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(Close)
	return d
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/murmur-logs")
	if err != nil {
		t.Fatalf("ResolveDir: %v", err)
	}
	if got != "/tmp/murmur-logs" {
		t.Errorf("ResolveDir = %q", got)
	}
}

func TestResolveDirRelativeFlag(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatalf("ResolveDir: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("relative flag not made absolute: %q", got)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("MURMUR_LOG_PATH", "/var/log/murmur")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatalf("ResolveDir: %v", err)
	}
	if got != "/var/log/murmur" {
		t.Errorf("ResolveDir = %q", got)
	}
}

func TestSessionWritesDiagnostics(t *testing.T) {
	d := initInDir(t)

	Session("fallback_raw", "plain", SessionMetrics{
		AudioLengthS: 1.5,
		TranscribeMs: 900,
		TotalMs:      950,
		Chars:        4,
	})
	Close()

	diag := readFile(t, filepath.Join(d, "diagnostics_log.txt"))
	for _, want := range []string{"session", "fallback_raw", "plain"} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics missing %q:\n%s", want, diag)
		}
	}
}

func TestTranscriptText(t *testing.T) {
	d := initInDir(t)

	TranscriptText("hello world")
	Close()

	got := readFile(t, filepath.Join(d, "transcript_log.txt"))
	if !strings.Contains(got, "hello world") {
		t.Errorf("transcript log missing text:\n%s", got)
	}
}

func TestLoggingBeforeInitIsNoop(t *testing.T) {
	Close()
	// Must not panic with no open files.
	Info("nothing")
	Warnf("nothing %d", 1)
	Errorf("nothing %d", 2)
	Session("success", "plain", SessionMetrics{})
	TranscriptText("dropped")
}
