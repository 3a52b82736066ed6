package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeWAVHeader(t *testing.T) {
	pcm := []int16{1000, -1000, 2000}
	data := EncodeWAV(pcm)

	if len(data) != WAVHeaderSize+len(pcm)*2 {
		t.Fatalf("total size %d, want %d", len(data), WAVHeaderSize+len(pcm)*2)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != SampleRate {
		t.Fatalf("sample rate %d, want %d", rate, SampleRate)
	}
	if ch := binary.LittleEndian.Uint16(data[22:24]); ch != Channels {
		t.Fatalf("channels %d, want %d", ch, Channels)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
		t.Fatalf("bits per sample %d, want 16", bits)
	}
	if size := binary.LittleEndian.Uint32(data[40:44]); size != uint32(len(pcm)*2) {
		t.Fatalf("data size %d, want %d", size, len(pcm)*2)
	}
	if got := int16(binary.LittleEndian.Uint16(data[WAVHeaderSize:])); got != 1000 {
		t.Fatalf("first sample %d, want 1000", got)
	}
}

func TestWriteWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	pcm := []int16{1, -2, 3, -4}
	if err := WriteWAV(path, pcm); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range pcm {
		got := int16(binary.LittleEndian.Uint16(data[WAVHeaderSize+i*2:]))
		if got != want {
			t.Fatalf("sample %d: got %d, want %d", i, got, want)
		}
	}
}

func TestFakeCaptureFeedsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.wav")
	pcm := make([]int16, 4000)
	for i := range pcm {
		pcm[i] = int16(i % 500)
	}
	if err := WriteWAV(path, pcm); err != nil {
		t.Fatal(err)
	}

	ctx, err := NewFakeContext(path)
	if err != nil {
		t.Fatal(err)
	}
	cap, err := ctx.NewCapture(nil, CaptureConfig{SampleRate: SampleRate, Channels: Channels})
	if err != nil {
		t.Fatal(err)
	}

	rec := NewRecorder(cap)
	if err := rec.Start(); err != nil {
		t.Fatal(err)
	}
	got := rec.Stop()
	if len(got) < len(pcm) {
		t.Fatalf("got %d samples, want at least %d", len(got), len(pcm))
	}
	for i := range pcm {
		if got[i] != pcm[i] {
			t.Fatalf("sample %d: got %d, want %d", i, got[i], pcm[i])
		}
	}
}

func TestIsBluetooth(t *testing.T) {
	if !IsBluetooth("AirPods Pro") {
		t.Fatal("AirPods not detected as bluetooth")
	}
	if IsBluetooth("Built-in Microphone") {
		t.Fatal("built-in mic flagged as bluetooth")
	}
}
