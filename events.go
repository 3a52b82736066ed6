package main

// EventSink abstracts the display layer so the TUI, the optional GUI
// overlay and the tray all receive the same session events.
type EventSink interface {
	RecordingStart()
	RecordingStop()
	RecordingTick(duration float64)
	AudioLevel(level float64)
	NoVoiceWarning()
	VoiceCleared()
	Processing(stage string)
	Result(text string, fallback bool, copied bool)
	SessionError(msg string)
	ModeLine(text string)
	DeviceLine(text string)
}

// nopSink keeps headless operation working with no display attached.
type nopSink struct{}

func (nopSink) RecordingStart()             {}
func (nopSink) RecordingStop()              {}
func (nopSink) RecordingTick(float64)       {}
func (nopSink) AudioLevel(float64)          {}
func (nopSink) NoVoiceWarning()             {}
func (nopSink) VoiceCleared()               {}
func (nopSink) Processing(string)           {}
func (nopSink) Result(string, bool, bool)   {}
func (nopSink) SessionError(string)         {}
func (nopSink) ModeLine(string)             {}
func (nopSink) DeviceLine(string)           {}

// multiSink fans events out to every attached sink.
type multiSink []EventSink

func (m multiSink) RecordingStart() {
	for _, s := range m {
		s.RecordingStart()
	}
}

func (m multiSink) RecordingStop() {
	for _, s := range m {
		s.RecordingStop()
	}
}

func (m multiSink) RecordingTick(d float64) {
	for _, s := range m {
		s.RecordingTick(d)
	}
}

func (m multiSink) AudioLevel(l float64) {
	for _, s := range m {
		s.AudioLevel(l)
	}
}

func (m multiSink) NoVoiceWarning() {
	for _, s := range m {
		s.NoVoiceWarning()
	}
}

func (m multiSink) VoiceCleared() {
	for _, s := range m {
		s.VoiceCleared()
	}
}

func (m multiSink) Processing(stage string) {
	for _, s := range m {
		s.Processing(stage)
	}
}

func (m multiSink) Result(text string, fallback, copied bool) {
	for _, s := range m {
		s.Result(text, fallback, copied)
	}
}

func (m multiSink) SessionError(msg string) {
	for _, s := range m {
		s.SessionError(msg)
	}
}

func (m multiSink) ModeLine(text string) {
	for _, s := range m {
		s.ModeLine(text)
	}
}

func (m multiSink) DeviceLine(text string) {
	for _, s := range m {
		s.DeviceLine(text)
	}
}
