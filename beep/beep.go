// Package beep plays short audio cues so the user knows when capture
// starts and stops without looking at a screen.
package beep

var disabled bool

func Disable() { disabled = true }

const (
	sampleRate = 44100

	// Start cue: high pitch, short
	startFreq   = 1150
	startVolume = 0.5
	startDecay  = 55

	// End cue: medium pitch, slightly longer
	endFreq   = 870
	endVolume = 0.5
	endDecay  = 38

	// Error cue: low pitch double-beep
	errorFreq   = 340
	errorVolume = 0.6
	errorDecay  = 28
)
