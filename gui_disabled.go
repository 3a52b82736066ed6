//go:build !gui

package main

import "murmur/audio"

// Stubs for non-GUI builds (never used since guiMode stays false)
var guiAudioCtx audio.Context
var guiCaptureDevice audio.CaptureDevice

func initGUI() {
	panic("murmur: built without GUI support (rebuild with -tags gui)")
}
