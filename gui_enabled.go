//go:build gui

package main

import (
	"fmt"
	"os"
	"runtime"

	"murmur/audio"
	"murmur/gui"
)

var guiApp *gui.App

// Audio context initialized on main thread for macOS Core Audio compatibility
var guiAudioCtx audio.Context
var guiCaptureDevice audio.CaptureDevice

func initGUI() {
	guiMode = true

	// Initialize audio on the main thread BEFORE Fyne starts; macOS Core
	// Audio wants main thread access for capture setup.
	var err error
	guiAudioCtx, err = audio.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}

	captureConfig := audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	}
	guiCaptureDevice, err = guiAudioCtx.NewCapture(nil, captureConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing capture device: %v\n", err)
		os.Exit(1)
	}

	// Lock this goroutine to the OS thread for Fyne/GLFW
	runtime.LockOSThread()

	guiApp = gui.NewApp(func() {
		run()
	})
	guiSink = guiApp
	if err := gui.Run(guiApp); err != nil {
		guiCaptureDevice.Close()
		guiAudioCtx.Close()
		panic(err)
	}
}
