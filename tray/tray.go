// Package tray drives the macOS menu bar item: recording state, style
// selection, device switching and a few settings toggles.
package tray

import (
	"fmt"
	"sync"
	"time"

	"murmur/style"
)

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once

	copyLastFn func()
	recordFn   func()
	stopFn     func()

	recording bool
	warning   bool

	deviceMu    sync.Mutex
	deviceNames []string
	deviceSel   string
	deviceCb    func(string)

	autoPasteOn bool
	autoPasteCb func(bool)

	loginOn bool
	loginCb func(bool) error

	styleMu  sync.Mutex
	styleSel style.Style
	styleCb  func(style.Style)

	isBTFn func(string) bool
)

func OnCopyLast(fn func())        { copyLastFn = fn }
func OnRecord(start, stop func()) { recordFn = start; stopFn = stop }
func SetAutoPaste(on bool)        { autoPasteOn = on }
func OnAutoPaste(fn func(bool))   { autoPasteCb = fn }
func SetLogin(on bool)            { loginOn = on }
func OnLogin(fn func(bool) error) { loginCb = fn }

func SetRecording(rec bool) {
	recording = rec
	warning = false
	updateRecordingIcon(rec)
	if rec {
		disableDevices()
	} else {
		enableDevices()
	}
}

func SetWarning(on bool) {
	if !recording {
		return
	}
	warning = on
	updateWarningIcon(on)
}

func SetError(msg string) {
	updateTooltip("murmur – " + msg)
	go func() {
		time.Sleep(10 * time.Second)
		updateTooltip("murmur – push to talk")
	}()
}

func Quit() {
	closeOnce.Do(func() { close(quitCh) })
}

func SetDevices(names []string, selected string, onSwitch func(name string)) {
	deviceMu.Lock()
	deviceNames = names
	deviceSel = selected
	if onSwitch != nil {
		deviceCb = onSwitch
	}
	deviceMu.Unlock()
}

// SetStyle sets the initial style selection and the switch callback.
func SetStyle(current style.Style, onSwitch func(style.Style)) {
	styleMu.Lock()
	styleSel = current
	styleCb = onSwitch
	styleMu.Unlock()
}

// UpdateStyle reflects a style change made elsewhere (cycle key, TUI).
func UpdateStyle(current style.Style) {
	styleMu.Lock()
	styleSel = current
	styleMu.Unlock()
	refreshStyleChecks(current)
}

func SetLastSession(dur time.Duration, totalMs float64) {
	updateCopyLastTitle(fmt.Sprintf("Copy Last Dictation (%.1fs | %dms)", dur.Seconds(), int(totalMs)))
}

func SetUpdateAvailable(version string) {
	addUpdateMenuItem(version)
}

func SetBTCheck(fn func(string) bool) {
	isBTFn = fn
}

func deviceDisplayName(name string) string {
	if isBTFn != nil && isBTFn(name) {
		return name + " [⚠ Lower audio quality]"
	}
	return name
}
