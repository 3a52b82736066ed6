//go:build gui

package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// App is a frameless splash overlay at the bottom of the screen showing a
// live waveform while a dictation is in flight. It implements the main
// package's event sink.
type App struct {
	fyneApp fyne.App
	window  fyne.Window
	wave    *WaveWidget
	onReady func()
	posX    int
	posY    int
}

func NewApp(onReady func()) *App {
	return &App{onReady: onReady}
}

func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.murmur.gui")
	a.fyneApp.Settings().SetTheme(&darkTheme{})

	// Primary monitor work area for positioning
	var screenW, screenH int
	monitor := glfw.GetPrimaryMonitor()
	if monitor != nil {
		_, _, screenW, screenH = monitor.GetWorkarea()
	} else {
		screenW, screenH = 1920, 1080 // fallback
	}

	// Frameless splash window on desktop
	if drv, ok := a.fyneApp.Driver().(desktop.Driver); ok {
		a.window = drv.CreateSplashWindow()
	} else {
		a.window = a.fyneApp.NewWindow("murmur")
	}

	a.wave = NewWaveWidget()

	a.window.SetContent(a.wave)
	a.window.SetFixedSize(true)
	a.window.SetPadded(false)

	waveSize := a.wave.MinSize()
	a.window.Resize(waveSize)

	// Bottom-center, with margin for the dock
	a.posX = (screenW - int(waveSize.Width)) / 2
	a.posY = screenH - int(waveSize.Height) - 20

	go a.onReady()

	// Event loop runs with the window hidden until RecordingStart
	a.fyneApp.Run()
	return nil
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		a.fyneApp.Quit()
	}
}

func (a *App) Show() {
	fyne.Do(func() {
		if a.window == nil {
			return
		}

		if glfwWin := glfw.GetCurrentContext(); glfwWin != nil {
			glfwWin.SetPos(a.posX, a.posY)
			glfwWin.SetAttrib(glfw.FocusOnShow, glfw.False)
			glfwWin.SetAttrib(glfw.Floating, glfw.True)
			glfwWin.Show()
		} else {
			a.window.Show()
		}
	})
}

func (a *App) Hide() {
	fyne.Do(func() {
		if a.window != nil {
			a.window.Hide()
		}
	})
}

// Event sink implementation; widget setters take their own lock, no fyne.Do
// needed here.
func (a *App) RecordingStart() {
	a.wave.SetRecording(true)
	a.Show()
}

func (a *App) RecordingStop() {
	a.wave.SetRecording(false)
}

func (a *App) RecordingTick(duration float64) {}

func (a *App) AudioLevel(level float64) {
	a.wave.SetLevel(level)
}

func (a *App) NoVoiceWarning() {
	a.wave.SetNoVoice(true)
}

func (a *App) VoiceCleared() {
	a.wave.SetNoVoice(false)
}

func (a *App) Processing(stage string) {
	a.wave.SetProcessing(true)
}

func (a *App) Result(text string, fallback, copied bool) {
	a.wave.SetProcessing(false)
	a.wave.SetNoVoice(false)
	a.Hide()
}

func (a *App) SessionError(msg string) {
	a.wave.SetProcessing(false)
	a.wave.SetNoVoice(false)
	a.Hide()
}

func (a *App) ModeLine(text string)   {}
func (a *App) DeviceLine(text string) {}
