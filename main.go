package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"murmur/audio"
	"murmur/beep"
	"murmur/clipboard"
	"murmur/config"
	"murmur/doctor"
	"murmur/hotkey"
	"murmur/inject"
	"murmur/log"
	"murmur/login"
	"murmur/rewriter"
	"murmur/shutdown"
	"murmur/style"
	"murmur/transcriber"
	"murmur/tray"
	"murmur/update"
)

var version = "dev"

// Set by initGUI when built with -tags gui.
var guiMode bool
var guiSink EventSink

var trayRecordChan = make(chan struct{}, 1)

var shutdownOnce sync.Once

var sessionCount func() int

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if sessionCount != nil {
			if n := sessionCount(); n > 0 {
				log.SessionEnd(n)
			}
		}
		log.Close()
		tray.Quit()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func modeLineText(modes *style.Manager, rewriteModel string) string {
	return fmt.Sprintf("[%s | %s]", modes.Current(), rewriteModel)
}

// traySink mirrors session events onto the menu bar item.
type traySink struct {
	mu     sync.Mutex
	start  time.Time
	recDur float64
}

func (t *traySink) RecordingStart() {
	t.mu.Lock()
	t.start = time.Now()
	t.recDur = 0
	t.mu.Unlock()
	tray.SetRecording(true)
}

func (t *traySink) RecordingStop() { tray.SetRecording(false) }

func (t *traySink) RecordingTick(d float64) {
	t.mu.Lock()
	t.recDur = d
	t.mu.Unlock()
}

func (t *traySink) AudioLevel(float64) {}
func (t *traySink) NoVoiceWarning()    { tray.SetWarning(true) }
func (t *traySink) VoiceCleared()      { tray.SetWarning(false) }
func (t *traySink) Processing(string)  {}

func (t *traySink) Result(string, bool, bool) {
	t.mu.Lock()
	start := t.start
	recDur := t.recDur
	t.mu.Unlock()
	dur := time.Duration(recDur * float64(time.Second))
	tray.SetLastSession(dur, float64(time.Since(start).Milliseconds()))
}

func (t *traySink) SessionError(msg string) { tray.SetError(msg) }
func (t *traySink) ModeLine(string)         {}
func (t *traySink) DeviceLine(string)       {}

// watchSilence drives the no-voice warning and the toggle-mode auto-close
// while a recording is open. Exits as soon as the session leaves Recording.
func watchSilence(ctrl *Controller, vp *vadProcessor, sink EventSink, isToggle func() bool, cues bool) {
	mon := newSilenceMonitor(isToggle)
	start := time.Now()
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for range ticker.C {
		if !ctrl.Recording() {
			return
		}
		sink.RecordingTick(time.Since(start).Seconds())
		switch mon.Tick(vp.HasSpeechTick()) {
		case SilenceWarn:
			log.Info("no_voice_warning")
			sink.NoVoiceWarning()
			if cues {
				beep.PlayError()
			}
		case SilenceWarnClear:
			sink.VoiceCleared()
		case SilenceRepeat:
			log.Info("silence_during_warning")
			sink.NoVoiceWarning()
			if cues {
				beep.PlayError()
			}
		case SilenceAutoClose:
			log.Info("silence_auto_close")
			ctrl.Release()
			return
		}
	}
}

func runUpdateCommand() {
	if version == "dev" {
		fmt.Println("Dev build — cannot check for updates.")
		os.Exit(0)
	}
	fmt.Printf("murmur %s — checking for updates...\n", version)
	rel, err := update.CheckLatest(version)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if rel == nil {
		fmt.Println("Already up to date.")
		os.Exit(0)
	}
	fmt.Printf("Update available: %s -> %s\n", version, rel.Version)
	fmt.Print("Continue? [y/N] ")
	var answer string
	fmt.Scanln(&answer)
	if answer != "y" && answer != "Y" {
		fmt.Println("Aborted.")
		os.Exit(0)
	}
	fmt.Printf("Downloading %s...\n", rel.Version)
	if err := update.Apply(rel); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Updated to %s\n", rel.Version)
	os.Exit(0)
}

func run() {
	if len(os.Args) > 1 && os.Args[1] == "update" {
		runUpdateCommand()
	}

	configFlag := flag.String("config", "", "Config file path (default: ~/.config/murmur/config.yaml)")
	styleFlag := flag.String("style", "", "Initial rewrite style (plain, casual, formal, notes, prompt)")
	autoPasteFlag := flag.Bool("autopaste", true, "Auto-paste into the focused window after dictation")
	cuesFlag := flag.Bool("cues", true, "Play audio cues on record start/stop/error")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	hybridFlag := flag.Bool("hybrid", false, "Enable hybrid tap+hold recording mode")
	longPressFlag := flag.Duration("longpress", 350*time.Millisecond, "Long-press threshold for PTT vs tap (e.g., 350ms)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	// Consumed in main() before run(); declared so flag.Parse accepts it
	flag.Bool("gui", false, "Run with the desktop overlay (requires a -tags gui build)")
	flag.Parse()

	configPath := *configFlag
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *styleFlag != "" {
		cfg.Style.Default = *styleFlag
	}
	if *deviceFlag == "" {
		*deviceFlag = cfg.Audio.Device
	}
	autoPaste := cfg.Inject.AutoPaste
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "autopaste" {
			autoPaste = *autoPasteFlag
		}
	})

	// Resolve log directory early
	logDirPref := *logPathFlag
	if logDirPref == "" {
		logDirPref = cfg.Log.Dir
	}
	logPath, err := log.ResolveDir(logDirPref)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("murmur %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(cfg))
	}

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: murmur -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(cfg, args[0], autoPaste)
		return
	}

	initialStyle, err := style.Parse(cfg.Style.Default)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	modes, err := style.NewManager(initialStyle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	chord, err := hotkey.ParseChord(cfg.Hotkey.Chord)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	trans, err := transcriber.NewWhisperCPP(cfg.Whisper.Bin, cfg.Whisper.Model, cfg.Whisper.Threads, cfg.Whisper.Timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Set whisper.bin and whisper.model in the config, or WHISPER_BIN / WHISPER_MODEL_PATH.")
		os.Exit(1)
	}

	var rw rewriter.Rewriter = rewriter.Disabled{}
	rewriteModel := "raw (no API key)"
	var openAI *rewriter.OpenAI
	if cfg.RewriteEnabled() {
		openAI = rewriter.NewOpenAI(cfg.Rewrite.APIKey, cfg.Rewrite.Model, cfg.Rewrite.Timeout)
		rw = openAI
		rewriteModel = cfg.Rewrite.Model
	}

	// Resolve -setup into -device early (before daemonization)
	if *setupFlag && *deviceFlag == "" && !guiMode {
		ctx, err := audio.NewContext()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
			os.Exit(1)
		}
		if dev, _ := selectDevice(ctx); dev != nil {
			*deviceFlag = dev.Name
		}
		ctx.Close()
	}

	// Daemonize in non-TUI mode: re-exec in background, return shell prompt
	if !*tuiFlag && !guiMode && os.Getenv("_MURMUR_BG") == "" {
		args := os.Args[1:]
		if *deviceFlag != "" {
			args = append(args, "-device", *deviceFlag)
		}
		exe, _ := os.Executable()
		cmd := exec.Command(exe, args...)
		cmd.Env = append(os.Environ(), "_MURMUR_BG=1")
		devnull, _ := os.Open(os.DevNull)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = devnull, devnull, devnull
		if err := cmd.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	} else {
		log.SessionStart(cfg.Style.Default, filepath.Base(cfg.Whisper.Model), rewriteModel)
	}

	if autoPaste {
		if err := clipboard.Init(); err != nil {
			fmt.Printf("Warning: paste init failed: %v\n", err)
			fmt.Println("Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		}
	}

	var ctx audio.Context
	var captureDevice audio.CaptureDevice
	if guiMode {
		// Audio was initialized on the main thread before Fyne started.
		ctx, captureDevice = guiAudioCtx, guiCaptureDevice
	} else {
		ctx, err = audio.NewContext()
		if err != nil {
			log.Errorf("audio context init error: %v", err)
			fmt.Printf("Error initializing audio context: %v\n", err)
			os.Exit(1)
		}
	}
	defer ctx.Close()

	captureConfig := audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	}

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := ctx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
	} else if *setupFlag && !guiMode {
		selectedDevice, err = selectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	if captureDevice == nil {
		captureDevice, err = ctx.NewCapture(selectedDevice, captureConfig)
		if err != nil {
			log.Errorf("capture device init error: %v", err)
			fmt.Printf("Error initializing capture device: %v\n", err)
			os.Exit(1)
		}
	}
	defer captureDevice.Close()

	rec := audio.NewRecorder(captureDevice)

	// Start TUI
	var sinks multiSink
	if guiSink != nil {
		sinks = append(sinks, guiSink)
	} else if *tuiFlag {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(chord.String())
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown()
		}()

		<-tuiReady
		sinks = append(sinks, tuiSink{})
	}
	sinks = append(sinks, &traySink{})
	var sink EventSink = sinks

	vp, err := newVADProcessor()
	if err != nil {
		log.Warnf("VAD init failed, silence monitoring disabled: %v", err)
		vp = nil
	}

	rec.OnLevel(sink.AudioLevel)
	if vp != nil {
		rec.OnData(vp.Process)
	}

	ctrl := NewController(rec, trans, rw, inject.New(), modes, sink, ControllerConfig{
		MinDuration: cfg.MinDuration(),
		MinChars:    cfg.Audio.MinChars,
		AutoPaste:   autoPaste,
		Cues:        *cuesFlag,
	})
	sessionCount = ctrl.Sessions

	startSession := func(isToggle func() bool) {
		ctrl.Press()
		if !ctrl.Recording() {
			return
		}
		if vp != nil {
			vp.Reset()
			go watchSilence(ctrl, vp, sink, isToggle, *cuesFlag)
		}
	}

	// Tray wiring
	tray.OnCopyLast(func() {
		if text, _ := ctrl.LastText(); text != "" {
			clipboard.Copy(text)
		}
	})
	tray.OnRecord(
		func() {
			select {
			case trayRecordChan <- struct{}{}:
			default:
			}
		},
		func() { ctrl.Release() },
	)
	tray.SetBTCheck(audio.IsBluetooth)

	// preferredDevice remembers the user's choice so we can auto-reconnect
	preferredDevice := ""
	if selectedDevice != nil {
		preferredDevice = selectedDevice.Name
	}

	applyDevice := func(newDevice *audio.DeviceInfo) {
		name := "system default"
		if newDevice != nil {
			name = newDevice.Name
		}
		log.Info("device_switch: " + name)
		newCapture, err := ctx.NewCapture(newDevice, captureConfig)
		if err != nil {
			log.Errorf("capture device reinit error: %v", err)
			return
		}
		old := captureDevice
		if err := rec.SwapCapture(newCapture); err != nil {
			log.Warnf("device switch rejected: %v", err)
			newCapture.Close()
			return
		}
		old.Close()
		captureDevice = newCapture
		selectedDevice = newDevice
		sink.DeviceLine(deviceLineText(newDevice))
	}

	switchDeviceByName := func(name string) {
		devices, err := ctx.Devices()
		if err != nil {
			log.Warnf("device enumeration failed: %v", err)
			return
		}
		for i := range devices {
			if devices[i].Name == name {
				applyDevice(&devices[i])
				return
			}
		}
		log.Warnf("device not found: %s", name)
	}

	if devices, err := ctx.Devices(); err == nil && len(devices) > 0 {
		names := make([]string, len(devices))
		for i := range devices {
			names[i] = devices[i].Name
		}
		tray.SetDevices(names, preferredDevice, func(name string) {
			preferredDevice = name
			switchDeviceByName(name)
		})
	}

	tray.SetAutoPaste(autoPaste)
	tray.SetStyle(modes.Current(), func(st style.Style) {
		if err := modes.Set(st); err != nil {
			return
		}
		log.Info("style_switch: " + string(st))
		sink.ModeLine(modeLineText(modes, rewriteModel))
	})
	tray.SetLogin(login.Enabled())
	tray.OnLogin(func(on bool) error {
		if on {
			return login.Enable()
		}
		return login.Disable()
	})

	trayQuit := tray.Init()
	tray.OnAutoPaste(func(on bool) { ctrl.SetAutoPaste(on) })

	// Poll for device changes (hotplug)
	go func() {
		var last []string
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			devices, err := ctx.Devices()
			if err != nil {
				continue
			}
			names := make([]string, len(devices))
			for i := range devices {
				names[i] = devices[i].Name
			}
			if slices.Equal(last, names) {
				continue
			}
			last = names
			selName := ""
			if selectedDevice != nil {
				selName = selectedDevice.Name
			}
			if selName != "" && !slices.Contains(names, selName) {
				// Selected device disappeared — fall back to default
				log.Info("device_disconnected: " + selName)
				applyDevice(nil)
				selName = ""
			} else if selName == "" && preferredDevice != "" && slices.Contains(names, preferredDevice) {
				// Preferred device reappeared — auto-reconnect
				log.Info("device_reconnected: " + preferredDevice)
				switchDeviceByName(preferredDevice)
				selName = preferredDevice
			}
			tray.RefreshDevices(names, selName)
		}
	}()

	update.StartBackgroundCheck(version, log.Dir(), func(rel update.Release) {
		log.Info("update_available: " + rel.Version)
		tuiSend(UpdateAvailableMsg{Version: rel.Version})
		tray.SetUpdateAvailable(rel.Version)
	})

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		select {
		case <-sigChan:
		case <-trayQuit:
		}
		gracefulShutdown()
	}()

	if *cuesFlag {
		go beep.Init()
	} else {
		beep.Disable()
	}
	if openAI != nil {
		go openAI.WarmConnection()
	}

	hk, err := hotkey.New(chord)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := hk.Register(); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Printf("Error registering hotkey %s: %v\n", chord, err)
		os.Exit(1)
	}
	defer hk.Unregister()

	sink.ModeLine(modeLineText(modes, rewriteModel))
	sink.DeviceLine(deviceLineText(selectedDevice))

	if *hybridFlag {
		hy := hotkey.NewHybrid(hk, *longPressFlag)
		for {
			select {
			case <-hy.Start():
				log.Info("hotkey_start")
				startSession(hy.IsToggle)
			case <-hy.StopChan():
				ctrl.Release()
			case <-trayRecordChan:
				log.Info("tray_record_start")
				startSession(func() bool { return true })
			}
		}
	} else {
		for {
			select {
			case <-hk.Keydown():
				log.Info("hotkey_down")
				startSession(func() bool { return false })
			case <-hk.Keyup():
				ctrl.Release()
			case <-trayRecordChan:
				log.Info("tray_record_start")
				startSession(func() bool { return true })
			}
		}
	}
}
